package memory

// EntryCount reports how many entries the map holds, expired or not.
func (s *Store) EntryCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
