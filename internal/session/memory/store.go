// Package memory is a process-local port.SessionStore.
package memory

import (
	"context"
	"sync"
	"time"

	"docfill/internal/domain"
)

type entry struct {
	record   domain.SessionRecord
	lastSeen time.Time
}

// Store keeps session records in a map. A record expires after ttl without
// access; expiry is checked on access and by a periodic sweep piggybacked on
// writes.
type Store struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// NewStore creates an empty store with the given inactivity ttl.
func NewStore(ttl time.Duration, opts ...Option) *Store {
	s := &Store{
		entries: make(map[string]*entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastSweep = s.now()
	return s
}

func (s *Store) Ensure(_ context.Context, id string) (domain.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(id)
	if e == nil {
		e = &entry{record: domain.SessionRecord{}}
		s.entries[id] = e
	}
	e.lastSeen = s.now()
	return e.record.Clone(), nil
}

func (s *Store) Put(_ context.Context, id string, docType domain.DocumentType, fields domain.FieldMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()

	e := s.live(id)
	if e == nil {
		e = &entry{record: domain.SessionRecord{}}
		s.entries[id] = e
	}
	stored := fields.Clone()
	if stored == nil {
		stored = domain.FieldMap{}
	}
	e.record[docType] = stored
	e.lastSeen = s.now()
	return nil
}

func (s *Store) Get(_ context.Context, id string) (domain.SessionRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.live(id)
	if e == nil {
		return nil, false, nil
	}
	e.lastSeen = s.now()
	return e.record.Clone(), true, nil
}

func (s *Store) Destroy(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, id)
	return nil
}

func (s *Store) Ping(context.Context) error {
	return nil
}

// Len reports the number of unexpired sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	n := 0
	for _, e := range s.entries {
		if now.Sub(e.lastSeen) < s.ttl {
			n++
		}
	}
	return n
}

// live returns the entry for id, dropping it if it has expired. Caller holds mu.
func (s *Store) live(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		return nil
	}
	if s.now().Sub(e.lastSeen) >= s.ttl {
		delete(s.entries, id)
		return nil
	}
	return e
}

// sweepLocked drops every expired entry at most once per ttl. Caller holds mu.
func (s *Store) sweepLocked() {
	now := s.now()
	if now.Sub(s.lastSweep) < s.ttl {
		return
	}
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) >= s.ttl {
			delete(s.entries, id)
		}
	}
	s.lastSweep = now
}
