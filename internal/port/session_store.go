package port

import (
	"context"

	"docfill/internal/domain"
)

// SessionStore keeps one SessionRecord per session id.
// Concurrent Puts on the same id are last-write-wins.
type SessionStore interface {
	// Ensure returns the record for id, creating an empty one if absent.
	Ensure(ctx context.Context, id string) (domain.SessionRecord, error)
	// Put inserts or replaces the FieldMap stored under docType.
	Put(ctx context.Context, id string, docType domain.DocumentType, fields domain.FieldMap) error
	// Get returns the record and false when none exists.
	Get(ctx context.Context, id string) (domain.SessionRecord, bool, error)
	// Destroy removes the record. Destroying an absent record is not an error.
	Destroy(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}
