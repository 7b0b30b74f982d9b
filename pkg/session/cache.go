// Package session holds the transient, per-browser-session store that
// carries extraction results between the upload step and the book designer
// pages. It is a non-durable cache: loss at session end is expected.
package session

import (
	"context"
	"errors"

	"montchatsouvenir/pkg/domain"
)

// Slot is the single well-known key downstream pages read after navigation.
const Slot = "extractedMessages"

// ErrStaleGeneration is returned by Store when a newer upload claimed the
// session while this run was in flight; the stale result is discarded.
var ErrStaleGeneration = errors.New("session claimed by a newer upload")

// Cache is the session-scoped conversation store. A writer first calls
// NextGeneration to claim the session; Store only succeeds while that claim
// is still the latest, which enforces the single-writer invariant without
// relying on call ordering.
type Cache interface {
	NextGeneration(ctx context.Context, sessionID string) (int64, error)
	Store(ctx context.Context, sessionID string, generation int64, conv domain.Conversation) error
	Retrieve(ctx context.Context, sessionID string) (domain.Conversation, bool, error)
	Clear(ctx context.Context, sessionID string) error
}
