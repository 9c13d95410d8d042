// Package store persists identities. Two implementations share one contract:
// an in-memory store for tests and single-node development, and a PostgreSQL
// store for production.
//
// Error Contract:
// - Find methods return sentinel.ErrNotFound (wrapped) when no identity exists.
// - Create returns ErrDuplicatePhone or ErrDuplicateUsername (both wrapping
//   sentinel.ErrConflict) when a uniqueness constraint is violated. Concurrent
//   creates for the same phone number are serialized so at most one succeeds.
// - SetFaceReference returns sentinel.ErrNotFound for a missing identity and
//   otherwise applies atomically: reference, enrolled flag, and updated_at
//   change together or not at all. Concurrent calls apply last-writer-wins.
// - Infrastructure failures are returned wrapped with context.
package store

import (
	"fmt"

	"facegate/pkg/platform/sentinel"
)

// Duplicate creation outcomes. Both wrap sentinel.ErrConflict; services match
// these directly to tell the caller which field collided.
var (
	ErrDuplicatePhone    = fmt.Errorf("phone number already registered: %w", sentinel.ErrConflict)
	ErrDuplicateUsername = fmt.Errorf("username already taken: %w", sentinel.ErrConflict)
)
