// Package cache provides the directory lookup cache. Username searches are
// read-heavy and tolerate short staleness, so results are cached with a TTL
// and invalidated when an enrollment changes the underlying identity.
package cache

import (
	"context"

	"facegate/internal/identity/models"
)

// Directory caches directory search results keyed by username.
// A miss is reported through the found flag, never as an error; errors are
// reserved for backend failures so callers can degrade to a direct lookup.
type Directory interface {
	Get(ctx context.Context, username string) (*models.SearchResult, bool, error)
	Set(ctx context.Context, username string, result *models.SearchResult) error
	Invalidate(ctx context.Context, username string) error
}
