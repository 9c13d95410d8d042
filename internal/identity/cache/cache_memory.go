package cache

import (
	"context"
	"sync"
	"time"

	"facegate/internal/identity/models"
)

// MemoryDirectory is an in-process directory cache for tests and single-node
// development. Expired entries are dropped lazily on read.
type MemoryDirectory struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

type memoryEntry struct {
	result    models.SearchResult
	expiresAt time.Time
}

// MemoryDirectoryOption configures a MemoryDirectory instance.
type MemoryDirectoryOption func(*MemoryDirectory)

// WithMemoryTTL overrides the default entry lifetime.
func WithMemoryTTL(ttl time.Duration) MemoryDirectoryOption {
	return func(d *MemoryDirectory) {
		if ttl > 0 {
			d.ttl = ttl
		}
	}
}

// WithClock injects a time source for expiry tests.
func WithClock(now func() time.Time) MemoryDirectoryOption {
	return func(d *MemoryDirectory) {
		if now != nil {
			d.now = now
		}
	}
}

// NewMemoryDirectory constructs an in-memory directory cache.
func NewMemoryDirectory(opts ...MemoryDirectoryOption) *MemoryDirectory {
	d := &MemoryDirectory{
		entries: make(map[string]memoryEntry),
		ttl:     defaultDirectoryTTL,
		now:     time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func (d *MemoryDirectory) Get(_ context.Context, username string) (*models.SearchResult, bool, error) {
	d.mu.RLock()
	entry, ok := d.entries[username]
	d.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if d.now().After(entry.expiresAt) {
		d.mu.Lock()
		delete(d.entries, username)
		d.mu.Unlock()
		return nil, false, nil
	}
	result := entry.result
	return &result, true, nil
}

func (d *MemoryDirectory) Set(_ context.Context, username string, result *models.SearchResult) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entries[username] = memoryEntry{
		result:    *result,
		expiresAt: d.now().Add(d.ttl),
	}
	return nil
}

func (d *MemoryDirectory) Invalidate(_ context.Context, username string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.entries, username)
	return nil
}

var _ Directory = (*MemoryDirectory)(nil)
