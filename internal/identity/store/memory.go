package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"facegate/internal/identity/models"
	"facegate/pkg/platform/sentinel"
)

// InMemoryStore stores identities in memory, indexed by phone number with a
// secondary username index. The single write lock serializes concurrent
// creates, so two registrations for the same phone number cannot both win.
type InMemoryStore struct {
	mu         sync.RWMutex
	byPhone    map[string]*models.Identity
	byUsername map[string]string // username -> phone number
}

// NewInMemoryStore constructs an empty in-memory identity store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byPhone:    make(map[string]*models.Identity),
		byUsername: make(map[string]string),
	}
}

func (s *InMemoryStore) Create(_ context.Context, identity *models.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byPhone[identity.PhoneNumber]; ok {
		return ErrDuplicatePhone
	}
	// Case-sensitive exact match on username, same as the unique index.
	if _, ok := s.byUsername[identity.Username]; ok {
		return ErrDuplicateUsername
	}

	stored := cloneIdentity(identity)
	now := time.Now().UTC()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = stored.CreatedAt
	}
	s.byPhone[stored.PhoneNumber] = stored
	s.byUsername[stored.Username] = stored.PhoneNumber
	return nil
}

func (s *InMemoryStore) FindByPhone(_ context.Context, phoneNumber string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if identity, ok := s.byPhone[phoneNumber]; ok {
		return cloneIdentity(identity), nil
	}
	return nil, fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
}

func (s *InMemoryStore) FindByUsername(_ context.Context, username string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if phone, ok := s.byUsername[username]; ok {
		return cloneIdentity(s.byPhone[phone]), nil
	}
	return nil, fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
}

// SetFaceReference replaces the identity's face reference wholesale and marks
// it enrolled. Re-enrollment overwrites silently; no history is kept.
func (s *InMemoryStore) SetFaceReference(_ context.Context, phoneNumber string, ref *models.FaceReference) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	identity, ok := s.byPhone[phoneNumber]
	if !ok {
		return fmt.Errorf("identity not found: %w", sentinel.ErrNotFound)
	}
	identity.FaceReference = cloneReference(ref)
	identity.FaceEnrolled = true
	identity.UpdatedAt = time.Now().UTC()
	return nil
}

// cloneIdentity copies records across the store boundary so callers never
// share memory with the store's internal state.
func cloneIdentity(in *models.Identity) *models.Identity {
	out := *in
	out.FaceReference = cloneReference(in.FaceReference)
	return &out
}

func cloneReference(in *models.FaceReference) *models.FaceReference {
	if in == nil {
		return nil
	}
	out := *in
	if in.Features != nil {
		out.Features = make([]float32, len(in.Features))
		copy(out.Features, in.Features)
	}
	return &out
}
