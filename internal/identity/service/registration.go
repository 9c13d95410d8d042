package service

import (
	"context"
	"errors"
	"time"

	"facegate/internal/audit"
	"facegate/internal/identity/models"
	"facegate/internal/identity/store"
	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
	"facegate/pkg/platform/sentinel"
)

// Submit registers a new identity. A phone number can be registered exactly
// once; a second attempt is rejected as a conflict no matter which username
// accompanies it. Callers who hold the phone number use Login instead.
func (s *Service) Submit(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error) {
	existing, err := s.store.FindByPhone(ctx, req.PhoneNumber)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up phone number")
	}
	if existing != nil {
		return nil, s.rejectDuplicatePhone(ctx, req.PhoneNumber)
	}

	now := time.Now()
	identity := &models.Identity{
		ID:          id.NewIdentityID(),
		PhoneNumber: req.PhoneNumber,
		Username:    req.Username,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.store.Create(ctx, identity)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrDuplicatePhone):
		// Lost a race with a concurrent registration for the same phone
		// number; the loser gets the same conflict a sequential duplicate
		// would.
		return nil, s.rejectDuplicatePhone(ctx, req.PhoneNumber)
	case errors.Is(err, store.ErrDuplicateUsername):
		s.logAudit(ctx, audit.EventDuplicateRegistered,
			"phone_number", req.PhoneNumber,
			"detail", "username taken",
		)
		s.incrementDuplicate("username")
		return nil, dErrors.Wrap(err, dErrors.CodeConflict, "username already taken")
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}

	s.logAudit(ctx, audit.EventIdentityRegistered,
		"identity_id", identity.ID.String(),
		"phone_number", identity.PhoneNumber,
	)
	s.incrementRegistrations()
	return &models.RegisterResult{
		Success:    true,
		Message:    "registered",
		IdentityID: identity.ID.String(),
		Username:   identity.Username,
	}, nil
}

// rejectDuplicatePhone records the audit trail and metric for a registration
// attempt against an already-registered phone number and returns the conflict
// the caller reports.
func (s *Service) rejectDuplicatePhone(ctx context.Context, phoneNumber string) error {
	s.logAudit(ctx, audit.EventDuplicateRegistered,
		"phone_number", phoneNumber,
		"detail", "phone number taken",
	)
	s.incrementDuplicate("phone")
	return dErrors.New(dErrors.CodeConflict, "phone number already registered")
}

// Login resolves an existing identity by phone number only.
func (s *Service) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error) {
	identity, err := s.store.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "phone number not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up phone number")
	}

	s.logAudit(ctx, audit.EventIdentityLogin,
		"identity_id", identity.ID.String(),
		"phone_number", identity.PhoneNumber,
	)
	s.incrementLogins()
	return &models.LoginResult{
		Success:    true,
		Username:   identity.Username,
		IdentityID: identity.ID.String(),
	}, nil
}
