package service

import (
	"context"
	"errors"

	"facegate/internal/audit"
	"facegate/internal/identity/models"
	"facegate/internal/platform/tracer"
	dErrors "facegate/pkg/domain-errors"
	"facegate/pkg/platform/sentinel"
)

// Verify scores a live capture against a stored reference. Mode self resolves
// the target by the caller's own phone number; mode other resolves it by
// username through the directory. A rejected comparison is a normal result;
// errors are reserved for unresolvable targets and pipeline failures.
func (s *Service) Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerificationResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanVerify,
		tracer.String(tracer.AttrMode, req.Mode),
	)
	result, err := s.verify(ctx, req)
	if result != nil {
		span.SetAttributes(
			tracer.Bool(tracer.AttrAccepted, result.Accepted),
			tracer.Float64(tracer.AttrSimilarity, result.Similarity),
		)
	}
	span.End(err)
	return result, err
}

func (s *Service) verify(ctx context.Context, req *models.VerifyRequest) (*models.VerificationResult, error) {
	identity, err := s.resolveTarget(ctx, req)
	if err != nil {
		return nil, err
	}
	if !identity.Enrolled() {
		return nil, dErrors.New(dErrors.CodeNotEnrolled, "target has no enrolled face")
	}

	raw, err := decodeImage(req.Image)
	if err != nil {
		return nil, err
	}
	probe, err := s.detectBest(ctx, raw)
	if err != nil {
		return nil, err
	}

	_, span := s.tracer.Start(ctx, tracer.SpanMatch)
	similarity, err := s.matcher.Compare(identity.FaceReference, probe)
	span.End(err)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "matcher failed")
	}

	// Scores exactly at the threshold are accepted.
	accepted := similarity >= s.threshold
	s.observeVerification(accepted, req.Mode, similarity)

	event := audit.EventVerificationReject
	reason := "similarity below threshold"
	if accepted {
		event = audit.EventVerificationAccept
		reason = "match"
	}
	s.logAudit(ctx, event,
		"identity_id", identity.ID.String(),
		"phone_number", identity.PhoneNumber,
		"mode", req.Mode,
	)

	return &models.VerificationResult{
		Accepted:   accepted,
		Similarity: similarity,
		Reason:     reason,
	}, nil
}

// resolveTarget finds the identity the capture should be compared against.
func (s *Service) resolveTarget(ctx context.Context, req *models.VerifyRequest) (*models.Identity, error) {
	switch req.Mode {
	case models.ModeSelf:
		if req.PhoneNumber == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "phone_number is required for self verification")
		}
		identity, err := s.store.FindByPhone(ctx, req.PhoneNumber)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "phone number not registered")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up phone number")
		}
		return identity, nil
	case models.ModeOther:
		if req.Username == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "username is required for other verification")
		}
		identity, err := s.store.FindByUsername(ctx, req.Username)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, dErrors.New(dErrors.CodeNotFound, "username not found")
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up username")
		}
		return identity, nil
	default:
		return nil, dErrors.New(dErrors.CodeValidation, "mode must be self or other")
	}
}
