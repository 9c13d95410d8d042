package service

import (
	"context"
	"encoding/base64"

	"facegate/internal/audit"
	"facegate/internal/platform/middleware"
	"facegate/pkg/attrs"
	id "facegate/pkg/domain"
	dErrors "facegate/pkg/domain-errors"
)

// logAudit writes one audit record to the structured log and, when a
// publisher is configured, emits it as an event. The phone_number attribute
// becomes the event partition key.
func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := middleware.GetRequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	identityID, _ := id.ParseIdentityID(attrs.ExtractString(attributes, "identity_id"))
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		IdentityID:  identityID,
		PhoneNumber: attrs.ExtractString(attributes, "phone_number"),
		Action:      event,
		RequestID:   attrs.ExtractString(attributes, "request_id"),
		Detail:      attrs.ExtractString(attributes, "detail"),
	})
}

func (s *Service) incrementRegistrations() {
	if s.metrics != nil {
		s.metrics.IncrementRegistrations()
	}
}

func (s *Service) incrementLogins() {
	if s.metrics != nil {
		s.metrics.IncrementLogins()
	}
}

func (s *Service) incrementEnrollments() {
	if s.metrics != nil {
		s.metrics.IncrementEnrollments()
	}
}

func (s *Service) incrementDetectionMisses() {
	if s.metrics != nil {
		s.metrics.IncrementDetectionMisses()
	}
}

func (s *Service) incrementDuplicate(field string) {
	if s.metrics != nil {
		s.metrics.IncrementDuplicate(field)
	}
}

func (s *Service) observeVerification(accepted bool, mode string, similarity float64) {
	if s.metrics != nil {
		s.metrics.ObserveVerification(accepted, mode, similarity)
	}
}

func (s *Service) observeDirectoryCache(hit bool) {
	if s.metrics != nil {
		s.metrics.ObserveDirectoryCache(hit)
	}
}

// decodeImage turns the base64 capture payload into raw bytes. Handlers
// validate the encoding up front, so a failure here is still reported as
// invalid input rather than an internal error.
func decodeImage(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "image is not valid base64")
	}
	if len(raw) == 0 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "image is empty")
	}
	return raw, nil
}
