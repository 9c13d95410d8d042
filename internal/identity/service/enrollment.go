package service

import (
	"context"
	"errors"
	"time"

	"facegate/internal/audit"
	"facegate/internal/face/detect"
	"facegate/internal/identity/models"
	"facegate/internal/platform/tracer"
	dErrors "facegate/pkg/domain-errors"
	"facegate/pkg/platform/sentinel"
)

// Enroll stores a face reference for an existing identity. Clients either
// upload the raw capture (server-side detection) or submit a bounding box
// from local detection. Re-enrollment replaces the previous reference
// wholesale; there is no history.
func (s *Service) Enroll(ctx context.Context, req *models.SaveFaceRequest) (*models.EnrollmentResult, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanEnroll,
		tracer.String(tracer.AttrPhoneHash, tracer.HashPhone(req.PhoneNumber)),
	)
	result, err := s.enroll(ctx, req)
	span.End(err)
	return result, err
}

func (s *Service) enroll(ctx context.Context, req *models.SaveFaceRequest) (*models.EnrollmentResult, error) {
	identity, err := s.store.FindByPhone(ctx, req.PhoneNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "phone number not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up phone number")
	}

	observation, err := s.resolveObservation(ctx, req)
	if err != nil {
		return nil, err
	}

	reference := &models.FaceReference{
		BoundingBox: observation.BoundingBox,
		CapturedAt:  time.Now(),
	}
	if s.extractor != nil {
		reference.Features = s.extractor(observation)
	}

	replaced := identity.Enrolled()
	if err := s.store.SetFaceReference(ctx, identity.PhoneNumber, reference); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "phone number not registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to store face reference")
	}

	s.invalidateDirectory(ctx, identity.Username)

	event := audit.EventFaceEnrolled
	if replaced {
		event = audit.EventFaceReEnrolled
	}
	s.logAudit(ctx, event,
		"identity_id", identity.ID.String(),
		"phone_number", identity.PhoneNumber,
	)
	s.incrementEnrollments()

	return &models.EnrollmentResult{
		Success:     true,
		IdentityID:  identity.ID.String(),
		BoundingBox: observation.BoundingBox,
		Confidence:  observation.Confidence,
		Replaced:    replaced,
	}, nil
}

// resolveObservation picks the enrollment observation: run detection on an
// uploaded capture, or accept the box a client-side detector produced.
func (s *Service) resolveObservation(ctx context.Context, req *models.SaveFaceRequest) (detect.Observation, error) {
	if req.Image != "" {
		raw, err := decodeImage(req.Image)
		if err != nil {
			return detect.Observation{}, err
		}
		return s.detectBest(ctx, raw)
	}

	if req.BoundingBox == nil {
		return detect.Observation{}, dErrors.New(dErrors.CodeInvalidInput, "either image or bounding_box is required")
	}
	box := *req.BoundingBox
	if box.Width <= 0 || box.Height <= 0 {
		return detect.Observation{}, dErrors.New(dErrors.CodeInvalidInput, "bounding box must have positive dimensions")
	}
	// Client-side detection reports geometry only; confidence is taken at
	// face value.
	return detect.Observation{BoundingBox: box, Confidence: 1.0}, nil
}

// detectBest runs the detector on raw image bytes and selects the observation
// the protocol should use. An empty detector result becomes a
// no_face_detected domain error.
func (s *Service) detectBest(ctx context.Context, image []byte) (detect.Observation, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanDetect)

	start := time.Now()
	observations, err := s.detector.Detect(ctx, image)
	elapsed := time.Since(start)
	if s.metrics != nil {
		s.metrics.DetectLatency.Observe(elapsed.Seconds())
	}
	if err != nil {
		span.End(err)
		if dErrors.HasCode(err, dErrors.CodeNotInitialized) || dErrors.HasCode(err, dErrors.CodeInvalidInput) {
			return detect.Observation{}, err
		}
		return detect.Observation{}, dErrors.Wrap(err, dErrors.CodeInternal, "detector failed")
	}
	span.SetAttributes(
		tracer.Int64(tracer.AttrObservations, int64(len(observations))),
		tracer.Duration(tracer.AttrElapsed, elapsed),
	)

	best, found := detect.SelectBest(observations)
	if !found {
		s.incrementDetectionMisses()
		err := dErrors.New(dErrors.CodeNoFaceDetected, "no face detected in capture")
		span.End(err)
		return detect.Observation{}, err
	}
	span.SetAttributes(tracer.Float64(tracer.AttrConfidence, best.Confidence))
	span.End(nil)
	return best, nil
}

// GetFace reports the enrollment status for a phone number. A missing
// identity is reported as not registered, never as an error.
func (s *Service) GetFace(ctx context.Context, phoneNumber string) (*models.FaceStatus, error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanGetFace,
		tracer.String(tracer.AttrPhoneHash, tracer.HashPhone(phoneNumber)),
	)
	status, err := s.getFace(ctx, phoneNumber)
	span.End(err)
	return status, err
}

func (s *Service) getFace(ctx context.Context, phoneNumber string) (*models.FaceStatus, error) {
	identity, err := s.store.FindByPhone(ctx, phoneNumber)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &models.FaceStatus{Registered: false}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up phone number")
	}
	if !identity.Enrolled() {
		return &models.FaceStatus{Registered: false}, nil
	}
	box := identity.FaceReference.BoundingBox
	return &models.FaceStatus{Registered: true, BoundingBox: &box}, nil
}

// invalidateDirectory drops any cached directory entry for the username.
// Cache failures never fail the write that triggered them.
func (s *Service) invalidateDirectory(ctx context.Context, username string) {
	if s.directory == nil {
		return
	}
	if err := s.directory.Invalidate(ctx, username); err != nil {
		s.logger.WarnContext(ctx, "directory cache invalidation failed",
			"username", username,
			"error", err,
		)
	}
}
