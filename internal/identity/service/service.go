// Package service orchestrates the identity protocol: registration and login
// by phone number, face enrollment, verification, and directory search. It
// owns the business rules; persistence, detection, and matching sit behind
// consumer-side interfaces.
package service

import (
	"context"
	"log/slog"

	"facegate/internal/audit"
	"facegate/internal/face/detect"
	"facegate/internal/identity/cache"
	"facegate/internal/identity/models"
	"facegate/internal/platform/metrics"
	"facegate/internal/platform/tracer"
)

// Store defines the persistence interface for identity data.
// Error Contract: Find methods return sentinel.ErrNotFound (wrapped) when the
// identity doesn't exist; Create returns store.ErrDuplicatePhone or
// store.ErrDuplicateUsername on a uniqueness violation.
type Store interface {
	Create(ctx context.Context, identity *models.Identity) error
	FindByPhone(ctx context.Context, phoneNumber string) (*models.Identity, error)
	FindByUsername(ctx context.Context, username string) (*models.Identity, error)
	SetFaceReference(ctx context.Context, phoneNumber string, ref *models.FaceReference) error
}

// Detector finds faces in captured image bytes. An empty result means no face
// was found and is not an error.
type Detector interface {
	Detect(ctx context.Context, image []byte) ([]detect.Observation, error)
}

// Matcher scores a live observation against a stored reference. The score is
// in [0, 1], higher meaning more similar.
type Matcher interface {
	Compare(reference *models.FaceReference, probe detect.Observation) (float64, error)
}

// AuditPublisher emits protocol audit events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// FeatureExtractor derives an embedding from an observation at enrollment
// time so feature-based matchers have something to compare against.
type FeatureExtractor func(obs detect.Observation) []float32

const defaultMatchThreshold = 0.90

type Service struct {
	store          Store
	detector       Detector
	matcher        Matcher
	threshold      float64
	extractor      FeatureExtractor
	directory      cache.Directory
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         tracer.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithMatchThreshold configures the accept boundary for verification.
// Scores at or above the threshold are accepted. Values outside (0, 1]
// are ignored.
func WithMatchThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold <= 1 {
			s.threshold = threshold
		}
	}
}

// WithDirectoryCache enables the username lookup cache.
func WithDirectoryCache(directory cache.Directory) Option {
	return func(s *Service) {
		s.directory = directory
	}
}

// WithFeatureExtractor stores an embedding alongside the bounding box at
// enrollment so feature-based matchers can be used.
func WithFeatureExtractor(fn FeatureExtractor) Option {
	return func(s *Service) {
		s.extractor = fn
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

func NewService(store Store, detector Detector, matcher Matcher, opts ...Option) *Service {
	svc := &Service{
		store:     store,
		detector:  detector,
		matcher:   matcher,
		threshold: defaultMatchThreshold,
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.tracer == nil {
		svc.tracer = tracer.NewNoop()
	}
	return svc
}
