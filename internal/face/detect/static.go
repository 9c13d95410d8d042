package detect

import (
	"bytes"
	"context"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"sync/atomic"
	"time"

	_ "golang.org/x/image/bmp"
	"golang.org/x/sync/singleflight"

	"facegate/internal/identity/models"
	dErrors "facegate/pkg/domain-errors"
)

// Static is the stand-in detector used until a real model is wired in. It
// decodes the capture's dimensions and reports a single centered face at
// fixed relative geometry with fixed confidence. Captures smaller than the
// minimum face size yield zero observations, which exercises the
// no-face-detected path end to end.
//
// The handle carries its own readiness instead of a package-level flag, so a
// second detector (a real model) can coexist during a migration.
type Static struct {
	warmup      time.Duration
	minFaceSize int
	logger      *slog.Logger

	ready atomic.Bool
	group singleflight.Group
}

// Relative geometry of the simulated detection.
const (
	relX      = 0.2
	relY      = 0.15
	relWidth  = 0.6
	relHeight = 0.7

	staticConfidence = 0.95
)

// StaticOption configures the Static detector.
type StaticOption func(*Static)

// WithWarmup sets the simulated model load time.
func WithWarmup(d time.Duration) StaticOption {
	return func(s *Static) {
		if d >= 0 {
			s.warmup = d
		}
	}
}

// WithMinFaceSize sets the smallest capture dimension, in pixels, that can
// contain a detectable face.
func WithMinFaceSize(px int) StaticOption {
	return func(s *Static) {
		if px > 0 {
			s.minFaceSize = px
		}
	}
}

// WithLogger sets a logger for warm-up reporting.
func WithLogger(logger *slog.Logger) StaticOption {
	return func(s *Static) {
		s.logger = logger
	}
}

// NewStatic constructs the detector. Init must still be called before Detect.
func NewStatic(opts ...StaticOption) *Static {
	s := &Static{
		warmup:      time.Second,
		minFaceSize: 32,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Init performs the one-time warm-up. Concurrent callers share a single
// warm-up run; repeated calls after success are no-ops.
func (s *Static) Init(ctx context.Context) error {
	if s.ready.Load() {
		return nil
	}
	_, err, _ := s.group.Do("init", func() (any, error) {
		if s.ready.Load() {
			return nil, nil
		}
		s.logger.Info("initializing face detector", "warmup", s.warmup.String())
		select {
		case <-time.After(s.warmup):
		case <-ctx.Done():
			return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeUnavailable, "detector warm-up interrupted")
		}
		s.ready.Store(true)
		s.logger.Info("face detector ready")
		return nil, nil
	})
	return err
}

// Ready reports whether warm-up has completed.
func (s *Static) Ready() bool {
	return s.ready.Load()
}

// Detect returns the simulated observation for the capture, most confident
// first. The image must decode as JPEG, PNG, or BMP.
func (s *Static) Detect(_ context.Context, capture []byte) ([]Observation, error) {
	if !s.ready.Load() {
		return nil, dErrors.New(dErrors.CodeNotInitialized, "face detector not initialized")
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(capture))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "capture could not be decoded")
	}

	if cfg.Width < s.minFaceSize || cfg.Height < s.minFaceSize {
		// Too small to contain a face: a normal no-face outcome.
		return nil, nil
	}

	w := float64(cfg.Width)
	h := float64(cfg.Height)
	obs := Observation{
		BoundingBox: models.BoundingBox{
			X:      relX * w,
			Y:      relY * h,
			Width:  relWidth * w,
			Height: relHeight * h,
		},
		Confidence: staticConfidence,
	}
	return []Observation{obs}, nil
}
