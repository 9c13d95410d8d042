// Package detect wraps the external face detector behind a stable interface.
// The core treats detection as a black box: callers hand over captured image
// bytes and get back zero or more observations, most confident first. An
// empty result means "no face found" and is a normal outcome, not a failure.
package detect

import (
	"context"
	"sort"

	"facegate/internal/identity/models"
)

// Observation is a single detector output for one captured image. It is owned
// by the call that produced it and discarded after use unless enrollment
// promotes it into a face reference.
type Observation struct {
	BoundingBox models.BoundingBox
	Confidence  float64
}

// Detector is the adapter contract. Init must complete once before the first
// Detect; calling Detect earlier fails with a not_initialized domain error.
// Init is idempotent and safe under concurrent first calls: exactly one
// warm-up runs, the rest wait for its outcome.
type Detector interface {
	Init(ctx context.Context) error
	Detect(ctx context.Context, image []byte) ([]Observation, error)
}

// SelectBest picks the observation enrollment and verification should use:
// highest confidence, ties broken by larger bounding-box area (the larger
// face is usually the closer one). Returns false when the slice is empty.
func SelectBest(observations []Observation) (Observation, bool) {
	if len(observations) == 0 {
		return Observation{}, false
	}
	best := observations[0]
	for _, obs := range observations[1:] {
		if obs.Confidence > best.Confidence {
			best = obs
			continue
		}
		if obs.Confidence == best.Confidence && obs.BoundingBox.Area() > best.BoundingBox.Area() {
			best = obs
		}
	}
	return best, true
}

// SortByConfidence orders observations most-confident-first in place,
// preserving the area tie-break.
func SortByConfidence(observations []Observation) {
	sort.SliceStable(observations, func(i, j int) bool {
		if observations[i].Confidence != observations[j].Confidence {
			return observations[i].Confidence > observations[j].Confidence
		}
		return observations[i].BoundingBox.Area() > observations[j].BoundingBox.Area()
	})
}
