// Package match wraps the external face matcher behind a stable interface.
// A matcher is a pure function of its two inputs: the stored reference and a
// live observation, scored to a similarity in [0, 1] where higher means more
// similar. The accept/reject threshold lives in the verification service, not
// here.
package match

import (
	"facegate/internal/face/detect"
	"facegate/internal/identity/models"
)

// Matcher is the adapter contract. Implementations must be stateless so a
// real recognition model can replace the geometric stand-in without touching
// the verification flow.
type Matcher interface {
	Compare(reference *models.FaceReference, probe detect.Observation) (float64, error)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
