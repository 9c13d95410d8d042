package match

import (
	"fmt"
	"math"

	"facegate/internal/face/detect"
	"facegate/internal/identity/models"
)

// Cosine scores similarity between feature vectors. This is the substitution
// point for a real recognition model: once the detector produces embeddings,
// enrollment stores them on the face reference and verification compares them
// here. Cosine similarity is rescaled from [-1, 1] to [0, 1].
type Cosine struct {
	features func(detect.Observation) []float32
}

// CosineOption configures the Cosine matcher.
type CosineOption func(*Cosine)

// WithProbeFeatures sets the extractor that turns a probe observation into a
// feature vector. Without a real model the probe has no embedding, so this is
// required.
func WithProbeFeatures(fn func(detect.Observation) []float32) CosineOption {
	return func(c *Cosine) {
		c.features = fn
	}
}

func NewCosine(opts ...CosineOption) *Cosine {
	c := &Cosine{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Cosine) Compare(reference *models.FaceReference, probe detect.Observation) (float64, error) {
	if reference == nil {
		return 0, fmt.Errorf("reference is required")
	}
	if len(reference.Features) == 0 {
		return 0, fmt.Errorf("reference carries no feature vector")
	}
	if c.features == nil {
		return 0, fmt.Errorf("probe feature extractor not configured")
	}
	return CosineSimilarity(reference.Features, c.features(probe)), nil
}

// CosineSimilarity computes cosine similarity between two vectors, rescaled
// to [0, 1]. Mismatched or zero vectors score 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	similarity := dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
	// Clamp to [-1, 1] to handle floating point errors, then rescale.
	if similarity > 1 {
		similarity = 1
	}
	if similarity < -1 {
		similarity = -1
	}
	return clamp01((similarity + 1) / 2)
}
