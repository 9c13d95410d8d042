package models

import (
	"time"

	id "facegate/pkg/domain"
)

// Identity is the durable record keyed by phone number representing one
// registered person. The phone number is immutable after creation; the face
// reference is the only mutable payload and is replaced wholesale on
// re-enrollment.
type Identity struct {
	ID            id.IdentityID
	PhoneNumber   string
	Username      string
	FaceEnrolled  bool
	FaceReference *FaceReference
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Enrolled reports whether verification against this identity is possible.
// FaceEnrolled implies FaceReference != nil; both are checked so a corrupt
// record degrades to "not enrolled" instead of a nil dereference.
func (i *Identity) Enrolled() bool {
	return i.FaceEnrolled && i.FaceReference != nil
}

// BoundingBox locates a face within a capture, in pixel coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Area returns the box surface, used as the tie-breaker when two observations
// share the same confidence (the larger face is usually the closer one).
func (b BoundingBox) Area() float64 {
	if b.Width <= 0 || b.Height <= 0 {
		return 0
	}
	return b.Width * b.Height
}

// FaceReference is the stored enrollment baseline. The bounding box is a
// placeholder geometric descriptor; Features carries an optional embedding so
// a real matcher can be substituted without a schema change.
type FaceReference struct {
	BoundingBox BoundingBox `json:"bounding_box"`
	Features    []float32   `json:"features,omitempty"`
	CapturedAt  time.Time   `json:"captured_at"`
}

// VerificationResult is the transient outcome of scoring a live capture
// against a stored reference. A rejected result is a normal return value,
// never an error.
type VerificationResult struct {
	Accepted   bool    `json:"accepted"`
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
}

// Verification modes. Self resolves the target by the caller's own phone
// number; Other resolves it by the target's username through the directory.
const (
	ModeSelf  = "self"
	ModeOther = "other"
)
