package match

import (
	"fmt"

	"facegate/internal/face/detect"
	"facegate/internal/identity/models"
)

// Geometry scores similarity as the Intersection over Union of the reference
// and probe bounding boxes. With the placeholder geometric descriptor this is
// the strongest signal available: a live capture framed like the enrollment
// capture scores near 1, a differently framed one scores near 0.
type Geometry struct{}

func NewGeometry() *Geometry {
	return &Geometry{}
}

func (g *Geometry) Compare(reference *models.FaceReference, probe detect.Observation) (float64, error) {
	if reference == nil {
		return 0, fmt.Errorf("reference is required")
	}
	return IoU(reference.BoundingBox, probe.BoundingBox), nil
}

// IoU calculates Intersection over Union between two bounding boxes.
// Result is in [0, 1]; degenerate boxes score 0.
func IoU(a, b models.BoundingBox) float64 {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)

	if x2 <= x1 || y2 <= y1 {
		return 0 // No intersection
	}

	intersection := (x2 - x1) * (y2 - y1)
	union := a.Area() + b.Area() - intersection
	if union <= 0 {
		return 0
	}

	return clamp01(intersection / union)
}
