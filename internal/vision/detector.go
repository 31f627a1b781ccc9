package vision

import "context"

// Detection is one detected object in an image.
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"` // in [0, 1]
}

// Detector is the object detection capability. Implementations wrap the
// actual model; tests substitute a deterministic fake.
type Detector interface {
	Detect(ctx context.Context, imagePath string) ([]Detection, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, imagePath string) ([]Detection, error)

// Detect calls f.
func (f DetectorFunc) Detect(ctx context.Context, imagePath string) ([]Detection, error) {
	return f(ctx, imagePath)
}
