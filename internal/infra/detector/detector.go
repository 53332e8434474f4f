// Package detector defines the object detection boundary.
package detector

import (
	"context"
	"errors"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// ErrModelNotLoaded is returned by Detect before a successful Load.
var ErrModelNotLoaded = errors.New("detection model not loaded")

// Detector runs object detection over frames. Implementations must remain
// safely callable after a failed Detect; a broken model is repaired by
// calling Load again rather than reconstructing the value.
type Detector interface {
	// Load loads or reloads the detection model.
	Load(ctx context.Context) error

	// Loaded reports whether the model is ready.
	Loaded() bool

	// Detect runs detection on a frame.
	Detect(ctx context.Context, frame *domain.Frame) ([]domain.Detection, error)
}
