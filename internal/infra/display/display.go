// Package display defines the rendering boundary.
package display

import (
	"context"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// Sink consumes processed frames. Render returning (false, nil) signals a
// user-initiated close, not an error.
type Sink interface {
	Render(ctx context.Context, frame *domain.Frame, detections []domain.Detection) (bool, error)
	Cleanup()
}
