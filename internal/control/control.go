package control

import (
	"context"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// Pipeline is the surface the application layer needs from the orchestrator.
type Pipeline interface {
	// Run drives frame cycles until the context is cancelled, the display
	// is closed, or recovery is exhausted.
	Run(ctx context.Context) error

	// Status returns the current controller snapshot.
	Status() domain.Status

	// ForceSwitchSource switches to the alternate source on operator request.
	ForceSwitchSource(ctx context.Context) bool

	// Shutdown releases all collaborators. Idempotent.
	Shutdown()
}
