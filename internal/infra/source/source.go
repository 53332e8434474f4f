// Package source defines the video source boundary consumed by the pipeline.
package source

import (
	"context"
	"errors"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

var (
	// ErrNotConnected is returned by GetFrame when the source has no live
	// connection to its device.
	ErrNotConnected = errors.New("source not connected")

	// ErrNoFrame is returned when the device produced no frame this cycle.
	ErrNoFrame = errors.New("no frame available")
)

// Source is the capture backend. Implementations must bound SwitchSource by
// the new config's ConnectTimeout.
type Source interface {
	// GetFrame acquires the next frame. Returns ErrNotConnected or
	// ErrNoFrame on the corresponding failure.
	GetFrame(ctx context.Context) (*domain.Frame, error)

	// IsConnected reports whether the device connection is live.
	IsConnected() bool

	// SwitchSource reconnects to a different device configuration.
	SwitchSource(ctx context.Context, cfg domain.SourceConfig) error

	// Config returns the active source configuration.
	Config() domain.SourceConfig

	// Release frees the device.
	Release()
}
