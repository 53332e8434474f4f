package source

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// SimSource is a synthetic capture backend used when no real camera is
// wired in. It generates gradient frames at the configured resolution and
// can be made flaky to exercise the recovery paths.
type SimSource struct {
	mu        sync.Mutex
	cfg       domain.SourceConfig
	connected bool
	frameSeq  uint64

	// FailEvery makes every Nth frame acquisition fail (0 = never).
	FailEvery uint64

	// DropConnection makes IsConnected report false until the next switch.
	DropConnection bool
}

// NewSimSource connects a simulated device immediately.
func NewSimSource(cfg domain.SourceConfig) *SimSource {
	return &SimSource{cfg: cfg, connected: true}
}

func (s *SimSource) GetFrame(ctx context.Context) (*domain.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.connected || s.DropConnection {
		return nil, ErrNotConnected
	}

	s.frameSeq++
	if s.FailEvery > 0 && s.frameSeq%s.FailEvery == 0 {
		return nil, ErrNoFrame
	}

	w, h := s.cfg.Width, s.cfg.Height
	pixels := make([]byte, w*h)
	// Horizontal gradient with a wandering bright blob, enough texture for
	// the simulated detector to find something.
	blobX := int(s.frameSeq*7) % w
	blobY := int(s.frameSeq*3) % h
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := byte(x * 255 / w)
			dx, dy := x-blobX, y-blobY
			if dx*dx+dy*dy < 400 {
				v = 255
			}
			pixels[y*w+x] = v
		}
	}

	return &domain.Frame{
		ID:         uuid.New().String(),
		SourceName: s.cfg.Name,
		Width:      w,
		Height:     h,
		Format:     domain.PixelFormatGray,
		Pixels:     pixels,
		CapturedAt: time.Now(),
	}, nil
}

func (s *SimSource) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected && !s.DropConnection
}

// SwitchSource simulates a reconnect, bounded by the new config's
// ConnectTimeout.
func (s *SimSource) SwitchSource(ctx context.Context, cfg domain.SourceConfig) error {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Simulated devices connect quickly but not instantly.
	delay := time.Duration(10+rand.Intn(40)) * time.Millisecond
	select {
	case <-ctx.Done():
		return fmt.Errorf("switch to %s: %w", cfg.Name, ctx.Err())
	case <-time.After(delay):
	}

	s.mu.Lock()
	s.cfg = cfg
	s.connected = true
	s.DropConnection = false
	s.mu.Unlock()
	return nil
}

func (s *SimSource) Config() domain.SourceConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

func (s *SimSource) Release() {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
}
