package detector

import (
	"context"
	"sync"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

// SimDetector is a model-free detector for running without real weights: it
// finds bright regions in grayscale frames by coarse block scanning. Good
// enough to light up the full pipeline end to end.
type SimDetector struct {
	mu        sync.Mutex
	loaded    bool
	threshold float64
}

// NewSimDetector creates an unloaded simulated detector.
func NewSimDetector(confidenceThreshold float64) *SimDetector {
	if confidenceThreshold <= 0 {
		confidenceThreshold = 0.5
	}
	return &SimDetector{threshold: confidenceThreshold}
}

func (d *SimDetector) Load(ctx context.Context) error {
	d.mu.Lock()
	d.loaded = true
	d.mu.Unlock()
	return nil
}

func (d *SimDetector) Loaded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loaded
}

const blockSize = 16

func (d *SimDetector) Detect(ctx context.Context, frame *domain.Frame) ([]domain.Detection, error) {
	d.mu.Lock()
	loaded := d.loaded
	threshold := d.threshold
	d.mu.Unlock()

	if !loaded {
		return nil, ErrModelNotLoaded
	}
	if frame == nil || len(frame.Pixels) < frame.Width*frame.Height {
		return nil, nil
	}

	var out []domain.Detection
	for by := 0; by+blockSize <= frame.Height; by += blockSize {
		for bx := 0; bx+blockSize <= frame.Width; bx += blockSize {
			var sum int
			for y := by; y < by+blockSize; y++ {
				for x := bx; x < bx+blockSize; x++ {
					sum += int(frame.Pixels[y*frame.Width+x])
				}
			}
			conf := float64(sum) / float64(blockSize*blockSize*255)
			if conf >= threshold && conf > 0.9 {
				out = append(out, domain.Detection{
					Label:      "bright-region",
					Confidence: conf,
					Box: domain.BoundingBox{
						X1: bx, Y1: by,
						X2: bx + blockSize, Y2: by + blockSize,
					},
				})
			}
		}
	}
	return out, nil
}
