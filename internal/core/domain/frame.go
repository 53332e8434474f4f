package domain

import (
	"time"
)

// PixelFormat identifies the raw pixel layout of a frame buffer.
type PixelFormat string

const (
	PixelFormatGray PixelFormat = "gray"
	PixelFormatBGR  PixelFormat = "bgr"
)

// Frame is a single captured image handed through the pipeline.
type Frame struct {
	ID         string
	SourceName string
	Width      int
	Height     int
	Format     PixelFormat
	Pixels     []byte
	CapturedAt time.Time
}

// bytesPerPixel returns the stride multiplier for the frame's format.
func (f *Frame) bytesPerPixel() int {
	if f.Format == PixelFormatBGR {
		return 3
	}
	return 1
}

// Downscale returns a copy of the frame resized by factor q in (0, 1].
// Nearest-neighbour sampling; the original frame is left untouched so the
// full-resolution buffer is still available for rendering.
func (f *Frame) Downscale(q float64) *Frame {
	if q >= 1.0 || q <= 0 || f.Width <= 1 || f.Height <= 1 {
		return f
	}

	newW := f.Width * int(q*1000) / 1000
	newH := f.Height * int(q*1000) / 1000
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	bpp := f.bytesPerPixel()
	out := &Frame{
		ID:         f.ID,
		SourceName: f.SourceName,
		Width:      newW,
		Height:     newH,
		Format:     f.Format,
		Pixels:     make([]byte, newW*newH*bpp),
		CapturedAt: f.CapturedAt,
	}

	if len(f.Pixels) < f.Width*f.Height*bpp {
		// Truncated buffer, return the resized header with zeroed pixels
		return out
	}

	for y := 0; y < newH; y++ {
		srcY := y * f.Height / newH
		for x := 0; x < newW; x++ {
			srcX := x * f.Width / newW
			src := (srcY*f.Width + srcX) * bpp
			dst := (y*newW + x) * bpp
			copy(out.Pixels[dst:dst+bpp], f.Pixels[src:src+bpp])
		}
	}
	return out
}
