package governor

// Quality level bounds. The level is a downscale factor applied to frames
// before detection.
const (
	minQuality = 0.25
	maxQuality = 1.0
)

// Tunables is the pair of shared knobs published by the governor and read by
// the orchestrator once per frame as a consistent snapshot.
type Tunables struct {
	SkipEnabled bool
	SkipRatio   uint    // process 1 of every N frames, always >= 1
	Quality     float64 // downscale factor in [0.25, 1.0]
}
