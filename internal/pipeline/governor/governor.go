// Package governor runs the background control loop that retunes frame
// skipping and processing quality to hold a target throughput, and reclaims
// memory when usage approaches the configured ceiling.
package governor

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tdnguyen/vigil/internal/pipeline/metrics"
)

// Config holds governor settings.
type Config struct {
	TargetFPS       float64
	MaxMemoryMB     float64
	TickInterval    time.Duration // control loop period
	ReclaimInterval time.Duration // reclaim at least this often
	ReclaimMinGap   time.Duration // never reclaim more often than this
	StopTimeout     time.Duration // bounded join on shutdown

	// OnMemoryPressure, when set, is invoked (rate limited) whenever usage
	// exceeds MaxMemoryMB.
	OnMemoryPressure func(memoryMB float64)
}

// DefaultConfig returns the standard governor settings.
func DefaultConfig() Config {
	return Config{
		TargetFPS:       15.0,
		MaxMemoryMB:     512.0,
		TickInterval:    time.Second,
		ReclaimInterval: 30 * time.Second,
		ReclaimMinGap:   5 * time.Second,
		StopTimeout:     time.Second,
	}
}

// PerfSnapshot is a read-only view of the rolling performance window.
type PerfSnapshot struct {
	FPS             float64
	TargetFPS       float64
	MemoryMB        float64
	MemoryPeakMB    float64
	AvgFrameMs      float64
	AvgDetectMs     float64
	AvgRenderMs     float64
	FramesProcessed uint64
	FramesSkipped   uint64
	SkipEnabled     bool
	SkipRatio       uint
	Quality         float64
}

// Governor owns the tunables and the sample window. The orchestrator calls
// ShouldSkipFrame, RecordFrame, and Snapshot; the tick loop runs on its own
// schedule.
type Governor struct {
	cfg Config
	log *slog.Logger

	mu          sync.Mutex
	tunables    Tunables
	skipCounter uint64
	window      *sampleWindow
	memoryMB    float64
	memoryPeak  float64
	lastReclaim time.Time
	lastMemWarn time.Time

	stop chan struct{}
	done chan struct{}

	// injectable for tests
	now        func() time.Time
	readMemory func() (float64, error)
	reclaim    func()
}

// New creates a governor. Start must be called to run the control loop.
func New(cfg Config) *Governor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.ReclaimInterval <= 0 {
		cfg.ReclaimInterval = 30 * time.Second
	}
	if cfg.ReclaimMinGap <= 0 {
		cfg.ReclaimMinGap = 5 * time.Second
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = time.Second
	}
	g := &Governor{
		cfg: cfg,
		log: slog.Default().With("component", "governor"),
		tunables: Tunables{
			SkipRatio: 2,
			Quality:   maxQuality,
		},
		window:     newSampleWindow(),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
		now:        time.Now,
		readMemory: processMemoryMB,
		reclaim:    reclaimMemory,
	}
	g.lastReclaim = g.now()
	return g
}

// Start launches the background control loop.
func (g *Governor) Start(ctx context.Context) {
	go func() {
		defer close(g.done)
		ticker := time.NewTicker(g.cfg.TickInterval)
		defer ticker.Stop()
		g.log.Info("Governor started",
			"target_fps", g.cfg.TargetFPS,
			"max_memory_mb", g.cfg.MaxMemoryMB)
		for {
			select {
			case <-ctx.Done():
				return
			case <-g.stop:
				return
			case <-ticker.C:
				g.tick()
			}
		}
	}()
}

// Stop signals the loop and waits for it to exit, bounded by StopTimeout so
// shutdown never blocks on a wedged tick.
func (g *Governor) Stop() {
	select {
	case <-g.stop:
	default:
		close(g.stop)
	}
	select {
	case <-g.done:
	case <-time.After(g.cfg.StopTimeout):
		g.log.Warn("Governor did not stop within timeout")
	}
}

// tick runs one control iteration: sample memory, reclaim if needed, then
// retune skip ratio and quality from current throughput.
func (g *Governor) tick() {
	g.sampleMemory()
	g.maybeReclaim()

	g.mu.Lock()
	fps := g.window.fps()
	g.adjustSkippingLocked(fps)
	g.adjustQualityLocked(fps)
	t := g.tunables
	g.mu.Unlock()

	metrics.Throughput.Set(fps)
	metrics.SkipRatio.Set(float64(t.SkipRatio))
	metrics.QualityLevel.Set(t.Quality)
}

func (g *Governor) sampleMemory() {
	mem, err := g.readMemory()
	if err != nil {
		g.log.Debug("Failed to read process memory", "error", err)
		return
	}

	g.mu.Lock()
	g.memoryMB = mem
	if mem > g.memoryPeak {
		g.memoryPeak = mem
	}
	warn := mem > g.cfg.MaxMemoryMB && g.now().Sub(g.lastMemWarn) > 5*time.Second
	if warn {
		g.lastMemWarn = g.now()
	}
	g.mu.Unlock()

	metrics.MemoryUsage.Set(mem)
	if warn {
		g.log.Warn("High memory usage",
			"memory_mb", mem,
			"limit_mb", g.cfg.MaxMemoryMB)
		if g.cfg.OnMemoryPressure != nil {
			g.cfg.OnMemoryPressure(mem)
		}
	}
}

// maybeReclaim triggers a reclamation pass when memory exceeds 80% of the
// ceiling or the periodic interval has elapsed. Passes are spaced at least
// ReclaimMinGap apart to avoid back-to-back reclamation storms.
func (g *Governor) maybeReclaim() {
	g.mu.Lock()
	now := g.now()
	sinceLast := now.Sub(g.lastReclaim)
	should := sinceLast > g.cfg.ReclaimInterval ||
		g.memoryMB > g.cfg.MaxMemoryMB*0.8
	if !should || sinceLast < g.cfg.ReclaimMinGap {
		g.mu.Unlock()
		return
	}
	g.lastReclaim = now
	g.mu.Unlock()

	before, _ := g.readMemory()
	g.reclaim()
	after, _ := g.readMemory()
	if before > 0 && after > 0 {
		g.log.Info("Memory reclaimed",
			"freed_mb", before-after,
			"memory_mb", after)
	}
}

// adjustSkippingLocked applies the two-level skip hysteresis: enable below
// 80% of target, disable above 95%, widen to 3 below 50%.
func (g *Governor) adjustSkippingLocked(fps float64) {
	if fps <= 0 || g.cfg.TargetFPS <= 0 {
		return
	}
	switch {
	case fps < g.cfg.TargetFPS*0.8:
		if !g.tunables.SkipEnabled {
			g.tunables.SkipEnabled = true
			g.log.Info("Enabling frame skipping",
				"fps", fps, "target", g.cfg.TargetFPS)
		}
	case fps > g.cfg.TargetFPS*0.95:
		if g.tunables.SkipEnabled {
			g.tunables.SkipEnabled = false
			g.skipCounter = 0
			g.log.Info("Disabling frame skipping", "fps", fps)
		}
	}

	if g.tunables.SkipEnabled {
		if fps < g.cfg.TargetFPS*0.5 {
			g.tunables.SkipRatio = 3
		} else {
			g.tunables.SkipRatio = 2
		}
	}
}

// adjustQualityLocked walks the quality ladder. Independent of the skip
// control; both may act on the same tick.
func (g *Governor) adjustQualityLocked(fps float64) {
	if fps <= 0 || g.cfg.TargetFPS <= 0 {
		return
	}
	q := g.tunables.Quality
	var next float64
	switch {
	case fps < g.cfg.TargetFPS*0.6:
		next = q * 0.5
		if next < minQuality {
			next = minQuality
		}
	case fps < g.cfg.TargetFPS*0.8:
		next = q * 0.75
		if next < 0.5 {
			next = 0.5
		}
	case fps > g.cfg.TargetFPS*0.95:
		next = q + 0.25
		if next > maxQuality {
			next = maxQuality
		}
	default:
		next = q
	}
	if next != q {
		g.log.Info("Adjusting quality level",
			"from", q, "to", next, "fps", fps)
		g.tunables.Quality = next
	}
}

// ShouldSkipFrame is the deterministic per-cycle skip decision. While
// skipping is disabled the counter stays reset; while enabled, the counter
// cycles against the ratio so skip/process alternates in a fixed pattern.
func (g *Governor) ShouldSkipFrame() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.tunables.SkipEnabled {
		g.skipCounter = 0
		return false
	}
	g.skipCounter++
	return g.skipCounter%uint64(g.tunables.SkipRatio) != 0
}

// RecordFrame feeds one cycle's timings into the rolling window.
func (g *Governor) RecordFrame(wall, detect, render time.Duration, skipped bool) {
	g.mu.Lock()
	g.window.record(wall, detect, render, skipped)
	g.mu.Unlock()

	if skipped {
		metrics.FramesSkipped.Inc()
		return
	}
	metrics.FramesProcessed.Inc()
	if detect > 0 {
		metrics.DetectionLatency.Observe(detect.Seconds())
	}
	if render > 0 {
		metrics.RenderLatency.Observe(render.Seconds())
	}
}

// Snapshot returns a consistent copy of the tunables pair.
func (g *Governor) Snapshot() Tunables {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.tunables
}

// CurrentFPS returns throughput over the rolling window.
func (g *Governor) CurrentFPS() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.window.fps()
}

// Metrics returns a read-only snapshot of the performance window.
func (g *Governor) Metrics() PerfSnapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return PerfSnapshot{
		FPS:             g.window.fps(),
		TargetFPS:       g.cfg.TargetFPS,
		MemoryMB:        g.memoryMB,
		MemoryPeakMB:    g.memoryPeak,
		AvgFrameMs:      float64(g.window.frameTimes.avg()) / float64(time.Millisecond),
		AvgDetectMs:     float64(g.window.detectTimes.avg()) / float64(time.Millisecond),
		AvgRenderMs:     float64(g.window.renderTimes.avg()) / float64(time.Millisecond),
		FramesProcessed: g.window.framesProcessed,
		FramesSkipped:   g.window.framesSkipped,
		SkipEnabled:     g.tunables.SkipEnabled,
		SkipRatio:       g.tunables.SkipRatio,
		Quality:         g.tunables.Quality,
	}
}

// Suggestions derives operator-facing optimization hints from the snapshot.
func (g *Governor) Suggestions() []string {
	m := g.Metrics()
	var out []string
	if m.FPS > 0 && m.FPS < m.TargetFPS*0.8 {
		out = append(out, "Throughput is below target. Consider reducing resolution or detection frequency.")
	}
	if g.cfg.MaxMemoryMB > 0 && m.MemoryMB > g.cfg.MaxMemoryMB*0.8 {
		out = append(out, "Memory usage is high. Consider reducing frame buffer sizes.")
	}
	total := m.FramesProcessed + m.FramesSkipped
	if total > 0 && float64(m.FramesSkipped)/float64(total) > 0.3 {
		out = append(out, "High frame skip ratio. The system may be overloaded.")
	}
	return out
}

// LogSummary writes the end-of-run performance summary.
func (g *Governor) LogSummary() {
	m := g.Metrics()
	g.log.Info("Performance summary",
		"fps", m.FPS,
		"target_fps", m.TargetFPS,
		"memory_mb", m.MemoryMB,
		"memory_peak_mb", m.MemoryPeakMB,
		"avg_frame_ms", m.AvgFrameMs,
		"avg_detect_ms", m.AvgDetectMs,
		"avg_render_ms", m.AvgRenderMs,
		"frames_processed", m.FramesProcessed,
		"frames_skipped", m.FramesSkipped,
		"quality", m.Quality)
	for _, s := range g.Suggestions() {
		g.log.Info("Suggestion: " + s)
	}
}
