package governor

import (
	"testing"
	"time"
)

func newTestGovernor(targetFPS float64) *Governor {
	cfg := DefaultConfig()
	cfg.TargetFPS = targetFPS
	g := New(cfg)
	// Memory and reclamation are exercised separately; stub them out so
	// control-loop tests stay deterministic.
	g.readMemory = func() (float64, error) { return 100, nil }
	g.reclaim = func() {}
	return g
}

func TestShouldSkipFrameDeterministic(t *testing.T) {
	g := newTestGovernor(15)

	// Disabled: never skips, counter stays reset.
	for i := 0; i < 5; i++ {
		if g.ShouldSkipFrame() {
			t.Fatalf("call %d: skipped while skipping disabled", i)
		}
	}

	g.mu.Lock()
	g.tunables.SkipEnabled = true
	g.tunables.SkipRatio = 2
	g.mu.Unlock()

	// Ratio 2 from a fresh counter: skip, process, skip, process, ...
	want := []bool{true, false, true, false, true, false}
	for i, w := range want {
		if got := g.ShouldSkipFrame(); got != w {
			t.Errorf("call %d: ShouldSkipFrame = %v, want %v", i, got, w)
		}
	}
}

func TestFPSFromTwoSamples(t *testing.T) {
	g := newTestGovernor(15)
	// Two frames each taking 0.5s: 2 frames / 1.0s = 2.0 FPS.
	g.RecordFrame(500*time.Millisecond, 0, 0, false)
	g.RecordFrame(500*time.Millisecond, 0, 0, false)

	if got := g.CurrentFPS(); got != 2.0 {
		t.Errorf("CurrentFPS = %v, want 2.0", got)
	}
}

func TestFPSRequiresTwoSamples(t *testing.T) {
	g := newTestGovernor(15)
	if got := g.CurrentFPS(); got != 0 {
		t.Errorf("CurrentFPS with 0 samples = %v, want 0", got)
	}
	g.RecordFrame(100*time.Millisecond, 0, 0, false)
	if got := g.CurrentFPS(); got != 0 {
		t.Errorf("CurrentFPS with 1 sample = %v, want 0", got)
	}
}

func TestSkippedFramesDoNotCountTowardThroughput(t *testing.T) {
	g := newTestGovernor(15)
	for i := 0; i < 10; i++ {
		g.RecordFrame(time.Millisecond, 0, 0, true)
	}
	if got := g.CurrentFPS(); got != 0 {
		t.Errorf("CurrentFPS = %v, want 0 (skips carry no timing)", got)
	}
	m := g.Metrics()
	if m.FramesSkipped != 10 || m.FramesProcessed != 0 {
		t.Errorf("skipped=%d processed=%d, want 10/0", m.FramesSkipped, m.FramesProcessed)
	}
}

func TestLowThroughputEnablesSkippingAndReducesQuality(t *testing.T) {
	// Target 15 FPS, 10 consecutive frames of 100ms each = 10 FPS.
	g := newTestGovernor(15)
	for i := 0; i < 10; i++ {
		g.RecordFrame(100*time.Millisecond, 0, 0, false)
	}

	// Within 2 ticks the governor must shed load.
	g.tick()
	g.tick()

	snap := g.Snapshot()
	if !snap.SkipEnabled {
		t.Error("expected frame skipping to be enabled at 10/15 FPS")
	}
	if snap.Quality >= 1.0 {
		t.Errorf("expected quality below 1.0, got %v", snap.Quality)
	}
}

func TestSkipRatioWidensWhenFarBelowTarget(t *testing.T) {
	g := newTestGovernor(15)
	// 5 FPS: below 50% of target, ratio widens to 3.
	for i := 0; i < 10; i++ {
		g.RecordFrame(200*time.Millisecond, 0, 0, false)
	}
	g.tick()

	snap := g.Snapshot()
	if !snap.SkipEnabled {
		t.Fatal("expected skipping enabled")
	}
	if snap.SkipRatio != 3 {
		t.Errorf("SkipRatio = %d, want 3", snap.SkipRatio)
	}
}

func TestSkippingDisabledWhenThroughputRecovers(t *testing.T) {
	g := newTestGovernor(15)
	g.mu.Lock()
	g.tunables.SkipEnabled = true
	g.mu.Unlock()

	// 20 FPS: above 95% of target.
	for i := 0; i < 10; i++ {
		g.RecordFrame(50*time.Millisecond, 0, 0, false)
	}
	g.tick()

	snap := g.Snapshot()
	if snap.SkipEnabled {
		t.Error("expected skipping disabled above 95% of target")
	}
	if g.ShouldSkipFrame() {
		t.Error("expected no skip after disable")
	}
}

func TestQualityNeverLeavesBounds(t *testing.T) {
	g := newTestGovernor(15)

	// Sustained severe overload: quality must floor at 0.25.
	for i := 0; i < 10; i++ {
		g.RecordFrame(500*time.Millisecond, 0, 0, false)
	}
	for i := 0; i < 50; i++ {
		g.tick()
		q := g.Snapshot().Quality
		if q < minQuality || q > maxQuality {
			t.Fatalf("tick %d: quality %v out of [%v, %v]", i, q, minQuality, maxQuality)
		}
	}
	if q := g.Snapshot().Quality; q != minQuality {
		t.Errorf("quality after sustained overload = %v, want %v", q, minQuality)
	}

	// Sustained headroom: quality must recover and cap at 1.0.
	for i := 0; i < 60; i++ {
		g.RecordFrame(20*time.Millisecond, 0, 0, false)
	}
	for i := 0; i < 50; i++ {
		g.tick()
		q := g.Snapshot().Quality
		if q < minQuality || q > maxQuality {
			t.Fatalf("recovery tick %d: quality %v out of bounds", i, q)
		}
	}
	if q := g.Snapshot().Quality; q != maxQuality {
		t.Errorf("quality after recovery = %v, want %v", q, maxQuality)
	}
}

func TestNoAdjustmentWithoutSamples(t *testing.T) {
	g := newTestGovernor(15)
	g.tick()
	snap := g.Snapshot()
	if snap.SkipEnabled {
		t.Error("skip control acted on zero-sample window")
	}
	if snap.Quality != maxQuality {
		t.Errorf("quality changed on zero-sample window: %v", snap.Quality)
	}
}

func TestReclaimTriggersNearCeiling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMemoryMB = 100
	g := New(cfg)

	reclaims := 0
	g.reclaim = func() { reclaims++ }
	g.readMemory = func() (float64, error) { return 90, nil } // > 80% of ceiling

	clock := time.Unix(1000, 0)
	g.now = func() time.Time { return clock }
	g.lastReclaim = clock

	// Inside the minimum gap: no reclamation even above the threshold.
	g.tick()
	if reclaims != 0 {
		t.Fatalf("reclaimed %d times inside min gap, want 0", reclaims)
	}

	clock = clock.Add(6 * time.Second)
	g.tick()
	if reclaims != 1 {
		t.Fatalf("reclaims = %d, want 1", reclaims)
	}

	// Immediately after: rate-limited.
	g.tick()
	if reclaims != 1 {
		t.Errorf("reclaims = %d after back-to-back tick, want 1", reclaims)
	}
}

func TestPeriodicReclaimWithoutPressure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMemoryMB = 1000
	cfg.ReclaimInterval = 30 * time.Second
	g := New(cfg)

	reclaims := 0
	g.reclaim = func() { reclaims++ }
	g.readMemory = func() (float64, error) { return 50, nil }

	clock := time.Unix(1000, 0)
	g.now = func() time.Time { return clock }
	g.lastReclaim = clock

	clock = clock.Add(31 * time.Second)
	g.tick()
	if reclaims != 1 {
		t.Errorf("reclaims = %d after interval elapsed, want 1", reclaims)
	}
}

func TestMemoryPressureCallbackIsRateLimited(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxMemoryMB = 100
	pressured := 0
	cfg.OnMemoryPressure = func(memoryMB float64) { pressured++ }
	g := New(cfg)

	g.reclaim = func() {}
	g.readMemory = func() (float64, error) { return 150, nil }

	clock := time.Unix(1000, 0)
	g.now = func() time.Time { return clock }
	g.lastReclaim = clock

	g.tick()
	g.tick()
	if pressured != 1 {
		t.Fatalf("pressure callbacks = %d within rate window, want 1", pressured)
	}

	clock = clock.Add(6 * time.Second)
	g.tick()
	if pressured != 2 {
		t.Fatalf("pressure callbacks = %d after window elapsed, want 2", pressured)
	}
}

func TestStopIsBounded(t *testing.T) {
	g := newTestGovernor(15)
	g.Start(t.Context())

	done := make(chan struct{})
	go func() {
		g.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return within bound")
	}
}
