package recovery

import (
	"context"
	"testing"
	"time"

	"github.com/tdnguyen/vigil/internal/pipeline/reporter"
)

// fakeActions records which strategies were invoked.
type fakeActions struct {
	switchCalls    int
	detectorCalls  int
	displayCalls   int
	switchResult   bool
	detectorResult bool
	displayResult  bool
}

func (a *fakeActions) SwitchToAlternate(ctx context.Context) bool {
	a.switchCalls++
	return a.switchResult
}

func (a *fakeActions) RestartDetector(ctx context.Context) bool {
	a.detectorCalls++
	return a.detectorResult
}

func (a *fakeActions) RestartDisplay(ctx context.Context) bool {
	a.displayCalls++
	return a.displayResult
}

func newTestCoordinator(actions *fakeActions) (*Coordinator, *reporter.Reporter) {
	rep := reporter.New(reporter.Config{BaseInterval: time.Second, MaxInterval: time.Minute})
	c := NewCoordinator(DefaultConfig(), rep, actions)
	return c, rep
}

func TestAttemptsBeyondMaxReturnFalseWithoutStrategies(t *testing.T) {
	actions := &fakeActions{switchResult: false, detectorResult: false, displayResult: false}
	c, rep := newTestCoordinator(actions)
	rep.Report(reporter.SourceConnectionFailed, "x")

	// First 3 attempts run the ladder (and fail, since every action fails).
	for i := 0; i < 3; i++ {
		if c.AttemptRecovery(context.Background()) {
			t.Fatalf("attempt %d unexpectedly succeeded", i+1)
		}
	}
	callsAfterMax := actions.switchCalls

	// 4th attempt short-circuits: terminal, no strategy invoked.
	if c.AttemptRecovery(context.Background()) {
		t.Fatal("attempt past max unexpectedly succeeded")
	}
	if actions.switchCalls != callsAfterMax {
		t.Errorf("strategy invoked past max attempts: %d extra switch calls",
			actions.switchCalls-callsAfterMax)
	}
	if c.State() != Failed {
		t.Errorf("state = %s, want failed", c.State())
	}
}

func TestFailoverChosenWhenConnectionErrorsDominate(t *testing.T) {
	actions := &fakeActions{switchResult: true}
	c, rep := newTestCoordinator(actions)

	for i := 0; i < 6; i++ {
		rep.Report(reporter.SourceConnectionFailed, "camera not connected")
	}
	rep.Report(reporter.RenderFailed, "window gone")

	if !c.AttemptRecovery(context.Background()) {
		t.Fatal("expected recovery to succeed via failover")
	}
	if actions.switchCalls == 0 {
		t.Error("failover was not invoked")
	}
	if actions.detectorCalls != 0 || actions.displayCalls != 0 {
		t.Error("restart fallback ran despite successful failover")
	}
	if c.State() != Healthy {
		t.Errorf("state = %s, want healthy", c.State())
	}
}

func TestRestartFallbackWhenFailoverFails(t *testing.T) {
	actions := &fakeActions{switchResult: false, displayResult: true}
	c, rep := newTestCoordinator(actions)

	for i := 0; i < 3; i++ {
		rep.Report(reporter.FrameProcessingFailed, "no frame")
	}
	rep.Report(reporter.RenderFailed, "window gone")

	if !c.AttemptRecovery(context.Background()) {
		t.Fatal("expected recovery to succeed via display restart")
	}
	if actions.switchCalls == 0 {
		t.Error("failover should have been tried first")
	}
	if actions.displayCalls != 1 {
		t.Errorf("display restarts = %d, want 1", actions.displayCalls)
	}
}

func TestRestartChosenWhenModelErrorsDominate(t *testing.T) {
	actions := &fakeActions{detectorResult: true}
	c, rep := newTestCoordinator(actions)

	for i := 0; i < 4; i++ {
		rep.Report(reporter.ModelLoadFailed, "model missing")
	}

	if !c.AttemptRecovery(context.Background()) {
		t.Fatal("expected recovery to succeed via detector restart")
	}
	if actions.switchCalls != 0 {
		t.Error("failover ran although connection errors do not dominate")
	}
	if actions.detectorCalls != 1 {
		t.Errorf("detector restarts = %d, want 1", actions.detectorCalls)
	}
}

func TestRecoveryFailsWhenNoStrategyApplies(t *testing.T) {
	actions := &fakeActions{}
	c, rep := newTestCoordinator(actions)

	rep.Report(reporter.Unknown, "???")

	if c.AttemptRecovery(context.Background()) {
		t.Fatal("expected recovery to fail with no applicable strategy")
	}
	if c.State() != Degraded {
		t.Errorf("state = %s, want degraded", c.State())
	}
}

func TestConsecutiveErrorTrigger(t *testing.T) {
	c, _ := newTestCoordinator(&fakeActions{})

	for i := 0; i < 4; i++ {
		c.NoteFailure()
		if c.ShouldAttempt() {
			t.Fatalf("trigger fired at %d consecutive errors, threshold is 5", i+1)
		}
	}
	c.NoteFailure()
	if !c.ShouldAttempt() {
		t.Error("trigger did not fire at 5 consecutive errors")
	}

	c.NoteSuccess()
	if c.ShouldAttempt() {
		t.Error("trigger still armed after success")
	}
	if c.State() != Healthy {
		t.Errorf("state = %s, want healthy after success", c.State())
	}
}

func TestStallTriggerIndependentOfCounter(t *testing.T) {
	c, _ := newTestCoordinator(&fakeActions{})

	clock := time.Unix(1000, 0)
	c.now = func() time.Time { return clock }
	c.NoteSuccess() // lastSuccess = clock

	// Zero consecutive errors, but no success for longer than the window.
	clock = clock.Add(31 * time.Second)
	if c.ConsecutiveErrors() != 0 {
		t.Fatalf("precondition: consecutive = %d, want 0", c.ConsecutiveErrors())
	}
	if !c.ShouldAttempt() {
		t.Error("stall trigger did not fire after 31s without success")
	}

	clock = clock.Add(-20 * time.Second)
	if c.ShouldAttempt() {
		t.Error("stall trigger fired inside the window")
	}
}

func TestStateLadder(t *testing.T) {
	actions := &fakeActions{switchResult: false}
	c, rep := newTestCoordinator(actions)

	if c.State() != Healthy {
		t.Fatalf("initial state = %s, want healthy", c.State())
	}
	c.NoteFailure()
	if c.State() != Degraded {
		t.Errorf("state after failure = %s, want degraded", c.State())
	}

	// Drive to terminal Failed.
	rep.Report(reporter.Unknown, "x")
	for i := 0; i < 4; i++ {
		c.AttemptRecovery(context.Background())
	}
	if c.State() != Failed {
		t.Fatalf("state = %s, want failed", c.State())
	}

	// Failed is terminal: success does not resurrect the ladder.
	c.NoteSuccess()
	if c.State() != Failed {
		t.Errorf("state after success = %s, Failed must be terminal", c.State())
	}
	if c.ShouldAttempt() {
		t.Error("ShouldAttempt must be false in Failed state")
	}
}
