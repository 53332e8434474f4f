// Package orchestrator drives the frame pipeline: one ProcessCycle per
// frame, consulting the governor's skip decision, invoking the collaborators
// through their narrow interfaces, and feeding outcomes into the error
// reporter and the recovery coordinator. No failure in any stage is allowed
// to terminate the process.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tdnguyen/vigil/internal/core/domain"
	"github.com/tdnguyen/vigil/internal/infra/detector"
	"github.com/tdnguyen/vigil/internal/infra/display"
	"github.com/tdnguyen/vigil/internal/infra/source"
	"github.com/tdnguyen/vigil/internal/pipeline/governor"
	"github.com/tdnguyen/vigil/internal/pipeline/recovery"
	"github.com/tdnguyen/vigil/internal/pipeline/reporter"
)

// Config wires the orchestrator's collaborators and policies.
type Config struct {
	Source      source.Source
	Detector    detector.Detector
	NewDetector func() detector.Detector
	Display     display.Sink
	NewDisplay  func() display.Sink

	Governor *governor.Governor
	Reporter *reporter.Reporter
	Recovery recovery.Config

	Primary  domain.SourceConfig
	Fallback *domain.SourceConfig

	State *domain.AppState

	// CyclePause is the idle gap between cycles in Run. Defaults to 1ms.
	CyclePause time.Duration
}

// Orchestrator owns the main pipeline loop and implements recovery.Actions.
type Orchestrator struct {
	cfg Config
	log *slog.Logger

	src  source.Source
	det  detector.Detector
	disp display.Sink

	gov   *governor.Governor
	rep   *reporter.Reporter
	rec   *recovery.Coordinator
	state *domain.AppState

	shutdownOnce sync.Once
}

// New creates an orchestrator and its recovery coordinator.
func New(cfg Config) *Orchestrator {
	if cfg.State == nil {
		cfg.State = domain.NewAppState()
	}
	if cfg.Reporter == nil {
		cfg.Reporter = reporter.New(reporter.DefaultConfig())
	}
	if cfg.Governor == nil {
		cfg.Governor = governor.New(governor.DefaultConfig())
	}
	if cfg.CyclePause <= 0 {
		cfg.CyclePause = time.Millisecond
	}
	o := &Orchestrator{
		cfg:   cfg,
		log:   slog.Default().With("component", "orchestrator"),
		src:   cfg.Source,
		det:   cfg.Detector,
		disp:  cfg.Display,
		gov:   cfg.Governor,
		rep:   cfg.Reporter,
		state: cfg.State,
	}
	o.rec = recovery.NewCoordinator(cfg.Recovery, cfg.Reporter, o)
	o.state.SetActiveSource(cfg.Primary.Name)
	if cfg.Detector != nil {
		o.state.SetDetectionEnabled(true)
	}
	return o
}

// fail reports a failure and mirrors it into the shared app state.
func (o *Orchestrator) fail(kind reporter.ErrorKind, msg string) {
	o.state.SetLastError(msg)
	o.rep.Report(kind, msg)
}

// ProcessCycle runs one pipeline tick. Returns true when the cycle completed
// (including deliberate skips and a user-initiated close), false on failure.
// Panics in collaborator code are converted into Unknown reports.
func (o *Orchestrator) ProcessCycle(ctx context.Context) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			o.fail(reporter.Unknown, fmt.Sprintf("panic in frame cycle: %v", r))
			ok = false
		}
	}()

	if o.gov.ShouldSkipFrame() {
		o.gov.RecordFrame(0, 0, 0, true)
		return true
	}

	start := time.Now()
	var detectDur, renderDur time.Duration

	if o.src == nil || !o.src.IsConnected() {
		o.fail(reporter.SourceConnectionFailed, "source not connected")
		o.gov.RecordFrame(time.Since(start), 0, 0, false)
		return false
	}

	frame, err := o.src.GetFrame(ctx)
	if err != nil || frame == nil {
		if err == source.ErrNotConnected {
			o.fail(reporter.SourceConnectionFailed, "source lost connection")
		} else {
			o.fail(reporter.FrameProcessingFailed, "failed to get frame from source")
		}
		o.gov.RecordFrame(time.Since(start), 0, 0, false)
		return false
	}

	tunables := o.gov.Snapshot()
	detectFailed := false

	var detections []domain.Detection
	if o.det != nil && o.state.DetectionEnabled() {
		detectionFrame := frame
		if tunables.Quality < 1.0 {
			detectionFrame = frame.Downscale(tunables.Quality)
		}

		detectStart := time.Now()
		detections, err = o.det.Detect(ctx, detectionFrame)
		detectDur = time.Since(detectStart)
		if err != nil {
			// Detection failure degrades the frame, it does not abort it:
			// the raw frame is still rendered.
			if err == detector.ErrModelNotLoaded {
				o.fail(reporter.ModelLoadFailed, "detection model not loaded")
			} else {
				o.fail(reporter.FrameProcessingFailed, fmt.Sprintf("detection failed: %v", err))
			}
			detections = nil
			detectFailed = true
		}
	}

	if o.disp != nil {
		renderStart := time.Now()
		keepOpen, err := o.disp.Render(ctx, frame, detections)
		renderDur = time.Since(renderStart)
		if err != nil {
			o.fail(reporter.RenderFailed, fmt.Sprintf("render failed: %v", err))
			o.gov.RecordFrame(time.Since(start), detectDur, renderDur, false)
			return false
		}
		if !keepOpen {
			o.log.Info("Display closed by user, stopping")
			o.state.SetRunning(false)
			o.gov.RecordFrame(time.Since(start), detectDur, renderDur, false)
			return true
		}
	}

	o.gov.RecordFrame(time.Since(start), detectDur, renderDur, false)
	o.state.SetThroughput(o.gov.CurrentFPS())

	// A failed detection stage still rendered the raw frame, but the cycle
	// counts as a failure so detector recovery can engage.
	if detectFailed {
		return false
	}

	// Fully successful cycle: error logging backoff resets so the next
	// unrelated failure logs immediately, and the recovery ladder relaxes.
	o.rep.ResetBackoff()
	o.rec.NoteSuccess()
	return true
}

// Run drives cycles until the context is cancelled, the state's running flag
// drops, or recovery is exhausted. Exhausted recovery is fatal and returned
// as an error so the host exits non-zero.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.state.SetRunning(true)
	o.log.Info("Pipeline started", "source", o.state.ActiveSource())

	for o.state.Running() {
		select {
		case <-ctx.Done():
			o.log.Info("Context cancelled, stopping pipeline")
			return nil
		default:
		}

		if !o.ProcessCycle(ctx) {
			o.rec.NoteFailure()
		}

		if o.rec.ShouldAttempt() {
			if !o.rec.AttemptRecovery(ctx) && o.rec.State() == recovery.Failed {
				return fmt.Errorf("recovery attempts exhausted after %d tries", o.rec.Attempts()-1)
			}
		}

		time.Sleep(o.cfg.CyclePause)
	}
	return nil
}

// SwitchToAlternate implements recovery.Actions: fail over between the
// primary and fallback source configs.
func (o *Orchestrator) SwitchToAlternate(ctx context.Context) bool {
	target, ok := o.alternateConfig()
	if !ok {
		o.log.Warn("No alternate source configured")
		return false
	}
	o.log.Info("Switching source",
		"from", o.state.ActiveSource(), "to", target.Name)
	if err := o.src.SwitchSource(ctx, target); err != nil {
		o.log.Warn("Source switch failed", "to", target.Name, "error", err)
		return false
	}
	o.state.SetActiveSource(target.Name)
	return true
}

func (o *Orchestrator) alternateConfig() (domain.SourceConfig, bool) {
	active := o.state.ActiveSource()
	if active != o.cfg.Primary.Name {
		return o.cfg.Primary, true
	}
	if o.cfg.Fallback == nil {
		return domain.SourceConfig{}, false
	}
	return *o.cfg.Fallback, true
}

// RestartDetector implements recovery.Actions.
func (o *Orchestrator) RestartDetector(ctx context.Context) bool {
	if o.cfg.NewDetector == nil {
		return false
	}
	det := o.cfg.NewDetector()
	if err := det.Load(ctx); err != nil {
		o.log.Warn("Detector restart failed", "error", err)
		return false
	}
	o.det = det
	o.state.SetDetectionEnabled(true)
	o.log.Info("Detector restarted")
	return true
}

// RestartDisplay implements recovery.Actions.
func (o *Orchestrator) RestartDisplay(ctx context.Context) bool {
	if o.cfg.NewDisplay == nil {
		return false
	}
	if o.disp != nil {
		o.disp.Cleanup()
	}
	o.disp = o.cfg.NewDisplay()
	o.log.Info("Display sink restarted")
	return true
}

// ForceSwitchSource switches to the alternate source on operator request,
// outside the recovery ladder, and resets the consecutive-error counter.
func (o *Orchestrator) ForceSwitchSource(ctx context.Context) bool {
	if !o.SwitchToAlternate(ctx) {
		return false
	}
	o.rec.NoteSuccess()
	return true
}

// Status returns the full controller snapshot.
func (o *Orchestrator) Status() domain.Status {
	perf := o.gov.Metrics()
	return domain.Status{
		Running:           o.state.Running(),
		ActiveSource:      o.state.ActiveSource(),
		DetectionEnabled:  o.state.DetectionEnabled(),
		Throughput:        perf.FPS,
		LastError:         o.state.LastError(),
		ConsecutiveErrors: o.rec.ConsecutiveErrors(),
		RecoveryAttempts:  o.rec.Attempts(),
		RecoveryState:     o.rec.State().String(),
		ErrorCounts:       o.rep.Counts(),
		SkipRatio:         perf.SkipRatio,
		QualityLevel:      perf.Quality,
		MemoryMB:          perf.MemoryMB,
		Suggestions:       o.gov.Suggestions(),
	}
}

// Shutdown stops the governor, releases the collaborators, and logs the
// final statistics. Idempotent.
func (o *Orchestrator) Shutdown() {
	o.shutdownOnce.Do(func() {
		o.log.Info("Shutting down pipeline")
		o.state.SetRunning(false)

		o.gov.Stop()
		o.gov.LogSummary()

		if o.disp != nil {
			o.disp.Cleanup()
		}
		if o.src != nil {
			o.src.Release()
		}

		o.logFinalStatistics()
		o.log.Info("Shutdown complete")
	})
}

func (o *Orchestrator) logFinalStatistics() {
	perf := o.gov.Metrics()
	o.log.Info("Final statistics",
		"recovery_attempts", o.rec.Attempts(),
		"recovery_state", o.rec.State().String(),
		"active_source", o.state.ActiveSource(),
		"throughput_fps", perf.FPS,
		"frames_processed", perf.FramesProcessed,
		"frames_skipped", perf.FramesSkipped)
	for kind, count := range o.rep.Counts() {
		if count > 0 {
			o.log.Info("Error count", "kind", kind, "count", count)
		}
	}
}
