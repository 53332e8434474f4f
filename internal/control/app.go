package control

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/tdnguyen/vigil/internal/core/config"
	"github.com/tdnguyen/vigil/internal/core/domain"
	"github.com/tdnguyen/vigil/internal/infra/detector"
	"github.com/tdnguyen/vigil/internal/infra/display"
	redisclient "github.com/tdnguyen/vigil/internal/infra/redis"
	"github.com/tdnguyen/vigil/internal/infra/source"
	"github.com/tdnguyen/vigil/internal/pipeline/governor"
	"github.com/tdnguyen/vigil/internal/pipeline/health"
	"github.com/tdnguyen/vigil/internal/pipeline/orchestrator"
	"github.com/tdnguyen/vigil/internal/pipeline/recovery"
	"github.com/tdnguyen/vigil/internal/pipeline/reporter"
)

// App assembles the capture pipeline and its supporting services: the
// governor, the recovery ladder, the health server, and the optional
// fleet status publisher.
type App struct {
	cfg *config.AppConfig
	log *slog.Logger

	pipeline     Pipeline
	governor     *governor.Governor
	healthServer *health.Server
	redisClient  *redisclient.Client
	publisher    *redisclient.Publisher

	errCh chan error
}

// NewApp creates the application with all dependencies initialized. The
// source is connected via the primary/fallback ladder before the pipeline
// accepts its first frame.
func NewApp(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	log := slog.Default().With("component", "app")

	rep := reporter.New(reporter.Config{
		BaseInterval: cfg.Reporting.BaseInterval,
		MaxInterval:  cfg.Reporting.MaxInterval,
	})

	gov := governor.New(governor.Config{
		TargetFPS:       cfg.Performance.TargetFPS,
		MaxMemoryMB:     cfg.Performance.MaxMemoryMB,
		TickInterval:    cfg.Performance.TickInterval,
		ReclaimInterval: cfg.Performance.ReclaimInterval,
		OnMemoryPressure: func(memoryMB float64) {
			rep.Report(reporter.ResourceExhausted,
				fmt.Sprintf("memory usage %.0f MB exceeds limit %.0f MB", memoryMB, cfg.Performance.MaxMemoryMB))
		},
	})

	src, active, err := connectSource(ctx, cfg.Source, rep)
	if err != nil {
		return nil, err
	}
	log.Info("Source connected", "source", active)

	var det detector.Detector
	if cfg.Detector.Enabled {
		sim := detector.NewSimDetector(cfg.Detector.ConfidenceThreshold)
		if err := sim.Load(ctx); err != nil {
			// Detection is optional: the pipeline runs capture-only and
			// recovery can bring the detector back later.
			rep.Report(reporter.ModelLoadFailed, fmt.Sprintf("detector load failed: %v", err))
		} else {
			det = sim
		}
	}

	sink := display.NewLogSink(2 * time.Second)

	state := domain.NewAppState()

	orch := orchestrator.New(orchestrator.Config{
		Source:   src,
		Detector: det,
		NewDetector: func() detector.Detector {
			return detector.NewSimDetector(cfg.Detector.ConfidenceThreshold)
		},
		Display:    sink,
		NewDisplay: func() display.Sink { return display.NewLogSink(2 * time.Second) },
		Governor:   gov,
		Reporter:   rep,
		Recovery: recovery.Config{
			MaxConsecutiveErrors: cfg.Recovery.MaxConsecutiveErrors,
			StallWindow:          cfg.Recovery.StallWindow,
			MaxAttempts:          cfg.Recovery.MaxAttempts,
		},
		Primary:  cfg.Source.Primary,
		Fallback: cfg.Source.Fallback,
		State:    state,
	})
	state.SetActiveSource(active)

	monitor := health.NewMonitor(orch.Status, cfg.Performance.TargetFPS, cfg.Performance.MaxMemoryMB)
	healthServer := health.NewServer(monitor, orch.Status, orch.ForceSwitchSource, cfg.Server.Port)

	app := &App{
		cfg:          cfg,
		log:          log,
		pipeline:     orch,
		governor:     gov,
		healthServer: healthServer,
		errCh:        make(chan error, 1),
	}

	if cfg.Redis.URL != "" {
		client, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			log.Warn("Redis unavailable, fleet status publishing disabled", "error", err)
		} else {
			app.redisClient = client
			app.publisher = redisclient.NewPublisher(client, cfg.Redis, orch.Status)
		}
	}

	return app, nil
}

// connectSource tries the primary source first and falls back to the
// secondary when the primary refuses to connect.
func connectSource(ctx context.Context, section config.SourceSection, rep *reporter.Reporter) (source.Source, string, error) {
	src := source.NewSimSource(section.Primary)
	if err := src.SwitchSource(ctx, section.Primary); err == nil && src.IsConnected() {
		return src, section.Primary.Name, nil
	}

	rep.Report(reporter.SourceConnectionFailed,
		fmt.Sprintf("primary source %q unavailable", section.Primary.Name))

	if section.Fallback == nil {
		return nil, "", fmt.Errorf("primary source %q unavailable and no fallback configured", section.Primary.Name)
	}
	if err := src.SwitchSource(ctx, *section.Fallback); err != nil || !src.IsConnected() {
		return nil, "", fmt.Errorf("no source available: primary %q and fallback %q both failed",
			section.Primary.Name, section.Fallback.Name)
	}
	return src, section.Fallback.Name, nil
}

// Start launches the governor, the health server, the optional status
// publisher, and the pipeline loop. The loop's terminal error, if any,
// is delivered on Err.
func (a *App) Start(ctx context.Context) error {
	a.governor.Start(ctx)

	go func() {
		if err := a.healthServer.Start(); err != nil && err != http.ErrServerClosed {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	if a.publisher != nil {
		go func() {
			if err := a.publisher.Run(ctx); err != nil {
				a.log.Warn("Status publisher stopped", "error", err)
			}
		}()
	}

	go func() {
		a.errCh <- a.pipeline.Run(ctx)
	}()

	a.log.Info("Application started", "port", a.cfg.Server.Port)
	return nil
}

// Err delivers the pipeline loop's result: nil on a clean stop, non-nil
// when recovery was exhausted.
func (a *App) Err() <-chan error {
	return a.errCh
}

// Status returns the current controller snapshot.
func (a *App) Status() domain.Status {
	return a.pipeline.Status()
}

// Stop shuts the application down in dependency order.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping application")

	a.pipeline.Shutdown()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}

	return a.healthServer.Stop(ctx)
}
