package e2e

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/tdnguyen/vigil/internal/control"
	"github.com/tdnguyen/vigil/internal/core/config"
	"github.com/tdnguyen/vigil/internal/core/domain"
)

func TestGracefulShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = 18099
	cfg.Detector.Enabled = true
	cfg.Source.Fallback = &domain.SourceConfig{
		Name: "fallback", DeviceID: 1, Width: 320, Height: 240,
		FPS: 15, ConnectTimeout: 2 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	app, err := control.NewApp(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create app: %v", err)
	}

	if err := app.Start(ctx); err != nil {
		t.Fatalf("Failed to start app: %v", err)
	}

	// Let the pipeline process simulated frames for a bit.
	time.Sleep(2 * time.Second)

	st := app.Status()
	if !st.Running {
		t.Error("pipeline should be running")
	}
	if st.ActiveSource != "primary" {
		t.Errorf("active source = %q, want primary", st.ActiveSource)
	}

	// The status endpoint serves the same snapshot.
	resp, err := http.Get(fmt.Sprintf("http://localhost:%d/status", cfg.Server.Port))
	if err != nil {
		t.Fatalf("status endpoint unreachable: %v", err)
	}
	var served domain.Status
	if err := json.NewDecoder(resp.Body).Decode(&served); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	_ = resp.Body.Close()
	if !served.Running {
		t.Error("served status should report running")
	}

	cancel()

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		t.Errorf("Stop failed: %v", err)
	}

	select {
	case err := <-app.Err():
		if err != nil {
			t.Errorf("pipeline exited with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Error("pipeline did not exit after cancellation")
	}
}
