package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tdnguyen/vigil/internal/core/domain"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current status of a running pipeline",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	url := fmt.Sprintf("http://localhost:%d/status", cfg.Server.Port)
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		slog.Error("Failed to reach pipeline", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var st domain.Status
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		slog.Error("Failed to decode status", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "FIELD\tVALUE")
	_, _ = fmt.Fprintf(w, "running\t%t\n", st.Running)
	_, _ = fmt.Fprintf(w, "active source\t%s\n", st.ActiveSource)
	_, _ = fmt.Fprintf(w, "detection\t%t\n", st.DetectionEnabled)
	_, _ = fmt.Fprintf(w, "throughput\t%.1f fps\n", st.Throughput)
	_, _ = fmt.Fprintf(w, "quality\t%.2f\n", st.QualityLevel)
	_, _ = fmt.Fprintf(w, "skip ratio\t%d\n", st.SkipRatio)
	_, _ = fmt.Fprintf(w, "memory\t%.0f MB\n", st.MemoryMB)
	_, _ = fmt.Fprintf(w, "recovery state\t%s\n", st.RecoveryState)
	_, _ = fmt.Fprintf(w, "recovery attempts\t%d\n", st.RecoveryAttempts)
	_, _ = fmt.Fprintf(w, "consecutive errors\t%d\n", st.ConsecutiveErrors)
	for kind, count := range st.ErrorCounts {
		if count > 0 {
			_, _ = fmt.Fprintf(w, "errors: %s\t%d\n", kind, count)
		}
	}
	if len(st.Suggestions) > 0 {
		_, _ = fmt.Fprintf(w, "suggestions\t%s\n", strings.Join(st.Suggestions, "; "))
	}
	if st.LastError != "" {
		_, _ = fmt.Fprintf(w, "last error\t%s\n", st.LastError)
	}
	_ = w.Flush()
}
