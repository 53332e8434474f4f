package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var switchSourceCmd = &cobra.Command{
	Use:   "switch-source",
	Short: "Force a running pipeline to fail over to its alternate source",
	Run:   runSwitchSource,
}

func init() {
	rootCmd.AddCommand(switchSourceCmd)
}

func runSwitchSource(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	url := fmt.Sprintf("http://localhost:%d/control/switch-source", cfg.Server.Port)
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Post(url, "application/json", strings.NewReader("{}"))
	if err != nil {
		slog.Error("Failed to reach pipeline", "url", url, "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var result struct {
		Switched bool `json:"switched"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		slog.Error("Failed to decode response", "error", err)
		os.Exit(1)
	}

	if !result.Switched {
		fmt.Println("Source switch failed")
		os.Exit(1)
	}
	fmt.Println("Source switched")
}
