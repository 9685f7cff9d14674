package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/loader"
)

// MonitorCmd represents the monitor command
var MonitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch the save directory and import new snapshots continuously",
	Long: `Watch the save directory and import new snapshots continuously.

Runs until interrupted. New save archives are picked up through filesystem
notifications, with periodic polling as a fallback, and imported in file
timestamp order per campaign.

Examples:
  stellarisdashboard monitor                  # Import existing saves, then watch
  stellarisdashboard monitor --skip-existing  # Only import saves written from now on`,
	RunE: runMonitor,
}

var monitorSkipExisting bool

func init() {
	MonitorCmd.Flags().BoolVar(&monitorSkipExisting, "skip-existing", false,
		"Skip save files already present at startup")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m, err := loader.NewMonitor(cfg)
	if err != nil {
		return fmt.Errorf("failed to start save monitor: %w", err)
	}
	if monitorSkipExisting {
		if err := m.MarkExistingProcessed(); err != nil {
			return fmt.Errorf("failed to scan existing saves: %w", err)
		}
	}

	im := newImporter(cfg)
	defer im.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		pterm.Info.Println("Shutting down gracefully...")
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		done <- m.Run(ctx)
	}()

	pterm.Info.Printf("Watching %s for new save archives (press Ctrl+C to stop)\n",
		cfg.Paths.SaveFilePath)

	// The snapshot channel closes when Run stops the parser pool, so this
	// loop drains every save that was in flight at shutdown.
	for res := range m.Snapshots() {
		im.handle(res)
	}
	err = <-done

	imported, failed := im.totals()
	if imported > 0 || failed > 0 {
		pterm.DefaultTable.WithHasHeader().WithData(im.summaryTable()).Render()
	}
	pterm.Success.Printf("Monitor stopped after importing %d snapshots\n", imported)
	return err
}
