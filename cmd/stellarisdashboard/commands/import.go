package commands

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/loader"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
)

// ImportCmd represents the import command
var ImportCmd = &cobra.Command{
	Use:   "import <dir|file>...",
	Short: "Import save archives into the timeline database",
	Long: `Import save archives into the timeline database.

Directories are scanned recursively for .sav files. Archives are parsed in
parallel and imported in file timestamp order per campaign, so the timeline
sees snapshots in the order they were written.

Examples:
  stellarisdashboard import ~/stellaris/save\ games   # Import a whole library
  stellarisdashboard import mycampaign/2250.05.10.sav # Import a single save`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

var (
	importThreads int
	importFilter  string
)

func init() {
	ImportCmd.Flags().IntVar(&importThreads, "threads", 0, "Number of parser threads (default: from config)")
	ImportCmd.Flags().StringVar(&importFilter, "filter", "", "Only import saves whose name contains this string")
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if importThreads > 0 {
		cfg.Import.Threads = importThreads
	}
	if importFilter != "" {
		cfg.Import.SaveNameFilter = importFilter
	}

	results, total, err := loader.Batch(cfg, args)
	if err != nil {
		return err
	}
	if total == 0 {
		pterm.Info.Println("No save archives found")
		return nil
	}

	im := newImporter(cfg)
	defer im.Close()

	runID := uuid.NewString()
	logger.Infow("starting import run", "run_id", runID, "archives", total)

	bar, _ := pterm.DefaultProgressbar.WithTotal(total).WithTitle("Importing").Start()
	for res := range results {
		if err := im.handle(res); err != nil {
			pterm.Error.Printf("%s: %v\n", filepath.Base(res.Path), err)
		}
		bar.Increment()
	}
	bar.Stop()

	imported, failed := im.totals()
	logger.Infow("import run finished", "run_id", runID, "imported", imported, "failed", failed)
	pterm.DefaultTable.WithHasHeader().WithData(im.summaryTable()).Render()
	if failed > 0 {
		pterm.Warning.Printf("Imported %d snapshots, %d failed\n", imported, failed)
	} else {
		pterm.Success.Printf("Imported %d snapshots\n", imported)
	}
	return nil
}
