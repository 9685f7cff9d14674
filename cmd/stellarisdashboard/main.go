package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/cmd/stellarisdashboard/commands"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
)

var rootCmd = &cobra.Command{
	Use:   "stellarisdashboard",
	Short: "Stellaris Dashboard - timeline extraction from save snapshots",
	Long: `Stellaris Dashboard - timeline extraction from save snapshots.

Parses Stellaris save archives and maintains a persistent, append-only
timeline database per campaign: entities, historical events, statistics.

Available commands:
  import  - Import save archives from files or directories
  monitor - Watch the save directory and import new saves continuously
  inspect - Parse one save archive and dump its value tree
  series  - List and inspect stored timeline series
  config  - Manage dashboard configuration

Examples:
  stellarisdashboard import ~/.local/share/Paradox\ Interactive/Stellaris/save\ games
  stellarisdashboard monitor                    # Watch for new saves until interrupted
  stellarisdashboard inspect mysave.sav         # Dump the parsed value tree as YAML
  stellarisdashboard series list                # Show all imported campaigns
  stellarisdashboard config show --format yaml  # Show effective configuration`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs. Skip for
		// commands whose stdout is consumed as data (inspect, config show).
		if cmd.Name() == "inspect" || cmd.Name() == "show" {
			return nil
		}
		verbose, _ := cmd.Flags().GetBool("verbose")
		jsonLogs, _ := cmd.Flags().GetBool("json-logs")

		// Flags override the log section of the config file. A config load
		// failure is left for the command itself to report.
		logFile := ""
		if cfg, err := config.Load(); err == nil {
			verbose = verbose || cfg.Log.Level == "debug"
			jsonLogs = jsonLogs || cfg.Log.JSON
			if cfg.Log.ToFile {
				logFile = cfg.LogFilePath()
			}
		}
		if err := logger.Initialize(verbose, jsonLogs, logFile); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON for machine consumption")

	// Add commands
	rootCmd.AddCommand(commands.ImportCmd)
	rootCmd.AddCommand(commands.MonitorCmd)
	rootCmd.AddCommand(commands.InspectCmd)
	rootCmd.AddCommand(commands.SeriesCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.Execute()
	logger.Cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
