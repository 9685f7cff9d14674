package commands

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/config"
)

// ConfigCmd represents the config command
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage dashboard configuration",
	Long: `Manage dashboard configuration.

Configuration sources (in order of precedence):
1. Environment variables (STELLARISDASHBOARD_* prefix)
2. Project config (./config.toml)
3. User config (~/.stellarisdashboard/config.toml)
4. Default values

Examples:
  stellarisdashboard config show                # Show effective configuration
  stellarisdashboard config show --format json  # Show configuration as JSON
  stellarisdashboard config save                # Write effective config to the user config file`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  "Display the effective configuration merged from all sources",
	RunE:  runConfigShow,
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Write the effective configuration to the user config file",
	Long: `Write the effective configuration to the user config file.

The previous file is kept as a rotating backup (.back1 through .back3).`,
	RunE: runConfigSave,
}

var configFormat string

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configSaveCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	settings := config.Settings(cfg)

	switch configFormat {
	case "json":
		data, err := json.MarshalIndent(settings, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal config to JSON: %w", err)
		}
		fmt.Println(string(data))

	case "yaml":
		data, err := yaml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal config to YAML: %w", err)
		}
		fmt.Printf("# stellarisdashboard configuration\n%s", string(data))

	case "toml":
		data, err := toml.Marshal(settings)
		if err != nil {
			return fmt.Errorf("failed to marshal config to TOML: %w", err)
		}
		fmt.Printf("# stellarisdashboard configuration\n%s", string(data))

	default:
		return fmt.Errorf("unsupported format: %s (supported: toml, json, yaml)", configFormat)
	}

	return nil
}

func runConfigSave(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Printf("Configuration written to %s\n", config.UserConfigPath())
	return nil
}
