// Package config holds the dashboard configuration. Values come from TOML
// config files merged with environment variables, with sensible defaults for
// everything so a fresh checkout runs without any config file at all.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
)

type Config struct {
	Paths   PathsConfig   `mapstructure:"paths"`
	Import  ImportConfig  `mapstructure:"import"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	Hooks   HooksConfig   `mapstructure:"hooks"`
	Log     LogConfig     `mapstructure:"log"`
}

// PathsConfig locates the game's save files and the dashboard's own output.
type PathsConfig struct {
	// SaveFilePath is the "save games" directory of the game, which contains
	// one subdirectory per campaign.
	SaveFilePath string `mapstructure:"save_file_path"`
	// BaseOutputPath is where the dashboard keeps its databases and logs.
	BaseOutputPath string `mapstructure:"base_output_path"`
}

type ImportConfig struct {
	Threads             int    `mapstructure:"threads"`
	SkipSaves           int    `mapstructure:"skip_saves"`             // import only every (n+1)-th save
	SaveNameFilter      string `mapstructure:"save_name_filter"`       // only import saves whose filename contains this
	MPUsername          string `mapstructure:"mp_username"`            // multiplayer username identifying the observer
	MinFreeMemoryMB     int    `mapstructure:"min_free_memory_mb"`     // delay parsing while available memory is below this
	ReadAllCountries    bool   `mapstructure:"read_all_countries"`     // store full data for non-observer countries
	ShowEverything      bool   `mapstructure:"show_everything"`        // ignore diplomatic visibility rules
	ShowAllCountryTypes bool   `mapstructure:"show_all_country_types"` // include fallen empires, marauders etc.
}

type MonitorConfig struct {
	PollingIntervalSeconds float64 `mapstructure:"polling_interval_seconds"`
	CheckVersion           bool    `mapstructure:"check_version"` // refuse saves from unsupported game versions
}

// HooksConfig configures external commands run on dashboard events.
type HooksConfig struct {
	// PostImport is run after each committed snapshot, with the series name
	// and day index appended as arguments. Failures are logged, never fatal.
	PostImport string `mapstructure:"post_import"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	ToFile bool   `mapstructure:"to_file"`
	JSON   bool   `mapstructure:"json"`
}

// DBDir returns the directory holding the per-campaign databases.
func (c *Config) DBDir() string {
	return filepath.Join(c.Paths.BaseOutputPath, "db")
}

// LogFilePath returns the dashboard log file location used when log.to_file
// is set.
func (c *Config) LogFilePath() string {
	return filepath.Join(c.Paths.BaseOutputPath, "stellarisdashboard.log")
}

// Validate rejects configurations that cannot work at all. Zero values are
// generally fine because defaults are applied before unmarshalling.
func (c *Config) Validate() error {
	if c.Import.Threads < 0 {
		return errors.Newf("import.threads must not be negative, got %d", c.Import.Threads)
	}
	if c.Import.SkipSaves < 0 {
		return errors.Newf("import.skip_saves must not be negative, got %d", c.Import.SkipSaves)
	}
	if c.Monitor.PollingIntervalSeconds <= 0 {
		return errors.Newf("monitor.polling_interval_seconds must be positive, got %v", c.Monitor.PollingIntervalSeconds)
	}
	if c.Paths.BaseOutputPath == "" {
		return errors.New("paths.base_output_path must not be empty")
	}
	return nil
}

func (c *Config) String() string {
	return fmt.Sprintf("Config{SavePath: %s, OutputPath: %s, Threads: %d}",
		c.Paths.SaveFilePath, c.Paths.BaseOutputPath, c.Import.Threads)
}
