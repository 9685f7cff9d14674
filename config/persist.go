package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/eliasdoehne/stellaris-dashboard-sub000/errors"
	"github.com/eliasdoehne/stellaris-dashboard-sub000/logger"
)

// Save writes the configuration to the user config file, keeping rotating
// backups of the previous contents.
func Save(c *Config) error {
	configPath := UserConfigPath()
	if configPath == "" {
		return errors.New("could not determine home directory")
	}
	return SaveTo(c, configPath)
}

// SaveTo writes the configuration to an explicit path.
func SaveTo(c *Config, configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return errors.Wrap(err, "failed to create config directory")
	}

	if err := createBackup(configPath); err != nil {
		return err
	}

	data, err := toml.Marshal(Settings(c))
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return errors.Wrapf(err, "failed to write config to %s", configPath)
	}
	return nil
}

// Settings renders the config into the nested key layout of the TOML file.
func Settings(c *Config) map[string]any {
	return map[string]any{
		"paths": map[string]any{
			"save_file_path":   c.Paths.SaveFilePath,
			"base_output_path": c.Paths.BaseOutputPath,
		},
		"import": map[string]any{
			"threads":                c.Import.Threads,
			"skip_saves":             c.Import.SkipSaves,
			"save_name_filter":       c.Import.SaveNameFilter,
			"mp_username":            c.Import.MPUsername,
			"min_free_memory_mb":     c.Import.MinFreeMemoryMB,
			"read_all_countries":     c.Import.ReadAllCountries,
			"show_everything":        c.Import.ShowEverything,
			"show_all_country_types": c.Import.ShowAllCountryTypes,
		},
		"monitor": map[string]any{
			"polling_interval_seconds": c.Monitor.PollingIntervalSeconds,
			"check_version":            c.Monitor.CheckVersion,
		},
		"hooks": map[string]any{
			"post_import": c.Hooks.PostImport,
		},
		"log": map[string]any{
			"level":   c.Log.Level,
			"to_file": c.Log.ToFile,
			"json":    c.Log.JSON,
		},
	}
}

// createBackup rotates previous config files before a save: the current file
// becomes .back1, pushing older backups to .back2 and .back3.
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Failed to delete old backup %s: %v", back3, err)
	}
	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}
	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}
	if err := os.WriteFile(back1, content, 0644); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}
	return nil
}
