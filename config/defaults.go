package config

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("paths.save_file_path", DefaultSavePath())
	v.SetDefault("paths.base_output_path", defaultBaseOutputPath())

	v.SetDefault("import.threads", defaultThreads())
	v.SetDefault("import.skip_saves", 0)
	v.SetDefault("import.save_name_filter", "")
	v.SetDefault("import.mp_username", "")
	v.SetDefault("import.min_free_memory_mb", 2048)
	v.SetDefault("import.read_all_countries", false)
	v.SetDefault("import.show_everything", false)
	v.SetDefault("import.show_all_country_types", false)

	v.SetDefault("monitor.polling_interval_seconds", 0.5)
	v.SetDefault("monitor.check_version", true)

	v.SetDefault("hooks.post_import", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.to_file", false)
	v.SetDefault("log.json", false)
}

// defaultThreads leaves half the machine to the game itself.
func defaultThreads() int {
	threads := runtime.NumCPU() / 2
	if threads < 1 {
		return 1
	}
	return threads
}

// DefaultSavePath returns the platform's usual "save games" directory, per
// https://stellaris.paradoxwikis.com/Save-game_editing.
func DefaultSavePath() string {
	return filepath.Join(defaultUserDataPath(), "save games")
}

func defaultUserDataPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(home, "OneDrive", "Documents", "Paradox Interactive", "Stellaris")
	case "linux":
		return filepath.Join(home, ".local", "share", "Paradox Interactive", "Stellaris")
	default:
		return filepath.Join(home, "Documents", "Paradox Interactive", "Stellaris")
	}
}

func defaultBaseOutputPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return "output"
	}
	return filepath.Join(cwd, "output")
}
