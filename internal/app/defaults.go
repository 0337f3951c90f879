package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - TIMESTREAMS_CONFIG_PATH: config file location (default: ~/.config/timestreams.toml)
//   - TIMESTREAMS_HOME: base directory for streams, history and logs (default: ~/.local/share/timestreams)
func GetDefaults() (map[string]string, error) {
	configPath, err := fromEnvOrHome("TIMESTREAMS_CONFIG_PATH", ".config", "timestreams.toml")
	if err != nil {
		return nil, err
	}

	baseDir, err := fromEnvOrHome("TIMESTREAMS_HOME", ".local", "share", "timestreams")
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// fromEnvOrHome returns the env var if set, else the path under the home directory.
func fromEnvOrHome(env string, elem ...string) (string, error) {
	if path := os.Getenv(env); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(append([]string{homeDir}, elem...)...), nil
}
