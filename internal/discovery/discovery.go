package discovery

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	dirName    = ".pixelpaws"
	configName = "config.toml"
	logName    = "pixelpaws.log"
)

// FindConfigFile walks up from startDir looking for a project-local config.
func FindConfigFile(startDir string) (string, bool, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}

	for {
		configPath := filepath.Join(dir, dirName, configName)
		if _, err := os.Stat(configPath); err == nil {
			return configPath, true, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			break
		}
		dir = parent
	}

	return "", false, nil
}

// GlobalConfigPath is the per-user config location.
func GlobalConfigPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "pixelpaws", configName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, dirName, configName)
}

// ResolveConfigPath picks the explicit path if given, then a project-local
// config, then the global one. The global path may not exist yet.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	path, found, err := FindConfigFile(cwd)
	if err != nil {
		return "", err
	}
	if found {
		return path, nil
	}
	return GlobalConfigPath(), nil
}

// LogPathFor places the log file next to the config.
func LogPathFor(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), logName)
}
