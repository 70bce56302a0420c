// Package paths resolves where the lapress command keeps its config.yaml
// and its SQLite database.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// AppName is the directory created under the platform config and data roots.
const AppName = "lapress"

// ConfigFileName is the name of the configuration file inside the config dir.
const ConfigFileName = "config.yaml"

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "LAPRESS_CONFIG_DIR"
	EnvDataDir   = "LAPRESS_DATA_DIR"
)

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	goos          string
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	goos:          runtime.GOOS,
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// root picks the per-user base directory. On Linux xdgVar wins, then
// ~/<fallback...>; elsewhere os.UserConfigDir is used for both kinds.
func root(xdgVar string, fallback ...string) (string, error) {
	if platformDir.goos != "linux" {
		return platformDir.userConfigDir()
	}
	if xdg := os.Getenv(xdgVar); xdg != "" {
		return xdg, nil
	}
	home, err := platformDir.homeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, fallback...)...), nil
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/lapress (fallback ~/.config/lapress)
// macOS:   ~/Library/Application Support/lapress
// Windows: %APPDATA%/lapress
func DefaultConfigDir() (string, error) {
	dir, err := root("XDG_CONFIG_HOME", ".config")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// DefaultDataDir returns the platform-specific default data directory.
//
// Linux:   $XDG_DATA_HOME/lapress (fallback ~/.local/share/lapress)
// macOS and Windows: same as the config directory.
func DefaultDataDir() (string, error) {
	dir, err := root("XDG_DATA_HOME", ".local", "share")
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, AppName), nil
}

// ResolveConfigDir applies flag > LAPRESS_CONFIG_DIR > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	return firstAbs(DefaultConfigDir, flag, os.Getenv(EnvConfigDir))
}

// ResolveDataDir applies flag > configured value > LAPRESS_DATA_DIR >
// DefaultDataDir().
func ResolveDataDir(flag, configured string) (string, error) {
	return firstAbs(DefaultDataDir, flag, configured, os.Getenv(EnvDataDir))
}

// ConfigFile returns the config.yaml path inside dir.
func ConfigFile(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

func firstAbs(fallback func() (string, error), candidates ...string) (string, error) {
	for _, c := range candidates {
		if c != "" {
			return filepath.Abs(c)
		}
	}
	return fallback()
}
