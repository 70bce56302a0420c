// Config loading for the lapress CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/lapress/internal/paths"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"

	// Config keys with defaults or environment bindings.
	cfgKeyBackend         = "backend"
	cfgKeyTablePrefix     = "table_prefix"
	cfgKeySiteURL         = "site_url"
	cfgKeyMenuMaxDepth    = "menu_max_depth"
	cfgKeyMenuConcurrency = "menu_concurrency"
	cfgKeyLogLevel        = "log_level"
	cfgKeyDSN             = "dsn"
	cfgKeyRedisPassword   = "redis.password"
)

// Secrets are read from the environment rather than config.yaml.
const (
	envDSN           = "LAPRESS_DSN"
	envRedisPassword = "LAPRESS_REDIS_PASSWORD"
)

const configHeader = `# lapress configuration.
# dsn and redis.password may be supplied through LAPRESS_DSN and
# LAPRESS_REDIS_PASSWORD instead of this file.
`

// defaultConfig is what init writes to a fresh config.yaml.
func defaultConfig() types.Config {
	return types.Config{
		Backend:         types.BackendSQLite,
		TablePrefix:     types.DefaultTablePrefix,
		SiteURL:         "http://localhost",
		MenuMaxDepth:    types.DefaultMenuMaxDepth,
		MenuConcurrency: types.DefaultMenuConcurrency,
		LogLevel:        "warn",
	}
}

// writeDefaultConfig creates config.yaml in configDir unless it exists. It
// reports whether a file was written.
func writeDefaultConfig(configDir string) (bool, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return false, fmt.Errorf("creating config dir: %w", err)
	}
	path := paths.ConfigFile(configDir)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	body, err := yaml.Marshal(defaultConfig())
	if err != nil {
		return false, fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), body...), 0o644); err != nil {
		return false, fmt.Errorf("writing config file: %w", err)
	}
	return true, nil
}

// loadConfig reads config.yaml from configDir with Viper. A missing file
// yields the defaults.
func loadConfig(configDir string) (types.Config, error) {
	d := defaultConfig()
	v := viper.New()
	v.SetDefault(cfgKeyBackend, d.Backend)
	v.SetDefault(cfgKeyTablePrefix, d.TablePrefix)
	v.SetDefault(cfgKeySiteURL, d.SiteURL)
	v.SetDefault(cfgKeyMenuMaxDepth, d.MenuMaxDepth)
	v.SetDefault(cfgKeyMenuConcurrency, d.MenuConcurrency)
	v.SetDefault(cfgKeyLogLevel, d.LogLevel)
	if err := v.BindEnv(cfgKeyDSN, envDSN); err != nil {
		return types.Config{}, err
	}
	if err := v.BindEnv(cfgKeyRedisPassword, envRedisPassword); err != nil {
		return types.Config{}, err
	}

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return types.Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return types.Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
