// Root command for the lapress CLI.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/lapress/internal/logging"
	"github.com/mesh-intelligence/lapress/internal/paths"
	"github.com/mesh-intelligence/lapress/pkg/lapress"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

// Global flag values.
var (
	flagConfigDir string
	flagDataDir   string
	flagLogLevel  string
	flagJSON      bool
)

// siteConfig is loaded by PersistentPreRunE for every subcommand.
var siteConfig types.Config

var rootCmd = &cobra.Command{
	Use:           "lapress",
	Short:         "LaPress data layer tools",
	Long:          `lapress reads and edits the posts, menus, meta rows and users of a LaPress database.`,
	Version:       lapress.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return prepareConfig()
	},
}

// prepareConfig loads config.yaml and applies the directory and log level
// flags to siteConfig.
func prepareConfig() error {
	configDir, err := paths.ResolveConfigDir(flagConfigDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	cfg.DataDir, err = paths.ResolveDataDir(flagDataDir, cfg.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	siteConfig = cfg
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigDir, "config-dir", "", "configuration directory (default: platform config dir)")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "SQLite data directory (default: platform data dir)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&flagJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(menuCmd)
	rootCmd.AddCommand(metaCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(resolveCmd)
}

// openSite opens the configured site. The returned func closes it and
// flushes the logger.
func openSite(ctx context.Context) (*lapress.Site, func(), error) {
	logger, err := logging.New(siteConfig.LogLevel, false)
	if err != nil {
		return nil, nil, userErrorf("log level: %w", err)
	}
	site, err := lapress.Open(ctx, siteConfig, lapress.WithLogger(logger))
	if err != nil {
		_ = logger.Sync()
		return nil, nil, err
	}
	return site, func() {
		if err := site.Close(); err != nil {
			logger.Warn("closing site", zap.Error(err))
		}
		_ = logger.Sync()
	}, nil
}

// writeJSON prints v indented.
func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}
