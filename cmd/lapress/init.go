// Init and version commands for the lapress CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lapress/internal/paths"
	"github.com/mesh-intelligence/lapress/pkg/lapress"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml and create the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configDir, err := paths.ResolveConfigDir(flagConfigDir)
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		created, err := writeDefaultConfig(configDir)
		if err != nil {
			return err
		}
		if created {
			// Pick up the file just written.
			if err := prepareConfig(); err != nil {
				return err
			}
		}

		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "lapress initialized")
		fmt.Fprintln(out, "  config:", paths.ConfigFile(configDir))
		fmt.Fprintln(out, "  data:  ", site.Config().DataDir)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the lapress version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "lapress", lapress.Version)
	},
}
