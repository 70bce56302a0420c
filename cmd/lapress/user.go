// User commands for the lapress CLI.
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lapress/pkg/lapress"
)

var (
	flagUserEmail    string
	flagUserPassword string
	flagUserRole     string
	flagUserName     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add <login>",
	Short: "Create a user with the default profile meta",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		u, err := site.AddUser(cmd.Context(), lapress.NewUser{
			Login:       args[0],
			Email:       flagUserEmail,
			Password:    flagUserPassword,
			DisplayName: flagUserName,
			Role:        flagUserRole,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), u)
		}
		fmt.Fprintln(cmd.OutOrStdout(), u.ID)
		return nil
	},
}

var userCheckCmd = &cobra.Command{
	Use:   "check <login>",
	Short: "Verify a login and password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		u, err := site.Authenticate(cmd.Context(), args[0], flagUserPassword)
		if errors.Is(err, lapress.ErrInvalidCredentials) {
			return userError{err: err}
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "ok %d %s\n", u.ID, u.DisplayName)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringVar(&flagUserEmail, "email", "", "email address")
	userAddCmd.Flags().StringVar(&flagUserRole, "role", "", "role stored in wp_capabilities (default author)")
	userAddCmd.Flags().StringVar(&flagUserName, "name", "", "display name (default: the login)")
	for _, c := range []*cobra.Command{userAddCmd, userCheckCmd} {
		c.Flags().StringVar(&flagUserPassword, "password", "", "account password")
		_ = c.MarkFlagRequired("password")
	}

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userCheckCmd)
}
