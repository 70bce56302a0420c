// Menu commands for the lapress CLI.
package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lapress/pkg/menu"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Show and edit navigation menus",
}

var menuShowCmd = &cobra.Command{
	Use:   "show [parent-id]",
	Short: "Print the menu tree, or the subtree below a menu item",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var parent int64
		if len(args) == 1 {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			parent = id
		}

		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		nodes, err := site.MenuChildren(cmd.Context(), parent)
		var se *menu.StructureError
		if errors.As(err, &se) {
			for _, issue := range se.Issues {
				fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning:"), issue)
			}
		} else if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), nodes)
		}
		if len(nodes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no menu items")
			return nil
		}
		printTree(cmd.OutOrStdout(), nodes, "")
		return nil
	},
}

var (
	flagMenuParent  int64
	flagMenuOrder   int
	flagMenuTarget  string
	flagMenuClasses string
)

var menuAddCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a custom link to the menu",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		item, err := site.AddCustomMenuItem(cmd.Context(), args[0], args[1], menu.CustomOptions{
			Target:  flagMenuTarget,
			Classes: strings.Fields(flagMenuClasses),
			Parent:  flagMenuParent,
			Order:   flagMenuOrder,
		})
		if errors.Is(err, menu.ErrEmptyName) {
			return userError{err: err}
		}
		if err != nil {
			return err
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), map[string]any{"id": item.ID, "name": item.Title})
		}
		fmt.Fprintln(cmd.OutOrStdout(), item.ID)
		return nil
	},
}

var menuResolveCmd = &cobra.Command{
	Use:   "resolve <item-id>",
	Short: "Show the entity a menu item points at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}

		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		e, err := site.ResolveMenuItem(cmd.Context(), id)
		if err != nil {
			return err
		}
		if e == nil {
			return userErrorf("menu item %d has no target", id)
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), e)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%T %d %q %s\n", e, e.EntityID(), e.Anchor(), e.URLPath())
		return nil
	},
}

func init() {
	menuAddCmd.Flags().Int64Var(&flagMenuParent, "parent", 0, "parent menu item id")
	menuAddCmd.Flags().IntVar(&flagMenuOrder, "order", 0, "menu_order among siblings")
	menuAddCmd.Flags().StringVar(&flagMenuTarget, "target", "", "link target, e.g. _blank")
	menuAddCmd.Flags().StringVar(&flagMenuClasses, "classes", "", "space separated CSS classes")

	menuCmd.AddCommand(menuShowCmd)
	menuCmd.AddCommand(menuAddCmd)
	menuCmd.AddCommand(menuResolveCmd)
}

// printTree renders nodes as an indented tree.
func printTree(w io.Writer, nodes []menu.Node, prefix string) {
	bold := color.New(color.Bold).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		url := color.CyanString(n.URL)
		if n.URL == "" {
			url = color.YellowString("(no target)")
		}
		fmt.Fprintf(w, "%s%s%s %s %s\n", prefix, branch, bold(n.Anchor), url, faint("#"+strconv.FormatInt(n.ID, 10)))
		printTree(w, n.Children, prefix+next)
	}
}

// parseID reads a positive entity id argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, userErrorf("invalid id %q", arg)
	}
	return id, nil
}
