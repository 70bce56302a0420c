// Meta commands for the lapress CLI.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lapress/internal/store"
	"github.com/mesh-intelligence/lapress/pkg/meta"
	"github.com/mesh-intelligence/lapress/pkg/types"
)

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Read and append meta rows of posts, terms and users",
}

var metaGetCmd = &cobra.Command{
	Use:   "get <post|term|user> <id> [key]",
	Short: "Print the merged meta of an entity, or one key",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseOwnerKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}

		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		owner, err := loadOwner(cmd.Context(), site.Store(), kind, id)
		if err != nil {
			return err
		}
		c, err := owner.Meta(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(args) == 3 {
			key := args[2]
			if !c.Has(key) {
				return userErrorf("%s %d has no meta %q", kind, id, key)
			}
			if flagJSON {
				return writeJSON(out, c.Get(key))
			}
			for _, s := range c.Strings(key) {
				fmt.Fprintln(out, s)
			}
			return nil
		}

		if flagJSON {
			return writeJSON(out, c.All())
		}
		for _, key := range c.Keys() {
			fmt.Fprintf(out, "%s=%s\n", key, c.Get(key).Join(","))
		}
		return nil
	},
}

var metaSetCmd = &cobra.Command{
	Use:   "set <post|term|user> <id> <key> <value> [value...]",
	Short: "Append a meta row; several values are stored as a list",
	Args:  cobra.MinimumNArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseOwnerKind(args[0])
		if err != nil {
			return err
		}
		id, err := parseID(args[1])
		if err != nil {
			return err
		}
		key := args[2]
		var value any = args[3]
		if len(args) > 4 {
			value = args[3:]
		}

		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		owner, err := loadOwner(cmd.Context(), site.Store(), kind, id)
		if err != nil {
			return err
		}
		if err := owner.SetMeta(cmd.Context(), key, value); err != nil {
			if errors.Is(err, meta.ErrEmptyKey) {
				return userError{err: err}
			}
			return err
		}
		return nil
	},
}

var metaFindCmd = &cobra.Command{
	Use:   "find <post|term|user> <key> <value>",
	Short: "List the ids of entities holding a meta row",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseOwnerKind(args[0])
		if err != nil {
			return err
		}

		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		ids, err := site.Store().FindOwnersByMeta(cmd.Context(), kind, args[1], args[2])
		if err != nil {
			return err
		}
		if flagJSON {
			if ids == nil {
				ids = []int64{}
			}
			return writeJSON(cmd.OutOrStdout(), ids)
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	metaCmd.AddCommand(metaGetCmd)
	metaCmd.AddCommand(metaSetCmd)
	metaCmd.AddCommand(metaFindCmd)
}

func parseOwnerKind(s string) (meta.OwnerKind, error) {
	switch k := meta.OwnerKind(s); k {
	case meta.PostMeta, meta.TermMeta, meta.UserMeta:
		return k, nil
	}
	return "", userErrorf("unknown entity kind %q (want post, term or user)", s)
}

// loadOwner fetches the entity so that its meta capability is bound.
func loadOwner(ctx context.Context, b *store.Backend, kind meta.OwnerKind, id int64) (meta.HasMeta, error) {
	switch kind {
	case meta.PostMeta:
		return b.GetPost(ctx, id)
	case meta.TermMeta:
		return b.GetTerm(ctx, id)
	case meta.UserMeta:
		return b.GetUser(ctx, id)
	}
	return nil, fmt.Errorf("%w: owner kind %q", types.ErrInvalidData, kind)
}
