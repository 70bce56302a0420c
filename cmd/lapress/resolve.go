// Type registry command for the lapress CLI.
package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/lapress/pkg/resolver"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [name]",
	Short: "List the registered entity types, or show which one a name resolves to",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		site, closeSite, err := openSite(cmd.Context())
		if err != nil {
			return err
		}
		defer closeSite()

		reg := site.Registry()
		entries := reg.Entries()
		if len(args) == 1 {
			t, ok := reg.Resolve(args[0])
			if !ok {
				return userErrorf("type %q is not registered in %v", args[0], reg.Namespaces())
			}
			entries = []resolver.Type{t}
		}

		if flagJSON {
			return writeJSON(cmd.OutOrStdout(), typeRecords(entries))
		}
		return printTypes(cmd.OutOrStdout(), entries)
	},
}

// typeRecords flattens types for JSON; Find is reported as a flag.
func typeRecords(entries []resolver.Type) []map[string]any {
	out := make([]map[string]any, len(entries))
	for i, t := range entries {
		out[i] = map[string]any{
			"name":      t.Name,
			"namespace": t.Namespace,
			"kind":      t.Kind,
			"post_type": t.PostType,
			"taxonomy":  t.Taxonomy,
			"custom":    t.Find != nil,
		}
	}
	return out
}

func printTypes(w io.Writer, entries []resolver.Type) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAMESPACE\tNAME\tKIND\tFILTER")
	for _, t := range entries {
		filter := t.PostType
		if t.Kind == resolver.KindTaxonomy {
			filter = t.Taxonomy
		}
		if filter == "" {
			filter = "-"
		}
		if t.Find != nil {
			filter += " (custom find)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Namespace, t.Name, t.Kind, filter)
	}
	return tw.Flush()
}
