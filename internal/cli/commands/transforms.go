package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

// NewTransformsCommand creates the transforms command.
func NewTransformsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "transforms",
		Short: "List the available cell transformations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tLABEL\tDESCRIPTION")
			for _, t := range core.Transformations() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Kind, t.Label, t.Description)
			}
			return tw.Flush()
		},
	}
}
