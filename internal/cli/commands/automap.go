package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

type autoMapOutput struct {
	Mapping         map[string]string `yaml:"mapping" json:"mapping"`
	Transformations map[string]string `yaml:"transformations,omitempty" json:"transformations,omitempty"`
}

// NewAutoMapCommand creates the automap command.
func NewAutoMapCommand() *cobra.Command {
	var (
		in     inputOptions
		format string
	)
	cmd := &cobra.Command{
		Use:   "automap",
		Short: "Suggest a column mapping for a dataset",
		Long: `Match each dataset header to the most similar table field and suggest a
transformation from a sample of the column's values. The output is the
mapping and transformations sections of a job file. Headers left unmapped
and fields claimed by several headers are reported on stderr.

Any mapping already in the job is ignored.`,
		Example: `  sqlimport automap --ddl schema.sql --table contacts --data contacts.csv
  sqlimport automap -j job.yaml -d export.json -f json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := in.load()
			if err != nil {
				return err
			}
			res := core.AutoMap(src.dataset.Headers, src.schema, &src.dataset)

			out := autoMapOutput{Mapping: res.Mapping, Transformations: map[string]string{}}
			for field, kind := range res.Transforms {
				if kind != core.TransformNone {
					out.Transformations[field] = string(kind)
				}
			}

			stderr := cmd.ErrOrStderr()
			for _, h := range src.dataset.Headers {
				if _, ok := res.Mapping[h]; !ok {
					fmt.Fprintf(stderr, "unmapped: %s\n", h)
				}
			}
			for _, c := range res.Conflicts {
				fmt.Fprintf(stderr, "conflict: field %s is claimed by %s\n", c.Field, strings.Join(c.Headers, ", "))
			}
			return encode(cmd.OutOrStdout(), format, out)
		},
	}
	in.addFlags(cmd)
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, json")
	return cmd
}
