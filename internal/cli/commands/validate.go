package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

type validateOptions struct {
	Input    inputOptions
	JSON     bool
	Warnings bool
}

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	opts := &validateOptions{}
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a dataset against its table without writing SQL",
		Long: `Run the import pipeline (transform, validate, sanitize) over every row and
report the result. Exits non-zero when any cell fails validation or a row
cannot be rendered.`,
		Example: `  sqlimport validate -j job.yaml -d contacts.csv
  sqlimport validate -j job.yaml -d contacts.csv --warnings
  sqlimport validate -j job.yaml -d contacts.csv --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, opts)
		},
	}
	opts.Input.addFlags(cmd)
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVar(&opts.Warnings, "warnings", false, "Also list warning findings")
	return cmd
}

func runValidate(cmd *cobra.Command, opts *validateOptions) error {
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	src, err := opts.Input.load()
	if err != nil {
		return err
	}
	res, err := src.run(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.JSON {
		if err := encode(out, "json", res); err != nil {
			return err
		}
		return res.Err()
	}

	tw := tabwriter.NewWriter(out, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "table:\t%s\n", res.Table)
	fmt.Fprintf(tw, "rows:\t%d\n", len(src.dataset.Rows))
	fmt.Fprintf(tw, "emitted:\t%d\n", len(res.Rows))
	fmt.Fprintf(tw, "valid rows:\t%d\n", res.Validation.ValidRowCount)
	fmt.Fprintf(tw, "errors:\t%d\n", res.Validation.ErrorCount)
	fmt.Fprintf(tw, "warnings:\t%d\n", res.Validation.WarningCount)
	if err := tw.Flush(); err != nil {
		return err
	}

	if opts.Warnings {
		for _, f := range res.Validation.Validations {
			if f.Severity == core.SeverityWarning {
				fmt.Fprintf(out, "warning: row %d, field %s: %s\n", f.RowIndex, f.FieldName, f.Message)
			}
		}
	}
	for _, c := range res.Conflicts {
		fmt.Fprintf(out, "warning: field %s is mapped from %d columns\n", c.Field, len(c.Headers))
	}
	return reportRejected(out, res)
}
