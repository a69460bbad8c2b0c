package commands

import (
	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlimport/internal/ddl"
	"github.com/JonMunkholm/sqlimport/internal/job"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "schema <ddl-file>...",
		Short: "Parse CREATE TABLE statements",
		Long: `Parse the CREATE TABLE statements in one or more DDL files and print
each table's fields. The YAML output can be pasted into the table section
of a job file.`,
		Example: `  # Show the tables of a MySQL dump
  sqlimport schema dump.sql

  # As JSON
  sqlimport schema -f json schema.sql`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := ddl.ParseFiles(args...)
			if err != nil {
				return err
			}
			out := make([]job.Table, len(tables))
			for i, t := range tables {
				out[i] = job.Table{Name: t.Name, Fields: t.Fields}
			}
			return encode(cmd.OutOrStdout(), format, out)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format: yaml, json")
	return cmd
}
