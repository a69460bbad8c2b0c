// Package cli provides the sqlimport command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/JonMunkholm/sqlimport/internal/cli/commands"
	"github.com/JonMunkholm/sqlimport/internal/config"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

// Version is set at build time.
var Version = "dev"

// NewRootCmd creates the root command and its subcommands.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sqlimport",
		Short: "Map spreadsheet data onto SQL tables",
		Long: `sqlimport maps the columns of a CSV or JSON dataset onto a table schema,
transforms and validates every cell, and writes INSERT statements or copies
the rows into PostgreSQL.

Defaults come from the same environment variables as the server
(IMPORT_DIALECT, IMPORT_BATCH_SIZE, IMPORT_MAX_ROWS, DATABASE_URL, ...).
Flags override them.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := applyLoggingFlags(&cfg.Logging, cmd.Flags()); err != nil {
				return err
			}
			// Logs go to stderr so stdout stays usable for SQL.
			logging.SetupWriter(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Format)
			cmd.SetContext(commands.WithConfig(cmd.Context(), cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text, json")

	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewAutoMapCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewApplyCommand())
	rootCmd.AddCommand(commands.NewTransformsCommand())

	return rootCmd
}

// applyLoggingFlags overrides the environment's logging settings with
// flags the user set explicitly.
func applyLoggingFlags(cfg *config.LoggingConfig, flags *pflag.FlagSet) error {
	for name, dst := range map[string]*string{
		"log-level":  &cfg.Level,
		"log-format": &cfg.Format,
	} {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}
	return nil
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
