package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlimport/internal/loader"
)

var errNoDatabase = errors.New("database not configured: set DATABASE_URL")

type applyOptions struct {
	Input  inputOptions
	Schema string
}

// NewApplyCommand creates the apply command.
func NewApplyCommand() *cobra.Command {
	opts := &applyOptions{}
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Copy a dataset into a PostgreSQL table",
		Long: `Run the import pipeline and copy the rows into the table in a single
transaction. Nothing is written when any row is rejected.

The connection comes from DATABASE_URL.`,
		Example: `  DATABASE_URL=postgres://localhost/app sqlimport apply -j job.yaml -d contacts.csv
  sqlimport apply -j job.yaml -d contacts.csv --schema staging`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runApply(cmd, opts)
		},
	}
	opts.Input.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Schema, "schema", "", "Postgres schema of the target table (default: DB_SCHEMA)")
	return cmd
}

func runApply(cmd *cobra.Command, opts *applyOptions) error {
	ctx := cmd.Context()
	cfg, err := configFrom(ctx)
	if err != nil {
		return err
	}
	if !cfg.Database.Enabled() {
		return errNoDatabase
	}
	src, err := opts.Input.load()
	if err != nil {
		return err
	}

	res, err := src.run(ctx, cfg)
	if err != nil {
		return err
	}
	if err := reportRejected(cmd.ErrOrStderr(), res); err != nil {
		return err
	}

	pool, err := loader.Connect(ctx, loader.PoolConfig{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	l := loader.New(pool)
	l.Schema = cfg.Database.Schema
	if opts.Schema != "" {
		l.Schema = opts.Schema
	}
	n, err := l.Load(ctx, res)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "inserted %d rows into %s\n", n, res.Table)
	return nil
}
