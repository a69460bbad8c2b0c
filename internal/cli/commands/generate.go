package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/sqlimport/internal/config"
	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/generator"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

type generateOptions struct {
	Input     inputOptions
	Out       string
	Compress  string
	Dialect   string
	BatchSize int
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &generateOptions{}
	cmd := &cobra.Command{
		Use:     "generate",
		Aliases: []string{"gen"},
		Short:   "Write INSERT statements for a dataset",
		Long: `Run the import pipeline and write the INSERT statements to stdout or a
file. Nothing is written when any row is rejected; the problems are listed
on stderr instead.

The compression defaults to the output file's extension (.gz or .zst).`,
		Example: `  # MySQL statements to stdout
  sqlimport generate -j job.yaml -d contacts.csv

  # PostgreSQL, 500 rows per statement, gzip file
  sqlimport generate -j job.yaml -d contacts.csv --dialect postgresql --batch-size 500 -o contacts.sql.gz`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd, opts)
		},
	}
	opts.Input.addFlags(cmd)
	cmd.Flags().StringVarP(&opts.Out, "out", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.Compress, "compress", "", "Compression: none, gzip, zstd")
	cmd.Flags().StringVar(&opts.Dialect, "dialect", "", "Identifier quoting: mysql, postgresql")
	cmd.Flags().IntVar(&opts.BatchSize, "batch-size", 0, "Rows per INSERT statement; 0 for one statement")
	return cmd
}

func runGenerate(cmd *cobra.Command, opts *generateOptions) error {
	cfg, err := configFrom(cmd.Context())
	if err != nil {
		return err
	}
	compression, err := compressionFor(opts.Out, opts.Compress)
	if err != nil {
		return err
	}
	src, err := opts.Input.load()
	if err != nil {
		return err
	}
	genOpts, err := generatorOptions(cmd, cfg, src, opts)
	if err != nil {
		return err
	}

	res, err := src.run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	if err := reportRejected(cmd.ErrOrStderr(), res); err != nil {
		return err
	}

	stmt := generator.FromResult(res)
	if opts.Out == "" {
		w := cmd.OutOrStdout()
		if err := stmt.WriteCompressed(w, genOpts, compression); err != nil {
			return fmt.Errorf("write sql: %w", err)
		}
		if compression == generator.CompressionNone {
			fmt.Fprintln(w)
		}
	} else if err := writeFile(opts.Out, stmt, genOpts, compression); err != nil {
		return err
	}

	logging.FromContext(cmd.Context()).Info("sql written",
		"run_id", res.RunID,
		"table", res.Table,
		"rows", len(stmt.Rows),
		"statements", stmt.Batches(genOpts),
		"out", opts.Out,
	)
	return nil
}

func writeFile(path string, stmt generator.Statement, opts generator.Options, c generator.Compression) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := stmt.WriteCompressed(f, opts, c); err != nil {
		f.Close()
		return fmt.Errorf("write sql: %w", err)
	}
	return f.Close()
}

// generatorOptions resolves dialect and batch size: flag, then job, then
// configuration.
func generatorOptions(cmd *cobra.Command, cfg *config.Config, src *input, opts *generateOptions) (generator.Options, error) {
	dialect, err := src.job.ParsedDialect(cfg.Dialect())
	if err != nil {
		return generator.Options{}, err
	}
	if opts.Dialect != "" {
		if dialect, err = core.ParseDialect(opts.Dialect); err != nil {
			return generator.Options{}, err
		}
	}

	batch := cfg.Import.BatchSize
	if src.job.BatchSize > 0 {
		batch = src.job.BatchSize
	}
	if cmd.Flags().Changed("batch-size") {
		batch = opts.BatchSize
	}
	return generator.Options{Dialect: dialect, BatchSize: batch}, nil
}

func compressionFor(out, flag string) (generator.Compression, error) {
	if flag != "" {
		return generator.ParseCompression(flag)
	}
	switch {
	case strings.HasSuffix(out, ".gz"):
		return generator.CompressionGzip, nil
	case strings.HasSuffix(out, ".zst"):
		return generator.CompressionZstd, nil
	}
	return generator.CompressionNone, nil
}
