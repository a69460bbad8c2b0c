// Package generator assembles INSERT statements from sanitized rows.
//
// Values are expected to be SQL literals already (see core.SanitizeValue);
// the generator only quotes identifiers and lays out the statement text.
package generator

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

// ErrUnknownCompression is returned for a compression name other than
// none, gzip or zstd.
var ErrUnknownCompression = errors.New("unknown compression")

// Options controls statement layout.
type Options struct {
	Dialect core.Dialect
	// BatchSize is the number of rows per INSERT statement. Zero or less
	// puts every row in one statement.
	BatchSize int
}

// Statement is a table, its column list, and rendered value rows.
type Statement struct {
	Table   string
	Columns []string
	Rows    [][]string
}

// FromResult builds a statement from a pipeline run. Only emitted rows are
// included; excluded rows are reported by the run itself.
func FromResult(res *core.PipelineResult) Statement {
	rows := make([][]string, len(res.Rows))
	for i, r := range res.Rows {
		rows[i] = r.Values
	}
	return Statement{
		Table:   res.Table,
		Columns: res.FieldNames(),
		Rows:    rows,
	}
}

// Empty reports whether there is nothing to insert.
func (s Statement) Empty() bool {
	return len(s.Rows) == 0 || len(s.Columns) == 0
}

// Batches returns how many INSERT statements WriteTo would produce.
func (s Statement) Batches(opts Options) int {
	if s.Empty() {
		return 0
	}
	if opts.BatchSize <= 0 {
		return 1
	}
	return (len(s.Rows) + opts.BatchSize - 1) / opts.BatchSize
}

// SQL renders the statement text. An empty statement renders as "".
func (s Statement) SQL(opts Options) string {
	var b strings.Builder
	_ = s.Write(&b, opts)
	return b.String()
}

// Write streams the statement text to w. Batches are separated by a
// blank line and each ends with a semicolon.
func (s Statement) Write(w io.Writer, opts Options) error {
	if s.Empty() {
		return nil
	}

	bw := bufio.NewWriter(w)
	header := s.header(opts.Dialect)
	size := opts.BatchSize
	if size <= 0 {
		size = len(s.Rows)
	}

	for start := 0; start < len(s.Rows); start += size {
		end := min(start+size, len(s.Rows))
		if start > 0 {
			bw.WriteString("\n\n")
		}
		bw.WriteString(header)
		for i := start; i < end; i++ {
			row := s.Rows[i]
			if len(row) != len(s.Columns) {
				return fmt.Errorf("row %d has %d values for %d columns", i, len(row), len(s.Columns))
			}
			if i > start {
				bw.WriteString(",\n")
			}
			bw.WriteByte('(')
			bw.WriteString(strings.Join(row, ", "))
			bw.WriteByte(')')
		}
		bw.WriteByte(';')
	}
	return bw.Flush()
}

func (s Statement) header(d core.Dialect) string {
	cols := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		cols[i] = core.SanitizeIdentifier(c, d)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES\n",
		core.SanitizeIdentifier(s.Table, d), strings.Join(cols, ", "))
}

// Compression selects the download encoding.
type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = "gzip"
	CompressionZstd Compression = "zstd"
)

// ParseCompression accepts "", "none", "gzip", "gz" and "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return CompressionNone, nil
	case "gzip", "gz":
		return CompressionGzip, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCompression, s)
}

// ContentType is the HTTP media type for the encoding.
func (c Compression) ContentType() string {
	switch c {
	case CompressionGzip:
		return "application/gzip"
	case CompressionZstd:
		return "application/zstd"
	}
	return "text/plain; charset=utf-8"
}

// Extension is the file suffix for a download, including the dot.
func (c Compression) Extension() string {
	switch c {
	case CompressionGzip:
		return ".sql.gz"
	case CompressionZstd:
		return ".sql.zst"
	}
	return ".sql"
}

// WriteCompressed writes the statement through the selected encoder.
func (s Statement) WriteCompressed(w io.Writer, opts Options, c Compression) error {
	switch c {
	case CompressionNone:
		return s.Write(w, opts)
	case CompressionGzip:
		return WriteGzip(w, s, opts)
	case CompressionZstd:
		return WriteZstd(w, s, opts)
	}
	return fmt.Errorf("%w: %q", ErrUnknownCompression, c)
}

// WriteGzip writes a gzip stream containing the statement text.
func WriteGzip(w io.Writer, s Statement, opts Options) error {
	zw, err := gzip.NewWriterLevel(w, gzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("gzip writer: %w", err)
	}
	zw.Name = s.Table + ".sql"
	if err := s.Write(zw, opts); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// WriteZstd writes a zstd stream containing the statement text.
func WriteZstd(w io.Writer, s Statement, opts Options) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	if err := s.Write(zw, opts); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}
