package core

// pipeline.go runs override -> transform -> validate -> sanitize over every
// row of a dataset.
//
// Rows are independent, so they are processed in chunks by a bounded pool
// of workers. Each chunk produces a partial result that is folded back in
// chunk order, which keeps output rows and findings in row order and makes
// the aggregate counts independent of scheduling. Cancellation is checked
// between rows.

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/sqlimport/internal/logging"
)

var (
	// ErrMappingConflict is returned in strict mode when several headers map
	// to one field.
	ErrMappingConflict = errors.New("mapping conflict")
	// ErrDatasetRejected is returned by PipelineResult.Err when any row
	// failed validation or sanitization.
	ErrDatasetRejected = errors.New("dataset rejected")
	// ErrRowLimit is returned when a dataset has more rows than allowed.
	ErrRowLimit = errors.New("dataset exceeds row limit")
	// ErrNoMappedColumns is returned when no header maps to a schema field.
	ErrNoMappedColumns = errors.New("no mapped columns")
)

const pipelineChunkSize = 256

// PipelineOptions tunes a run.
type PipelineOptions struct {
	// Workers bounds row-level parallelism. Zero means GOMAXPROCS.
	Workers int
	// MaxRows rejects larger datasets up front. Zero means no limit.
	MaxRows int
	// Strict turns transform failures and mapping conflicts into errors
	// instead of falling back to the untransformed value.
	Strict bool
	// KeepUnsafeRows emits rows with unrenderable cells as NULL instead of
	// excluding them. The cell warning is still recorded.
	KeepUnsafeRows bool
}

// PipelineInput is everything a run reads. It is not modified.
type PipelineInput struct {
	Schema     *TableSchema
	Dataset    Dataset
	Mapping    ColumnMapping
	Transforms TransformationAssignment
	Overrides  Overrides
}

// OutputRow is one emitted row, restricted to mapped columns.
type OutputRow struct {
	Index  int         `json:"index"`
	Values []string    `json:"values"`
	Cells  []CellValue `json:"cells"`
}

// CellWarning is a sanitizer warning for a cell that was emitted as NULL.
type CellWarning struct {
	Row     int    `json:"row"`
	Column  int    `json:"column"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// RowError records why a row was excluded.
type RowError struct {
	Row     int       `json:"row"`
	Column  int       `json:"column"`
	Field   string    `json:"field"`
	Value   CellValue `json:"value"`
	Message string    `json:"message"`
	Code    string    `json:"code"`

	Err error `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, field %s: %s", e.Row, e.Field, e.Message)
}

func (e RowError) Unwrap() error { return e.Err }

// PipelineResult is the output of a run.
type PipelineResult struct {
	RunID        string            `json:"runId"`
	Table        string            `json:"table"`
	Columns      []MappedColumn    `json:"columns"`
	Rows         []OutputRow       `json:"rows"`
	Validation   ValidationResult  `json:"validation"`
	RowErrors    []RowError        `json:"rowErrors"`
	CellWarnings []CellWarning     `json:"cellWarnings,omitempty"`
	Conflicts    []MappingConflict `json:"conflicts,omitempty"`
}

// FieldNames lists the target fields in output column order.
func (r *PipelineResult) FieldNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Field.Name
	}
	return names
}

// Err returns ErrDatasetRejected when any row had an error finding or was
// excluded, and nil otherwise.
func (r *PipelineResult) Err() error {
	if r.Validation.ErrorCount == 0 && len(r.RowErrors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d validation errors, %d rows excluded",
		ErrDatasetRejected, r.Validation.ErrorCount, len(r.RowErrors))
}

// Problems lists error findings and excluded rows, one line per cell, in
// row then column order. A cell that both failed validation and excluded
// its row is listed once.
func (r *PipelineResult) Problems() []string {
	type cell struct{ row, col int }
	type line struct {
		cell
		text string
	}
	seen := make(map[cell]bool)
	var lines []line
	for _, f := range r.Validation.Validations {
		if f.Severity != SeverityError {
			continue
		}
		c := cell{f.RowIndex, f.ColumnIndex}
		seen[c] = true
		lines = append(lines, line{c, fmt.Sprintf("row %d, field %s: %s", f.RowIndex, f.FieldName, f.Message)})
	}
	for _, e := range r.RowErrors {
		c := cell{e.Row, e.Column}
		if seen[c] {
			continue
		}
		lines = append(lines, line{c, e.Error()})
	}

	slices.SortStableFunc(lines, func(a, b line) int {
		if a.row != b.row {
			return cmp.Compare(a.row, b.row)
		}
		return cmp.Compare(a.col, b.col)
	})
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.text
	}
	return out
}

// Pipeline runs imports with fixed options. A nil limiter means runs are
// not bounded.
type Pipeline struct {
	opts    PipelineOptions
	limiter *ImportLimiter
}

// NewPipeline returns a pipeline with opts. Workers defaults to GOMAXPROCS;
// a nil limiter leaves runs unbounded.
func NewPipeline(opts PipelineOptions, limiter *ImportLimiter) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	return &Pipeline{opts: opts, limiter: limiter}
}

// Options returns the effective options.
func (p *Pipeline) Options() PipelineOptions { return p.opts }

// Run processes the whole dataset. Errors are reserved for problems with
// the input itself (bad schema, unknown transform, cancellation); per-row
// problems are reported in the result.
func (p *Pipeline) Run(ctx context.Context, in PipelineInput) (*PipelineResult, error) {
	if p.limiter != nil {
		if err := p.limiter.Acquire(ctx); err != nil {
			return nil, err
		}
		defer p.limiter.Release()
	}
	return runPipeline(ctx, in, p.opts)
}

// RunPipeline is a one-shot run without a limiter.
func RunPipeline(ctx context.Context, in PipelineInput, opts PipelineOptions) (*PipelineResult, error) {
	return NewPipeline(opts, nil).Run(ctx, in)
}

// firstPerField keeps the first column, in header order, for each field.
func firstPerField(cols []MappedColumn) []MappedColumn {
	seen := make(map[string]bool, len(cols))
	out := cols[:0:0]
	for _, c := range cols {
		if seen[c.Field.Name] {
			continue
		}
		seen[c.Field.Name] = true
		out = append(out, c)
	}
	return out
}

// plan is the per-run state shared read-only by workers.
type plan struct {
	cols       []MappedColumn
	kinds      []TransformationKind
	types      []TypeInfo
	overrides  Overrides
	strict     bool
	keepUnsafe bool
}

type partial struct {
	validation ValidationResult
	rows       []OutputRow
	rowErrors  []RowError
	warnings   []CellWarning
}

func runPipeline(ctx context.Context, in PipelineInput, opts PipelineOptions) (*PipelineResult, error) {
	if in.Schema == nil {
		return nil, ErrEmptySchema
	}
	rows := in.Dataset.Rows
	if opts.MaxRows > 0 && len(rows) > opts.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrRowLimit, len(rows), opts.MaxRows)
	}

	cols := in.Schema.ResolveMapping(in.Dataset.Headers, in.Mapping)
	if len(cols) == 0 {
		return nil, ErrNoMappedColumns
	}
	conflicts := FindConflicts(in.Dataset.Headers, in.Mapping)
	if opts.Strict && len(conflicts) > 0 {
		return nil, fmt.Errorf("%w: field %s", ErrMappingConflict, conflicts[0].Field)
	}
	if len(conflicts) > 0 {
		cols = firstPerField(cols)
	}

	pl := plan{
		cols:       cols,
		kinds:      make([]TransformationKind, len(cols)),
		types:      make([]TypeInfo, len(cols)),
		overrides:  in.Overrides,
		strict:     opts.Strict,
		keepUnsafe: opts.KeepUnsafeRows,
	}
	for i, c := range cols {
		kind, err := ParseTransformationKind(string(in.Transforms[c.Field.Name]))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", c.Field.Name, err)
		}
		pl.kinds[i] = kind
		pl.types[i] = c.Field.Type()
	}

	res := &PipelineResult{
		RunID:     uuid.NewString(),
		Table:     in.Schema.Name,
		Columns:   cols,
		Rows:      make([]OutputRow, 0, len(rows)),
		Conflicts: conflicts,
		Validation: ValidationResult{
			Validations: []ValidationFinding{},
		},
		RowErrors: []RowError{},
	}

	log := logging.WithFields(ctx, "run_id", res.RunID, "table", res.Table)
	start := time.Now()
	log.Info("import run started", "rows", len(rows), "columns", len(cols), "workers", opts.Workers)

	nChunks := (len(rows) + pipelineChunkSize - 1) / pipelineChunkSize
	parts := make([]partial, nChunks)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Workers, 1))
	for ci := 0; ci < nChunks; ci++ {
		ci := ci
		lo := ci * pipelineChunkSize
		hi := min(lo+pipelineChunkSize, len(rows))
		g.Go(func() error {
			return pl.processChunk(gctx, rows, lo, hi, &parts[ci])
		})
	}
	if err := g.Wait(); err != nil {
		log.Warn("import run aborted", "error", err)
		return nil, err
	}

	for i := range parts {
		res.Validation.merge(parts[i].validation)
		res.Rows = append(res.Rows, parts[i].rows...)
		res.RowErrors = append(res.RowErrors, parts[i].rowErrors...)
		res.CellWarnings = append(res.CellWarnings, parts[i].warnings...)
	}

	log.Info("import run finished",
		"emitted", len(res.Rows),
		"excluded", len(res.RowErrors),
		"errors", res.Validation.ErrorCount,
		"warnings", res.Validation.WarningCount,
		"valid_rows", res.Validation.ValidRowCount,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (pl *plan) processChunk(ctx context.Context, rows [][]CellValue, lo, hi int, out *partial) error {
	log := logging.FromContext(ctx)
	for r := lo; r < hi; r++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		row, rowErr := pl.processRow(r, rows[r], out)
		if rowErr != nil {
			log.Debug("row excluded", "row", r, "field", rowErr.Field, "code", rowErr.Code)
			out.rowErrors = append(out.rowErrors, *rowErr)
			continue
		}
		out.rows = append(out.rows, row)
	}
	return nil
}

// processRow runs one row. Validation findings are always recorded; a
// returned RowError means the row is not emitted.
func (pl *plan) processRow(r int, src []CellValue, out *partial) (OutputRow, *RowError) {
	row := OutputRow{
		Index:  r,
		Values: make([]string, len(pl.cols)),
		Cells:  make([]CellValue, len(pl.cols)),
	}
	var (
		firstErr    *RowError
		rowHasError bool
	)
	fail := func(c MappedColumn, v CellValue, err error) {
		if firstErr == nil {
			firstErr = &RowError{
				Row:     r,
				Column:  c.Index,
				Field:   c.Field.Name,
				Value:   v,
				Message: err.Error(),
				Code:    MapError(err).Code,
				Err:     err,
			}
		}
	}

	for i, c := range pl.cols {
		var v CellValue
		if c.Index < len(src) {
			v = src[c.Index]
		}
		if ov, ok := pl.overrides[CellKey{Row: r, Column: c.Index}]; ok {
			v = ov
		}

		if pl.strict {
			tv, err := ApplyTransformation(v, pl.kinds[i])
			if err != nil {
				fail(c, v, err)
			}
			v = tv
		} else {
			v = ApplyTransformationLenient(v, pl.kinds[i])
		}
		row.Cells[i] = v

		if out.validation.record(ValidateCell(v, c.Field, r, c.Index)) {
			rowHasError = true
		}

		lit, err := SanitizeChecked(v, pl.types[i])
		if err == nil {
			row.Values[i] = lit
			continue
		}
		row.Values[i] = NullLiteral
		if pl.keepUnsafe {
			row.Cells[i] = Null()
			out.warnings = append(out.warnings, CellWarning{
				Row:     r,
				Column:  c.Index,
				Field:   c.Field.Name,
				Message: sanitizeWarning(err),
			})
			continue
		}
		fail(c, v, err)
	}

	if !rowHasError {
		out.validation.ValidRowCount++
	}
	if firstErr != nil {
		return OutputRow{}, firstErr
	}
	return row, nil
}
