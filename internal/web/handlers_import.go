package web

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/generator"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

// cellOverride replaces one source cell before transforms run.
type cellOverride struct {
	Row    int            `json:"row" validate:"gte=0"`
	Column int            `json:"column" validate:"gte=0"`
	Value  core.CellValue `json:"value"`
}

// importRequest is the body shared by automap, validate, generate-sql and
// apply. The table is looked up in the catalog unless fields are given
// inline. Automap only needs the table and headers.
type importRequest struct {
	Table           string                        `json:"table" validate:"notblank,max=255"`
	Fields          []core.FieldDescriptor        `json:"fields,omitempty"`
	Headers         []string                      `json:"headers" validate:"required,min=1"`
	Rows            [][]core.CellValue            `json:"rows" validate:"required,min=1"`
	Mapping         core.ColumnMapping            `json:"mapping,omitempty" validate:"required,min=1"`
	Transformations core.TransformationAssignment `json:"transformations,omitempty"`
	Overrides       []cellOverride                `json:"overrides,omitempty" validate:"dive"`
	Dialect         string                        `json:"dialect,omitempty"`
	BatchSize       *int                          `json:"batchSize,omitempty" validate:"omitempty,gte=0"`
}

func (s *Server) schemaFor(req *importRequest) (*core.TableSchema, error) {
	if len(req.Fields) > 0 {
		return core.NewTableSchema(req.Table, req.Fields)
	}
	return s.catalog.Get(req.Table)
}

// pipelineInput validates an import request for a full run.
func (s *Server) pipelineInput(req *importRequest) (core.PipelineInput, error) {
	if err := validateRequest(req); err != nil {
		return core.PipelineInput{}, err
	}
	schema, err := s.schemaFor(req)
	if err != nil {
		return core.PipelineInput{}, err
	}

	var overrides core.Overrides
	if len(req.Overrides) > 0 {
		overrides = make(core.Overrides, len(req.Overrides))
		for _, o := range req.Overrides {
			overrides[core.CellKey{Row: o.Row, Column: o.Column}] = o.Value
		}
	}

	return core.PipelineInput{
		Schema:     schema,
		Dataset:    core.Dataset{Headers: req.Headers, Rows: req.Rows},
		Mapping:    req.Mapping,
		Transforms: req.Transformations,
		Overrides:  overrides,
	}, nil
}

// run decodes the body and runs the pipeline under the import timeout.
func (s *Server) run(w http.ResponseWriter, r *http.Request) (*importRequest, *core.PipelineResult, error) {
	var req importRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		return nil, nil, err
	}
	in, err := s.pipelineInput(&req)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()
	res, err := s.pipeline.Run(ctx, in)
	if err != nil {
		return nil, nil, err
	}
	return &req, res, nil
}

func (s *Server) handleAutoMap(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateRequest(&req, "Table", "Headers"); err != nil {
		respondError(w, r, err)
		return
	}
	schema, err := s.schemaFor(&req)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var data *core.Dataset
	if len(req.Rows) > 0 {
		data = &core.Dataset{Headers: req.Headers, Rows: req.Rows}
	}
	res := core.AutoMap(req.Headers, schema, data)

	logging.FromContext(r.Context()).Info("auto-mapped columns",
		"table", schema.Name,
		"mapped", res.Stats.Mapped,
		"skipped", res.Stats.Skipped,
		"conflicts", len(res.Conflicts),
	)
	writeJSON(w, http.StatusOK, res)
}

type validateResponse struct {
	core.ValidationResult
	Valid        bool                   `json:"valid"`
	RowErrors    []core.RowError        `json:"rowErrors"`
	CellWarnings []core.CellWarning     `json:"cellWarnings,omitempty"`
	Conflicts    []core.MappingConflict `json:"conflicts,omitempty"`
}

// handleValidate runs the pipeline and reports findings without
// generating SQL. A rejected dataset is still a 200 here.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	_, res, err := s.run(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, validateResponse{
		ValidationResult: res.Validation,
		Valid:            res.Err() == nil,
		RowErrors:        res.RowErrors,
		CellWarnings:     res.CellWarnings,
		Conflicts:        res.Conflicts,
	})
}

// handleGenerateSQL returns INSERT statements as text/plain, or as a
// gzip/zstd download when ?compress= (or the legacy ?gzip=1) is given.
// Rejected datasets get 422 with the problem list.
func (s *Server) handleGenerateSQL(w http.ResponseWriter, r *http.Request) {
	compression, err := compressionParam(r)
	if err != nil {
		respondError(w, r, err)
		return
	}

	req, res, err := s.run(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.Err() != nil {
		respondRejected(w, r, res)
		return
	}

	dialect := s.cfg.Dialect()
	if req.Dialect != "" {
		if dialect, err = core.ParseDialect(req.Dialect); err != nil {
			respondError(w, r, err)
			return
		}
	}
	opts := generator.Options{Dialect: dialect, BatchSize: s.cfg.Import.BatchSize}
	if req.BatchSize != nil {
		opts.BatchSize = *req.BatchSize
	}

	stmt := generator.FromResult(res)
	w.Header().Set("Content-Type", compression.ContentType())
	w.Header().Set("X-Import-Run-Id", res.RunID)
	if compression != generator.CompressionNone {
		w.Header().Set("Content-Disposition",
			`attachment; filename="`+downloadName(res.Table)+compression.Extension()+`"`)
	}
	w.WriteHeader(http.StatusOK)
	if err := stmt.WriteCompressed(w, opts, compression); err != nil {
		logging.FromContext(r.Context()).Error("write sql", "run_id", res.RunID, "error", err)
	}
}

// downloadName keeps letters, digits, '-' and '_' of a table name.
func downloadName(table string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return -1
	}, table)
	if name == "" {
		return "import"
	}
	return name
}

func compressionParam(r *http.Request) (generator.Compression, error) {
	q := r.URL.Query()
	if c := q.Get("compress"); c != "" {
		return generator.ParseCompression(c)
	}
	if on, _ := strconv.ParseBool(q.Get("gzip")); on {
		return generator.CompressionGzip, nil
	}
	return generator.CompressionNone, nil
}

type applyResponse struct {
	RunID    string `json:"runId"`
	Table    string `json:"table"`
	Inserted int64  `json:"inserted"`
}

// handleApply copies the rows into the configured database. Only clean
// datasets are applied.
func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	if s.loader == nil {
		respondError(w, r, errDatabaseNotConfigured)
		return
	}
	_, res, err := s.run(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.Err() != nil {
		respondRejected(w, r, res)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Import.Timeout)
	defer cancel()
	n, err := s.loader.Load(ctx, res)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, applyResponse{RunID: res.RunID, Table: res.Table, Inserted: n})
}
