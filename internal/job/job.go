// Package job reads import job descriptions and datasets from disk.
//
// A job file is YAML (or JSON, which YAML accepts) naming the target table,
// either inline or as DDL, plus the column mapping and per-field
// transformations:
//
//	dialect: postgresql
//	table:
//	  name: contacts
//	  fields:
//	    - {name: name, type: varchar(50)}
//	    - {name: email, type: varchar(100), nullable: true}
//	mapping:
//	  Full Name: name
//	  E-mail: email
//	transformations:
//	  email: formatEmail
package job

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/ddl"
)

var (
	// ErrNoTable is returned when a job has neither an inline table nor DDL.
	ErrNoTable = errors.New("job defines no table")
	// ErrAmbiguousTable is returned when a job has both an inline table and DDL.
	ErrAmbiguousTable = errors.New("job defines both table and ddl")
)

// Table is an inline schema.
type Table struct {
	Name   string                 `yaml:"name" json:"name"`
	Fields []core.FieldDescriptor `yaml:"fields" json:"fields"`
}

// Job describes one import.
type Job struct {
	Table *Table `yaml:"table,omitempty" json:"table,omitempty"`
	// DDL holds CREATE TABLE statements. DDLFile is read relative to the
	// job file when DDL is empty.
	DDL     string `yaml:"ddl,omitempty" json:"ddl,omitempty"`
	DDLFile string `yaml:"ddl_file,omitempty" json:"ddlFile,omitempty"`
	// TableName selects one table when the DDL defines several.
	TableName string `yaml:"table_name,omitempty" json:"tableName,omitempty"`

	Dialect         string            `yaml:"dialect,omitempty" json:"dialect,omitempty"`
	Mapping         map[string]string `yaml:"mapping,omitempty" json:"mapping,omitempty"`
	Transformations map[string]string `yaml:"transformations,omitempty" json:"transformations,omitempty"`
	Strict          bool              `yaml:"strict,omitempty" json:"strict,omitempty"`
	BatchSize       int               `yaml:"batch_size,omitempty" json:"batchSize,omitempty"`

	dir string
}

// Load reads a job file. Unknown keys are rejected.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	j, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	j.dir = filepath.Dir(path)
	return j, nil
}

// Decode reads a job document from r.
func Decode(r io.Reader) (*Job, error) {
	var j Job
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&j); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoTable
		}
		return nil, err
	}
	return &j, nil
}

// Schema resolves the target table.
func (j *Job) Schema() (*core.TableSchema, error) {
	hasDDL := j.DDL != "" || j.DDLFile != ""
	switch {
	case j.Table != nil && hasDDL:
		return nil, ErrAmbiguousTable
	case j.Table != nil:
		return core.NewTableSchema(j.Table.Name, j.Table.Fields)
	case !hasDDL:
		return nil, ErrNoTable
	}

	src := j.DDL
	if src == "" {
		path := j.DDLFile
		if !filepath.IsAbs(path) && j.dir != "" {
			path = filepath.Join(j.dir, path)
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read ddl: %w", err)
		}
		src = string(b)
	}

	tables, err := ddl.Parse(src)
	if err != nil {
		return nil, err
	}
	if j.TableName == "" {
		return tables[0], nil
	}
	for _, t := range tables {
		if strings.EqualFold(t.Name, j.TableName) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, j.TableName)
}

// ParsedDialect returns the job's dialect, or def when unset.
func (j *Job) ParsedDialect(def core.Dialect) (core.Dialect, error) {
	if j.Dialect == "" {
		return def, nil
	}
	return core.ParseDialect(j.Dialect)
}

// ColumnMapping returns the mapping as a core type. A nil mapping means
// the caller should auto-map.
func (j *Job) ColumnMapping() core.ColumnMapping {
	if j.Mapping == nil {
		return nil
	}
	return core.ColumnMapping(j.Mapping)
}

// Transforms validates and converts the transformation names.
func (j *Job) Transforms() (core.TransformationAssignment, error) {
	out := make(core.TransformationAssignment, len(j.Transformations))
	for field, name := range j.Transformations {
		kind, err := core.ParseTransformationKind(name)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		out[field] = kind
	}
	return out, nil
}
