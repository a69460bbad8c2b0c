package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptySchema is returned when a table has no name or no fields.
	ErrEmptySchema = errors.New("schema has no fields")
	// ErrDuplicateField is returned when two fields share a name.
	ErrDuplicateField = errors.New("duplicate field name")
)

// TableSchema is an ordered list of typed target fields.
type TableSchema struct {
	Name   string            `json:"name" yaml:"name"`
	Fields []FieldDescriptor `json:"fields" yaml:"fields"`

	byName map[string]int
}

// NewTableSchema validates field names and caches each field's parsed type.
func NewTableSchema(name string, fields []FieldDescriptor) (*TableSchema, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("table name is required: %w", ErrEmptySchema)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("table %q: %w", name, ErrEmptySchema)
	}

	s := &TableSchema{
		Name:   name,
		Fields: make([]FieldDescriptor, len(fields)),
		byName: make(map[string]int, len(fields)),
	}
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("table %q: field %d has no name", name, i)
		}
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("table %q: %w: %s", name, ErrDuplicateField, f.Name)
		}
		s.Fields[i] = NewField(f.Name, f.SQLType, f.Nullable)
		s.byName[f.Name] = i
	}
	return s, nil
}

// Field looks up a field by exact name.
func (s *TableSchema) Field(name string) (FieldDescriptor, bool) {
	if s.byName == nil {
		for _, f := range s.Fields {
			if f.Name == name {
				return f, true
			}
		}
		return FieldDescriptor{}, false
	}
	i, ok := s.byName[name]
	if !ok {
		return FieldDescriptor{}, false
	}
	return s.Fields[i], true
}

// IdentityFields lists fields excluded from auto-mapping because they look
// like generated primary keys.
func (s *TableSchema) IdentityFields() []string {
	var names []string
	for _, f := range s.Fields {
		if IsIdentityField(f) {
			names = append(names, f.Name)
		}
	}
	return names
}

// MappedColumn is one source column that feeds a target field.
type MappedColumn struct {
	Header string          `json:"header"`
	Index  int             `json:"index"`
	Field  FieldDescriptor `json:"field"`
}

// ResolveMapping returns the mapped columns in header order. Headers with
// no mapping, or mapped to a field the schema does not have, are skipped.
func (s *TableSchema) ResolveMapping(headers []string, mapping ColumnMapping) []MappedColumn {
	cols := make([]MappedColumn, 0, len(mapping))
	for i, h := range headers {
		name := mapping[h]
		if name == "" {
			continue
		}
		f, ok := s.Field(name)
		if !ok {
			continue
		}
		cols = append(cols, MappedColumn{Header: h, Index: i, Field: f})
	}
	return cols
}

// InvertMapping returns the field -> header view of a mapping. When several
// headers claim the same field, the first in header order wins.
func InvertMapping(headers []string, mapping ColumnMapping) map[string]string {
	inv := make(map[string]string, len(mapping))
	for _, h := range headers {
		f := mapping[h]
		if f == "" {
			continue
		}
		if _, seen := inv[f]; !seen {
			inv[f] = h
		}
	}
	return inv
}
