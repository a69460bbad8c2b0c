package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ErrTableNotFound is returned by SchemaCatalog.Get for unknown names.
var ErrTableNotFound = errors.New("table not found")

// SchemaCatalog holds the table schemas known to a server or CLI session,
// keyed case-insensitively by table name. Schemas are immutable once
// registered; Put replaces an entry wholesale.
type SchemaCatalog struct {
	mu     sync.RWMutex
	tables map[string]*TableSchema
}

func NewSchemaCatalog() *SchemaCatalog {
	return &SchemaCatalog{tables: make(map[string]*TableSchema)}
}

func catalogKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Put adds or replaces a schema.
func (c *SchemaCatalog) Put(s *TableSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[catalogKey(s.Name)] = s
}

// PutAll adds every schema, e.g. the output of a DDL parse.
func (c *SchemaCatalog) PutAll(schemas []*TableSchema) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range schemas {
		c.tables[catalogKey(s.Name)] = s
	}
}

// Get returns the schema for name.
func (c *SchemaCatalog) Get(name string) (*TableSchema, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.tables[catalogKey(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return s, nil
}

// All returns every schema sorted by name.
func (c *SchemaCatalog) All() []*TableSchema {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make([]*TableSchema, 0, len(c.tables))
	for _, s := range c.tables {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return catalogKey(result[i].Name) < catalogKey(result[j].Name)
	})
	return result
}

// Len returns the number of registered schemas.
func (c *SchemaCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tables)
}

// Clear removes every schema.
func (c *SchemaCatalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables = make(map[string]*TableSchema)
}
