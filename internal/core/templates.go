package core

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TemplateMatchThreshold is the minimum share of a template's headers that
// must appear in a file for the template to be offered.
const TemplateMatchThreshold = 0.7

var (
	ErrTemplateNotFound     = errors.New("template not found")
	ErrTemplateNameRequired = errors.New("template name is required")
	ErrTemplateExists       = errors.New("template already exists")
)

// MappingTemplate is a saved header-to-field mapping for one table, reused
// when later files arrive with the same headers.
type MappingTemplate struct {
	ID              string                   `json:"id"`
	Table           string                   `json:"table"`
	Name            string                   `json:"name"`
	Mapping         ColumnMapping            `json:"mapping"`
	Transformations TransformationAssignment `json:"transformations,omitempty"`
	Headers         []string                 `json:"headers"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// TemplateMatch is a template whose headers overlap a file's headers.
type TemplateMatch struct {
	Template   MappingTemplate `json:"template"`
	MatchScore float64         `json:"matchScore"`
}

// TemplateStore keeps mapping templates in memory. It is safe for
// concurrent use; returned templates are copies.
type TemplateStore struct {
	mu        sync.RWMutex
	templates map[string]*MappingTemplate
	now       func() time.Time
}

func NewTemplateStore() *TemplateStore {
	return &TemplateStore{
		templates: make(map[string]*MappingTemplate),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new template. Names are unique per table, compared
// case-insensitively.
func (s *TemplateStore) Create(t MappingTemplate) (MappingTemplate, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return MappingTemplate{}, ErrTemplateNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(t.Table, t.Name, "") {
		return MappingTemplate{}, fmt.Errorf("%w: %q for table %s", ErrTemplateExists, t.Name, t.Table)
	}

	t.ID = uuid.NewString()
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	stored := cloneTemplate(t)
	s.templates[t.ID] = &stored
	return cloneTemplate(stored), nil
}

// Get returns the template with id.
func (s *TemplateStore) Get(id string) (MappingTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.templates[id]
	if !ok {
		return MappingTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	return cloneTemplate(*t), nil
}

// List returns the templates for table sorted by name. An empty table
// lists every template.
func (s *TemplateStore) List(table string) []MappingTemplate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]MappingTemplate, 0, len(s.templates))
	for _, t := range s.templates {
		if table == "" || catalogKey(t.Table) == catalogKey(table) {
			out = append(out, cloneTemplate(*t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if a, b := catalogKey(out[i].Table), catalogKey(out[j].Table); a != b {
			return a < b
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Update replaces the name, mapping, transformations and headers of an
// existing template. The table and creation time are kept.
func (s *TemplateStore) Update(id string, t MappingTemplate) (MappingTemplate, error) {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return MappingTemplate{}, ErrTemplateNameRequired
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.templates[id]
	if !ok {
		return MappingTemplate{}, fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	if s.nameTaken(cur.Table, t.Name, id) {
		return MappingTemplate{}, fmt.Errorf("%w: %q for table %s", ErrTemplateExists, t.Name, cur.Table)
	}

	t.ID = id
	t.Table = cur.Table
	t.CreatedAt = cur.CreatedAt
	t.UpdatedAt = s.now()
	stored := cloneTemplate(t)
	s.templates[id] = &stored
	return cloneTemplate(stored), nil
}

// Delete removes a template.
func (s *TemplateStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.templates[id]; !ok {
		return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
	}
	delete(s.templates, id)
	return nil
}

// Match returns the templates for table whose headers match headers with a
// score of at least TemplateMatchThreshold, best first.
func (s *TemplateStore) Match(table string, headers []string) []TemplateMatch {
	var matches []TemplateMatch
	for _, t := range s.List(table) {
		score := matchTemplateHeaders(headers, t.Headers)
		if score >= TemplateMatchThreshold {
			matches = append(matches, TemplateMatch{Template: t, MatchScore: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].MatchScore > matches[j].MatchScore
	})
	return matches
}

// Len returns the number of stored templates.
func (s *TemplateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// nameTaken reports whether another template of table already uses name.
// Callers hold s.mu.
func (s *TemplateStore) nameTaken(table, name, exceptID string) bool {
	for id, t := range s.templates {
		if id != exceptID && catalogKey(t.Table) == catalogKey(table) && strings.EqualFold(t.Name, name) {
			return true
		}
	}
	return false
}

func cloneTemplate(t MappingTemplate) MappingTemplate {
	t.Mapping = maps.Clone(t.Mapping)
	t.Transformations = maps.Clone(t.Transformations)
	t.Headers = append([]string(nil), t.Headers...)
	return t
}

// matchTemplateHeaders returns the share of template headers present in the
// file headers, ignoring case and surrounding space.
func matchTemplateHeaders(fileHeaders, templateHeaders []string) float64 {
	if len(templateHeaders) == 0 {
		return 0
	}

	fileSet := make(map[string]bool, len(fileHeaders))
	for _, h := range fileHeaders {
		fileSet[strings.ToLower(strings.TrimSpace(h))] = true
	}

	matched := 0
	for _, h := range templateHeaders {
		if fileSet[strings.ToLower(strings.TrimSpace(h))] {
			matched++
		}
	}

	return float64(matched) / float64(len(templateHeaders))
}
