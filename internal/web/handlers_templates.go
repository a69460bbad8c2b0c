package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

type templateRequest struct {
	Table           string                        `json:"table" validate:"notblank,max=255"`
	Name            string                        `json:"name" validate:"required,max=255"`
	Mapping         core.ColumnMapping            `json:"mapping" validate:"required,min=1"`
	Transformations core.TransformationAssignment `json:"transformations,omitempty"`
	Headers         []string                      `json:"headers" validate:"required,min=1"`
}

type templatesResponse struct {
	Templates []core.MappingTemplate `json:"templates"`
}

type matchTemplatesRequest struct {
	Table   string   `json:"table" validate:"notblank"`
	Headers []string `json:"headers" validate:"required,min=1"`
}

type matchTemplatesResponse struct {
	Matches []core.TemplateMatch `json:"matches"`
}

// checkTemplate validates the request, then verifies that the table is
// known and that every mapping target and transformation is valid for it.
func (s *Server) checkTemplate(req templateRequest) error {
	if err := validateRequest(&req); err != nil {
		return err
	}
	schema, err := s.catalog.Get(req.Table)
	if err != nil {
		return err
	}
	for header, field := range req.Mapping {
		if _, ok := schema.Field(field); !ok {
			return invalidRequest("column %q maps to unknown field %q", header, field)
		}
	}
	for header, kind := range req.Transformations {
		if _, ok := core.LookupTransformation(kind); !ok {
			return fmt.Errorf("column %q: %w: %q", header, core.ErrUnknownTransform, kind)
		}
	}
	return nil
}

func (req templateRequest) template() core.MappingTemplate {
	return core.MappingTemplate{
		Table:           req.Table,
		Name:            req.Name,
		Mapping:         req.Mapping,
		Transformations: req.Transformations,
		Headers:         req.Headers,
	}
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, templatesResponse{Templates: s.templates.List(r.URL.Query().Get("table"))})
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	var req templateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.checkTemplate(req); err != nil {
		respondError(w, r, err)
		return
	}

	t, err := s.templates.Create(req.template())
	if err != nil {
		respondError(w, r, err)
		return
	}
	logging.FromContext(r.Context()).Info("template created", "id", t.ID, "table", t.Table, "name", t.Name)
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	t, err := s.templates.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	cur, err := s.templates.Get(id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	var req templateRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	// The table of a saved template never changes.
	req.Table = cur.Table
	if err := s.checkTemplate(req); err != nil {
		respondError(w, r, err)
		return
	}

	t, err := s.templates.Update(id, req.template())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.templates.Delete(chi.URLParam(r, "id")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleMatchTemplates offers saved templates whose headers fit a new
// file, best match first.
func (s *Server) handleMatchTemplates(w http.ResponseWriter, r *http.Request) {
	var req matchTemplatesRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}

	matches := s.templates.Match(req.Table, req.Headers)
	if matches == nil {
		matches = []core.TemplateMatch{}
	}
	writeJSON(w, http.StatusOK, matchTemplatesResponse{Matches: matches})
}
