package web

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/ddl"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

type parseSchemaRequest struct {
	DDL     string `json:"ddl" validate:"notblank"`
	Dialect string `json:"dialect,omitempty"`
}

type schemaView struct {
	Name           string                 `json:"name"`
	Fields         []core.FieldDescriptor `json:"fields"`
	IdentityFields []string               `json:"identityFields,omitempty"`
}

type schemasResponse struct {
	Tables []schemaView `json:"tables"`
}

func viewOf(t *core.TableSchema) schemaView {
	return schemaView{Name: t.Name, Fields: t.Fields, IdentityFields: t.IdentityFields()}
}

func viewsOf(tables []*core.TableSchema) schemasResponse {
	out := schemasResponse{Tables: make([]schemaView, len(tables))}
	for i, t := range tables {
		out.Tables[i] = viewOf(t)
	}
	return out
}

// handleParseSchema parses CREATE TABLE statements and registers every
// table in the catalog, replacing tables of the same name.
func (s *Server) handleParseSchema(w http.ResponseWriter, r *http.Request) {
	var req parseSchemaRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	if err := validateRequest(&req); err != nil {
		respondError(w, r, err)
		return
	}
	if req.Dialect != "" {
		if _, err := core.ParseDialect(req.Dialect); err != nil {
			respondError(w, r, err)
			return
		}
	}

	tables, err := ddl.Parse(req.DDL)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.catalog.PutAll(tables)

	logging.FromContext(r.Context()).Info("schema parsed", "tables", len(tables))
	writeJSON(w, http.StatusOK, viewsOf(tables))
}

func (s *Server) handleListSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, viewsOf(s.catalog.All()))
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	t, err := s.catalog.Get(chi.URLParam(r, "table"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(t))
}

func (s *Server) handleClearSchemas(w http.ResponseWriter, r *http.Request) {
	s.catalog.Clear()
	w.WriteHeader(http.StatusNoContent)
}
