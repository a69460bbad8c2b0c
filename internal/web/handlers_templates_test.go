package web

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

func contactsTemplate(name string) map[string]any {
	return map[string]any{
		"table":           "contacts",
		"name":            name,
		"mapping":         map[string]string{"Name": "name", "E-mail": "email"},
		"transformations": map[string]string{"E-mail": "formatEmail"},
		"headers":         []string{"Name", "E-mail", "Notes"},
	}
}

func TestTemplates_Lifecycle(t *testing.T) {
	s := withContacts(t)

	rec := do(t, s, http.MethodPost, "/api/templates", contactsTemplate("crm export"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[core.MappingTemplate](t, rec)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "contacts", created.Table)
	assert.Equal(t, core.TransformationKind("formatEmail"), created.Transformations["E-mail"])

	rec = do(t, s, http.MethodGet, "/api/templates/"+created.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, created.Name, decode[core.MappingTemplate](t, rec).Name)

	rec = do(t, s, http.MethodGet, "/api/templates?table=contacts", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[templatesResponse](t, rec).Templates, 1)

	rec = do(t, s, http.MethodGet, "/api/templates?table=orders", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[templatesResponse](t, rec).Templates)

	update := contactsTemplate("crm export v2")
	update["mapping"] = map[string]string{"Full Name": "name"}
	update["headers"] = []string{"Full Name"}
	delete(update, "transformations")
	rec = do(t, s, http.MethodPut, "/api/templates/"+created.ID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[core.MappingTemplate](t, rec)
	assert.Equal(t, "crm export v2", updated.Name)
	assert.Equal(t, core.ColumnMapping{"Full Name": "name"}, updated.Mapping)

	rec = do(t, s, http.MethodDelete, "/api/templates/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/templates/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "TPL001", decode[ErrorResponse](t, rec).Code)
}

func TestTemplates_CreateErrors(t *testing.T) {
	s := withContacts(t)

	rec := do(t, s, http.MethodPost, "/api/templates", contactsTemplate("dup"))
	require.Equal(t, http.StatusCreated, rec.Code)

	badField := contactsTemplate("bad field")
	badField["mapping"] = map[string]string{"Name": "nickname"}
	badTransform := contactsTemplate("bad transform")
	badTransform["transformations"] = map[string]string{"Name": "reverse"}
	unknownTable := contactsTemplate("orders")
	unknownTable["table"] = "orders"

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"duplicate name", contactsTemplate("DUP"), http.StatusConflict, "TPL003"},
		{"blank name", contactsTemplate(" "), http.StatusBadRequest, "TPL002"},
		{"unknown field", badField, http.StatusBadRequest, "REQ002"},
		{"unknown transformation", badTransform, http.StatusBadRequest, "MAP002"},
		{"unknown table", unknownTable, http.StatusNotFound, "SCH005"},
		{"malformed body", "{", http.StatusBadRequest, "REQ002"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/templates", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, decode[ErrorResponse](t, rec).Code)
		})
	}
}

func TestTemplates_Match(t *testing.T) {
	s := withContacts(t)
	rec := do(t, s, http.MethodPost, "/api/templates", contactsTemplate("crm export"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/templates/match", matchTemplatesRequest{
		Table:   "contacts",
		Headers: []string{"name", "e-mail", "notes", "phone"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	matches := decode[matchTemplatesResponse](t, rec).Matches
	require.Len(t, matches, 1)
	assert.Equal(t, "crm export", matches[0].Template.Name)
	assert.InDelta(t, 1.0, matches[0].MatchScore, 1e-9)

	rec = do(t, s, http.MethodPost, "/api/templates/match", matchTemplatesRequest{
		Table:   "contacts",
		Headers: []string{"Name"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"matches":[]}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/templates/match", matchTemplatesRequest{Headers: []string{"Name"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTemplates_UpdateUnknown(t *testing.T) {
	s := withContacts(t)
	rec := do(t, s, http.MethodPut, "/api/templates/missing", contactsTemplate("x"))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/templates/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
