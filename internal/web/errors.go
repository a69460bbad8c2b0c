package web

// errors.go turns handler errors into JSON responses.
//
// The technical error is logged with the request id; the client receives
// the mapped user message and support code from core.MapError. Rejected
// datasets additionally carry the per-row problems.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/sqlimport/internal/core"
	"github.com/JonMunkholm/sqlimport/internal/ddl"
	"github.com/JonMunkholm/sqlimport/internal/generator"
	"github.com/JonMunkholm/sqlimport/internal/loader"
	"github.com/JonMunkholm/sqlimport/internal/logging"
)

var (
	errInvalidRequest        = errors.New("invalid request")
	errRequestTooLarge       = errors.New("request body too large")
	errDatabaseNotConfigured = errors.New("database not configured")
)

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errInvalidRequest, fmt.Sprintf(format, args...))
}

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`

	// Errors lists one line per rejected cell on 422 responses.
	Errors    []string        `json:"errors,omitempty"`
	RowErrors []core.RowError `json:"rowErrors,omitempty"`
}

// statusFor picks the HTTP status for an error.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrDatasetRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyImports), errors.Is(err, errDatabaseNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrTableNotFound), errors.Is(err, core.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTemplateExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrRowLimit), errors.Is(err, errRequestTooLarge), errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errInvalidRequest),
		errors.Is(err, core.ErrEmptySchema),
		errors.Is(err, core.ErrDuplicateField),
		errors.Is(err, core.ErrUnknownDialect),
		errors.Is(err, core.ErrUnknownTransform),
		errors.Is(err, core.ErrNoMappedColumns),
		errors.Is(err, core.ErrMappingConflict),
		errors.Is(err, core.ErrTemplateNameRequired),
		errors.Is(err, ddl.ErrNoCreateTable),
		errors.Is(err, generator.ErrUnknownCompression),
		errors.Is(err, loader.ErrNothingToLoad):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err and writes the mapped message with statusFor(err).
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	respondErrorBody(w, r, err, errorBody(err))
}

func respondErrorBody(w http.ResponseWriter, r *http.Request, err error, body ErrorResponse) {
	status := statusFor(err)
	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", body.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	if status == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	writeJSON(w, status, body)
}

func errorBody(err error) ErrorResponse {
	msg := core.MapError(err)
	return ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// respondRejected writes the 422 body for a dataset that failed
// validation or sanitization.
func respondRejected(w http.ResponseWriter, r *http.Request, res *core.PipelineResult) {
	err := res.Err()
	body := errorBody(err)
	body.Errors = res.Problems()
	body.RowErrors = res.RowErrors
	respondErrorBody(w, r, err, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// decodeJSON reads a size-limited JSON body into v. Unknown fields are
// rejected.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit %d bytes", errRequestTooLarge, tooLarge.Limit)
		}
		return invalidRequest("%v", err)
	}
	return nil
}
