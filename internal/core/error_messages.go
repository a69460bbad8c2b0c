package core

// error_messages.go maps technical errors to user messages with support codes.
//
// Codes are grouped by category:
//
//	SAN001-SAN008  value does not fit its target type (one per SanitizeErrorKind)
//	SEC001         value matched an injection pattern
//	MAP001-MAP003  mapping conflict, unknown transformation, nothing mapped
//	SCH001-SCH005  schema and DDL problems
//	VAL001         dataset rejected by validation
//	IMP001-IMP003  import limiter, cancellation, timeout
//	DB001-DB005    database apply failures
//	RATE001        request throttled
//	REQ001-REQ002  malformed or oversized request
//	ERR000         fallback; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Sanitization
	{"invalid integer value", UserMessage{"A value is not a valid integer", "Remove non-numeric characters or apply the toNumber transform", "SAN001"}},
	{"invalid numeric value", UserMessage{"A value is not a valid number", "Remove currency symbols and use standard decimal format", "SAN002"}},
	{"invalid boolean value", UserMessage{"A value is not a valid boolean", "Use true/false or 1/0, or apply the toBoolean transform", "SAN003"}},
	{"invalid date value", UserMessage{"A value is not a valid date", "Use YYYY-MM-DD or apply the formatDate transform", "SAN004"}},
	{"invalid datetime value", UserMessage{"A value is not a valid date and time", "Use YYYY-MM-DD HH:MM:SS or apply the excelDate transform", "SAN005"}},
	{"invalid time value", UserMessage{"A value is not a valid time", "Use HH:MM:SS", "SAN006"}},
	{"invalid json value", UserMessage{"A value could not be encoded as JSON", "Check the JSON column contents", "SAN007"}},
	{"invalid uuid format", UserMessage{"A value is not a valid UUID", "Use the 8-4-4-4-12 hexadecimal form", "SAN008"}},

	// Security
	{"sql injection", UserMessage{"A value looks like a SQL injection attempt", "Review the flagged cells before importing", "SEC001"}},

	// Mapping
	{"mapping conflict", UserMessage{"Several columns are mapped to the same field", "Map each field from a single column", "MAP001"}},
	{"unknown transformation", UserMessage{"Unknown transformation", "Pick a transformation from the list", "MAP002"}},
	{"no mapped columns", UserMessage{"No column is mapped to a table field", "Map at least one column before generating SQL", "MAP003"}},

	// Schema
	{"schema has no fields", UserMessage{"The table has no fields", "Provide at least one field with a name and type", "SCH001"}},
	{"duplicate field name", UserMessage{"Two fields share the same name", "Field names must be unique within a table", "SCH002"}},
	{"no create table", UserMessage{"No CREATE TABLE statement was found", "Paste the full CREATE TABLE definition", "SCH003"}},
	{"unknown sql dialect", UserMessage{"Unsupported SQL dialect", "Use mysql or postgresql", "SCH004"}},
	{"table not found", UserMessage{"Table not found", "Check the table name against the parsed schema", "SCH005"}},

	// Templates
	{"template not found", UserMessage{"Mapping template not found", "Refresh the template list", "TPL001"}},
	{"template name is required", UserMessage{"The template needs a name", "Enter a name for the template", "TPL002"}},
	{"template already exists", UserMessage{"A template with this name already exists for the table", "Choose another name or update the existing template", "TPL003"}},

	// Validation
	{"dataset rejected", UserMessage{"Some rows failed validation", "Fix the highlighted cells or map them differently", "VAL001"}},

	// Import process
	{"too many concurrent imports", UserMessage{"System is busy processing other imports", "Please wait a moment and try again", "IMP001"}},
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "IMP002"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Try importing fewer rows or try again later", "IMP003"}},

	// Database
	{"duplicate key", UserMessage{"A record with this key already exists", "Remove duplicate rows or clear the table first", "DB001"}},
	{"violates unique", UserMessage{"A duplicate value was found", "Review your data for duplicate key values", "DB001"}},
	{"violates foreign key", UserMessage{"Referenced record does not exist", "Ensure parent records are imported first", "DB002"}},
	{"violates not-null", UserMessage{"A required column received NULL", "Map a column to every NOT NULL field", "DB003"}},
	{"connection refused", UserMessage{"Unable to connect to database", "Please try again in a few moments", "DB004"}},
	{"database not configured", UserMessage{"No target database is configured", "Download the generated SQL instead", "DB005"}},

	// Transport
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
	{"exceeds row limit", UserMessage{"The dataset has too many rows", "Split the data into smaller batches", "REQ001"}},
	{"request body too large", UserMessage{"The request is too large", "Split the data into smaller batches", "REQ001"}},
	{"invalid request", UserMessage{"The request could not be read", "Check the request body format", "REQ002"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. The first
// matching pattern wins; unmatched errors get ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ue *UserError
	if errors.As(err, &ue) {
		return ue.User
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error (for logs) with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
