package core

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInjectionDetected is returned when a text value matches a known SQL
// injection shape.
var ErrInjectionDetected = errors.New("potential SQL injection detected")

const injectionWarning = "Potential SQL injection detected in value"

// injectionPatterns is the fixed screening set. It is not exhaustive.
var injectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i);\s*(DROP|DELETE|TRUNCATE|ALTER)`),
	regexp.MustCompile(`(?i)UNION\s+SELECT`),
	regexp.MustCompile(`--\s*$`),
	regexp.MustCompile(`/\*.*\*/`),
	regexp.MustCompile(`(?i)'.*OR.*'.*=.*'`),
	regexp.MustCompile(`(?i)'.*AND.*'.*=.*'`),
	regexp.MustCompile(`(?i)xp_cmdshell`),
	regexp.MustCompile(`(?i)exec\s*\(`),
}

// DetectSQLInjection reports whether a text cell matches any screening
// pattern. Numbers, bools and nulls are never flagged.
func DetectSQLInjection(v CellValue) bool {
	s, ok := v.AsText()
	if !ok {
		return false
	}
	return LooksLikeInjection(s)
}

// LooksLikeInjection is DetectSQLInjection for a raw string.
func LooksLikeInjection(s string) bool {
	for _, re := range injectionPatterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

var (
	lineCommentRe  = regexp.MustCompile(`(?m)--.*$`)
	blockCommentRe = regexp.MustCompile(`(?s)/\*.*?\*/`)
	spaceRunRe     = regexp.MustCompile(`\s+`)
	commaRe        = regexp.MustCompile(`\s*,\s*`)
	openParenRe    = regexp.MustCompile(`\s*\(\s*`)
	closeParenRe   = regexp.MustCompile(`\s*\)\s*`)
)

// RemoveComments strips line and block comments from SQL text.
func RemoveComments(sql string) string {
	return blockCommentRe.ReplaceAllString(lineCommentRe.ReplaceAllString(sql, ""), "")
}

// NormalizeSQL collapses whitespace and tightens comma and paren spacing.
// It is a cosmetic pass and does not understand string literals.
func NormalizeSQL(sql string) string {
	sql = spaceRunRe.ReplaceAllString(sql, " ")
	sql = commaRe.ReplaceAllString(sql, ", ")
	sql = openParenRe.ReplaceAllString(sql, "(")
	sql = closeParenRe.ReplaceAllString(sql, ")")
	return strings.TrimSpace(sql)
}
