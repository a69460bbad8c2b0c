// Package ddl extracts table schemas from CREATE TABLE statements.
//
// Each CREATE TABLE in the input is located, then parsed with the TiDB
// MySQL grammar. Statements that grammar rejects, such as PostgreSQL dumps
// with double-quoted identifiers or serial types, are read by a generic
// column-definition reader. It understands quoted or bare identifiers, an
// optional schema prefix, IF NOT EXISTS, multi-word types such as
// "double precision" or "timestamp with time zone", inline and table-level
// PRIMARY KEY, and NOT NULL. Everything else in a column definition
// (defaults, comments, collations, references) is ignored.
//
// Statements other than CREATE TABLE are skipped.
package ddl

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

// ErrNoCreateTable is returned when the input contains no usable
// CREATE TABLE statement.
var ErrNoCreateTable = errors.New("no create table statement found")

const identPattern = "(?:`[^`]+`|\"[^\"]+\"|[\\w$]+)"

var createTableRe = regexp.MustCompile(
	"(?is)CREATE\\s+(?:TEMPORARY\\s+|TEMP\\s+|UNLOGGED\\s+)?TABLE\\s+(?:IF\\s+NOT\\s+EXISTS\\s+)?" +
		"((?:" + identPattern + "\\s*\\.\\s*)?" + identPattern + ")\\s*\\(")

// typeStopWords end the type portion of a column definition.
var typeStopWords = map[string]bool{
	"NOT":            true,
	"NULL":           true,
	"DEFAULT":        true,
	"PRIMARY":        true,
	"UNIQUE":         true,
	"REFERENCES":     true,
	"AUTO_INCREMENT": true,
	"AUTOINCREMENT":  true,
	"CHECK":          true,
	"COLLATE":        true,
	"COMMENT":        true,
	"GENERATED":      true,
	"CONSTRAINT":     true,
	"ON":             true,
	"AS":             true,
	"CHARSET":        true,
	"INVISIBLE":      true,
	"VISIBLE":        true,
	"STORAGE":        true,
	"COLUMN_FORMAT":  true,
}

// constraintLeaders start table-level clauses that are not columns.
var constraintLeaders = map[string]bool{
	"PRIMARY":    true,
	"KEY":        true,
	"INDEX":      true,
	"CONSTRAINT": true,
	"FOREIGN":    true,
	"CHECK":      true,
	"FULLTEXT":   true,
	"SPATIAL":    true,
	"EXCLUDE":    true,
	"LIKE":       true,
	"PERIOD":     true,
}

var tablePrimaryKeyRe = regexp.MustCompile(`(?is)PRIMARY\s+KEY\s*\(([^)]*)\)`)

// Parse returns every table defined in src, in statement order. Tables that
// yield no columns are skipped. Schema validation errors (for example a
// duplicated column) fail the whole parse.
func Parse(src string) ([]*core.TableSchema, error) {
	src = core.RemoveComments(src)

	var (
		tables []*core.TableSchema
		my     = newMySQLParser()
	)
	for _, loc := range createTableRe.FindAllStringSubmatchIndex(src, -1) {
		name := unqualify(src[loc[2]:loc[3]])
		open := loc[1] - 1
		end := matchParen(src, open)
		if end < 0 {
			slog.Debug("ddl: unterminated CREATE TABLE", "table", name)
			continue
		}

		parsedName, fields, err := my.parseCreateTable(src[loc[0] : end+1])
		if err == nil {
			name = parsedName
		} else {
			slog.Debug("ddl: not mysql, using generic reader", "table", name, "error", err)
			fields = parseBody(src[open+1 : end])
		}
		if len(fields) == 0 {
			slog.Debug("ddl: table has no columns", "table", name)
			continue
		}
		schema, err := core.NewTableSchema(name, fields)
		if err != nil {
			return nil, err
		}
		tables = append(tables, schema)
	}

	if len(tables) == 0 {
		return nil, ErrNoCreateTable
	}
	return tables, nil
}

// ParseReader reads all of r and parses it.
func ParseReader(r io.Reader) ([]*core.TableSchema, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read ddl: %w", err)
	}
	return Parse(string(b))
}

func parseBody(body string) []core.FieldDescriptor {
	var (
		fields []core.FieldDescriptor
		pkCols = map[string]bool{}
	)
	for _, def := range splitTopLevel(body) {
		def = strings.TrimSpace(def)
		if def == "" {
			continue
		}
		if isConstraint(def) {
			if m := tablePrimaryKeyRe.FindStringSubmatch(def); m != nil {
				for _, c := range strings.Split(m[1], ",") {
					// MySQL allows a prefix length, e.g. `name`(10).
					c, _, _ = strings.Cut(strings.TrimSpace(c), "(")
					pkCols[strings.ToLower(unquote(strings.TrimSpace(c)))] = true
				}
			}
			continue
		}
		if f, ok := parseColumn(def); ok {
			fields = append(fields, f)
		}
	}

	for i, f := range fields {
		if pkCols[strings.ToLower(f.Name)] {
			fields[i] = core.NewField(f.Name, f.SQLType, false)
		}
	}
	return fields
}

func isConstraint(def string) bool {
	if def[0] == '`' || def[0] == '"' {
		return false
	}
	words := strings.Fields(strings.ToUpper(def))
	first, _, _ := strings.Cut(words[0], "(")
	if constraintLeaders[first] {
		return true
	}
	if first == "UNIQUE" {
		return len(words) == 1 || strings.HasPrefix(words[0], "UNIQUE(") ||
			words[1] == "KEY" || words[1] == "INDEX" || strings.HasPrefix(words[1], "(")
	}
	return false
}

// parseColumn reads `name type [constraints...]`.
func parseColumn(def string) (core.FieldDescriptor, bool) {
	name, rest := readIdent(def)
	if name == "" {
		return core.FieldDescriptor{}, false
	}

	var typeParts []string
	tokens := tokenize(rest)
	i := 0
	for ; i < len(tokens); i++ {
		tok := tokens[i]
		upper := strings.ToUpper(tok)
		if typeStopWords[upper] {
			break
		}
		if upper == "CHARACTER" && i+1 < len(tokens) && strings.EqualFold(tokens[i+1], "SET") {
			break
		}
		if strings.HasPrefix(tok, "(") && len(typeParts) > 0 {
			typeParts[len(typeParts)-1] += compactParens(tok)
			continue
		}
		typeParts = append(typeParts, tok)
	}
	if len(typeParts) == 0 {
		return core.FieldDescriptor{}, false
	}

	tail := strings.ToUpper(strings.Join(tokens[i:], " "))
	nullable := !strings.Contains(tail, "NOT NULL") && !strings.Contains(tail, "PRIMARY KEY")

	return core.NewField(name, strings.Join(typeParts, " "), nullable), true
}

// readIdent splits a leading identifier, quoted or bare, from the rest.
func readIdent(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if q := s[0]; q == '`' || q == '"' {
		end := strings.IndexByte(s[1:], q)
		if end < 0 {
			return "", ""
		}
		return s[1 : end+1], s[end+2:]
	}
	end := strings.IndexAny(s, " \t\r\n(")
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// tokenize splits on whitespace, keeping parenthesized groups and quoted
// strings as single tokens.
func tokenize(s string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '(':
			flush()
			end := matchParen(s, i)
			if end < 0 {
				end = len(s) - 1
			}
			tokens = append(tokens, s[i:end+1])
			i = end
		case c == '\'':
			end := skipQuoted(s, i)
			cur.WriteString(s[i:end])
			i = end - 1
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return tokens
}

// compactParens removes whitespace inside a type modifier: "(10, 2)" -> "(10,2)".
func compactParens(s string) string {
	if strings.ContainsRune(s, '\'') {
		return s
	}
	return strings.Join(strings.Fields(s), "")
}

// splitTopLevel splits on commas outside parentheses and string literals.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			i = skipQuoted(s, i) - 1
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// matchParen returns the index of the ')' closing the '(' at open, or -1.
func matchParen(s string, open int) int {
	depth := 0
	for i := open; i < len(s); i++ {
		switch s[i] {
		case '\'':
			i = skipQuoted(s, i) - 1
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// skipQuoted returns the index just past the single-quoted literal that
// starts at i. Doubled quotes and backslash escapes stay inside the literal.
func skipQuoted(s string, i int) int {
	for j := i + 1; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '\'':
			if j+1 < len(s) && s[j+1] == '\'' {
				j++
				continue
			}
			return j + 1
		}
	}
	return len(s)
}

// unqualify drops a schema prefix and identifier quotes.
func unqualify(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return unquote(strings.TrimSpace(name))
}

func unquote(s string) string {
	return strings.Trim(s, "`\"")
}
