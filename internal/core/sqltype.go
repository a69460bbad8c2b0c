package core

// sqltype.go classifies raw declared SQL type strings.
//
// A type string such as "DECIMAL(10,2)" or "varchar(255)" is parsed once into
// a TypeInfo that carries two views of the type:
//
//   - Class: the coarse category used by validation and transform suggestions
//     (numeric, boolean, datetime, string, other)
//   - Family: the concrete literal family used by the SQL sanitizer
//     (integer, decimal, boolean, date, datetime, time, json, uuid, text)
//
// The views do not always line up: "time" is in the datetime class but has
// its own literal family, and "char(1)" is a string class rendered as text.

import (
	"regexp"
	"strconv"
	"strings"
)

// TypeClass is the coarse classification of a declared SQL type.
type TypeClass int

const (
	ClassOther TypeClass = iota
	ClassNumeric
	ClassBoolean
	ClassDateTime
	ClassString
)

func (c TypeClass) String() string {
	switch c {
	case ClassNumeric:
		return "numeric"
	case ClassBoolean:
		return "boolean"
	case ClassDateTime:
		return "datetime"
	case ClassString:
		return "string"
	default:
		return "other"
	}
}

// Family selects how a value is rendered as a SQL literal.
type Family int

const (
	FamilyText Family = iota
	FamilyInteger
	FamilyDecimal
	FamilyBoolean
	FamilyDate
	FamilyDateTime
	FamilyTime
	FamilyJSON
	FamilyUUID
)

func (f Family) String() string {
	switch f {
	case FamilyInteger:
		return "integer"
	case FamilyDecimal:
		return "decimal"
	case FamilyBoolean:
		return "boolean"
	case FamilyDate:
		return "date"
	case FamilyDateTime:
		return "datetime"
	case FamilyTime:
		return "time"
	case FamilyJSON:
		return "json"
	case FamilyUUID:
		return "uuid"
	default:
		return "text"
	}
}

// TypeInfo is the parsed form of a declared SQL type.
type TypeInfo struct {
	Raw    string
	Lower  string
	Class  TypeClass
	Family Family

	// Integer is true for any type whose name contains "int".
	Integer bool
	// Serial marks auto-increment pseudo types (serial, bigserial).
	Serial bool

	// Bounded integer types carry an inclusive range.
	Bounded  bool
	MinValue float64
	MaxValue float64

	// Length is the declared char/varchar length, 0 when absent.
	Length int

	// Precision and Scale come from a "(p,s)" suffix on decimal/numeric.
	HasPrecision bool
	Precision    int
	Scale        int

	parsed bool
}

var (
	numericClassRe  = regexp.MustCompile(`int|decimal|numeric|float|double|real|serial`)
	booleanClassRe  = regexp.MustCompile(`bool|bit`)
	datetimeClassRe = regexp.MustCompile(`date|time|timestamp|datetime|year`)
	stringClassRe   = regexp.MustCompile(`char|text|varchar|string`)

	charLengthRe    = regexp.MustCompile(`(?:var)?char\s*\(\s*(\d+)\s*\)`)
	precisionRe     = regexp.MustCompile(`\(\s*(\d+)\s*,\s*(\d+)\s*\)`)
	decimalFamilyRe = regexp.MustCompile(`decimal|numeric|float|double|real`)
)

// ParseSQLType classifies a declared SQL type string. It is a pure function
// of its input; callers cache the result on FieldDescriptor.
func ParseSQLType(raw string) TypeInfo {
	lower := strings.ToLower(strings.TrimSpace(raw))
	info := TypeInfo{Raw: raw, Lower: lower, parsed: true}

	switch {
	case numericClassRe.MatchString(lower):
		info.Class = ClassNumeric
	case booleanClassRe.MatchString(lower):
		info.Class = ClassBoolean
	case datetimeClassRe.MatchString(lower):
		info.Class = ClassDateTime
	case stringClassRe.MatchString(lower):
		info.Class = ClassString
	}

	info.Integer = strings.Contains(lower, "int")
	info.Serial = strings.Contains(lower, "serial")

	switch {
	case strings.Contains(lower, "tinyint"):
		info.Bounded, info.MinValue, info.MaxValue = true, -128, 127
	case strings.Contains(lower, "smallint"):
		info.Bounded, info.MinValue, info.MaxValue = true, -32768, 32767
	}

	if m := charLengthRe.FindStringSubmatch(lower); m != nil {
		info.Length, _ = strconv.Atoi(m[1])
	}

	if strings.Contains(lower, "decimal") || strings.Contains(lower, "numeric") {
		if m := precisionRe.FindStringSubmatch(lower); m != nil {
			info.HasPrecision = true
			info.Precision, _ = strconv.Atoi(m[1])
			info.Scale, _ = strconv.Atoi(m[2])
		}
	}

	info.Family = literalFamily(lower)
	return info
}

// literalFamily picks the sanitizer family. Order matters: the first
// matching rule wins, so "datetime" never reaches the plain date rule.
func literalFamily(lower string) Family {
	switch {
	case strings.Contains(lower, "int"):
		return FamilyInteger
	case decimalFamilyRe.MatchString(lower):
		return FamilyDecimal
	case strings.Contains(lower, "bool") || lower == "bit":
		return FamilyBoolean
	case strings.Contains(lower, "date") && !strings.Contains(lower, "time"):
		return FamilyDate
	case strings.Contains(lower, "datetime") || strings.Contains(lower, "timestamp"):
		return FamilyDateTime
	case lower == "time":
		return FamilyTime
	case lower == "json" || lower == "jsonb":
		return FamilyJSON
	case lower == "uuid":
		return FamilyUUID
	default:
		return FamilyText
	}
}

// IsIdentityField reports whether a field looks like a database-generated
// primary key: a NOT NULL integer (or serial) column named id, *id, *_id or id_*.
func IsIdentityField(f FieldDescriptor) bool {
	t := f.Type()
	if !(t.Integer || t.Serial) || f.Nullable {
		return false
	}
	name := strings.ToLower(f.Name)
	return name == "id" ||
		strings.HasSuffix(name, "_id") ||
		strings.HasSuffix(name, "id") ||
		strings.HasPrefix(name, "id_")
}
