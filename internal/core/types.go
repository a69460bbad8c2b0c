package core

// FieldDescriptor describes a single target column.
type FieldDescriptor struct {
	Name     string `json:"name" yaml:"name"`
	SQLType  string `json:"type" yaml:"type"`
	Nullable bool   `json:"nullable" yaml:"nullable"`

	info TypeInfo
}

// NewField builds a descriptor with its type classification already resolved.
func NewField(name, sqlType string, nullable bool) FieldDescriptor {
	return FieldDescriptor{
		Name:     name,
		SQLType:  sqlType,
		Nullable: nullable,
		info:     ParseSQLType(sqlType),
	}
}

// Type returns the parsed type classification. Descriptors built by NewField
// or NewTableSchema carry a cached copy; zero-value descriptors parse lazily.
func (f FieldDescriptor) Type() TypeInfo {
	if f.info.Raw == f.SQLType && f.info.parsed {
		return f.info
	}
	return ParseSQLType(f.SQLType)
}

// ColumnMapping maps a source column header to a target field name.
type ColumnMapping map[string]string

// TransformationAssignment maps a target field name to the transform applied
// to every value destined for it.
type TransformationAssignment map[string]TransformationKind

// CellKey addresses a single cell of the source dataset.
type CellKey struct {
	Row    int
	Column int
}

// Overrides holds user-edited cell values that replace the source value
// before any transform runs.
type Overrides map[CellKey]CellValue

// Dataset is the header/row view of a parsed spreadsheet.
type Dataset struct {
	Headers []string      `json:"headers"`
	Rows    [][]CellValue `json:"rows"`
}

// Cell returns the value at (row, col), or Null when the row is short.
func (d Dataset) Cell(row, col int) CellValue {
	if row < 0 || row >= len(d.Rows) {
		return Null()
	}
	r := d.Rows[row]
	if col < 0 || col >= len(r) {
		return Null()
	}
	return r[col]
}

// Column returns every value of a column in row order.
func (d Dataset) Column(col int) []CellValue {
	values := make([]CellValue, len(d.Rows))
	for i := range d.Rows {
		values[i] = d.Cell(i, col)
	}
	return values
}

// Severity is the outcome class of a cell validation.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
)

// ValidationFinding is the validation outcome for one cell.
type ValidationFinding struct {
	RowIndex    int       `json:"rowIndex"`
	ColumnIndex int       `json:"columnIndex"`
	FieldName   string    `json:"fieldName"`
	Value       CellValue `json:"value"`
	Valid       bool      `json:"valid"`
	Severity    Severity  `json:"severity"`
	Message     string    `json:"message,omitempty"`
	Suggestion  string    `json:"suggestion,omitempty"`
}

// ValidationResult aggregates findings over a dataset.
type ValidationResult struct {
	Validations   []ValidationFinding `json:"validations"`
	ErrorCount    int                 `json:"errorCount"`
	WarningCount  int                 `json:"warningCount"`
	ValidRowCount int                 `json:"validRowCount"`
}

// SanitizedValue is a SQL literal ready for a VALUES clause.
type SanitizedValue struct {
	Literal string `json:"sanitized"`
	Safe    bool   `json:"safe"`
	Warning string `json:"warning,omitempty"`
}
