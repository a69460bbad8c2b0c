package ddl

// mysql.go reads MySQL/MariaDB CREATE TABLE statements through the TiDB
// SQL parser. Statements the grammar rejects are left to the generic
// reader in parser.go.

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/parser"
	"github.com/pingcap/tidb/parser/ast"
	"github.com/pingcap/tidb/parser/mysql"
	_ "github.com/pingcap/tidb/parser/test_driver"
	"github.com/pingcap/tidb/parser/types"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

// mysqlParser wraps a TiDB parser. It is not safe for concurrent use; Parse
// creates one per call.
type mysqlParser struct {
	p *parser.Parser
}

func newMySQLParser() *mysqlParser {
	return &mysqlParser{p: parser.New()}
}

// parseCreateTable parses a single CREATE TABLE statement. It fails when
// the statement is not valid MySQL or is not a CREATE TABLE.
func (m *mysqlParser) parseCreateTable(stmt string) (string, []core.FieldDescriptor, error) {
	node, err := m.p.ParseOneStmt(stmt, "", "")
	if err != nil {
		return "", nil, err
	}
	ct, ok := node.(*ast.CreateTableStmt)
	if !ok {
		return "", nil, fmt.Errorf("not a create table statement: %T", node)
	}

	pkCols := make(map[string]bool)
	for _, c := range ct.Constraints {
		if c.Tp != ast.ConstraintPrimaryKey {
			continue
		}
		for _, k := range c.Keys {
			if k.Column != nil {
				pkCols[k.Column.Name.L] = true
			}
		}
	}

	fields := make([]core.FieldDescriptor, 0, len(ct.Cols))
	for _, col := range ct.Cols {
		name := col.Name.Name.O
		nullable := !pkCols[col.Name.Name.L]
		for _, opt := range col.Options {
			if opt.Tp == ast.ColumnOptionNotNull || opt.Tp == ast.ColumnOptionPrimaryKey {
				nullable = false
			}
		}
		fields = append(fields, core.NewField(name, columnType(col.Tp), nullable))
	}
	return ct.Table.Name.O, fields, nil
}

// columnType renders a parsed column type the way it was declared:
// lowercase name, explicit length or precision, enum members and the
// unsigned flag. Charset and collation are dropped.
func columnType(ft *types.FieldType) string {
	if ft == nil {
		return "unknown"
	}
	var b strings.Builder
	b.WriteString(types.TypeToStr(ft.GetType(), ft.GetCharset()))

	switch tp := ft.GetType(); {
	case tp == mysql.TypeEnum || tp == mysql.TypeSet:
		elems := make([]string, len(ft.GetElems()))
		for i, e := range ft.GetElems() {
			elems[i] = "'" + strings.ReplaceAll(e, "'", "''") + "'"
		}
		b.WriteString("(" + strings.Join(elems, ",") + ")")
	case ft.GetFlen() != types.UnspecifiedLength:
		if hasScale(tp) && ft.GetDecimal() != types.UnspecifiedLength {
			fmt.Fprintf(&b, "(%d,%d)", ft.GetFlen(), ft.GetDecimal())
		} else {
			fmt.Fprintf(&b, "(%d)", ft.GetFlen())
		}
	}

	if mysql.HasUnsignedFlag(ft.GetFlag()) {
		b.WriteString(" unsigned")
	}
	return b.String()
}

func hasScale(tp byte) bool {
	return tp == mysql.TypeNewDecimal || tp == mysql.TypeFloat || tp == mysql.TypeDouble
}
