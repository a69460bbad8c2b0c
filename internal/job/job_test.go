package job

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

const inlineJob = `
dialect: postgresql
table:
  name: contacts
  fields:
    - {name: id, type: int}
    - {name: name, type: varchar(50)}
    - {name: email, type: varchar(100), nullable: true}
mapping:
  Full Name: name
  E-mail: email
transformations:
  email: formatEmail
strict: true
batch_size: 500
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_InlineTable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "job.yaml", inlineJob)

	j, err := Load(path)
	require.NoError(t, err)
	assert.True(t, j.Strict)
	assert.Equal(t, 500, j.BatchSize)

	schema, err := j.Schema()
	require.NoError(t, err)
	assert.Equal(t, "contacts", schema.Name)
	require.Len(t, schema.Fields, 3)
	assert.False(t, schema.Fields[1].Nullable)
	assert.True(t, schema.Fields[2].Nullable)

	d, err := j.ParsedDialect(core.DialectMySQL)
	require.NoError(t, err)
	assert.Equal(t, core.DialectPostgres, d)

	assert.Equal(t, core.ColumnMapping{"Full Name": "name", "E-mail": "email"}, j.ColumnMapping())

	tr, err := j.Transforms()
	require.NoError(t, err)
	assert.Equal(t, core.TransformationAssignment{"email": core.TransformFormatEmail}, tr)
}

func TestLoad_JSONJob(t *testing.T) {
	path := writeFile(t, t.TempDir(), "job.json",
		`{"table": {"name": "t", "fields": [{"name": "a", "type": "int"}]}, "mapping": {"A": "a"}}`)
	j, err := Load(path)
	require.NoError(t, err)

	schema, err := j.Schema()
	require.NoError(t, err)
	assert.Equal(t, "t", schema.Name)

	d, err := j.ParsedDialect(core.DialectMySQL)
	require.NoError(t, err)
	assert.Equal(t, core.DialectMySQL, d)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeFile(t, t.TempDir(), "job.yaml", "tabel: {name: x}\n")
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tabel")
}

func TestSchema_FromDDLFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "schema.sql", `
CREATE TABLE a (x int);
CREATE TABLE orders (id serial PRIMARY KEY, total decimal(10,2));`)
	path := writeFile(t, dir, "job.yaml", "ddl_file: schema.sql\ntable_name: ORDERS\n")

	j, err := Load(path)
	require.NoError(t, err)
	schema, err := j.Schema()
	require.NoError(t, err)
	assert.Equal(t, "orders", schema.Name)
	assert.Len(t, schema.Fields, 2)
}

func TestSchema_InlineDDLDefaultsToFirstTable(t *testing.T) {
	j, err := Decode(strings.NewReader("ddl: |\n  CREATE TABLE first (a int);\n  CREATE TABLE second (b int);\n"))
	require.NoError(t, err)
	schema, err := j.Schema()
	require.NoError(t, err)
	assert.Equal(t, "first", schema.Name)

	j.TableName = "third"
	_, err = j.Schema()
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestSchema_Errors(t *testing.T) {
	_, err := (&Job{}).Schema()
	assert.ErrorIs(t, err, ErrNoTable)

	_, err = (&Job{Table: &Table{Name: "t"}, DDL: "CREATE TABLE t (a int)"}).Schema()
	assert.ErrorIs(t, err, ErrAmbiguousTable)

	_, err = Decode(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestTransforms_Unknown(t *testing.T) {
	j := &Job{Transformations: map[string]string{"name": "shout"}}
	_, err := j.Transforms()
	assert.ErrorIs(t, err, core.ErrUnknownTransform)
}

func TestColumnMapping_NilMeansAutoMap(t *testing.T) {
	assert.Nil(t, (&Job{}).ColumnMapping())
}
