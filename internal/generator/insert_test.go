package generator

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

func sampleStatement() Statement {
	return Statement{
		Table:   "users",
		Columns: []string{"name", "email"},
		Rows: [][]string{
			{"'Alice'", "'a@x.com'"},
			{"'O''Reilly'", "NULL"},
			{"'Bob'", "'b@x.com'"},
		},
	}
}

func TestStatementSQL_SingleBatch(t *testing.T) {
	got := sampleStatement().SQL(Options{})
	want := "INSERT INTO `users` (`name`, `email`) VALUES\n" +
		"('Alice', 'a@x.com'),\n" +
		"('O''Reilly', NULL),\n" +
		"('Bob', 'b@x.com');"
	assert.Equal(t, want, got)
}

func TestStatementSQL_PostgresBatches(t *testing.T) {
	opts := Options{Dialect: core.DialectPostgres, BatchSize: 2}
	s := sampleStatement()

	got := s.SQL(opts)
	want := "INSERT INTO \"users\" (\"name\", \"email\") VALUES\n" +
		"('Alice', 'a@x.com'),\n" +
		"('O''Reilly', NULL);\n\n" +
		"INSERT INTO \"users\" (\"name\", \"email\") VALUES\n" +
		"('Bob', 'b@x.com');"
	assert.Equal(t, want, got)
	assert.Equal(t, 2, s.Batches(opts))
	assert.Equal(t, 1, s.Batches(Options{}))
}

func TestStatementSQL_Empty(t *testing.T) {
	assert.Equal(t, "", Statement{Table: "t", Columns: []string{"a"}}.SQL(Options{}))
	assert.Equal(t, "", Statement{Table: "t", Rows: [][]string{{"1"}}}.SQL(Options{}))
	assert.Equal(t, 0, Statement{}.Batches(Options{BatchSize: 10}))
}

func TestStatementWrite_RowWidthMismatch(t *testing.T) {
	s := Statement{Table: "t", Columns: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	err := s.Write(io.Discard, Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0 has 1 values for 2 columns")
}

func TestStatementSQL_IdentifiersAreSanitized(t *testing.T) {
	s := Statement{Table: "my table`;--", Columns: []string{"first name"}, Rows: [][]string{{"1"}}}
	assert.Equal(t, "INSERT INTO `mytable` (`firstname`) VALUES\n(1);", s.SQL(Options{}))
}

func TestFromResult(t *testing.T) {
	schema, err := core.NewTableSchema("people", []core.FieldDescriptor{
		core.NewField("name", "varchar(20)", false),
		core.NewField("age", "int", true),
	})
	require.NoError(t, err)

	res, err := core.RunPipeline(context.Background(), core.PipelineInput{
		Schema: schema,
		Dataset: core.Dataset{
			Headers: []string{"Age", "Name"},
			Rows: [][]core.CellValue{
				{core.Number(30), core.Text("Ann")},
				{core.Text("x"), core.Text("Bad")},
			},
		},
		Mapping: core.ColumnMapping{"Name": "name", "Age": "age"},
	}, core.PipelineOptions{})
	require.NoError(t, err)

	s := FromResult(res)
	assert.Equal(t, "people", s.Table)
	assert.Equal(t, []string{"age", "name"}, s.Columns)
	assert.Equal(t, [][]string{{"30", "'Ann'"}}, s.Rows)
}

func TestWriteGzip(t *testing.T) {
	var buf bytes.Buffer
	s := sampleStatement()
	require.NoError(t, WriteGzip(&buf, s, Options{}))

	zr, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	defer zr.Close()
	assert.Equal(t, "users.sql", zr.Name)

	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, s.SQL(Options{}), string(plain))
}

func TestWriteZstd(t *testing.T) {
	var buf bytes.Buffer
	s := sampleStatement()
	require.NoError(t, s.WriteCompressed(&buf, Options{BatchSize: 1}, CompressionZstd))

	zr, err := zstd.NewReader(&buf)
	require.NoError(t, err)
	defer zr.Close()

	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, s.SQL(Options{BatchSize: 1}), string(plain))
}

func TestParseCompression(t *testing.T) {
	tests := []struct {
		input string
		want  Compression
		ext   string
	}{
		{"", CompressionNone, ".sql"},
		{"none", CompressionNone, ".sql"},
		{"GZIP", CompressionGzip, ".sql.gz"},
		{"gz", CompressionGzip, ".sql.gz"},
		{"zstd", CompressionZstd, ".sql.zst"},
	}
	for _, tt := range tests {
		got, err := ParseCompression(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got, tt.input)
		assert.Equal(t, tt.ext, got.Extension(), tt.input)
	}

	_, err := ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrUnknownCompression)
	assert.ErrorIs(t, sampleStatement().WriteCompressed(io.Discard, Options{}, "lz4"), ErrUnknownCompression)
}
