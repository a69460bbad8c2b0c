package ddl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.sql")
	b := filepath.Join(dir, "b.sql")
	require.NoError(t, os.WriteFile(a, []byte("CREATE TABLE one (id int); CREATE TABLE two (x text);"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("CREATE TABLE three (y date);"), 0o644))

	tables, err := ParseFiles(a, b)
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, "three", tables[2].Name)
}

func TestParseFiles_Errors(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.sql")
	require.NoError(t, os.WriteFile(empty, []byte("-- nothing"), 0o644))

	_, err := ParseFiles(empty)
	assert.ErrorIs(t, err, ErrNoCreateTable)
	assert.Contains(t, err.Error(), "empty.sql")

	_, err = ParseFiles(filepath.Join(dir, "missing.sql"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
