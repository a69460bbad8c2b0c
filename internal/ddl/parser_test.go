package ddl

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/sqlimport/internal/core"
)

type col struct {
	Name     string
	Type     string
	Nullable bool
}

func columns(s *core.TableSchema) []col {
	out := make([]col, len(s.Fields))
	for i, f := range s.Fields {
		out[i] = col{f.Name, f.SQLType, f.Nullable}
	}
	return out
}

func TestParse_MySQL(t *testing.T) {
	src := "-- dump header\n" +
		"DROP TABLE IF EXISTS `users`;\n" +
		"CREATE TABLE IF NOT EXISTS `users` (\n" +
		"  `id` int(11) NOT NULL AUTO_INCREMENT,\n" +
		"  `email` varchar(255) CHARACTER SET utf8mb4 NOT NULL,\n" +
		"  `full name` varchar(100) DEFAULT NULL COMMENT 'display, name',\n" +
		"  `balance` DECIMAL(10, 2) DEFAULT '0.00',\n" +
		"  `age` tinyint unsigned,\n" +
		"  `status` enum('active','on hold') NOT NULL DEFAULT 'active',\n" +
		"  `created_at` datetime DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,\n" +
		"  PRIMARY KEY (`id`),\n" +
		"  UNIQUE KEY `uq_email` (`email`),\n" +
		"  KEY `idx_created` (`created_at`),\n" +
		"  CONSTRAINT `fk_x` FOREIGN KEY (`id`) REFERENCES `other` (`id`)\n" +
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4;\n"

	tables, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tables, 1)

	assert.Equal(t, "users", tables[0].Name)
	assert.Equal(t, []col{
		{"id", "int(11)", false},
		{"email", "varchar(255)", false},
		{"full name", "varchar(100)", true},
		{"balance", "decimal(10,2)", true},
		{"age", "tinyint unsigned", true},
		{"status", "enum('active','on hold')", false},
		{"created_at", "datetime", true},
	}, columns(tables[0]))

	balance, ok := tables[0].Field("balance")
	require.True(t, ok)
	info := balance.Type()
	assert.True(t, info.HasPrecision)
	assert.Equal(t, 10, info.Precision)
	assert.Equal(t, 2, info.Scale)
}

func TestParse_Postgres(t *testing.T) {
	src := `
CREATE TABLE public.orders (
    id bigserial PRIMARY KEY,
    customer_id uuid NOT NULL REFERENCES customers(id),
    note character varying(200),
    total double precision DEFAULT 0,
    placed_at timestamp with time zone NOT NULL DEFAULT now(),
    payload jsonb,
    tags text[],
    CONSTRAINT positive_total CHECK (total >= 0)
);

/* second table */
CREATE UNLOGGED TABLE IF NOT EXISTS "Line Items" (
    "order_id" bigint,
    sku text,
    qty integer CHECK (qty > 0),
    UNIQUE (order_id, sku),
    PRIMARY KEY (order_id, sku)
);`

	tables, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tables, 2)

	assert.Equal(t, "orders", tables[0].Name)
	assert.Equal(t, []col{
		{"id", "bigserial", false},
		{"customer_id", "uuid", false},
		{"note", "character varying(200)", true},
		{"total", "double precision", true},
		{"placed_at", "timestamp with time zone", false},
		{"payload", "jsonb", true},
		{"tags", "text[]", true},
	}, columns(tables[0]))

	assert.Equal(t, "Line Items", tables[1].Name)
	assert.Equal(t, []col{
		{"order_id", "bigint", false},
		{"sku", "text", false},
		{"qty", "integer", true},
	}, columns(tables[1]))
}

func TestParse_MySQLTableOptionsAndKeys(t *testing.T) {
	src := "CREATE TABLE `audit_log` (\n" +
		"  `tenant` varchar(36) NOT NULL,\n" +
		"  `seq` bigint unsigned NOT NULL,\n" +
		"  `ok` bool DEFAULT '1',\n" +
		"  `ratio` double(8,3),\n" +
		"  `body` mediumtext,\n" +
		"  `tags` set('a','it''s'),\n" +
		"  PRIMARY KEY (`tenant`(8), `SEQ`) USING BTREE\n" +
		") ENGINE=InnoDB AUTO_INCREMENT=42 DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;"

	tables, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "audit_log", tables[0].Name)
	assert.Equal(t, []col{
		{"tenant", "varchar(36)", false},
		{"seq", "bigint unsigned", false},
		{"ok", "tinyint(1)", true},
		{"ratio", "double(8,3)", true},
		{"body", "mediumtext", true},
		{"tags", "set('a','it''s')", true},
	}, columns(tables[0]))
}

func TestMySQLParser_RejectsOtherDialects(t *testing.T) {
	my := newMySQLParser()

	_, _, err := my.parseCreateTable(`CREATE TABLE "quoted" (id bigserial PRIMARY KEY)`)
	assert.Error(t, err)

	_, _, err = my.parseCreateTable("SELECT 1")
	assert.Error(t, err)

	name, fields, err := my.parseCreateTable("CREATE TABLE db.t (id int PRIMARY KEY, n text)")
	require.NoError(t, err)
	assert.Equal(t, "t", name)
	require.Len(t, fields, 2)
	assert.False(t, fields[0].Nullable)
	assert.True(t, fields[1].Nullable)
}

func TestParse_SingleLineAndLowercase(t *testing.T) {
	tables, err := Parse("create table t (a int not null, b varchar(5), c date)")
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, []col{
		{"a", "int", false},
		{"b", "varchar(5)", true},
		{"c", "date", true},
	}, columns(tables[0]))
}

func TestParse_NoTables(t *testing.T) {
	for _, src := range []string{
		"",
		"SELECT 1;",
		"-- CREATE TABLE commented (a int)",
		"CREATE TABLE broken (a int",
		"CREATE TABLE only_keys (PRIMARY KEY (id))",
	} {
		_, err := Parse(src)
		assert.ErrorIs(t, err, ErrNoCreateTable, "input %q", src)
	}
}

func TestParse_NoTablesMapsToUserMessage(t *testing.T) {
	_, err := Parse("nothing here")
	require.Error(t, err)
	assert.Equal(t, "SCH003", core.MapError(err).Code)
}

func TestParse_DuplicateColumn(t *testing.T) {
	_, err := Parse("CREATE TABLE t (a int, a text)")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDuplicateField))
}

func TestParseReader(t *testing.T) {
	tables, err := ParseReader(strings.NewReader("CREATE TABLE x (id serial)"))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, "x", tables[0].Name)
}

func TestSplitTopLevel(t *testing.T) {
	got := splitTopLevel("a int, b decimal(10,2), c varchar(5) default 'x,y', d enum('p','q')")
	assert.Equal(t, []string{
		"a int",
		" b decimal(10,2)",
		" c varchar(5) default 'x,y'",
		" d enum('p','q')",
	}, got)
}
