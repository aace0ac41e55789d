package toml

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/doubleninth99/mysql-sync/internal/core"
	"github.com/doubleninth99/mysql-sync/internal/diff"
)

const sampleSnapshot = `
[database]
name = "app"
dialect = "mysql"

[[tables]]
name = "users"
engine = "InnoDB"
collation = "utf8mb4_bin"
comment = "people"
create_sql = "CREATE TABLE ` + "`users`" + ` (` + "`id`" + ` int NOT NULL)"

[[tables.columns]]
name = "id"
type = "int"
full_type = "int"
nullable = false
extra = "auto_increment"

[[tables.columns]]
name = "nickname"
type = "varchar"
full_type = "varchar(32)"
nullable = true
default_null = true
length = 32

[[tables.columns]]
name = "score"
type = "int"
full_type = "int"
nullable = false
default = 0

[[tables.indexes]]
name = "PRIMARY"
unique = true
type = "BTREE"

[[tables.indexes.columns]]
name = "id"

[[tables.indexes]]
name = "idx_nick"
unique = false
type = "BTREE"

[[tables.indexes.columns]]
name = "nickname"
sub_part = 8

[[tables.foreign_keys]]
name = "fk_team"
columns = ["id"]
referenced_table = "teams"
referenced_columns = ["id"]
on_delete = "CASCADE"
`

func TestParseSnapshot(t *testing.T) {
	s, err := NewParser().Parse(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)
	assert.Equal(t, "app", s.Name)

	users := s.Table("users")
	require.NotNil(t, users)
	assert.Equal(t, "InnoDB", users.Engine)
	assert.Equal(t, "utf8mb4_bin", users.Collation)
	assert.Equal(t, "people", users.Comment)
	assert.Contains(t, users.CreateSQL, "CREATE TABLE")

	assert.Equal(t, []string{"id", "nickname", "score"}, users.Columns.Keys())
	assert.Equal(t, core.Default{}, users.Column("id").Default)
	assert.Equal(t, core.NullDefault(), users.Column("nickname").Default)
	assert.Equal(t, core.LiteralDefault(int64(0)), users.Column("score").Default)
	require.NotNil(t, users.Column("nickname").Length)
	assert.Equal(t, int64(32), *users.Column("nickname").Length)

	idx := users.Index("idx_nick")
	require.NotNil(t, idx)
	require.Len(t, idx.Columns, 1)
	assert.Equal(t, 1, idx.Columns[0].Seq)
	require.NotNil(t, idx.Columns[0].SubPart)
	assert.Equal(t, 8, *idx.Columns[0].SubPart)

	fk := users.ForeignKey("fk_team")
	require.NotNil(t, fk)
	assert.Equal(t, "users", fk.Table)
	assert.Equal(t, "CASCADE", fk.DeleteRule)
	assert.Empty(t, fk.UpdateRule)
}

func TestParseSnapshotErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "invalid toml",
			input:   "[[tables]\nname=",
			wantErr: "decode error",
		},
		{
			name:    "unknown key",
			input:   "[[tables]]\nname = \"a\"\ncolour = \"red\"\n",
			wantErr: "unknown keys",
		},
		{
			name:    "unsupported dialect",
			input:   "[database]\ndialect = \"oracle\"\n",
			wantErr: "unsupported dialect",
		},
		{
			name:    "missing table name",
			input:   "[[tables]]\nengine = \"InnoDB\"\n",
			wantErr: "name is required",
		},
		{
			name:    "duplicate table",
			input:   "[[tables]]\nname = \"a\"\n[[tables]]\nname = \"a\"\n",
			wantErr: "more than once",
		},
		{
			name:    "conflicting default",
			input:   "[[tables]]\nname = \"a\"\n[[tables.columns]]\nname = \"c\"\nfull_type = \"int\"\nnullable = true\ndefault = 1\ndefault_null = true\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "column without type",
			input:   "[[tables]]\nname = \"a\"\n[[tables.columns]]\nname = \"c\"\nnullable = true\n",
			wantErr: "invalid schema",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	original, err := NewParser().Parse(strings.NewReader(sampleSnapshot))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, original))

	decoded, err := NewParser().Parse(&buf)
	require.NoError(t, err)

	d, err := diff.Compare(decoded, original)
	require.NoError(t, err)
	assert.True(t, d.IsEmpty(), d.String())

	assert.Equal(t, original.Table("users").Column("nickname").Default, decoded.Table("users").Column("nickname").Default)
	assert.Equal(t, original.Table("users").Column("score").Default, decoded.Table("users").Column("score").Default)
	assert.Equal(t, original.Table("users").Columns.Keys(), decoded.Table("users").Columns.Keys())
}

func TestWriteFileAndParseFile(t *testing.T) {
	s := core.NewSchema("shop")
	orders := core.NewTable("orders")
	orders.AddColumn(&core.Column{Name: "id", Type: "bigint", FullType: "bigint unsigned"})
	orders.AddColumn(&core.Column{Name: "status", Type: "varchar", FullType: "varchar(8)", Default: core.StringDefault("new")})
	orders.AddColumn(&core.Column{Name: "ratio", Type: "double", FullType: "double", Default: core.LiteralDefault(0.5)})
	s.AddTable(orders)

	path := filepath.Join(t.TempDir(), "shop.toml")
	require.NoError(t, WriteFile(path, s))

	got, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "shop", got.Name)
	assert.Equal(t, core.StringDefault("new"), got.Table("orders").Column("status").Default)
	assert.Equal(t, core.LiteralDefault(0.5), got.Table("orders").Column("ratio").Default)
	assert.Equal(t, core.Default{}, got.Table("orders").Column("id").Default)
}

func TestParseFileMissing(t *testing.T) {
	_, err := NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
