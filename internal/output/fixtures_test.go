package output

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/doubleninth99/mysql-sync/internal/core"
	mysqldialect "github.com/doubleninth99/mysql-sync/internal/dialect/mysql"
	"github.com/doubleninth99/mysql-sync/internal/diff"
	"github.com/doubleninth99/mysql-sync/internal/migration"
)

func column(name, fullType string) *core.Column {
	return &core.Column{Name: name, Type: fullType, FullType: fullType}
}

func primary(cols ...string) *core.Index {
	idx := &core.Index{Name: core.PrimaryIndexName, Unique: true, Type: "BTREE"}
	for i, c := range cols {
		idx.Columns = append(idx.Columns, core.IndexColumn{Name: c, Seq: i + 1})
	}
	return idx
}

// sampleDiff yields users MODIFIED (+name), orders NEW and logs DELETED.
func sampleDiff(t *testing.T) *diff.SchemaDiff {
	t.Helper()

	srcUsers := core.NewTable("users")
	srcUsers.AddColumn(column("id", "int"))
	srcUsers.AddColumn(column("name", "varchar(255)"))
	srcUsers.AddIndex(primary("id"))

	orders := core.NewTable("orders")
	orders.CreateSQL = "CREATE TABLE `orders` (\n  `id` int NOT NULL,\n  `total` decimal(10,2) NOT NULL,\n  PRIMARY KEY (`id`)\n)"
	orders.AddColumn(column("id", "int"))
	orders.AddColumn(column("total", "decimal(10,2)"))
	orders.AddIndex(primary("id"))

	source := core.NewSchema("app")
	source.AddTable(srcUsers)
	source.AddTable(orders)

	tgtUsers := core.NewTable("users")
	tgtUsers.AddColumn(column("id", "int"))
	tgtUsers.AddIndex(primary("id"))

	logs := core.NewTable("logs")
	logs.AddColumn(column("msg", "text"))

	target := core.NewSchema("app")
	target.AddTable(tgtUsers)
	target.AddTable(logs)

	d, err := diff.Compare(source, target)
	require.NoError(t, err)
	return d
}

func sampleScript(t *testing.T) *migration.Script {
	t.Helper()
	return mysqldialect.NewMySQLGenerator().Generate(sampleDiff(t))
}
