package sqlsink

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mysql"

	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/value"
)

type testMySQLContainer struct {
	container *mysql.MySQLContainer
	dsn       string
}

func setupMySQL(t *testing.T) *testMySQLContainer {
	t.Helper()
	ctx := context.Background()

	mysqlContainer, err := mysql.Run(ctx, "mysql:8.0",
		mysql.WithDatabase("testdb"),
		mysql.WithUsername("root"),
		mysql.WithPassword("testpass"),
	)
	require.NoError(t, err, "failed to start MySQL container")

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(mysqlContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := mysqlContainer.ConnectionString(ctx, "parseTime=true")
	require.NoError(t, err, "failed to get connection string")

	return &testMySQLContainer{container: mysqlContainer, dsn: dsn}
}

func TestSinkWritesRecordsIntoMySQL(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	tc := setupMySQL(t)
	ctx := context.Background()

	d := dictionary.NewDictionary("Customers")
	d.Root = true
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "balance", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.Compile())

	sink, err := Open(ctx, d, Options{DSN: tc.dsn, Table: "customers", BatchSize: 2})
	require.NoError(t, err)
	require.NoError(t, sink.EnsureTable(ctx))

	rec1 := record.New(d)
	rec1.SetSymbolValue(d.LookupAttribute("id"), value.Intern("c1"))
	rec1.SetContinuousValue(d.LookupAttribute("balance"), 10)

	rec2 := record.New(d)
	rec2.SetSymbolValue(d.LookupAttribute("id"), value.Intern("c2"))
	rec2.SetContinuousValue(d.LookupAttribute("balance"), 20)

	require.NoError(t, sink.Write(rec1))
	require.NoError(t, sink.Write(rec2)) // batch size 2: flushes here
	require.NoError(t, sink.Close())

	db, err := sql.Open("mysql", tc.dsn)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM customers").Scan(&count))
	assert.Equal(t, 2, count)

	var balance float64
	require.NoError(t, db.QueryRowContext(ctx, "SELECT balance FROM customers WHERE id = ?", "c2").Scan(&balance))
	assert.Equal(t, 20.0, balance)
}
