package dictddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/dictionary"
	"derivecore/internal/value"
)

func TestGenerateCreateTableWithPrimaryKey(t *testing.T) {
	d := dictionary.NewDictionary("Customers")
	d.Root = true
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "balance", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.Compile())

	var g Generator
	ddl := g.GenerateCreateTable("customers", d)

	assert.Contains(t, ddl, "CREATE TABLE `customers` (")
	assert.Contains(t, ddl, "`id` VARCHAR(255) NULL")
	assert.Contains(t, ddl, "`balance` DOUBLE NULL")
	assert.Contains(t, ddl, "PRIMARY KEY (`id`)")
}

func TestGenerateCreateTableWithoutKeySkipsPrimaryKeyClause(t *testing.T) {
	d := dictionary.NewDictionary("Events")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "kind", Type: value.KindSymbol, Loaded: true}))
	require.NoError(t, d.Compile())

	var g Generator
	ddl := g.GenerateCreateTable("events", d)
	assert.NotContains(t, ddl, "PRIMARY KEY")
}

func TestGenerateCreateTableSkipsUnloadedAttributes(t *testing.T) {
	d := dictionary.NewDictionary("Partial")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "visible", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "hidden", Type: value.KindContinuous, Loaded: false}))
	require.NoError(t, d.Compile())

	var g Generator
	ddl := g.GenerateCreateTable("partial", d)
	assert.Contains(t, ddl, "`visible`")
	assert.NotContains(t, ddl, "`hidden`")
}
