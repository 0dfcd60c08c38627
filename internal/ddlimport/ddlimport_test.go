package ddlimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/value"
)

const createCustomers = `
CREATE TABLE customers (
	id BIGINT NOT NULL,
	name VARCHAR(255) NOT NULL,
	balance DECIMAL(10,2) NOT NULL,
	signed_up_at TIMESTAMP NOT NULL,
	birthday DATE,
	notes TEXT,
	PRIMARY KEY (id)
);
`

func TestImportBuildsOneDictionaryPerTable(t *testing.T) {
	dicts, err := Import(createCustomers)
	require.NoError(t, err)
	require.Contains(t, dicts, "customers")

	d := dicts["customers"]
	assert.True(t, d.Root)

	id := d.LookupAttribute("id")
	require.NotNil(t, id)
	assert.True(t, id.Key)
	assert.Equal(t, value.KindContinuous, id.Type)

	name := d.LookupAttribute("name")
	require.NotNil(t, name)
	assert.Equal(t, value.KindSymbol, name.Type)
	assert.False(t, name.Key)

	balance := d.LookupAttribute("balance")
	require.NotNil(t, balance)
	assert.Equal(t, value.KindContinuous, balance.Type)

	signedUp := d.LookupAttribute("signed_up_at")
	require.NotNil(t, signedUp)
	assert.Equal(t, value.KindTimestamp, signedUp.Type)
	assert.Equal(t, "YYYY-MM-DD hh:mm:ss", signedUp.Format)

	birthday := d.LookupAttribute("birthday")
	require.NotNil(t, birthday)
	assert.Equal(t, value.KindDate, birthday.Type)

	notes := d.LookupAttribute("notes")
	require.NotNil(t, notes)
	assert.Equal(t, value.KindText, notes.Type)
}

func TestImportIgnoresNonCreateTableStatements(t *testing.T) {
	dicts, err := Import("SELECT 1; " + createCustomers)
	require.NoError(t, err)
	assert.Len(t, dicts, 1)
}

func TestImportTableWithoutPrimaryKeyIsNotRoot(t *testing.T) {
	dicts, err := Import(`CREATE TABLE events (kind VARCHAR(32) NOT NULL, happened_at DATETIME NOT NULL);`)
	require.NoError(t, err)
	d := dicts["events"]
	assert.False(t, d.Root)
	assert.Equal(t, value.KindTimestamp, d.LookupAttribute("happened_at").Type)
}
