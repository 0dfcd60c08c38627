package tomlschema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/value"
)

const sampleDoc = `
[dictionary]
name = "Customer"
root = true

[[dictionary.fields]]
name = "Id"
type = "Symbol"
key = true
loaded = true

[[dictionary.fields]]
name = "Age"
type = "Continuous"
loaded = true

[[dictionary.blocks]]
name = "Purchases"
value_type = "Continuous"
loaded = true
var_keys = ["Books", "Food"]
default_value = "0"
`

func TestParseBuildsCompilableDictionary(t *testing.T) {
	d, err := Parse(strings.NewReader(sampleDoc))
	require.NoError(t, err)
	require.NoError(t, d.Compile())

	id := d.LookupAttribute("Id")
	require.NotNil(t, id)
	assert.Equal(t, value.KindSymbol, id.Type)
	assert.True(t, id.Key)

	block := d.LookupAttributeBlock("Purchases")
	require.NotNil(t, block)
	assert.Equal(t, 2, block.Keys.KeyCount())
}

func TestParseRejectsUnknownType(t *testing.T) {
	const doc = `
[dictionary]
name = "Bad"

[[dictionary.fields]]
name = "X"
type = "Blob"
`
	_, err := Parse(strings.NewReader(doc))
	require.Error(t, err)
}
