package sqlsink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/value"
)

func pairDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.NewDictionary("Pair")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "score", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.Compile())
	return d
}

func TestBuildInsertPrefixQuotesTableAndColumns(t *testing.T) {
	d := pairDictionary(t)
	s := &Sink{dict: d, table: "scores"}
	for _, name := range d.AttributeNames() {
		s.attrCols = append(s.attrCols, d.LookupAttribute(name))
	}
	prefix := s.buildInsertPrefix()
	assert.Equal(t, "INSERT INTO `scores` (`id`, `score`) VALUES ", prefix)
}

func TestAttrSQLValueReturnsNilForMissingContinuous(t *testing.T) {
	d := pairDictionary(t)
	rec := record.New(d)
	rec.SetContinuousValue(d.LookupAttribute("score"), value.Missing)
	assert.Nil(t, attrSQLValue(d.LookupAttribute("score"), rec))
}

func TestAttrSQLValueReturnsFloatForPresentContinuous(t *testing.T) {
	d := pairDictionary(t)
	rec := record.New(d)
	rec.SetContinuousValue(d.LookupAttribute("score"), 4.5)
	assert.Equal(t, 4.5, attrSQLValue(d.LookupAttribute("score"), rec))
}

func TestAttrSQLValueReturnsNilForEmptySymbol(t *testing.T) {
	d := pairDictionary(t)
	rec := record.New(d)
	assert.Nil(t, attrSQLValue(d.LookupAttribute("id"), rec))
}

func TestAttrSQLValueReturnsStringForSetSymbol(t *testing.T) {
	d := pairDictionary(t)
	rec := record.New(d)
	rec.SetSymbolValue(d.LookupAttribute("id"), value.Intern("k1"))
	assert.Equal(t, "k1", attrSQLValue(d.LookupAttribute("id"), rec))
}
