package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/dictionary"
	"derivecore/internal/value"
)

func compiledDict(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.NewDictionary("Customer")
	d.Root = true
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "Id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "Age", Type: value.KindContinuous, Loaded: true}))

	block := &dictionary.AttributeBlock{Name: "Purchases", ValueType: value.KindContinuousValueBlock, Loaded: true}
	members := []*dictionary.Attribute{
		{Name: "Books", Type: value.KindContinuous, VarKey: value.NewSymbolKey(value.Intern("Books"))},
	}
	require.NoError(t, d.AddAttributeBlock(block, members))
	require.NoError(t, d.Compile())
	return d
}

func TestRecordDenseSlotsRoundTrip(t *testing.T) {
	d := compiledDict(t)
	r := New(d)

	idAttr := d.LookupAttribute("Id")
	ageAttr := d.LookupAttribute("Age")

	assert.True(t, r.GetContinuousValue(ageAttr).IsMissing())

	r.SetSymbolValue(idAttr, value.Intern("cust-1"))
	r.SetContinuousValue(ageAttr, value.Continuous(42))

	assert.Equal(t, "cust-1", r.GetSymbolValue(idAttr).String())
	assert.Equal(t, value.Continuous(42), r.GetContinuousValue(ageAttr))
}

func TestRecordBlockSlotOwnershipAndClone(t *testing.T) {
	d := compiledDict(t)
	r := New(d)
	block := d.LookupAttributeBlock("Purchases")

	blk := value.NewContinuousValueBlock(1)
	r.SetContinuousValueBlock(block, blk)

	clone := r.Clone()
	assert.NotSame(t, r.GetContinuousValueBlock(block), clone.GetContinuousValueBlock(block))
	assert.NotEqual(t, r.CreationIndex(), clone.CreationIndex())
}

func TestObjectArrayRejectsNilAndDuplicates(t *testing.T) {
	d := compiledDict(t)
	a := New(d)
	b := New(d)

	arr, err := NewObjectArrayFrom([]*Record{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, arr.Len())

	_, err = NewObjectArrayFrom([]*Record{a, nil})
	assert.Error(t, err)

	_, err = NewObjectArrayFrom([]*Record{a, a})
	assert.Error(t, err)
}
