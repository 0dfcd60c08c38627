package dictionary

import (
	"testing"

	"derivecore/internal/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRule struct {
	name    string
	kind    value.Kind
	refs    []string
	defErr  error
	compErr error
}

func (r *stubRule) Name() string                  { return r.name }
func (r *stubRule) ResultKind() value.Kind         { return r.kind }
func (r *stubRule) StructureType() string          { return "" }
func (r *stubRule) ReferencedAttributes() []string { return r.refs }
func (r *stubRule) CheckDefinition() error         { return r.defErr }
func (r *stubRule) CheckCompleteness(*Dictionary) error { return r.compErr }

func TestCompileAssignsContiguousLoadIndexes(t *testing.T) {
	d := NewDictionary("Person")
	d.Root = true
	require.NoError(t, d.AddAttribute(&Attribute{Name: "Id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&Attribute{Name: "Age", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.AddAttribute(&Attribute{Name: "Internal", Type: value.KindContinuous, Loaded: false}))

	require.NoError(t, d.Compile())

	assert.Equal(t, 0, d.LookupAttribute("Id").LoadIndex)
	assert.Equal(t, 1, d.LookupAttribute("Age").LoadIndex)
	assert.Equal(t, -1, d.LookupAttribute("Internal").LoadIndex)
	assert.EqualValues(t, 1, d.Freshness())
}

func TestAddAttributeRejectsDuplicateName(t *testing.T) {
	d := NewDictionary("Person")
	require.NoError(t, d.AddAttribute(&Attribute{Name: "Id", Type: value.KindSymbol}))
	err := d.AddAttribute(&Attribute{Name: "Id", Type: value.KindContinuous})
	require.Error(t, err)
	var schemaErr *InvalidSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, DuplicateName, schemaErr.Kind)
}

func TestCompileRejectsEmptyRootKey(t *testing.T) {
	d := NewDictionary("Person")
	d.Root = true
	require.NoError(t, d.AddAttribute(&Attribute{Name: "Age", Type: value.KindContinuous, Loaded: true}))

	err := d.Compile()
	require.Error(t, err)
	var schemaErr *InvalidSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, EmptyRootKey, schemaErr.Kind)
}

func TestCompileRejectsDerivedKeyAttribute(t *testing.T) {
	d := NewDictionary("Person")
	d.Root = true
	require.NoError(t, d.AddAttribute(&Attribute{
		Name: "Id", Type: value.KindSymbol, Key: true, Loaded: true,
		Rule: &stubRule{name: "Copy", kind: value.KindSymbol},
	}))

	err := d.Compile()
	require.Error(t, err)
	var schemaErr *InvalidSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, DerivedKeyAttribute, schemaErr.Kind)
}

func TestCompileRejectsUndefinedReference(t *testing.T) {
	d := NewDictionary("Person")
	require.NoError(t, d.AddAttribute(&Attribute{
		Name: "Doubled", Type: value.KindContinuous, Loaded: true,
		Rule: &stubRule{name: "Times2", kind: value.KindContinuous, refs: []string{"Missing"}},
	}))

	err := d.Compile()
	require.Error(t, err)
	var schemaErr *InvalidSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, UndefinedReference, schemaErr.Kind)
}

func TestCompileRejectsCyclicDerivation(t *testing.T) {
	d := NewDictionary("Person")
	require.NoError(t, d.AddAttribute(&Attribute{
		Name: "A", Type: value.KindContinuous, Loaded: true,
		Rule: &stubRule{name: "r1", kind: value.KindContinuous, refs: []string{"B"}},
	}))
	require.NoError(t, d.AddAttribute(&Attribute{
		Name: "B", Type: value.KindContinuous, Loaded: true,
		Rule: &stubRule{name: "r2", kind: value.KindContinuous, refs: []string{"A"}},
	}))

	err := d.Compile()
	require.Error(t, err)
	var schemaErr *InvalidSchemaError
	require.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, CyclicDerivation, schemaErr.Kind)
}

func TestAttributeBlockAssignsSparseIndexesAndLoadIndex(t *testing.T) {
	d := NewDictionary("Customer")
	block := &AttributeBlock{Name: "Purchases", ValueType: value.KindContinuousValueBlock, Loaded: true}
	members := []*Attribute{
		{Name: "Books", Type: value.KindContinuous, VarKey: value.NewSymbolKey(value.Intern("Books"))},
		{Name: "Food", Type: value.KindContinuous, VarKey: value.NewSymbolKey(value.Intern("Food"))},
	}
	require.NoError(t, d.AddAttributeBlock(block, members))
	require.NoError(t, d.Compile())

	b := d.LookupAttributeBlock("Purchases")
	require.NotNil(t, b)
	assert.Equal(t, 0, b.LoadIndex)
	assert.Equal(t, 2, b.Keys.KeyCount())

	food := d.LookupAttribute("Food")
	require.NotNil(t, food)
	assert.Equal(t, "Purchases", food.BlockName)
}

func TestLookupDataItem(t *testing.T) {
	d := NewDictionary("Customer")
	require.NoError(t, d.AddAttribute(&Attribute{Name: "Name", Type: value.KindSymbol, Loaded: true}))

	item, ok := d.LookupDataItem("Name")
	require.True(t, ok)
	assert.NotNil(t, item.Attribute)
	assert.Nil(t, item.Block)

	_, ok = d.LookupDataItem("DoesNotExist")
	assert.False(t, ok)
}
