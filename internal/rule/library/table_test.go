package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func itemDictionary(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.NewDictionary("Item")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "Id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "Price", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.Compile())
	return d
}

func newItem(t *testing.T, d *dictionary.Dictionary, id string, price value.Continuous) *record.Record {
	t.Helper()
	r := record.New(d)
	r.SetSymbolValue(d.LookupAttribute("Id"), value.Intern(id))
	r.SetContinuousValue(d.LookupAttribute("Price"), price)
	return r
}

func TestExistAndGetValueC(t *testing.T) {
	d := itemDictionary(t)
	item := newItem(t, d, "a", 9)

	main := record.New(d) // reuse Item dictionary as a stand-in scope carrying an Object attribute
	main.SetObjectValue("Basket", item)

	existRule := newExist(rule.NewAttributeOperand("Basket", value.KindObject))
	existRule.Operands()[0].Type = value.KindObject

	priceAccessor := newCopyContinuous(rule.NewAttributeOperand("Price", value.KindContinuous))
	require.NoError(t, priceAccessor.CheckCompleteness(d))
	require.NoError(t, priceAccessor.Compile(d))

	getValue := newGetValueC(rule.NewAttributeOperand("Basket", value.KindObject), rule.NewRuleOperand(priceAccessor))
	assert.Equal(t, value.Continuous(9), getValue.ComputeContinuousResult(main))
	assert.Equal(t, booleanTrue, existRule.ComputeContinuousResult(main))

	main.SetObjectValue("Basket", nil)
	assert.True(t, getValue.ComputeContinuousResult(main).IsMissing())
	assert.Equal(t, booleanFalse, existRule.ComputeContinuousResult(main))
}

func TestTableAtAndExtractionAndSort(t *testing.T) {
	d := itemDictionary(t)
	a := newItem(t, d, "b", 2)
	b := newItem(t, d, "a", 5)
	c := newItem(t, d, "c", 1)
	arr, err := record.NewObjectArrayFrom([]*record.Record{a, b, c})
	require.NoError(t, err)

	main := record.New(d)
	main.SetObjectArrayValue("Items", arr)

	at := newTableAt(rule.NewAttributeOperand("Items", value.KindObjectArray), rule.NewConstantOperand(value.ScalarFromContinuous(2)))
	assert.Same(t, b, at.ComputeObjectResult(main))

	outOfRange := newTableAt(rule.NewAttributeOperand("Items", value.KindObjectArray), rule.NewConstantOperand(value.ScalarFromContinuous(99)))
	assert.Nil(t, outOfRange.ComputeObjectResult(main))

	priceKey := newCopyContinuous(rule.NewAttributeOperand("Price", value.KindContinuous))
	require.NoError(t, priceKey.CheckCompleteness(d))
	require.NoError(t, priceKey.Compile(d))
	sortRule := newTableSort(rule.NewAttributeOperand("Items", value.KindObjectArray), rule.NewRuleOperand(priceKey))
	sorted := sortRule.ComputeObjectArrayResult(main)
	require.Equal(t, 3, sorted.Len())
	assert.Same(t, c, sorted.At(0))
	assert.Same(t, a, sorted.At(1))
	assert.Same(t, b, sorted.At(2))

	extraction := newTableExtraction(
		rule.NewAttributeOperand("Items", value.KindObjectArray),
		rule.NewConstantOperand(value.ScalarFromContinuous(2)),
		rule.NewConstantOperand(value.ScalarFromContinuous(3)),
	)
	ext := extraction.ComputeObjectArrayResult(main)
	require.Equal(t, 2, ext.Len())
	assert.Same(t, b, ext.At(0))
	assert.Same(t, c, ext.At(1))
}

func TestTableSetOps(t *testing.T) {
	d := itemDictionary(t)
	a := newItem(t, d, "a", 1)
	b := newItem(t, d, "b", 2)
	c := newItem(t, d, "c", 3)

	arrA, _ := record.NewObjectArrayFrom([]*record.Record{a, b})
	arrB, _ := record.NewObjectArrayFrom([]*record.Record{b, c})

	union := applyTableSetOp("TableUnion", arrA, arrB)
	assert.Equal(t, 3, union.Len())
	assert.Same(t, a, union.At(0))
	assert.Same(t, b, union.At(1))
	assert.Same(t, c, union.At(2))

	inter := applyTableSetOp("TableIntersection", arrA, arrB)
	assert.Equal(t, 1, inter.Len())
	assert.Same(t, b, inter.At(0))

	diff := applyTableSetOp("TableDifference", arrA, arrB)
	assert.Equal(t, 1, diff.Len())
	assert.Same(t, a, diff.At(0))
}

func TestTableAtKeyLinearSearch(t *testing.T) {
	d := itemDictionary(t)
	a := newItem(t, d, "a", 1)
	b := newItem(t, d, "b", 2)
	arr, _ := record.NewObjectArrayFrom([]*record.Record{a, b})

	main := record.New(d)
	main.SetObjectArrayValue("Items", arr)

	lookup := newTableAtKey(
		rule.NewAttributeOperand("Items", value.KindObjectArray),
		rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("b"))),
	)
	assert.Same(t, b, lookup.ComputeObjectResult(main))
}
