package library

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func newTestItems(t *testing.T, prices []value.Continuous, labels []string) *record.Record {
	t.Helper()
	d := itemDictionary(t)
	elems := make([]*record.Record, len(prices))
	for i := range prices {
		label := ""
		if i < len(labels) {
			label = labels[i]
		}
		elems[i] = newItem(t, d, label, prices[i])
	}
	arr, err := record.NewObjectArrayFrom(elems)
	require.NoError(t, err)
	main := record.New(d)
	main.SetObjectArrayValue("Items", arr)
	return main
}

func priceOperand(t *testing.T) rule.Operand {
	t.Helper()
	d := itemDictionary(t)
	r := newCopyContinuous(rule.NewAttributeOperand("Price", value.KindContinuous))
	require.NoError(t, r.CheckCompleteness(d))
	require.NoError(t, r.Compile(d))
	return rule.NewRuleOperand(r)
}

func idOperand(t *testing.T) rule.Operand {
	t.Helper()
	d := itemDictionary(t)
	r := newCopySymbol(rule.NewAttributeOperand("Id", value.KindSymbol))
	require.NoError(t, r.CheckCompleteness(d))
	require.NoError(t, r.Compile(d))
	return rule.NewRuleOperand(r)
}

func TestTableMeanSkipsMissing(t *testing.T) {
	main := newTestItems(t, []value.Continuous{1, value.Missing, 3}, nil)
	agg := newTableNumericAgg("TableMean", aggMean, aggMeanFromBlock, rule.NewAttributeOperand("Items", value.KindObjectArray), priceOperand(t))
	assert.Equal(t, value.Continuous(2), agg.ComputeContinuousResult(main))

	empty := newTestItems(t, nil, nil)
	assert.True(t, agg.ComputeContinuousResult(empty).IsMissing())
}

func TestTableModeLexicographicTieBreak(t *testing.T) {
	main := newTestItems(t, []value.Continuous{1, 1, 1, 1}, []string{"b", "a", "a", "b"})
	mode := newTableMode(rule.NewAttributeOperand("Items", value.KindObjectArray), idOperand(t))
	assert.Equal(t, "a", mode.ComputeSymbolResult(main).String())
}

func TestTableCountAndCountSum(t *testing.T) {
	main := newTestItems(t, []value.Continuous{1, 2, 3}, nil)
	count := newTableCount(rule.NewAttributeOperand("Items", value.KindObjectArray))
	assert.Equal(t, value.Continuous(3), count.ComputeContinuousResult(main))

	empty := newTestItems(t, nil, nil)
	assert.Equal(t, value.Continuous(0), count.ComputeContinuousResult(empty))

	countSum := newTableCountSum(rule.NewAttributeOperand("Items", value.KindObjectArray), priceOperand(t))
	assert.Equal(t, value.Continuous(0), countSum.ComputeContinuousResult(empty))
	assert.Equal(t, value.Continuous(6), countSum.ComputeContinuousResult(main))
}

func TestTableMinMaxSumMedianStdDev(t *testing.T) {
	main := newTestItems(t, []value.Continuous{1, 2, 3, 4}, nil)
	min := newTableNumericAgg("TableMin", aggMin, aggMinFromBlock, rule.NewAttributeOperand("Items", value.KindObjectArray), priceOperand(t))
	max := newTableNumericAgg("TableMax", aggMax, aggMaxFromBlock, rule.NewAttributeOperand("Items", value.KindObjectArray), priceOperand(t))
	sum := newTableNumericAgg("TableSum", aggSum, aggSumFromBlock, rule.NewAttributeOperand("Items", value.KindObjectArray), priceOperand(t))
	median := newTableNumericAgg("TableMedian", aggMedian, aggMedianFromBlock, rule.NewAttributeOperand("Items", value.KindObjectArray), priceOperand(t))
	stddev := newTableNumericAgg("TableStdDev", aggStdDev, aggStdDevFromBlock, rule.NewAttributeOperand("Items", value.KindObjectArray), priceOperand(t))

	assert.Equal(t, value.Continuous(1), min.ComputeContinuousResult(main))
	assert.Equal(t, value.Continuous(4), max.ComputeContinuousResult(main))
	assert.Equal(t, value.Continuous(10), sum.ComputeContinuousResult(main))
	assert.Equal(t, value.Continuous(2.5), median.ComputeContinuousResult(main))
	assert.InDelta(t, 1.1180339887, float64(stddev.ComputeContinuousResult(main)), 1e-9)
}

func TestTableCountDistinctAndEntropy(t *testing.T) {
	main := newTestItems(t, []value.Continuous{1, 1, 1, 1}, []string{"a", "a", "b", "b"})
	distinct := newTableCountDistinct(rule.NewAttributeOperand("Items", value.KindObjectArray), idOperand(t))
	assert.Equal(t, value.Continuous(2), distinct.ComputeContinuousResult(main))

	entropy := newTableEntropy(rule.NewAttributeOperand("Items", value.KindObjectArray), idOperand(t))
	assert.InDelta(t, 0.6931471805599453, float64(entropy.ComputeContinuousResult(main)), 1e-9)
}

func TestTableTrendSlope(t *testing.T) {
	d := itemDictionary(t)
	items := []*record.Record{
		newItem(t, d, "a", 1),
		newItem(t, d, "b", 2),
		newItem(t, d, "c", 3),
	}
	arr, err := record.NewObjectArrayFrom(items)
	require.NoError(t, err)
	main := record.New(d)
	main.SetObjectArrayValue("Items", arr)

	yIsX := priceOperand(t)
	trend := newTableTrend(rule.NewAttributeOperand("Items", value.KindObjectArray), yIsX, priceOperand(t))
	assert.InDelta(t, 1.0, float64(trend.ComputeContinuousResult(main)), 1e-9)
}

func TestTableConcat(t *testing.T) {
	main := newTestItems(t, []value.Continuous{1, 1, 1}, []string{"x", "y", "z"})
	concat := newTableConcat(rule.NewAttributeOperand("Items", value.KindObjectArray), idOperand(t))
	assert.Equal(t, "x y z", concat.ComputeSymbolResult(main).String())

	empty := newTestItems(t, nil, nil)
	assert.Equal(t, "", concat.ComputeSymbolResult(empty).String())
}
