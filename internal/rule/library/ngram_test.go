package library

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func TestTokenizeNormalizesWhitespace(t *testing.T) {
	tz := newTokenize(rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("  hello   world  "))))
	assert.Equal(t, "hello world", tz.ComputeSymbolResult(nil).String())
}

func TestComputeCharNGramCountsIsDeterministic(t *testing.T) {
	// Only the first four 1-gram hash tables (sizes 1+16+32+64=113 keys).
	total := ngramTableCumulative[3] + ngramTableSizes[3]
	keys := make([]value.VarKey, total)
	for i := range keys {
		keys[i] = value.NewIntKey(i + 1)
	}
	keyBlock := value.NewIndexedKeyBlock(keys)

	a := computeCharNGramCounts([]byte("hello world"), keyBlock)
	b := computeCharNGramCounts([]byte("hello world"), keyBlock)
	assert.Equal(t, a, b)

	empty := computeCharNGramCounts([]byte(""), keyBlock)
	assert.Empty(t, empty)
}

func TestTokenCountsRuleCountsKnownTokens(t *testing.T) {
	keys := []value.VarKey{value.NewSymbolKey(value.Intern("cat")), value.NewSymbolKey(value.Intern("dog"))}
	keyBlock := value.NewIndexedKeyBlock(keys)

	tc := newTokenCounts(rule.NewConstantOperand(value.ScalarFromSymbol(value.Intern("cat dog cat fox"))))
	require := assert.New(t)
	require.NoError(tc.DynamicCompile(keyBlock))

	result := tc.ComputeContinuousValueBlockResult(nil)
	require.Equal(value.Continuous(2), result.GetValueAtIndex(keyBlock.GetKeyIndex(value.NewSymbolKey(value.Intern("cat"))), 0))
	require.Equal(value.Continuous(1), result.GetValueAtIndex(keyBlock.GetKeyIndex(value.NewSymbolKey(value.Intern("dog"))), 0))
}

func TestNGramScheduleIsMonotoneByPrefix(t *testing.T) {
	assert.Equal(t, 1, ngramTableLengths[0])
	assert.Equal(t, 1, ngramTableLengths[4])
	assert.Equal(t, 2, ngramTableLengths[5])
	assert.Equal(t, 2, ngramTableLengths[7])
	assert.Equal(t, 3, ngramTableLengths[8])
	assert.Equal(t, 3, ngramTableLengths[10])
	assert.Equal(t, 4, ngramTableLengths[11])
	assert.Equal(t, 4, ngramTableLengths[12])
	assert.Equal(t, 1, ngramTableSizes[0])
	assert.Equal(t, 128, ngramTableSizes[4])
	assert.Equal(t, 32768, ngramTableSizes[12])
}
