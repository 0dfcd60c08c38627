package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intKeyBlock(n int) *IndexedKeyBlock {
	keys := make([]VarKey, n)
	for i := range keys {
		keys[i] = NewIntKey(i)
	}
	return NewIndexedKeyBlock(keys)
}

// TestContinuousBlockRoundTrip covers spec.md §8 property 2: a block
// built from a "key:value ..." field, then re-serialized through
// WriteField, reproduces the same explicit pairs, and every index not
// explicitly stored falls back to the caller's default.
func TestContinuousBlockRoundTrip(t *testing.T) {
	kb := intKeyBlock(5)
	block, err := BuildContinuousBlockFromField(kb, "3:1.5 0:2 4:-1", func(s string) VarKey {
		n := 0
		for _, c := range s {
			n = n*10 + int(c-'0')
		}
		return NewIntKey(n)
	})
	require.NoError(t, err)
	require.Equal(t, 3, block.Size())

	assert.Equal(t, Continuous(2), block.GetValueAtIndex(0, -99))
	assert.Equal(t, Continuous(-99), block.GetValueAtIndex(1, -99))
	assert.Equal(t, Continuous(-99), block.GetValueAtIndex(2, -99))
	assert.Equal(t, Continuous(1.5), block.GetValueAtIndex(3, -99))
	assert.Equal(t, Continuous(-1), block.GetValueAtIndex(4, -99))

	field := block.WriteField(kb)
	reparsed, err := BuildContinuousBlockFromField(kb, field, func(s string) VarKey {
		n := 0
		for _, c := range s {
			n = n*10 + int(c-'0')
		}
		return NewIntKey(n)
	})
	require.NoError(t, err)
	require.Equal(t, block.Size(), reparsed.Size())
	for i := 0; i < block.Size(); i++ {
		assert.Equal(t, block.IndexAt(i), reparsed.IndexAt(i))
		assert.Equal(t, block.ValueAt(i), reparsed.ValueAt(i))
	}
}

func TestContinuousBlockDuplicateKeyIsError(t *testing.T) {
	kb := intKeyBlock(2)
	_, err := BuildContinuousBlockFromField(kb, "0:1 0:2", func(s string) VarKey { return NewIntKey(int(s[0] - '0')) })
	require.Error(t, err)
	var parseErr *BlockParseError
	require.ErrorAs(t, err, &parseErr)
}

// TestExtractContinuousBlockSubsetComposition covers spec.md §8
// property 3: composing two subset extractions equals a single
// extraction by the composed map, dropping any index either map has no
// entry for.
func TestExtractContinuousBlockSubsetComposition(t *testing.T) {
	src := NewContinuousValueBlock(4)
	for _, pair := range []struct {
		idx int
		val Continuous
	}{{0, 10}, {2, 20}, {3, 30}, {5, 50}} {
		src.appendPair(pair.idx, pair.val)
	}

	m1 := map[int]int{0: 1, 2: 2, 3: 4} // index 5 has no entry, dropped
	m2 := map[int]int{1: 100, 4: 400}   // index 2 (m1's image) has no entry, dropped

	step1 := ExtractContinuousBlockSubset(src, m1)
	step2 := ExtractContinuousBlockSubset(step1, m2)

	composed := composeIndexMaps(m1, m2)
	direct := ExtractContinuousBlockSubset(src, composed)

	require.Equal(t, direct.Size(), step2.Size())
	for i := 0; i < direct.Size(); i++ {
		assert.Equal(t, direct.IndexAt(i), step2.IndexAt(i))
		assert.Equal(t, direct.ValueAt(i), step2.ValueAt(i))
	}
}

func TestExtractSymbolBlockSubsetComposition(t *testing.T) {
	src := NewSymbolValueBlock(3)
	src.appendPair(0, Intern("a"))
	src.appendPair(1, Intern("b"))
	src.appendPair(4, Intern("c"))

	m1 := map[int]int{0: 0, 1: 2, 4: 9} // 9 has no image in m2, dropped by composition
	m2 := map[int]int{0: 5, 2: 6}

	step1 := ExtractSymbolBlockSubset(src, m1)
	step2 := ExtractSymbolBlockSubset(step1, m2)

	composed := composeIndexMaps(m1, m2)
	direct := ExtractSymbolBlockSubset(src, composed)

	require.Equal(t, direct.Size(), step2.Size())
	for i := 0; i < direct.Size(); i++ {
		assert.Equal(t, direct.IndexAt(i), step2.IndexAt(i))
		assert.True(t, direct.ValueAt(i).Equal(step2.ValueAt(i)))
	}
}

// composeIndexMaps builds the map idx -> g(f(idx)) over indexes where
// both f and g are defined, matching ExtractBlockSubset's composition
// law (spec.md §8 property 3).
func composeIndexMaps(f, g map[int]int) map[int]int {
	out := make(map[int]int)
	for oldIdx, mid := range f {
		if newIdx, ok := g[mid]; ok {
			out[oldIdx] = newIdx
		}
	}
	return out
}

// TestSymbolIdentityStability covers spec.md §8 property 8: interning
// the same text twice yields the same NumericKey, distinct texts yield
// distinct keys, and String() recovers the original text.
func TestSymbolIdentityStability(t *testing.T) {
	a1 := Intern("hello")
	a2 := Intern("hello")
	b := Intern("world")

	assert.Equal(t, a1.NumericKey(), a2.NumericKey())
	assert.True(t, a1.Equal(a2))
	assert.NotEqual(t, a1.NumericKey(), b.NumericKey())
	assert.False(t, a1.Equal(b))

	assert.Equal(t, "hello", a1.String())
	assert.Equal(t, "hello", a2.String())
	assert.Equal(t, "world", b.String())

	assert.True(t, Intern("").Equal(EmptySymbol))
	assert.True(t, EmptySymbol.IsEmpty())
	assert.False(t, a1.IsEmpty())
}

func TestIndexedKeyBlockLookup(t *testing.T) {
	kb := NewIndexedKeyBlock([]VarKey{NewSymbolKey(Intern("x")), NewSymbolKey(Intern("y")), NewIntKey(7)})
	require.Equal(t, 3, kb.KeyCount())
	assert.Equal(t, 0, kb.GetKeyIndex(NewSymbolKey(Intern("x"))))
	assert.Equal(t, 1, kb.GetKeyIndex(NewSymbolKey(Intern("y"))))
	assert.Equal(t, 2, kb.GetKeyIndex(NewIntKey(7)))
	assert.Equal(t, -1, kb.GetKeyIndex(NewIntKey(8)))
}
