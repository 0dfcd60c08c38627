package library

import (
	"sort"
	"strconv"
	"strings"

	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("Tokenize", func() rule.Rule { return newTokenize() })
	rule.Register("TokenCounts", func() rule.Rule { return newTokenCounts() })
	rule.Register("MultipleCharNGramCounts", func() rule.Rule { return newMultipleCharNGramCounts() })
}

// --- Tokenize: normalize a Symbol into whitespace-separated tokens -----

type tokenizeRule struct{ rule.BaseRule }

func newTokenize(ops ...rule.Operand) *tokenizeRule {
	r := &tokenizeRule{}
	r.BaseRule = rule.NewBaseRule("Tokenize", "Tokenize", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *tokenizeRule) Clone() rule.Rule      { return newTokenize(derefAll(r.Operands())...) }
func (r *tokenizeRule) CheckDefinition() error { return requireOperandCount(r, 1) }

// ComputeSymbolResult re-serializes the input's whitespace-separated
// tokens with exactly one space between them, discarding leading and
// trailing blanks.
func (r *tokenizeRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	s := r.Operands()[0].GetSymbolValue(rec).String()
	return value.Intern(strings.Join(strings.Fields(s), " "))
}

// --- TokenCounts: sparse per-token counts restricted to known keys ----

type tokenCountsRule struct {
	rule.BaseRule
	keyBlock *value.IndexedKeyBlock
}

func newTokenCounts(ops ...rule.Operand) *tokenCountsRule {
	r := &tokenCountsRule{}
	r.BaseRule = rule.NewBaseRule("TokenCounts", "TokenCounts", value.KindContinuousValueBlock, "", 0, toPtrs(ops))
	return r
}
func (r *tokenCountsRule) Clone() rule.Rule      { return newTokenCounts(derefAll(r.Operands())...) }
func (r *tokenCountsRule) CheckDefinition() error { return requireOperandCount(r, 1) }

// CheckBlockAttributes requires the consuming block to have Continuous
// values (the counts); each variable key names one token whose
// occurrences get counted (spec.md §4.4, "Sparse text counting"). The
// key type itself is not checked.
func (r *tokenCountsRule) CheckBlockAttributes(_ *dictionary.Dictionary, block *dictionary.AttributeBlock) error {
	if block.ValueType != value.KindContinuousValueBlock {
		return &rule.DefinitionError{Rule: r.Name(), Reason: "consuming block must have Continuous values"}
	}
	return nil
}

// DynamicCompile records the target block's key layout, resolved once
// per consuming attribute block and reused by every evaluation.
func (r *tokenCountsRule) DynamicCompile(target *value.IndexedKeyBlock) error {
	r.keyBlock = target
	return nil
}

// ComputeContinuousValueBlockResult counts occurrences, per
// whitespace-separated token, restricted to the tokens named by the
// compiled target block's Symbol keys. Unknown tokens contribute
// nothing.
func (r *tokenCountsRule) ComputeContinuousValueBlockResult(rec *record.Record) *value.ContinuousValueBlock {
	s := r.Operands()[0].GetSymbolValue(rec).String()
	counts := make(map[int]int)
	for _, tok := range strings.Fields(s) {
		idx := r.keyBlock.GetKeyIndex(value.NewSymbolKey(value.Intern(tok)))
		if idx >= 0 {
			counts[idx]++
		}
	}
	return buildSparseCountBlock(counts, r.keyBlock.KeyCount())
}

// buildSparseCountBlock turns a sparse-index -> count map into a
// ContinuousValueBlock, going through the package's public
// field-parsing constructor since ContinuousValueBlock has no exported
// append primitive outside internal/value.
func buildSparseCountBlock(counts map[int]int, size int) *value.ContinuousValueBlock {
	if len(counts) == 0 {
		empty, _ := value.BuildContinuousBlockFromField(identityKeyBlock(size), "", identityParseKey)
		return empty
	}
	indexes := make([]int, 0, len(counts))
	for idx := range counts {
		indexes = append(indexes, idx)
	}
	sort.Ints(indexes)

	var sb strings.Builder
	for i, idx := range indexes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(idx))
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(counts[idx]))
	}
	block, _ := value.BuildContinuousBlockFromField(identityKeyBlock(size), sb.String(), identityParseKey)
	return block
}

func identityParseKey(s string) value.VarKey {
	n, _ := strconv.Atoi(s)
	return value.NewIntKey(n)
}

func identityKeyBlock(size int) *value.IndexedKeyBlock {
	keys := make([]value.VarKey, size)
	for i := range keys {
		keys[i] = value.NewIntKey(i)
	}
	return value.NewIndexedKeyBlock(keys)
}

// --- MultipleCharNGramCounts: the canonical multi-length hash schedule -

// ngramMaxLength is the longest n-gram the canonical schedule covers
// (KWDRTokenCounts.h's nMaxNGramLength).
const ngramMaxLength = 8

// ngramTableCount is the number of hash tables in the canonical
// schedule: one size-1 table plus four doubling tables 16..128 for
// 1-grams (5 tables), three doubling tables 256..1024 for 2-grams,
// three doubling tables 2048..8192 for 3-grams, and exactly two fixed
// tables (16384, 32768) repeated for every length from 4 up to
// ngramMaxLength (grounded on KWDRTokenCounts.cpp's
// InitializeGlobalVariables, original_source
// KWDRRuleLibrary/KWDRTokenCounts.cpp:1188-1249).
const ngramTableCount = 5 + 3 + 3 + 2*(ngramMaxLength-3)

var (
	ngramTableLengths    [ngramTableCount]int
	ngramTableSizes      [ngramTableCount]int
	ngramTableCumulative [ngramTableCount]int // sum of sizes of tables before this one
)

func init() {
	i := 0
	add := func(length, size int) {
		ngramTableLengths[i] = length
		ngramTableSizes[i] = size
		i++
	}

	add(1, 1)
	for size := 16; size <= 128; size *= 2 {
		add(1, size)
	}
	for size := 256; size <= 1024; size *= 2 {
		add(2, size)
	}
	for size := 2048; size <= 8192; size *= 2 {
		add(3, size)
	}
	for length := 4; length <= ngramMaxLength; length++ {
		add(length, 16384)
		add(length, 32768)
	}

	cumulative := 0
	for j := 0; j < ngramTableCount; j++ {
		ngramTableCumulative[j] = cumulative
		cumulative += ngramTableSizes[j]
	}
}

// ngramTableRangeForLength returns the first and last schedule index
// whose table length equals length, or (-1, -1) if no table in the
// canonical schedule has that n-gram length.
func ngramTableRangeForLength(length int) (first, last int) {
	first, last = -1, -1
	for i, l := range ngramTableLengths {
		if l == length {
			if first == -1 {
				first = i
			}
			last = i
		}
	}
	return first, last
}

// ithRandomLongint maps an n-gram's raw byte value to a pseudo-random
// 63-bit longint. The original's IthRandomLongint generator is not part
// of the retrieved sources; this uses the widely used splitmix64
// mixing step instead, which gives the same property the original
// relies on: a deterministic, well-distributed longint keyed only by
// the n-gram's value.
func ithRandomLongint(seed int64) int64 {
	z := uint64(seed) + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z = z ^ (z >> 31)
	return int64(z &^ (1 << 63))
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

type multipleCharNGramCountsRule struct {
	rule.BaseRule
	keyBlock *value.IndexedKeyBlock
}

func newMultipleCharNGramCounts(ops ...rule.Operand) *multipleCharNGramCountsRule {
	r := &multipleCharNGramCountsRule{}
	r.BaseRule = rule.NewBaseRule("MultipleCharNGramCounts", "MultipleCharNGramCounts", value.KindContinuousValueBlock, "", 0, toPtrs(ops))
	return r
}
func (r *multipleCharNGramCountsRule) Clone() rule.Rule {
	return newMultipleCharNGramCounts(derefAll(r.Operands())...)
}
func (r *multipleCharNGramCountsRule) CheckDefinition() error { return requireOperandCount(r, 2) }

func (r *multipleCharNGramCountsRule) CheckBlockAttributes(_ *dictionary.Dictionary, block *dictionary.AttributeBlock) error {
	if block.ValueType != value.KindContinuousValueBlock {
		return &rule.DefinitionError{Rule: r.Name(), Reason: "consuming block must have Continuous values"}
	}
	return nil
}

// DynamicCompile records the target block's key layout: the sparse
// index space the hash schedule's computed n-keys get looked up
// against (spec.md §4.4, "canonical n-gram schedule").
func (r *multipleCharNGramCountsRule) DynamicCompile(target *value.IndexedKeyBlock) error {
	r.keyBlock = target
	return nil
}

// ComputeContinuousValueBlockResult computes, for every sparse index
// named by the compiled target block (one index per requested
// hash-table slot), the count of character n-grams of the text operand
// that hash into that slot under the canonical schedule.
func (r *multipleCharNGramCountsRule) ComputeContinuousValueBlockResult(rec *record.Record) *value.ContinuousValueBlock {
	text := r.Operands()[0].GetTextValue(rec).String()
	counts := computeCharNGramCounts([]byte(text), r.keyBlock)
	return buildSparseCountBlock(counts, r.keyBlock.KeyCount())
}

func computeCharNGramCounts(text []byte, keyBlock *value.IndexedKeyBlock) map[int]int {
	counts := make(map[int]int)
	n := len(text)
	if n == 0 {
		return counts
	}

	for length := 1; length <= ngramMaxLength && length <= n; length++ {
		firstIdx, lastIdx := ngramTableRangeForLength(length)
		if firstIdx == -1 {
			break
		}
		mask := int64(1)<<(8*uint(length)) - 1
		startKeyForLength := 1 + ngramTableCumulative[firstIdx]

		var ngramValue int64
		for k := 0; k < length-1; k++ {
			ngramValue = (ngramValue << 8) + int64(text[k])
		}

		for pos := length - 1; pos < n; pos++ {
			ngramValue = (ngramValue << 8) + int64(text[pos])
			ngramValue &= mask

			cuckoo := ithRandomLongint(ngramValue)
			startKey := startKeyForLength
			for tableIdx := firstIdx; tableIdx <= lastIdx; tableIdx++ {
				size := ngramTableSizes[tableIdx]
				nkey := int(abs64(cuckoo)%int64(size)) + startKey
				if sparseIdx := keyBlock.GetKeyIndex(value.NewIntKey(nkey)); sparseIdx >= 0 {
					counts[sparseIdx]++
				}
				startKey += size
				cuckoo += ngramValue
			}
		}
	}
	return counts
}
