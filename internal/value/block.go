package value

import (
	"sort"
	"strconv"
	"strings"
)

// VarKey identifies one variable of a sparse block: either a positional
// index (for a block whose keys are small dense integers) or a Symbol
// (for a block keyed by name). Exactly one of the two is set.
type VarKey struct {
	intKey    int
	symbolKey Symbol
	isSymbol  bool
}

// NewIntKey builds a VarKey from an integer key.
func NewIntKey(i int) VarKey { return VarKey{intKey: i} }

// NewSymbolKey builds a VarKey from a Symbol key.
func NewSymbolKey(s Symbol) VarKey { return VarKey{symbolKey: s, isSymbol: true} }

// IsSymbol reports whether this VarKey carries a Symbol rather than an int.
func (k VarKey) IsSymbol() bool { return k.isSymbol }

// IntKey returns the integer key; meaningless if IsSymbol.
func (k VarKey) IntKey() int { return k.intKey }

// SymbolKey returns the Symbol key; meaningless unless IsSymbol.
func (k VarKey) SymbolKey() Symbol { return k.symbolKey }

func (k VarKey) mapKey() any {
	if k.isSymbol {
		return k.symbolKey.NumericKey()
	}
	return k.intKey
}

func (k VarKey) String() string {
	if k.isSymbol {
		return k.symbolKey.String()
	}
	return strconv.Itoa(k.intKey)
}

// IndexedKeyBlock assigns each distinct VarKey of an attribute block a
// stable, contiguous sparse index in [0, N). It is built once when a
// Dictionary's attribute block is compiled and shared read-only by every
// record loaded against that block (spec.md §4.1).
type IndexedKeyBlock struct {
	keys    []VarKey
	indexOf map[any]int
}

// NewIndexedKeyBlock builds an IndexedKeyBlock assigning indexes to keys
// in the given order. Duplicate keys are not detected or reported: a
// later duplicate takes over the key's lookup index.
func NewIndexedKeyBlock(keys []VarKey) *IndexedKeyBlock {
	b := &IndexedKeyBlock{
		keys:    append([]VarKey(nil), keys...),
		indexOf: make(map[any]int, len(keys)),
	}
	for i, k := range keys {
		b.indexOf[k.mapKey()] = i
	}
	return b
}

// KeyCount returns the number of distinct keys known to the block.
func (b *IndexedKeyBlock) KeyCount() int { return len(b.keys) }

// KeyAt returns the key assigned to sparse index i.
func (b *IndexedKeyBlock) KeyAt(i int) VarKey { return b.keys[i] }

// GetKeyIndex returns the sparse index assigned to key, or -1 if key is
// not known to this block. Expected O(1).
func (b *IndexedKeyBlock) GetKeyIndex(key VarKey) int {
	if i, ok := b.indexOf[key.mapKey()]; ok {
		return i
	}
	return -1
}

// ContinuousValueBlock is a sparse vector of Continuous values: a list
// of (sparse_index, value) pairs sorted by ascending sparse_index. An
// index absent from the block takes the attribute block's default
// value; duplicate indexes are never constructed.
type ContinuousValueBlock struct {
	indexes []int
	values  []Continuous
}

// NewContinuousValueBlock returns an empty block with capacity hint n.
func NewContinuousValueBlock(n int) *ContinuousValueBlock {
	return &ContinuousValueBlock{
		indexes: make([]int, 0, n),
		values:  make([]Continuous, 0, n),
	}
}

// Size returns the number of explicitly stored (index, value) pairs.
func (b *ContinuousValueBlock) Size() int { return len(b.indexes) }

// IndexAt and ValueAt return the i-th stored pair, in ascending index order.
func (b *ContinuousValueBlock) IndexAt(i int) int        { return b.indexes[i] }
func (b *ContinuousValueBlock) ValueAt(i int) Continuous { return b.values[i] }

// GetValueAtIndex returns the stored value at sparse index idx, or
// defaultValue if idx is not explicitly stored. Binary search, O(log n).
func (b *ContinuousValueBlock) GetValueAtIndex(idx int, defaultValue Continuous) Continuous {
	pos := sort.SearchInts(b.indexes, idx)
	if pos < len(b.indexes) && b.indexes[pos] == idx {
		return b.values[pos]
	}
	return defaultValue
}

// appendPair appends a pair in ascending-index construction order.
// Callers (BuildBlockFromField, ExtractBlockSubset) are responsible for
// ascending order and for rejecting duplicate indexes.
func (b *ContinuousValueBlock) appendPair(idx int, v Continuous) {
	b.indexes = append(b.indexes, idx)
	b.values = append(b.values, v)
}

// Clone returns an independent copy of b.
func (b *ContinuousValueBlock) Clone() *ContinuousValueBlock {
	return &ContinuousValueBlock{
		indexes: append([]int(nil), b.indexes...),
		values:  append([]Continuous(nil), b.values...),
	}
}

// BuildContinuousBlockFromField parses a field of "key:value" pairs
// separated by spaces (e.g. "3:1.5 7:2") into a block using keyBlock to
// map each textual key to its sparse index. A key unknown to keyBlock is
// dropped (the attribute it refers to is not part of this dictionary);
// a duplicate sparse index is a BlockParseError.
func BuildContinuousBlockFromField(keyBlock *IndexedKeyBlock, field string, parseKey func(string) VarKey) (*ContinuousValueBlock, error) {
	pairs, err := splitBlockPairs(field)
	if err != nil {
		return nil, err
	}
	type entry struct {
		idx int
		val Continuous
	}
	entries := make([]entry, 0, len(pairs))
	for _, p := range pairs {
		idx := keyBlock.GetKeyIndex(parseKey(p.key))
		if idx < 0 {
			continue
		}
		v, convErr := ParseContinuous(p.value)
		if convErr != ConversionOK && convErr != ConversionTruncation {
			return nil, &BlockParseError{Field: field, Reason: "invalid value for key " + p.key}
		}
		entries = append(entries, entry{idx: idx, val: v})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	block := NewContinuousValueBlock(len(entries))
	for i, e := range entries {
		if i > 0 && entries[i-1].idx == e.idx {
			return nil, &BlockParseError{Field: field, Reason: "duplicate key"}
		}
		block.appendPair(e.idx, e.val)
	}
	return block, nil
}

// WriteField serializes b as "key:value" pairs separated by spaces,
// resolving each sparse index back to its key text through keyBlock.
func (b *ContinuousValueBlock) WriteField(keyBlock *IndexedKeyBlock) string {
	var sb strings.Builder
	for i, idx := range b.indexes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(keyBlock.KeyAt(idx).String())
		sb.WriteByte(':')
		sb.WriteString(FormatContinuous(b.values[i]))
	}
	return sb.String()
}

// ExtractContinuousBlockSubset builds a new block by remapping each
// stored (old sparse index, value) pair of src through newValueIndexes:
// a pair whose old index is absent from newValueIndexes is dropped;
// otherwise it is kept at the mapped new index. Composing two
// extractions (map g applied to the result of map f) is equivalent to a
// single extraction by the composed map idx -> g(f(idx)) restricted to
// indexes where both are defined, since the operation is a pure
// per-pair remap with no cross-pair interaction.
func ExtractContinuousBlockSubset(src *ContinuousValueBlock, newValueIndexes map[int]int) *ContinuousValueBlock {
	type entry struct {
		idx int
		val Continuous
	}
	entries := make([]entry, 0, len(src.indexes))
	for i, oldIdx := range src.indexes {
		if newIdx, ok := newValueIndexes[oldIdx]; ok {
			entries = append(entries, entry{idx: newIdx, val: src.values[i]})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	out := NewContinuousValueBlock(len(entries))
	for _, e := range entries {
		out.appendPair(e.idx, e.val)
	}
	return out
}

// SymbolValueBlock is the Symbol-valued analogue of ContinuousValueBlock.
type SymbolValueBlock struct {
	indexes []int
	values  []Symbol
}

// NewSymbolValueBlock returns an empty block with capacity hint n.
func NewSymbolValueBlock(n int) *SymbolValueBlock {
	return &SymbolValueBlock{
		indexes: make([]int, 0, n),
		values:  make([]Symbol, 0, n),
	}
}

func (b *SymbolValueBlock) Size() int        { return len(b.indexes) }
func (b *SymbolValueBlock) IndexAt(i int) int { return b.indexes[i] }
func (b *SymbolValueBlock) ValueAt(i int) Symbol { return b.values[i] }

// GetValueAtIndex returns the stored value at sparse index idx, or
// defaultValue if idx is not explicitly stored.
func (b *SymbolValueBlock) GetValueAtIndex(idx int, defaultValue Symbol) Symbol {
	pos := sort.SearchInts(b.indexes, idx)
	if pos < len(b.indexes) && b.indexes[pos] == idx {
		return b.values[pos]
	}
	return defaultValue
}

func (b *SymbolValueBlock) appendPair(idx int, v Symbol) {
	b.indexes = append(b.indexes, idx)
	b.values = append(b.values, v)
}

// Clone returns an independent copy of b.
func (b *SymbolValueBlock) Clone() *SymbolValueBlock {
	return &SymbolValueBlock{
		indexes: append([]int(nil), b.indexes...),
		values:  append([]Symbol(nil), b.values...),
	}
}

// BuildSymbolBlockFromField is the Symbol-block analogue of
// BuildContinuousBlockFromField.
func BuildSymbolBlockFromField(keyBlock *IndexedKeyBlock, field string, parseKey func(string) VarKey) (*SymbolValueBlock, error) {
	pairs, err := splitBlockPairs(field)
	if err != nil {
		return nil, err
	}
	type entry struct {
		idx int
		val Symbol
	}
	entries := make([]entry, 0, len(pairs))
	for _, p := range pairs {
		idx := keyBlock.GetKeyIndex(parseKey(p.key))
		if idx < 0 {
			continue
		}
		entries = append(entries, entry{idx: idx, val: Intern(p.value)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	block := NewSymbolValueBlock(len(entries))
	for i, e := range entries {
		if i > 0 && entries[i-1].idx == e.idx {
			return nil, &BlockParseError{Field: field, Reason: "duplicate key"}
		}
		block.appendPair(e.idx, e.val)
	}
	return block, nil
}

// WriteField serializes b as "key:value" pairs, resolving sparse indexes
// back through keyBlock.
func (b *SymbolValueBlock) WriteField(keyBlock *IndexedKeyBlock) string {
	var sb strings.Builder
	for i, idx := range b.indexes {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(keyBlock.KeyAt(idx).String())
		sb.WriteByte(':')
		sb.WriteString(b.values[i].String())
	}
	return sb.String()
}

// ExtractSymbolBlockSubset is the Symbol-block analogue of
// ExtractContinuousBlockSubset; see its doc comment for the composition
// law this primitive satisfies.
func ExtractSymbolBlockSubset(src *SymbolValueBlock, newValueIndexes map[int]int) *SymbolValueBlock {
	type entry struct {
		idx int
		val Symbol
	}
	entries := make([]entry, 0, len(src.indexes))
	for i, oldIdx := range src.indexes {
		if newIdx, ok := newValueIndexes[oldIdx]; ok {
			entries = append(entries, entry{idx: newIdx, val: src.values[i]})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].idx < entries[j].idx })
	out := NewSymbolValueBlock(len(entries))
	for _, e := range entries {
		out.appendPair(e.idx, e.val)
	}
	return out
}

// BlockParseError reports a malformed sparse-block field (spec.md §7).
type BlockParseError struct {
	Field  string
	Reason string
}

func (e *BlockParseError) Error() string {
	return "block parse error: " + e.Reason + " in field " + strconv.Quote(e.Field)
}

type keyValuePair struct{ key, value string }

// splitBlockPairs splits a "key:value key:value ..." field on
// whitespace, then each token on its first colon.
func splitBlockPairs(field string) ([]keyValuePair, error) {
	fields := strings.Fields(field)
	pairs := make([]keyValuePair, 0, len(fields))
	for _, tok := range fields {
		i := strings.IndexByte(tok, ':')
		if i < 0 {
			return nil, &BlockParseError{Field: field, Reason: "missing ':' in token " + strconv.Quote(tok)}
		}
		pairs = append(pairs, keyValuePair{key: tok[:i], value: tok[i+1:]})
	}
	return pairs, nil
}
