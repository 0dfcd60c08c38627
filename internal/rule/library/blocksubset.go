package library

import (
	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("ContinuousValueBlockSubset", func() rule.Rule { return newContinuousValueBlockSubset() })
	rule.Register("SymbolValueBlockSubset", func() rule.Rule { return newSymbolValueBlockSubset() })
}

// --- ContinuousValueBlockSubset / SymbolValueBlockSubset ---------------
//
// A derived attribute block whose own declared keys are a subset of a
// source block's keys rewrites every record's sparse (index, value)
// pairs through value.ExtractBlockSubset (spec.md §4.1: "records carry
// sparse blocks whose key-index maps must be rewritten when block
// subsets are derived"; spec.md §8 property 3, "block subset
// composition"). The operand carries the source block; DynamicCompile
// carries the consuming block's own key space, set once per compiled
// attribute block and reused across every record.

type continuousValueBlockSubsetRule struct {
	rule.BaseRule
	targetKeys *value.IndexedKeyBlock

	cachedSource, cachedTarget *value.IndexedKeyBlock
	indexMap                   map[int]int
}

func newContinuousValueBlockSubset(ops ...rule.Operand) *continuousValueBlockSubsetRule {
	r := &continuousValueBlockSubsetRule{}
	r.BaseRule = rule.NewBaseRule("ContinuousValueBlockSubset", "ContinuousValueBlockSubset", value.KindContinuousValueBlock, "", 0, toPtrs(ops))
	return r
}
func (r *continuousValueBlockSubsetRule) Clone() rule.Rule {
	return newContinuousValueBlockSubset(derefAll(r.Operands())...)
}
func (r *continuousValueBlockSubsetRule) CheckDefinition() error { return requireOperandCount(r, 1) }

func (r *continuousValueBlockSubsetRule) CheckBlockAttributes(_ *dictionary.Dictionary, block *dictionary.AttributeBlock) error {
	if block.ValueType != value.KindContinuousValueBlock {
		return &rule.DefinitionError{Rule: r.Name(), Reason: "consuming block must have Continuous values"}
	}
	return nil
}

func (r *continuousValueBlockSubsetRule) DynamicCompile(target *value.IndexedKeyBlock) error {
	r.targetKeys = target
	return nil
}

// ComputeContinuousValueBlockResult remaps the source operand's block
// through the current source->target key mapping, rebuilding it only
// when either key space has changed since the last call.
func (r *continuousValueBlockSubsetRule) ComputeContinuousValueBlockResult(rec *record.Record) *value.ContinuousValueBlock {
	src := r.Operands()[0].GetContinuousValueBlock(rec)
	if src == nil {
		return value.NewContinuousValueBlock(0)
	}
	r.refreshIndexMap()
	return value.ExtractContinuousBlockSubset(src, r.indexMap)
}

func (r *continuousValueBlockSubsetRule) refreshIndexMap() {
	sourceKeys := r.Operands()[0].BlockKeys()
	if r.indexMap != nil && r.cachedSource == sourceKeys && r.cachedTarget == r.targetKeys {
		return
	}
	r.indexMap = buildKeySubsetMap(sourceKeys, r.targetKeys)
	r.cachedSource, r.cachedTarget = sourceKeys, r.targetKeys
}

type symbolValueBlockSubsetRule struct {
	rule.BaseRule
	targetKeys *value.IndexedKeyBlock

	cachedSource, cachedTarget *value.IndexedKeyBlock
	indexMap                   map[int]int
}

func newSymbolValueBlockSubset(ops ...rule.Operand) *symbolValueBlockSubsetRule {
	r := &symbolValueBlockSubsetRule{}
	r.BaseRule = rule.NewBaseRule("SymbolValueBlockSubset", "SymbolValueBlockSubset", value.KindSymbolValueBlock, "", 0, toPtrs(ops))
	return r
}
func (r *symbolValueBlockSubsetRule) Clone() rule.Rule {
	return newSymbolValueBlockSubset(derefAll(r.Operands())...)
}
func (r *symbolValueBlockSubsetRule) CheckDefinition() error { return requireOperandCount(r, 1) }

func (r *symbolValueBlockSubsetRule) CheckBlockAttributes(_ *dictionary.Dictionary, block *dictionary.AttributeBlock) error {
	if block.ValueType != value.KindSymbolValueBlock {
		return &rule.DefinitionError{Rule: r.Name(), Reason: "consuming block must have Symbol values"}
	}
	return nil
}

func (r *symbolValueBlockSubsetRule) DynamicCompile(target *value.IndexedKeyBlock) error {
	r.targetKeys = target
	return nil
}

func (r *symbolValueBlockSubsetRule) ComputeSymbolValueBlockResult(rec *record.Record) *value.SymbolValueBlock {
	src := r.Operands()[0].GetSymbolValueBlock(rec)
	if src == nil {
		return value.NewSymbolValueBlock(0)
	}
	r.refreshIndexMap()
	return value.ExtractSymbolBlockSubset(src, r.indexMap)
}

func (r *symbolValueBlockSubsetRule) refreshIndexMap() {
	sourceKeys := r.Operands()[0].BlockKeys()
	if r.indexMap != nil && r.cachedSource == sourceKeys && r.cachedTarget == r.targetKeys {
		return
	}
	r.indexMap = buildKeySubsetMap(sourceKeys, r.targetKeys)
	r.cachedSource, r.cachedTarget = sourceKeys, r.targetKeys
}

// buildKeySubsetMap maps every sparse index of source to the index its
// same VarKey holds in target, dropping keys target does not declare.
func buildKeySubsetMap(source, target *value.IndexedKeyBlock) map[int]int {
	m := make(map[int]int)
	if source == nil || target == nil {
		return m
	}
	for i := 0; i < source.KeyCount(); i++ {
		if idx := target.GetKeyIndex(source.KeyAt(i)); idx >= 0 {
			m[i] = idx
		}
	}
	return m
}
