package library

import (
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("HashMapC", func() rule.Rule { return newHashMapCRule() })
	rule.Register("HashMap", func() rule.Rule { return newHashMapRule() })
	rule.Register("ValueAtKey", func() rule.Rule { return newValueAtKey() })
}

// ContinuousHashMap is the Structure produced by HashMapC: a Symbol-key
// lookup over Continuous values, built from a vector of unique keys
// paired 1:1 with a vector of values (spec.md §4.4, "Hash-map
// structures").
type ContinuousHashMap struct {
	index map[value.NumericKey]value.Continuous
}

func (h *ContinuousHashMap) StructureKind() value.Kind { return value.KindHashMapC }

func (h *ContinuousHashMap) ValueAtKey(key value.Symbol) value.Continuous {
	if v, ok := h.index[key.NumericKey()]; ok {
		return v
	}
	return value.Missing
}

func buildContinuousHashMap(keys []value.Symbol, values []value.Continuous) *ContinuousHashMap {
	h := &ContinuousHashMap{index: make(map[value.NumericKey]value.Continuous, len(keys))}
	for i, k := range keys {
		if i >= len(values) {
			break
		}
		h.index[k.NumericKey()] = values[i]
	}
	return h
}

// SymbolHashMap is the Symbol-valued analogue of ContinuousHashMap.
type SymbolHashMap struct {
	index map[value.NumericKey]value.Symbol
}

func (h *SymbolHashMap) StructureKind() value.Kind { return value.KindHashMap }

func (h *SymbolHashMap) ValueAtKey(key value.Symbol) value.Symbol {
	if v, ok := h.index[key.NumericKey()]; ok {
		return v
	}
	return value.EmptySymbol
}

func buildSymbolHashMap(keys []value.Symbol, values []value.Symbol) *SymbolHashMap {
	h := &SymbolHashMap{index: make(map[value.NumericKey]value.Symbol, len(keys))}
	for i, k := range keys {
		if i >= len(values) {
			break
		}
		h.index[k.NumericKey()] = values[i]
	}
	return h
}

// --- HashMapC / HashMap: build a key->value hash-map from two vector ----
// --- operands (a Vector of keys, a VectorC/Vector of values) -----------

type hashMapCRule struct{ rule.BaseRule }

func newHashMapCRule(ops ...rule.Operand) *hashMapCRule {
	r := &hashMapCRule{}
	r.BaseRule = rule.NewBaseRule("HashMapC", "HashMapC", value.KindHashMapC, "", 0, toPtrs(ops))
	return r
}
func (r *hashMapCRule) Clone() rule.Rule      { return newHashMapCRule(derefAll(r.Operands())...) }
func (r *hashMapCRule) CheckDefinition() error { return requireOperandCount(r, 2) }

func (r *hashMapCRule) ComputeStructureResult(rec *record.Record) rule.Structure {
	ops := r.Operands()
	keysStruct := ops[0].GetStructureValue(rec)
	valuesStruct := ops[1].GetStructureValue(rec)
	keys, ok := keysStruct.(*SymbolVector)
	if !ok {
		return buildContinuousHashMap(nil, nil)
	}
	values, ok := valuesStruct.(*ContinuousVector)
	if !ok {
		return buildContinuousHashMap(nil, nil)
	}
	return buildContinuousHashMap(keys.values, values.values)
}

type hashMapRule struct{ rule.BaseRule }

func newHashMapRule(ops ...rule.Operand) *hashMapRule {
	r := &hashMapRule{}
	r.BaseRule = rule.NewBaseRule("HashMap", "HashMap", value.KindHashMap, "", 0, toPtrs(ops))
	return r
}
func (r *hashMapRule) Clone() rule.Rule      { return newHashMapRule(derefAll(r.Operands())...) }
func (r *hashMapRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *hashMapRule) ComputeStructureResult(rec *record.Record) rule.Structure {
	ops := r.Operands()
	keysStruct := ops[0].GetStructureValue(rec)
	valuesStruct := ops[1].GetStructureValue(rec)
	keys, ok := keysStruct.(*SymbolVector)
	if !ok {
		return buildSymbolHashMap(nil, nil)
	}
	values, ok := valuesStruct.(*SymbolVector)
	if !ok {
		return buildSymbolHashMap(nil, nil)
	}
	return buildSymbolHashMap(keys.values, values.values)
}

// --- ValueAtKey: look up a HashMapC by Symbol key -----------------------

type valueAtKeyRule struct{ rule.BaseRule }

func newValueAtKey(ops ...rule.Operand) *valueAtKeyRule {
	r := &valueAtKeyRule{}
	r.BaseRule = rule.NewBaseRule("ValueAtKey", "ValueAtKey", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *valueAtKeyRule) Clone() rule.Rule      { return newValueAtKey(derefAll(r.Operands())...) }
func (r *valueAtKeyRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *valueAtKeyRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	s := ops[0].GetStructureValue(rec)
	hm, ok := s.(*ContinuousHashMap)
	if !ok {
		return value.Missing
	}
	key := ops[1].GetSymbolValue(rec)
	return hm.ValueAtKey(key)
}
