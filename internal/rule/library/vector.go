package library

import (
	"strings"

	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("VectorC", func() rule.Rule { return newVectorCRule() })
	rule.Register("Vector", func() rule.Rule { return newVectorRule() })
	rule.Register("ValueAtC", func() rule.Rule { return newValueAtC() })
	rule.Register("ValueAt", func() rule.Rule { return newValueAt() })
	rule.Register("AsVectorC", func() rule.Rule { return newAsVectorC() })
	rule.Register("AsVector", func() rule.Rule { return newAsVector() })
}

// ContinuousVector is the Structure produced by VectorC: an ordered,
// 1-based sequence of Continuous values built from N scalar operands
// (spec.md §4.4, "Vector structures").
type ContinuousVector struct{ values []value.Continuous }

func (v *ContinuousVector) StructureKind() value.Kind { return value.KindVectorC }

// ValueAt returns the 1-based element, or Missing if out of range.
func (v *ContinuousVector) ValueAt(index int) value.Continuous {
	if index < 1 || index > len(v.values) {
		return value.Missing
	}
	return v.values[index-1]
}

// SymbolVector is the Symbol-valued analogue of ContinuousVector.
type SymbolVector struct{ values []value.Symbol }

func (v *SymbolVector) StructureKind() value.Kind { return value.KindVector }

func (v *SymbolVector) ValueAt(index int) value.Symbol {
	if index < 1 || index > len(v.values) {
		return value.EmptySymbol
	}
	return v.values[index-1]
}

// --- VectorC / Vector rules: build a vector from N scalar operands -----

type vectorCRule struct{ rule.BaseRule }

func newVectorCRule(ops ...rule.Operand) *vectorCRule {
	r := &vectorCRule{}
	r.BaseRule = rule.NewBaseRule("VectorC", "VectorC", value.KindVectorC, "", rule.VariableOperandNumber, toPtrs(ops))
	return r
}
func (r *vectorCRule) Clone() rule.Rule { return newVectorCRule(derefAll(r.Operands())...) }
func (r *vectorCRule) ComputeStructureResult(rec *record.Record) rule.Structure {
	ops := r.Operands()
	values := make([]value.Continuous, len(ops))
	for i, op := range ops {
		values[i] = op.GetContinuousValue(rec)
	}
	return &ContinuousVector{values: values}
}

type vectorRule struct{ rule.BaseRule }

func newVectorRule(ops ...rule.Operand) *vectorRule {
	r := &vectorRule{}
	r.BaseRule = rule.NewBaseRule("Vector", "Vector", value.KindVector, "", rule.VariableOperandNumber, toPtrs(ops))
	return r
}
func (r *vectorRule) Clone() rule.Rule { return newVectorRule(derefAll(r.Operands())...) }
func (r *vectorRule) ComputeStructureResult(rec *record.Record) rule.Structure {
	ops := r.Operands()
	values := make([]value.Symbol, len(ops))
	for i, op := range ops {
		values[i] = op.GetSymbolValue(rec)
	}
	return &SymbolVector{values: values}
}

// --- ValueAtC / ValueAt: index into a VectorC/Vector operand -----------

type valueAtCRule struct{ rule.BaseRule }

func newValueAtC(ops ...rule.Operand) *valueAtCRule {
	r := &valueAtCRule{}
	r.BaseRule = rule.NewBaseRule("ValueAtC", "ValueAtC", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *valueAtCRule) Clone() rule.Rule      { return newValueAtC(derefAll(r.Operands())...) }
func (r *valueAtCRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *valueAtCRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	s := ops[0].GetStructureValue(rec)
	vec, ok := s.(*ContinuousVector)
	if !ok {
		return value.Missing
	}
	index := int(ops[1].GetContinuousValue(rec))
	return vec.ValueAt(index)
}

type valueAtRule struct{ rule.BaseRule }

func newValueAt(ops ...rule.Operand) *valueAtRule {
	r := &valueAtRule{}
	r.BaseRule = rule.NewBaseRule("ValueAt", "ValueAt", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *valueAtRule) Clone() rule.Rule      { return newValueAt(derefAll(r.Operands())...) }
func (r *valueAtRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *valueAtRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	ops := r.Operands()
	s := ops[0].GetStructureValue(rec)
	vec, ok := s.(*SymbolVector)
	if !ok {
		return value.EmptySymbol
	}
	index := int(ops[1].GetContinuousValue(rec))
	return vec.ValueAt(index)
}

// --- AsVectorC / AsVector: split a space-separated Symbol ----------------

type asVectorCRule struct{ rule.BaseRule }

func newAsVectorC(ops ...rule.Operand) *asVectorCRule {
	r := &asVectorCRule{}
	r.BaseRule = rule.NewBaseRule("AsVectorC", "AsVectorC", value.KindVectorC, "", 0, toPtrs(ops))
	return r
}
func (r *asVectorCRule) Clone() rule.Rule      { return newAsVectorC(derefAll(r.Operands())...) }
func (r *asVectorCRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *asVectorCRule) ComputeStructureResult(rec *record.Record) rule.Structure {
	fields := strings.Fields(r.Operands()[0].GetSymbolValue(rec).String())
	values := make([]value.Continuous, len(fields))
	for i, f := range fields {
		values[i], _ = value.ParseContinuous(f)
	}
	return &ContinuousVector{values: values}
}

type asVectorRule struct{ rule.BaseRule }

func newAsVector(ops ...rule.Operand) *asVectorRule {
	r := &asVectorRule{}
	r.BaseRule = rule.NewBaseRule("AsVector", "AsVector", value.KindVector, "", 0, toPtrs(ops))
	return r
}
func (r *asVectorRule) Clone() rule.Rule      { return newAsVector(derefAll(r.Operands())...) }
func (r *asVectorRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *asVectorRule) ComputeStructureResult(rec *record.Record) rule.Structure {
	fields := strings.Fields(r.Operands()[0].GetSymbolValue(rec).String())
	values := make([]value.Symbol, len(fields))
	for i, f := range fields {
		values[i] = value.Intern(f)
	}
	return &SymbolVector{values: values}
}
