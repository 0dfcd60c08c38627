package library

import (
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("Sum", func() rule.Rule { return newSum() })
	rule.Register("Difference", func() rule.Rule { return newDifference() })
	rule.Register("Product", func() rule.Rule { return newProduct() })
	rule.Register("Quotient", func() rule.Rule { return newQuotient() })
	rule.Register("Lt", func() rule.Rule { return newComparison("Lt") })
	rule.Register("Gt", func() rule.Rule { return newComparison("Gt") })
	rule.Register("Eq", func() rule.Rule { return newComparison("Eq") })
	rule.Register("And", func() rule.Rule { return newLogical("And") })
	rule.Register("Or", func() rule.Rule { return newLogical("Or") })
	rule.Register("Not", func() rule.Rule { return newNot() })
	rule.Register("Substring", func() rule.Rule { return newSubstring() })
	rule.Register("Length", func() rule.Rule { return newLength() })
}

// booleanTrue/booleanFalse follow the teacher-style convention of
// representing Boolean-result rules as Continuous 1/0, matching the
// original's C++ model (there is no dedicated Boolean scalar kind,
// spec.md §3).
const (
	booleanFalse value.Continuous = 0
	booleanTrue  value.Continuous = 1
)

func asBool(c value.Continuous) bool { return !c.IsMissing() && c != booleanFalse }

type binaryContinuousRule struct {
	rule.BaseRule
	name string
	op   func(a, b value.Continuous) value.Continuous
}

func newBinaryContinuous(name string, op func(a, b value.Continuous) value.Continuous, ops ...rule.Operand) *binaryContinuousRule {
	r := &binaryContinuousRule{name: name, op: op}
	r.BaseRule = rule.NewBaseRule(name, name, value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *binaryContinuousRule) Clone() rule.Rule {
	return newBinaryContinuous(r.name, r.op, derefAll(r.Operands())...)
}
func (r *binaryContinuousRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *binaryContinuousRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	a := ops[0].GetContinuousValue(rec)
	b := ops[1].GetContinuousValue(rec)
	if a.IsMissing() || b.IsMissing() {
		return value.Missing
	}
	return r.op(a, b)
}

func newSum(ops ...rule.Operand) *binaryContinuousRule {
	return newBinaryContinuous("Sum", func(a, b value.Continuous) value.Continuous { return a + b }, ops...)
}
func newDifference(ops ...rule.Operand) *binaryContinuousRule {
	return newBinaryContinuous("Difference", func(a, b value.Continuous) value.Continuous { return a - b }, ops...)
}
func newProduct(ops ...rule.Operand) *binaryContinuousRule {
	return newBinaryContinuous("Product", func(a, b value.Continuous) value.Continuous { return a * b }, ops...)
}
func newQuotient(ops ...rule.Operand) *binaryContinuousRule {
	return newBinaryContinuous("Quotient", func(a, b value.Continuous) value.Continuous {
		if b == 0 {
			return value.Missing
		}
		return a / b
	}, ops...)
}

// --- comparisons (Continuous -> Continuous 0/1 boolean) ----------------

type comparisonRule struct {
	rule.BaseRule
	kind string
}

func newComparison(kind string, ops ...rule.Operand) *comparisonRule {
	r := &comparisonRule{kind: kind}
	r.BaseRule = rule.NewBaseRule(kind, kind, value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *comparisonRule) Clone() rule.Rule        { return newComparison(r.kind, derefAll(r.Operands())...) }
func (r *comparisonRule) CheckDefinition() error   { return requireOperandCount(r, 2) }
func (r *comparisonRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	a := ops[0].GetContinuousValue(rec)
	b := ops[1].GetContinuousValue(rec)
	if a.IsMissing() || b.IsMissing() {
		return value.Missing
	}
	var result bool
	switch r.kind {
	case "Lt":
		result = a < b
	case "Gt":
		result = a > b
	case "Eq":
		result = a == b
	}
	if result {
		return booleanTrue
	}
	return booleanFalse
}

// --- logical connectives -------------------------------------------------

type logicalRule struct {
	rule.BaseRule
	kind string
}

func newLogical(kind string, ops ...rule.Operand) *logicalRule {
	r := &logicalRule{kind: kind}
	r.BaseRule = rule.NewBaseRule(kind, kind, value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *logicalRule) Clone() rule.Rule      { return newLogical(r.kind, derefAll(r.Operands())...) }
func (r *logicalRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *logicalRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	a := asBool(ops[0].GetContinuousValue(rec))
	b := asBool(ops[1].GetContinuousValue(rec))
	var result bool
	if r.kind == "And" {
		result = a && b
	} else {
		result = a || b
	}
	if result {
		return booleanTrue
	}
	return booleanFalse
}

type notRule struct{ rule.BaseRule }

func newNot(ops ...rule.Operand) *notRule {
	r := &notRule{}
	r.BaseRule = rule.NewBaseRule("Not", "Not", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *notRule) Clone() rule.Rule      { return newNot(derefAll(r.Operands())...) }
func (r *notRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *notRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	if asBool(r.Operands()[0].GetContinuousValue(rec)) {
		return booleanFalse
	}
	return booleanTrue
}

// --- string rules --------------------------------------------------------

type substringRule struct{ rule.BaseRule }

func newSubstring(ops ...rule.Operand) *substringRule {
	r := &substringRule{}
	r.BaseRule = rule.NewBaseRule("Substring", "Substring", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *substringRule) Clone() rule.Rule      { return newSubstring(derefAll(r.Operands())...) }
func (r *substringRule) CheckDefinition() error { return requireOperandCount(r, 3) }

// ComputeSymbolResult returns the 1-based, length-bounded substring of
// operand 0 starting at operand 1 for operand 2 characters, clipped to
// the source's bounds; an out-of-range start yields the empty symbol.
func (r *substringRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	ops := r.Operands()
	s := ops[0].GetSymbolValue(rec).String()
	start := int(ops[1].GetContinuousValue(rec))
	length := int(ops[2].GetContinuousValue(rec))
	runes := []rune(s)
	if start < 1 || start > len(runes) || length <= 0 {
		return value.EmptySymbol
	}
	end := start - 1 + length
	if end > len(runes) {
		end = len(runes)
	}
	return value.Intern(string(runes[start-1 : end]))
}

type lengthRule struct{ rule.BaseRule }

func newLength(ops ...rule.Operand) *lengthRule {
	r := &lengthRule{}
	r.BaseRule = rule.NewBaseRule("Length", "Length", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *lengthRule) Clone() rule.Rule      { return newLength(derefAll(r.Operands())...) }
func (r *lengthRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *lengthRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	s := r.Operands()[0].GetSymbolValue(rec).String()
	return value.Continuous(len([]rune(s)))
}
