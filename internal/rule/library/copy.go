// Package library implements a representative subset of the closed,
// registered-by-name derivation rule catalogue (spec.md §4.4). Every
// rule category named there has at least one concrete rule here, each
// exercising the internal/rule framework through its normal operand/
// compile/evaluate contract rather than through a privileged back
// door.
package library

import (
	"os"
	"strconv"
	"strings"

	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("CopyContinuous", func() rule.Rule { return newCopyContinuous() })
	rule.Register("CopySymbol", func() rule.Rule { return newCopySymbol() })
	rule.Register("AsNumerical", func() rule.Rule { return newAsNumerical() })
	rule.Register("AsCategorical", func() rule.Rule { return newAsCategorical() })
	rule.Register("RecodeMissing", func() rule.Rule { return newRecodeMissing() })
	rule.Register("FromText", func() rule.Rule { return newFromText() })
	rule.Register("ToText", func() rule.Rule { return newToText() })
	rule.Register("AsContinuousError", func() rule.Rule { return newAsContinuousError() })
	rule.Register("TextLoadFile", func() rule.Rule { return newTextLoadFile() })
}

// requireOperandCount gives CheckDefinition a precise arity check
// instead of BaseRule's generic "at least one operand" default; every
// fixed-arity rule in this package calls it with its own n.
func requireOperandCount(r rule.Rule, n int) error {
	if len(r.Operands()) != n {
		return &rule.DefinitionError{Rule: r.Name(), Reason: "expects exactly " + strconv.Itoa(n) + " operand(s)"}
	}
	return nil
}

// --- CopyContinuous / CopySymbol ---------------------------------------

type copyContinuousRule struct{ rule.BaseRule }

func newCopyContinuous(ops ...rule.Operand) *copyContinuousRule {
	r := &copyContinuousRule{}
	ptrs := toPtrs(ops)
	r.BaseRule = rule.NewBaseRule("CopyContinuous", "copy", value.KindContinuous, "", 0, ptrs)
	return r
}
func (r *copyContinuousRule) Clone() rule.Rule { return newCopyContinuous(derefAll(r.Operands())...) }
func (r *copyContinuousRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *copyContinuousRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	return r.Operands()[0].GetContinuousValue(rec)
}

type copySymbolRule struct{ rule.BaseRule }

func newCopySymbol(ops ...rule.Operand) *copySymbolRule {
	r := &copySymbolRule{}
	r.BaseRule = rule.NewBaseRule("CopySymbol", "copy", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *copySymbolRule) Clone() rule.Rule        { return newCopySymbol(derefAll(r.Operands())...) }
func (r *copySymbolRule) CheckDefinition() error   { return requireOperandCount(r, 1) }
func (r *copySymbolRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	return r.Operands()[0].GetSymbolValue(rec)
}

// --- AsNumerical / AsCategorical ----------------------------------------

type asNumericalRule struct{ rule.BaseRule }

func newAsNumerical(ops ...rule.Operand) *asNumericalRule {
	r := &asNumericalRule{}
	r.BaseRule = rule.NewBaseRule("AsNumerical", "AsNumerical", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *asNumericalRule) Clone() rule.Rule      { return newAsNumerical(derefAll(r.Operands())...) }
func (r *asNumericalRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *asNumericalRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	s := r.Operands()[0].GetSymbolValue(rec)
	c, _ := value.ParseContinuous(s.String())
	return c
}

type asCategoricalRule struct{ rule.BaseRule }

func newAsCategorical(ops ...rule.Operand) *asCategoricalRule {
	r := &asCategoricalRule{}
	r.BaseRule = rule.NewBaseRule("AsCategorical", "AsCategorical", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *asCategoricalRule) Clone() rule.Rule      { return newAsCategorical(derefAll(r.Operands())...) }
func (r *asCategoricalRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *asCategoricalRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	c := r.Operands()[0].GetContinuousValue(rec)
	return value.Intern(value.FormatContinuous(c))
}

// --- AsContinuousError ---------------------------------------------------

type asContinuousErrorRule struct{ rule.BaseRule }

func newAsContinuousError(ops ...rule.Operand) *asContinuousErrorRule {
	r := &asContinuousErrorRule{}
	r.BaseRule = rule.NewBaseRule("AsContinuousError", "AsContinuousError", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *asContinuousErrorRule) Clone() rule.Rule { return newAsContinuousError(derefAll(r.Operands())...) }
func (r *asContinuousErrorRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *asContinuousErrorRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	s := r.Operands()[0].GetSymbolValue(rec)
	_, convErr := value.ParseContinuous(s.String())
	return value.Intern(convErr.String())
}

// --- RecodeMissing ---------------------------------------------------------

type recodeMissingRule struct{ rule.BaseRule }

func newRecodeMissing(ops ...rule.Operand) *recodeMissingRule {
	r := &recodeMissingRule{}
	r.BaseRule = rule.NewBaseRule("RecodeMissing", "RecodeMissing", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *recodeMissingRule) Clone() rule.Rule      { return newRecodeMissing(derefAll(r.Operands())...) }
func (r *recodeMissingRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *recodeMissingRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	x := ops[0].GetContinuousValue(rec)
	if x.IsMissing() {
		return ops[1].GetContinuousValue(rec)
	}
	return x
}

// --- FromText / ToText -----------------------------------------------------

type fromTextRule struct{ rule.BaseRule }

func newFromText(ops ...rule.Operand) *fromTextRule {
	r := &fromTextRule{}
	r.BaseRule = rule.NewBaseRule("FromText", "FromText", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *fromTextRule) Clone() rule.Rule      { return newFromText(derefAll(r.Operands())...) }
func (r *fromTextRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *fromTextRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	t := r.Operands()[0].GetTextValue(rec)
	return value.Intern(t.String())
}

type toTextRule struct{ rule.BaseRule }

func newToText(ops ...rule.Operand) *toTextRule {
	r := &toTextRule{}
	r.BaseRule = rule.NewBaseRule("ToText", "ToText", value.KindText, "", 0, toPtrs(ops))
	return r
}
func (r *toTextRule) Clone() rule.Rule      { return newToText(derefAll(r.Operands())...) }
func (r *toTextRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *toTextRule) ComputeTextResult(rec *record.Record) value.Text {
	s := r.Operands()[0].GetSymbolValue(rec)
	return value.NewText(s.String())
}

// --- TextLoadFile ------------------------------------------------------------

type textLoadFileRule struct{ rule.BaseRule }

func newTextLoadFile(ops ...rule.Operand) *textLoadFileRule {
	r := &textLoadFileRule{}
	r.BaseRule = rule.NewBaseRule("TextLoadFile", "TextLoadFile", value.KindText, "", 0, toPtrs(ops))
	return r
}
func (r *textLoadFileRule) Clone() rule.Rule      { return newTextLoadFile(derefAll(r.Operands())...) }
func (r *textLoadFileRule) CheckDefinition() error { return requireOperandCount(r, 1) }

// ComputeTextResult reads the file named by the operand's Symbol value,
// replacing NUL/CR/LF with spaces and trimming surrounding whitespace so
// the result round-trips through a tabular field. A read error yields
// an empty, invalid Text rather than panicking; the caller's error sink
// is the one responsible for surfacing it as a warning.
func (r *textLoadFileRule) ComputeTextResult(rec *record.Record) value.Text {
	path := r.Operands()[0].GetSymbolValue(rec).String()
	data, err := os.ReadFile(path)
	if err != nil {
		return value.Text{}
	}
	if len(data) > value.MaxTextLength {
		data = data[:value.MaxTextLength]
	}
	cleaned := strings.Map(func(c rune) rune {
		switch c {
		case 0, '\r', '\n':
			return ' '
		default:
			return c
		}
	}, string(data))
	return value.NewText(strings.TrimSpace(cleaned))
}

// --- shared helpers ----------------------------------------------------------

func toPtrs(ops []rule.Operand) []*rule.Operand {
	ptrs := make([]*rule.Operand, len(ops))
	for i := range ops {
		ptrs[i] = &ops[i]
	}
	return ptrs
}

func derefAll(ptrs []*rule.Operand) []rule.Operand {
	ops := make([]rule.Operand, len(ptrs))
	for i, p := range ptrs {
		ops[i] = *p
	}
	return ops
}
