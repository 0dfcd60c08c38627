package library

import (
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("AsDate", func() rule.Rule { return newAsDate() })
	rule.Register("AsTimestamp", func() rule.Rule { return newAsTimestamp() })
	rule.Register("FormatDate", func() rule.Rule { return newFormatDate() })
	rule.Register("FormatTimestamp", func() rule.Rule { return newFormatTimestamp() })
}

// --- AsDate/AsTimestamp: Symbol + constant format -> Date/Timestamp -----

type asDateRule struct{ rule.BaseRule }

func newAsDate(ops ...rule.Operand) *asDateRule {
	r := &asDateRule{}
	r.BaseRule = rule.NewBaseRule("AsDate", "AsDate", value.KindDate, "", 0, toPtrs(ops))
	return r
}
func (r *asDateRule) Clone() rule.Rule      { return newAsDate(derefAll(r.Operands())...) }
func (r *asDateRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *asDateRule) ComputeDateResult(rec *record.Record) value.Date {
	ops := r.Operands()
	s := ops[0].GetSymbolValue(rec).String()
	format := ops[1].GetSymbolValue(rec).String()
	return value.ParseDate(s, format)
}

type asTimestampRule struct{ rule.BaseRule }

func newAsTimestamp(ops ...rule.Operand) *asTimestampRule {
	r := &asTimestampRule{}
	r.BaseRule = rule.NewBaseRule("AsTimestamp", "AsTimestamp", value.KindTimestamp, "", 0, toPtrs(ops))
	return r
}
func (r *asTimestampRule) Clone() rule.Rule      { return newAsTimestamp(derefAll(r.Operands())...) }
func (r *asTimestampRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *asTimestampRule) ComputeTimestampResult(rec *record.Record) value.Timestamp {
	ops := r.Operands()
	s := ops[0].GetSymbolValue(rec).String()
	format := ops[1].GetSymbolValue(rec).String()
	return value.ParseTimestamp(s, format)
}

// --- FormatDate/FormatTimestamp: inverse direction ----------------------

type formatDateRule struct{ rule.BaseRule }

func newFormatDate(ops ...rule.Operand) *formatDateRule {
	r := &formatDateRule{}
	r.BaseRule = rule.NewBaseRule("FormatDate", "FormatDate", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *formatDateRule) Clone() rule.Rule      { return newFormatDate(derefAll(r.Operands())...) }
func (r *formatDateRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *formatDateRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	ops := r.Operands()
	d := ops[0].GetDateValue(rec)
	format := ops[1].GetSymbolValue(rec).String()
	return value.Intern(value.FormatDate(d, format))
}

type formatTimestampRule struct{ rule.BaseRule }

func newFormatTimestamp(ops ...rule.Operand) *formatTimestampRule {
	r := &formatTimestampRule{}
	r.BaseRule = rule.NewBaseRule("FormatTimestamp", "FormatTimestamp", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *formatTimestampRule) Clone() rule.Rule { return newFormatTimestamp(derefAll(r.Operands())...) }
func (r *formatTimestampRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *formatTimestampRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	ops := r.Operands()
	ts := ops[0].GetTimestampValue(rec)
	format := ops[1].GetSymbolValue(rec).String()
	return value.Intern(value.FormatTimestamp(ts, format))
}
