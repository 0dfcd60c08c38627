package rule

import (
	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/value"
)

// Flag bits a rule instance may carry (spec.md §4.3).
type Flag uint8

const (
	VariableOperandNumber Flag = 1 << iota
	MultipleScope
	StructureInterface
)

// Rule is the capability interface every concrete derivation rule
// satisfies. It extends dictionary.DerivationRule (the subset the
// dictionary needs for validation) with the full compile/evaluate
// lifecycle. Concrete rules embed BaseRule and override only the
// Compute*Result method matching their declared ResultKind; the rest
// inherit BaseRule's zero-value stubs, which are never invoked because
// operand dispatch only calls the method matching the operand's
// declared type (spec.md §9: tagged variant + small capability
// interface instead of virtual inheritance).
type Rule interface {
	dictionary.DerivationRule

	Label() string
	Operands() []*Operand
	Flags() Flag
	HasFlag(Flag) bool

	CheckOperandsCompleteness(d *dictionary.Dictionary) error
	CheckBlockAttributes(d *dictionary.Dictionary, block *dictionary.AttributeBlock) error
	Compile(d *dictionary.Dictionary) error
	DynamicCompile(target *value.IndexedKeyBlock) error

	CompileFreshness() uint64
	DynamicCompileFreshness() uint64

	ComputeContinuousResult(r *record.Record) value.Continuous
	ComputeSymbolResult(r *record.Record) value.Symbol
	ComputeDateResult(r *record.Record) value.Date
	ComputeTimeResult(r *record.Record) value.Time
	ComputeTimestampResult(r *record.Record) value.Timestamp
	ComputeTimestampTZResult(r *record.Record) value.TimestampTZ
	ComputeTextResult(r *record.Record) value.Text
	ComputeContinuousValueBlockResult(r *record.Record) *value.ContinuousValueBlock
	ComputeSymbolValueBlockResult(r *record.Record) *value.SymbolValueBlock
	ComputeObjectResult(r *record.Record) *record.Record
	ComputeObjectArrayResult(r *record.Record) *record.ObjectArray

	// ComputeStructureResult is the catch-all accessor for structure
	// kinds with no dedicated method (VectorC, Vector, HashMapC,
	// HashMap) — spec.md §4.3's GetStructureValue. The returned
	// Structure is owned by the rule instance and only valid until the
	// rule's next Compute call on the same operand.
	ComputeStructureResult(r *record.Record) Structure

	// EvaluateMainScopeSecondaryOperands/CleanMainScopeSecondaryOperands
	// implement the MultipleScope contract (spec.md §4.5). Rules that
	// do not set MultipleScope inherit BaseRule's no-ops.
	EvaluateMainScopeSecondaryOperands(main *record.Record)
	CleanMainScopeSecondaryOperands()

	// Clone returns a fresh, uncompiled instance of the same rule kind
	// (an engine that needs to iterate a MultipleScope rule
	// recursively creates a clone rather than re-entering the same
	// instance, per spec.md §4.5).
	Clone() Rule
}

// BaseRule implements the bookkeeping common to every concrete rule:
// name/label, result type, operand list, flags, and freshness
// counters. Concrete rules embed it and provide CheckDefinition and the
// one or two Compute*Result methods their ResultKind needs; the rules
// in internal/rule/library all inherit BaseRule's Compile.
type BaseRule struct {
	name          string
	label         string
	resultKind    value.Kind
	structureType string
	operands      []*Operand
	flags         Flag

	compileFreshness        uint64
	dynamicCompileFreshness uint64
}

// NewBaseRule constructs the shared bookkeeping for a concrete rule.
func NewBaseRule(name, label string, resultKind value.Kind, structureType string, flags Flag, operands []*Operand) BaseRule {
	return BaseRule{
		name:          name,
		label:         label,
		resultKind:    resultKind,
		structureType: structureType,
		operands:      operands,
		flags:         flags,
	}
}

func (b *BaseRule) Name() string          { return b.name }
func (b *BaseRule) Label() string         { return b.label }
func (b *BaseRule) ResultKind() value.Kind { return b.resultKind }
func (b *BaseRule) StructureType() string { return b.structureType }
func (b *BaseRule) Operands() []*Operand  { return b.operands }
func (b *BaseRule) Flags() Flag           { return b.flags }
func (b *BaseRule) HasFlag(f Flag) bool   { return b.flags&f != 0 }

func (b *BaseRule) CompileFreshness() uint64        { return b.compileFreshness }
func (b *BaseRule) DynamicCompileFreshness() uint64 { return b.dynamicCompileFreshness }

// ReferencedAttributes lists the names of every OriginAttribute operand
// plus, recursively, every OriginAttribute operand of any OriginRule
// sub-rule — the dependency edges dictionary.Dictionary.Compile walks
// to detect cycles and undefined references.
func (b *BaseRule) ReferencedAttributes() []string {
	var names []string
	for _, op := range b.operands {
		switch op.Origin {
		case OriginAttribute:
			names = append(names, op.AttributeName)
		case OriginRule:
			if sub, ok := op.SubRule.(interface{ ReferencedAttributes() []string }); ok {
				names = append(names, sub.ReferencedAttributes()...)
			}
		}
	}
	return names
}

// CheckDefinition provides a default shape check (operand count versus
// VariableOperandNumber); concrete rules with stricter requirements
// override it and should call this as a starting point if useful.
func (b *BaseRule) CheckDefinition() error {
	if len(b.operands) == 0 && !b.HasFlag(VariableOperandNumber) {
		return &DefinitionError{Rule: b.name, Reason: "at least one operand is required"}
	}
	return nil
}

// CheckCompleteness resolves every OriginAttribute operand against d.
func (b *BaseRule) CheckCompleteness(d *dictionary.Dictionary) error {
	for _, op := range b.operands {
		if err := op.resolve(d); err != nil {
			return &DefinitionError{Rule: b.name, Reason: err.Error()}
		}
	}
	return nil
}

// CheckOperandsCompleteness is a no-op by default; rules with constant
// operands that must be individually well-formed (parseable formats,
// matching secondary-dictionary keys, ...) override it.
func (b *BaseRule) CheckOperandsCompleteness(*dictionary.Dictionary) error { return nil }

// CheckBlockAttributes is a no-op by default; only block-producing
// rules override it.
func (b *BaseRule) CheckBlockAttributes(*dictionary.Dictionary, *dictionary.AttributeBlock) error {
	return nil
}

// Compile marks the rule compiled against d's current freshness.
// Concrete rules that need to precompute state (parsed formats, key
// maps, ...) override Compile, call this as their last step.
func (b *BaseRule) Compile(d *dictionary.Dictionary) error {
	b.compileFreshness = d.Freshness()
	return nil
}

// DynamicCompile is a no-op by default; only block-producing rules
// whose output layout depends on a consumer block override it.
func (b *BaseRule) DynamicCompile(*value.IndexedKeyBlock) error { return nil }

// EvaluateMainScopeSecondaryOperands/CleanMainScopeSecondaryOperands are
// no-ops by default; only MultipleScope rules override them.
func (b *BaseRule) EvaluateMainScopeSecondaryOperands(*record.Record) {}
func (b *BaseRule) CleanMainScopeSecondaryOperands()                  {}

// The Compute*Result stubs below satisfy the Rule interface for every
// result kind a concrete rule does not itself produce; operand
// dispatch never calls the mismatched ones because each Operand's
// declared Type selects the single matching accessor.
func (b *BaseRule) ComputeContinuousResult(*record.Record) value.Continuous { return value.Missing }
func (b *BaseRule) ComputeSymbolResult(*record.Record) value.Symbol         { return value.EmptySymbol }
func (b *BaseRule) ComputeDateResult(*record.Record) value.Date            { return value.Date{} }
func (b *BaseRule) ComputeTimeResult(*record.Record) value.Time            { return value.Time{} }
func (b *BaseRule) ComputeTimestampResult(*record.Record) value.Timestamp  { return value.Timestamp{} }
func (b *BaseRule) ComputeTimestampTZResult(*record.Record) value.TimestampTZ {
	return value.TimestampTZ{}
}
func (b *BaseRule) ComputeTextResult(*record.Record) value.Text { return value.NewText("") }
func (b *BaseRule) ComputeContinuousValueBlockResult(*record.Record) *value.ContinuousValueBlock {
	return nil
}
func (b *BaseRule) ComputeSymbolValueBlockResult(*record.Record) *value.SymbolValueBlock { return nil }
func (b *BaseRule) ComputeObjectResult(*record.Record) *record.Record                    { return nil }
func (b *BaseRule) ComputeObjectArrayResult(*record.Record) *record.ObjectArray          { return nil }
func (b *BaseRule) ComputeStructureResult(*record.Record) Structure                      { return nil }

// Structure is the generic structure-result kind: a named, in-memory
// object a rule produces and owns (spec.md §3). Object and ObjectArray
// have their own dedicated accessor methods; VectorC, Vector, HashMapC
// and HashMap implement Structure and travel through
// ComputeStructureResult/GetStructureValue instead.
type Structure interface {
	StructureKind() value.Kind
}

// DefinitionError reports a CheckDefinition/CheckCompleteness failure.
type DefinitionError struct {
	Rule   string
	Reason string
}

func (e *DefinitionError) Error() string {
	return "rule " + e.Rule + ": " + e.Reason
}
