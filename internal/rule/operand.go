// Package rule implements the derivation-rule framework: operand
// binding, the validation/compile lifecycle, and the typed evaluation
// contract every concrete rule (internal/rule/library) satisfies
// (spec.md §4.3). The registry pattern below is grounded on the
// teacher's dialect.RegisterDialect/GetDialect pair.
package rule

import (
	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/value"
)

// Origin classifies where an operand's value comes from.
type Origin int

const (
	OriginConstant Origin = iota
	OriginAttribute
	OriginRule
)

func (o Origin) String() string {
	switch o {
	case OriginConstant:
		return "Constant"
	case OriginAttribute:
		return "Attribute"
	case OriginRule:
		return "Rule"
	default:
		return "Unknown"
	}
}

// Operand is one input slot of a Rule instance: a declared type, an
// origin, and the origin's payload.
type Operand struct {
	Type          value.Kind
	StructureType string // non-empty when Type is a structure kind

	Origin Origin

	// Exactly one of the following is meaningful, selected by Origin.
	Constant      value.Scalar
	AttributeName string
	SubRule       Rule

	// resolved is filled in by CheckCompleteness for OriginAttribute.
	resolvedAttr  *dictionary.Attribute
	resolvedBlock *dictionary.AttributeBlock
}

// NewConstantOperand builds an OriginConstant operand.
func NewConstantOperand(v value.Scalar) Operand {
	return Operand{Type: v.Kind(), Origin: OriginConstant, Constant: v}
}

// NewAttributeOperand builds an OriginAttribute operand referencing
// attrName; its type is resolved against the owning dictionary during
// CheckCompleteness.
func NewAttributeOperand(attrName string, expected value.Kind) Operand {
	return Operand{Type: expected, Origin: OriginAttribute, AttributeName: attrName}
}

// NewRuleOperand builds an OriginRule operand wrapping sub.
func NewRuleOperand(sub Rule) Operand {
	return Operand{Type: sub.ResultKind(), Origin: OriginRule, SubRule: sub}
}

// resolve binds an OriginAttribute operand against d, returning an
// error if the name is undefined or its type disagrees with the
// operand's declared type.
func (op *Operand) resolve(d *dictionary.Dictionary) error {
	if op.Origin != OriginAttribute {
		return nil
	}
	item, ok := d.LookupDataItem(op.AttributeName)
	if !ok {
		return &OperandError{Name: op.AttributeName, Reason: "undefined attribute"}
	}
	if item.Attribute != nil {
		if item.Attribute.Type != op.Type {
			return &OperandError{Name: op.AttributeName, Reason: "declared type does not match attribute type"}
		}
		op.resolvedAttr = item.Attribute
		return nil
	}
	if item.Block.ValueType != op.Type {
		return &OperandError{Name: op.AttributeName, Reason: "declared type does not match block type"}
	}
	op.resolvedBlock = item.Block
	return nil
}

// GetContinuousValue evaluates the operand as a Continuous.
func (op *Operand) GetContinuousValue(r *record.Record) value.Continuous {
	switch op.Origin {
	case OriginConstant:
		c, _ := op.Constant.AsContinuous()
		return c
	case OriginAttribute:
		return r.GetContinuousValue(op.resolvedAttr)
	case OriginRule:
		return op.SubRule.ComputeContinuousResult(r)
	default:
		return value.Missing
	}
}

func (op *Operand) GetSymbolValue(r *record.Record) value.Symbol {
	switch op.Origin {
	case OriginConstant:
		s, _ := op.Constant.AsSymbol()
		return s
	case OriginAttribute:
		return r.GetSymbolValue(op.resolvedAttr)
	case OriginRule:
		return op.SubRule.ComputeSymbolResult(r)
	default:
		return value.EmptySymbol
	}
}

func (op *Operand) GetDateValue(r *record.Record) value.Date {
	switch op.Origin {
	case OriginConstant:
		d, _ := op.Constant.AsDate()
		return d
	case OriginAttribute:
		return r.GetDateValue(op.resolvedAttr)
	case OriginRule:
		return op.SubRule.ComputeDateResult(r)
	default:
		return value.Date{}
	}
}

func (op *Operand) GetTimeValue(r *record.Record) value.Time {
	switch op.Origin {
	case OriginConstant:
		t, _ := op.Constant.AsTime()
		return t
	case OriginAttribute:
		return r.GetTimeValue(op.resolvedAttr)
	case OriginRule:
		return op.SubRule.ComputeTimeResult(r)
	default:
		return value.Time{}
	}
}

func (op *Operand) GetTimestampValue(r *record.Record) value.Timestamp {
	switch op.Origin {
	case OriginConstant:
		ts, _ := op.Constant.AsTimestamp()
		return ts
	case OriginAttribute:
		return r.GetTimestampValue(op.resolvedAttr)
	case OriginRule:
		return op.SubRule.ComputeTimestampResult(r)
	default:
		return value.Timestamp{}
	}
}

func (op *Operand) GetTimestampTZValue(r *record.Record) value.TimestampTZ {
	switch op.Origin {
	case OriginConstant:
		tz, _ := op.Constant.AsTimestampTZ()
		return tz
	case OriginAttribute:
		return r.GetTimestampTZValue(op.resolvedAttr)
	case OriginRule:
		return op.SubRule.ComputeTimestampTZResult(r)
	default:
		return value.TimestampTZ{}
	}
}

func (op *Operand) GetTextValue(r *record.Record) value.Text {
	switch op.Origin {
	case OriginConstant:
		t, _ := op.Constant.AsText()
		return t
	case OriginAttribute:
		return r.GetTextValue(op.resolvedAttr)
	case OriginRule:
		return op.SubRule.ComputeTextResult(r)
	default:
		return value.NewText("")
	}
}

func (op *Operand) GetContinuousValueBlock(r *record.Record) *value.ContinuousValueBlock {
	switch op.Origin {
	case OriginAttribute:
		return r.GetContinuousValueBlock(op.resolvedBlock)
	case OriginRule:
		return op.SubRule.ComputeContinuousValueBlockResult(r)
	default:
		return nil
	}
}

func (op *Operand) GetSymbolValueBlock(r *record.Record) *value.SymbolValueBlock {
	switch op.Origin {
	case OriginAttribute:
		return r.GetSymbolValueBlock(op.resolvedBlock)
	case OriginRule:
		return op.SubRule.ComputeSymbolValueBlockResult(r)
	default:
		return nil
	}
}

// BlockKeys returns the key space of this operand's resolved attribute
// block, or nil if the operand is not an OriginAttribute operand
// resolved against a block. Table-statistics rules use this to read
// the record count (BlockKeys().KeyCount()) backing their
// block/default-value entry point (spec.md §4.4); block-projection
// rules use it to remap a source block's keys into a consuming
// block's own key space (spec.md §4.1's ExtractBlockSubset).
func (op *Operand) BlockKeys() *value.IndexedKeyBlock {
	if op.resolvedBlock == nil {
		return nil
	}
	return op.resolvedBlock.Keys
}

// BlockDefaultContinuous returns the declared default value of this
// operand's resolved Continuous block, or value.Missing if the operand
// does not resolve to one.
func (op *Operand) BlockDefaultContinuous() value.Continuous {
	if op.resolvedBlock == nil {
		return value.Missing
	}
	return op.resolvedBlock.DefaultContinuous
}

// BlockDefaultSymbol returns the declared default value of this
// operand's resolved Symbol block, or value.EmptySymbol if the operand
// does not resolve to one.
func (op *Operand) BlockDefaultSymbol() value.Symbol {
	if op.resolvedBlock == nil {
		return value.EmptySymbol
	}
	return op.resolvedBlock.DefaultSymbol
}

// GetObjectValue evaluates an OriginAttribute or OriginRule operand
// whose declared type is KindObject. attrName is the record-level
// association name (see record.Record.GetObjectValue).
func (op *Operand) GetObjectValue(r *record.Record) *record.Record {
	switch op.Origin {
	case OriginAttribute:
		return r.GetObjectValue(op.AttributeName)
	case OriginRule:
		return op.SubRule.ComputeObjectResult(r)
	default:
		return nil
	}
}

// GetStructureValue evaluates an OriginRule operand whose declared type
// is one of the generic structure kinds (VectorC, Vector, HashMapC,
// HashMap).
func (op *Operand) GetStructureValue(r *record.Record) Structure {
	if op.Origin == OriginRule {
		return op.SubRule.ComputeStructureResult(r)
	}
	return nil
}

func (op *Operand) GetObjectArrayValue(r *record.Record) *record.ObjectArray {
	switch op.Origin {
	case OriginAttribute:
		return r.GetObjectArrayValue(op.AttributeName)
	case OriginRule:
		return op.SubRule.ComputeObjectArrayResult(r)
	default:
		return nil
	}
}

// OperandError reports an operand that failed to resolve or type-check
// against its owning dictionary.
type OperandError struct {
	Name   string
	Reason string
}

func (e *OperandError) Error() string {
	return "operand " + e.Name + ": " + e.Reason
}
