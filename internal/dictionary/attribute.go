// Package dictionary implements the typed schema a Record is loaded
// against: named Attributes and AttributeBlocks, their derivation
// rules, and the compiled load-index layout a Driver uses to bind a
// physical table's columns to record slots (spec.md §3, §4.2).
package dictionary

import "derivecore/internal/value"

// DerivationRule is the subset of a rule instance's interface the
// dictionary needs to validate and compile a derived Attribute or
// AttributeBlock, without importing the rule package (which itself
// depends on dictionary — see spec.md §2's "dependency order").
// internal/rule.Rule satisfies this interface.
type DerivationRule interface {
	Name() string
	ResultKind() value.Kind
	StructureType() string
	// ReferencedAttributes lists the names of this rule's Attribute-
	// origin operands (recursively through Rule-origin operands), used
	// for cyclic-derivation detection.
	ReferencedAttributes() []string
	CheckDefinition() error
	CheckCompleteness(d *Dictionary) error
}

// Attribute is one named field of a Dictionary.
type Attribute struct {
	Name          string
	Type          value.Kind
	StructureType string // non-empty for Object/ObjectArray/structure-typed results
	Rule          DerivationRule // nil for a native (non-derived) attribute
	Loaded        bool
	Key           bool
	Format        string // per-type formatting metadata, e.g. a date format

	// BlockName, when non-empty, names the AttributeBlock this
	// attribute is a sparse member of; VarKey is its key within that
	// block's indexed key block.
	BlockName string
	VarKey    value.VarKey

	// LoadIndex is assigned by Dictionary.Compile; -1 until then.
	LoadIndex int
}

// IsNative reports whether the attribute reads directly from input
// rather than being computed by a rule.
func (a *Attribute) IsNative() bool { return a.Rule == nil }

// IsDerived reports whether the attribute's value is computed by a rule.
func (a *Attribute) IsDerived() bool { return a.Rule != nil }

// InBlock reports whether the attribute is a sparse member of an
// AttributeBlock rather than a dense field.
func (a *Attribute) InBlock() bool { return a.BlockName != "" }

// AttributeBlock groups a set of sparse variables sharing one indexed
// key block, one default value, and possibly one derivation rule that
// produces the whole block at once (spec.md §3, §4.1).
type AttributeBlock struct {
	Name      string
	ValueType value.Kind // KindContinuousValueBlock or KindSymbolValueBlock
	Rule      DerivationRule
	Loaded    bool

	Keys              *value.IndexedKeyBlock
	DefaultContinuous value.Continuous
	DefaultSymbol     value.Symbol

	// MemberNames is the ordered list of Attribute names that are
	// members of this block (each with Attribute.BlockName == Name).
	MemberNames []string

	// LoadIndex is assigned by Dictionary.Compile; -1 until then.
	LoadIndex int
}

// IsNative reports whether the block is populated from input rather
// than computed by a single block-producing rule.
func (b *AttributeBlock) IsNative() bool { return b.Rule == nil }

// IsDerived reports whether the block's contents are computed by a rule.
func (b *AttributeBlock) IsDerived() bool { return b.Rule != nil }
