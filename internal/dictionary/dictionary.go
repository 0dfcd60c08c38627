package dictionary

import (
	"fmt"

	"derivecore/internal/value"
)

// Dictionary is a named, ordered collection of Attributes and
// AttributeBlocks. It is mutable while being assembled and immutable
// once Compile succeeds (spec.md §3, §4.2).
type Dictionary struct {
	Name string
	Root bool

	attributes map[string]*Attribute
	blocks     map[string]*AttributeBlock
	order      []string // insertion order of top-level names (attrs + blocks), for stable iteration

	keyNames []string // ordered composite key attribute names

	compiled  bool
	freshness uint64
}

// NewDictionary creates an empty, uncompiled Dictionary.
func NewDictionary(name string) *Dictionary {
	return &Dictionary{
		Name:       name,
		attributes: make(map[string]*Attribute),
		blocks:     make(map[string]*AttributeBlock),
	}
}

// Freshness returns the counter bumped on every successful Compile;
// rules compare it against their own CompileFreshness to decide whether
// they must recompile (spec.md §4.3).
func (d *Dictionary) Freshness() uint64 { return d.freshness }

// IsCompiled reports whether Compile has succeeded at least once since
// the last mutation.
func (d *Dictionary) IsCompiled() bool { return d.compiled }

func (d *Dictionary) nameTaken(name string) bool {
	_, isAttr := d.attributes[name]
	_, isBlock := d.blocks[name]
	return isAttr || isBlock
}

// AddAttribute registers a dense (non-block) attribute. Returns
// InvalidSchemaError{DuplicateName} if the name is already used by an
// attribute or a block in this dictionary.
func (d *Dictionary) AddAttribute(attr *Attribute) error {
	if d.nameTaken(attr.Name) {
		return &InvalidSchemaError{Kind: DuplicateName, Subject: attr.Name, Detail: "already declared in dictionary " + d.Name}
	}
	attr.LoadIndex = -1
	d.attributes[attr.Name] = attr
	d.order = append(d.order, attr.Name)
	if attr.Key {
		d.keyNames = append(d.keyNames, attr.Name)
	}
	d.compiled = false
	return nil
}

// AddAttributeBlock registers a sparse block together with its member
// attributes (each added as a BlockName-tagged Attribute). Members must
// carry distinct VarKeys; the block's IndexedKeyBlock is built from
// them in the order given.
func (d *Dictionary) AddAttributeBlock(block *AttributeBlock, members []*Attribute) error {
	if d.nameTaken(block.Name) {
		return &InvalidSchemaError{Kind: DuplicateName, Subject: block.Name, Detail: "already declared in dictionary " + d.Name}
	}
	seen := make(map[string]bool, len(members))
	for _, m := range members {
		if d.nameTaken(m.Name) {
			return &InvalidSchemaError{Kind: DuplicateName, Subject: m.Name, Detail: "already declared in dictionary " + d.Name}
		}
		vk := m.VarKey.String()
		if seen[vk] {
			return &InvalidSchemaError{Kind: DuplicateName, Subject: m.Name, Detail: "duplicate VarKey " + vk + " in block " + block.Name}
		}
		seen[vk] = true
	}

	varKeys := make([]value.VarKey, 0, len(members))
	for _, m := range members {
		m.BlockName = block.Name
		varKeys = append(varKeys, m.VarKey)
	}
	block.Keys = value.NewIndexedKeyBlock(varKeys)
	block.MemberNames = make([]string, 0, len(members))
	block.LoadIndex = -1

	d.blocks[block.Name] = block
	d.order = append(d.order, block.Name)
	for _, m := range members {
		d.attributes[m.Name] = m
		block.MemberNames = append(block.MemberNames, m.Name)
		if m.Key {
			d.keyNames = append(d.keyNames, m.Name)
		}
	}
	d.compiled = false
	return nil
}

// LookupAttribute returns the dense or block-member attribute named
// name, or nil if none exists.
func (d *Dictionary) LookupAttribute(name string) *Attribute {
	return d.attributes[name]
}

// LookupAttributeBlock returns the block named name, or nil.
func (d *Dictionary) LookupAttributeBlock(name string) *AttributeBlock {
	return d.blocks[name]
}

// DataItem is whichever of Attribute or AttributeBlock a name resolves
// to; at most one of the two fields is non-nil.
type DataItem struct {
	Attribute *Attribute
	Block     *AttributeBlock
}

// LookupDataItem resolves name against both attributes and blocks.
func (d *Dictionary) LookupDataItem(name string) (DataItem, bool) {
	if a, ok := d.attributes[name]; ok {
		return DataItem{Attribute: a}, true
	}
	if b, ok := d.blocks[name]; ok {
		return DataItem{Block: b}, true
	}
	return DataItem{}, false
}

// KeyAttributeNames returns the ordered composite key attribute names.
func (d *Dictionary) KeyAttributeNames() []string {
	return append([]string(nil), d.keyNames...)
}

// AttributeNames returns top-level attribute names (dense, not inside
// a block) in declaration order.
func (d *Dictionary) AttributeNames() []string {
	var names []string
	for _, n := range d.order {
		if a, ok := d.attributes[n]; ok && !a.InBlock() {
			names = append(names, n)
		}
	}
	return names
}

// BlockNames returns block names in declaration order.
func (d *Dictionary) BlockNames() []string {
	var names []string
	for _, n := range d.order {
		if _, ok := d.blocks[n]; ok {
			names = append(names, n)
		}
	}
	return names
}

// Compile validates the dictionary and assigns contiguous LoadIndex
// values, separately to loaded dense attributes and to loaded blocks,
// in declaration order. It is safe to call repeatedly (each call
// re-validates and re-derives load indexes from current content); every
// successful call bumps Freshness (spec.md §4.2).
func (d *Dictionary) Compile() error {
	if err := d.checkNoDuplicates(); err != nil {
		return err
	}
	if err := d.checkReferencesAndCycles(); err != nil {
		return err
	}
	if err := d.checkKeyConstraints(); err != nil {
		return err
	}
	if err := d.checkRuleCompleteness(); err != nil {
		return err
	}

	denseIndex := 0
	for _, n := range d.order {
		if a, ok := d.attributes[n]; ok && !a.InBlock() {
			if a.Loaded {
				a.LoadIndex = denseIndex
				denseIndex++
			} else {
				a.LoadIndex = -1
			}
		}
	}
	blockIndex := 0
	for _, n := range d.order {
		if b, ok := d.blocks[n]; ok {
			if b.Loaded {
				b.LoadIndex = blockIndex
				blockIndex++
			} else {
				b.LoadIndex = -1
			}
		}
	}

	d.compiled = true
	d.freshness++
	return nil
}

func (d *Dictionary) checkNoDuplicates() error {
	// Construction-time checks (AddAttribute/AddAttributeBlock) already
	// reject duplicates, so this is a defensive re-check against direct
	// struct mutation between Add calls and Compile.
	seen := make(map[string]bool, len(d.attributes)+len(d.blocks))
	for n := range d.attributes {
		if seen[n] {
			return &InvalidSchemaError{Kind: DuplicateName, Subject: n}
		}
		seen[n] = true
	}
	for n := range d.blocks {
		if seen[n] {
			return &InvalidSchemaError{Kind: DuplicateName, Subject: n}
		}
		seen[n] = true
	}
	return nil
}

func (d *Dictionary) checkKeyConstraints() error {
	if d.Root && len(d.keyNames) == 0 {
		return &InvalidSchemaError{Kind: EmptyRootKey, Subject: d.Name, Detail: "Root dictionary must declare at least one Key attribute"}
	}
	for _, kn := range d.keyNames {
		a := d.attributes[kn]
		if a != nil && a.IsDerived() {
			return &InvalidSchemaError{Kind: DerivedKeyAttribute, Subject: kn, Detail: "key attributes must be native"}
		}
	}
	return nil
}

func (d *Dictionary) checkReferencesAndCycles() error {
	// Build the derived-attribute dependency graph and detect cycles
	// via DFS with a recursion-stack marker.
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)

	var visit func(name string, chain []string) error
	visit = func(name string, chain []string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return &InvalidSchemaError{Kind: CyclicDerivation, Subject: name, Detail: fmt.Sprintf("cycle: %v", append(chain, name))}
		}
		color[name] = gray
		if a, ok := d.attributes[name]; ok && a.IsDerived() {
			for _, ref := range a.Rule.ReferencedAttributes() {
				_, attrExists := d.attributes[ref]
				_, blockExists := d.blocks[ref]
				if !attrExists && !blockExists {
					return &InvalidSchemaError{Kind: UndefinedReference, Subject: name, Detail: "references undefined attribute " + ref}
				}
				if err := visit(ref, append(chain, name)); err != nil {
					return err
				}
			}
		}
		if b, ok := d.blocks[name]; ok && b.IsDerived() {
			for _, ref := range b.Rule.ReferencedAttributes() {
				_, attrExists := d.attributes[ref]
				_, blockExists := d.blocks[ref]
				if !attrExists && !blockExists {
					return &InvalidSchemaError{Kind: UndefinedReference, Subject: name, Detail: "references undefined attribute " + ref}
				}
				if err := visit(ref, append(chain, name)); err != nil {
					return err
				}
			}
		}
		color[name] = black
		return nil
	}

	for _, n := range d.order {
		if err := visit(n, nil); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dictionary) checkRuleCompleteness() error {
	for _, n := range d.order {
		if a, ok := d.attributes[n]; ok && a.IsDerived() {
			if err := a.Rule.CheckDefinition(); err != nil {
				return &InvalidSchemaError{Kind: TypeMismatch, Subject: n, Detail: err.Error()}
			}
			if err := a.Rule.CheckCompleteness(d); err != nil {
				return &InvalidSchemaError{Kind: TypeMismatch, Subject: n, Detail: err.Error()}
			}
		}
		if b, ok := d.blocks[n]; ok && b.IsDerived() {
			if err := b.Rule.CheckDefinition(); err != nil {
				return &InvalidSchemaError{Kind: TypeMismatch, Subject: n, Detail: err.Error()}
			}
			if err := b.Rule.CheckCompleteness(d); err != nil {
				return &InvalidSchemaError{Kind: TypeMismatch, Subject: n, Detail: err.Error()}
			}
		}
	}
	return nil
}

// Clone returns an independent, uncompiled deep copy suitable for
// mutation (e.g. dictdiff or evolving a dictionary), leaving d
// untouched. Rule references are shared (rules are treated as
// immutable once attached).
func (d *Dictionary) Clone() *Dictionary {
	out := NewDictionary(d.Name)
	out.Root = d.Root
	for _, n := range d.order {
		if a, ok := d.attributes[n]; ok && !a.InBlock() {
			acopy := *a
			_ = out.AddAttribute(&acopy)
		}
	}
	for _, n := range d.order {
		if b, ok := d.blocks[n]; ok {
			bcopy := *b
			members := make([]*Attribute, 0, len(b.MemberNames))
			for _, mn := range b.MemberNames {
				if m, ok := d.attributes[mn]; ok {
					mcopy := *m
					mcopy.BlockName = ""
					members = append(members, &mcopy)
				}
			}
			_ = out.AddAttributeBlock(&bcopy, members)
		}
	}
	return out
}
