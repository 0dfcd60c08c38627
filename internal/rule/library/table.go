package library

import (
	"sort"

	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/value"
)

func init() {
	rule.Register("Exist", func() rule.Rule { return newExist() })
	rule.Register("GetValueC", func() rule.Rule { return newGetValueC() })
	rule.Register("GetValueSymbol", func() rule.Rule { return newGetValueSymbol() })
	rule.Register("TableAt", func() rule.Rule { return newTableAt() })
	rule.Register("TableAtKey", func() rule.Rule { return newTableAtKey() })
	rule.Register("TableSelectFirst", func() rule.Rule { return newTableSelectFirst() })
	rule.Register("TableSelection", func() rule.Rule { return newTableSelection() })
	rule.Register("TableSort", func() rule.Rule { return newTableSort() })
	rule.Register("TableExtraction", func() rule.Rule { return newTableExtraction() })
	rule.Register("TableUnion", func() rule.Rule { return newTableSetOp("TableUnion") })
	rule.Register("TableIntersection", func() rule.Rule { return newTableSetOp("TableIntersection") })
	rule.Register("TableDifference", func() rule.Rule { return newTableSetOp("TableDifference") })
	rule.Register("TableSubUnion", func() rule.Rule { return newTableSubOp("TableSubUnion") })
	rule.Register("TableSubIntersection", func() rule.Rule { return newTableSubOp("TableSubIntersection") })
}

// --- Exist / GetValueC / GetValueSymbol: read through a possibly-null --
// --- sub-record (spec.md §4.4, "Table-valued operations") -------------

type existRule struct{ rule.BaseRule }

func newExist(ops ...rule.Operand) *existRule {
	r := &existRule{}
	r.BaseRule = rule.NewBaseRule("Exist", "Exist", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *existRule) Clone() rule.Rule      { return newExist(derefAll(r.Operands())...) }
func (r *existRule) CheckDefinition() error { return requireOperandCount(r, 1) }
func (r *existRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	if r.Operands()[0].GetObjectValue(rec) == nil {
		return booleanFalse
	}
	return booleanTrue
}

// getValueCRule reads a Continuous field of a sub-record: operand 0 is
// the Object operand, operand 1 is a Rule operand compiled against the
// sub-record's own dictionary and evaluated with the sub-record as its
// scope rather than the caller's main record.
type getValueCRule struct{ rule.BaseRule }

func newGetValueC(ops ...rule.Operand) *getValueCRule {
	r := &getValueCRule{}
	r.BaseRule = rule.NewBaseRule("GetValueC", "GetValueC", value.KindContinuous, "", 0, toPtrs(ops))
	return r
}
func (r *getValueCRule) Clone() rule.Rule      { return newGetValueC(derefAll(r.Operands())...) }
func (r *getValueCRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *getValueCRule) ComputeContinuousResult(rec *record.Record) value.Continuous {
	ops := r.Operands()
	sub := ops[0].GetObjectValue(rec)
	if sub == nil {
		return value.Missing
	}
	return ops[1].GetContinuousValue(sub)
}

type getValueSymbolRule struct{ rule.BaseRule }

func newGetValueSymbol(ops ...rule.Operand) *getValueSymbolRule {
	r := &getValueSymbolRule{}
	r.BaseRule = rule.NewBaseRule("GetValueSymbol", "GetValueSymbol", value.KindSymbol, "", 0, toPtrs(ops))
	return r
}
func (r *getValueSymbolRule) Clone() rule.Rule      { return newGetValueSymbol(derefAll(r.Operands())...) }
func (r *getValueSymbolRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *getValueSymbolRule) ComputeSymbolResult(rec *record.Record) value.Symbol {
	ops := r.Operands()
	sub := ops[0].GetObjectValue(rec)
	if sub == nil {
		return value.EmptySymbol
	}
	return ops[1].GetSymbolValue(sub)
}

// --- TableAt: 1-based rank into an ObjectArray --------------------------

type tableAtRule struct{ rule.BaseRule }

func newTableAt(ops ...rule.Operand) *tableAtRule {
	r := &tableAtRule{}
	r.BaseRule = rule.NewBaseRule("TableAt", "TableAt", value.KindObject, "", 0, toPtrs(ops))
	return r
}
func (r *tableAtRule) Clone() rule.Rule      { return newTableAt(derefAll(r.Operands())...) }
func (r *tableAtRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *tableAtRule) ComputeObjectResult(rec *record.Record) *record.Record {
	ops := r.Operands()
	arr := ops[0].GetObjectArrayValue(rec)
	if arr == nil {
		return nil
	}
	rank := ops[1].GetContinuousValue(rec)
	if rank.IsMissing() {
		return nil
	}
	i := int(rank)
	if i < 1 || i > arr.Len() {
		return nil
	}
	return arr.At(i - 1)
}

// --- TableAtKey: linear search by the sub-dictionary's key attributes --

type tableAtKeyRule struct{ rule.BaseRule }

func newTableAtKey(ops ...rule.Operand) *tableAtKeyRule {
	r := &tableAtKeyRule{}
	r.BaseRule = rule.NewBaseRule("TableAtKey", "TableAtKey", value.KindObject, "", rule.VariableOperandNumber, toPtrs(ops))
	return r
}
func (r *tableAtKeyRule) Clone() rule.Rule { return newTableAtKey(derefAll(r.Operands())...) }
func (r *tableAtKeyRule) CheckDefinition() error {
	if len(r.Operands()) < 2 {
		return &rule.DefinitionError{Rule: r.Name(), Reason: "expects a table operand plus at least one key operand"}
	}
	return nil
}

// ComputeObjectResult scans arr for the first element whose dictionary
// key attributes equal, in order, the values of operands[1:].
func (r *tableAtKeyRule) ComputeObjectResult(rec *record.Record) *record.Record {
	ops := r.Operands()
	arr := ops[0].GetObjectArrayValue(rec)
	if arr == nil {
		return nil
	}
	keyOps := ops[1:]
	for i := 0; i < arr.Len(); i++ {
		elem := arr.At(i)
		if elementMatchesKey(elem, keyOps, rec) {
			return elem
		}
	}
	return nil
}

func elementMatchesKey(elem *record.Record, keyOps []*rule.Operand, rec *record.Record) bool {
	keyNames := elem.Dictionary().KeyAttributeNames()
	if len(keyNames) != len(keyOps) {
		return false
	}
	for i, name := range keyNames {
		attr := elem.Dictionary().LookupAttribute(name)
		if attr == nil {
			return false
		}
		switch attr.Type {
		case value.KindSymbol:
			if !elem.GetSymbolValue(attr).Equal(keyOps[i].GetSymbolValue(rec)) {
				return false
			}
		case value.KindContinuous:
			if elem.GetContinuousValue(attr) != keyOps[i].GetContinuousValue(rec) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// --- TableSelectFirst / TableSelection: predicate in secondary scope ---

type tableSelectFirstRule struct{ rule.BaseRule }

func newTableSelectFirst(ops ...rule.Operand) *tableSelectFirstRule {
	r := &tableSelectFirstRule{}
	r.BaseRule = rule.NewBaseRule("TableSelectFirst", "TableSelectFirst", value.KindObject, "", 0, toPtrs(ops))
	return r
}
func (r *tableSelectFirstRule) Clone() rule.Rule { return newTableSelectFirst(derefAll(r.Operands())...) }
func (r *tableSelectFirstRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *tableSelectFirstRule) ComputeObjectResult(rec *record.Record) *record.Record {
	ops := r.Operands()
	arr := ops[0].GetObjectArrayValue(rec)
	if arr == nil {
		return nil
	}
	predicate := ops[1]
	for i := 0; i < arr.Len(); i++ {
		elem := arr.At(i)
		if asBool(predicate.GetContinuousValue(elem)) {
			return elem
		}
	}
	return nil
}

type tableSelectionRule struct{ rule.BaseRule }

func newTableSelection(ops ...rule.Operand) *tableSelectionRule {
	r := &tableSelectionRule{}
	r.BaseRule = rule.NewBaseRule("TableSelection", "TableSelection", value.KindObjectArray, "", 0, toPtrs(ops))
	return r
}
func (r *tableSelectionRule) Clone() rule.Rule { return newTableSelection(derefAll(r.Operands())...) }
func (r *tableSelectionRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *tableSelectionRule) ComputeObjectArrayResult(rec *record.Record) *record.ObjectArray {
	ops := r.Operands()
	arr := ops[0].GetObjectArrayValue(rec)
	result := record.NewObjectArray()
	if arr == nil {
		return result
	}
	predicate := ops[1]
	for i := 0; i < arr.Len(); i++ {
		elem := arr.At(i)
		if asBool(predicate.GetContinuousValue(elem)) {
			_ = result.Append(elem)
		}
	}
	return result
}

// --- TableSort: stable hierarchical sort by N per-element sort keys ----

type tableSortRule struct{ rule.BaseRule }

func newTableSort(ops ...rule.Operand) *tableSortRule {
	r := &tableSortRule{}
	r.BaseRule = rule.NewBaseRule("TableSort", "TableSort", value.KindObjectArray, "", rule.VariableOperandNumber, toPtrs(ops))
	return r
}
func (r *tableSortRule) Clone() rule.Rule { return newTableSort(derefAll(r.Operands())...) }
func (r *tableSortRule) CheckDefinition() error {
	if len(r.Operands()) < 2 {
		return &rule.DefinitionError{Rule: r.Name(), Reason: "expects a table operand plus at least one sort key"}
	}
	return nil
}

// ComputeObjectArrayResult sorts a copy of the table's elements by
// operands[1:], each evaluated against the element being compared; ties
// fall through to the next key, then to original (source) order, since
// sort.SliceStable never reorders equal elements.
func (r *tableSortRule) ComputeObjectArrayResult(rec *record.Record) *record.ObjectArray {
	ops := r.Operands()
	arr := ops[0].GetObjectArrayValue(rec)
	if arr == nil {
		return record.NewObjectArray()
	}
	elems := arr.Elements()
	keyOps := ops[1:]
	sort.SliceStable(elems, func(i, j int) bool {
		for _, keyOp := range keyOps {
			switch keyOp.Type {
			case value.KindSymbol:
				a, b := keyOp.GetSymbolValue(elems[i]).String(), keyOp.GetSymbolValue(elems[j]).String()
				if a != b {
					return a < b
				}
			default:
				a, b := keyOp.GetContinuousValue(elems[i]), keyOp.GetContinuousValue(elems[j])
				if a != b {
					return a < b
				}
			}
		}
		return false
	})
	out, _ := record.NewObjectArrayFrom(elems)
	return out
}

// --- TableExtraction: 1-based inclusive range, clipped ------------------

type tableExtractionRule struct{ rule.BaseRule }

func newTableExtraction(ops ...rule.Operand) *tableExtractionRule {
	r := &tableExtractionRule{}
	r.BaseRule = rule.NewBaseRule("TableExtraction", "TableExtraction", value.KindObjectArray, "", 0, toPtrs(ops))
	return r
}
func (r *tableExtractionRule) Clone() rule.Rule { return newTableExtraction(derefAll(r.Operands())...) }
func (r *tableExtractionRule) CheckDefinition() error { return requireOperandCount(r, 3) }
func (r *tableExtractionRule) ComputeObjectArrayResult(rec *record.Record) *record.ObjectArray {
	ops := r.Operands()
	arr := ops[0].GetObjectArrayValue(rec)
	result := record.NewObjectArray()
	if arr == nil {
		return result
	}
	begin := ops[1].GetContinuousValue(rec)
	end := ops[2].GetContinuousValue(rec)
	if begin.IsMissing() || end.IsMissing() {
		return result
	}
	b, e := int(begin), int(end)
	if b < 1 {
		b = 1
	}
	if e > arr.Len() {
		e = arr.Len()
	}
	for i := b; i <= e; i++ {
		_ = result.Append(arr.At(i - 1))
	}
	return result
}

// --- TableUnion / TableIntersection / TableDifference -------------------

type tableSetOpRule struct {
	rule.BaseRule
	kind string
}

func newTableSetOp(kind string, ops ...rule.Operand) *tableSetOpRule {
	r := &tableSetOpRule{kind: kind}
	r.BaseRule = rule.NewBaseRule(kind, kind, value.KindObjectArray, "", 0, toPtrs(ops))
	return r
}
func (r *tableSetOpRule) Clone() rule.Rule        { return newTableSetOp(r.kind, derefAll(r.Operands())...) }
func (r *tableSetOpRule) CheckDefinition() error   { return requireOperandCount(r, 2) }
func (r *tableSetOpRule) ComputeObjectArrayResult(rec *record.Record) *record.ObjectArray {
	ops := r.Operands()
	a := ops[0].GetObjectArrayValue(rec)
	b := ops[1].GetObjectArrayValue(rec)
	return applyTableSetOp(r.kind, a, b)
}

func applyTableSetOp(kind string, a, b *record.ObjectArray) *record.ObjectArray {
	result := record.NewObjectArray()
	if a == nil {
		a = record.NewObjectArray()
	}
	if b == nil {
		b = record.NewObjectArray()
	}
	switch kind {
	case "TableUnion":
		for i := 0; i < a.Len(); i++ {
			_ = result.Append(a.At(i))
		}
		for i := 0; i < b.Len(); i++ {
			if !a.Contains(b.At(i)) {
				_ = result.Append(b.At(i))
			}
		}
	case "TableIntersection":
		for i := 0; i < a.Len(); i++ {
			if b.Contains(a.At(i)) {
				_ = result.Append(a.At(i))
			}
		}
	case "TableDifference":
		for i := 0; i < a.Len(); i++ {
			if !b.Contains(a.At(i)) {
				_ = result.Append(a.At(i))
			}
		}
	}
	return result
}

// --- TableSubUnion / TableSubIntersection -------------------------------

// tableSubOpRule applies a set operation across the per-element
// sub-tables of an outer table: operand 0 is the outer ObjectArray,
// operand 1 is a Rule operand that, evaluated against each outer
// element, yields that element's own sub-table.
type tableSubOpRule struct {
	rule.BaseRule
	kind string
}

func newTableSubOp(kind string, ops ...rule.Operand) *tableSubOpRule {
	r := &tableSubOpRule{kind: kind}
	baseKind := "TableIntersection"
	if kind == "TableSubUnion" {
		baseKind = "TableUnion"
	}
	r.kind = baseKind
	r.BaseRule = rule.NewBaseRule(kind, kind, value.KindObjectArray, "", 0, toPtrs(ops))
	return r
}
func (r *tableSubOpRule) Clone() rule.Rule {
	name := "TableSubIntersection"
	if r.kind == "TableUnion" {
		name = "TableSubUnion"
	}
	return newTableSubOp(name, derefAll(r.Operands())...)
}
func (r *tableSubOpRule) CheckDefinition() error { return requireOperandCount(r, 2) }
func (r *tableSubOpRule) ComputeObjectArrayResult(rec *record.Record) *record.ObjectArray {
	ops := r.Operands()
	outer := ops[0].GetObjectArrayValue(rec)
	if outer == nil || outer.Len() == 0 {
		return record.NewObjectArray()
	}
	subtableOp := ops[1]
	acc := subtableOp.GetObjectArrayValue(outer.At(0))
	for i := 1; i < outer.Len(); i++ {
		acc = applyTableSetOp(r.kind, acc, subtableOp.GetObjectArrayValue(outer.At(i)))
	}
	if acc == nil {
		return record.NewObjectArray()
	}
	return acc
}
