// Package record implements the in-memory row representation a Rule
// reads operands from and writes results into: a dense slot per loaded
// scalar attribute, an owned block-value slot per loaded block, and
// non-owning references to related sub-records (Object/ObjectArray)
// (spec.md §3, "Record").
package record

import (
	"sync/atomic"

	"derivecore/internal/dictionary"
	"derivecore/internal/value"
)

var creationCounter uint64

func nextCreationIndex() uint64 {
	return atomic.AddUint64(&creationCounter, 1)
}

// Record is one row's worth of dense and block slots, laid out
// according to its owning Dictionary's compiled LoadIndex assignment.
// A Record's dictionary must be compiled before the record is created.
type Record struct {
	dict          *dictionary.Dictionary
	creationIndex uint64

	cells  []value.Scalar
	blocks []blockSlot

	objects      map[string]*Record
	objectArrays map[string]*ObjectArray
}

type blockSlot struct {
	kind       value.Kind
	continuous *value.ContinuousValueBlock
	symbol     *value.SymbolValueBlock
}

// New allocates a zeroed Record laid out for the compiled dictionary d.
// Every dense cell starts at its kind's zero value (Missing for
// Continuous, empty Symbol, etc.); every block slot starts nil.
func New(d *dictionary.Dictionary) *Record {
	if !d.IsCompiled() {
		panic("record: dictionary must be compiled before creating records")
	}
	denseCount := 0
	blockCount := 0
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		if a.Loaded {
			denseCount++
		}
	}
	for _, name := range d.BlockNames() {
		b := d.LookupAttributeBlock(name)
		if b.Loaded {
			blockCount++
		}
	}

	r := &Record{
		dict:          d,
		creationIndex: nextCreationIndex(),
		cells:         make([]value.Scalar, denseCount),
		blocks:        make([]blockSlot, blockCount),
	}
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		if a.Loaded {
			r.cells[a.LoadIndex] = value.ZeroValueFor(a.Type)
		}
	}
	for _, name := range d.BlockNames() {
		b := d.LookupAttributeBlock(name)
		if b.Loaded {
			r.blocks[b.LoadIndex] = blockSlot{kind: b.ValueType}
		}
	}
	return r
}

// Dictionary returns the dictionary this record was laid out against.
func (r *Record) Dictionary() *dictionary.Dictionary { return r.dict }

// CreationIndex returns the monotonically increasing sequence number
// assigned when the record was created; used to break ties by source
// order (e.g. TableSort, spec.md §4.4).
func (r *Record) CreationIndex() uint64 { return r.creationIndex }

func (r *Record) cellIndex(attr *dictionary.Attribute, expected value.Kind) (int, bool) {
	if attr == nil || !attr.Loaded || attr.Type != expected || attr.LoadIndex < 0 {
		return 0, false
	}
	return attr.LoadIndex, true
}

// GetContinuousValue returns the dense slot's value, or value.Missing
// if attr is nil, not loaded, not a Continuous attribute, or unset.
func (r *Record) GetContinuousValue(attr *dictionary.Attribute) value.Continuous {
	i, ok := r.cellIndex(attr, value.KindContinuous)
	if !ok {
		return value.Missing
	}
	c, _ := r.cells[i].AsContinuous()
	return c
}

// SetContinuousValue stores v in attr's dense slot.
func (r *Record) SetContinuousValue(attr *dictionary.Attribute, v value.Continuous) {
	if i, ok := r.cellIndex(attr, value.KindContinuous); ok {
		r.cells[i] = value.ScalarFromContinuous(v)
	}
}

func (r *Record) GetSymbolValue(attr *dictionary.Attribute) value.Symbol {
	i, ok := r.cellIndex(attr, value.KindSymbol)
	if !ok {
		return value.EmptySymbol
	}
	s, _ := r.cells[i].AsSymbol()
	return s
}

func (r *Record) SetSymbolValue(attr *dictionary.Attribute, v value.Symbol) {
	if i, ok := r.cellIndex(attr, value.KindSymbol); ok {
		r.cells[i] = value.ScalarFromSymbol(v)
	}
}

func (r *Record) GetDateValue(attr *dictionary.Attribute) value.Date {
	i, ok := r.cellIndex(attr, value.KindDate)
	if !ok {
		return value.Date{}
	}
	d, _ := r.cells[i].AsDate()
	return d
}

func (r *Record) SetDateValue(attr *dictionary.Attribute, v value.Date) {
	if i, ok := r.cellIndex(attr, value.KindDate); ok {
		r.cells[i] = value.ScalarFromDate(v)
	}
}

func (r *Record) GetTimeValue(attr *dictionary.Attribute) value.Time {
	i, ok := r.cellIndex(attr, value.KindTime)
	if !ok {
		return value.Time{}
	}
	t, _ := r.cells[i].AsTime()
	return t
}

func (r *Record) SetTimeValue(attr *dictionary.Attribute, v value.Time) {
	if i, ok := r.cellIndex(attr, value.KindTime); ok {
		r.cells[i] = value.ScalarFromTime(v)
	}
}

func (r *Record) GetTimestampValue(attr *dictionary.Attribute) value.Timestamp {
	i, ok := r.cellIndex(attr, value.KindTimestamp)
	if !ok {
		return value.Timestamp{}
	}
	ts, _ := r.cells[i].AsTimestamp()
	return ts
}

func (r *Record) SetTimestampValue(attr *dictionary.Attribute, v value.Timestamp) {
	if i, ok := r.cellIndex(attr, value.KindTimestamp); ok {
		r.cells[i] = value.ScalarFromTimestamp(v)
	}
}

func (r *Record) GetTimestampTZValue(attr *dictionary.Attribute) value.TimestampTZ {
	i, ok := r.cellIndex(attr, value.KindTimestampTZ)
	if !ok {
		return value.TimestampTZ{}
	}
	tz, _ := r.cells[i].AsTimestampTZ()
	return tz
}

func (r *Record) SetTimestampTZValue(attr *dictionary.Attribute, v value.TimestampTZ) {
	if i, ok := r.cellIndex(attr, value.KindTimestampTZ); ok {
		r.cells[i] = value.ScalarFromTimestampTZ(v)
	}
}

func (r *Record) GetTextValue(attr *dictionary.Attribute) value.Text {
	i, ok := r.cellIndex(attr, value.KindText)
	if !ok {
		return value.NewText("")
	}
	t, _ := r.cells[i].AsText()
	return t
}

func (r *Record) SetTextValue(attr *dictionary.Attribute, v value.Text) {
	if i, ok := r.cellIndex(attr, value.KindText); ok {
		r.cells[i] = value.ScalarFromText(v)
	}
}

// GetContinuousValueBlock returns the owned block for block, or nil if
// unset. The returned pointer is owned by the record; callers that need
// an independent copy must Clone it.
func (r *Record) GetContinuousValueBlock(block *dictionary.AttributeBlock) *value.ContinuousValueBlock {
	if block == nil || !block.Loaded || block.LoadIndex < 0 {
		return nil
	}
	return r.blocks[block.LoadIndex].continuous
}

// SetContinuousValueBlock installs blk as the owned value for block,
// replacing and releasing any previous value in that slot.
func (r *Record) SetContinuousValueBlock(block *dictionary.AttributeBlock, blk *value.ContinuousValueBlock) {
	if block == nil || !block.Loaded || block.LoadIndex < 0 {
		return
	}
	r.blocks[block.LoadIndex] = blockSlot{kind: block.ValueType, continuous: blk}
}

func (r *Record) GetSymbolValueBlock(block *dictionary.AttributeBlock) *value.SymbolValueBlock {
	if block == nil || !block.Loaded || block.LoadIndex < 0 {
		return nil
	}
	return r.blocks[block.LoadIndex].symbol
}

func (r *Record) SetSymbolValueBlock(block *dictionary.AttributeBlock, blk *value.SymbolValueBlock) {
	if block == nil || !block.Loaded || block.LoadIndex < 0 {
		return
	}
	r.blocks[block.LoadIndex] = blockSlot{kind: block.ValueType, symbol: blk}
}

// GetObjectValue returns the non-owning sub-record referenced by
// attrName, or nil if unset.
func (r *Record) GetObjectValue(attrName string) *Record {
	if r.objects == nil {
		return nil
	}
	return r.objects[attrName]
}

// SetObjectValue sets the sub-record referenced by attrName.
func (r *Record) SetObjectValue(attrName string, sub *Record) {
	if r.objects == nil {
		r.objects = make(map[string]*Record)
	}
	r.objects[attrName] = sub
}

// GetObjectArrayValue returns the ObjectArray referenced by attrName, or
// nil if unset.
func (r *Record) GetObjectArrayValue(attrName string) *ObjectArray {
	if r.objectArrays == nil {
		return nil
	}
	return r.objectArrays[attrName]
}

// SetObjectArrayValue sets the ObjectArray referenced by attrName.
func (r *Record) SetObjectArrayValue(attrName string, arr *ObjectArray) {
	if r.objectArrays == nil {
		r.objectArrays = make(map[string]*ObjectArray)
	}
	r.objectArrays[attrName] = arr
}

// Clone returns an independent record for the same dictionary: dense
// cells are value-copied, owned blocks are deep-copied (Record
// exclusively owns its block values, spec.md §3 "Lifecycle"), and
// Object/ObjectArray references are shared (they are non-owning
// associations, not owned state).
func (r *Record) Clone() *Record {
	out := &Record{
		dict:          r.dict,
		creationIndex: nextCreationIndex(),
		cells:         append([]value.Scalar(nil), r.cells...),
		blocks:        make([]blockSlot, len(r.blocks)),
	}
	for i, b := range r.blocks {
		slot := blockSlot{kind: b.kind}
		if b.continuous != nil {
			slot.continuous = b.continuous.Clone()
		}
		if b.symbol != nil {
			slot.symbol = b.symbol.Clone()
		}
		out.blocks[i] = slot
	}
	if len(r.objects) > 0 {
		out.objects = make(map[string]*Record, len(r.objects))
		for k, v := range r.objects {
			out.objects[k] = v
		}
	}
	if len(r.objectArrays) > 0 {
		out.objectArrays = make(map[string]*ObjectArray, len(r.objectArrays))
		for k, v := range r.objectArrays {
			out.objectArrays[k] = v
		}
	}
	return out
}
