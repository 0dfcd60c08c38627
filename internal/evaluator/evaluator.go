// Package evaluator implements the single-threaded, pull-based
// evaluation unit described in spec.md §5: one dictionary clone (with
// its own clones of every derived Rule instance, so a rule's mutable
// per-instance caches never cross an Evaluator boundary), one input
// chunk, evaluated one record at a time. Parallelism lives at the task
// layer, outside this package, as multiple Evaluators each owning a
// disjoint dictionary clone and file chunk — the pattern this package
// follows from the teacher's internal/apply.Applier: one struct, a
// sequential per-item loop, cancellation threaded through as a
// context.Context.
package evaluator

import (
	"context"
	"fmt"

	"derivecore/internal/config"
	"derivecore/internal/dictionary"
	"derivecore/internal/driver"
	"derivecore/internal/errsink"
	"derivecore/internal/record"
	"derivecore/internal/rule"
	"derivecore/internal/tabfile"
	"derivecore/internal/value"
)

// Clone returns an independent dictionary sharing d's schema but owning
// fresh, recompiled clones of every derived Rule instance. Two
// Evaluators built from the same logical dictionary never end up
// sharing a rule's dynamic-compile cache this way (spec.md §5: "Rules
// ... each evaluator owns its own clone").
func Clone(d *dictionary.Dictionary) (*dictionary.Dictionary, error) {
	out := d.Clone()

	if err := cloneRules(out); err != nil {
		return nil, err
	}
	if err := out.Compile(); err != nil {
		return nil, fmt.Errorf("evaluator: recompiling cloned dictionary: %w", err)
	}
	if err := compileRules(out); err != nil {
		return nil, err
	}
	return out, nil
}

func cloneRules(d *dictionary.Dictionary) error {
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		if !a.IsDerived() {
			continue
		}
		full, ok := a.Rule.(rule.Rule)
		if !ok {
			return fmt.Errorf("evaluator: rule %q for attribute %q does not implement rule.Rule", a.Rule.Name(), name)
		}
		a.Rule = full.Clone()
	}
	for _, name := range d.BlockNames() {
		b := d.LookupAttributeBlock(name)
		if !b.IsDerived() {
			continue
		}
		full, ok := b.Rule.(rule.Rule)
		if !ok {
			return fmt.Errorf("evaluator: rule %q for block %q does not implement rule.Rule", b.Rule.Name(), name)
		}
		b.Rule = full.Clone()
	}
	return nil
}

func compileRules(d *dictionary.Dictionary) error {
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		if !a.IsDerived() {
			continue
		}
		if err := a.Rule.(rule.Rule).Compile(d); err != nil {
			return fmt.Errorf("evaluator: compiling rule for attribute %q: %w", name, err)
		}
	}
	for _, name := range d.BlockNames() {
		b := d.LookupAttributeBlock(name)
		if !b.IsDerived() {
			continue
		}
		if err := b.Rule.(rule.Rule).Compile(d); err != nil {
			return fmt.Errorf("evaluator: compiling rule for block %q: %w", name, err)
		}
	}
	return nil
}

// Evaluator pulls Records from one driver.Reader and computes every
// Loaded derived attribute and block before handing the record back.
type Evaluator struct {
	dict   *dictionary.Dictionary
	reader *driver.Reader
}

// New clones dict (see Clone) and opens a Reader against in, ready to
// stream and evaluate records.
func New(dict *dictionary.Dictionary, in *tabfile.InputFile, cfg config.Config, sink *errsink.Sink) (*Evaluator, error) {
	cloned, err := Clone(dict)
	if err != nil {
		return nil, err
	}
	r, err := driver.NewReader(cloned, in, cfg, sink)
	if err != nil {
		return nil, err
	}
	return &Evaluator{dict: cloned, reader: r}, nil
}

// Dictionary returns the evaluator's own compiled dictionary clone.
func (e *Evaluator) Dictionary() *dictionary.Dictionary { return e.dict }

// LastReadKey passes through driver.Reader.LastReadKey.
func (e *Evaluator) LastReadKey() []string { return e.reader.LastReadKey() }

// Next reads the next accepted record and computes its Loaded derived
// attributes and blocks in dictionary declaration order (so a later
// derived field may read an earlier one's result as an OriginAttribute
// operand). Returns (nil, false, nil) at EOF or on a cancelled ctx,
// matching driver.Reader.Next (spec.md §5, "Read returns null without
// error").
func (e *Evaluator) Next(ctx context.Context) (*record.Record, bool, error) {
	rec, ok, err := e.reader.Next(ctx)
	if err != nil || !ok {
		return nil, ok, err
	}
	e.evaluate(rec)
	return rec, true, nil
}

func (e *Evaluator) evaluate(rec *record.Record) {
	for _, name := range e.dict.AttributeNames() {
		a := e.dict.LookupAttribute(name)
		if !a.Loaded || !a.IsDerived() {
			continue
		}
		r := a.Rule.(rule.Rule)
		switch a.Type {
		case value.KindContinuous:
			rec.SetContinuousValue(a, r.ComputeContinuousResult(rec))
		case value.KindSymbol:
			rec.SetSymbolValue(a, r.ComputeSymbolResult(rec))
		case value.KindDate:
			rec.SetDateValue(a, r.ComputeDateResult(rec))
		case value.KindTime:
			rec.SetTimeValue(a, r.ComputeTimeResult(rec))
		case value.KindTimestamp:
			rec.SetTimestampValue(a, r.ComputeTimestampResult(rec))
		case value.KindTimestampTZ:
			rec.SetTimestampTZValue(a, r.ComputeTimestampTZResult(rec))
		case value.KindText:
			rec.SetTextValue(a, r.ComputeTextResult(rec))
		case value.KindObject:
			rec.SetObjectValue(name, r.ComputeObjectResult(rec))
		case value.KindObjectArray:
			rec.SetObjectArrayValue(name, r.ComputeObjectArrayResult(rec))
		}
	}
	for _, name := range e.dict.BlockNames() {
		b := e.dict.LookupAttributeBlock(name)
		if !b.Loaded || !b.IsDerived() {
			continue
		}
		r := b.Rule.(rule.Rule)
		if err := r.DynamicCompile(b.Keys); err != nil {
			continue
		}
		switch b.ValueType {
		case value.KindContinuousValueBlock:
			rec.SetContinuousValueBlock(b, r.ComputeContinuousValueBlockResult(rec))
		case value.KindSymbolValueBlock:
			rec.SetSymbolValueBlock(b, r.ComputeSymbolValueBlockResult(rec))
		}
	}
}
