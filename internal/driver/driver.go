// Package driver binds a compiled dictionary.Dictionary to a physical
// tabular file: computing the load-index vector from a header line (or
// native positional order when headerless), streaming record.Record
// values through internal/tabfile, and serializing loaded fields back
// out through a Writer (spec.md §2's "Driver/table glue" row, §4.8,
// §6 "Load-index binding").
package driver

import (
	"context"
	"fmt"
	"strconv"

	"derivecore/internal/config"
	"derivecore/internal/dictionary"
	"derivecore/internal/errsink"
	"derivecore/internal/record"
	"derivecore/internal/tabfile"
	"derivecore/internal/value"
)

// columnBinding is what one physical column feeds: a native dense
// attribute, a native block, or neither (an unbound/unknown column).
type columnBinding struct {
	attr  *dictionary.Attribute
	block *dictionary.AttributeBlock
}

// Binding is the compiled load-index vector described in spec.md §6.
type Binding struct {
	columns []columnBinding
}

func (b *Binding) ColumnCount() int { return len(b.columns) }

// BindHeader matches header column names against d's native, top-level
// attributes and blocks. A column naming a derived attribute/block or a
// block member is not a valid header column and is skipped with a
// warning. Any Loaded, native attribute or block of d absent from
// header is a required-column error (spec.md §6).
func BindHeader(d *dictionary.Dictionary, header []string, sink *errsink.Sink) (*Binding, error) {
	b := &Binding{columns: make([]columnBinding, len(header))}
	seen := make(map[string]bool, len(header))
	for i, name := range header {
		item, ok := d.LookupDataItem(name)
		if !ok {
			sink.Warn(errsink.RowError, -1, fmt.Sprintf("unbound header column %q", name))
			continue
		}
		switch {
		case item.Attribute != nil && !item.Attribute.InBlock() && item.Attribute.IsNative():
			b.columns[i] = columnBinding{attr: item.Attribute}
			seen[name] = true
		case item.Block != nil && item.Block.IsNative():
			b.columns[i] = columnBinding{block: item.Block}
			seen[name] = true
		default:
			sink.Warn(errsink.RowError, -1, fmt.Sprintf("header column %q does not name a loadable native field", name))
		}
	}

	var missing []string
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		if a.IsNative() && a.Loaded && !seen[name] {
			missing = append(missing, name)
		}
	}
	for _, name := range d.BlockNames() {
		blk := d.LookupAttributeBlock(name)
		if blk.IsNative() && blk.Loaded && !seen[name] {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("driver: missing required column(s) %v for dictionary %q", missing, d.Name)
	}
	return b, nil
}

// BindPositional assigns physical columns to d's native attributes and
// blocks in declaration order, for headerless input.
func BindPositional(d *dictionary.Dictionary) *Binding {
	b := &Binding{}
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		if a.IsNative() {
			b.columns = append(b.columns, columnBinding{attr: a})
		}
	}
	for _, name := range d.BlockNames() {
		blk := d.LookupAttributeBlock(name)
		if blk.IsNative() {
			b.columns = append(b.columns, columnBinding{block: blk})
		}
	}
	return b
}

// Reader streams record.Record values out of a tabfile.InputFile, one
// row at a time, dispatching fields per Binding (spec.md §4.6, "Record
// reader").
type Reader struct {
	dict    *dictionary.Dictionary
	in      *tabfile.InputFile
	binding *Binding
	sep     byte
	sink    *errsink.Sink

	pos      int64
	rowIndex int64

	keyCols []int    // indices into binding.columns naming key attributes, in key order
	lastKey []string // last-read key vector, captured even for dropped rows
}

// NewReader binds dict to in (reading and binding a header line first
// when cfg.HeaderLine is set) and returns a row-streaming Reader.
func NewReader(dict *dictionary.Dictionary, in *tabfile.InputFile, cfg config.Config, sink *errsink.Sink) (*Reader, error) {
	sep, err := cfg.SeparatorByte()
	if err != nil {
		return nil, fmt.Errorf("driver: %w", err)
	}
	in.SetMaxLineLength(cfg.MaxLineLength)

	pos := in.StartOffset()
	var binding *Binding
	if cfg.HeaderLine {
		line, next, tooLong, err := in.FillOneLine(pos)
		if err != nil {
			return nil, fmt.Errorf("driver: reading header line: %w", err)
		}
		if tooLong {
			return nil, fmt.Errorf("driver: header line exceeds max line length")
		}
		header := splitLine(line, sep)
		binding, err = BindHeader(dict, header, sink)
		if err != nil {
			return nil, err
		}
		pos = next
	} else {
		binding = BindPositional(dict)
	}

	r := &Reader{dict: dict, in: in, binding: binding, sep: sep, sink: sink, pos: pos}
	for _, keyName := range dict.KeyAttributeNames() {
		idx := -1
		for i, c := range binding.columns {
			if c.attr != nil && c.attr.Name == keyName {
				idx = i
				break
			}
		}
		r.keyCols = append(r.keyCols, idx)
	}
	return r, nil
}

// LastReadKey returns the key-column values captured from the most
// recently read input line, even if that line's record was rejected
// (spec.md §4.6, "dedicated last-read-key vector").
func (r *Reader) LastReadKey() []string { return append([]string(nil), r.lastKey...) }

func splitLine(line []byte, sep byte) []string {
	fr := tabfile.NewFieldReader(line, sep)
	var fields []string
	for {
		v, _, isLast := fr.Next()
		fields = append(fields, v)
		if isLast {
			break
		}
	}
	return fields
}

// Next reads and returns the next accepted record. It returns (nil,
// false, nil) at end of file or when ctx is cancelled (cancellation is
// silent per spec.md §5, "Read returns null without error"). Rejected
// rows (RowError dispositions) are skipped internally; Next only
// returns once it has an accepted record or has exhausted the file.
func (r *Reader) Next(ctx context.Context) (*record.Record, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, false, nil
		}
		if r.pos >= r.in.FileSize() {
			return nil, false, nil
		}

		line, next, tooLong, err := r.in.FillOneLine(r.pos)
		rowIndex := r.rowIndex
		r.rowIndex++
		if err != nil {
			r.sink.Warn(errsink.IOReadError, rowIndex, err.Error())
			return nil, false, fmt.Errorf("driver: reading row %d: %w", rowIndex, err)
		}
		r.pos = next

		if tooLong {
			r.sink.Warn(errsink.LineTooLong, rowIndex, "line exceeds max line length")
			r.lastKey = nil
			continue
		}

		fields, fieldErrs := r.splitRow(line)
		if fields == nil {
			r.sink.Warn(errsink.RowError, rowIndex, "empty line, columns expected")
			r.lastKey = nil
			continue
		}

		r.captureLastKey(fields)

		if len(fields) != r.binding.ColumnCount() {
			r.sink.Warn(errsink.RowError, rowIndex,
				fmt.Sprintf("expected %d column(s), got %d", r.binding.ColumnCount(), len(fields)))
			continue
		}

		rec := record.New(r.dict)
		for i, col := range r.binding.columns {
			switch {
			case col.attr != nil:
				setFieldFromText(col.attr, rec, fields[i], rowIndex, r.sink)
			case col.block != nil:
				setBlockFromText(col.block, rec, fields[i], rowIndex, r.sink)
			default:
				// Unbound column: field is parsed but has nowhere to go.
			}
			if fieldErrs[i] != tabfile.FieldNoError {
				r.sink.Warn(errsink.FieldParseError, rowIndex,
					fmt.Sprintf("column %d: %s", i, fieldErrs[i]))
			}
		}
		return rec, true, nil
	}
}

// splitRow tokenizes line into fields, honoring the "empty line with
// dictionary requiring >=2 columns is dropped" rule (spec.md §4.6); a
// single-column dictionary treats an empty line as one empty field.
func (r *Reader) splitRow(line []byte) ([]string, []tabfile.FieldError) {
	if len(line) == 0 {
		if r.binding.ColumnCount() >= 2 {
			return nil, nil
		}
		return []string{""}, []tabfile.FieldError{tabfile.FieldNoError}
	}
	fr := tabfile.NewFieldReader(line, r.sep)
	var fields []string
	var errs []tabfile.FieldError
	for {
		v, ferr, isLast := fr.Next()
		fields = append(fields, v)
		errs = append(errs, ferr)
		if isLast {
			break
		}
	}
	return fields, errs
}

func (r *Reader) captureLastKey(fields []string) {
	if len(r.keyCols) == 0 {
		return
	}
	key := make([]string, len(r.keyCols))
	for i, idx := range r.keyCols {
		if idx >= 0 && idx < len(fields) {
			key[i] = fields[idx]
		}
	}
	r.lastKey = key
}

func setFieldFromText(attr *dictionary.Attribute, rec *record.Record, text string, rowIndex int64, sink *errsink.Sink) {
	switch attr.Type {
	case value.KindContinuous:
		c, convErr := value.ParseContinuous(text)
		if convErr != value.ConversionOK && convErr != value.ConversionEmpty {
			sink.Warn(errsink.ValueConversionError, rowIndex, fmt.Sprintf("%s: %s", attr.Name, convErr))
		}
		rec.SetContinuousValue(attr, c)
	case value.KindSymbol:
		rec.SetSymbolValue(attr, value.Intern(text))
	case value.KindDate:
		d := value.ParseDate(text, attr.Format)
		if text != "" && !d.Check() {
			sink.Warn(errsink.ValueConversionError, rowIndex, fmt.Sprintf("%s: invalid date %q", attr.Name, text))
		}
		rec.SetDateValue(attr, d)
	case value.KindTime:
		t := value.ParseTime(text, attr.Format)
		if text != "" && !t.Check() {
			sink.Warn(errsink.ValueConversionError, rowIndex, fmt.Sprintf("%s: invalid time %q", attr.Name, text))
		}
		rec.SetTimeValue(attr, t)
	case value.KindTimestamp:
		ts := value.ParseTimestamp(text, attr.Format)
		if text != "" && !ts.Check() {
			sink.Warn(errsink.ValueConversionError, rowIndex, fmt.Sprintf("%s: invalid timestamp %q", attr.Name, text))
		}
		rec.SetTimestampValue(attr, ts)
	case value.KindTimestampTZ:
		tz := value.ParseTimestampTZ(text, attr.Format)
		if text != "" && !tz.Check() {
			sink.Warn(errsink.ValueConversionError, rowIndex, fmt.Sprintf("%s: invalid timestamp %q", attr.Name, text))
		}
		rec.SetTimestampTZValue(attr, tz)
	case value.KindText:
		rec.SetTextValue(attr, value.NewText(text))
	}
}

func setBlockFromText(blk *dictionary.AttributeBlock, rec *record.Record, text string, rowIndex int64, sink *errsink.Sink) {
	parseKey := blockKeyParser(blk)
	switch blk.ValueType {
	case value.KindContinuousValueBlock:
		b, err := value.BuildContinuousBlockFromField(blk.Keys, text, parseKey)
		if err != nil {
			sink.Warn(errsink.BlockParseError, rowIndex, fmt.Sprintf("%s: %v", blk.Name, err))
			b = value.NewContinuousValueBlock(0)
		}
		rec.SetContinuousValueBlock(blk, b)
	case value.KindSymbolValueBlock:
		b, err := value.BuildSymbolBlockFromField(blk.Keys, text, parseKey)
		if err != nil {
			sink.Warn(errsink.BlockParseError, rowIndex, fmt.Sprintf("%s: %v", blk.Name, err))
			b = value.NewSymbolValueBlock(0)
		}
		rec.SetSymbolValueBlock(blk, b)
	}
}

// blockKeyParser returns the textual-key parser matching blk's VarKey
// flavor (integer or symbol), inferred from its first known key (empty
// blocks default to integer keys, matching spec.md §3's VarKeyType
// default).
func blockKeyParser(blk *dictionary.AttributeBlock) func(string) value.VarKey {
	symbolKeyed := blk.Keys.KeyCount() > 0 && blk.Keys.KeyAt(0).IsSymbol()
	if symbolKeyed {
		return func(s string) value.VarKey { return value.NewSymbolKey(value.Intern(s)) }
	}
	return func(s string) value.VarKey {
		n, _ := strconv.Atoi(s)
		return value.NewIntKey(n)
	}
}
