package driver

import (
	"derivecore/internal/dictionary"
	"derivecore/internal/record"
	"derivecore/internal/tabfile"
	"derivecore/internal/value"
)

// RecordSink is an alternative Record destination (spec.md §4.9):
// internal/sqlsink implements this against a database table instead of
// a text file.
type RecordSink interface {
	Write(rec *record.Record) error
	Close() error
}

// Writer serializes a record's loaded dense and block fields back to a
// delimited text line through a tabfile.OutputFile (spec.md §4.7,
// "Writer provides WriteField that applies the quoting discipline").
type Writer struct {
	dict *dictionary.Dictionary
	out  *tabfile.OutputFile
	sep  byte

	attrCols  []*dictionary.Attribute
	blockCols []*dictionary.AttributeBlock
}

// NewWriter opens out and, if header is true, writes a header line
// naming the dictionary's loaded attributes (native and derived), then
// its loaded blocks, each in declaration order, before any record.
func NewWriter(dict *dictionary.Dictionary, out *tabfile.OutputFile, sep byte, header bool) (*Writer, error) {
	w := &Writer{dict: dict, out: out, sep: sep}
	for _, name := range dict.AttributeNames() {
		a := dict.LookupAttribute(name)
		if a.Loaded {
			w.attrCols = append(w.attrCols, a)
		}
	}
	for _, name := range dict.BlockNames() {
		b := dict.LookupAttributeBlock(name)
		if b.Loaded {
			w.blockCols = append(w.blockCols, b)
		}
	}

	if err := out.Open(); err != nil {
		return nil, err
	}
	if header {
		if err := w.writeHeader(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	total := len(w.attrCols) + len(w.blockCols)
	i := 0
	for _, a := range w.attrCols {
		i++
		if err := w.out.WriteField(a.Name, w.sep, i == total); err != nil {
			return err
		}
	}
	for _, b := range w.blockCols {
		i++
		if err := w.out.WriteField(b.Name, w.sep, i == total); err != nil {
			return err
		}
	}
	return nil
}

// Write serializes rec's loaded fields as one output line.
func (w *Writer) Write(rec *record.Record) error {
	total := len(w.attrCols) + len(w.blockCols)
	i := 0
	for _, a := range w.attrCols {
		i++
		if err := w.out.WriteField(attrFieldText(a, rec), w.sep, i == total); err != nil {
			return err
		}
	}
	for _, b := range w.blockCols {
		i++
		if err := w.out.WriteField(blockFieldText(b, rec), w.sep, i == total); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) Close() error { return w.out.Close() }

func attrFieldText(attr *dictionary.Attribute, rec *record.Record) string {
	switch attr.Type {
	case value.KindContinuous:
		return value.FormatContinuous(rec.GetContinuousValue(attr))
	case value.KindSymbol:
		return rec.GetSymbolValue(attr).String()
	case value.KindDate:
		return value.FormatDate(rec.GetDateValue(attr), attr.Format)
	case value.KindTime:
		return value.FormatTime(rec.GetTimeValue(attr), attr.Format)
	case value.KindTimestamp:
		return value.FormatTimestamp(rec.GetTimestampValue(attr), attr.Format)
	case value.KindTimestampTZ:
		return value.FormatTimestampTZ(rec.GetTimestampTZValue(attr), attr.Format)
	case value.KindText:
		return rec.GetTextValue(attr).String()
	default:
		return ""
	}
}

func blockFieldText(blk *dictionary.AttributeBlock, rec *record.Record) string {
	switch blk.ValueType {
	case value.KindContinuousValueBlock:
		cb := rec.GetContinuousValueBlock(blk)
		if cb == nil {
			return ""
		}
		return cb.WriteField(blk.Keys)
	case value.KindSymbolValueBlock:
		sb := rec.GetSymbolValueBlock(blk)
		if sb == nil {
			return ""
		}
		return sb.WriteField(blk.Keys)
	default:
		return ""
	}
}
