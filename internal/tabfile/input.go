// Package tabfile implements chunkable buffered access to delimited
// text files: line-oriented reads sized for byte-range splitting
// across evaluators, and a quoting-aware field parser (spec.md §4.6,
// §4.7), grounded on
// original_source/src/Norm/base/{Input,Output}BufferedFile.{h,cpp}.
package tabfile

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
)

// FieldError classifies a field-parsing outcome. Parsing never stops
// at the first error: it recovers at the field or line boundary and
// reports the error to the caller, matching the original's "do not
// fail the whole read on one bad field" discipline.
type FieldError int

const (
	FieldNoError FieldError = iota
	FieldMissingBeginDoubleQuote
	FieldMissingMiddleDoubleQuote
	FieldMissingEndDoubleQuote
	FieldTooLong
)

func (e FieldError) String() string {
	switch e {
	case FieldNoError:
		return ""
	case FieldMissingBeginDoubleQuote:
		return "missing opening double quote"
	case FieldMissingMiddleDoubleQuote:
		return "unescaped double quote inside field"
	case FieldMissingEndDoubleQuote:
		return "missing closing double quote"
	case FieldTooLong:
		return "field too long"
	default:
		return "unknown field error"
	}
}

const (
	// DefaultMaxLineLength bounds how far a line may run before it is
	// diagnosed as too long and dropped (spec.md §4.6, default 8 MiB).
	DefaultMaxLineLength = 8 << 20
	// MaxFieldSize truncates an individual field's content.
	MaxFieldSize = 1_000_000
	// preferredCacheSize is the read-ahead alignment used by the
	// internal cache; GetMinBufferSize in the original.
	preferredCacheSize = 64 << 10
)

var (
	ErrUnsupportedEncoding = errors.New("tabfile: unsupported encoding (UTF-16/UTF-32 BOM or embedded NUL)")
	ErrLegacyMacLineEnding = errors.New("tabfile: legacy Mac line endings (bare CR, no LF) are not supported")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// InputFile provides chunkable, quoting-aware reads over a delimited
// text file.
type InputFile struct {
	path string
	f    *os.File

	fileSize      int64
	maxLineLength int
	bomManagement bool
	startOffset   int64 // first readable byte, past any skipped BOM

	cache      []byte
	cacheStart int64
}

// Open opens path for reading and learns its size; the optional UTF-8
// BOM, if present and BOM management is enabled, is detected here and
// excluded from startOffset.
func Open(path string) (*InputFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	in := &InputFile{
		path:          path,
		f:             f,
		fileSize:      info.Size(),
		maxLineLength: DefaultMaxLineLength,
		bomManagement: true,
	}
	if err := in.detectEncoding(); err != nil {
		f.Close()
		return nil, err
	}
	return in, nil
}

func (in *InputFile) Close() error {
	if in.f == nil {
		return nil
	}
	err := in.f.Close()
	in.f = nil
	return err
}

func (in *InputFile) FileSize() int64          { return in.fileSize }
func (in *InputFile) StartOffset() int64       { return in.startOffset }
func (in *InputFile) SetMaxLineLength(n int)   { in.maxLineLength = n }
func (in *InputFile) MaxLineLength() int       { return in.maxLineLength }
func (in *InputFile) SetUTF8BOMManagement(b bool) { in.bomManagement = b }

// detectEncoding peeks the first bytes of the file for a BOM or
// encoding anomalies and sets startOffset past a UTF-8 BOM.
func (in *InputFile) detectEncoding() error {
	peekLen := int64(4)
	if in.fileSize < peekLen {
		peekLen = in.fileSize
	}
	if peekLen == 0 {
		return nil
	}
	head := make([]byte, peekLen)
	if _, err := in.f.ReadAt(head, 0); err != nil && err != io.EOF {
		return err
	}
	if in.bomManagement && bytes.HasPrefix(head, utf8BOM) {
		in.startOffset = int64(len(utf8BOM))
		return nil
	}
	if bytes.HasPrefix(head, []byte{0xFF, 0xFE}) || bytes.HasPrefix(head, []byte{0xFE, 0xFF}) ||
		bytes.HasPrefix(head, []byte{0xFF, 0xFE, 0x00, 0x00}) || bytes.HasPrefix(head, []byte{0x00, 0x00, 0xFE, 0xFF}) {
		return ErrUnsupportedEncoding
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return ErrUnsupportedEncoding
	}
	return in.checkLegacyMacLineEnding()
}

// checkLegacyMacLineEnding samples the first page of the file: pre-OS
// X Mac files use a bare '\r' as the line terminator, which this
// reader's LF-based line splitting cannot handle.
func (in *InputFile) checkLegacyMacLineEnding() error {
	sampleLen := int64(preferredCacheSize)
	if in.fileSize < sampleLen {
		sampleLen = in.fileSize
	}
	if sampleLen == 0 {
		return nil
	}
	sample := make([]byte, sampleLen)
	n, err := in.f.ReadAt(sample, in.startOffset)
	if err != nil && err != io.EOF {
		return err
	}
	sample = sample[:n]
	if bytes.IndexByte(sample, '\r') >= 0 && bytes.IndexByte(sample, '\n') < 0 {
		return ErrLegacyMacLineEnding
	}
	return nil
}

// ensureCache makes [from, from+length) available in in.cache,
// refilling from the file aligned to preferredCacheSize when the
// requested range isn't already covered.
func (in *InputFile) ensureCache(from int64, length int64) error {
	to := from + length
	if to > in.fileSize {
		to = in.fileSize
	}
	if in.cache != nil && from >= in.cacheStart && to <= in.cacheStart+int64(len(in.cache)) {
		return nil
	}
	alignedStart := (from / preferredCacheSize) * preferredCacheSize
	wantLen := to - alignedStart
	if wantLen < preferredCacheSize {
		wantLen = preferredCacheSize
	}
	if alignedStart+wantLen > in.fileSize {
		wantLen = in.fileSize - alignedStart
	}
	buf := make([]byte, wantLen)
	n, err := in.f.ReadAt(buf, alignedStart)
	if err != nil && err != io.EOF {
		return err
	}
	in.cache = buf[:n]
	in.cacheStart = alignedStart
	return nil
}

// sliceAt returns the bytes at absolute file offsets [from, to),
// growing the cache window as needed.
func (in *InputFile) sliceAt(from, to int64) ([]byte, error) {
	if err := in.ensureCache(from, to-from); err != nil {
		return nil, err
	}
	lo := from - in.cacheStart
	hi := to - in.cacheStart
	if lo < 0 || hi > int64(len(in.cache)) {
		// Requested range spans beyond one cache refill; fall back to a
		// direct read for this (rare, large) case.
		buf := make([]byte, to-from)
		n, err := in.f.ReadAt(buf, from)
		if err != nil && err != io.EOF {
			return nil, err
		}
		return buf[:n], nil
	}
	return in.cache[lo:hi], nil
}

// SearchNextLineUntil scans for '\n' in [begin, maxEnd); if none is
// found and maxEnd equals the file size, the trailing unterminated
// line still counts as a line ending at file size. Returns the start
// of the next line, or -1 if no line boundary was found within range.
func (in *InputFile) SearchNextLineUntil(begin, maxEnd int64) (int64, error) {
	const scanChunk = 64 << 10
	pos := begin
	for pos < maxEnd {
		end := pos + scanChunk
		if end > maxEnd {
			end = maxEnd
		}
		chunk, err := in.sliceAt(pos, end)
		if err != nil {
			return -1, err
		}
		if idx := bytes.IndexByte(chunk, '\n'); idx >= 0 {
			return pos + int64(idx) + 1, nil
		}
		pos = end
	}
	if maxEnd >= in.fileSize {
		return in.fileSize, nil
	}
	return -1, nil
}

// FillOneLine reads exactly one line starting at begin, extending
// past maxLineLength only to locate where the overlong line ends.
// Returns the line bytes (trailing "\r\n"/"\n" stripped), the next
// line's start offset, and whether the line was too long (in which
// case the returned bytes are nil).
func (in *InputFile) FillOneLine(begin int64) (line []byte, nextPos int64, tooLong bool, err error) {
	limit := begin + int64(in.maxLineLength)
	if limit > in.fileSize {
		limit = in.fileSize
	}
	next, err := in.SearchNextLineUntil(begin, limit)
	if err != nil {
		return nil, 0, false, err
	}
	if next == -1 {
		// The line runs past maxLineLength; locate its real end so the
		// caller can resume after it, but report it as too long.
		realNext, err := in.SearchNextLineUntil(begin, in.fileSize)
		if err != nil {
			return nil, 0, false, err
		}
		if realNext == -1 {
			realNext = in.fileSize
		}
		return nil, realNext, true, nil
	}
	raw, err := in.sliceAt(begin, next)
	if err != nil {
		return nil, 0, false, err
	}
	return trimLineEnding(raw), next, false, nil
}

func trimLineEnding(raw []byte) []byte {
	n := len(raw)
	if n > 0 && raw[n-1] == '\n' {
		n--
		if n > 0 && raw[n-1] == '\r' {
			n--
		}
	}
	return raw[:n]
}

// FillInnerLinesUntil fills with whole lines only: the returned slice
// ends exactly at a '\n' (or at EOF), never cutting a line in half.
// It returns an empty slice if not even one whole line fits before
// maxEnd.
func (in *InputFile) FillInnerLinesUntil(begin, maxEnd int64) ([]byte, int64, error) {
	if maxEnd > in.fileSize {
		maxEnd = in.fileSize
	}
	pos := begin
	lastLineEnd := begin
	for pos < maxEnd {
		next, err := in.SearchNextLineUntil(pos, maxEnd)
		if err != nil {
			return nil, 0, err
		}
		if next == -1 || next > maxEnd {
			break
		}
		lastLineEnd = next
		pos = next
		if next >= in.fileSize {
			break
		}
	}
	if lastLineEnd == begin {
		return []byte{}, begin, nil
	}
	buf, err := in.sliceAt(begin, lastLineEnd)
	if err != nil {
		return nil, 0, err
	}
	return buf, lastLineEnd, nil
}

// FillOuterLinesUntil behaves like FillInnerLinesUntil, except that
// when no whole line fits within maxEnd it falls back to FillOneLine,
// possibly reading past maxEnd to capture one complete (or
// too-long-and-dropped) line.
func (in *InputFile) FillOuterLinesUntil(begin, maxEnd int64) (buf []byte, nextPos int64, tooLong bool, err error) {
	inner, nextInner, err := in.FillInnerLinesUntil(begin, maxEnd)
	if err != nil {
		return nil, 0, false, err
	}
	if len(inner) > 0 {
		return inner, nextInner, false, nil
	}
	return in.FillOneLine(begin)
}

// LineReader splits a buffer (as returned by Fill*Lines) into
// individual lines.
type LineReader struct {
	buf []byte
	pos int
}

func NewLineReader(buf []byte) *LineReader { return &LineReader{buf: buf} }

// Next returns the next line (line-ending stripped), or ok=false at
// end of buffer.
func (lr *LineReader) Next() (line []byte, ok bool) {
	if lr.pos >= len(lr.buf) {
		return nil, false
	}
	rest := lr.buf[lr.pos:]
	idx := bytes.IndexByte(rest, '\n')
	if idx < 0 {
		line = rest
		lr.pos = len(lr.buf)
	} else {
		line = rest[:idx+1]
		lr.pos += idx + 1
	}
	return trimLineEnding(line), true
}

// FieldReader tokenizes one line into fields using sep, applying the
// quoting discipline described in spec.md §4.6.
type FieldReader struct {
	line []byte
	pos  int
	sep  byte
}

func NewFieldReader(line []byte, sep byte) *FieldReader {
	return &FieldReader{line: line, sep: sep}
}

func (fr *FieldReader) AtEnd() bool { return fr.pos >= len(fr.line) }

// Next parses the field starting at the cursor, advancing past it
// (and past the following separator, if any). isLast reports whether
// this was the line's final field.
func (fr *FieldReader) Next() (value string, ferr FieldError, isLast bool) {
	rest := fr.line[fr.pos:]
	value, consumed, ferr := parseField(rest, fr.sep)
	fr.pos += consumed
	isLast = fr.pos >= len(fr.line)
	if !isLast && fr.line[fr.pos] == fr.sep {
		fr.pos++
		isLast = fr.pos >= len(fr.line)
	}
	if len(value) > MaxFieldSize {
		value = value[:MaxFieldSize]
		ferr = FieldTooLong
	}
	return value, ferr, isLast
}

// parseField extracts one field from the front of data, returning how
// many bytes of data it consumed (not including a trailing
// separator).
func parseField(data []byte, sep byte) (string, int, FieldError) {
	n := len(data)
	if n == 0 {
		return "", 0, FieldNoError
	}
	if data[0] == '"' {
		return parseQuotedField(data, sep)
	}
	i := 0
	for i < n && data[i] != sep {
		i++
	}
	raw := bytes.TrimSpace(data[:i])
	if len(raw) > 0 && raw[len(raw)-1] == '"' {
		return string(raw), i, FieldMissingBeginDoubleQuote
	}
	return string(raw), i, FieldNoError
}

func parseQuotedField(data []byte, sep byte) (string, int, FieldError) {
	n := len(data)
	var sb bytes.Buffer
	i := 1
	closed := false
	for i < n {
		if data[i] == '"' {
			if i+1 < n && data[i+1] == '"' {
				sb.WriteByte('"')
				i += 2
				continue
			}
			closed = true
			i++
			break
		}
		sb.WriteByte(data[i])
		i++
	}
	if !closed {
		return sb.String(), i, FieldMissingEndDoubleQuote
	}
	if i < n && data[i] != sep {
		for i < n && data[i] != sep {
			i++
		}
		return sb.String(), i, FieldMissingMiddleDoubleQuote
	}
	return strings.TrimSpace(sb.String()), i, FieldNoError
}
