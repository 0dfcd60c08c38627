package tabfile

import (
	"bufio"
	"os"
	"strings"
)

// OutputFile writes delimited rows through a cache sized to
// preferredCacheSize, optionally in "open-on-demand" mode where the
// underlying OS handle is closed between flushes so many concurrent
// writers can coexist under OS file-handle limits (spec.md §4.7).
type OutputFile struct {
	path        string
	append      bool
	openOnDemand bool

	f *os.File
	w *bufio.Writer
}

func NewOutputFile(path string, appendMode, openOnDemand bool) *OutputFile {
	return &OutputFile{path: path, append: appendMode, openOnDemand: openOnDemand}
}

func (out *OutputFile) Open() error {
	if out.f != nil {
		return nil
	}
	flags := os.O_WRONLY | os.O_CREATE
	if out.append {
		flags |= os.O_APPEND
	} else {
		flags |= os.O_TRUNC
	}
	f, err := os.OpenFile(out.path, flags, 0o644)
	if err != nil {
		return err
	}
	out.f = f
	out.w = bufio.NewWriterSize(f, preferredCacheSize)
	return nil
}

// Close flushes and releases the OS handle, in either mode; a
// successfully closed file contains exactly what was written.
func (out *OutputFile) Close() error {
	if out.f == nil {
		return nil
	}
	if err := out.w.Flush(); err != nil {
		out.f.Close()
		out.f, out.w = nil, nil
		return err
	}
	err := out.f.Close()
	out.f, out.w = nil, nil
	return err
}

// Flush ensures buffered bytes reach the OS; in open-on-demand mode it
// also closes the handle, reopening it lazily on the next write.
func (out *OutputFile) Flush() error {
	if out.f == nil {
		return nil
	}
	if err := out.w.Flush(); err != nil {
		return err
	}
	if out.openOnDemand {
		err := out.f.Close()
		out.f, out.w = nil, nil
		out.append = true // reopen appends past what was already flushed
		return err
	}
	return nil
}

// WriteField writes one field value, quoting it (wrapping in `"…"`
// and doubling embedded quotes) when it contains sep or already
// starts with a double quote, then writes sep unless last is true, in
// which case it writes the row terminator instead.
func (out *OutputFile) WriteField(value string, sep byte, last bool) error {
	if out.f == nil {
		if err := out.Open(); err != nil {
			return err
		}
	}
	if needsQuoting(value, sep) {
		if _, err := out.w.WriteString(quoteField(value)); err != nil {
			return err
		}
	} else if _, err := out.w.WriteString(value); err != nil {
		return err
	}
	if last {
		return out.w.WriteByte('\n')
	}
	return out.w.WriteByte(sep)
}

func needsQuoting(value string, sep byte) bool {
	if strings.HasPrefix(value, `"`) {
		return true
	}
	return strings.IndexByte(value, sep) >= 0
}

func quoteField(value string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	sb.WriteString(strings.ReplaceAll(value, `"`, `""`))
	sb.WriteByte('"')
	return sb.String()
}
