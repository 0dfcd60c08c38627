package tabfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func TestOpenSkipsUTF8BOM(t *testing.T) {
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("a,b\n1,2\n")...)
	path := writeTempFile(t, content)
	in, err := Open(path)
	require.NoError(t, err)
	defer in.Close()
	assert.Equal(t, int64(3), in.StartOffset())
}

func TestOpenRejectsUTF16BOM(t *testing.T) {
	content := append([]byte{0xFF, 0xFE}, []byte("a\x00\n\x00")...)
	path := writeTempFile(t, content)
	_, err := Open(path)
	assert.ErrorIs(t, err, ErrUnsupportedEncoding)
}

func TestSearchNextLineUntilFindsAndEOFLine(t *testing.T) {
	path := writeTempFile(t, []byte("one\ntwo\nthree"))
	in, err := Open(path)
	require.NoError(t, err)
	defer in.Close()

	next, err := in.SearchNextLineUntil(0, in.FileSize())
	require.NoError(t, err)
	assert.Equal(t, int64(4), next)

	next, err = in.SearchNextLineUntil(4, in.FileSize())
	require.NoError(t, err)
	assert.Equal(t, int64(8), next)

	// Trailing line without '\n' still counts when maxEnd == fileSize.
	next, err = in.SearchNextLineUntil(8, in.FileSize())
	require.NoError(t, err)
	assert.Equal(t, in.FileSize(), next)
}

func TestFillOneLineDetectsTooLong(t *testing.T) {
	path := writeTempFile(t, []byte("short\n"+string(make([]byte, 100))+"\nshort2\n"))
	in, err := Open(path)
	require.NoError(t, err)
	defer in.Close()
	in.SetMaxLineLength(10)

	line, next, tooLong, err := in.FillOneLine(0)
	require.NoError(t, err)
	assert.False(t, tooLong)
	assert.Equal(t, "short", string(line))

	_, next2, tooLong, err := in.FillOneLine(next)
	require.NoError(t, err)
	assert.True(t, tooLong)

	line, _, tooLong, err = in.FillOneLine(next2)
	require.NoError(t, err)
	assert.False(t, tooLong)
	assert.Equal(t, "short2", string(line))
}

func TestFillInnerLinesUntilStopsAtLineBoundary(t *testing.T) {
	path := writeTempFile(t, []byte("aa\nbb\ncc\ndd\n"))
	in, err := Open(path)
	require.NoError(t, err)
	defer in.Close()

	buf, next, err := in.FillInnerLinesUntil(0, 7)
	require.NoError(t, err)
	assert.Equal(t, "aa\nbb\n", string(buf))
	assert.Equal(t, int64(6), next)
}

func TestLineReaderSplitsLines(t *testing.T) {
	lr := NewLineReader([]byte("aa\nbb\ncc"))
	var lines []string
	for {
		line, ok := lr.Next()
		if !ok {
			break
		}
		lines = append(lines, string(line))
	}
	assert.Equal(t, []string{"aa", "bb", "cc"}, lines)
}

func TestFieldReaderQuotingDiscipline(t *testing.T) {
	fr := NewFieldReader([]byte(`a,"b,c","d""e",f`), ',')

	v, ferr, last := fr.Next()
	assert.Equal(t, "a", v)
	assert.Equal(t, FieldNoError, ferr)
	assert.False(t, last)

	v, ferr, last = fr.Next()
	assert.Equal(t, "b,c", v)
	assert.Equal(t, FieldNoError, ferr)
	assert.False(t, last)

	v, ferr, last = fr.Next()
	assert.Equal(t, `d"e`, v)
	assert.Equal(t, FieldNoError, ferr)
	assert.False(t, last)

	v, ferr, last = fr.Next()
	assert.Equal(t, "f", v)
	assert.Equal(t, FieldNoError, ferr)
	assert.True(t, last)
}

func TestFieldReaderMissingEndDoubleQuote(t *testing.T) {
	fr := NewFieldReader([]byte(`"unterminated`), ',')
	v, ferr, last := fr.Next()
	assert.Equal(t, "unterminated", v)
	assert.Equal(t, FieldMissingEndDoubleQuote, ferr)
	assert.True(t, last)
}

func TestFieldReaderTrimsSurroundingWhitespace(t *testing.T) {
	fr := NewFieldReader([]byte("  padded  ,next"), ',')
	v, ferr, _ := fr.Next()
	assert.Equal(t, "padded", v)
	assert.Equal(t, FieldNoError, ferr)
}
