package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/config"
	"derivecore/internal/dictionary"
	"derivecore/internal/errsink"
	"derivecore/internal/tabfile"
	"derivecore/internal/value"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "in.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func twoNumberDictionary(t *testing.T, aName, bName string) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.NewDictionary("Pair")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: aName, Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: bName, Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.Compile())
	return d
}

// S1: "a,b\n1,2\n3,4\n" with header, two numerical fields.
func TestSimpleReadWithHeader(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\n3,4\n")
	d := twoNumberDictionary(t, "a", "b")

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	sink := errsink.New()
	r, err := NewReader(d, in, config.Default(), sink)
	require.NoError(t, err)

	rec1, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Continuous(1), rec1.GetContinuousValue(d.LookupAttribute("a")))
	assert.Equal(t, value.Continuous(2), rec1.GetContinuousValue(d.LookupAttribute("b")))

	rec2, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Continuous(3), rec2.GetContinuousValue(d.LookupAttribute("a")))
	assert.Equal(t, value.Continuous(4), rec2.GetContinuousValue(d.LookupAttribute("b")))

	_, ok, err = r.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Zero(t, sink.Count(errsink.RowError))
	assert.Zero(t, sink.Count(errsink.ValueConversionError))
}

// S2: "x\n\"a,b\"\n\"c\"\"d\"\n" with header "x", one categorical field.
func TestQuotedAndEmbeddedSeparator(t *testing.T) {
	path := writeTemp(t, "x\n\"a,b\"\n\"c\"\"d\"\n")
	d := dictionary.NewDictionary("One")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "x", Type: value.KindSymbol, Loaded: true}))
	require.NoError(t, d.Compile())

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	sink := errsink.New()
	r, err := NewReader(d, in, config.Default(), sink)
	require.NoError(t, err)

	rec1, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "a,b", rec1.GetSymbolValue(d.LookupAttribute("x")).String())

	rec2, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `c"d`, rec2.GetSymbolValue(d.LookupAttribute("x")).String())
}

func TestBindHeaderErrorsOnMissingRequiredColumn(t *testing.T) {
	d := twoNumberDictionary(t, "a", "b")
	sink := errsink.New()
	_, err := BindHeader(d, []string{"a"}, sink)
	assert.Error(t, err)
}

func TestBindPositionalHeaderless(t *testing.T) {
	path := writeTemp(t, "1,2\n3,4\n")
	d := twoNumberDictionary(t, "a", "b")

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	cfg := config.Default()
	cfg.HeaderLine = false
	sink := errsink.New()
	r, err := NewReader(d, in, cfg, sink)
	require.NoError(t, err)

	rec, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Continuous(1), rec.GetContinuousValue(d.LookupAttribute("a")))
	assert.Equal(t, value.Continuous(2), rec.GetContinuousValue(d.LookupAttribute("b")))
}

func TestFieldCountMismatchDropsRowButKeepsStream(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\n3\n5,6\n")
	d := twoNumberDictionary(t, "a", "b")

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	sink := errsink.New()
	r, err := NewReader(d, in, config.Default(), sink)
	require.NoError(t, err)

	rec1, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Continuous(1), rec1.GetContinuousValue(d.LookupAttribute("a")))

	rec2, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, value.Continuous(5), rec2.GetContinuousValue(d.LookupAttribute("a")))

	assert.EqualValues(t, 1, sink.Count(errsink.RowError))
}

func TestLastReadKeyCapturedEvenWhenRowRejected(t *testing.T) {
	path := writeTemp(t, "id,a,b\nk1,1,2\nk2,3\nk3,5,6\n")
	d := dictionary.NewDictionary("Keyed")
	d.Root = true
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "a", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "b", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.Compile())

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	sink := errsink.New()
	r, err := NewReader(d, in, config.Default(), sink)
	require.NoError(t, err)

	_, ok, err := r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"k1"}, r.LastReadKey())

	// The k2 row is dropped (field count mismatch) but its key is still
	// captured before the row is discarded.
	_, ok, err = r.Next(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"k3"}, r.LastReadKey())
	assert.EqualValues(t, 1, sink.Count(errsink.RowError))
}

func TestContextCancellationStopsReadingSilently(t *testing.T) {
	path := writeTemp(t, "a,b\n1,2\n3,4\n")
	d := twoNumberDictionary(t, "a", "b")

	in, err := tabfile.Open(path)
	require.NoError(t, err)
	defer in.Close()

	sink := errsink.New()
	r, err := NewReader(d, in, config.Default(), sink)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, ok, err := r.Next(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}
