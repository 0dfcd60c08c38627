package output

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"derivecore/internal/dictdiff"
	"derivecore/internal/dictionary"
	"derivecore/internal/value"
)

func customersV1(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.NewDictionary("Customers")
	d.Root = true
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "id", Type: value.KindSymbol, Key: true, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "balance", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.Compile())
	return d
}

func customersV2(t *testing.T) *dictionary.Dictionary {
	t.Helper()
	d := dictionary.NewDictionary("Customers")
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "balance", Type: value.KindContinuous, Loaded: true}))
	require.NoError(t, d.AddAttribute(&dictionary.Attribute{Name: "country", Type: value.KindSymbol, Loaded: true}))
	require.NoError(t, d.Compile())
	return d
}

func TestNewFormatterDefaultsToSQL(t *testing.T) {
	f, err := NewFormatter("")
	require.NoError(t, err)
	_, ok := f.(sqlFormatter)
	assert.True(t, ok)
}

func TestNewFormatterRejectsUnknownName(t *testing.T) {
	_, err := NewFormatter("yaml")
	assert.Error(t, err)
}

func TestSQLFormatterFormatDiffMentionsBreakingChange(t *testing.T) {
	d := dictdiff.Diff(customersV1(t), customersV2(t), dictdiff.DefaultOptions())
	out, err := sqlFormatter{}.FormatDiff(d)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed attributes")
	assert.Contains(t, out, "id")
	assert.Contains(t, out, "Breaking changes")
}

func TestSQLFormatterFormatCompileReport(t *testing.T) {
	r := customersV1(t).Report()
	out, err := sqlFormatter{}.FormatCompileReport(&r)
	require.NoError(t, err)
	assert.Contains(t, out, "-- derivecore dictionary compile report: Customers")
	assert.Contains(t, out, "Key: (id)")
}

func TestJSONFormatterFormatDiffIsValidJSON(t *testing.T) {
	d := dictdiff.Diff(customersV1(t), customersV2(t), dictdiff.DefaultOptions())
	out, err := jsonFormatter{}.FormatDiff(d)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "{"))
	assert.Contains(t, out, "\"removedAttributes\"")
}

func TestJSONFormatterFormatCompileReport(t *testing.T) {
	r := customersV1(t).Report()
	out, err := jsonFormatter{}.FormatCompileReport(&r)
	require.NoError(t, err)
	assert.Contains(t, out, "\"report\"")
}

func TestSummaryFormatterFormatDiffReportsCounts(t *testing.T) {
	d := dictdiff.Diff(customersV1(t), customersV2(t), dictdiff.DefaultOptions())
	out, err := summaryFormatter{}.FormatDiff(d)
	require.NoError(t, err)
	assert.Contains(t, out, "Dictionary Diff Summary")
}

func TestSummaryFormatterFormatDiffNoChangesWhenIdentical(t *testing.T) {
	d := dictdiff.Diff(customersV1(t), customersV1(t), dictdiff.DefaultOptions())
	out, err := summaryFormatter{}.FormatDiff(d)
	require.NoError(t, err)
	assert.Equal(t, "No changes detected.\n", out)
}

func TestSummaryFormatterFormatCompileReport(t *testing.T) {
	r := customersV1(t).Report()
	out, err := summaryFormatter{}.FormatCompileReport(&r)
	require.NoError(t, err)
	assert.Contains(t, out, "Dictionary Compile Report")
	assert.Contains(t, out, "Name:       Customers")
}
