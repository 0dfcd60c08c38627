// Package output renders a dictdiff result and a dictionary-compile
// report as one of three formats: SQL (a comment-annotated compile
// report; diffs as plain text), JSON, or a compact human summary.
package output

import (
	"fmt"
	"strings"

	"derivecore/internal/dictdiff"
	"derivecore/internal/dictionary"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatSQL     Format = "sql"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
)

// Formatter is an interface for formatting dictionary diffs and
// compile reports.
type Formatter interface {
	FormatDiff(*dictdiff.DictionaryDiff) (string, error)
	FormatCompileReport(*dictionary.Report) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to SQL format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatSQL:
		return sqlFormatter{}, nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'sql', 'json', or 'summary'", name)
	}
}
