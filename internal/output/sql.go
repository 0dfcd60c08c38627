package output

import (
	"fmt"
	"strings"

	"derivecore/internal/dictdiff"
	"derivecore/internal/dictionary"
)

type sqlFormatter struct{}

// FormatDiff formats a dictionary diff as the plain-text listing built
// by formatDiffText, without comment markers (there is no SQL statement
// to emit for a Dictionary change — unlike a table migration, evolving
// a Dictionary means redeploying it, not altering a schema in place).
func (sqlFormatter) FormatDiff(d *dictdiff.DictionaryDiff) (string, error) {
	if d == nil {
		return "", nil
	}
	return formatDiffText(d), nil
}

// FormatCompileReport formats a dictionary-compile report as SQL
// comments summarizing the Dictionary's shape.
func (sqlFormatter) FormatCompileReport(r *dictionary.Report) (string, error) {
	if r == nil {
		return "", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "-- derivecore dictionary compile report: %s\n", r.Name)
	fmt.Fprintf(&sb, "-- Root: %t\n", r.Root)
	fmt.Fprintf(&sb, "-- Attributes: %d (native: %d, derived: %d)\n", r.AttributeCount, r.NativeAttributeCount, r.DerivedAttributeCount)
	fmt.Fprintf(&sb, "-- Blocks: %d\n", r.BlockCount)
	if len(r.KeyAttributeNames) > 0 {
		fmt.Fprintf(&sb, "-- Key: (%s)\n", strings.Join(r.KeyAttributeNames, ", "))
	}
	return sb.String(), nil
}
