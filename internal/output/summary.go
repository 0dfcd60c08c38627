package output

import (
	"fmt"
	"strings"

	"derivecore/internal/dictdiff"
	"derivecore/internal/dictionary"
)

type summaryFormatter struct{}

// FormatDiff formats a dictionary diff as a compact summary.
// Example output:
//
//	Attributes: +3, ~2, -0, renamed 1
//	Blocks:     +1, ~0, -0
func (summaryFormatter) FormatDiff(d *dictdiff.DictionaryDiff) (string, error) {
	if d == nil || d.IsEmpty() {
		return "No changes detected.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Dictionary Diff Summary\n")
	sb.WriteString("========================\n\n")

	fmt.Fprintf(&sb, "Attributes: +%d, ~%d, -%d, renamed %d\n",
		len(d.AddedAttributes), len(d.ModifiedAttributes), len(d.RemovedAttributes), len(d.RenamedAttributes))
	fmt.Fprintf(&sb, "Blocks:     +%d, ~%d, -%d\n",
		len(d.AddedBlocks), len(d.ModifiedBlocks), len(d.RemovedBlocks))

	if len(d.Warnings) > 0 {
		fmt.Fprintf(&sb, "\nWarnings: %d\n", len(d.Warnings))
	}

	changes := dictdiff.NewBreakingChangeAnalyzer().Analyze(d)
	if len(changes) > 0 {
		fmt.Fprintf(&sb, "\nBreaking changes: %d\n", len(changes))
		for _, c := range changes {
			fmt.Fprintf(&sb, "  [%s] %s: %s\n", c.Severity, c.Object, c.Description)
		}
	}

	writeAttributeDetails(&sb, d)

	return sb.String(), nil
}

func writeAttributeDetails(sb *strings.Builder, d *dictdiff.DictionaryDiff) {
	if len(d.AddedAttributes) == 0 && len(d.RemovedAttributes) == 0 && len(d.ModifiedAttributes) == 0 && len(d.RenamedAttributes) == 0 {
		return
	}

	sb.WriteString("\nDetails:\n")
	for _, a := range d.AddedAttributes {
		fmt.Fprintf(sb, "  + %s (new attribute)\n", a.Name)
	}
	for _, a := range d.RemovedAttributes {
		fmt.Fprintf(sb, "  - %s (removed attribute)\n", a.Name)
	}
	for _, r := range d.RenamedAttributes {
		fmt.Fprintf(sb, "  ~ %s -> %s (renamed)\n", r.Old.Name, r.New.Name)
	}
	for _, ch := range d.ModifiedAttributes {
		fmt.Fprintf(sb, "  ~ %s (%d field(s) changed)\n", ch.Name, len(ch.Changes))
	}
}

// FormatCompileReport formats a dictionary-compile report as a
// compact summary.
func (summaryFormatter) FormatCompileReport(r *dictionary.Report) (string, error) {
	if r == nil {
		return "No report.\n", nil
	}

	var sb strings.Builder
	sb.WriteString("Dictionary Compile Report\n")
	sb.WriteString("==========================\n\n")

	fmt.Fprintf(&sb, "Name:       %s\n", r.Name)
	fmt.Fprintf(&sb, "Root:       %t\n", r.Root)
	fmt.Fprintf(&sb, "Attributes: %d (native: %d, derived: %d)\n", r.AttributeCount, r.NativeAttributeCount, r.DerivedAttributeCount)
	fmt.Fprintf(&sb, "Blocks:     %d\n", r.BlockCount)
	if len(r.KeyAttributeNames) > 0 {
		fmt.Fprintf(&sb, "Key:        (%s)\n", strings.Join(r.KeyAttributeNames, ", "))
	}

	return sb.String(), nil
}
