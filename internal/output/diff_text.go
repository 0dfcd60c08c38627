package output

import (
	"fmt"
	"strings"

	"derivecore/internal/dictdiff"
	"derivecore/internal/dictionary"
)

// formatDiffText returns a string representation of all differences
// between two Dictionary versions.
func formatDiffText(d *dictdiff.DictionaryDiff) string {
	if d.IsEmpty() {
		return "No differences detected."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Dictionary differences: %s\n", d.Name)

	writeDiffWarnings(&sb, d.Warnings)
	writeAddedAttributes(&sb, d.AddedAttributes)
	writeRemovedAttributes(&sb, d.RemovedAttributes)
	writeRenamedAttributes(&sb, d.RenamedAttributes)
	writeModifiedAttributes(&sb, d.ModifiedAttributes)
	writeAddedBlocks(&sb, d.AddedBlocks)
	writeRemovedBlocks(&sb, d.RemovedBlocks)
	writeModifiedBlocks(&sb, d.ModifiedBlocks)
	writeBreakingChanges(&sb, d)

	return sb.String()
}

func writeDiffWarnings(sb *strings.Builder, warnings []string) {
	if len(warnings) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nWarnings:\n")
	for _, w := range warnings {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		fmt.Fprintf(sb, "  - %s\n", w)
	}
}

func writeAddedAttributes(sb *strings.Builder, attrs []*dictionary.Attribute) {
	if len(attrs) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nAdded attributes:\n")
	for _, a := range attrs {
		fmt.Fprintf(sb, "  - %s: %s\n", a.Name, a.Type)
	}
}

func writeRemovedAttributes(sb *strings.Builder, attrs []*dictionary.Attribute) {
	if len(attrs) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nRemoved attributes:\n")
	for _, a := range attrs {
		fmt.Fprintf(sb, "  - %s: %s\n", a.Name, a.Type)
	}
}

func writeRenamedAttributes(sb *strings.Builder, renames []*dictdiff.AttributeRename) {
	if len(renames) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nRenamed attributes:\n")
	for _, r := range renames {
		fmt.Fprintf(sb, "  - %s -> %s (score %d)\n", r.Old.Name, r.New.Name, r.Score)
	}
}

func writeModifiedAttributes(sb *strings.Builder, changes []*dictdiff.AttributeChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nModified attributes:\n")
	for _, ch := range changes {
		fmt.Fprintf(sb, "  - %s:\n", ch.Name)
		for _, fc := range ch.Changes {
			fmt.Fprintf(sb, "      %s: %q -> %q\n", fc.Field, fc.Old, fc.New)
		}
	}
}

func writeAddedBlocks(sb *strings.Builder, blocks []*dictionary.AttributeBlock) {
	if len(blocks) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nAdded blocks:\n")
	for _, b := range blocks {
		fmt.Fprintf(sb, "  - %s: %s\n", b.Name, b.ValueType)
	}
}

func writeRemovedBlocks(sb *strings.Builder, blocks []*dictionary.AttributeBlock) {
	if len(blocks) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nRemoved blocks:\n")
	for _, b := range blocks {
		fmt.Fprintf(sb, "  - %s: %s\n", b.Name, b.ValueType)
	}
}

func writeModifiedBlocks(sb *strings.Builder, changes []*dictdiff.BlockChange) {
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nModified blocks:\n")
	for _, ch := range changes {
		fmt.Fprintf(sb, "  - %s:\n", ch.Name)
		for _, fc := range ch.Changes {
			fmt.Fprintf(sb, "      %s: %q -> %q\n", fc.Field, fc.Old, fc.New)
		}
	}
}

func writeBreakingChanges(sb *strings.Builder, d *dictdiff.DictionaryDiff) {
	changes := dictdiff.NewBreakingChangeAnalyzer().Analyze(d)
	if len(changes) == 0 {
		return
	}
	fmt.Fprintf(sb, "\nBreaking changes:\n")
	for _, c := range changes {
		fmt.Fprintf(sb, "  [%s] %s: %s\n", c.Severity, c.Object, c.Description)
	}
}
