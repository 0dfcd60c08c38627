package dictdiff

import (
	"fmt"

	"derivecore/internal/dictionary"
)

// ChangeSeverity classifies how disruptive a BreakingChange is to
// records written under the old Dictionary.
type ChangeSeverity int

const (
	SeverityInfo ChangeSeverity = iota
	SeverityWarning
	SeverityBreaking
	SeverityCritical
)

func (s ChangeSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityBreaking:
		return "BREAKING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// BreakingChange describes one specific way a Dictionary change can
// break readers of data produced under the old Dictionary version.
type BreakingChange struct {
	Severity    ChangeSeverity
	Description string
	Object      string
	ObjectType  string
}

// BreakingChangeAnalyzer walks a DictionaryDiff and surfaces
// BreakingChanges in the order it finds them.
type BreakingChangeAnalyzer struct {
	Changes []BreakingChange
}

// NewBreakingChangeAnalyzer returns a ready-to-use analyzer.
func NewBreakingChangeAnalyzer() *BreakingChangeAnalyzer {
	return &BreakingChangeAnalyzer{}
}

// Analyze classifies every change in diff and returns the accumulated
// BreakingChanges.
func (a *BreakingChangeAnalyzer) Analyze(diff *DictionaryDiff) []BreakingChange {
	if diff == nil {
		return nil
	}
	a.analyzeRenamedAttributes(diff.RenamedAttributes)
	a.analyzeRemovedAttributes(diff.RemovedAttributes)
	a.analyzeModifiedAttributes(diff.ModifiedAttributes)
	a.analyzeAddedAttributes(diff.AddedAttributes)
	a.analyzeRemovedBlocks(diff.RemovedBlocks)
	a.analyzeModifiedBlocks(diff.ModifiedBlocks)
	return a.Changes
}

func (a *BreakingChangeAnalyzer) analyzeRenamedAttributes(renames []*AttributeRename) {
	for _, r := range renames {
		a.add(BreakingChange{
			Severity:    SeverityWarning,
			Description: fmt.Sprintf("Attribute rename detected: %s -> %s (review downstream consumers keyed by name)", r.Old.Name, r.New.Name),
			Object:      fmt.Sprintf("%s->%s", r.Old.Name, r.New.Name),
			ObjectType:  "ATTRIBUTE_RENAME",
		})
	}
}

func (a *BreakingChangeAnalyzer) analyzeRemovedAttributes(attrs []*dictionary.Attribute) {
	for _, attr := range attrs {
		severity := SeverityCritical
		if !attr.Loaded {
			severity = SeverityWarning
		}
		if attr.Key {
			a.add(BreakingChange{
				Severity:    SeverityCritical,
				Description: "Key attribute will be dropped - records keyed by it become unidentifiable",
				Object:      attr.Name,
				ObjectType:  "ATTRIBUTE",
			})
			continue
		}
		a.add(BreakingChange{
			Severity:    severity,
			Description: "Attribute will be dropped",
			Object:      attr.Name,
			ObjectType:  "ATTRIBUTE",
		})
	}
}

func (a *BreakingChangeAnalyzer) analyzeModifiedAttributes(changes []*AttributeChange) {
	for _, ch := range changes {
		for _, fc := range ch.Changes {
			switch fc.Field {
			case "Type":
				a.add(BreakingChange{
					Severity:    a.typeChangeSeverity(ch.Old, ch.New),
					Description: fmt.Sprintf("Attribute type changes from %s to %s", fc.Old, fc.New),
					Object:      ch.Name,
					ObjectType:  "ATTRIBUTE",
				})
			case "Key":
				a.add(BreakingChange{
					Severity:    SeverityCritical,
					Description: "Key status changed - affects record identity",
					Object:      ch.Name,
					ObjectType:  "ATTRIBUTE",
				})
			case "Loaded":
				if fc.Old == "true" && fc.New == "false" {
					a.add(BreakingChange{
						Severity:    SeverityWarning,
						Description: "Attribute is no longer loaded - it disappears from output",
						Object:      ch.Name,
						ObjectType:  "ATTRIBUTE",
					})
				}
			case "Format":
				a.add(BreakingChange{
					Severity:    SeverityInfo,
					Description: fmt.Sprintf("Format metadata changes from %q to %q", fc.Old, fc.New),
					Object:      ch.Name,
					ObjectType:  "ATTRIBUTE",
				})
			case "Derived", "RuleName":
				a.add(BreakingChange{
					Severity:    SeverityWarning,
					Description: "Derivation rule changed - computed values will differ",
					Object:      ch.Name,
					ObjectType:  "ATTRIBUTE",
				})
			}
		}
	}
}

func (a *BreakingChangeAnalyzer) typeChangeSeverity(old, new *dictionary.Attribute) ChangeSeverity {
	if old.Type.IsStored() != new.Type.IsStored() {
		return SeverityCritical
	}
	return SeverityBreaking
}

func (a *BreakingChangeAnalyzer) analyzeAddedAttributes(attrs []*dictionary.Attribute) {
	for _, attr := range attrs {
		if attr.Key {
			a.add(BreakingChange{
				Severity:    SeverityBreaking,
				Description: "Key attribute added - existing records lack a value for it",
				Object:      attr.Name,
				ObjectType:  "ATTRIBUTE",
			})
		}
	}
}

func (a *BreakingChangeAnalyzer) analyzeRemovedBlocks(blocks []*dictionary.AttributeBlock) {
	for _, b := range blocks {
		a.add(BreakingChange{
			Severity:    SeverityCritical,
			Description: "Attribute block will be dropped - all sparse members are lost",
			Object:      b.Name,
			ObjectType:  "BLOCK",
		})
	}
}

func (a *BreakingChangeAnalyzer) analyzeModifiedBlocks(changes []*BlockChange) {
	for _, ch := range changes {
		for _, fc := range ch.Changes {
			switch fc.Field {
			case "ValueType":
				a.add(BreakingChange{
					Severity:    SeverityCritical,
					Description: fmt.Sprintf("Block value type changes from %s to %s", fc.Old, fc.New),
					Object:      ch.Name,
					ObjectType:  "BLOCK",
				})
			case "VarKeyType":
				a.add(BreakingChange{
					Severity:    SeverityCritical,
					Description: fmt.Sprintf("Block key type changes from %s to %s - sparse field lookups will not match", fc.Old, fc.New),
					Object:      ch.Name,
					ObjectType:  "BLOCK",
				})
			case "Loaded":
				if fc.Old == "true" && fc.New == "false" {
					a.add(BreakingChange{
						Severity:    SeverityWarning,
						Description: "Block is no longer loaded - it disappears from output",
						Object:      ch.Name,
						ObjectType:  "BLOCK",
					})
				}
			case "MemberNames":
				a.add(BreakingChange{
					Severity:    SeverityInfo,
					Description: fmt.Sprintf("Block membership changes from %s to %s", fc.Old, fc.New),
					Object:      ch.Name,
					ObjectType:  "BLOCK",
				})
			case "Derived", "RuleName":
				a.add(BreakingChange{
					Severity:    SeverityWarning,
					Description: "Block derivation rule changed - computed values will differ",
					Object:      ch.Name,
					ObjectType:  "BLOCK",
				})
			}
		}
	}
}

func (a *BreakingChangeAnalyzer) add(bc BreakingChange) {
	a.Changes = append(a.Changes, bc)
}
