// Package dictdiff compares two compiled Dictionary versions the way
// the teacher compared two schema dumps: added/removed/modified
// Attributes and Blocks, rename detection by structural-similarity
// score, and a breaking-change classification a caller can use to
// decide whether records written under the old Dictionary remain
// readable under the new one (spec.md §4.10 ADDED).
package dictdiff

import (
	"fmt"
	"sort"
	"strings"

	"derivecore/internal/dictionary"
)

// FieldChange records one changed field between an old and new
// Attribute or Block.
type FieldChange struct {
	Field string
	Old   string
	New   string
}

// AttributeChange describes a modified Attribute matched by name
// between two Dictionary versions.
type AttributeChange struct {
	Name    string
	Old     *dictionary.Attribute
	New     *dictionary.Attribute
	Changes []*FieldChange
}

// AttributeRename describes a removed Attribute and an added
// Attribute judged to be the same field renamed.
type AttributeRename struct {
	Old   *dictionary.Attribute
	New   *dictionary.Attribute
	Score int
}

// BlockChange describes a modified AttributeBlock matched by name.
type BlockChange struct {
	Name    string
	Old     *dictionary.AttributeBlock
	New     *dictionary.AttributeBlock
	Changes []*FieldChange
}

// DictionaryDiff is the result of comparing two Dictionary versions.
type DictionaryDiff struct {
	Name     string
	Warnings []string

	AddedAttributes    []*dictionary.Attribute
	RemovedAttributes  []*dictionary.Attribute
	RenamedAttributes  []*AttributeRename
	ModifiedAttributes []*AttributeChange

	AddedBlocks    []*dictionary.AttributeBlock
	RemovedBlocks  []*dictionary.AttributeBlock
	ModifiedBlocks []*BlockChange
}

// IsEmpty reports whether the two Dictionary versions are equivalent.
func (d *DictionaryDiff) IsEmpty() bool {
	return len(d.AddedAttributes) == 0 && len(d.RemovedAttributes) == 0 &&
		len(d.RenamedAttributes) == 0 && len(d.ModifiedAttributes) == 0 &&
		len(d.AddedBlocks) == 0 && len(d.RemovedBlocks) == 0 && len(d.ModifiedBlocks) == 0
}

// Options configures Diff.
type Options struct {
	// DetectRenames enables rename detection between removed and added
	// attributes via structural-similarity scoring. Defaults to true
	// through DefaultOptions.
	DetectRenames bool
}

// DefaultOptions returns the options Diff uses when none are supplied.
func DefaultOptions() Options {
	return Options{DetectRenames: true}
}

const renameDetectionScoreThreshold = 4

// Diff compares oldDict and newDict, both of which must already be
// compiled, and returns the set of Attribute/Block differences
// between them.
func Diff(oldDict, newDict *dictionary.Dictionary, opts Options) *DictionaryDiff {
	result := &DictionaryDiff{Name: newDict.Name}

	oldAttrs, oldCollisions := mapAttributesByName(oldDict)
	newAttrs, newCollisions := mapAttributesByName(newDict)
	result.Warnings = append(result.Warnings, oldCollisions...)
	result.Warnings = append(result.Warnings, newCollisions...)

	for name, a := range oldAttrs {
		if _, ok := newAttrs[name]; !ok {
			result.RemovedAttributes = append(result.RemovedAttributes, a)
		}
	}
	for name, a := range newAttrs {
		if old, ok := oldAttrs[name]; ok {
			if ch := compareAttribute(old, a); ch != nil {
				result.ModifiedAttributes = append(result.ModifiedAttributes, ch)
			}
			continue
		}
		result.AddedAttributes = append(result.AddedAttributes, a)
	}

	if opts.DetectRenames {
		detectAttributeRenames(result)
	}

	sortByFunc(result.AddedAttributes, func(a *dictionary.Attribute) string { return a.Name })
	sortByFunc(result.RemovedAttributes, func(a *dictionary.Attribute) string { return a.Name })
	sortByFunc(result.ModifiedAttributes, func(c *AttributeChange) string { return c.Name })
	sortByFunc(result.RenamedAttributes, func(r *AttributeRename) string { return r.Old.Name })

	oldBlocks, oldBlockCollisions := mapBlocksByName(oldDict)
	newBlocks, newBlockCollisions := mapBlocksByName(newDict)
	result.Warnings = append(result.Warnings, oldBlockCollisions...)
	result.Warnings = append(result.Warnings, newBlockCollisions...)

	for name, b := range oldBlocks {
		if _, ok := newBlocks[name]; !ok {
			result.RemovedBlocks = append(result.RemovedBlocks, b)
		}
	}
	for name, b := range newBlocks {
		if old, ok := oldBlocks[name]; ok {
			if ch := compareBlock(old, b); ch != nil {
				result.ModifiedBlocks = append(result.ModifiedBlocks, ch)
			}
			continue
		}
		result.AddedBlocks = append(result.AddedBlocks, b)
	}

	sortByFunc(result.AddedBlocks, func(b *dictionary.AttributeBlock) string { return b.Name })
	sortByFunc(result.RemovedBlocks, func(b *dictionary.AttributeBlock) string { return b.Name })
	sortByFunc(result.ModifiedBlocks, func(c *BlockChange) string { return c.Name })

	return result
}

func compareAttribute(old, new *dictionary.Attribute) *AttributeChange {
	var c fieldChangeCollector
	c.Add("Type", old.Type.String(), new.Type.String())
	c.Add("StructureType", old.StructureType, new.StructureType)
	c.Add("Key", boolStr(old.Key), boolStr(new.Key))
	c.Add("Loaded", boolStr(old.Loaded), boolStr(new.Loaded))
	c.Add("Format", old.Format, new.Format)
	c.Add("Derived", boolStr(old.IsDerived()), boolStr(new.IsDerived()))
	if old.IsDerived() && new.IsDerived() {
		c.Add("RuleName", old.Rule.Name(), new.Rule.Name())
	}
	if len(c.Changes) == 0 {
		return nil
	}
	return &AttributeChange{Name: new.Name, Old: old, New: new, Changes: c.Changes}
}

func compareBlock(old, new *dictionary.AttributeBlock) *BlockChange {
	var c fieldChangeCollector
	c.Add("ValueType", old.ValueType.String(), new.ValueType.String())
	c.Add("Loaded", boolStr(old.Loaded), boolStr(new.Loaded))
	c.Add("VarKeyType", varKeyTypeOf(old), varKeyTypeOf(new))
	c.Add("Derived", boolStr(old.IsDerived()), boolStr(new.IsDerived()))
	if old.IsDerived() && new.IsDerived() {
		c.Add("RuleName", old.Rule.Name(), new.Rule.Name())
	}
	if !equalStringSliceCI(old.MemberNames, new.MemberNames) {
		c.Add("MemberNames", formatNameList(old.MemberNames), formatNameList(new.MemberNames))
	}
	if len(c.Changes) == 0 {
		return nil
	}
	return &BlockChange{Name: new.Name, Old: old, New: new, Changes: c.Changes}
}

// varKeyTypeOf reports whether a block's indexed key block carries
// Symbol or integer keys, used to flag a VarKey-type change across
// dictionary versions.
func varKeyTypeOf(b *dictionary.AttributeBlock) string {
	if b.Keys == nil || b.Keys.KeyCount() == 0 {
		return ""
	}
	if b.Keys.KeyAt(0).IsSymbol() {
		return "Symbol"
	}
	return "Int"
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

type fieldChangeCollector struct {
	Changes []*FieldChange
}

func (c *fieldChangeCollector) Add(field, oldV, newV string) {
	if oldV == newV {
		return
	}
	c.Changes = append(c.Changes, &FieldChange{Field: field, Old: oldV, New: newV})
}

func mapAttributesByName(d *dictionary.Dictionary) (map[string]*dictionary.Attribute, []string) {
	m := make(map[string]*dictionary.Attribute)
	original := make(map[string]string)
	var collisions []string
	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		key := strings.ToLower(a.Name)
		if prev, ok := original[key]; ok {
			if prev != a.Name {
				collisions = append(collisions, fmt.Sprintf("case-insensitive name collision: %q vs %q", prev, a.Name))
			}
			continue
		}
		original[key] = a.Name
		m[key] = a
	}
	return m, collisions
}

func mapBlocksByName(d *dictionary.Dictionary) (map[string]*dictionary.AttributeBlock, []string) {
	m := make(map[string]*dictionary.AttributeBlock)
	original := make(map[string]string)
	var collisions []string
	for _, name := range d.BlockNames() {
		b := d.LookupAttributeBlock(name)
		key := strings.ToLower(b.Name)
		if prev, ok := original[key]; ok {
			if prev != b.Name {
				collisions = append(collisions, fmt.Sprintf("case-insensitive name collision: %q vs %q", prev, b.Name))
			}
			continue
		}
		original[key] = b.Name
		m[key] = b
	}
	return m, collisions
}

// attrSimilarityScore scores how alike two attributes are, independent
// of name, for rename detection.
func attrSimilarityScore(a, b *dictionary.Attribute) int {
	score := 0
	if a.Type == b.Type {
		score += 4
	}
	if a.StructureType == b.StructureType {
		score += 1
	}
	if a.Key == b.Key {
		score += 1
	}
	if a.Format == b.Format && a.Format != "" {
		score += 1
	}
	if a.IsDerived() == b.IsDerived() {
		score += 1
	}
	if a.IsDerived() && b.IsDerived() && a.Rule.Name() == b.Rule.Name() {
		score += 2
	}
	return score
}

// hasSharedNameToken reports whether two names share a "_"-delimited
// token of length >= 3, used as rename corroborating evidence.
func hasSharedNameToken(a, b string) bool {
	toks := func(s string) map[string]bool {
		m := make(map[string]bool)
		for _, t := range strings.Split(strings.ToLower(s), "_") {
			if len(t) >= 3 {
				m[t] = true
			}
		}
		return m
	}
	at, bt := toks(a), toks(b)
	for t := range at {
		if bt[t] {
			return true
		}
	}
	return false
}

// detectAttributeRenames moves best-matching removed/added attribute
// pairs from RemovedAttributes/AddedAttributes into RenamedAttributes.
func detectAttributeRenames(d *DictionaryDiff) {
	used := make(map[int]bool, len(d.AddedAttributes))
	var remaining []*dictionary.Attribute

	for _, old := range d.RemovedAttributes {
		bestIdx, bestScore := -1, -1
		for i, candidate := range d.AddedAttributes {
			if used[i] {
				continue
			}
			score := attrSimilarityScore(old, candidate)
			if score > bestScore {
				bestScore, bestIdx = score, i
			}
		}
		if bestIdx >= 0 && bestScore >= renameDetectionScoreThreshold && hasSharedNameToken(old.Name, d.AddedAttributes[bestIdx].Name) {
			used[bestIdx] = true
			d.RenamedAttributes = append(d.RenamedAttributes, &AttributeRename{
				Old:   old,
				New:   d.AddedAttributes[bestIdx],
				Score: bestScore,
			})
			continue
		}
		remaining = append(remaining, old)
	}
	d.RemovedAttributes = remaining

	var keptAdded []*dictionary.Attribute
	for i, a := range d.AddedAttributes {
		if !used[i] {
			keptAdded = append(keptAdded, a)
		}
	}
	d.AddedAttributes = keptAdded
}

func equalStringSliceCI(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !strings.EqualFold(a[i], b[i]) {
			return false
		}
	}
	return true
}

func formatNameList(items []string) string {
	return "(" + strings.Join(items, ", ") + ")"
}

func sortByFunc[T any](items []T, getName func(T) string) {
	if len(items) <= 1 {
		return
	}
	keys := make([]string, len(items))
	for i, item := range items {
		keys[i] = strings.ToLower(getName(item))
	}
	sort.Slice(items, func(i, j int) bool { return keys[i] < keys[j] })
}
