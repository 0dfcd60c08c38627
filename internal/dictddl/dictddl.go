// Package dictddl renders a compiled Dictionary's loaded attributes as
// a MySQL CREATE TABLE statement (spec.md §4.2/§4.9 ADDED), so
// internal/sqlsink can provision its destination table from the same
// Dictionary driving evaluation instead of requiring hand-written DDL.
// Grounded on the teacher's internal/dialect/mysql Generator
// (GenerateCreateTable/QuoteIdentifier/QuoteString), reduced to the
// subset a Dictionary needs: no table options, no foreign keys, no
// secondary indexes — those have no Dictionary analog.
package dictddl

import (
	"fmt"
	"strings"

	"derivecore/internal/dictionary"
	"derivecore/internal/value"
)

// Generator renders CREATE TABLE statements for MySQL-compatible
// destinations. It carries no state; the zero value is ready to use.
type Generator struct{}

// QuoteIdentifier escapes name as a MySQL backtick-quoted identifier.
func (Generator) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// columnType maps a stored value.Kind to its MySQL column type. Blocks
// materialize as a single JSON column (sparse payloads are not
// first-class in SQL column stores, spec.md §4.10).
func columnType(kind value.Kind) string {
	switch kind {
	case value.KindContinuous:
		return "DOUBLE"
	case value.KindSymbol:
		return "VARCHAR(255)"
	case value.KindDate:
		return "DATE"
	case value.KindTime:
		return "TIME"
	case value.KindTimestamp:
		return "DATETIME"
	case value.KindTimestampTZ:
		// MySQL DATETIME/TIMESTAMP carry no UTC offset; storing the
		// formatted text preserves the zone the value was read with.
		return "VARCHAR(40)"
	case value.KindText:
		return "TEXT"
	case value.KindContinuousValueBlock, value.KindSymbolValueBlock:
		return "JSON"
	default:
		return "TEXT"
	}
}

// GenerateCreateTable renders "CREATE TABLE <table> (...)" for d's
// loaded native and derived attributes and blocks, in declaration
// order, with a PRIMARY KEY clause listing d.KeyAttributeNames() when
// d has any.
func (g Generator) GenerateCreateTable(table string, d *dictionary.Dictionary) string {
	var lines []string

	for _, name := range d.AttributeNames() {
		a := d.LookupAttribute(name)
		if !a.Loaded {
			continue
		}
		// Nullable even for Key attributes: MySQL enforces NOT NULL on
		// PRIMARY KEY columns on its own, and a Missing stored value
		// (spec.md §3) must still have somewhere to go for non-key
		// columns.
		lines = append(lines, fmt.Sprintf("  %s %s NULL", g.QuoteIdentifier(a.Name), columnType(a.Type)))
	}
	for _, name := range d.BlockNames() {
		b := d.LookupAttributeBlock(name)
		if !b.Loaded {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %s %s NULL", g.QuoteIdentifier(b.Name), columnType(b.ValueType)))
	}

	if keys := d.KeyAttributeNames(); len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = g.QuoteIdentifier(k)
		}
		lines = append(lines, fmt.Sprintf("  PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", g.QuoteIdentifier(table), strings.Join(lines, ",\n"))
}
