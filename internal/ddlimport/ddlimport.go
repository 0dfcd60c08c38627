// Package ddlimport builds Dictionaries from a SQL CREATE TABLE dump,
// an alternative to the TOML dictionary source (spec.md §4.2 ADDED).
// One Dictionary is produced per CREATE TABLE statement, keyed by table
// name; primary-key columns become Key attributes and the table's raw
// column types are normalized to the engine's portable value.Kind set
// the same way the teacher's core.NormalizeDataType reduces a raw SQL
// type string to one of its portable DataType constants.
package ddlimport

import (
	"fmt"
	"strings"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
	_ "github.com/pingcap/tidb/pkg/parser/test_driver"

	"derivecore/internal/dictionary"
	"derivecore/internal/value"
)

type typeRule struct {
	kind       value.Kind
	substrings []string
}

// typeRules is checked in order, first substring match wins — the same
// shape as the teacher's normalizeDataTypeRules table. Datetime
// variants are ordered before the plain "date"/"time" substrings they
// also contain.
var typeRules = []typeRule{
	{kind: value.KindTimestamp, substrings: []string{"timestamp", "datetime"}},
	{kind: value.KindDate, substrings: []string{"date", "year"}},
	{kind: value.KindTime, substrings: []string{"time"}},
	{kind: value.KindContinuous, substrings: []string{"int", "float", "double", "decimal", "numeric", "real", "bit", "bool"}},
	{kind: value.KindText, substrings: []string{"text", "blob", "json"}},
}

// normalizeKind maps a raw SQL type string (e.g. "VARCHAR(255)") to a
// portable value.Kind, defaulting to Symbol for anything it doesn't
// recognize (char/varchar/enum/set/uuid/binary and all else).
func normalizeKind(rawType string) value.Kind {
	lower := strings.ToLower(strings.TrimSpace(rawType))
	for _, rule := range typeRules {
		for _, sub := range rule.substrings {
			if strings.Contains(lower, sub) {
				return rule.kind
			}
		}
	}
	return value.KindSymbol
}

func defaultFormatFor(kind value.Kind) string {
	switch kind {
	case value.KindDate:
		return "YYYY-MM-DD"
	case value.KindTime:
		return "hh:mm:ss"
	case value.KindTimestamp:
		return "YYYY-MM-DD hh:mm:ss"
	default:
		return ""
	}
}

// Import parses sql (one or more statements) and returns one compiled
// Dictionary per CREATE TABLE statement found, keyed by table name.
// Non-CREATE-TABLE statements are ignored.
func Import(sql string) (map[string]*dictionary.Dictionary, error) {
	stmtNodes, _, err := parser.New().Parse(sql, "", "")
	if err != nil {
		return nil, fmt.Errorf("ddlimport: parse: %w", err)
	}

	out := make(map[string]*dictionary.Dictionary)
	for _, stmt := range stmtNodes {
		create, ok := stmt.(*ast.CreateTableStmt)
		if !ok {
			continue
		}
		d, err := convertTable(create)
		if err != nil {
			return nil, err
		}
		out[d.Name] = d
	}
	return out, nil
}

func convertTable(stmt *ast.CreateTableStmt) (*dictionary.Dictionary, error) {
	name := stmt.Table.Name.O
	pk := primaryKeyColumns(stmt)

	d := dictionary.NewDictionary(name)
	d.Root = len(pk) > 0

	for _, col := range stmt.Cols {
		colName := col.Name.Name.O
		kind := normalizeKind(col.Tp.String())
		attr := &dictionary.Attribute{
			Name:   colName,
			Type:   kind,
			Loaded: true,
			Key:    pk[colName] || hasColumnOption(col, ast.ColumnOptionPrimaryKey),
			Format: defaultFormatFor(kind),
		}
		if err := d.AddAttribute(attr); err != nil {
			return nil, fmt.Errorf("ddlimport: table %q: %w", name, err)
		}
	}

	if err := d.Compile(); err != nil {
		return nil, fmt.Errorf("ddlimport: table %q: %w", name, err)
	}
	return d, nil
}

func primaryKeyColumns(stmt *ast.CreateTableStmt) map[string]bool {
	cols := make(map[string]bool)
	for _, c := range stmt.Constraints {
		if c.Tp != ast.ConstraintPrimaryKey {
			continue
		}
		for _, key := range c.Keys {
			cols[key.Column.Name.O] = true
		}
	}
	return cols
}

func hasColumnOption(col *ast.ColumnDef, tp ast.ColumnOptionType) bool {
	for _, opt := range col.Options {
		if opt.Tp == tp {
			return true
		}
	}
	return false
}
