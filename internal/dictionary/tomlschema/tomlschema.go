// Package tomlschema parses a small TOML document into a
// dictionary.Dictionary. The result is not compiled; callers run
// Compile on it. It follows the shape of the teacher's
// internal/parser/toml package: a flat schemaFile document decoded with
// BurntSushi/toml, then converted field-by-field into the target model
// (spec.md §4.2's "[ADDED] Dictionary from TOML").
//
// Derivation rules are deliberately not expressible in this format: a
// TOML dictionary only declares native attributes and blocks. Attaching
// rules programmatically (via dictionary.Dictionary.AddAttribute with a
// non-nil Rule) remains the only path to a derived schema.
package tomlschema

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"

	"derivecore/internal/dictionary"
	"derivecore/internal/value"
)

type schemaFile struct {
	Dictionary tomlDictionary `toml:"dictionary"`
}

type tomlDictionary struct {
	Name   string       `toml:"name"`
	Root   bool         `toml:"root"`
	Fields []tomlField  `toml:"fields"`
	Blocks []tomlBlock  `toml:"blocks"`
}

type tomlField struct {
	Name   string `toml:"name"`
	Type   string `toml:"type"`
	Key    bool   `toml:"key"`
	Loaded bool   `toml:"loaded"`
	Format string `toml:"format"`
}

type tomlBlock struct {
	Name          string            `toml:"name"`
	ValueType     string            `toml:"value_type"` // "Continuous" | "Symbol"
	Loaded        bool              `toml:"loaded"`
	VarKeys       []string          `toml:"var_keys"`
	DefaultValue  string            `toml:"default_value"`
}

// ParseFile opens the file at path and parses it as a TOML dictionary.
func ParseFile(path string) (*dictionary.Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("tomlschema: open file %q: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a TOML dictionary document from r.
func Parse(r io.Reader) (*dictionary.Dictionary, error) {
	var sf schemaFile
	if _, err := toml.NewDecoder(r).Decode(&sf); err != nil {
		return nil, fmt.Errorf("tomlschema: decode error: %w", err)
	}
	return convert(&sf)
}

func convert(sf *schemaFile) (*dictionary.Dictionary, error) {
	td := sf.Dictionary
	d := dictionary.NewDictionary(td.Name)
	d.Root = td.Root

	for _, f := range td.Fields {
		kind, err := parseKind(f.Type)
		if err != nil {
			return nil, fmt.Errorf("tomlschema: field %q: %w", f.Name, err)
		}
		attr := &dictionary.Attribute{
			Name:   f.Name,
			Type:   kind,
			Key:    f.Key,
			Loaded: f.Loaded,
			Format: f.Format,
		}
		if err := d.AddAttribute(attr); err != nil {
			return nil, fmt.Errorf("tomlschema: field %q: %w", f.Name, err)
		}
	}

	for _, b := range td.Blocks {
		if err := convertBlock(d, &b); err != nil {
			return nil, fmt.Errorf("tomlschema: block %q: %w", b.Name, err)
		}
	}

	return d, nil
}

func convertBlock(d *dictionary.Dictionary, b *tomlBlock) error {
	var valueKind value.Kind
	switch b.ValueType {
	case "Continuous":
		valueKind = value.KindContinuousValueBlock
	case "Symbol":
		valueKind = value.KindSymbolValueBlock
	default:
		return fmt.Errorf("unknown block value_type %q", b.ValueType)
	}

	block := &dictionary.AttributeBlock{
		Name:      b.Name,
		ValueType: valueKind,
		Loaded:    b.Loaded,
	}

	members := make([]*dictionary.Attribute, 0, len(b.VarKeys))
	memberType := value.KindContinuous
	if valueKind == value.KindSymbolValueBlock {
		memberType = value.KindSymbol
	}
	for _, vk := range b.VarKeys {
		members = append(members, &dictionary.Attribute{
			Name:   b.Name + "." + vk,
			Type:   memberType,
			VarKey: value.NewSymbolKey(value.Intern(vk)),
		})
	}

	if valueKind == value.KindContinuousValueBlock {
		c, _ := value.ParseContinuous(b.DefaultValue)
		block.DefaultContinuous = c
	} else {
		block.DefaultSymbol = value.Intern(b.DefaultValue)
	}

	return d.AddAttributeBlock(block, members)
}

func parseKind(raw string) (value.Kind, error) {
	switch raw {
	case "Continuous":
		return value.KindContinuous, nil
	case "Symbol":
		return value.KindSymbol, nil
	case "Date":
		return value.KindDate, nil
	case "Time":
		return value.KindTime, nil
	case "Timestamp":
		return value.KindTimestamp, nil
	case "TimestampTZ":
		return value.KindTimestampTZ, nil
	case "Text":
		return value.KindText, nil
	default:
		return value.KindInvalid, fmt.Errorf("unknown type %q", raw)
	}
}
