// Package config loads the engine's tunable knobs (buffer sizing,
// field/line limits, the tabular separator, header and BOM flags)
// from a TOML document, following the teacher's
// internal/parser/toml decode-then-convert shape.
package config

import (
	"fmt"
	"io"
	"os"

	"github.com/BurntSushi/toml"
)

// Config holds the engine-wide settings that spec.md leaves to the
// driver/tabfile layer's configuration (separator, size limits) plus
// the header-line and UTF-8 BOM flags. It has no n-gram schedule
// setting.
type Config struct {
	Separator        string `toml:"separator"`
	MaxLineLength    int    `toml:"max_line_length"`
	MaxFieldSize     int    `toml:"max_field_size"`
	PreferredBuffer  int    `toml:"preferred_buffer_size"`
	HeaderLine       bool   `toml:"header_line"`
	UTF8BOMManagement bool  `toml:"utf8_bom_management"`
}

// Default matches the constants documented in spec.md §4.6/§4.7.
func Default() Config {
	return Config{
		Separator:         ",",
		MaxLineLength:      8 << 20,
		MaxFieldSize:       1_000_000,
		PreferredBuffer:    64 << 10,
		HeaderLine:         true,
		UTF8BOMManagement:  true,
	}
}

// SeparatorByte validates and returns the configured separator: a
// single byte, not alphanumeric, not '"', '\r', '\n', or NUL (spec.md
// §6, "Field separator").
func (c Config) SeparatorByte() (byte, error) {
	if len(c.Separator) != 1 {
		return 0, fmt.Errorf("config: separator must be exactly one byte, got %q", c.Separator)
	}
	b := c.Separator[0]
	switch {
	case b >= '0' && b <= '9', b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z':
		return 0, fmt.Errorf("config: separator %q must not be alphanumeric", c.Separator)
	case b == '"' || b == '\r' || b == '\n' || b == 0:
		return 0, fmt.Errorf("config: separator %q is reserved", c.Separator)
	}
	return b, nil
}

// Load reads and decodes a TOML config document, filling in any
// field the document omits from Default().
func Load(r io.Reader) (Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// LoadFile opens path and decodes it as a TOML config document.
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()
	return Load(f)
}
