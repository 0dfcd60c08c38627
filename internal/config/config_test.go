package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFillsOmittedFieldsFromDefault(t *testing.T) {
	cfg, err := Load(strings.NewReader(`separator = ";"`))
	require.NoError(t, err)
	assert.Equal(t, ";", cfg.Separator)
	assert.Equal(t, Default().MaxLineLength, cfg.MaxLineLength)
	assert.True(t, cfg.HeaderLine)
}

func TestSeparatorByteRejectsAlphanumericAndReserved(t *testing.T) {
	cfg := Default()

	cfg.Separator = "a"
	_, err := cfg.SeparatorByte()
	assert.Error(t, err)

	cfg.Separator = "\""
	_, err = cfg.SeparatorByte()
	assert.Error(t, err)

	cfg.Separator = "\t"
	b, err := cfg.SeparatorByte()
	require.NoError(t, err)
	assert.Equal(t, byte('\t'), b)
}
