package tabfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFieldQuotesWhenNeeded(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	out := NewOutputFile(path, false, false)
	require.NoError(t, out.Open())

	require.NoError(t, out.WriteField("plain", ',', false))
	require.NoError(t, out.WriteField(`has,sep`, ',', false))
	require.NoError(t, out.WriteField(`has"quote`, ',', true))
	require.NoError(t, out.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "plain,\"has,sep\",has\"quote\n", string(data))
}

func TestOutputFileAppendMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	first := NewOutputFile(path, false, false)
	require.NoError(t, first.Open())
	require.NoError(t, first.WriteField("a", ',', true))
	require.NoError(t, first.Close())

	second := NewOutputFile(path, true, false)
	require.NoError(t, second.Open())
	require.NoError(t, second.WriteField("b", ',', true))
	require.NoError(t, second.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb\n", string(data))
}
