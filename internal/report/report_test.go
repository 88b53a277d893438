package report

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReporter_Buffer(t *testing.T) {
	var buf bytes.Buffer
	r := New(&buf)
	r.Print("a", "b")
	r.Println()
	r.Printf("%s:%.4f ", "A", 0.5)
	assert.Equal(t, "ab\nA:0.5000 ", buf.String())
	assert.NoError(t, r.Close())
	assert.Empty(t, r.Path())
}

func TestOpen_File(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	r, err := Open(dir, "res.txt")
	require.NoError(t, err)
	r.Println("bonjour")
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	data, err := os.ReadFile(filepath.Join(dir, "res.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bonjour\n", string(data))
	assert.Equal(t, filepath.Join(dir, "res.txt"), r.Path())
}

func TestOpen_Stdout(t *testing.T) {
	r, err := Open("ignored", "")
	require.NoError(t, err)
	assert.Empty(t, r.Path())
	assert.NoError(t, r.Close())
}
