package archive

import (
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	tempDir := t.TempDir()
	sourceDir := filepath.Join(tempDir, "source")
	for name, content := range files {
		full := filepath.Join(sourceDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o755))
	}

	archivePath := filepath.Join(tempDir, "release.tar.gz")
	require.NoError(t, NewManager().Create(context.Background(), sourceDir, archivePath))

	data, err := os.ReadFile(archivePath)
	require.NoError(t, err)
	return data
}

func TestExtractBinary_TarGz(t *testing.T) {
	data := buildTarGz(t, map[string]string{
		"pacaptr":   "#!/bin/sh\necho pacaptr\n",
		"README.md": "docs",
		"LICENSE":   "MIT",
	})

	got, err := NewManager().ExtractBinary(context.Background(), "pacaptr-linux-amd64.tar.gz", data, "pacaptr")
	require.NoError(t, err)
	assert.Equal(t, "#!/bin/sh\necho pacaptr\n", string(got))
}

func TestExtractBinary_Nested(t *testing.T) {
	data := buildTarGz(t, map[string]string{
		"pacaptr-v0.9.0/bin/pacaptr": "nested binary",
	})

	got, err := NewManager().ExtractBinary(context.Background(), "release.tar.gz", data, "pacaptr")
	require.NoError(t, err)
	assert.Equal(t, "nested binary", string(got))
}

func TestExtractBinary_Missing(t *testing.T) {
	data := buildTarGz(t, map[string]string{"other": "x"})

	_, err := NewManager().ExtractBinary(context.Background(), "release.tar.gz", data, "pacaptr")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestExtractBinary_Gzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("plain binary"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	got, err := NewManager().ExtractBinary(context.Background(), "pacaptr.gz", buf.Bytes(), "pacaptr")
	require.NoError(t, err)
	assert.Equal(t, "plain binary", string(got))
}

func TestExtractBinary_RawBinaryPassesThrough(t *testing.T) {
	raw := []byte{0x7f, 'E', 'L', 'F', 2, 1, 1, 0, 0, 0}

	got, err := NewManager().ExtractBinary(context.Background(), "pacaptr", raw, "pacaptr")
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}
