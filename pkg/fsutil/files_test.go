package fsutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMove_File_SameFilesystem(t *testing.T) {
	tempDir := t.TempDir()

	srcFile := filepath.Join(tempDir, "source.txt")
	dstFile := filepath.Join(tempDir, "nested", "destination.txt")

	require.NoError(t, os.WriteFile(srcFile, []byte("Hello, World!"), 0o644))

	require.NoError(t, Move(srcFile, dstFile))

	moved, err := os.ReadFile(dstFile)
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!", string(moved))
	assert.NoFileExists(t, srcFile)
}

func TestMove_Errors(t *testing.T) {
	tempDir := t.TempDir()

	assert.Error(t, Move("", filepath.Join(tempDir, "x")))
	assert.Error(t, Move(filepath.Join(tempDir, "missing"), filepath.Join(tempDir, "x")))
	assert.Error(t, Move(tempDir, filepath.Join(tempDir, "x")))
}

func TestCopy(t *testing.T) {
	tempDir := t.TempDir()
	src := filepath.Join(tempDir, "a")
	dst := filepath.Join(tempDir, "b")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o644))

	require.NoError(t, Copy(src, dst))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	assert.FileExists(t, src)
}

func TestWriteFileAtomic(t *testing.T) {
	tempDir := t.TempDir()
	target := filepath.Join(tempDir, "bin", "tool")

	require.NoError(t, WriteFileAtomic(target, []byte("v1"), FileModeExec))
	require.NoError(t, WriteFileAtomic(target, []byte("v2"), FileModeExec))

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "v2", string(got))

	info, err := os.Stat(target)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(FileModeExec), info.Mode().Perm())

	entries, err := os.ReadDir(filepath.Dir(target))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestDefaultDirs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CACHE_HOME", filepath.Join(home, "cache"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))

	binDir, err := GetBinDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".local", "bin"), binDir)

	cacheDir, err := GetCacheDir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(cacheDir))

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, AppName, filepath.Base(configDir))
}
