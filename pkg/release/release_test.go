package release

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/glorpus-work/formula/pkg/formula"
	"github.com/glorpus-work/formula/pkg/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrent(t *testing.T) {
	f, err := Current()
	require.NoError(t, err)

	assert.Equal(t, "pacaptr", f.Release.Binary())
	arts := f.Release.Artifacts()
	assert.Contains(t, arts[platform.MacOS].URL(), "/releases/download/"+f.Release.Tag()+"/")
	assert.Contains(t, arts[platform.Linux].URL(), "/releases/download/"+f.Release.Tag()+"/")
	assert.NotEqual(t, arts[platform.MacOS], arts[platform.Linux])
}

func TestGeneratedMatchesDescriptorFile(t *testing.T) {
	fromFile, err := formula.Load(filepath.Join("..", "..", "dist", "pacaptr.yaml"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, formula.Render(&buf, fromFile, formula.FormatGo))

	generated, err := os.ReadFile("zz_generated.go")
	require.NoError(t, err)
	assert.Equal(t, string(generated), buf.String(), "run go generate ./pkg/release")
}

func TestPublished(t *testing.T) {
	d := Descriptor()
	f, err := d.Formula()
	require.NoError(t, err)
	assert.Equal(t, d.Artifacts.MacOS.SHA256 != PlaceholderChecksum && d.Artifacts.Linux.SHA256 != PlaceholderChecksum, Published(f))

	d.Artifacts.MacOS.SHA256 = strings.Repeat("ab", 32)
	d.Artifacts.Linux.SHA256 = strings.Repeat("cd", 32)
	f, err = d.Formula()
	require.NoError(t, err)
	assert.True(t, Published(f))

	d.Artifacts.Linux.SHA256 = PlaceholderChecksum
	f, err = d.Formula()
	require.NoError(t, err)
	assert.False(t, Published(f), "one placeholder digest is enough")
}
