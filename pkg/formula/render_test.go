package formula

import (
	"bytes"
	"go/parser"
	"go/token"
	"testing"

	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedBrew = `class Pacaptr < Formula
    desc "Pacman syntax wrapper for many package managers"
    homepage "https://github.com/rami3l/pacaptr"
    version "0.9.0"
    url "https://example.com/pacaptr-mac.tar.gz"
    sha256 "abc1230000000000000000000000000000000000000000000000000000000000"

    if OS.linux?
      url "https://example.com/pacaptr-linux.tar.gz"
      sha256 "def4560000000000000000000000000000000000000000000000000000000000"
    end

    def install
      bin.install "pacaptr"
    end
end
`

func TestRender_Brew(t *testing.T) {
	f, err := Parse([]byte(descriptorYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f, FormatBrew))
	assert.Equal(t, expectedBrew, buf.String())
}

func TestRender_YAMLRoundTrip(t *testing.T) {
	f, err := Parse([]byte(descriptorYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f, FormatYAML))
	assert.Contains(t, buf.String(), "signature_url: https://example.com/pacaptr-linux.tar.gz.asc")

	again, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, f.Release.Artifacts(), again.Release.Artifacts())
	assert.Equal(t, f.PostInstall, again.PostInstall)
}

func TestRender_Go(t *testing.T) {
	f, err := Parse([]byte(descriptorYAML))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, f, FormatGo))

	file, err := parser.ParseFile(token.NewFileSet(), "zz_generated.go", buf.Bytes(), parser.ParseComments)
	require.NoError(t, err)
	assert.Equal(t, GoPackage, file.Name.Name)

	src := buf.String()
	assert.Contains(t, src, "// Code generated by formula render; DO NOT EDIT.")
	assert.Contains(t, src, `SignatureURL: "https://example.com/pacaptr-linux.tar.gz.asc"`)
	assert.NotContains(t, src, "Binary:")
	assert.Contains(t, src, "PostInstall:")
}

func TestRenderEscapesRubyStrings(t *testing.T) {
	assert.Equal(t, `"say \"hi\" \#{x} \\ done\n"`, rubyString("say \"hi\" #{x} \\ done\n"))
}

func TestClassName(t *testing.T) {
	tests := map[string]string{
		"pacaptr":      "Pacaptr",
		"foo-bar":      "FooBar",
		"my_tool.next": "MyToolNext",
	}
	for in, want := range tests {
		assert.Equal(t, want, className(in), in)
	}
}

func TestParseFormat(t *testing.T) {
	for _, f := range Formats() {
		got, err := ParseFormat(string(f))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	got, err := ParseFormat("BREW")
	require.NoError(t, err)
	assert.Equal(t, FormatBrew, got)

	_, err = ParseFormat("toml")
	assert.ErrorIs(t, err, errors.ErrUnknownFormat)
	assert.ErrorIs(t, Render(&bytes.Buffer{}, nil, Format("toml")), errors.ErrUnknownFormat)
}
