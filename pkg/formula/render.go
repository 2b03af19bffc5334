package formula

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/model"
	"github.com/glorpus-work/formula/pkg/platform"
	"gopkg.in/yaml.v3"
)

// Format selects the output of Render.
type Format string

// Supported output formats.
const (
	FormatBrew Format = "brew"
	FormatYAML Format = "yaml"
	FormatGo   Format = "go"
)

// Formats lists every supported output format.
func Formats() []Format {
	return []Format{FormatBrew, FormatYAML, FormatGo}
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q (expected one of %v)", errors.ErrUnknownFormat, s, Formats())
}

var templateFuncs = template.FuncMap{
	"ruby":      rubyString,
	"goquote":   strconv.Quote,
	"className": className,
}

var brewTemplate = template.Must(template.New("brew").Funcs(templateFuncs).Parse(
	`class {{ className .Name }} < Formula
    desc {{ ruby .Desc }}
    homepage {{ ruby .Homepage }}
    version {{ ruby .Version }}
    url {{ ruby .MacOS.URL }}
    sha256 {{ ruby .MacOS.Checksum }}

    if OS.linux?
      url {{ ruby .Linux.URL }}
      sha256 {{ ruby .Linux.Checksum }}
    end

    def install
      bin.install {{ ruby .Binary }}
    end
end
`))

var goTemplate = template.Must(template.New("go").Funcs(templateFuncs).Parse(
	`// Code generated by formula render; DO NOT EDIT.

package {{ .Package }}

import "github.com/glorpus-work/formula/pkg/formula"

var descriptor = formula.Descriptor{
	Name: {{ goquote .D.Name }},
	Desc: {{ goquote .D.Desc }},
	Homepage: {{ goquote .D.Homepage }},
	Version: {{ goquote .D.Version }},
	{{- with .D.Binary }}
	Binary: {{ goquote . }},
	{{- end }}
	Artifacts: formula.ArtifactSet{
		MacOS: formula.ArtifactSpec{
			URL: {{ goquote .D.Artifacts.MacOS.URL }},
			SHA256: {{ goquote .D.Artifacts.MacOS.SHA256 }},
			{{- with .D.Artifacts.MacOS.SignatureURL }}
			SignatureURL: {{ goquote . }},
			{{- end }}
		},
		Linux: formula.ArtifactSpec{
			URL: {{ goquote .D.Artifacts.Linux.URL }},
			SHA256: {{ goquote .D.Artifacts.Linux.SHA256 }},
			{{- with .D.Artifacts.Linux.SignatureURL }}
			SignatureURL: {{ goquote . }},
			{{- end }}
		},
	},
	{{- with .D.PostInstall }}
	PostInstall: {{ goquote . }},
	{{- end }}
}
`))

type brewData struct {
	Name, Desc, Homepage, Version, Binary string
	MacOS, Linux                          model.Artifact
}

// GoPackage is the package name used by the Go output.
const GoPackage = "release"

// Render writes f in the given format.
func Render(w io.Writer, f *Formula, fmtName Format) error {
	switch fmtName {
	case FormatBrew:
		return renderBrew(w, f.Release)
	case FormatYAML:
		return renderYAML(w, f)
	case FormatGo:
		return renderGo(w, f)
	default:
		return fmt.Errorf("%w: %q", errors.ErrUnknownFormat, fmtName)
	}
}

func renderBrew(w io.Writer, r *model.Release) error {
	arts := r.Artifacts()
	data := brewData{
		Name:     r.Name(),
		Desc:     r.Desc(),
		Homepage: r.Homepage(),
		Version:  r.Version(),
		Binary:   r.Binary(),
		MacOS:    arts[platform.MacOS],
		Linux:    arts[platform.Linux],
	}
	return brewTemplate.Execute(w, data)
}

func renderYAML(w io.Writer, f *Formula) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(Describe(f.Release, f.PostInstall)); err != nil {
		return errors.Wrap(err, "failed to encode formula")
	}
	return enc.Close()
}

func renderGo(w io.Writer, f *Formula) error {
	var buf bytes.Buffer
	data := struct {
		Package string
		D       Descriptor
	}{Package: GoPackage, D: Describe(f.Release, f.PostInstall)}
	if err := goTemplate.Execute(&buf, data); err != nil {
		return err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return errors.Wrap(err, "failed to format generated source")
	}
	_, err = w.Write(src)
	return err
}

// rubyString quotes s as a Ruby double-quoted literal without interpolation.
func rubyString(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"', '\\', '#':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

// className turns a formula name such as "pacaptr" or "foo-bar" into the
// Ruby class name Homebrew expects ("Pacaptr", "FooBar").
func className(name string) string {
	var b strings.Builder
	upper := true
	for _, r := range name {
		if r == '-' || r == '_' || r == '.' {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	return b.String()
}
