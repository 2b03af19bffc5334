// Package formula reads, generates and renders formula descriptors. A
// descriptor is the declarative form of a model.Release plus the optional
// post-install script.
package formula

import (
	"bytes"
	"fmt"
	"os"

	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/model"
	"github.com/glorpus-work/formula/pkg/platform"
	"gopkg.in/yaml.v3"
)

// Descriptor is the on-disk YAML layout of a formula.
type Descriptor struct {
	Name        string      `yaml:"name,omitempty"`
	Desc        string      `yaml:"desc"`
	Homepage    string      `yaml:"homepage"`
	Version     string      `yaml:"version"`
	Binary      string      `yaml:"binary,omitempty"`
	Artifacts   ArtifactSet `yaml:"artifacts"`
	PostInstall string      `yaml:"post_install,omitempty"`
}

// ArtifactSet holds one artifact per platform family.
type ArtifactSet struct {
	MacOS ArtifactSpec `yaml:"macos"`
	Linux ArtifactSpec `yaml:"linux"`
}

// ArtifactSpec is the descriptor form of model.Artifact.
type ArtifactSpec struct {
	URL          string `yaml:"url"`
	SHA256       string `yaml:"sha256"`
	SignatureURL string `yaml:"signature_url,omitempty"`
}

// Formula is a validated descriptor.
type Formula struct {
	Release     *model.Release
	PostInstall string
}

// Parse decodes and validates a YAML descriptor. Unknown keys are rejected.
func Parse(data []byte) (*Formula, error) {
	var d Descriptor
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("%w: %w", errors.ErrInvalidFormula, err)
	}
	return d.Formula()
}

// Load reads and parses the descriptor at path.
func Load(path string) (*Formula, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read formula %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "formula %s", path)
	}
	return f, nil
}

// Formula validates d into an immutable release.
func (d Descriptor) Formula() (*Formula, error) {
	mac, err := d.Artifacts.MacOS.artifact()
	if err != nil {
		return nil, errors.Wrap(err, "artifacts.macos")
	}
	linux, err := d.Artifacts.Linux.artifact()
	if err != nil {
		return nil, errors.Wrap(err, "artifacts.linux")
	}

	meta := model.Metadata{Name: d.Name, Desc: d.Desc, Homepage: d.Homepage, Binary: d.Binary}
	release, err := model.NewRelease(meta, d.Version, mac, linux)
	if err != nil {
		return nil, err
	}
	return &Formula{Release: release, PostInstall: d.PostInstall}, nil
}

func (s ArtifactSpec) artifact() (model.Artifact, error) {
	if s.SignatureURL != "" {
		return model.NewSignedArtifact(s.URL, s.SHA256, s.SignatureURL)
	}
	return model.NewArtifact(s.URL, s.SHA256)
}

// Describe converts a release back into its descriptor form.
func Describe(release *model.Release, postInstall string) Descriptor {
	arts := release.Artifacts()
	spec := func(a model.Artifact) ArtifactSpec {
		return ArtifactSpec{URL: a.URL(), SHA256: a.Checksum(), SignatureURL: a.SignatureURL()}
	}
	binary := release.Binary()
	if binary == model.DefaultBinary {
		binary = ""
	}
	return Descriptor{
		Name:     release.Name(),
		Desc:     release.Desc(),
		Homepage: release.Homepage(),
		Version:  release.Version(),
		Binary:   binary,
		Artifacts: ArtifactSet{
			MacOS: spec(arts[platform.MacOS]),
			Linux: spec(arts[platform.Linux]),
		},
		PostInstall: postInstall,
	}
}
