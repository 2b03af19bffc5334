package model

import (
	"strings"

	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/platform"
	"github.com/hashicorp/go-version"
)

// DefaultBinary is the executable a formula installs when none is named.
const DefaultBinary = "pacaptr"

// UnsupportedPolicy decides what Resolve does for hosts that are neither macOS nor Linux.
type UnsupportedPolicy string

const (
	// PolicyFallback resolves unknown hosts to the macOS artifact, as the formula's default branch does.
	PolicyFallback UnsupportedPolicy = "fallback"
	// PolicyReject refuses unknown hosts with ErrUnsupportedPlatform.
	PolicyReject UnsupportedPolicy = "reject"
)

// Valid reports whether p is a known policy.
func (p UnsupportedPolicy) Valid() bool {
	return p == PolicyFallback || p == PolicyReject
}

// Metadata holds the descriptive fields of a formula.
type Metadata struct {
	Name     string
	Desc     string
	Homepage string
	Binary   string
}

// Release is the immutable record of one published version.
// It is only built through NewRelease and offers no setters.
type Release struct {
	meta    Metadata
	version *version.Version
	raw     string
	mac     Artifact
	linux   Artifact
}

// NewRelease validates the version and both artifacts. A leading "v" on the
// version is accepted and dropped.
func NewRelease(meta Metadata, ver string, mac, linux Artifact) (*Release, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(ver), "v")
	v, err := version.NewSemver(raw)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidVersion, "%q: %v", ver, err)
	}
	if mac.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidFormula, "macos artifact is missing")
	}
	if linux.IsZero() {
		return nil, errors.Wrap(errors.ErrInvalidFormula, "linux artifact is missing")
	}
	if meta.Binary == "" {
		meta.Binary = DefaultBinary
	}
	if strings.ContainsAny(meta.Binary, `/\`) {
		return nil, errors.Wrapf(errors.ErrInvalidFormula, "binary name %q must not contain a path separator", meta.Binary)
	}
	if meta.Binary == "." || meta.Binary == ".." {
		return nil, errors.Wrapf(errors.ErrInvalidFormula, "binary name %q is not a file name", meta.Binary)
	}
	if meta.Name == "" {
		meta.Name = meta.Binary
	}
	return &Release{meta: meta, version: v, raw: raw, mac: mac, linux: linux}, nil
}

// Resolve selects the artifact for a platform family. The macOS artifact is the
// default; Linux replaces it as a whole. Families other than these two follow policy.
func (r *Release) Resolve(family platform.Family, policy UnsupportedPolicy) (Artifact, error) {
	switch family {
	case platform.Linux:
		return r.linux, nil
	case platform.MacOS:
		return r.mac, nil
	}
	if policy == PolicyReject {
		return Artifact{}, errors.Wrapf(errors.ErrUnsupportedPlatform, "%s has no artifact for %q", r.meta.Name, family)
	}
	return r.mac, nil
}

// Artifacts returns the artifact of every known family, macOS first.
func (r *Release) Artifacts() map[platform.Family]Artifact {
	return map[platform.Family]Artifact{
		platform.MacOS: r.mac,
		platform.Linux: r.linux,
	}
}

// Version returns the version string without a "v" prefix.
func (r *Release) Version() string { return r.raw }

// SemVer returns the parsed version.
func (r *Release) SemVer() *version.Version { return r.version }

// Tag returns the git tag the release was published under.
func (r *Release) Tag() string { return "v" + r.raw }

// Name returns the formula name.
func (r *Release) Name() string { return r.meta.Name }

// Desc returns the one-line description.
func (r *Release) Desc() string { return r.meta.Desc }

// Homepage returns the project home page.
func (r *Release) Homepage() string { return r.meta.Homepage }

// Binary returns the name of the installed executable.
func (r *Release) Binary() string { return r.meta.Binary }

// Metadata returns a copy of the descriptive fields.
func (r *Release) Metadata() Metadata { return r.meta }
