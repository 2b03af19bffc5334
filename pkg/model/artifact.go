// Package model provides the immutable release records a formula describes and
// the pure function that picks the artifact for a platform family.
package model

import (
	"encoding/hex"
	"net/url"
	"strings"

	"github.com/glorpus-work/formula/pkg/errors"
)

// ChecksumAlgorithm is the digest every artifact checksum is produced with.
const ChecksumAlgorithm = "sha256"

// checksumLen is the hex length of a SHA-256 digest.
const checksumLen = 64

// Artifact is a downloadable binary release file plus its integrity checksum.
type Artifact struct {
	url          string
	checksum     string
	signatureURL string
}

// NewArtifact validates and builds an Artifact. The checksum is stored lower-cased.
func NewArtifact(rawURL, checksum string) (Artifact, error) {
	return NewSignedArtifact(rawURL, checksum, "")
}

// NewSignedArtifact builds an Artifact that also points at a detached signature.
func NewSignedArtifact(rawURL, checksum, signatureURL string) (Artifact, error) {
	if err := validateURL(rawURL); err != nil {
		return Artifact{}, err
	}
	if signatureURL != "" {
		if err := validateURL(signatureURL); err != nil {
			return Artifact{}, errors.Wrap(err, "signature url")
		}
	}
	sum, err := NormalizeChecksum(checksum)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{url: rawURL, checksum: sum, signatureURL: signatureURL}, nil
}

// URL returns the download location.
func (a Artifact) URL() string { return a.url }

// Checksum returns the lower-case hex SHA-256 digest.
func (a Artifact) Checksum() string { return a.checksum }

// SignatureURL returns the detached signature location, or "" when unsigned.
func (a Artifact) SignatureURL() string { return a.signatureURL }

// Signed reports whether the artifact declares a detached signature.
func (a Artifact) Signed() bool { return a.signatureURL != "" }

// ParsedURL returns the parsed download location.
func (a Artifact) ParsedURL() *url.URL {
	u, err := url.Parse(a.url)
	if err != nil {
		return nil
	}
	return u
}

// IsZero reports whether the artifact was never constructed.
func (a Artifact) IsZero() bool {
	return a == Artifact{}
}

// Filename returns the last path element of the download location.
func (a Artifact) Filename() string {
	u := a.ParsedURL()
	if u == nil {
		return ""
	}
	p := strings.TrimRight(u.Path, "/")
	if i := strings.LastIndex(p, "/"); i >= 0 {
		return p[i+1:]
	}
	return p
}

// MatchesChecksum compares a computed digest with the declared one, ignoring case.
func (a Artifact) MatchesChecksum(got string) bool {
	return strings.EqualFold(strings.TrimSpace(got), a.checksum)
}

// NormalizeChecksum trims and lower-cases a hex SHA-256 digest and checks its shape.
func NormalizeChecksum(sum string) (string, error) {
	sum = strings.ToLower(strings.TrimSpace(sum))
	if len(sum) != checksumLen {
		return "", errors.Wrapf(errors.ErrInvalidChecksum, "expected %d hex characters, got %d", checksumLen, len(sum))
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return "", errors.Wrapf(errors.ErrInvalidChecksum, "%q is not hex", sum)
	}
	return sum, nil
}

func validateURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.Wrap(errors.ErrInvalidFormula, "artifact url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidFormula, "artifact url %q: %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Wrapf(errors.ErrInvalidFormula, "artifact url %q has unsupported scheme %q", raw, u.Scheme)
	}
	return nil
}
