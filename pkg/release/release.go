// Package release holds the fully resolved release record compiled into the
// binary. zz_generated.go is produced from dist/pacaptr.yaml at release time.
package release

//go:generate go run ../../cli/formula render --formula ../../dist/pacaptr.yaml --format go -o zz_generated.go

import (
	"strings"

	"github.com/glorpus-work/formula/pkg/formula"
)

// PlaceholderChecksum marks an artifact whose digest was never fetched from
// the published ".sha256" file.
var PlaceholderChecksum = strings.Repeat("0", 64)

// Current returns the release this build installs by default.
func Current() (*formula.Formula, error) {
	return descriptor.Formula()
}

// Descriptor returns the generated descriptor.
func Descriptor() formula.Descriptor {
	return descriptor
}

// Published reports whether every artifact of f carries a real digest.
func Published(f *formula.Formula) bool {
	for _, a := range f.Release.Artifacts() {
		if a.Checksum() == PlaceholderChecksum {
			return false
		}
	}
	return true
}
