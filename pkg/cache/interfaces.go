// Package cache inspects and cleans the download cache used by install and
// generate.
package cache

import (
	"fmt"
	"time"
)

// Cache subdirectories.
const (
	ArtifactsDir = "artifacts" // release archives and their signatures
	ChecksumsDir = "checksums" // ".sha256" files fetched by generate
)

// ErrCacheDirectory is returned when the cache directory is unusable.
var ErrCacheDirectory = fmt.Errorf("invalid cache directory")

// Manager defines the interface for cache management operations.
type Manager interface {
	Clean(options CleanOptions) (*CleanResult, error)
	GetInfo() (*Info, error)
	GetDirectory() string
}

// CleanOptions specifies what to clean from the cache. With no field set,
// everything is cleaned.
type CleanOptions struct {
	All       bool
	Artifacts bool
	Checksums bool
}

// CleanResult contains information about what was cleaned.
type CleanResult struct {
	TotalFreed     int64
	ArtifactFreed  int64
	ChecksumsFreed int64
}

// Info represents cache information.
type Info struct {
	Directory     string
	TotalSize     int64
	ArtifactSize  int64
	ArtifactFiles int
	ChecksumSize  int64
	ChecksumFiles int
	LastModified  time.Time
}
