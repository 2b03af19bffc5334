package cache

import (
	"fmt"
	"strings"
	"time"
)

// Operation formats cache management results for the command line.
type Operation struct {
	manager Manager
}

// NewOperation creates a new cache operation instance.
func NewOperation(manager Manager) *Operation {
	return &Operation{manager: manager}
}

// Clean cleans the cache and returns a human-readable summary.
func (op *Operation) Clean(all, artifacts, checksums bool) (string, error) {
	result, err := op.manager.Clean(CleanOptions{All: all, Artifacts: artifacts, Checksums: checksums})
	if err != nil {
		return "", fmt.Errorf("failed to clean cache: %w", err)
	}

	if result.TotalFreed == 0 {
		return "No files were removed from the cache.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Cleaned cache. Freed %s of disk space.", FormatBytes(result.TotalFreed))
	if result.ArtifactFreed > 0 {
		fmt.Fprintf(&b, "\n- Artifacts: %s", FormatBytes(result.ArtifactFreed))
	}
	if result.ChecksumsFreed > 0 {
		fmt.Fprintf(&b, "\n- Checksums: %s", FormatBytes(result.ChecksumsFreed))
	}
	return b.String(), nil
}

// GetInfo returns a human-readable description of the cache.
func (op *Operation) GetInfo() (string, error) {
	info, err := op.manager.GetInfo()
	if err != nil {
		return "", fmt.Errorf("failed to get cache info: %w", err)
	}

	lastModified := "never"
	if !info.LastModified.IsZero() {
		lastModified = info.LastModified.Format(time.RFC1123)
	}

	return fmt.Sprintf(`Cache Information:
  Directory:     %s
  Total Size:    %s
  Artifacts:     %s (%d files)
  Checksums:     %s (%d files)
  Last Modified: %s`,
		info.Directory,
		FormatBytes(info.TotalSize),
		FormatBytes(info.ArtifactSize),
		info.ArtifactFiles,
		FormatBytes(info.ChecksumSize),
		info.ChecksumFiles,
		lastModified,
	), nil
}

// GetDirectory returns the cache directory path.
func (op *Operation) GetDirectory() string {
	return op.manager.GetDirectory()
}

// FormatBytes converts bytes to a human-readable string.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T", "P", "E"}
	return fmt.Sprintf("%.1f %siB", float64(bytes)/float64(div), units[exp])
}
