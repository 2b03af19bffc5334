// Package archive finds the executable inside a downloaded release archive.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/mholt/archives"
)

// Manager handles archive extraction and creation operations.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// ExtractBinary returns the content of the regular file named binary from an
// archive (tar, tar.gz, zip, ...). A compressed single file is decompressed, and
// content that is not an archive at all is returned unchanged as the binary.
// filename is the artifact's download name and helps format detection.
func (am *Manager) ExtractBinary(ctx context.Context, filename string, data []byte, binary string) ([]byte, error) {
	format, _, err := archives.Identify(ctx, filename, bytes.NewReader(data))
	if errors.Is(err, archives.NoMatch) {
		return data, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to identify %s: %w", filename, err)
	}

	if ex, ok := format.(archives.Extractor); ok {
		return am.findEntry(ctx, ex, data, binary)
	}
	if dec, ok := format.(archives.Decompressor); ok {
		return decompress(dec, data)
	}
	return data, nil
}

func (am *Manager) findEntry(ctx context.Context, ex archives.Extractor, data []byte, binary string) ([]byte, error) {
	var found []byte
	handler := func(_ context.Context, f archives.FileInfo) error {
		if found != nil || !f.Mode().IsRegular() || path.Base(f.NameInArchive) != binary {
			return nil
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s in archive: %w", f.NameInArchive, err)
		}
		defer func() { _ = rc.Close() }()
		content, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("failed to read %s in archive: %w", f.NameInArchive, err)
		}
		found = content
		return nil
	}

	if err := ex.Extract(ctx, bytes.NewReader(data), handler); err != nil {
		return nil, fmt.Errorf("failed to extract archive: %w", err)
	}
	if found == nil {
		return nil, fmt.Errorf("archive does not contain %q: %w", binary, os.ErrNotExist)
	}
	return found, nil
}

func decompress(dec archives.Decompressor, data []byte) ([]byte, error) {
	rc, err := dec.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open compressed stream: %w", err)
	}
	defer func() { _ = rc.Close() }()
	out, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}
	return out, nil
}

// Create writes a tar.gz of sourceDir to archivePath, the layout release archives use.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string) error {
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}

	archiveFiles, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return fmt.Errorf("failed to read files from disk: %w", err)
	}

	file, err := os.Create(archivePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, file, archiveFiles); err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	return nil
}
