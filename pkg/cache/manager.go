package cache

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/glorpus-work/formula/internal/logger"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/fsutil"
)

// DefaultManager implements Manager on a directory tree.
type DefaultManager struct {
	directory string
}

// NewManager creates a cache manager rooted at directory.
func NewManager(directory string) *DefaultManager {
	return &DefaultManager{directory: directory}
}

// Clean removes cached files according to options.
func (cm *DefaultManager) Clean(options CleanOptions) (*CleanResult, error) {
	if cm.directory == "" {
		return nil, ErrCacheDirectory
	}
	if !options.Artifacts && !options.Checksums {
		options.All = true
	}

	result := &CleanResult{}
	if options.All || options.Artifacts {
		size, err := cleanDirectory(filepath.Join(cm.directory, ArtifactsDir))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to clean artifact cache")
		}
		result.ArtifactFreed = size
		result.TotalFreed += size
	}
	if options.All || options.Checksums {
		size, err := cleanDirectory(filepath.Join(cm.directory, ChecksumsDir))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to clean checksum cache")
		}
		result.ChecksumsFreed = size
		result.TotalFreed += size
	}

	logger.Debug("cache cleaned", logger.Fields{"dir": cm.directory, "freed": result.TotalFreed})
	return result, nil
}

// GetInfo returns the size and file count of every cache subdirectory.
func (cm *DefaultManager) GetInfo() (*Info, error) {
	if cm.directory == "" {
		return nil, ErrCacheDirectory
	}
	info := &Info{Directory: cm.directory}

	art, err := scanDir(filepath.Join(cm.directory, ArtifactsDir))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get artifact cache info")
	}
	sums, err := scanDir(filepath.Join(cm.directory, ChecksumsDir))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get checksum cache info")
	}

	info.ArtifactSize, info.ArtifactFiles = art.size, art.count
	info.ChecksumSize, info.ChecksumFiles = sums.size, sums.count
	info.TotalSize = art.size + sums.size
	info.LastModified = art.modified
	if sums.modified.After(info.LastModified) {
		info.LastModified = sums.modified
	}
	return info, nil
}

// GetDirectory returns the cache directory path.
func (cm *DefaultManager) GetDirectory() string {
	return cm.directory
}

// cleanDirectory removes dir, recreates it empty and returns the bytes freed.
func cleanDirectory(dir string) (int64, error) {
	stats, err := scanDir(dir)
	if err != nil {
		return 0, err
	}
	if stats.count == 0 {
		return 0, nil
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, errors.Wrapf(err, "failed to remove directory %s", dir)
	}
	if err := os.MkdirAll(dir, fsutil.DirModeSecure); err != nil {
		return stats.size, errors.Wrapf(err, "failed to recreate directory %s", dir)
	}
	return stats.size, nil
}

type dirStats struct {
	size     int64
	count    int
	modified time.Time
}

// scanDir sums the regular files below dir. A missing dir is empty.
func scanDir(dir string) (dirStats, error) {
	var s dirStats
	err := filepath.WalkDir(dir, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		fi, err := d.Info()
		if err != nil {
			return err
		}
		s.size += fi.Size()
		s.count++
		if fi.ModTime().After(s.modified) {
			s.modified = fi.ModTime()
		}
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return dirStats{}, nil
	}
	if err != nil {
		return dirStats{}, errors.Wrapf(err, "error walking directory %s", dir)
	}
	return s, nil
}
