package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"slices"

	"github.com/glorpus-work/formula/internal/logger"
	"github.com/glorpus-work/formula/pkg/auth"
	"github.com/glorpus-work/formula/pkg/config"
	"github.com/glorpus-work/formula/pkg/download"
	"github.com/glorpus-work/formula/pkg/formula"
	"github.com/glorpus-work/formula/pkg/fsutil"
	"github.com/glorpus-work/formula/pkg/platform"
	"github.com/glorpus-work/formula/pkg/release"
)

// These variables will be set by the main package
var (
	ConfigPath *string
	Verbose    *bool
	LogLevel   *string
)

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(getConfigPath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// InitLogging configures the logger from the configuration file and the
// global flags. --log-level wins over --verbose, which wins over the file.
func InitLogging() {
	level, format := "info", logger.FormatText
	if cfg, err := config.LoadConfig(getConfigPath()); err == nil {
		level, format = cfg.Settings.LogLevel, logger.OutputFormat(cfg.Settings.LogFormat)
	}
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	if LogLevel != nil && *LogLevel != "" {
		level = *LogLevel
	}
	logger.InitLogger(level, format)
}

// loadFormula reads the descriptor at path, or returns the release compiled
// into the binary when path is empty.
func loadFormula(path string) (*formula.Formula, error) {
	if path == "" {
		f, err := release.Current()
		if err != nil {
			return nil, fmt.Errorf("built-in release is invalid: %w", err)
		}
		if !release.Published(f) {
			logger.Warn("built-in release carries placeholder checksums", logger.Fields{"version": f.Release.Version()})
		}
		return f, nil
	}
	return formula.Load(path)
}

func selectPlatform(ctx context.Context, cfg *config.Config, override string) platform.Family {
	if override == "" {
		override = cfg.Settings.Platform.OS
	}
	family := platform.Select(ctx, override)
	logger.Debug("platform selected", logger.Fields{"family": family.String(), "override": override})
	return family
}

// newDownloadManager builds the downloader. The token only reaches GitHub, the
// configured token_hosts and extraHosts, which must come from the operator and
// never from a formula file.
func newDownloadManager(cfg *config.Config, extraHosts ...string) *download.ManagerImpl {
	dl := download.NewManager(cfg.Timeout(), cfg.Settings.UserAgent)
	hosts := append(slices.Clone(cfg.Settings.TokenHosts), extraHosts...)
	if a := auth.FromToken(cfg.Settings.Token, hosts...); a != nil {
		logger.Debug("authenticating downloads", logger.Fields{"type": string(a.Type())})
		dl.WithAuth(a)
	}
	return dl
}

// hostOf returns the host of rawURL, or "" when it has none.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// cacheDir returns the absolute cache directory, optionally with a subdirectory.
func cacheDir(cfg *config.Config, sub ...string) (string, error) {
	dir, err := filepath.Abs(filepath.Join(append([]string{cfg.Settings.CacheDir}, sub...)...))
	if err != nil {
		return "", fmt.Errorf("invalid cache directory %q: %w", cfg.Settings.CacheDir, err)
	}
	return dir, nil
}

// writeOutput renders to w, or atomically to path when one is given.
func writeOutput(w io.Writer, path string, render func(io.Writer) error) error {
	if path == "" || path == "-" {
		return render(w)
	}
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(path, buf.Bytes(), fsutil.FileModeDefault); err != nil {
		return err
	}
	logger.Success("Wrote output", logger.Fields{"path": path})
	return nil
}
