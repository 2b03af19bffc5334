// Package config loads, validates and saves the formula configuration file.
// A missing file yields the defaults; values left empty in a file are filled
// from the defaults before validation.
package config

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glorpus-work/formula/internal/logger"
	"github.com/glorpus-work/formula/pkg/errors"
	"github.com/glorpus-work/formula/pkg/fsutil"
	"github.com/glorpus-work/formula/pkg/model"
	"github.com/glorpus-work/formula/pkg/platform"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Settings Settings `yaml:"settings"`
}

// PlatformConfig represents platform-specific configuration.
type PlatformConfig struct {
	// OS overrides the detected operating system (e.g. "linux", "darwin").
	// If empty, the host is detected.
	OS string `yaml:"os,omitempty"`
}

// Settings represents general application settings.
type Settings struct {
	BinDir   string `yaml:"bin_dir,omitempty"`
	CacheDir string `yaml:"cache_dir,omitempty"`

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	UserAgent   string        `yaml:"user_agent,omitempty"`
	// Token authenticates downloads; GITHUB_TOKEN is used when empty. It is
	// only sent to GitHub and to TokenHosts.
	Token      string   `yaml:"token,omitempty"`
	TokenHosts []string `yaml:"token_hosts,omitempty"`

	// Keyring is an OpenPGP public keyring used to check artifact signatures.
	Keyring string `yaml:"keyring,omitempty"`

	Platform            PlatformConfig          `yaml:"platform,omitempty"`
	UnsupportedPlatform model.UnsupportedPolicy `yaml:"unsupported_platform"`

	LogLevel  string `yaml:"log_level"`  // debug, info, warn, error
	LogFormat string `yaml:"log_format"` // text, json
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	configFileName = "config.yaml"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	binDir, err := fsutil.GetBinDir()
	if err != nil {
		binDir = filepath.Join(os.TempDir(), fsutil.AppName, "bin")
	}
	cacheDir, err := fsutil.GetCacheDir()
	if err != nil {
		cacheDir = filepath.Join(os.TempDir(), fsutil.AppName, "cache")
	}

	return &Config{
		Settings: Settings{
			BinDir:              binDir,
			CacheDir:            cacheDir,
			HTTPTimeout:         DefaultHTTPTimeout,
			UnsupportedPlatform: model.PolicyFallback,
			LogLevel:            "info",
			LogFormat:           string(logger.FormatText),
		},
	}
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Debug("config file not found, using defaults", logger.Fields{"path": absPath})
			return DefaultConfig(), nil
		}
		return nil, errors.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errors.Wrap(errors.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// SaveConfig writes the configuration to path, replacing any previous file atomically.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errors.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrap(errors.ErrInvalidConfigPath, err.Error())
	}

	data, err := c.ToYAML()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), fsutil.DirModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigDirectory, err.Error())
	}
	if err := fsutil.WriteFileAtomic(absPath, data, fsutil.FileModeDefault); err != nil {
		return errors.Wrap(errors.ErrConfigFileRename, err.Error())
	}
	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(YAMLIndent)
	if err := enc.Encode(c); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	if err := enc.Close(); err != nil {
		return nil, errors.Wrap(errors.ErrConfigEncode, err.Error())
	}
	return []byte(b.String()), nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errors.ErrConfigValidation
	}
	if err := validatePlatform(c.Settings.Platform); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validatePlatform(p PlatformConfig) error {
	if p.OS == "" {
		return nil
	}
	if !platform.ParseFamily(p.OS).Known() && platform.NormalizeOS(p.OS) != platform.OSWindows {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid OS %q, valid values: %v", p.OS, platform.ValidFamilies())
	}
	return nil
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errors.Wrap(errors.ErrConfigValidation, "http_timeout must not be negative")
	}
	if !s.UnsupportedPlatform.Valid() {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid unsupported_platform %q, valid values: %s, %s",
			s.UnsupportedPlatform, model.PolicyFallback, model.PolicyReject)
	}
	validFormats := map[string]bool{string(logger.FormatText): true, string(logger.FormatJSON): true}
	if !validFormats[s.LogFormat] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log_format %q", s.LogFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid log level %q", s.LogLevel)
	}
	return nil
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := fsutil.GetConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to get user config directory")
	}
	return filepath.Join(configDir, configFileName), nil
}

// Timeout returns the HTTP timeout, where zero means the default.
func (c *Config) Timeout() time.Duration {
	if c.Settings.HTTPTimeout == 0 {
		return DefaultHTTPTimeout
	}
	return c.Settings.HTTPTimeout
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Settings.BinDir == "" {
		c.Settings.BinDir = defaults.Settings.BinDir
	}
	if c.Settings.CacheDir == "" {
		c.Settings.CacheDir = defaults.Settings.CacheDir
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.UnsupportedPlatform == "" {
		c.Settings.UnsupportedPlatform = defaults.Settings.UnsupportedPlatform
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Settings.LogFormat == "" {
		c.Settings.LogFormat = defaults.Settings.LogFormat
	}
}
