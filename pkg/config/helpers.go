package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/glorpus-work/formula/pkg/model"
)

// Keys lists the settings reachable through GetValue and SetValue, in display order.
func Keys() []string {
	return []string{
		"bin_dir",
		"cache_dir",
		"http_timeout",
		"user_agent",
		"token",
		"token_hosts",
		"keyring",
		"platform.os",
		"unsupported_platform",
		"log_level",
		"log_format",
	}
}

// SetValue sets a configuration value by key. The result is validated, and on
// error the configuration is left unchanged.
func (c *Config) SetValue(key, value string) error {
	next := *c
	s := &next.Settings
	switch key {
	case "bin_dir":
		s.BinDir = value
	case "cache_dir":
		s.CacheDir = value
	case "http_timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration for %s: %s", key, value)
		}
		s.HTTPTimeout = d
	case "user_agent":
		s.UserAgent = value
	case "token":
		s.Token = value
	case "token_hosts":
		s.TokenHosts = splitList(value)
	case "keyring":
		s.Keyring = value
	case "platform.os":
		s.Platform.OS = value
	case "unsupported_platform":
		s.UnsupportedPlatform = model.UnsupportedPolicy(value)
	case "log_level":
		s.LogLevel = value
	case "log_format":
		s.LogFormat = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// GetValue returns the value of a configuration key as a string.
func (c *Config) GetValue(key string) (string, error) {
	s := c.Settings
	switch key {
	case "bin_dir":
		return s.BinDir, nil
	case "cache_dir":
		return s.CacheDir, nil
	case "http_timeout":
		return s.HTTPTimeout.String(), nil
	case "user_agent":
		return s.UserAgent, nil
	case "token":
		return s.Token, nil
	case "token_hosts":
		return strings.Join(s.TokenHosts, ","), nil
	case "keyring":
		return s.Keyring, nil
	case "platform.os":
		return s.Platform.OS, nil
	case "unsupported_platform":
		return string(s.UnsupportedPlatform), nil
	case "log_level":
		return s.LogLevel, nil
	case "log_format":
		return s.LogFormat, nil
	default:
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
}

// ToMap returns every setting keyed by its configuration key. A configured
// token is masked.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(Keys()))
	for _, key := range Keys() {
		v, _ := c.GetValue(key)
		if key == "token" && v != "" {
			v = "********"
		}
		result[key] = v
	}
	return result
}

// splitList parses a comma-separated value, dropping empty items.
func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
