package platform

import (
	"context"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/host"
)

// Family is the OS category used to select a release artifact.
type Family string

const (
	// MacOS selects the default artifact.
	MacOS Family = "macos"
	// Linux selects the Linux artifact.
	Linux Family = "linux"
	// Unknown is a detection result for any other host. It never owns an artifact.
	Unknown Family = "unknown"
)

// String returns the family name.
func (f Family) String() string {
	return string(f)
}

// Known reports whether f is one of the families a release carries an artifact for.
func (f Family) Known() bool {
	return f == MacOS || f == Linux
}

// ParseFamily maps an OS name (GOOS, uname-style or user supplied) to a family.
// Names that are neither macOS nor Linux map to Unknown.
func ParseFamily(osName string) Family {
	switch NormalizeOS(osName) {
	case OSDarwin:
		return MacOS
	case OSLinux:
		return Linux
	default:
		return Unknown
	}
}

// NormalizeOS normalizes OS names to their GOOS spelling.
func NormalizeOS(os string) string {
	os = strings.ToLower(strings.TrimSpace(os))
	switch os {
	case "darwin", "macos", "mac", "osx", "macosx":
		return OSDarwin
	case "linux", "gnu/linux":
		return OSLinux
	case "win", "windows":
		return OSWindows
	default:
		return os
	}
}

// hostOS is swapped in tests.
var hostOS = func(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}
	return info.OS, nil
}

// Detect returns the family of the invoking host. It asks gopsutil first and
// falls back to runtime.GOOS when the host query fails or returns nothing.
func Detect(ctx context.Context) Family {
	osName, err := hostOS(ctx)
	if err != nil || osName == "" {
		osName = runtime.GOOS
	}
	return ParseFamily(osName)
}

// Select returns the override family when one is configured, otherwise the detected one.
func Select(ctx context.Context, override string) Family {
	if strings.TrimSpace(override) != "" {
		return ParseFamily(override)
	}
	return Detect(ctx)
}
