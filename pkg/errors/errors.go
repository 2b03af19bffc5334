// Package errors holds the error taxonomy of the formula installer together with
// small helpers for adding context while keeping errors.Is comparisons intact.
package errors

import (
	"errors"
	"fmt"
)

// Install pipeline errors. Every failure of an install is terminal and wraps exactly one of these.
var (
	// ErrFetch is returned when an artifact download does not complete.
	ErrFetch = fmt.Errorf("fetch failed")
	// ErrIntegrity is returned when downloaded content does not match its declared checksum or signature.
	ErrIntegrity = fmt.Errorf("integrity check failed")
	// ErrInstall is returned when the binary cannot be placed into the binary directory.
	ErrInstall = fmt.Errorf("install failed")
	// ErrUnsupportedPlatform is returned when the host platform family is neither macOS nor Linux
	// and the configuration asks to reject it.
	ErrUnsupportedPlatform = fmt.Errorf("unsupported platform")
)

// Formula errors.
var (
	ErrInvalidFormula  = fmt.Errorf("invalid formula")
	ErrInvalidVersion  = fmt.Errorf("invalid version")
	ErrInvalidChecksum = fmt.Errorf("invalid checksum")
	ErrInvalidTag      = fmt.Errorf("invalid release tag")
	ErrUnknownFormat   = fmt.Errorf("unknown output format")
)

// Config errors.
var (
	ErrEmptyConfigPath   = fmt.Errorf("config file path cannot be empty")
	ErrInvalidConfigPath = fmt.Errorf("invalid config file path")
	ErrConfigParse       = fmt.Errorf("failed to parse config")
	ErrConfigValidation  = fmt.Errorf("invalid configuration")
	ErrConfigEncode      = fmt.Errorf("failed to encode config")
	ErrConfigDirectory   = fmt.Errorf("failed to create config directory")
	ErrConfigFileCreate  = fmt.Errorf("failed to create config file")
	ErrConfigFileRename  = fmt.Errorf("failed to rename temporary config file")
	ErrConfigFileExists  = fmt.Errorf("config file already exists")
)

// Hook errors.
var (
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")
)

// ErrInvalidPath is returned for paths that must be absolute but are not.
var ErrInvalidPath = fmt.Errorf("invalid path")

// Wrap wraps an error with additional context.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// Stage marks err as belonging to one pipeline stage. The result matches both
// the stage sentinel and the original error with errors.Is.
func Stage(stage error, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, stage) {
		return err
	}
	return fmt.Errorf("%w: %w", stage, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool {
	return errors.As(err, target)
}
