// Package hooks runs the optional scripts a formula declares around its install step.
package hooks

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PostInstall HookType = "post-install"
)

// HookContext contains information passed to hooks.
type HookContext struct {
	BinaryName string
	BinaryPath string
	Version    string
	Platform   string
	Vars       map[string]interface{}
}

// Executor runs a hook script of the given type.
type Executor interface {
	Execute(hookType HookType, ctx HookContext) error
	HasScript(hookType HookType) bool
}
