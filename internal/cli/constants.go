package cli

// Default values for CLI flags and output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// refEnv names the environment variable holding the git ref of a CI release build.
	refEnv = "GITHUB_REF"
)
