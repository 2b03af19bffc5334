// Package platform identifies the operating-system family a binary is installed for.
package platform

// Operating system names as reported by runtime.GOOS and gopsutil.
const (
	// OSLinux represents the Linux operating system.
	OSLinux = "linux"
	// OSDarwin represents the macOS operating system.
	OSDarwin = "darwin"
	// OSWindows represents the Windows operating system.
	OSWindows = "windows"
)

// ValidFamilies returns the families a release carries an artifact for.
func ValidFamilies() []Family {
	return []Family{MacOS, Linux}
}
