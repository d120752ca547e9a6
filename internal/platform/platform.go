// Package platform maps the Go runtime OS to the platform keys used for
// engine search paths and install instructions.
package platform

import "runtime"

// Platform keys.
const (
	Darwin  = "darwin"
	Linux   = "linux"
	Windows = "windows"
)

// goos is swapped in tests.
var goos = runtime.GOOS

// Current returns the platform key for the running OS.
// Unknown Unix-like systems fall back to Linux.
func Current() string {
	switch goos {
	case Darwin, Windows:
		return goos
	default:
		return Linux
	}
}

// Name returns a human-readable platform name.
func Name() string {
	switch goos {
	case Darwin:
		return "macOS"
	case Linux:
		return "Linux"
	case Windows:
		return "Windows"
	default:
		return goos
	}
}

// IsWindows reports whether the running OS is Windows.
func IsWindows() bool {
	return goos == Windows
}
