// Package platform returns the platform name. The system DNS applier
// uses this name to choose the right configuration mechanism.
package platform

import "runtime"

// Name returns the platform name. The returned value is one of:
//
// 1. "linux"
//
// 2. "macos"
//
// 3. "windows"
//
// 4. "unknown"
//
// Platforms where this tool cannot change the system DNS, including
// android and ios, are reported as "unknown".
func Name() string {
	return name(runtime.GOOS)
}

// name is a utility function for implementing Name.
func name(goos string) string {
	switch goos {
	case "linux", "windows":
		return goos
	case "darwin":
		return "macos"
	}
	return "unknown"
}
