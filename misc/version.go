// Package misc keeps build time information.
package misc

import (
	"runtime/debug"
)

// Set with -ldflags "-X slate/misc.version=... -X slate/misc.buildHash=...".
var (
	appName   = "slate"
	version   = "dev"
	buildHash = ""
)

// GetAppName returns program name used for logs, reports and help.
func GetAppName() string {
	return appName
}

// GetVersion returns program version.
func GetVersion() string {
	return version
}

// GetGitHash returns revision program was built from. When not set at link
// time it is taken from embedded VCS information if any.
func GetGitHash() string {
	if len(buildHash) > 0 {
		return buildHash
	}
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
}
