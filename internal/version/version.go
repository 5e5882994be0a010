// Package version provides build metadata for the bindgen CLI.
//
// The variables are overridden at link time:
//
//	go build -ldflags "-X go.eggybyte.com/bindgen/internal/version.Version=v0.2.0"
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the CLI version.
var Version = "dev"

// Commit is the git commit hash.
var Commit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
var BuildTime = "unknown"

func init() {
	if Version != "dev" {
		return
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}
	if v := info.Main.Version; v != "" && v != "(devel)" {
		Version = v
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if Commit == "unknown" && len(s.Value) >= 7 {
				Commit = s.Value[:7]
			}
		case "vcs.time":
			if BuildTime == "unknown" {
				BuildTime = s.Value
			}
		}
	}
}

// String returns the one-line version string, e.g.
// bindgen version v0.2.0 (commit 4a9b2c1, built 2026-03-01T12:10:00Z)
func String() string {
	return fmt.Sprintf("bindgen version %s (commit %s, built %s)", Version, Commit, BuildTime)
}

// Full returns multi-line version information including the Go runtime.
func Full() string {
	return fmt.Sprintf("%s\ngo version %s (%s/%s)", String(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
