// Package version reports the build identity of the cardinal binary.
package version

import (
	"fmt"
	"runtime/debug"
)

// Overridden at link time with -ldflags "-X".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

const (
	devVersion     = "dev"
	unknownCommit  = "none"
	vcsRevisionKey = "vcs.revision"
	vcsTimeKey     = "vcs.time"
	shortCommitLen = 12
)

// InitBinaryVersion fills in values that were not set by the linker from
// the module build info, so `go install` builds still report something useful.
func InitBinaryVersion() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	apply(info)
}

func apply(info *debug.BuildInfo) {
	if Version == devVersion && info.Main.Version != "" && info.Main.Version != "(devel)" {
		Version = info.Main.Version
	}

	for _, setting := range info.Settings {
		switch setting.Key {
		case vcsRevisionKey:
			if Commit == unknownCommit {
				Commit = setting.Value[:min(len(setting.Value), shortCommitLen)]
			}
		case vcsTimeKey:
			if Date == "unknown" {
				Date = setting.Value
			}
		}
	}
}

// String formats the version line printed by `cardinal version`.
func String() string {
	return fmt.Sprintf("cardinal %s (commit: %s, built: %s)", Version, Commit, Date)
}
