package version

import "runtime/debug"

// Apply exposes apply for testing.
func Apply(info *debug.BuildInfo) {
	apply(info)
}
