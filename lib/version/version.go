// Copyright 2026 The Discipline Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the release version. Release builds set it with -ldflags.
var Version = "0.1.0-dev"

// Build describes the source a binary was built from.
type Build struct {
	Revision string
	Modified bool
	Time     string
}

// readBuildInfo is replaced in tests.
var readBuildInfo = debug.ReadBuildInfo

// Current returns the VCS stamp the go command embedded in the binary.
// Fields are "unknown" when the binary was built without VCS
// information (go test, go run, -buildvcs=false).
func Current() Build {
	build := Build{Revision: "unknown", Time: "unknown"}
	info, ok := readBuildInfo()
	if !ok {
		return build
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			build.Revision = setting.Value
			if len(build.Revision) > 12 {
				build.Revision = build.Revision[:12]
			}
		case "vcs.modified":
			build.Modified = setting.Value == "true"
		case "vcs.time":
			build.Time = setting.Value
		}
	}
	return build
}

// Info returns a one-line version string for --version output.
func Info() string {
	build := Current()
	revision := build.Revision
	if build.Modified {
		revision += "-dirty"
	}
	return fmt.Sprintf("%s (%s, %s)", Version, revision, build.Time)
}

// Full adds the Go version and platform to Info.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Info(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
