package chipmeta

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the semantic version of the chipmeta library.
const Version = "0.1.0"

// GetVersion returns the current version string.
func GetVersion() string {
	return Version
}

// VersionInfo describes the build of the running binary.
type VersionInfo struct {
	Version   string
	GitCommit string // "unknown" when neither ldflags nor VCS stamping set it
	BuildTime string
	GoVersion string
	Modified  bool // built from a dirty tree
}

// String formats the info on one line, e.g.
// "chipmeta 0.1.0 (3f2a1c9, 2026-10-01T12:00:00Z, go1.26.0)".
func (v VersionInfo) String() string {
	commit := v.GitCommit
	if len(commit) > 7 {
		commit = commit[:7]
	}
	if v.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("chipmeta %s (%s, %s, %s)", v.Version, commit, v.BuildTime, v.GoVersion)
}

// GetVersionInfo returns detailed version information.
//
// GitCommit and BuildTime come from -ldflags when set:
//
//	go build -ldflags="-X github.com/simonhull/chipmeta.gitCommit=$(git rev-parse HEAD) \
//	  -X github.com/simonhull/chipmeta.buildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
//
// and otherwise from the VCS stamp the go command embeds in binaries.
func GetVersionInfo() VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: gitCommit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "unknown" {
				info.GitCommit = s.Value
			}
		case "vcs.time":
			if info.BuildTime == "unknown" {
				info.BuildTime = s.Value
			}
		case "vcs.modified":
			info.Modified = s.Value == "true"
		}
	}
	return info
}

// Variables populated at build time via -ldflags.
var (
	gitCommit = "unknown"
	buildTime = "unknown"
)
