package app

import (
	"fmt"
	"runtime"
)

// Set via ldflags, e.g.
// go build -ldflags "-X github.com/heartmarshall/dictionary-writing-system/internal/app.Version=1.0.0" ./cmd/dws
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// VersionInfo describes the running binary.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
}

// Info returns the build metadata of the binary.
func Info() VersionInfo {
	return VersionInfo{Version: Version, Commit: Commit, BuildTime: BuildTime, GoVersion: runtime.Version()}
}

// BuildVersion returns a one-line version string for startup logs.
func BuildVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)
}
