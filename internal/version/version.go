// Package version carries the build identity of the boardroom binary.
package version

import (
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

// Version is the released version, set at build time:
//
//	go build -ldflags "-X github.com/hrygo/boardroom/internal/version.Version=0.3.0"
var Version = "0.0.0-dev"

// DevVersion is reported in dev and demo modes.
var DevVersion = Version

// GitCommit is the commit hash at build time.
// Set via ldflags: -X github.com/hrygo/boardroom/internal/version.GitCommit=$(git rev-parse HEAD)
var GitCommit = "unknown"

// BuildTime is the build timestamp in RFC3339 format.
// Set via ldflags: -X github.com/hrygo/boardroom/internal/version.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)
var BuildTime = "unknown"

// GetCurrentVersion returns the version to report for a server mode.
func GetCurrentVersion(mode string) string {
	if mode == "dev" || mode == "demo" {
		return DevVersion
	}
	return Version
}

// Canonical returns v in canonical semver form with a leading "v", or ""
// when v is not a valid semantic version.
func Canonical(v string) string {
	v = strings.TrimSpace(v)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// String returns the version with a short commit suffix when known.
func String() string {
	v := Version
	if c := Canonical(v); c != "" {
		v = c
	}
	if commit := shortCommit(); commit != "" {
		v = fmt.Sprintf("%s-%s", v, commit)
	}
	return v
}

// StringFull returns the version with all build metadata.
func StringFull() string {
	parts := []string{"Version=" + Version}
	if commit := shortCommit(); commit != "" {
		parts = append(parts, "Commit="+commit)
	}
	if BuildTime != "" && BuildTime != "unknown" {
		parts = append(parts, "BuildTime="+BuildTime)
	}
	return strings.Join(parts, " ")
}

func shortCommit() string {
	if GitCommit == "" || GitCommit == "unknown" {
		return ""
	}
	if len(GitCommit) > 8 {
		return GitCommit[:8]
	}
	return GitCommit
}
