// In file: cmd/assistant/version.go
package main

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Overridden at link time:
//
//	-ldflags "-X main.version=v1.2.0 -X main.gitCommit=abc1234 -X main.buildDate=2026-01-01"
var (
	version   = "dev"
	gitCommit = ""
	buildDate = ""
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string
	GitCommit string
	BuildDate string
	Modified  bool
	GoVersion string
	Platform  string
}

// GetBuildInfo prefers link-time values and falls back to the VCS stamp the
// go command embeds in module builds.
func GetBuildInfo() BuildInfo {
	info := BuildInfo{
		Version:   version,
		GitCommit: gitCommit,
		BuildDate: buildDate,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info = info.withVCS(bi.Settings)
	}
	return info
}

func (b BuildInfo) withVCS(settings []debug.BuildSetting) BuildInfo {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if b.GitCommit == "" {
				b.GitCommit = shortCommit(s.Value)
			}
		case "vcs.time":
			if b.BuildDate == "" {
				b.BuildDate = s.Value
			}
		case "vcs.modified":
			b.Modified = s.Value == "true"
		}
	}
	return b
}

func shortCommit(rev string) string {
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

func (b BuildInfo) String() string {
	commit := orUnknown(b.GitCommit)
	if b.Modified {
		commit += "-dirty"
	}
	return fmt.Sprintf("weather-assistant %s (commit %s, built %s, %s, %s)",
		b.Version, commit, orUnknown(b.BuildDate), b.GoVersion, b.Platform)
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
