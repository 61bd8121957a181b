// Package version provides build information for locones
package version

import (
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"time"
)

var (
	// These will be set at build time via -ldflags
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// BuildInfo contains detailed build information
type BuildInfo struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildTime string `json:"build_time"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	Arch      string `json:"arch"`
	Modified  bool   `json:"modified"`
}

// GetBuildInfo returns detailed build information
func GetBuildInfo() BuildInfo {
	buildInfo := BuildInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS,
		Arch:      runtime.GOARCH,
	}

	// Fall back to the VCS stamp the go tool embeds.
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			switch setting.Key {
			case "vcs.revision":
				if GitCommit == "unknown" {
					buildInfo.GitCommit = setting.Value
				}
			case "vcs.time":
				if BuildTime == "unknown" {
					buildInfo.BuildTime = setting.Value
				}
			case "vcs.modified":
				buildInfo.Modified = setting.Value == "true"
			}
		}
	}

	return buildInfo
}

func shortCommit(commit string) string {
	if len(commit) > 7 {
		return commit[:7]
	}
	return commit
}

// GetVersion returns a simple version string
func GetVersion() string {
	if Version == "dev" {
		buildInfo := GetBuildInfo()
		if buildInfo.GitCommit != "unknown" {
			return "dev-" + shortCommit(buildInfo.GitCommit)
		}
	}
	return Version
}

// String returns a one-line description of the build
func (b BuildInfo) String() string {
	s := fmt.Sprintf("locones version %s", b.Version)

	if b.GitCommit != "unknown" {
		s += fmt.Sprintf(" (commit %s", shortCommit(b.GitCommit))
		if b.Modified {
			s += ", modified"
		}
		s += ")"
	}

	if b.BuildTime != "unknown" {
		if parsedTime, err := time.Parse(time.RFC3339, b.BuildTime); err == nil {
			s += fmt.Sprintf(" built on %s", parsedTime.UTC().Format("2006-01-02 15:04:05"))
		} else {
			s += fmt.Sprintf(" built on %s", b.BuildTime)
		}
	}

	return s + fmt.Sprintf(" with %s for %s/%s", b.GoVersion, b.Platform, b.Arch)
}

// PrintBuildInfo writes formatted build information to w
func PrintBuildInfo(w io.Writer) {
	buildInfo := GetBuildInfo()

	fmt.Fprintf(w, "locones - NES CPU conformance emulator\n")
	fmt.Fprintf(w, "Version:     %s\n", buildInfo.Version)
	fmt.Fprintf(w, "Git Commit:  %s\n", buildInfo.GitCommit)
	fmt.Fprintf(w, "Build Time:  %s\n", buildInfo.BuildTime)
	fmt.Fprintf(w, "Go Version:  %s\n", buildInfo.GoVersion)
	fmt.Fprintf(w, "Platform:    %s/%s\n", buildInfo.Platform, buildInfo.Arch)
}
