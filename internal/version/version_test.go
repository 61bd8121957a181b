package version

import (
	"bytes"
	"runtime"
	"strings"
	"testing"
)

func TestBuildInfoString(t *testing.T) {
	tests := []struct {
		name string
		info BuildInfo
		want string
	}{
		{
			name: "bare",
			info: BuildInfo{Version: "1.0.0", GitCommit: "unknown", BuildTime: "unknown", GoVersion: "go1.23.4", Platform: "linux", Arch: "amd64"},
			want: "locones version 1.0.0 with go1.23.4 for linux/amd64",
		},
		{
			name: "commit and time",
			info: BuildInfo{Version: "dev", GitCommit: "0123456789abcdef", BuildTime: "2024-03-01T10:20:30Z", GoVersion: "go1.23.4", Platform: "darwin", Arch: "arm64", Modified: true},
			want: "locones version dev (commit 0123456, modified) built on 2024-03-01 10:20:30 with go1.23.4 for darwin/arm64",
		},
		{
			name: "unparsed time",
			info: BuildInfo{Version: "v2", GitCommit: "abc", BuildTime: "yesterday", GoVersion: "go1.23.4", Platform: "linux", Arch: "arm"},
			want: "locones version v2 (commit abc) built on yesterday with go1.23.4 for linux/arm",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.info.String(); got != test.want {
				t.Errorf("String() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	saved := Version
	defer func() { Version = saved }()

	Version = "1.2.3"
	if got := GetVersion(); got != "1.2.3" {
		t.Errorf("GetVersion() = %q", got)
	}
	Version = "dev"
	if got := GetVersion(); !strings.HasPrefix(got, "dev") {
		t.Errorf("GetVersion() = %q, want dev prefix", got)
	}
}

func TestPrintBuildInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintBuildInfo(&buf)
	if !strings.Contains(buf.String(), "Go Version:  "+runtime.Version()) {
		t.Errorf("Unexpected output:\n%s", buf.String())
	}
}
