package version

import (
	"fmt"
	"runtime/debug"
)

// Build-time variables set by ldflags:
//
//	go build -ldflags "-X github.com/MeKo-Tech/lapwatch/internal/version.Version=v1.0.0"
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version, commit and build date. Values not set by ldflags
// fall back to the VCS stamp embedded by the Go toolchain.
func Info() (string, string, string) {
	commit, date := GitCommit, BuildDate
	if info, ok := debug.ReadBuildInfo(); ok {
		commit, date = fromBuildSettings(info.Settings, commit, date)
	}
	return Version, commit, date
}

func fromBuildSettings(settings []debug.BuildSetting, commit, date string) (string, string) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			if commit == "unknown" && s.Value != "" {
				commit = s.Value
			}
		case "vcs.time":
			if date == "unknown" && s.Value != "" {
				date = s.Value
			}
		}
	}
	return commit, date
}

// String renders the version line printed by the CLI.
func String() string {
	v, commit, date := Info()
	return fmt.Sprintf("%s (commit %s, built %s)", v, commit, date)
}
