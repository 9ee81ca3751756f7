// Package version holds the build metadata of the javachain binary.
package version

import "runtime"

// Set at build time:
// go build -ldflags "-X javachain/internal/version.Version=0.4.0 -X javachain/internal/version.Commit=$(git rev-parse HEAD)"
var (
	Version   = "0.3.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Build is the machine-readable form printed by `javachain version --format json`.
type Build struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"buildDate"`
	GoVersion string `json:"goVersion"`
}

// Current returns the metadata of the running binary.
func Current() Build {
	return Build{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
	}
}

// Info returns the version with the short commit hash when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line banner of the version command.
func Full() string {
	return "javachain version " + Version + "\n" +
		"Commit: " + Commit + "\n" +
		"Built: " + BuildDate + "\n" +
		"Go: " + runtime.Version()
}
