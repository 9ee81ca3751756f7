package version

import (
	"runtime"
	"strings"
	"testing"
)

func restore(t *testing.T) {
	v, c, d := Version, Commit, BuildDate
	t.Cleanup(func() {
		Version, Commit, BuildDate = v, c, d
	})
}

func TestInfo(t *testing.T) {
	restore(t)

	tests := []struct {
		name    string
		version string
		commit  string
		want    string
	}{
		{name: "unknown commit", version: "1.0.0", commit: "unknown", want: "1.0.0"},
		{name: "short commit", version: "1.0.0", commit: "abc", want: "1.0.0"},
		{name: "exactly 7 chars", version: "2.0.0", commit: "1234567", want: "2.0.0"},
		{name: "8 chars", version: "2.0.0", commit: "12345678", want: "2.0.0 (1234567)"},
		{name: "full hash", version: "0.3.1", commit: "abc1234567890", want: "0.3.1 (abc1234)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Version = tt.version
			Commit = tt.commit

			if got := Info(); got != tt.want {
				t.Errorf("Info() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFull(t *testing.T) {
	restore(t)
	Version = "1.2.3"
	Commit = "abcdef123456"
	BuildDate = "2026-01-15"

	got := Full()
	for _, part := range []string{
		"javachain version 1.2.3",
		"Commit: abcdef123456",
		"Built: 2026-01-15",
		"Go: " + runtime.Version(),
	} {
		if !strings.Contains(got, part) {
			t.Errorf("Full() = %q, want to contain %q", got, part)
		}
	}
}

func TestCurrent(t *testing.T) {
	restore(t)
	Version = "0.9.0"
	Commit = "deadbeef"

	b := Current()
	if b.Version != "0.9.0" || b.Commit != "deadbeef" || b.GoVersion != runtime.Version() {
		t.Errorf("Current() = %+v", b)
	}
}

func TestDefaultVersionIsSemver(t *testing.T) {
	if parts := strings.Split(Version, "."); len(parts) != 3 {
		t.Errorf("Version %q doesn't look like semver", Version)
	}
}
