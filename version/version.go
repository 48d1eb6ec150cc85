// Package version holds build information for cargo-heaptrack, injected
// with -ldflags "-X go.jacobcolvin.com/cargo-heaptrack/version.Version=...".
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

var (
	// Version is the application version, set via ldflags.
	Version string
	// Branch is the git branch, set via ldflags.
	Branch string
	// BuildUser is the user who built the binary, set via ldflags.
	BuildUser string
	// BuildDate is when the binary was built, set via ldflags.
	BuildDate string

	// Revision is the git commit revision.
	Revision = getRevision()
	// GoVersion is the Go version used to build.
	GoVersion = runtime.Version()
	// GoOS is the operating system target.
	GoOS = runtime.GOOS
	// GoArch is the architecture target.
	GoArch = runtime.GOARCH
)

func getRevision() string {
	rev := "unknown"

	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return rev
	}

	modified := false

	for _, v := range buildInfo.Settings {
		switch v.Key {
		case "vcs.revision":
			rev = v.Value
		case "vcs.modified":
			if v.Value == "true" {
				modified = true
			}
		}
	}

	if modified {
		return rev + "-dirty"
	}

	return rev
}

// String returns the short version shown by --version.
func String() string {
	v := Version
	if v == "" {
		v = "devel"
	}

	return fmt.Sprintf("%s (%s)", v, Revision)
}

// Details returns every build field, one per line.
func Details() string {
	var sb strings.Builder

	for _, f := range []struct {
		name  string
		value string
	}{
		{"version", Version},
		{"revision", Revision},
		{"branch", Branch},
		{"build user", BuildUser},
		{"build date", BuildDate},
		{"go version", GoVersion},
		{"platform", GoOS + "/" + GoArch},
	} {
		if f.value == "" {
			continue
		}

		fmt.Fprintf(&sb, "%-11s %s\n", f.name+":", f.value)
	}

	return sb.String()
}
