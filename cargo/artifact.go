package cargo

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// ProfileDir returns the directory below the target directory that cargo
// writes a profile's output to.
func ProfileDir(profile string) string {
	switch profile {
	case "", "dev", "test":
		return "debug"
	case "release", "bench":
		return "release"
	}

	return profile
}

// OutputPath returns where cargo places the executable for a bin or example
// target: <target-dir>/<profile-dir>/[examples/]<name>. Test and bench
// executables carry a hash suffix and have no fixed path; ok is false for
// them.
func OutputPath(targetDir, profile string, kind Kind, name string) (path string, ok bool) {
	dir := filepath.Join(targetDir, ProfileDir(profile))

	switch kind {
	case KindBin:
		return filepath.Join(dir, name), true
	case KindExample:
		return filepath.Join(dir, "examples", name), true
	}

	return "", false
}

// ResolveExecutable returns the single artifact built for sel that carries an
// executable. Artifacts pointing at the same file are counted once.
func ResolveExecutable(artifacts []Artifact, sel Selection) (Artifact, error) {
	found := lo.UniqBy(lo.Filter(artifacts, func(a Artifact, _ int) bool {
		return a.Executable != "" && sel.Matches(a.Target.Name, a.Target.Kind)
	}), func(a Artifact) string {
		return a.Executable
	})

	switch len(found) {
	case 1:
		return found[0], nil

	case 0:
		if !lo.ContainsBy(artifacts, func(a Artifact) bool { return a.Executable != "" }) {
			return Artifact{}, fmt.Errorf("%w: build artifacts do not contain any executable to profile",
				ErrNoArtifact)
		}

		targets := lo.Map(artifacts, func(a Artifact, _ int) string {
			return fmt.Sprintf("(%s, %q)", strings.Join(a.Target.Kind, "/"), a.Target.Name)
		})

		return Artifact{}, fmt.Errorf("%w: could not find %s in the targets for this crate: %s",
			ErrNoArtifact, sel, strings.Join(targets, ", "))
	}

	paths := lo.Map(found, func(a Artifact, _ int) string { return a.Executable })

	return Artifact{}, fmt.Errorf("%w: %s matches %s; pass --package to pick one",
		ErrAmbiguousArtifact, sel, strings.Join(paths, ", "))
}

// DebugInfoProfile returns the profile a user should enable debuginfo for to
// get symbols when profiling sel: bins, examples and unit tests build with
// release, tests and benches with bench.
func DebugInfoProfile(sel Selection) string {
	switch sel.Kind {
	case KindBin, KindExample, KindUnitTest:
		return "release"
	}

	return "bench"
}

// DebugInfoHint explains how to enable debug symbols for profile.
func DebugInfoHint(profile string) string {
	return fmt.Sprintf("Enable symbol information by adding the following lines to Cargo.toml:\n\n"+
		"[profile.%s]\ndebug = true\n\n"+
		"Or set this environment variable:\n\n"+
		"CARGO_PROFILE_%s_DEBUG=true\n",
		profile, strings.ToUpper(strings.ReplaceAll(profile, "-", "_")))
}
