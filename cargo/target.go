package cargo

import (
	"fmt"
	"slices"

	"github.com/samber/lo"
)

// Kind is a cargo target kind.
type Kind string

const (
	KindBin     Kind = "bin"
	KindExample Kind = "example"
	KindTest    Kind = "test"
	KindBench   Kind = "bench"
	KindLib     Kind = "lib"

	// KindUnitTest selects the unit-test harness of a lib or bin target. It
	// never appears in cargo output.
	KindUnitTest Kind = "unit-test"
)

// Selection names the target to build and profile.
type Selection struct {
	Kind Kind
	Name string
}

// String implements [fmt.Stringer].
func (s Selection) String() string {
	if s.Name == "" {
		return string(s.Kind)
	}

	return fmt.Sprintf("%s %q", s.Kind, s.Name)
}

// IsZero reports whether no target was selected.
func (s Selection) IsZero() bool {
	return s.Kind == ""
}

// ArtifactKinds returns the kinds an artifact built for s may carry.
func (s Selection) ArtifactKinds() []Kind {
	if s.Kind == KindUnitTest {
		return []Kind{KindLib, KindBin}
	}

	return []Kind{s.Kind}
}

// Matches reports whether a cargo target with the given name and kinds
// satisfies s.
func (s Selection) Matches(name string, kinds []string) bool {
	if s.Name != "" && s.Name != name {
		return false
	}

	return hasAnyKind(kinds, s.ArtifactKinds())
}

// BinaryTarget is a target picked from cargo metadata.
type BinaryTarget struct {
	Package string
	Target  string
	Kind    []string
}

// String implements [fmt.Stringer].
func (t BinaryTarget) String() string {
	return fmt.Sprintf("target %s in package %s", t.Target, t.Package)
}

// HasKind reports whether the target carries kind k.
func (t BinaryTarget) HasKind(k Kind) bool {
	return slices.Contains(t.Kind, string(k))
}

func hasAnyKind(kinds []string, want []Kind) bool {
	return lo.ContainsBy(kinds, func(k string) bool {
		return lo.Contains(want, Kind(k))
	})
}
