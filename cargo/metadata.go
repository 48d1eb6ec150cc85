package cargo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

const manifestName = "Cargo.toml"

// Metadata is the subset of "cargo metadata --format-version 1" output the
// launcher needs.
type Metadata struct {
	WorkspaceRoot   string    `json:"workspace_root"`
	TargetDirectory string    `json:"target_directory"`
	Packages        []Package `json:"packages"`
}

// Package is a workspace member.
type Package struct {
	DefaultRun   *string          `json:"default_run"`
	Name         string           `json:"name"`
	ManifestPath string           `json:"manifest_path"`
	Targets      []MetadataTarget `json:"targets"`
}

// MetadataTarget is a buildable unit of a [Package].
type MetadataTarget struct {
	Name string   `json:"name"`
	Kind []string `json:"kind"`
}

// ParseMetadata decodes cargo metadata JSON.
func ParseMetadata(b []byte) (*Metadata, error) {
	var m Metadata

	err := json.Unmarshal(b, &m)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMetadata, err)
	}

	return &m, nil
}

// FindCrateRoot returns the directory of manifestPath, or, when manifestPath
// is empty, the nearest ancestor of dir containing a Cargo.toml.
func FindCrateRoot(manifestPath, dir string) (string, error) {
	if manifestPath != "" {
		parent := filepath.Dir(manifestPath)

		abs, err := filepath.Abs(parent)
		if err != nil {
			return "", fmt.Errorf("%w: manifest path %q: %w", ErrCrateRoot, manifestPath, err)
		}

		resolved, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return "", fmt.Errorf("%w: manifest directory %q: %w "+
				"(make sure the manifest path exists and points to a Cargo.toml file)",
				ErrCrateRoot, parent, err)
		}

		return resolved, nil
	}

	for current := dir; ; {
		_, err := os.Stat(filepath.Join(current, manifestName))
		if err == nil {
			return current, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}

		current = parent
	}

	return "", fmt.Errorf("%w: could not find %q in %q or any parent directory",
		ErrCrateRoot, manifestName, dir)
}

// FindUniqueTarget picks the single target of one of kinds.
//
// Packages are filtered by name when pkg is set, otherwise by having their
// manifest below crateRoot. A package's default-run restricts it to that
// target. When name is set only targets with that name qualify.
func FindUniqueTarget(meta *Metadata, kinds []Kind, pkg, crateRoot, name string) (BinaryTarget, error) {
	var packages []Package

	for _, p := range meta.Packages {
		if pkg != "" {
			if p.Name == pkg {
				packages = append(packages, p)
			}

			continue
		}

		if isWithin(p.ManifestPath, crateRoot) {
			packages = append(packages, p)
		}
	}

	if len(packages) == 0 {
		if pkg != "" {
			return BinaryTarget{}, fmt.Errorf("%w: workspace has no package named %s", ErrNoPackage, pkg)
		}

		return BinaryTarget{}, fmt.Errorf("%w: failed to find any package in %q or below",
			ErrNoPackage, crateRoot)
	}

	isDefault := false

	var targets []BinaryTarget

	for _, p := range packages {
		if p.DefaultRun != nil {
			isDefault = true
		}

		for _, t := range p.Targets {
			if !hasAnyKind(t.Kind, kinds) {
				continue
			}

			if p.DefaultRun != nil && *p.DefaultRun != t.Name {
				continue
			}

			if name != "" && name != t.Name {
				continue
			}

			targets = append(targets, BinaryTarget{
				Package: p.Name,
				Target:  t.Name,
				Kind:    t.Kind,
			})
		}
	}

	switch len(targets) {
	case 0:
		return BinaryTarget{}, fmt.Errorf("%w: crate has no automatically selectable target "+
			"(try passing --example <example> or similar to choose a binary)", ErrNoTarget)

	case 1:
		if len(packages) != 1 || !isDefault {
			slog.Info("automatically selected the only valid target",
				slog.String("target", targets[0].Target),
				slog.String("package", targets[0].Package),
			)
		}

		return targets[0], nil
	}

	names := lo.Map(targets, func(t BinaryTarget, _ int) string { return t.String() })

	return BinaryTarget{}, fmt.Errorf("%w: %s; please pass an explicit target",
		ErrAmbiguousTarget, strings.Join(names, ", "))
}

func isWithin(path, dir string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}

	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
