package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/google/jsonschema-go/jsonschema"

	"go.jacobcolvin.com/cargo-heaptrack/cargo"
	"go.jacobcolvin.com/cargo-heaptrack/heaptrack"
)

// FileNames are the settings file names looked up in the crate root, in
// order.
var FileNames = []string{".cargo-heaptrack.yaml", ".cargo-heaptrack.yml"}

var (
	// ErrInvalidConfig indicates a settings file that cannot be used.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrReadConfig indicates a settings file that cannot be read.
	ErrReadConfig = errors.New("read config")
)

// File holds per-project defaults for cargo heaptrack.
type File struct {
	Cargo             string   `json:"cargo,omitempty"             jsonschema:"cargo executable" yaml:"cargo,omitempty"`
	Heaptrack         string   `json:"heaptrack,omitempty"         jsonschema:"heaptrack executable" yaml:"heaptrack,omitempty"`
	Profile           string   `json:"profile,omitempty"           jsonschema:"cargo profile to build with" yaml:"profile,omitempty"`
	Features          string   `json:"features,omitempty"          jsonschema:"comma-separated cargo features to enable" yaml:"features,omitempty"`
	Output            string   `json:"output,omitempty"            jsonschema:"heaptrack output file" yaml:"output,omitempty"`
	HeaptrackArgs     []string `json:"heaptrackArgs,omitempty"     jsonschema:"extra heaptrack options placed before the executable" yaml:"heaptrackArgs,omitempty"`
	NoDefaultFeatures bool     `json:"noDefaultFeatures,omitempty" jsonschema:"disable default cargo features" yaml:"noDefaultFeatures,omitempty"`
	Raw               bool     `json:"raw,omitempty"               jsonschema:"only record raw heaptrack data" yaml:"raw,omitempty"`
}

// Load reads and strictly decodes the settings file at path. Unknown keys are
// rejected.
func Load(path string) (*File, error) {
	b, err := os.ReadFile(path) //nolint:gosec // Config path from CLI flag is expected.
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadConfig, err)
	}

	return Parse(b, path)
}

// Parse strictly decodes settings from b. name is used in error messages.
func Parse(b []byte, name string) (*File, error) {
	var f File

	err := yaml.UnmarshalWithOptions(b, &f, yaml.DisallowUnknownField())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, name, err)
	}

	return &f, nil
}

// Discover loads the first of [FileNames] present in dir. It returns a nil
// File and no error when none exists.
func Discover(dir string) (*File, string, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)

		_, err := os.Stat(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}

		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrReadConfig, err)
		}

		f, err := Load(path)
		if err != nil {
			return nil, "", err
		}

		return f, path, nil
	}

	return nil, "", nil
}

// ApplyCargo copies file values into c for every setting whose flag was not
// given on the command line. changed reports whether a flag was given.
func (f *File) ApplyCargo(c *cargo.Config, changed func(name string) bool) {
	if f.Cargo != "" && c.Cargo == "" {
		c.Cargo = f.Cargo
	}

	if f.Profile != "" && !changed(c.Flags.Profile) && !changed(c.Flags.Dev) {
		c.Profile = f.Profile
	}

	if f.Features != "" && !changed(c.Flags.Features) {
		c.Features = f.Features
	}

	if f.NoDefaultFeatures && !changed(c.Flags.NoDefaultFeatures) {
		c.NoDefaultFeatures = true
	}
}

// ApplyHeaptrack copies file values into c for every setting whose flag was
// not given on the command line. changed reports whether a flag was given.
func (f *File) ApplyHeaptrack(c *heaptrack.Config, changed func(name string) bool) {
	if f.Heaptrack != "" && !changed(c.Flags.Program) {
		c.Program = f.Heaptrack
	}

	if f.Output != "" && !changed(c.Flags.Output) {
		c.Output = f.Output
	}

	if f.Raw && !changed(c.Flags.Raw) {
		c.Raw = true
	}

	c.Extra = append(append([]string(nil), f.HeaptrackArgs...), c.Extra...)
}

// Schema returns the JSON Schema describing [File].
func Schema() (*jsonschema.Schema, error) {
	s, err := jsonschema.For[File](nil)
	if err != nil {
		return nil, fmt.Errorf("generate config schema: %w", err)
	}

	s.Title = "cargo-heaptrack settings"
	s.Description = fmt.Sprintf("Project defaults for cargo heaptrack, read from %s in the crate root.", FileNames[0])

	return s, nil
}

// SchemaJSON returns [Schema] rendered as indented JSON.
func SchemaJSON() ([]byte, error) {
	s, err := Schema()
	if err != nil {
		return nil, err
	}

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal config schema: %w", err)
	}

	return append(out, '\n'), nil
}
