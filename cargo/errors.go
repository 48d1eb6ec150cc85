package cargo

import "errors"

var (
	// ErrInvalidOption indicates conflicting or malformed build options.
	ErrInvalidOption = errors.New("invalid option")
	// ErrBuild indicates cargo failed to build the selected target.
	ErrBuild = errors.New("cargo build failed")
	// ErrMetadata indicates cargo metadata could not be read.
	ErrMetadata = errors.New("read cargo metadata")
	// ErrParseMessage indicates a malformed line in cargo's JSON output.
	ErrParseMessage = errors.New("parse cargo build output")
	// ErrNoArtifact indicates the build produced no executable for the
	// selected target.
	ErrNoArtifact = errors.New("no executable artifact")
	// ErrAmbiguousArtifact indicates the build produced several executables
	// for the selected target.
	ErrAmbiguousArtifact = errors.New("ambiguous executable artifact")
	// ErrNoTarget indicates no target could be selected automatically.
	ErrNoTarget = errors.New("no selectable target")
	// ErrAmbiguousTarget indicates several targets qualify for automatic
	// selection.
	ErrAmbiguousTarget = errors.New("several possible targets")
	// ErrNoPackage indicates the requested package does not exist.
	ErrNoPackage = errors.New("no matching package")
	// ErrCrateRoot indicates the crate root could not be determined.
	ErrCrateRoot = errors.New("find crate root")
)
