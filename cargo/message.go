package cargo

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

const reasonCompilerArtifact = "compiler-artifact"

// maxMessageSize bounds one line of cargo's JSON output.
const maxMessageSize = 16 << 20

// Artifact is a compiler-artifact message from cargo's JSON output.
type Artifact struct {
	PackageID    string          `json:"package_id"`
	ManifestPath string          `json:"manifest_path"`
	Executable   string          `json:"executable"`
	Target       ArtifactTarget  `json:"target"`
	Filenames    []string        `json:"filenames"`
	Profile      ArtifactProfile `json:"profile"`
	Fresh        bool            `json:"fresh"`
}

// ArtifactTarget is the target an [Artifact] was built from.
type ArtifactTarget struct {
	Name    string   `json:"name"`
	SrcPath string   `json:"src_path"`
	Kind    []string `json:"kind"`
}

// ArtifactProfile is the subset of the build profile cargo reports.
type ArtifactProfile struct {
	OptLevel  string    `json:"opt_level"`
	DebugInfo DebugInfo `json:"debuginfo"`
	Test      bool      `json:"test"`
}

// DebugInfo is the debuginfo level of an artifact. Cargo reports it either as
// a number (0, 1, 2) or a name ("none", "line-tables-only", "limited", ...).
type DebugInfo string

// DebugInfoNone means the artifact carries no debug symbols.
const DebugInfoNone DebugInfo = "none"

// UnmarshalJSON implements [json.Unmarshaler].
func (d *DebugInfo) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = DebugInfoNone
		return nil
	}

	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		switch n {
		case 0:
			*d = DebugInfoNone
		case 1:
			*d = "limited"
		case 2:
			*d = "full"
		default:
			*d = DebugInfo(strconv.Itoa(n))
		}

		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("debuginfo: %w", err)
	}

	*d = DebugInfo(s)
	if s == "" {
		*d = DebugInfoNone
	}

	return nil
}

// IsNone reports whether no debug symbols were emitted.
func (d DebugInfo) IsNone() bool {
	return d == "" || d == DebugInfoNone
}

// ParseMessages reads cargo's line-delimited JSON output and returns every
// compiler-artifact message, in order. Lines that are not JSON objects (for
// example output from build scripts) are skipped; malformed JSON objects are
// errors.
func ParseMessages(r io.Reader) ([]Artifact, error) {
	var artifacts []Artifact

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxMessageSize)

	line := 0
	for sc.Scan() {
		line++

		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] != '{' {
			continue
		}

		var head struct {
			Reason string `json:"reason"`
		}

		err := json.Unmarshal(b, &head)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParseMessage, line, err)
		}

		if head.Reason != reasonCompilerArtifact {
			continue
		}

		var a Artifact

		err = json.Unmarshal(b, &a)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrParseMessage, line, err)
		}

		artifacts = append(artifacts, a)
	}

	err := sc.Err()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseMessage, err)
	}

	return artifacts, nil
}
