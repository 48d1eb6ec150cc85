package cargo_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/cargo-heaptrack/cargo"
)

const (
	buildScriptMsg = `{"reason":"build-script-executed","package_id":"dep 0.1.0","linked_libs":[],"out_dir":"/tmp/out"}`
	libArtifactMsg = `{"reason":"compiler-artifact","package_id":"app 0.1.0","manifest_path":"/src/app/Cargo.toml",` +
		`"target":{"kind":["lib"],"crate_types":["lib"],"name":"app","src_path":"/src/app/src/lib.rs"},` +
		`"profile":{"opt_level":"3","debuginfo":0,"test":false},"features":[],` +
		`"filenames":["/src/app/target/release/libapp.rlib"],"executable":null,"fresh":true}`
	binArtifactMsg = `{"reason":"compiler-artifact","package_id":"app 0.1.0","manifest_path":"/src/app/Cargo.toml",` +
		`"target":{"kind":["bin"],"crate_types":["bin"],"name":"app","src_path":"/src/app/src/main.rs"},` +
		`"profile":{"opt_level":"3","debuginfo":2,"test":false},"features":[],` +
		`"filenames":["/src/app/target/release/app"],"executable":"/src/app/target/release/app","fresh":false}`
	finishedMsg = `{"reason":"build-finished","success":true}`
)

func TestParseMessages(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		buildScriptMsg,
		"",
		"warning: plain text printed by a build script",
		libArtifactMsg,
		binArtifactMsg,
		finishedMsg,
	}, "\n")

	artifacts, err := cargo.ParseMessages(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, artifacts, 2)

	lib := artifacts[0]
	assert.Equal(t, "app", lib.Target.Name)
	assert.Equal(t, []string{"lib"}, lib.Target.Kind)
	assert.Empty(t, lib.Executable)
	assert.True(t, lib.Fresh)
	assert.True(t, lib.Profile.DebugInfo.IsNone())

	bin := artifacts[1]
	assert.Equal(t, "/src/app/target/release/app", bin.Executable)
	assert.Equal(t, "/src/app/Cargo.toml", bin.ManifestPath)
	assert.Equal(t, "3", bin.Profile.OptLevel)
	assert.Equal(t, cargo.DebugInfo("full"), bin.Profile.DebugInfo)
	assert.False(t, bin.Profile.DebugInfo.IsNone())
}

func TestParseMessages_Malformed(t *testing.T) {
	t.Parallel()

	input := binArtifactMsg + "\n" + `{"reason":"compiler-artifact","target":` + "\n"

	_, err := cargo.ParseMessages(strings.NewReader(input))
	require.ErrorIs(t, err, cargo.ErrParseMessage)
	assert.Contains(t, err.Error(), "line 2")
}

func TestParseMessages_Empty(t *testing.T) {
	t.Parallel()

	artifacts, err := cargo.ParseMessages(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestDebugInfo_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input    string
		want     cargo.DebugInfo
		wantNone bool
	}{
		"null":             {input: `null`, want: cargo.DebugInfoNone, wantNone: true},
		"zero":             {input: `0`, want: cargo.DebugInfoNone, wantNone: true},
		"one":              {input: `1`, want: "limited"},
		"two":              {input: `2`, want: "full"},
		"named none":       {input: `"none"`, want: cargo.DebugInfoNone, wantNone: true},
		"line tables only": {input: `"line-tables-only"`, want: "line-tables-only"},
		"empty string":     {input: `""`, want: cargo.DebugInfoNone, wantNone: true},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var d cargo.DebugInfo

			require.NoError(t, d.UnmarshalJSON([]byte(tc.input)))
			assert.Equal(t, tc.want, d)
			assert.Equal(t, tc.wantNone, d.IsNone())
		})
	}

	t.Run("invalid", func(t *testing.T) {
		t.Parallel()

		var d cargo.DebugInfo

		require.Error(t, d.UnmarshalJSON([]byte(`{}`)))
	})
}
