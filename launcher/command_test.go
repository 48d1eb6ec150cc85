package launcher_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.jacobcolvin.com/cargo-heaptrack/cargo"
	"go.jacobcolvin.com/cargo-heaptrack/heaptrack"
	"go.jacobcolvin.com/cargo-heaptrack/launcher"
	"go.jacobcolvin.com/cargo-heaptrack/process"
	"go.jacobcolvin.com/cargo-heaptrack/process/processtest"
)

// artifactLine renders a compiler-artifact message as cargo prints it.
func artifactLine(t *testing.T, name string, kind cargo.Kind, exe string, debuginfo int) string {
	t.Helper()

	msg := map[string]any{
		"reason":        "compiler-artifact",
		"package_id":    name + " 0.1.0",
		"manifest_path": "/src/" + name + "/Cargo.toml",
		"target":        map[string]any{"name": name, "kind": []string{string(kind)}},
		"profile":       map[string]any{"opt_level": "3", "debuginfo": debuginfo, "test": false},
		"filenames":     []string{exe},
		"executable":    nil,
		"fresh":         false,
	}
	if exe != "" {
		msg["executable"] = exe
	}

	b, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(b)
}

func buildOutput(lines ...string) processtest.Response {
	return processtest.Response{
		Stdout: []byte(strings.Join(append(lines, `{"reason":"build-finished","success":true}`), "\n") + "\n"),
	}
}

type harness struct {
	fake   *processtest.Fake
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	return &harness{
		fake:   processtest.New().Install("heaptrack", "/usr/bin/heaptrack"),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		dir:    t.TempDir(),
	}
}

// writeSettings pins the cargo and heaptrack programs so $CARGO and
// $HEAPTRACK in the test environment do not leak in.
func (h *harness) writeSettings(t *testing.T, extra string) string {
	t.Helper()

	path := filepath.Join(h.dir, "settings.yaml")
	content := "cargo: cargo\nheaptrack: heaptrack\n" + extra
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func (h *harness) run(t *testing.T, args ...string) error {
	t.Helper()

	cmd := launcher.NewCommand(launcher.Options{
		Runner: h.fake,
		Stdout: h.stdout,
		Stderr: h.stderr,
		Dir:    h.dir,
	})

	full := append([]string{"--log-level", "error"}, args...)
	if !containsFlag(args, "--config") {
		full = append([]string{"--config", h.writeSettings(t, "")}, full...)
	}

	cmd.SetArgs(full)

	return cmd.Execute()
}

func containsFlag(args []string, flag string) bool {
	for _, a := range args {
		if a == "--" {
			return false
		}

		if a == flag || strings.HasPrefix(a, flag+"=") {
			return true
		}
	}

	return false
}

func TestCommand_Scenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.On("cargo build", buildOutput(
		artifactLine(t, "dep", cargo.KindLib, "", 2),
		artifactLine(t, "profile-name", cargo.KindBin, "target/release/profile-name", 2),
	))

	err := h.run(t, "profile-name", "--release", "--", "--record-only")
	require.NoError(t, err)
	assert.Equal(t, 0, process.ExitCode(err))

	calls := h.fake.Calls()
	require.Len(t, calls, 2)

	build := calls[0].Command
	assert.Equal(t, "cargo", build.Name)
	assert.Equal(t, []string{
		"build", "--release", "--bin", "profile-name", "--message-format=json-render-diagnostics",
	}, build.Args)

	profile := calls[1].Command
	assert.Equal(t, "heaptrack", profile.Name)
	assert.Equal(t, []string{"target/release/profile-name", "--record-only"}, profile.Args)
	assert.False(t, calls[1].Captured)
}

func TestCommand_ExitCodes(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setup         func(*testing.T, *processtest.Fake)
		args          []string
		wantErr       error
		wantCode      int
		wantHeaptrack bool
	}{
		"build failure returns cargo status": {
			setup: func(_ *testing.T, f *processtest.Fake) {
				f.On("cargo build", processtest.Response{Err: processtest.Exit("cargo", 101)})
			},
			args:     []string{"--bin", "app"},
			wantErr:  cargo.ErrBuild,
			wantCode: 101,
		},
		"missing artifact": {
			setup: func(t *testing.T, f *processtest.Fake) {
				f.On("cargo build", buildOutput(artifactLine(t, "other", cargo.KindBin, "target/release/other", 2)))
			},
			args:     []string{"--bin", "app"},
			wantErr:  cargo.ErrNoArtifact,
			wantCode: 1,
		},
		"ambiguous artifact": {
			setup: func(t *testing.T, f *processtest.Fake) {
				f.On("cargo build", buildOutput(
					artifactLine(t, "app", cargo.KindBin, "/a/target/release/app", 2),
					artifactLine(t, "app", cargo.KindBin, "/b/target/release/app", 2),
				))
			},
			args:     []string{"--bin", "app"},
			wantErr:  cargo.ErrAmbiguousArtifact,
			wantCode: 1,
		},
		"profiler status is propagated": {
			setup: func(t *testing.T, f *processtest.Fake) {
				f.On("cargo build", buildOutput(artifactLine(t, "app", cargo.KindBin, "target/release/app", 2)))
				f.On("heaptrack", processtest.Response{Err: processtest.Exit("heaptrack", 7)})
			},
			args:          []string{"--bin", "app"},
			wantErr:       heaptrack.ErrFailed,
			wantCode:      7,
			wantHeaptrack: true,
		},
		"too many positional arguments": {
			args:     []string{"app", "other"},
			wantErr:  launcher.ErrInvalidArgument,
			wantCode: 1,
		},
		"positional with target flag": {
			args:     []string{"app", "--example", "demo"},
			wantErr:  launcher.ErrInvalidArgument,
			wantCode: 1,
		},
		"conflicting target flags": {
			args:     []string{"--bin", "app", "--bench", "b"},
			wantErr:  cargo.ErrInvalidOption,
			wantCode: 1,
		},
		"invalid log level": {
			args:     []string{"--log-level", "loud", "--bin", "app"},
			wantErr:  launcher.ErrInvalidArgument,
			wantCode: 1,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			if tc.setup != nil {
				tc.setup(t, h.fake)
			}

			err := h.run(t, tc.args...)
			require.ErrorIs(t, err, tc.wantErr)
			assert.Equal(t, tc.wantCode, process.ExitCode(err))
			assert.Equal(t, tc.wantHeaptrack, len(h.fake.CallsTo("heaptrack")) > 0,
				"heaptrack invocation")
		})
	}
}

func TestCommand_HeaptrackNotInstalled(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake = processtest.New().On("cargo build",
		buildOutput(artifactLine(t, "app", cargo.KindBin, "target/release/app", 2)))

	err := h.run(t, "app")
	require.ErrorIs(t, err, heaptrack.ErrNotFound)
	assert.Equal(t, 1, process.ExitCode(err))
	assert.Empty(t, h.fake.CallsTo("heaptrack"))
}

func TestCommand_AutoSelect(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "Cargo.toml"), []byte("[package]\nname = \"app\"\n"), 0o644))

	meta, err := json.Marshal(cargo.Metadata{
		WorkspaceRoot:   h.dir,
		TargetDirectory: filepath.Join(h.dir, "target"),
		Packages: []cargo.Package{{
			Name:         "app",
			ManifestPath: filepath.Join(h.dir, "Cargo.toml"),
			Targets: []cargo.MetadataTarget{
				{Name: "app", Kind: []string{"lib"}},
				{Name: "app-cli", Kind: []string{"bin"}},
			},
		}},
	})
	require.NoError(t, err)

	exe := filepath.Join(h.dir, "target", "release", "app-cli")

	h.fake.
		On("cargo metadata", processtest.Response{Stdout: meta}).
		On("cargo build", buildOutput(artifactLine(t, "app-cli", cargo.KindBin, exe, 2)))

	err = h.run(t, "--", "serve", "--port", "8080")
	require.NoError(t, err)

	cargoCalls := h.fake.CallsTo("cargo")
	require.Len(t, cargoCalls, 2)
	assert.Equal(t, "metadata", cargoCalls[0].Args[0])
	assert.Equal(t, []string{
		"build", "--release", "--package", "app", "--bin", "app-cli",
		"--message-format=json-render-diagnostics",
	}, cargoCalls[1].Args)

	profile := h.fake.CallsTo("heaptrack")
	require.Len(t, profile, 1)
	assert.Equal(t, []string{exe, "serve", "--port", "8080"}, profile[0].Args)
}

func TestCommand_DiscoversSettings(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, "Cargo.toml"), []byte("[package]\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(h.dir, ".cargo-heaptrack.yaml"),
		[]byte("cargo: cargo\nheaptrack: heaptrack\nraw: true\noutput: app.zst\nfeatures: dhat\n"), 0o644))

	h.fake.On("cargo build", buildOutput(artifactLine(t, "app", cargo.KindBin, "target/release/app", 2)))

	cmd := launcher.NewCommand(launcher.Options{
		Runner: h.fake,
		Stdout: h.stdout,
		Stderr: h.stderr,
		Dir:    h.dir,
	})
	cmd.SetArgs([]string{"--log-level", "error", "--bin", "app", "-o", "cli.zst"})

	require.NoError(t, cmd.Execute())

	build := h.fake.CallsTo("cargo")
	require.Len(t, build, 1)
	assert.Contains(t, build[0].Args, "dhat")

	profile := h.fake.CallsTo("heaptrack")
	require.Len(t, profile, 1)
	assert.Equal(t, []string{"--output", "cli.zst", "--raw", "target/release/app"}, profile[0].Args)
}

func TestCommand_DebugInfoWarning(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.fake.On("cargo build", buildOutput(artifactLine(t, "app", cargo.KindBin, "target/release/app", 0)))

	require.NoError(t, h.run(t, "app"))
	assert.Contains(t, h.stderr.String(), "WARNING: profiling without debuginfo")
	assert.Contains(t, h.stderr.String(), "[profile.release]")

	quiet := newHarness(t)
	quiet.fake.On("cargo build", buildOutput(artifactLine(t, "app", cargo.KindBin, "target/debug/app", 0)))

	require.NoError(t, quiet.run(t, "app", "--dev"))
	assert.NotContains(t, quiet.stderr.String(), "WARNING")
}

func TestCommand_Schema(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	cmd := launcher.NewCommand(launcher.Options{Runner: h.fake, Stdout: h.stdout, Stderr: h.stderr, Dir: h.dir})
	cmd.SetArgs([]string{"--log-level", "error", "schema"})

	require.NoError(t, cmd.Execute())

	var schema map[string]any

	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Empty(t, h.fake.Calls())
}

func TestCommand_Version(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	cmd := launcher.NewCommand(launcher.Options{Runner: h.fake, Stdout: h.stdout, Stderr: h.stderr, Dir: h.dir})
	cmd.SetArgs([]string{"--log-level", "error", "version"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, h.stdout.String(), "revision:")
}

func TestCargoArgs(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args []string
		want []string
	}{
		"invoked by cargo": {
			args: []string{"heaptrack", "--bin", "app"},
			want: []string{"--bin", "app"},
		},
		"invoked directly": {
			args: []string{"--bin", "app"},
			want: []string{"--bin", "app"},
		},
		"only subcommand": {
			args: []string{"heaptrack"},
			want: []string{},
		},
		"empty": {
			args: nil,
			want: nil,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, launcher.CargoArgs(tc.args))
		})
	}
}

func TestCommand_UnitTestName(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		args []string
	}{
		"separate value": {args: []string{"--unit-test", "core"}},
		"inline value":   {args: []string{"--unit-test=core"}},
		"trailing args":  {args: []string{"--unit-test", "core", "--", "--nocapture"}},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			h := newHarness(t)
			require.NoError(t, os.WriteFile(filepath.Join(h.dir, "Cargo.toml"), []byte("[package]\n"), 0o644))

			meta, err := json.Marshal(cargo.Metadata{
				WorkspaceRoot: h.dir,
				Packages: []cargo.Package{{
					Name:         "core",
					ManifestPath: filepath.Join(h.dir, "Cargo.toml"),
					Targets: []cargo.MetadataTarget{
						{Name: "core", Kind: []string{"lib"}},
						{Name: "core-cli", Kind: []string{"bin"}},
					},
				}},
			})
			require.NoError(t, err)

			exe := filepath.Join(h.dir, "target", "release", "deps", "core-5f2e")

			h.fake.
				On("cargo metadata", processtest.Response{Stdout: meta}).
				On("cargo test", buildOutput(artifactLine(t, "core", cargo.KindLib, exe, 2)))

			require.NoError(t, h.run(t, tc.args...))

			cargoCalls := h.fake.CallsTo("cargo")
			require.Len(t, cargoCalls, 2)
			assert.Equal(t, []string{
				"test", "--no-run", "--release", "--package", "core", "--lib",
				"--message-format=json-render-diagnostics",
			}, cargoCalls[1].Args)

			profile := h.fake.CallsTo("heaptrack")
			require.Len(t, profile, 1)
			assert.Equal(t, exe, profile[0].Args[0])
		})
	}
}

func TestCommand_UnitTestNameConflict(t *testing.T) {
	t.Parallel()

	h := newHarness(t)

	err := h.run(t, "--unit-test=core", "app")
	require.ErrorIs(t, err, launcher.ErrInvalidArgument)
	assert.Empty(t, h.fake.Calls())
}
