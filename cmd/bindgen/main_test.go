package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.eggybyte.com/bindgen/internal/config"
	"go.eggybyte.com/bindgen/internal/errors"
	"go.eggybyte.com/bindgen/internal/ui"
)

// TestFakeGenerator stands in for the binding generator when the test
// binary is re-executed with BINDGEN_FAKE_GENERATOR=1.
func TestFakeGenerator(t *testing.T) {
	if os.Getenv("BINDGEN_FAKE_GENERATOR") != "1" {
		return
	}
	args := os.Args
	for i, a := range args {
		if a == "--" {
			args = args[i+1:]
			break
		}
	}
	dest := args[2]
	if strings.Contains(args[1], "broken") {
		fmt.Fprintln(os.Stderr, "error: malformed protocol")
		os.Exit(1)
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		os.Exit(1)
	}
	if err := os.WriteFile(filepath.Join(dest, "invocation.txt"), []byte(strings.Join(args, " ")), 0o644); err != nil {
		os.Exit(1)
	}
	os.Exit(0)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	verbose, nonInteractive, jsonOutput, configPath = false, true, false, ""
	generateFlags, planFlags = passFlags{}, passFlags{}
	generateDryRun, initForce, initFormat = false, false, "yaml"

	var out bytes.Buffer
	ui.SetOutput(&out, &out)
	t.Cleanup(func() { ui.SetOutput(os.Stdout, os.Stderr) })

	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func fakeGeneratorCommand() string {
	return fmt.Sprintf("%q -test.run=TestFakeGenerator --", os.Args[0])
}

func newWorkspace(t *testing.T, passes string) (string, string) {
	t.Helper()
	dir := t.TempDir()
	for _, f := range []string{
		"protocols/stable/xdg-shell/xdg-shell.xml",
		"protocols/unstable/linux-dmabuf/linux-dmabuf-unstable-v1.xml",
		"wayland.xml",
	} {
		writeFile(t, filepath.Join(dir, filepath.FromSlash(f)), "<protocol/>")
	}
	manifest := filepath.Join(dir, "bindgen.yaml")
	writeFile(t, manifest, fmt.Sprintf("generator: '%s'\npasses:\n%s", fakeGeneratorCommand(), passes))
	return dir, manifest
}

const layeredPasses = `  - name: core
    file: wayland.xml
    destination: Sources/SwiftWayland
    import: SwiftWaylandCommon
  - name: protocols
    source: protocols
    destination: Sources/Protocols
    import: SwiftWayland
`

func TestGenerateRunsEveryPass(t *testing.T) {
	t.Setenv("BINDGEN_FAKE_GENERATOR", "1")
	dir, manifest := newWorkspace(t, layeredPasses)

	out, err := execute(t, "generate", "-c", manifest)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Generated 3 protocol module(s)")

	tests := map[string]string{
		"Sources/SwiftWayland": "client " + filepath.Join(dir, "wayland.xml") + " " + filepath.Join(dir, "Sources", "SwiftWayland") + " --import SwiftWaylandCommon",
		"Sources/Protocols/Stable/XdgShell/XdgShell": "client " +
			filepath.Join(dir, "protocols", "stable", "xdg-shell", "xdg-shell.xml") + " " +
			filepath.Join(dir, "Sources", "Protocols", "Stable", "XdgShell", "XdgShell") + " --import SwiftWayland",
		"Sources/Protocols/Unstable/LinuxDmabuf/LinuxDmabufUnstableV1": "client " +
			filepath.Join(dir, "protocols", "unstable", "linux-dmabuf", "linux-dmabuf-unstable-v1.xml") + " " +
			filepath.Join(dir, "Sources", "Protocols", "Unstable", "LinuxDmabuf", "LinuxDmabufUnstableV1") + " --import SwiftWayland",
	}
	for dest, want := range tests {
		got, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(dest), "invocation.txt"))
		require.NoError(t, err, dest)
		assert.Equal(t, want, string(got), dest)
	}
}

func TestGenerateFailureExitsWithInvocationError(t *testing.T) {
	t.Setenv("BINDGEN_FAKE_GENERATOR", "1")
	dir, manifest := newWorkspace(t, layeredPasses)
	writeFile(t, filepath.Join(dir, "protocols", "stable", "broken", "broken.xml"), "<protocol")

	out, err := execute(t, "generate", "-c", manifest, "--keep-going", "--mode", "server")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvocation), "got %v", err)
	assert.Contains(t, err.Error(), "malformed protocol")

	// The remaining protocols were still generated.
	_, statErr := os.Stat(filepath.Join(dir, "Sources", "Protocols", "Stable", "XdgShell", "XdgShell", "invocation.txt"))
	assert.NoError(t, statErr, out)
}

func TestGenerateDryRunRunsNothing(t *testing.T) {
	dir, manifest := newWorkspace(t, layeredPasses)

	out, err := execute(t, "generate", "-c", manifest, "--dry-run")
	require.NoError(t, err, out)
	assert.Contains(t, out, "--import SwiftWaylandCommon")
	assert.Contains(t, out, "Planned 3 protocol module(s)")
	assert.NoDirExists(t, filepath.Join(dir, "Sources"))
}

func TestPlanReportsCollision(t *testing.T) {
	_, manifest := newWorkspace(t, `  - name: upstream
    source: protocols
    destination: out
  - name: again
    source: protocols
    destination: out
`)

	_, err := execute(t, "plan", "-c", manifest)
	assert.True(t, errors.IsCode(err, errors.CodeCollision), "got %v", err)
}

func TestPlanAdHocSourceWithTier(t *testing.T) {
	dir, _ := newWorkspace(t, layeredPasses)

	out, err := execute(t, "plan",
		"--generator", "wayland-swift",
		"--source", filepath.Join(dir, "protocols", "stable"),
		"--tier", "stable",
		"--dest", filepath.Join(dir, "out"),
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, filepath.Join("Stable", "XdgShell", "XdgShell"))
	assert.Contains(t, out, "1 protocol document(s) in 1 pass(es)")
}

func TestPlanAdHocTiers(t *testing.T) {
	dir, _ := newWorkspace(t, layeredPasses)
	writeFile(t, filepath.Join(dir, "protocols", "experimental", "xx-foo", "xx-foo-v1.xml"), "<protocol/>")
	writeFile(t, filepath.Join(dir, "protocols", "deprecated", "old", "old.xml"), "<protocol/>")
	args := []string{"plan",
		"--generator", "wayland-swift",
		"--source", filepath.Join(dir, "protocols"),
		"--dest", filepath.Join(dir, "out"),
	}

	_, err := execute(t, args...)
	assert.True(t, errors.IsCode(err, errors.CodeLayout), "got %v", err)
	assert.Contains(t, err.Error(), `"deprecated"`)

	out, err := execute(t, append(args, "--tiers", "*")...)
	require.NoError(t, err, out)
	assert.Contains(t, out, filepath.Join("Experimental", "XxFoo", "XxFooV1"))
	assert.Contains(t, out, filepath.Join("Deprecated", "Old", "Old"))
	assert.Contains(t, out, "4 protocol document(s) in 1 pass(es)")

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "protocols", "deprecated")))
	out, err = execute(t, args...)
	require.NoError(t, err, out)
	assert.Contains(t, out, filepath.Join("Experimental", "XxFoo", "XxFooV1"))

	_, err = execute(t, append(args, "--tiers", "stable, unstable")...)
	assert.True(t, errors.IsCode(err, errors.CodeLayout), "got %v", err)
}

func TestGenerateFlagSuppliesManifestGenerator(t *testing.T) {
	t.Setenv("BINDGEN_FAKE_GENERATOR", "1")
	t.Setenv("BINDGEN_GENERATOR", "")
	dir, manifest := newWorkspace(t, layeredPasses)
	writeFile(t, manifest, "passes:\n"+layeredPasses)

	_, err := execute(t, "generate", "-c", manifest)
	require.Error(t, err)

	out, err := execute(t, "generate", "-c", manifest, "--generator", fakeGeneratorCommand())
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(dir, "Sources", "SwiftWayland", "invocation.txt"))
}

func TestGenerateResolvesGeneratorAgainstManifest(t *testing.T) {
	t.Setenv("BINDGEN_FAKE_GENERATOR", "1")
	t.Setenv("BINDGEN_GENERATOR", "")
	dir, manifest := newWorkspace(t, layeredPasses)

	self, err := filepath.Abs(os.Args[0])
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "bin"), 0o755))
	require.NoError(t, os.Symlink(self, filepath.Join(dir, "bin", "fake-generator")))
	writeFile(t, manifest, "generator: bin/fake-generator -test.run=TestFakeGenerator --\npasses:\n"+layeredPasses)

	// The test runs in the package directory, not next to the manifest.
	out, err := execute(t, "generate", "-c", manifest)
	require.NoError(t, err, out)
	assert.FileExists(t, filepath.Join(dir, "Sources", "Protocols", "Stable", "XdgShell", "XdgShell", "invocation.txt"))
}

func TestPlanAdHocRequiresGenerator(t *testing.T) {
	t.Setenv("BINDGEN_GENERATOR", "")
	_, err := execute(t, "plan", "--source", t.TempDir(), "--dest", "out")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--generator")
}

func TestCheckFindsMissingSources(t *testing.T) {
	_, manifest := newWorkspace(t, `  - name: gone
    source: missing
    destination: out
`)

	out, err := execute(t, "check", "-c", manifest)
	require.Error(t, err)
	assert.Contains(t, out, "passes[0].source")
}

func TestCheckPasses(t *testing.T) {
	_, manifest := newWorkspace(t, layeredPasses)

	out, err := execute(t, "check", "-c", manifest)
	require.NoError(t, err, out)
	assert.Contains(t, out, "Check passed: 3 protocol document(s) in 2 pass(es)")
}

func TestInitWritesLoadableManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bindgen.toml")

	_, err := execute(t, "init", "-c", path)
	require.NoError(t, err)
	m, diags := config.Load(path)
	require.NotNil(t, m)
	assert.False(t, diags.HasErrors(), "%v", diags.Items())

	_, err = execute(t, "init", "-c", path, "--force")
	assert.NoError(t, err)
}
