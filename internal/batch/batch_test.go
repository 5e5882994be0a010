package batch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.eggybyte.com/bindgen/internal/errors"
	"go.eggybyte.com/bindgen/internal/generator"
	"go.eggybyte.com/bindgen/internal/layout"
	"go.eggybyte.com/bindgen/internal/logx/logxtest"
	"go.eggybyte.com/bindgen/internal/scan"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("<protocol/>"), 0o644))
	}
}

type fixture struct {
	root string
	src  string
	out  string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{root: root, src: filepath.Join(root, "protocols"), out: filepath.Join(root, "Sources")}
	writeTree(t, f.src,
		"stable/xdg-shell/xdg-shell.xml",
		"stable/viewporter/viewporter.xml",
		"staging/xdg-activation/xdg-activation-v1.xml",
		"unstable/linux-dmabuf/linux-dmabuf-unstable-v1.xml",
	)
	writeTree(t, root, "wayland.xml")
	return f
}

func (f fixture) dest(parts ...string) string {
	return filepath.Join(append([]string{f.out}, parts...)...)
}

func (f fixture) source(rel string) string {
	return filepath.Join(f.src, filepath.FromSlash(rel))
}

func TestRunGeneratesEverySource(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder("gen")

	report, err := New(rec).Run(context.Background(), []Pass{
		{Name: "protocols", Source: f.src, Destination: f.out},
	})
	require.NoError(t, err)

	want := []generator.Job{
		{Pass: "protocols", Source: f.source("stable/viewporter/viewporter.xml"), Destination: f.dest("Stable", "Viewporter", "Viewporter"), Mode: generator.ModeClient},
		{Pass: "protocols", Source: f.source("stable/xdg-shell/xdg-shell.xml"), Destination: f.dest("Stable", "XdgShell", "XdgShell"), Mode: generator.ModeClient},
		{Pass: "protocols", Source: f.source("staging/xdg-activation/xdg-activation-v1.xml"), Destination: f.dest("Staging", "XdgActivation", "XdgActivationV1"), Mode: generator.ModeClient},
		{Pass: "protocols", Source: f.source("unstable/linux-dmabuf/linux-dmabuf-unstable-v1.xml"), Destination: f.dest("Unstable", "LinuxDmabuf", "LinuxDmabufUnstableV1"), Mode: generator.ModeClient},
	}
	if diff := cmp.Diff(want, rec.Jobs()); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 4, report.Planned)
	assert.Equal(t, 4, report.Succeeded())
	assert.Empty(t, report.Failed())
	assert.NotEmpty(t, report.RunID)
	assert.False(t, report.Finished.Before(report.Started))
}

func TestRunDefaultLayoutAcceptsExperimentalTier(t *testing.T) {
	root := t.TempDir()
	src, out := filepath.Join(root, "protocols"), filepath.Join(root, "Sources")
	writeTree(t, src,
		"stable/xdg-shell/xdg-shell.xml",
		"experimental/xx-foo/xx-foo-v1.xml",
	)
	rec := generator.NewRecorder("gen")

	report, err := New(rec).Run(context.Background(), []Pass{{Name: "protocols", Source: src, Destination: out}})
	require.NoError(t, err)

	want := []generator.Job{
		{Pass: "protocols", Source: filepath.Join(src, "experimental", "xx-foo", "xx-foo-v1.xml"), Destination: filepath.Join(out, "Experimental", "XxFoo", "XxFooV1"), Mode: generator.ModeClient},
		{Pass: "protocols", Source: filepath.Join(src, "stable", "xdg-shell", "xdg-shell.xml"), Destination: filepath.Join(out, "Stable", "XdgShell", "XdgShell"), Mode: generator.ModeClient},
	}
	if diff := cmp.Diff(want, rec.Jobs()); diff != "" {
		t.Errorf("jobs mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 2, report.Succeeded())
}

func TestRunLayeredPassesWithImports(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder("gen")

	_, err := New(rec, WithMode(generator.ModeServer)).Run(context.Background(), []Pass{
		{Name: "core", File: filepath.Join(f.root, "wayland.xml"), Destination: f.dest("SwiftWayland"), Import: "SwiftWaylandCommon"},
		{Name: "stable", Source: filepath.Join(f.src, "stable"), Tier: "stable", Destination: f.out, Import: "SwiftWayland"},
		{Name: "unstable", Source: filepath.Join(f.src, "unstable"), Tier: "unstable", Destination: f.out},
	})
	require.NoError(t, err)

	want := [][]string{
		{"gen", "server", filepath.Join(f.root, "wayland.xml"), f.dest("SwiftWayland"), "--import", "SwiftWaylandCommon"},
		{"gen", "server", f.source("stable/viewporter/viewporter.xml"), f.dest("Stable", "Viewporter", "Viewporter"), "--import", "SwiftWayland"},
		{"gen", "server", f.source("stable/xdg-shell/xdg-shell.xml"), f.dest("Stable", "XdgShell", "XdgShell"), "--import", "SwiftWayland"},
		{"gen", "server", f.source("unstable/linux-dmabuf/linux-dmabuf-unstable-v1.xml"), f.dest("Unstable", "LinuxDmabuf", "LinuxDmabufUnstableV1")},
	}
	if diff := cmp.Diff(want, rec.Calls()); diff != "" {
		t.Errorf("argument lists mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanCollisionStopsBeforeGeneration(t *testing.T) {
	f := newFixture(t)
	other := filepath.Join(f.root, "vendor")
	writeTree(t, other, "stable/xdg-shell/xdg-shell.xml")
	rec := generator.NewRecorder()

	_, err := New(rec).Run(context.Background(), []Pass{
		{Name: "upstream", Source: f.src, Destination: f.out},
		{Name: "vendor", Source: other, Destination: f.out},
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeCollision), "got %v", err)
	assert.Contains(t, err.Error(), f.dest("Stable", "XdgShell", "XdgShell"))
	assert.Contains(t, err.Error(), f.source("stable/xdg-shell/xdg-shell.xml"))
	assert.Contains(t, err.Error(), filepath.Join(other, "stable", "xdg-shell", "xdg-shell.xml"))
	assert.Empty(t, rec.Jobs())
}

func TestPlanCollisionWithSingleFile(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder()

	_, err := New(rec).Plan([]Pass{
		{Source: f.src, Destination: f.out},
		{File: filepath.Join(f.root, "wayland.xml"), Destination: f.dest("Stable", "Viewporter", "Viewporter")},
	})
	assert.True(t, errors.IsCode(err, errors.CodeCollision), "got %v", err)
}

func TestRunLayoutErrorStopsBeforeGeneration(t *testing.T) {
	f := newFixture(t)
	writeTree(t, f.src, "stable/stray.xml")
	rec := generator.NewRecorder()

	report, err := New(rec).Run(context.Background(), []Pass{{Source: f.src, Destination: f.out}})
	assert.True(t, errors.IsCode(err, errors.CodeLayout), "got %v", err)
	assert.Contains(t, err.Error(), "stray.xml")
	assert.Empty(t, rec.Jobs())
	assert.Equal(t, 0, report.Planned)
}

func TestRunEnumerationErrorIsFatal(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder()

	_, err := New(rec).Run(context.Background(), []Pass{
		{Name: "protocols", Source: f.src, Destination: f.out},
		{Name: "missing", Source: filepath.Join(f.root, "nope"), Destination: f.out},
	})
	assert.True(t, errors.IsCode(err, errors.CodeEnumeration), "got %v", err)
	assert.Empty(t, rec.Jobs())
}

func TestRunAbortPolicyStopsAtFirstFailure(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder()
	rec.FailOn(f.source("stable/xdg-shell/xdg-shell.xml"), nil)

	report, err := New(rec).Run(context.Background(), []Pass{{Source: f.src, Destination: f.out}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvocation))
	assert.Contains(t, err.Error(), f.source("stable/xdg-shell/xdg-shell.xml"))
	assert.Len(t, rec.Jobs(), 2)
	assert.Equal(t, 1, report.Succeeded())
	assert.Len(t, report.Failed(), 1)
	assert.Equal(t, 2, report.Skipped())
}

func TestRunContinuePolicyReportsEveryFailure(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder()
	rec.FailOn(f.source("stable/xdg-shell/xdg-shell.xml"), nil)
	rec.FailOn(f.source("unstable/linux-dmabuf/linux-dmabuf-unstable-v1.xml"), nil)

	report, err := New(rec, WithPolicy(PolicyContinue)).Run(context.Background(), []Pass{{Source: f.src, Destination: f.out}})
	require.Error(t, err)
	assert.Len(t, rec.Jobs(), 4)
	assert.Equal(t, 2, report.Succeeded())
	assert.Len(t, report.Failed(), 2)
	assert.Equal(t, 0, report.Skipped())
	assert.Contains(t, err.Error(), f.dest("Stable", "XdgShell", "XdgShell"))
	assert.Contains(t, err.Error(), f.dest("Unstable", "LinuxDmabuf", "LinuxDmabufUnstableV1"))
	assert.True(t, errors.IsCode(err, errors.CodeInvocation))
}

func TestRunStopsWhenCanceled(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder()
	ctx, cancel := context.WithCancel(context.Background())

	obs := WithObserver(func(step, _ int, _ generator.Job) {
		if step == 2 {
			cancel()
		}
	})
	report, err := New(rec, obs, WithPolicy(PolicyContinue)).Run(ctx, []Pass{{Source: f.src, Destination: f.out}})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, report.Results, 2)
	assert.Len(t, rec.Jobs(), 1)
}

func TestRunObserverSeesEveryStep(t *testing.T) {
	f := newFixture(t)
	var steps [][2]int
	obs := WithObserver(func(step, total int, _ generator.Job) {
		steps = append(steps, [2]int{step, total})
	})

	_, err := New(generator.NewRecorder(), obs).Run(context.Background(), []Pass{{Source: f.src, Destination: f.out}})
	require.NoError(t, err)
	assert.Equal(t, [][2]int{{1, 4}, {2, 4}, {3, 4}, {4, 4}}, steps)
}

func TestPlanDoesNotDependOnCreationOrder(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeTree(t, a, "stable/b/b.xml", "stable/a/a.xml", "unstable/c/c.xml")
	writeTree(t, b, "unstable/c/c.xml", "stable/a/a.xml", "stable/b/b.xml")

	destinations := func(root string) []string {
		jobs, err := New(generator.NewRecorder()).Plan([]Pass{{Source: root, Destination: "/out"}})
		require.NoError(t, err)
		var out []string
		for _, j := range jobs {
			out = append(out, j.Destination)
		}
		return out
	}
	assert.ElementsMatch(t, destinations(a), destinations(b))
}

func TestPlanWithIncludeFilterAndOpenTiers(t *testing.T) {
	f := newFixture(t)
	writeTree(t, f.src, "README.md", "deprecated/foo/foo.xml")

	orch := New(generator.NewRecorder(),
		WithScanner(scan.New(scan.WithInclude("**/*.xml"))),
		WithLayout(&layout.Layout{}),
	)
	jobs, err := orch.Plan([]Pass{{Source: f.src, Destination: f.out}})
	require.NoError(t, err)
	assert.Len(t, jobs, 5)
	assert.Equal(t, f.dest("Deprecated", "Foo", "Foo"), jobs[0].Destination)
}

func TestPlanRejectsInvalidPasses(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name string
		pass Pass
		code errors.Code
	}{
		{"no source", Pass{Destination: f.out}, errors.CodeInvalidArgument},
		{"both source and file", Pass{Source: f.src, File: "wayland.xml", Destination: f.out}, errors.CodeInvalidArgument},
		{"no destination", Pass{Source: f.src}, errors.CodeInvalidArgument},
		{"tier on file", Pass{File: "wayland.xml", Tier: "stable", Destination: f.out}, errors.CodeInvalidArgument},
		{"unknown tier", Pass{Source: f.src, Tier: "deprecated", Destination: f.out}, errors.CodeLayout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(generator.NewRecorder()).Plan([]Pass{tt.pass})
			assert.True(t, errors.IsCode(err, tt.code), "got %v", err)
		})
	}
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, PolicyAbort, p)
	p, err = ParsePolicy("Continue")
	require.NoError(t, err)
	assert.Equal(t, PolicyContinue, p)
	_, err = ParsePolicy("retry")
	assert.True(t, errors.IsCode(err, errors.CodeInvalidArgument))
}

func TestRunLogsEveryJobWithRunID(t *testing.T) {
	f := newFixture(t)
	rec := generator.NewRecorder()
	rec.FailOn(f.source("stable/xdg-shell/xdg-shell.xml"), nil)
	logger := logxtest.New(t)

	report, err := New(rec, WithLogger(logger), WithPolicy(PolicyContinue)).Run(context.Background(), []Pass{
		{Name: "protocols", Source: f.src, Destination: f.out},
	})
	require.Error(t, err)

	logger.AssertLogged("INFO", "starting generation")
	generated := logger.Find("INFO", "generated")
	require.Len(t, generated, 3)
	for _, e := range generated {
		assert.Equal(t, report.RunID, e.Fields["run_id"])
		assert.Equal(t, "protocols", e.Fields["pass"])
		assert.NotEmpty(t, e.Fields["destination"])
	}

	failed := logger.Find("ERROR", "generation failed")
	require.Len(t, failed, 1)
	assert.Equal(t, f.source("stable/xdg-shell/xdg-shell.xml"), failed[0].Fields["source"])
	assert.Equal(t, 1, failed[0].Fields["exit_code"])
	assert.True(t, errors.IsCode(failed[0].Error, errors.CodeInvocation))
	logger.AssertLogged("WARN", "generation finished with failures")
}

func TestPlanWarnsAboutEmptyPass(t *testing.T) {
	logger := logxtest.New(t)
	jobs, err := New(generator.NewRecorder(), WithLogger(logger)).Plan([]Pass{{Name: "empty", Source: t.TempDir(), Destination: "/out"}})
	require.NoError(t, err)
	assert.Empty(t, jobs)
	logger.AssertLogged("WARN", "pass has no source files")
}
