package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/projweave/internal/config"
	"github.com/vk/projweave/internal/descriptor"
	"github.com/vk/projweave/internal/emit"
	"github.com/vk/projweave/internal/hcl"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type recordingEmitter struct {
	mu        sync.Mutex
	manifests []*descriptor.Manifest
	err       error
}

func (r *recordingEmitter) Emit(_ context.Context, m *descriptor.Manifest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.manifests = append(r.manifests, m)
	return r.err
}

func projects() config.MapLoader {
	return config.MapLoader{
		"/w/game/project.hcl": {
			Name: "game",
			Declarations: []config.Declaration{
				config.Source("Sources"),
				config.Define("rp_renderer=Forward"),
				config.SubProject("../ui/project.hcl"),
			},
		},
		"/w/ui/project.hcl": {
			Name: "ui",
			Declarations: []config.Declaration{
				config.Library("libs/zui"),
				config.Define("rp_renderer=Deferred"),
			},
		},
		"/w/clean/project.hcl": {
			Name:         "clean",
			Declarations: []config.Declaration{config.Source("Sources")},
		},
	}
}

func newTestApp(t *testing.T, cfg Config) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	c, err := NewConfig(cfg)
	require.NoError(t, err)

	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	a := NewApp(out, errOut, c, projects())
	t.Cleanup(func() {
		if os.Getenv("PROJWEAVE_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), errOut.String())
		}
	})
	return a, out, errOut
}

func TestRun_WritesManifestToStdout(t *testing.T) {
	a, out, errOut := newTestApp(t, Config{ProjectPath: "/w/clean/project.hcl", Output: StdoutOutput})

	require.NoError(t, a.Run(context.Background()))

	var m descriptor.Manifest
	require.NoError(t, json.Unmarshal(out.Bytes(), &m))
	assert.Equal(t, "clean", m.Name)
	assert.Equal(t, []string{"/w/clean/Sources"}, m.Sources)
	assert.Contains(t, errOut.String(), "Resolved clean: 1 sources")
}

func TestRun_ReportsDiagnostics(t *testing.T) {
	a, _, errOut := newTestApp(t, Config{ProjectPath: "/w/game/project.hcl"})
	rec := &recordingEmitter{}
	a.WithEmitter(rec)

	require.NoError(t, a.Run(context.Background()))
	require.Len(t, rec.manifests, 1)

	m := rec.manifests[0]
	literal, ok := m.Define("rp_renderer")
	require.True(t, ok)
	assert.Equal(t, "rp_renderer=Deferred", literal)
	assert.Contains(t, errOut.String(), "warning[conflicting_define] game")
}

func TestRun_StrictFailsOnWarnings(t *testing.T) {
	a, _, _ := newTestApp(t, Config{ProjectPath: "/w/game/project.hcl", Strict: true})
	rec := &recordingEmitter{}
	a.WithEmitter(rec)

	err := a.Run(context.Background())
	require.ErrorIs(t, err, ErrStrict)
	assert.Empty(t, rec.manifests, "nothing is emitted when strict mode fails")
}

func TestRun_StrictPassesWithoutWarnings(t *testing.T) {
	a, _, _ := newTestApp(t, Config{ProjectPath: "/w/clean/project.hcl", Strict: true})
	a.WithEmitter(&recordingEmitter{})
	require.NoError(t, a.Run(context.Background()))
}

func TestRun_CompositionError(t *testing.T) {
	a, _, _ := newTestApp(t, Config{ProjectPath: "/w/missing/project.hcl"})
	err := a.Run(context.Background())
	require.ErrorIs(t, err, descriptor.ErrProjectNotFound)
	assert.ErrorContains(t, err, "composition failed")
}

func TestRun_EmitError(t *testing.T) {
	a, _, _ := newTestApp(t, Config{ProjectPath: "/w/clean/project.hcl"})
	boom := errors.New("host unreachable")
	a.WithEmitter(&recordingEmitter{err: boom})

	err := a.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.ErrorContains(t, err, "failed to emit manifest")
}

func TestRun_Compare(t *testing.T) {
	prevPath := filepath.Join(t.TempDir(), "prev.json")
	prev := &descriptor.Manifest{Name: "clean", Sources: []string{"/w/clean/Old"}}
	f, err := os.Create(prevPath)
	require.NoError(t, err)
	require.NoError(t, emit.Encode(f, emit.FormatJSON, prev))
	require.NoError(t, f.Close())

	a, _, errOut := newTestApp(t, Config{ProjectPath: "/w/clean/project.hcl", ComparePath: prevPath})
	a.WithEmitter(&recordingEmitter{})
	require.NoError(t, a.Run(context.Background()))

	assert.Contains(t, errOut.String(), "-source /w/clean/Old\n")
	assert.Contains(t, errOut.String(), "+source /w/clean/Sources\n")
}

func TestRun_CompareMissingFile(t *testing.T) {
	a, _, _ := newTestApp(t, Config{ProjectPath: "/w/clean/project.hcl", ComparePath: filepath.Join(t.TempDir(), "nope.json")})
	a.WithEmitter(&recordingEmitter{})

	err := a.Run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to read manifest to compare against")
}

func TestCycle_ReturnsFiles(t *testing.T) {
	a, _, _ := newTestApp(t, Config{ProjectPath: "/w/game/project.hcl"})
	a.WithEmitter(&recordingEmitter{})

	_, files, err := a.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"/w/game/project.hcl", "/w/ui/project.hcl"}, files)
}

func TestCycle_BrokenSubProjectIsWatched(t *testing.T) {
	dir := t.TempDir()
	root := filepath.Join(dir, "project.hcl")
	child := filepath.Join(dir, "child", "project.hcl")
	require.NoError(t, os.MkdirAll(filepath.Dir(child), 0o755))
	require.NoError(t, os.WriteFile(root, []byte("name = \"root\"\nproject \"child\" {}\n"), 0o644))
	require.NoError(t, os.WriteFile(child, []byte("name = "), 0o644))

	c, err := NewConfig(Config{ProjectPath: dir, LogLevel: "debug"})
	require.NoError(t, err)
	a := NewApp(&bytes.Buffer{}, &bytes.Buffer{}, c, hcl.NewLoaderWithEnv(nil))
	a.WithEmitter(&recordingEmitter{})

	_, files, err := a.Cycle(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to parse")
	assert.Equal(t, []string{filepath.ToSlash(root), filepath.ToSlash(child)}, files)

	// Fixing the child makes the next cycle succeed.
	require.NoError(t, os.WriteFile(child, []byte("name = \"child\"\n"), 0o644))
	m, files, err := a.Cycle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "root", m.Name)
	assert.Equal(t, []string{filepath.ToSlash(root), filepath.ToSlash(child)}, files)
}

func TestNewApp_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "manifest.yaml")
	a, stdout, _ := newTestApp(t, Config{ProjectPath: "/w/clean/project.hcl", Output: out})

	require.NoError(t, a.Run(context.Background()))
	assert.Empty(t, stdout.String())

	m, err := emit.DecodeFile(out, emit.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, "clean", m.Name)
}
