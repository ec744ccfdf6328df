// Package testutil provides the harness integration tests use to write a tree
// of project files to disk and run the application against it.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/projweave/internal/app"
	"github.com/vk/projweave/internal/descriptor"
	"github.com/vk/projweave/internal/hcl"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// Bytes returns a copy of the buffered bytes.
func (b *SafeBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return bytes.Clone(b.b.Bytes())
}

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	// Dir is the temporary root the project files were written to, with
	// forward slashes.
	Dir       string
	Stdout    string
	LogOutput string
	Err       error
	// Manifest is decoded from stdout when the run succeeded.
	Manifest *descriptor.Manifest
}

// Path joins rel to the harness root the way manifests spell paths.
func (r *HarnessResult) Path(rel string) string {
	return descriptor.NormalizePath(r.Dir, rel)
}

// WriteTree writes files (relative path -> content) below dir.
func WriteTree(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		filePath := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}
}

// RunIntegrationTest writes files to a temporary directory and runs the app on
// root (relative to that directory) with a JSON manifest on stdout. env is the
// environment project files see. configure may adjust the configuration
// before it is validated.
func RunIntegrationTest(t *testing.T, files map[string]string, root string, env map[string]string, configure ...func(*app.Config)) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, root, env, configure...)
}

// RunIntegrationTestWithContext is RunIntegrationTest with a caller-provided
// context.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, root string, env map[string]string, configure ...func(*app.Config)) *HarnessResult {
	t.Helper()

	tmpDir := t.TempDir()
	WriteTree(t, tmpDir, files)
	return RunInDir(ctx, t, tmpDir, root, env, configure...)
}

// RunInDir runs the app on root (relative to tmpDir) against a tree the caller
// already prepared, e.g. one containing symbolic links.
func RunInDir(ctx context.Context, t *testing.T, tmpDir, root string, env map[string]string, configure ...func(*app.Config)) *HarnessResult {
	t.Helper()

	raw := app.Config{
		ProjectPath: filepath.Join(tmpDir, filepath.FromSlash(root)),
		Output:      app.StdoutOutput,
		Format:      "json",
		LogLevel:    "debug",
		LogFormat:   "text",
	}
	for _, fn := range configure {
		fn(&raw)
	}
	cfg, err := app.NewConfig(raw)
	require.NoError(t, err)

	stdout := &SafeBuffer{}
	logBuffer := &SafeBuffer{}
	testApp := app.NewApp(stdout, logBuffer, cfg, hcl.NewLoaderWithEnv(env))
	runErr := testApp.Run(ctx)

	if os.Getenv("PROJWEAVE_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	result := &HarnessResult{
		Dir:       filepath.ToSlash(tmpDir),
		Stdout:    stdout.String(),
		LogOutput: logBuffer.String(),
		Err:       runErr,
	}
	if runErr == nil && cfg.Output == app.StdoutOutput && cfg.Format == "json" {
		m := new(descriptor.Manifest)
		require.NoError(t, json.Unmarshal(stdout.Bytes(), m), "stdout is not a JSON manifest:\n%s", result.Stdout)
		result.Manifest = m
	}
	return result
}
