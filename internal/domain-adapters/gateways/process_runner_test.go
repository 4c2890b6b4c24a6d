package gateways

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/forge/internal/domain/interfaces"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

// newTestRunner returns a runner whose output lands in a buffer
func newTestRunner() (*ProcessRunner, *bytes.Buffer) {
	var out bytes.Buffer
	r := NewProcessRunner(&interfaces.NoOpLogger{})
	r.Stdin = nil
	r.Stdout = &out
	r.Stderr = &out
	return r, &out
}

func TestProcessRunner_Run_Success(t *testing.T) {
	requireShell(t)
	r, out := newTestRunner()

	err := r.Run(context.Background(), RunConfig{
		Name:        "/bin/sh",
		Args:        []string{"-c", "echo 'Hello, World!'"},
		Description: "test echo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello, World!\n", out.String())
}

func TestProcessRunner_Run_ExitCode(t *testing.T) {
	requireShell(t)
	r, _ := newTestRunner()

	err := r.Run(context.Background(), RunConfig{
		Name: "/bin/sh",
		Args: []string{"-c", "exit 42"},
	})
	require.Error(t, err)

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr), "want *ProcessError, got %T", err)
	assert.Equal(t, 42, procErr.ExitCode)
}

func TestProcessRunner_Run_NotFound(t *testing.T) {
	r, _ := newTestRunner()

	err := r.Run(context.Background(), RunConfig{Name: "forge-test-no-such-binary"})

	var procErr *ProcessError
	require.True(t, errors.As(err, &procErr), "want *ProcessError, got %T", err)
	assert.Equal(t, -1, procErr.ExitCode)
}

func TestProcessRunner_Run_WithEnvironment(t *testing.T) {
	requireShell(t)
	r, out := newTestRunner()

	err := r.Run(context.Background(), RunConfig{
		Name: "/bin/sh",
		Args: []string{"-c", "echo $TEST_VAR"},
		Env: map[string]string{
			"TEST_VAR": "test_value",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "test_value\n", out.String())
}

func TestProcessRunner_Run_Cancelled(t *testing.T) {
	requireShell(t)
	r, _ := newTestRunner()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := r.Run(ctx, RunConfig{
		Name: "/bin/sh",
		Args: []string{"-c", "exec sleep 5"},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestProcessRunner_Run_WorkingDirectory(t *testing.T) {
	requireShell(t)
	r, out := newTestRunner()
	tempDir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "test.txt"), []byte("content"), 0600))

	err := r.Run(context.Background(), RunConfig{
		Name: "/bin/sh",
		Args: []string{"-c", "ls test.txt"},
		Dir:  tempDir,
	})
	require.NoError(t, err)
	assert.Equal(t, "test.txt\n", out.String())
}

func TestRunConfig_CommandLine(t *testing.T) {
	cfg := RunConfig{Name: "./configure", Args: []string{"--dest-cpu", "ia32"}}
	assert.Equal(t, "./configure --dest-cpu ia32", cfg.CommandLine())
}
