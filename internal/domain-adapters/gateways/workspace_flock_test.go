//go:build linux || darwin || freebsd

package gateways

import (
	"context"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/forge/internal/domain/entities"
)

// A build that opened the lock file while another build held it must contend
// for the same file once the holder releases.
func TestScratchWorkspace_Release_KeepsLockFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "temp")

	first := NewScratchWorkspace(dir, nil)
	_, err := first.Prepare(context.Background())
	require.NoError(t, err)

	waiting, err := os.OpenFile(dir+".lock", os.O_RDWR, 0600)
	require.NoError(t, err)
	defer waiting.Close()

	require.NoError(t, first.Release())
	assert.FileExists(t, dir+".lock")

	require.NoError(t, syscall.Flock(int(waiting.Fd()), syscall.LOCK_EX|syscall.LOCK_NB))
	defer func() { _ = syscall.Flock(int(waiting.Fd()), syscall.LOCK_UN) }()

	third := NewScratchWorkspace(dir, nil)
	_, err = third.Prepare(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, entities.ErrIO)
	assert.Contains(t, err.Error(), "in use by another build")
}
