package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// ScratchWorkspace owns the build scratch directory for the duration of one build.
// An advisory lock on "<dir>.lock" keeps two builds from sharing the directory.
type ScratchWorkspace struct {
	dir    string
	lock   *flock.Flock
	locked bool
	logger interfaces.Logger
}

// NewScratchWorkspace creates a workspace rooted at dir
func NewScratchWorkspace(dir string, logger interfaces.Logger) *ScratchWorkspace {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	dir = filepath.Clean(dir)
	return &ScratchWorkspace{
		dir:    dir,
		lock:   flock.New(dir + ".lock"),
		logger: logger,
	}
}

// Prepare locks the workspace, deletes anything left from a previous run and
// recreates the directory. The returned path is the empty scratch directory.
func (w *ScratchWorkspace) Prepare(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", entities.NewIOError("prepare workspace", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.dir), 0750); err != nil {
		return "", entities.NewIOError("create workspace parent", err)
	}

	if !w.locked {
		locked, err := w.lock.TryLock()
		if err != nil {
			return "", entities.NewIOError("lock workspace", err)
		}
		if !locked {
			return "", entities.NewIOError("lock workspace",
				fmt.Errorf("workspace %s is in use by another build", w.dir))
		}
		w.locked = true
	}

	w.logger.Debug("removing previous workspace", interfaces.F("dir", w.dir))
	if err := os.RemoveAll(w.dir); err != nil {
		w.unlock()
		return "", entities.NewIOError("remove workspace", err)
	}

	if err := os.MkdirAll(w.dir, 0750); err != nil {
		w.unlock()
		return "", entities.NewIOError("create workspace", err)
	}

	w.logger.Info("workspace ready", interfaces.F("dir", w.dir))
	return w.dir, nil
}

// Release removes the scratch directory and drops the lock.
// Releasing an already released workspace is a no-op.
func (w *ScratchWorkspace) Release() error {
	if err := os.RemoveAll(w.dir); err != nil {
		return entities.NewIOError("remove workspace", err)
	}
	w.logger.Debug("workspace removed", interfaces.F("dir", w.dir))

	w.unlock()
	return nil
}

// Keep drops the lock but leaves the scratch directory on disk for inspection
func (w *ScratchWorkspace) Keep() error {
	w.logger.Info("workspace kept", interfaces.F("dir", w.dir))
	w.unlock()
	return nil
}

func (w *ScratchWorkspace) unlock() {
	if !w.locked {
		return
	}
	// The lock file stays on disk: removing it would let a build that already
	// opened it lock a different inode than the next one.
	if err := w.lock.Unlock(); err != nil {
		w.logger.Warn("failed to unlock workspace", interfaces.F("error", err))
	}
	w.locked = false
}
