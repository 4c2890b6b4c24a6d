package gateways

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// Publisher copies a compiled binary to its destination path
type Publisher struct {
	logger interfaces.Logger
}

// NewPublisher creates a new publisher
func NewPublisher(logger interfaces.Logger) *Publisher {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Publisher{logger: logger}
}

// Publish copies src to dest, creating dest's parent directories. The copy is
// written to a temporary file beside dest and renamed over it, so an existing
// artifact is replaced whole. The returned artifact carries the size and
// SHA-256 of the copied bytes.
func (p *Publisher) Publish(ctx context.Context, src, dest string) (*entities.Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, entities.NewIOError("publish", err)
	}

	info, err := os.Stat(src)
	if err != nil {
		return nil, entities.NewIOError("stat compiled binary", err)
	}
	if info.IsDir() {
		return nil, entities.NewIOError("stat compiled binary", fmt.Errorf("%s is a directory", src))
	}

	destDir := filepath.Dir(dest)
	if err := os.MkdirAll(destDir, 0750); err != nil {
		return nil, entities.NewIOError("create destination directory", err)
	}

	tmp, err := os.CreateTemp(destDir, "."+filepath.Base(dest)+".*")
	if err != nil {
		return nil, entities.NewIOError("create destination", err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	//nolint:gosec // G304: Source path is produced by the toolchain inside the workspace
	in, err := os.Open(src)
	if err != nil {
		return nil, entities.NewIOError("open compiled binary", err)
	}
	defer func() { _ = in.Close() }()

	hasher := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, hasher), in)
	if err != nil {
		return nil, entities.NewIOError("copy binary", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, entities.NewIOError("copy binary", err)
	}

	if err := os.Chmod(tmpPath, publishMode(info.Mode())); err != nil {
		return nil, entities.NewIOError("set permissions", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return nil, entities.NewIOError("replace destination", err)
	}
	committed = true

	artifact := &entities.Artifact{
		Name:   filepath.Base(dest),
		Path:   dest,
		Type:   "binary",
		Size:   size,
		SHA256: hex.EncodeToString(hasher.Sum(nil)),
	}

	p.logger.Info("published artifact",
		interfaces.F("path", dest),
		interfaces.F("size", size),
		interfaces.F("sha256", artifact.SHA256),
	)
	return artifact, nil
}

// publishMode keeps the source permissions and makes the result executable
func publishMode(src os.FileMode) os.FileMode {
	mode := src.Perm()
	if runtime.GOOS != "windows" {
		mode |= 0755
	}
	return mode
}
