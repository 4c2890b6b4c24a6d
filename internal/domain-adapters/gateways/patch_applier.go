package gateways

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
	"github.com/ochairo/forge/internal/domain/interfaces/gateways"
)

// Detached signature suffixes looked up next to each patch, in order
var signatureSuffixes = []string{".asc", ".sig"}

// PatchApplier applies unified diffs to a checkout with the patch utility
type PatchApplier struct {
	runner     *ProcessRunner
	patch      string
	patchesDir string
	strip      int
	verifier   gateways.SignatureVerifier
	logger     interfaces.Logger
}

// NewPatchApplier creates a patch applier. When verifier is non-nil every
// patch must carry a valid detached signature before it is applied.
func NewPatchApplier(runner *ProcessRunner, config entities.BuildConfig, verifier gateways.SignatureVerifier, logger interfaces.Logger) *PatchApplier {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	config = config.WithDefaults()
	return &PatchApplier{
		runner:     runner,
		patch:      config.Patch,
		patchesDir: config.PatchesDir,
		strip:      config.StripLevel,
		verifier:   verifier,
		logger:     logger,
	}
}

// ResolvePatch returns the on-disk path of a manifest patch name
func (a *PatchApplier) ResolvePatch(name string) (string, error) {
	path := filepath.Join(a.patchesDir, filepath.FromSlash(name))
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return abs, nil
}

// Apply applies patches in order against checkoutDir. The first patch that
// is missing, unsigned or does not apply cleanly stops the run.
func (a *PatchApplier) Apply(ctx context.Context, checkoutDir string, patches []string) error {
	for i, name := range patches {
		op := fmt.Sprintf("patch %d/%d %s", i+1, len(patches), name)

		path, err := a.ResolvePatch(name)
		if err != nil {
			return entities.NewPatchError(op, err)
		}
		if _, err := os.Stat(path); err != nil {
			return entities.NewPatchError(op, err)
		}

		if a.verifier != nil {
			if err := a.verifySignature(path); err != nil {
				return entities.NewPatchError(op, err)
			}
		}

		a.logger.Info("applying patch",
			interfaces.F("patch", name),
			interfaces.F("index", i+1),
			interfaces.F("total", len(patches)),
		)
		if err := a.runner.Run(ctx, RunConfig{
			Name: a.patch,
			// -N and -t keep the utility from prompting on a terminal.
			Args:        []string{fmt.Sprintf("-p%d", a.strip), "-N", "-t", "-i", path},
			Dir:         checkoutDir,
			Description: "patch",
		}); err != nil {
			return entities.NewPatchError(op, err)
		}
	}

	return nil
}

func (a *PatchApplier) verifySignature(patchPath string) error {
	sigPath, err := FindSignature(patchPath)
	if err != nil {
		return err
	}
	if err := a.verifier.VerifyDetachedSignature(patchPath, sigPath); err != nil {
		return err
	}
	a.logger.Debug("patch signature verified", interfaces.F("signature", sigPath))
	return nil
}

// FindSignature returns the detached signature stored next to patchPath
func FindSignature(patchPath string) (string, error) {
	for _, suffix := range signatureSuffixes {
		candidate := patchPath + suffix
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no detached signature found for %s", filepath.Base(patchPath))
}
