// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
	"github.com/ochairo/forge/internal/domain/interfaces/repositories"
)

// Workspace interface for the scratch directory a build runs in
type Workspace interface {
	Prepare(ctx context.Context) (string, error)
	Release() error
	Keep() error
}

// SourceFetcher interface for cloning the upstream source at a revision
type SourceFetcher interface {
	Fetch(ctx context.Context, workspaceDir, revision string) (string, error)
}

// PatchApplier interface for applying an ordered patch list to a checkout
type PatchApplier interface {
	Apply(ctx context.Context, checkoutDir string, patches []string) error
}

// Toolchain interface for compiling a checkout for a target architecture
type Toolchain interface {
	Name() string
	SupportsTarget(target string) bool
	Targets() []string
	Compile(ctx context.Context, checkoutDir, target string) (string, error)
}

// Publisher interface for copying the compiled binary to its destination
type Publisher interface {
	Publish(ctx context.Context, src, dest string) (*entities.Artifact, error)
}

// BuildOrchestrator coordinates the complete patched-runtime build workflow
type BuildOrchestrator struct {
	manifests      repositories.ManifestRepository
	workspace      Workspace
	fetcher        SourceFetcher
	patcher        PatchApplier
	toolchain      Toolchain
	publisher      Publisher
	requirePatches bool
	keepWorkspace  bool
	logger         interfaces.Logger
}

// BuildOrchestratorConfig holds configuration for the orchestrator
type BuildOrchestratorConfig struct {
	RequirePatches bool // Reject revisions missing from the manifest
	KeepWorkspace  bool // Leave the scratch directory in place after the build
}

// NewBuildOrchestrator creates a new build orchestrator
func NewBuildOrchestrator(
	manifests repositories.ManifestRepository,
	workspace Workspace,
	fetcher SourceFetcher,
	patcher PatchApplier,
	toolchain Toolchain,
	publisher Publisher,
	config BuildOrchestratorConfig,
	logger interfaces.Logger,
) *BuildOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &BuildOrchestrator{
		manifests:      manifests,
		workspace:      workspace,
		fetcher:        fetcher,
		patcher:        patcher,
		toolchain:      toolchain,
		publisher:      publisher,
		requirePatches: config.RequirePatches,
		keepWorkspace:  config.KeepWorkspace,
		logger:         logger,
	}
}

// BuildResult contains the result of a build operation
type BuildResult struct {
	Request         entities.BuildRequest
	Toolchain       string
	Patches         []string
	Artifact        *entities.Artifact
	FetchDuration   time.Duration
	PatchDuration   time.Duration
	CompileDuration time.Duration
	TotalDuration   time.Duration
	Success         bool
	Error           error
}

// Build runs prepare, fetch, patch, compile and publish in order. The first
// failing step aborts the build. The workspace is released on every path once
// it has been prepared; a release failure after a successful build is
// returned as an IOError, after a failed build it is only logged.
func (o *BuildOrchestrator) Build(ctx context.Context, req entities.BuildRequest) (result *BuildResult, err error) {
	startTime := time.Now()
	result = &BuildResult{Request: req, Toolchain: o.toolchain.Name()}
	defer func() {
		result.TotalDuration = time.Since(startTime)
		result.Error = err
		result.Success = err == nil
	}()

	// Step 1: Validate request
	if err := req.Validate(); err != nil {
		return result, err
	}
	if !o.toolchain.SupportsTarget(req.Target) {
		return result, entities.NewInvalidRequestError("validate",
			fmt.Errorf("target %q is not supported by the %s toolchain (supported: %v)",
				req.Target, o.toolchain.Name(), o.toolchain.Targets()))
	}

	// Step 2: Resolve the patch set
	patches, err := o.resolvePatches(ctx, req.Revision)
	if err != nil {
		return result, err
	}
	result.Patches = patches

	log := o.logger.Named("build")
	log.Info("starting build",
		interfaces.F("revision", req.Revision),
		interfaces.F("target", req.Target),
		interfaces.F("toolchain", o.toolchain.Name()),
		interfaces.F("patches", len(patches)),
	)

	// Step 3: Prepare workspace; released on every exit path from here on
	workspaceDir, err := o.workspace.Prepare(ctx)
	if err != nil {
		return result, err
	}
	defer func() {
		release := o.workspace.Release
		if o.keepWorkspace {
			log.Warn("keeping workspace", interfaces.F("dir", workspaceDir))
			release = o.workspace.Keep
		}
		releaseErr := release()
		if releaseErr == nil {
			return
		}
		if err != nil {
			log.Error("failed to release workspace after failed build",
				interfaces.F("dir", workspaceDir),
				interfaces.F("error", releaseErr),
			)
			return
		}
		err = entities.NewIOError("release workspace", releaseErr)
	}()

	// Step 4: Fetch source
	fetchStart := time.Now()
	checkoutDir, err := o.fetcher.Fetch(ctx, workspaceDir, req.Revision)
	if err != nil {
		return result, err
	}
	result.FetchDuration = time.Since(fetchStart)

	// Step 5: Apply patches
	patchStart := time.Now()
	if err := o.patcher.Apply(ctx, checkoutDir, patches); err != nil {
		return result, err
	}
	result.PatchDuration = time.Since(patchStart)

	// Step 6: Compile
	compileStart := time.Now()
	binaryPath, err := o.toolchain.Compile(ctx, checkoutDir, req.Target)
	if err != nil {
		return result, err
	}
	result.CompileDuration = time.Since(compileStart)

	// Step 7: Publish
	artifact, err := o.publisher.Publish(ctx, binaryPath, req.Destination)
	if err != nil {
		return result, err
	}
	artifact.Version = req.Revision
	artifact.Platform = req.Target
	result.Artifact = artifact

	log.Info("build finished", interfaces.F("artifact", artifact.Path))
	return result, nil
}

// resolvePatches looks the revision up in the manifest. A revision without an
// entry builds unpatched unless patches are required.
func (o *BuildOrchestrator) resolvePatches(ctx context.Context, revision string) ([]string, error) {
	manifest, err := o.manifests.GetManifest(ctx)
	if err != nil {
		return nil, entities.NewIOError("load patch manifest", err)
	}

	patches, found := manifest.Patches(revision)
	if found {
		return patches, nil
	}
	if o.requirePatches {
		return nil, entities.NewPatchError("resolve patches",
			fmt.Errorf("revision %q has no entry in the patch manifest", revision))
	}

	o.logger.Warn("revision not in patch manifest, building without patches",
		interfaces.F("revision", revision),
	)
	return []string{}, nil
}

// GetBuildSummary returns a human-readable summary of the build
func (r *BuildResult) GetBuildSummary() string {
	if !r.Success {
		return fmt.Sprintf("Build failed (%s): %v", entities.ErrorKind(r.Error), r.Error)
	}

	return fmt.Sprintf(`Build successful!
Revision: %s
Target: %s (%s toolchain)
Patches: %d
Artifact: %s (%s)
SHA256: %s
Fetch: %v
Patch: %v
Compile: %v
Total: %v`,
		r.Request.Revision,
		r.Request.Target,
		r.Toolchain,
		len(r.Patches),
		r.Artifact.Path,
		humanize.Bytes(uint64(r.Artifact.Size)), //nolint:gosec // G115: Sizes are never negative
		r.Artifact.SHA256,
		r.FetchDuration.Round(time.Millisecond),
		r.PatchDuration.Round(time.Millisecond),
		r.CompileDuration.Round(time.Millisecond),
		r.TotalDuration.Round(time.Millisecond),
	)
}
