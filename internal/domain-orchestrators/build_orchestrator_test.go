package orchestrators

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// Mock implementations for testing. Every mock appends its step name to a
// shared call log so tests can assert on ordering.
type callLog struct {
	calls []string
}

func (c *callLog) add(step string) { c.calls = append(c.calls, step) }

func (c *callLog) String() string { return strings.Join(c.calls, ",") }

type mockManifestRepository struct {
	manifest *entities.PatchManifest
	err      error
}

func (m *mockManifestRepository) GetManifest(_ context.Context) (*entities.PatchManifest, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.manifest, nil
}

type mockWorkspace struct {
	log        *callLog
	prepareErr error
	releaseErr error
	released   int
	kept       int
}

func (m *mockWorkspace) Prepare(_ context.Context) (string, error) {
	m.log.add("prepare")
	if m.prepareErr != nil {
		return "", m.prepareErr
	}
	return "/scratch", nil
}

func (m *mockWorkspace) Release() error {
	m.log.add("release")
	m.released++
	return m.releaseErr
}

func (m *mockWorkspace) Keep() error {
	m.log.add("keep")
	m.kept++
	return nil
}

type mockFetcher struct {
	log *callLog
	err error
}

func (m *mockFetcher) Fetch(_ context.Context, workspaceDir, _ string) (string, error) {
	m.log.add("fetch")
	if m.err != nil {
		return "", m.err
	}
	return workspaceDir + "/node", nil
}

type mockPatcher struct {
	log     *callLog
	err     error
	applied []string
}

func (m *mockPatcher) Apply(_ context.Context, _ string, patches []string) error {
	m.log.add("patch")
	m.applied = patches
	return m.err
}

type mockToolchain struct {
	log     *callLog
	err     error
	targets map[string]bool
}

func (m *mockToolchain) Name() string { return "mock" }

func (m *mockToolchain) SupportsTarget(target string) bool { return m.targets[target] }

func (m *mockToolchain) Targets() []string { return []string{"x64", "x86"} }

func (m *mockToolchain) Compile(_ context.Context, checkoutDir, _ string) (string, error) {
	m.log.add("compile")
	if m.err != nil {
		return "", m.err
	}
	return checkoutDir + "/out/Release/node", nil
}

type mockPublisher struct {
	log *callLog
	err error
	src string
}

func (m *mockPublisher) Publish(_ context.Context, src, dest string) (*entities.Artifact, error) {
	m.log.add("publish")
	m.src = src
	if m.err != nil {
		return nil, m.err
	}
	return &entities.Artifact{Name: "node", Path: dest, Type: "binary", Size: 2048, SHA256: "abc123"}, nil
}

type fixture struct {
	log       *callLog
	manifests *mockManifestRepository
	workspace *mockWorkspace
	fetcher   *mockFetcher
	patcher   *mockPatcher
	toolchain *mockToolchain
	publisher *mockPublisher
	logger    *interfaces.MemoryLogger
}

func newFixture() *fixture {
	log := &callLog{}
	return &fixture{
		log: log,
		manifests: &mockManifestRepository{manifest: entities.NewPatchManifest(map[string][]string{
			"v8.11.3": {"node.v8.11.3.cpp.patch", "node.v8.11.3.h.patch"},
		})},
		workspace: &mockWorkspace{log: log},
		fetcher:   &mockFetcher{log: log},
		patcher:   &mockPatcher{log: log},
		toolchain: &mockToolchain{log: log, targets: map[string]bool{"x64": true, "x86": true}},
		publisher: &mockPublisher{log: log},
		logger:    interfaces.NewMemoryLogger(),
	}
}

func (f *fixture) orchestrator(config BuildOrchestratorConfig) *BuildOrchestrator {
	return NewBuildOrchestrator(f.manifests, f.workspace, f.fetcher, f.patcher, f.toolchain, f.publisher, config, f.logger)
}

func validRequest() entities.BuildRequest {
	return entities.BuildRequest{Destination: "dist/node", Revision: "v8.11.3", Target: "x64"}
}

// Test successful build workflow
func TestBuildOrchestrator_Build_Success(t *testing.T) {
	f := newFixture()

	result, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Expected successful build, got error: %v", err)
	}

	if got, want := f.log.String(), "prepare,fetch,patch,compile,publish,release"; got != want {
		t.Errorf("Step order = %s, want %s", got, want)
	}
	if !result.Success || result.Error != nil {
		t.Errorf("Result success = %v, error = %v", result.Success, result.Error)
	}
	if strings.Join(f.patcher.applied, ",") != "node.v8.11.3.cpp.patch,node.v8.11.3.h.patch" {
		t.Errorf("Applied patches = %v", f.patcher.applied)
	}
	if f.publisher.src != "/scratch/node/out/Release/node" {
		t.Errorf("Published source = %s", f.publisher.src)
	}
	if result.Artifact.Version != "v8.11.3" || result.Artifact.Platform != "x64" {
		t.Errorf("Artifact = %+v", result.Artifact)
	}
}

// Test request validation happens before any filesystem work
func TestBuildOrchestrator_Build_InvalidRequest(t *testing.T) {
	tests := []struct {
		name string
		req  entities.BuildRequest
	}{
		{"missing destination", entities.BuildRequest{Revision: "v8.11.3", Target: "x64"}},
		{"missing revision", entities.BuildRequest{Destination: "dist/node", Target: "x64"}},
		{"missing target", entities.BuildRequest{Destination: "dist/node", Revision: "v8.11.3"}},
		{"unsupported target", entities.BuildRequest{Destination: "dist/node", Revision: "v8.11.3", Target: "mips"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), tt.req)
			if !errors.Is(err, entities.ErrInvalidRequest) {
				t.Fatalf("Build() error = %v, want ErrInvalidRequest", err)
			}
			if len(f.log.calls) != 0 {
				t.Errorf("Steps ran for invalid request: %s", f.log)
			}
		})
	}
}

// Test unknown revision builds without patches and warns
func TestBuildOrchestrator_Build_UnknownRevision(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Revision = "v20.0.0"

	result, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), req)
	if err != nil {
		t.Fatalf("Expected successful build, got error: %v", err)
	}

	if f.patcher.applied == nil || len(f.patcher.applied) != 0 {
		t.Errorf("Applied patches = %#v, want empty slice", f.patcher.applied)
	}
	if len(result.Patches) != 0 {
		t.Errorf("Result patches = %v, want none", result.Patches)
	}
	if !f.logger.HasEntry("WARN", "revision not in patch manifest, building without patches") {
		t.Errorf("Expected warning for unknown revision, got %+v", f.logger.Entries())
	}
}

// Test unknown revision fails before any work when patches are required
func TestBuildOrchestrator_Build_UnknownRevisionRequired(t *testing.T) {
	f := newFixture()
	req := validRequest()
	req.Revision = "v20.0.0"

	_, err := f.orchestrator(BuildOrchestratorConfig{RequirePatches: true}).Build(context.Background(), req)
	if !errors.Is(err, entities.ErrPatch) {
		t.Fatalf("Build() error = %v, want ErrPatch", err)
	}
	if len(f.log.calls) != 0 {
		t.Errorf("Steps ran for unknown revision: %s", f.log)
	}
}

// Test manifest load failure
func TestBuildOrchestrator_Build_ManifestError(t *testing.T) {
	f := newFixture()
	f.manifests.err = errors.New("patch manifest not found")

	_, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), validRequest())
	if !errors.Is(err, entities.ErrIO) {
		t.Fatalf("Build() error = %v, want ErrIO", err)
	}
}

// Test workspace is released on every failure after it was prepared
func TestBuildOrchestrator_Build_ReleasesOnFailure(t *testing.T) {
	fetchErr := entities.NewFetchError("git clone", errors.New("network down"))
	patchErr := entities.NewPatchError("patch 1/2", errors.New("hunk failed"))
	compileErr := entities.NewCompileError("make", errors.New("exit 2"))
	publishErr := entities.NewIOError("stat compiled binary", errors.New("missing"))

	tests := []struct {
		name  string
		setup func(f *fixture)
		want  error
		calls string
	}{
		{"fetch", func(f *fixture) { f.fetcher.err = fetchErr }, fetchErr, "prepare,fetch,release"},
		{"patch", func(f *fixture) { f.patcher.err = patchErr }, patchErr, "prepare,fetch,patch,release"},
		{"compile", func(f *fixture) { f.toolchain.err = compileErr }, compileErr, "prepare,fetch,patch,compile,release"},
		{"publish", func(f *fixture) { f.publisher.err = publishErr }, publishErr, "prepare,fetch,patch,compile,publish,release"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			tt.setup(f)

			result, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), validRequest())
			if !errors.Is(err, tt.want) {
				t.Fatalf("Build() error = %v, want %v", err, tt.want)
			}
			if got := f.log.String(); got != tt.calls {
				t.Errorf("Step order = %s, want %s", got, tt.calls)
			}
			if f.workspace.released != 1 {
				t.Errorf("Release called %d times, want 1", f.workspace.released)
			}
			if result.Success {
				t.Error("Result should not report success")
			}
		})
	}
}

// Test original error wins over a release failure
func TestBuildOrchestrator_Build_ReleaseErrorAfterFailure(t *testing.T) {
	f := newFixture()
	f.patcher.err = entities.NewPatchError("patch 1/2", errors.New("hunk failed"))
	f.workspace.releaseErr = errors.New("device busy")

	_, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), validRequest())
	if !errors.Is(err, entities.ErrPatch) {
		t.Fatalf("Build() error = %v, want ErrPatch", err)
	}
	if errors.Is(err, entities.ErrIO) {
		t.Errorf("Release error should not replace the build error: %v", err)
	}
	if !f.logger.HasEntry("ERROR", "failed to release workspace after failed build") {
		t.Error("Expected release failure to be logged")
	}
}

// Test release failure after a successful build is reported
func TestBuildOrchestrator_Build_ReleaseErrorAfterSuccess(t *testing.T) {
	f := newFixture()
	f.workspace.releaseErr = errors.New("device busy")

	result, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), validRequest())
	if !errors.Is(err, entities.ErrIO) {
		t.Fatalf("Build() error = %v, want ErrIO", err)
	}
	if result.Success {
		t.Error("Result should not report success")
	}
}

// Test prepare failure does not release a workspace it never acquired
func TestBuildOrchestrator_Build_PrepareError(t *testing.T) {
	f := newFixture()
	f.workspace.prepareErr = entities.NewIOError("lock workspace", errors.New("busy"))

	_, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), validRequest())
	if !errors.Is(err, entities.ErrIO) {
		t.Fatalf("Build() error = %v, want ErrIO", err)
	}
	if got := f.log.String(); got != "prepare" {
		t.Errorf("Step order = %s, want prepare", got)
	}
}

// Test workspace is kept when requested
func TestBuildOrchestrator_Build_KeepWorkspace(t *testing.T) {
	f := newFixture()

	_, err := f.orchestrator(BuildOrchestratorConfig{KeepWorkspace: true}).Build(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Expected successful build, got error: %v", err)
	}
	if f.workspace.released != 0 || f.workspace.kept != 1 {
		t.Errorf("Release called %d times, Keep called %d times, want 0 and 1", f.workspace.released, f.workspace.kept)
	}
}

func TestBuildResult_GetBuildSummary(t *testing.T) {
	f := newFixture()

	result, err := f.orchestrator(BuildOrchestratorConfig{}).Build(context.Background(), validRequest())
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	summary := result.GetBuildSummary()
	for _, want := range []string{"Build successful!", "Revision: v8.11.3", "Target: x64 (mock toolchain)", "Patches: 2", "2.0 kB", "abc123"} {
		if !strings.Contains(summary, want) {
			t.Errorf("Summary missing %q:\n%s", want, summary)
		}
	}

	failed := &BuildResult{Error: entities.NewCompileError("make", errors.New("exit 2"))}
	if got := failed.GetBuildSummary(); !strings.HasPrefix(got, "Build failed (compile)") {
		t.Errorf("Failed summary = %q", got)
	}
}
