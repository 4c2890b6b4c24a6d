package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/forge/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/forge/internal/domain-orchestrators"
	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
	gatewayifaces "github.com/ochairo/forge/internal/domain/interfaces/gateways"
	"github.com/ochairo/forge/internal/external-adapters/yaml"
)

// BuildReport is written to --json-output after every build attempt
type BuildReport struct {
	Revision        string          `json:"revision"`
	Target          string          `json:"target"`
	Toolchain       string          `json:"toolchain"`
	Status          string          `json:"status"`
	ErrorKind       string          `json:"error_kind,omitempty"`
	Message         string          `json:"message,omitempty"`
	Patches         []string        `json:"patches"`
	Artifact        *ArtifactReport `json:"artifact,omitempty"`
	DurationSeconds float64         `json:"duration_seconds"`
}

// ArtifactReport describes the published binary
type ArtifactReport struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

type buildOptions struct {
	request    entities.BuildRequest
	jsonOutput string
	config     configFlags
}

func newBuildCmd(global *globalOptions) *cobra.Command {
	opts := &buildOptions{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a patched runtime binary",
		Example: `  forge build --revision v8.11.3 --target x64 --output dist/node
  forge build --revision v8.11.3 --target x86 --output dist/node-ia32 --require-patches
  forge build --revision v8.11.3 --target x64 --output dist/node --fetcher embedded`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, global, opts)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&opts.request.Revision, "revision", "", "Upstream tag, branch or commit to build")
	fs.StringVar(&opts.request.Target, "target", "", "Target architecture (x86, x64, armv6, armv7, arm64)")
	fs.StringVar(&opts.request.Destination, "output", "", "Destination path of the compiled binary")
	fs.StringVar(&opts.jsonOutput, "json-output", "", "Optional JSON file for the build report")
	opts.config.registerBuildFlags(fs)

	return cmd
}

func runBuild(cmd *cobra.Command, global *globalOptions, opts *buildOptions) error {
	logger := global.newLogger(cmd.ErrOrStderr())

	cfg, err := loadBuildConfig(cmd, global, &opts.config)
	if err != nil {
		return err
	}

	buildOrch, err := newBuildOrchestrator(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}

	ctx, cancel := buildContext(cmd.Context(), cfg.Timeout)
	defer cancel()

	result, buildErr := buildOrch.Build(ctx, opts.request)
	if buildErr != nil {
		logger.Error("build failed",
			interfaces.F("kind", entities.ErrorKind(buildErr)),
			interfaces.F("error", buildErr),
		)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.GetBuildSummary())

	if opts.jsonOutput != "" {
		if err := writeBuildReport(opts.jsonOutput, result); err != nil {
			logger.Warn("failed to write JSON report", interfaces.F("path", opts.jsonOutput), interfaces.F("error", err))
		} else {
			logger.Info("JSON report written", interfaces.F("path", opts.jsonOutput))
		}
	}

	return buildErr
}

// buildContext bounds the build by timeout; a zero timeout leaves ctx unbounded
func buildContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(ctx, timeout)
	}
	return context.WithCancel(ctx)
}

// newBuildOrchestrator wires the pipeline components selected by cfg. Child
// process output goes to stdout and stderr.
func newBuildOrchestrator(cfg entities.BuildConfig, stdout, stderr io.Writer, logger interfaces.Logger) (*orchestrators.BuildOrchestrator, error) {
	runner := gateways.NewProcessRunner(logger.Named("exec"))
	runner.Stdout = stdout
	runner.Stderr = stderr

	var fetcher orchestrators.SourceFetcher
	switch cfg.Fetcher {
	case entities.FetcherEmbedded:
		fetcher = gateways.NewEmbeddedGitFetcher(cfg, stderr, logger.Named("fetch"))
	default:
		fetcher = gateways.NewGitFetcher(runner, cfg, logger.Named("fetch"))
	}

	var verifier gatewayifaces.SignatureVerifier
	if cfg.Keyring != "" {
		v, err := gateways.NewGPGVerifier(cfg.Keyring)
		if err != nil {
			return nil, err
		}
		logger.Info("patch signatures required", interfaces.F("keys", v.KeyringSize()))
		verifier = v
	}

	return orchestrators.NewBuildOrchestrator(
		yaml.NewManifestRepository(cfg.ManifestPath),
		gateways.NewScratchWorkspace(cfg.ScratchDir, logger.Named("workspace")),
		fetcher,
		gateways.NewPatchApplier(runner, cfg, verifier, logger.Named("patch")),
		gateways.NewToolchain(runtime.GOOS, runner, cfg, logger.Named("compile")),
		gateways.NewPublisher(logger.Named("publish")),
		orchestrators.BuildOrchestratorConfig{
			RequirePatches: cfg.RequirePatches,
			KeepWorkspace:  cfg.KeepWorkspace,
		},
		logger,
	), nil
}

func writeBuildReport(path string, result *orchestrators.BuildResult) error {
	report := BuildReport{
		Revision:        result.Request.Revision,
		Target:          result.Request.Target,
		Toolchain:       result.Toolchain,
		Status:          "success",
		Patches:         result.Patches,
		DurationSeconds: result.TotalDuration.Seconds(),
	}
	if report.Patches == nil {
		report.Patches = []string{}
	}
	if !result.Success {
		report.Status = "failure"
		report.ErrorKind = entities.ErrorKind(result.Error)
		report.Message = result.Error.Error()
	}
	if result.Artifact != nil {
		report.Artifact = &ArtifactReport{
			Path:   result.Artifact.Path,
			Size:   result.Artifact.Size,
			SHA256: result.Artifact.SHA256,
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
