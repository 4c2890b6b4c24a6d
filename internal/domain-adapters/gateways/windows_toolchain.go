package gateways

import (
	"context"
	"path/filepath"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// Labels vcbuild.bat accepts as its target argument
var windowsTargets = map[string]struct{}{
	"x86":   {},
	"x64":   {},
	"arm64": {},
}

// WindowsToolchain runs the checkout's vcbuild.bat through the command shell
type WindowsToolchain struct {
	runner *ProcessRunner
	shell  string
	logger interfaces.Logger
}

// NewWindowsToolchain creates the vcbuild.bat toolchain
func NewWindowsToolchain(runner *ProcessRunner, config entities.BuildConfig, logger interfaces.Logger) *WindowsToolchain {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	config = config.WithDefaults()
	return &WindowsToolchain{runner: runner, shell: config.Shell, logger: logger}
}

// Name returns "windows"
func (w *WindowsToolchain) Name() string {
	return "windows"
}

// SupportsTarget reports whether vcbuild.bat accepts target
func (w *WindowsToolchain) SupportsTarget(target string) bool {
	_, ok := windowsTargets[target]
	return ok
}

// Targets returns the accepted labels
func (w *WindowsToolchain) Targets() []string {
	return sortedKeys(windowsTargets)
}

// Compile runs "vcbuild.bat <target> nosign". The binary lands in Release/node.exe.
func (w *WindowsToolchain) Compile(ctx context.Context, checkoutDir, target string) (string, error) {
	if !w.SupportsTarget(target) {
		return "", unsupportedTarget(w, target)
	}

	w.logger.Info("compiling", interfaces.F("target", target), interfaces.F("script", "vcbuild.bat"))
	if err := w.runner.Run(ctx, RunConfig{
		Name:        w.shell,
		Args:        []string{"/c", "vcbuild.bat", target, "nosign"},
		Dir:         checkoutDir,
		Description: "vcbuild",
	}); err != nil {
		return "", entities.NewCompileError("vcbuild "+target, err)
	}

	return filepath.Join(checkoutDir, "Release", "node.exe"), nil
}
