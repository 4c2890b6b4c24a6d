package gateways

import (
	"context"
	"path/filepath"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// destCPU maps architecture labels to configure's --dest-cpu values
var destCPU = map[string]string{
	"x86":   "ia32",
	"x64":   "x64",
	"armv6": "arm",
	"armv7": "arm",
	"arm64": "arm64",
}

// UnixToolchain runs ./configure followed by make
type UnixToolchain struct {
	runner *ProcessRunner
	make   string
	logger interfaces.Logger
}

// NewUnixToolchain creates the configure/make toolchain
func NewUnixToolchain(runner *ProcessRunner, config entities.BuildConfig, logger interfaces.Logger) *UnixToolchain {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	config = config.WithDefaults()
	return &UnixToolchain{runner: runner, make: config.Make, logger: logger}
}

// Name returns "unix"
func (u *UnixToolchain) Name() string {
	return "unix"
}

// SupportsTarget reports whether target has a --dest-cpu mapping
func (u *UnixToolchain) SupportsTarget(target string) bool {
	_, ok := destCPU[target]
	return ok
}

// Targets returns the mapped architecture labels
func (u *UnixToolchain) Targets() []string {
	return sortedKeys(destCPU)
}

// DestCPU returns the configure CPU identifier for target
func (u *UnixToolchain) DestCPU(target string) (string, bool) {
	cpu, ok := destCPU[target]
	return cpu, ok
}

// Compile configures and builds checkoutDir. The binary lands in out/Release/node.
func (u *UnixToolchain) Compile(ctx context.Context, checkoutDir, target string) (string, error) {
	cpu, ok := u.DestCPU(target)
	if !ok {
		return "", unsupportedTarget(u, target)
	}

	u.logger.Info("configuring", interfaces.F("target", target), interfaces.F("dest_cpu", cpu))
	if err := u.runner.Run(ctx, RunConfig{
		Name:        "./configure",
		Args:        []string{"--dest-cpu", cpu},
		Dir:         checkoutDir,
		Description: "configure",
	}); err != nil {
		return "", entities.NewCompileError("configure", err)
	}

	u.logger.Info("compiling", interfaces.F("make", u.make))
	if err := u.runner.Run(ctx, RunConfig{
		Name:        u.make,
		Dir:         checkoutDir,
		Description: "make",
	}); err != nil {
		return "", entities.NewCompileError("make", err)
	}

	return filepath.Join(checkoutDir, "out", "Release", "node"), nil
}
