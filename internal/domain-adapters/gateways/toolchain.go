package gateways

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/domain/interfaces"
)

// Toolchain compiles a patched checkout with the host's native build system
type Toolchain interface {
	// Name identifies the toolchain in logs and build summaries
	Name() string
	// SupportsTarget reports whether target is a known architecture label
	SupportsTarget(target string) bool
	// Targets lists the accepted architecture labels
	Targets() []string
	// Compile builds checkoutDir for target and returns the produced binary path
	Compile(ctx context.Context, checkoutDir, target string) (string, error)
}

// NewToolchain selects the toolchain for goos. An empty goos means the host OS.
func NewToolchain(goos string, runner *ProcessRunner, config entities.BuildConfig, logger interfaces.Logger) Toolchain {
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos == "windows" {
		return NewWindowsToolchain(runner, config, logger)
	}
	return NewUnixToolchain(runner, config, logger)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func unsupportedTarget(toolchain Toolchain, target string) error {
	return entities.NewCompileError("select target",
		fmt.Errorf("%s toolchain does not support target %q (supported: %v)",
			toolchain.Name(), target, toolchain.Targets()))
}
