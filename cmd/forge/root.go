package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/ochairo/forge/internal/domain/interfaces"
	"github.com/ochairo/forge/internal/external-adapters/logging"
)

// globalOptions holds the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	lookupEnv  func(string) (string, bool)
}

// newRootCmd builds the command tree. lookupEnv supplies FORGE_* settings.
func newRootCmd(lookupEnv func(string) (string, bool)) *cobra.Command {
	global := &globalOptions{lookupEnv: lookupEnv}

	root := &cobra.Command{
		Use:   "forge",
		Short: "Build patched runtime binaries from upstream source",
		Long: `forge clones an upstream runtime repository at a pinned revision, applies
the patches listed for that revision in a manifest, compiles it with the host's
native toolchain and copies the resulting binary to a destination path.`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&global.configPath, "config", "", "Config file (default \"forge.yml\" when present)")
	pf.StringVar(&global.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error (env "+logging.LogLevelEnvVar+")")
	pf.StringVar(&global.logFormat, "log-format", "", "Log format: text or json (env "+logging.LogFormatEnvVar+")")

	root.AddCommand(
		newBuildCmd(global),
		newPatchesCmd(global),
		newVersionCmd(),
	)
	return root
}

func (g *globalOptions) newLogger(output io.Writer) interfaces.Logger {
	return logging.New(logging.Options{
		Name:   "forge",
		Level:  g.logLevel,
		Format: g.logFormat,
		Output: output,
	})
}
