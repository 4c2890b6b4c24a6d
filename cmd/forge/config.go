package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ochairo/forge/internal/domain/entities"
	"github.com/ochairo/forge/internal/external-adapters/yaml"
)

// DefaultConfigFile is read from the working directory when --config is not set
const DefaultConfigFile = "forge.yml"

// configFlags holds the per-command flags that override BuildConfig fields
type configFlags struct {
	repository     string
	scratchDir     string
	patchesDir     string
	manifest       string
	fetcher        string
	keyring        string
	strip          int
	requirePatches bool
	keepWorkspace  bool
	timeout        time.Duration
}

func (f *configFlags) registerPatchFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.patchesDir, "patches-dir", "", "Directory patch filenames are resolved against (default \"patches\")")
	fs.StringVar(&f.manifest, "manifest", "", "Patch manifest file (default \"<patches-dir>/patches.json\")")
	fs.StringVar(&f.keyring, "keyring", "", "Armored OpenPGP public keys; requires a detached signature for every patch")
}

func (f *configFlags) registerBuildFlags(fs *pflag.FlagSet) {
	f.registerPatchFlags(fs)
	fs.StringVar(&f.repository, "repository", "", "Upstream repository URL (default \""+entities.DefaultRepositoryURL+"\")")
	fs.StringVar(&f.scratchDir, "scratch-dir", "", "Scratch workspace, removed before and after the build (default \"$XDG_CACHE_HOME/forge/build\")")
	fs.StringVar(&f.fetcher, "fetcher", "", "Source fetcher: git or embedded (default \"git\")")
	fs.IntVar(&f.strip, "strip", entities.DefaultStripLevel, "Leading path components stripped from patch file names")
	fs.BoolVar(&f.requirePatches, "require-patches", false, "Fail when the revision has no manifest entry")
	fs.BoolVar(&f.keepWorkspace, "keep-workspace", false, "Keep the scratch workspace after the build")
	fs.DurationVar(&f.timeout, "timeout", 0, "Upper bound for the whole build (0 for none)")
}

// apply copies every flag the user set explicitly onto cfg
func (f *configFlags) apply(cmd *cobra.Command, cfg *entities.BuildConfig) {
	changed := cmd.Flags().Changed
	if changed("repository") {
		cfg.RepositoryURL = f.repository
	}
	if changed("scratch-dir") {
		cfg.ScratchDir = f.scratchDir
	}
	if changed("patches-dir") {
		cfg.PatchesDir = f.patchesDir
	}
	if changed("manifest") {
		cfg.ManifestPath = f.manifest
	}
	if changed("fetcher") {
		cfg.Fetcher = f.fetcher
	}
	if changed("keyring") {
		cfg.Keyring = f.keyring
	}
	if changed("strip") {
		cfg.StripLevel = f.strip
	}
	if changed("require-patches") {
		cfg.RequirePatches = f.requirePatches
	}
	if changed("keep-workspace") {
		cfg.KeepWorkspace = f.keepWorkspace
	}
	if changed("timeout") {
		cfg.Timeout = f.timeout
	}
}

// loadBuildConfig resolves the configuration with precedence
// flag > FORGE_* environment > config file > defaults.
func loadBuildConfig(cmd *cobra.Command, global *globalOptions, flags *configFlags) (entities.BuildConfig, error) {
	cfg := entities.DefaultBuildConfig()
	cfg.ScratchDir = filepath.Join(xdg.CacheHome, "forge", "build")

	configPath := global.configPath
	explicit := configPath != ""
	if !explicit {
		configPath = DefaultConfigFile
	}
	if _, err := os.Stat(configPath); err == nil || explicit {
		parsed, err := yaml.NewConfigParser().ParseFile(configPath, cfg)
		if err != nil {
			return cfg, err
		}
		cfg = parsed
	}

	if err := applyEnv(&cfg, global.lookupEnv); err != nil {
		return cfg, err
	}

	if flags != nil {
		flags.apply(cmd, &cfg)
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envSetting binds one FORGE_* variable to a BuildConfig field
type envSetting struct {
	name string
	set  func(cfg *entities.BuildConfig, value string) error
}

var envSettings = []envSetting{
	{"FORGE_REPOSITORY", func(c *entities.BuildConfig, v string) error { c.RepositoryURL = v; return nil }},
	{"FORGE_SCRATCH_DIR", func(c *entities.BuildConfig, v string) error { c.ScratchDir = v; return nil }},
	{"FORGE_PATCHES_DIR", func(c *entities.BuildConfig, v string) error { c.PatchesDir = v; return nil }},
	{"FORGE_MANIFEST", func(c *entities.BuildConfig, v string) error { c.ManifestPath = v; return nil }},
	{"FORGE_FETCHER", func(c *entities.BuildConfig, v string) error { c.Fetcher = v; return nil }},
	{"FORGE_KEYRING", func(c *entities.BuildConfig, v string) error { c.Keyring = v; return nil }},
	{"FORGE_MAKE", func(c *entities.BuildConfig, v string) error { c.Make = v; return nil }},
	{"FORGE_STRIP", func(c *entities.BuildConfig, v string) (err error) {
		c.StripLevel, err = strconv.Atoi(v)
		return err
	}},
	{"FORGE_REQUIRE_PATCHES", func(c *entities.BuildConfig, v string) (err error) {
		c.RequirePatches, err = strconv.ParseBool(v)
		return err
	}},
	{"FORGE_KEEP_WORKSPACE", func(c *entities.BuildConfig, v string) (err error) {
		c.KeepWorkspace, err = strconv.ParseBool(v)
		return err
	}},
	{"FORGE_TIMEOUT", func(c *entities.BuildConfig, v string) (err error) {
		c.Timeout, err = time.ParseDuration(v)
		return err
	}},
}

func applyEnv(cfg *entities.BuildConfig, lookupEnv func(string) (string, bool)) error {
	if lookupEnv == nil {
		return nil
	}
	var errs []error
	for _, s := range envSettings {
		value, ok := lookupEnv(s.name)
		if !ok || value == "" {
			continue
		}
		if err := s.set(cfg, value); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}
