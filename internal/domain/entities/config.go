package entities

import (
	"fmt"
	"path/filepath"
	"time"
)

// Defaults for a Node.js build
const (
	DefaultRepositoryURL = "https://github.com/nodejs/node"
	DefaultCheckoutName  = "node"
	DefaultPatchesDir    = "patches"
	DefaultManifestName  = "patches.json"
	DefaultStripLevel    = 1
)

// Source fetcher implementations
const (
	FetcherGit      = "git"
	FetcherEmbedded = "embedded"
)

// BuildConfig holds the static configuration injected into the build pipeline
type BuildConfig struct {
	RepositoryURL  string
	CheckoutName   string        // Directory name of the clone inside the scratch workspace
	ScratchDir     string        // Recreated for every build and removed afterwards
	PatchesDir     string        // Patch filenames are resolved relative to this directory
	ManifestPath   string        // Revision -> patches mapping (JSON or YAML)
	StripLevel     int           // Leading path components stripped by the patch utility
	Fetcher        string        // FetcherGit or FetcherEmbedded
	RequirePatches bool          // Fail when the revision has no manifest entry
	KeepWorkspace  bool          // Skip workspace removal (debugging only)
	Keyring        string        // Armored public keys; enables patch signature checks
	Timeout        time.Duration // Upper bound for a whole build; zero means none

	Git   string // git client executable
	Patch string // patch utility executable
	Make  string // make executable (Unix toolchain)
	Shell string // command interpreter (Windows toolchain)
}

// DefaultBuildConfig returns a config with the strip level set; string fields
// are filled in by WithDefaults.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{StripLevel: DefaultStripLevel}
}

// WithDefaults returns a copy of the config with every unset string field
// defaulted. A zero strip level is kept, since -p0 is valid.
func (c BuildConfig) WithDefaults() BuildConfig {
	if c.RepositoryURL == "" {
		c.RepositoryURL = DefaultRepositoryURL
	}
	if c.CheckoutName == "" {
		c.CheckoutName = DefaultCheckoutName
	}
	if c.PatchesDir == "" {
		c.PatchesDir = DefaultPatchesDir
	}
	if c.ManifestPath == "" {
		c.ManifestPath = filepath.Join(c.PatchesDir, DefaultManifestName)
	}
	if c.Fetcher == "" {
		c.Fetcher = FetcherGit
	}
	if c.Git == "" {
		c.Git = "git"
	}
	if c.Patch == "" {
		c.Patch = "patch"
	}
	if c.Make == "" {
		c.Make = "make"
	}
	if c.Shell == "" {
		c.Shell = "cmd"
	}
	return c
}

// Validate checks a defaulted config for values the pipeline cannot use
func (c BuildConfig) Validate() error {
	if c.ScratchDir == "" {
		return fmt.Errorf("scratch directory is required")
	}
	if c.StripLevel < 0 {
		return fmt.Errorf("strip level must not be negative, got %d", c.StripLevel)
	}
	if c.Fetcher != FetcherGit && c.Fetcher != FetcherEmbedded {
		return fmt.Errorf("unknown fetcher %q (want %q or %q)", c.Fetcher, FetcherGit, FetcherEmbedded)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %v", c.Timeout)
	}
	return nil
}
