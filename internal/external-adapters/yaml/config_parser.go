package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ochairo/forge/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlConfig represents the raw forge.yml structure
type yamlConfig struct {
	Repository     string `yaml:"repository"`
	CheckoutName   string `yaml:"checkout_name"`
	ScratchDir     string `yaml:"scratch_dir"`
	PatchesDir     string `yaml:"patches_dir"`
	Manifest       string `yaml:"manifest"`
	StripLevel     *int   `yaml:"strip_level"`
	Fetcher        string `yaml:"fetcher"`
	RequirePatches bool   `yaml:"require_patches"`
	Keyring        string `yaml:"keyring"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
	Tools          struct {
		Git   string `yaml:"git"`
		Patch string `yaml:"patch"`
		Make  string `yaml:"make"`
		Shell string `yaml:"shell"`
	} `yaml:"tools"`
}

// ConfigParser parses forge.yml configuration files
type ConfigParser struct{}

// NewConfigParser creates a new config parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile reads a config file and layers it over base
func (p *ConfigParser) ParseFile(filePath string, base entities.BuildConfig) (entities.BuildConfig, error) {
	//nolint:gosec // G304: filePath is user-provided config location
	data, err := os.ReadFile(filePath)
	if err != nil {
		return base, fmt.Errorf("failed to read config %s: %w", filePath, err)
	}

	return p.Parse(data, base)
}

// Parse layers the settings in data over base. Keys absent from data keep
// the value from base.
func (p *ConfigParser) Parse(data []byte, base entities.BuildConfig) (entities.BuildConfig, error) {
	var raw yamlConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty document decodes to io.EOF and carries no settings.
	if err := dec.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return base, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg := base
	setString(&cfg.RepositoryURL, raw.Repository)
	setString(&cfg.CheckoutName, raw.CheckoutName)
	setString(&cfg.ScratchDir, raw.ScratchDir)
	setString(&cfg.PatchesDir, raw.PatchesDir)
	setString(&cfg.ManifestPath, raw.Manifest)
	setString(&cfg.Fetcher, raw.Fetcher)
	setString(&cfg.Keyring, raw.Keyring)
	setString(&cfg.Git, raw.Tools.Git)
	setString(&cfg.Patch, raw.Tools.Patch)
	setString(&cfg.Make, raw.Tools.Make)
	setString(&cfg.Shell, raw.Tools.Shell)

	if raw.StripLevel != nil {
		cfg.StripLevel = *raw.StripLevel
	}
	if raw.RequirePatches {
		cfg.RequirePatches = true
	}
	if raw.TimeoutMinutes < 0 {
		return base, fmt.Errorf("timeout_minutes must not be negative, got %d", raw.TimeoutMinutes)
	}
	if raw.TimeoutMinutes > 0 {
		cfg.Timeout = time.Duration(raw.TimeoutMinutes) * time.Minute
	}

	return cfg, nil
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}
