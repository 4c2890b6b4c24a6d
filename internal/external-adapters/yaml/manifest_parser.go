// Package yaml provides YAML-based manifest and config parsing.
package yaml

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/forge/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// ManifestParser parses patch manifest files.
// JSON manifests are accepted as-is since JSON is a subset of YAML.
type ManifestParser struct{}

// NewManifestParser creates a new manifest parser
func NewManifestParser() *ManifestParser {
	return &ManifestParser{}
}

// ParseFile parses a manifest file into a PatchManifest
func (p *ManifestParser) ParseFile(filePath string) (*entities.PatchManifest, error) {
	//nolint:gosec // G304: filePath is the configured manifest location
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses manifest bytes into a PatchManifest
func (p *ManifestParser) Parse(data []byte) (*entities.PatchManifest, error) {
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}

	for revision, patches := range raw {
		if strings.TrimSpace(revision) == "" {
			return nil, fmt.Errorf("manifest contains an empty revision key")
		}
		for i, patch := range patches {
			if err := validatePatchName(patch); err != nil {
				return nil, fmt.Errorf("revision %s, patch %d: %w", revision, i+1, err)
			}
		}
	}

	return entities.NewPatchManifest(raw), nil
}

// Patch names are resolved under the patches directory and must stay there.
func validatePatchName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("empty patch name")
	}
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return fmt.Errorf("patch %q must be relative to the patches directory", name)
	}
	clean := filepath.Clean(filepath.FromSlash(name))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("patch %q escapes the patches directory", name)
	}
	return nil
}
