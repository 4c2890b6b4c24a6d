package yaml

import (
	"context"
	"fmt"
	"os"

	"github.com/ochairo/forge/internal/domain/entities"
)

// ManifestRepository implements repositories.ManifestRepository over a single file.
// The manifest is parsed on first use and cached for the repository's lifetime.
type ManifestRepository struct {
	manifestPath string
	parser       *ManifestParser
	cached       *entities.PatchManifest
}

// NewManifestRepository creates a new file-backed manifest repository
func NewManifestRepository(manifestPath string) *ManifestRepository {
	return &ManifestRepository{
		manifestPath: manifestPath,
		parser:       NewManifestParser(),
	}
}

// Path returns the manifest file location
func (r *ManifestRepository) Path() string {
	return r.manifestPath
}

// GetManifest returns the parsed patch manifest
func (r *ManifestRepository) GetManifest(_ context.Context) (*entities.PatchManifest, error) {
	if r.cached != nil {
		return r.cached, nil
	}

	if _, err := os.Stat(r.manifestPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("patch manifest not found: %s", r.manifestPath)
	}

	manifest, err := r.parser.ParseFile(r.manifestPath)
	if err != nil {
		return nil, err
	}

	r.cached = manifest
	return manifest, nil
}
