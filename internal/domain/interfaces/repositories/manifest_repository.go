// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/forge/internal/domain/entities"
)

// ManifestRepository defines the interface for accessing the patch manifest
type ManifestRepository interface {
	// GetManifest returns the revision -> patches mapping
	GetManifest(ctx context.Context) (*entities.PatchManifest, error)
}
