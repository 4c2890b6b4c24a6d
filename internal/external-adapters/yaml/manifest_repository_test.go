package yaml

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestManifestRepository_GetManifest_Success(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "patches.json")
	if err := os.WriteFile(path, []byte(`{"v8.11.3": ["node.v8.11.3.cpp.patch"]}`), 0600); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	repo := NewManifestRepository(path)
	manifest, err := repo.GetManifest(context.Background())
	if err != nil {
		t.Fatalf("GetManifest() error = %v", err)
	}

	patches, ok := manifest.Patches("v8.11.3")
	if !ok || len(patches) != 1 || patches[0] != "node.v8.11.3.cpp.patch" {
		t.Errorf("Patches(v8.11.3) = %v, %v", patches, ok)
	}
}

func TestManifestRepository_GetManifest_Cached(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "patches.yml")
	if err := os.WriteFile(path, []byte("v1: [a.patch]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	repo := NewManifestRepository(path)
	first, err := repo.GetManifest(context.Background())
	if err != nil {
		t.Fatalf("GetManifest() error = %v", err)
	}

	// Changes on disk after the first load are not observed.
	if err := os.WriteFile(path, []byte("v2: [b.patch]\n"), 0600); err != nil {
		t.Fatal(err)
	}

	second, err := repo.GetManifest(context.Background())
	if err != nil {
		t.Fatalf("GetManifest() error = %v", err)
	}
	if first != second {
		t.Error("GetManifest() should return the cached manifest")
	}
	if _, ok := second.Patches("v1"); !ok {
		t.Error("cached manifest lost revision v1")
	}
}

func TestManifestRepository_GetManifest_NotFound(t *testing.T) {
	repo := NewManifestRepository(filepath.Join(t.TempDir(), "missing.json"))

	_, err := repo.GetManifest(context.Background())
	if err == nil {
		t.Error("GetManifest() should return error for missing manifest")
	}
}
