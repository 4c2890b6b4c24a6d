package entities

import "sort"

// PatchManifest maps a source revision to the ordered patch files applied to it.
// A manifest is read-only once constructed.
type PatchManifest struct {
	entries map[string][]string
}

// NewPatchManifest creates a manifest from revision -> patch file entries
func NewPatchManifest(entries map[string][]string) *PatchManifest {
	copied := make(map[string][]string, len(entries))
	for rev, patches := range entries {
		copied[rev] = append([]string(nil), patches...)
	}
	return &PatchManifest{entries: copied}
}

// Patches returns the ordered patch list for a revision and whether the
// revision is present in the manifest at all.
func (m *PatchManifest) Patches(revision string) ([]string, bool) {
	if m == nil {
		return nil, false
	}
	patches, ok := m.entries[revision]
	if !ok {
		return nil, false
	}
	return append([]string{}, patches...), true
}

// Revisions returns every revision in the manifest, sorted lexically
func (m *PatchManifest) Revisions() []string {
	if m == nil {
		return nil
	}
	revs := make([]string, 0, len(m.entries))
	for rev := range m.entries {
		revs = append(revs, rev)
	}
	sort.Strings(revs)
	return revs
}

// Len returns the number of revisions in the manifest
func (m *PatchManifest) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
