// Package entities defines core domain models and data structures.
package entities

// Artifact represents a compiled runtime binary published to its destination
type Artifact struct {
	Name     string
	Version  string // Source revision the binary was built from
	Platform string // Target architecture label
	Path     string
	Type     string // "binary"
	Size     int64
	SHA256   string
}
