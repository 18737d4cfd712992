package ports

import "go.trai.ch/kiln/internal/core/domain"

// ManifestLoader reads the unit declarations of a project.
//
//go:generate mockgen -source=manifest.go -destination=mocks/mock_manifest.go -package=mocks
type ManifestLoader interface {
	// Load parses the manifest at path and returns its validated graph.
	Load(path string) (*Manifest, error)
}

// Manifest is a parsed project manifest.
type Manifest struct {
	// ConfigStore is the project-wide config store path relative to the
	// manifest's root, empty when disabled.
	ConfigStore string
	Graph       *domain.UnitGraph
}
