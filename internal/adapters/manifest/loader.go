// Package manifest reads the kiln.yaml project manifest.
package manifest

import (
	"os"

	"github.com/go-playground/validator/v10"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var _ ports.ManifestLoader = (*Loader)(nil)

// Loader parses manifests.
type Loader struct {
	validate *validator.Validate
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{validate: validator.New()}
}

// Load reads, validates and orders the manifest at path.
func (l *Loader) Load(path string) (*ports.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // Path is built from the project root
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestReadFailed.Error()), "path", path)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}
	if err := l.validate.Struct(&doc); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestInvalid.Error()), "path", path)
	}

	graph := domain.NewUnitGraph()
	for _, u := range doc.Units {
		spec, err := u.toSpec()
		if err != nil {
			return nil, zerr.With(zerr.With(err, "unit_id", u.ID), "path", path)
		}
		if err := graph.AddUnit(spec); err != nil {
			return nil, zerr.With(err, "path", path)
		}
	}
	if err := graph.Validate(); err != nil {
		return nil, zerr.With(err, "path", path)
	}

	store := doc.ConfigStore
	if store == "" && doc.UseDefaultConfigStore {
		store = domain.DefaultConfigStoreFileName
	}
	return &ports.Manifest{ConfigStore: store, Graph: graph}, nil
}
