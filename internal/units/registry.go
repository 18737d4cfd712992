// Package units provides the built-in unit kinds and the registry that
// builds them from manifest declarations.
package units

import (
	"maps"
	"slices"
	"sync"

	"github.com/mitchellh/mapstructure"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/unit"
	"go.trai.ch/zerr"
)

// Deps are the collaborators a unit kind may use.
type Deps struct {
	// Root is the project directory that relative paths resolve against.
	Root   string
	Walker *fs.Walker
	Files  ports.FileHasher
	Tree   ports.TreeHasher
}

// Factory builds a generator from a declared config.
type Factory func(deps Deps, config map[string]any) (unit.Generator, error)

// Registry maps unit kinds to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry returns a registry with the built-in kinds.
func NewRegistry() *Registry {
	r := &Registry{factories: make(map[string]Factory)}
	r.Register(FilesKind, NewFiles)
	r.Register(TextKind, NewText)
	return r
}

// Register adds or replaces the factory for kind.
func (r *Registry) Register(kind string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[kind] = f
}

// Kinds returns the registered kinds, sorted.
func (r *Registry) Kinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}

// Build creates a generator of kind.
func (r *Registry) Build(kind string, deps Deps, config map[string]any) (unit.Generator, error) {
	r.mu.RLock()
	f, ok := r.factories[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnknownUnitKind, "cannot build unit"), "kind", kind)
	}
	return f(deps, config)
}

// decodeConfig decodes a declared config into out, rejecting unknown keys.
func decodeConfig(kind string, config map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(config); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid unit config"), "kind", kind)
	}
	return nil
}
