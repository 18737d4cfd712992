// Package project owns a set of units sharing one cache and config store.
package project

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/unit"
	"go.trai.ch/zerr"
)

// Project is a registry of units rooted at a directory.
type Project struct {
	root string
	rt   *unit.Runtime

	mu    sync.RWMutex
	units map[string]*unit.Unit
	order []string
}

// New creates an empty project. rt is shared by every unit created through
// NewUnit.
func New(root string, rt *unit.Runtime) *Project {
	return &Project{
		root:  root,
		rt:    rt,
		units: make(map[string]*unit.Unit),
	}
}

// Root returns the project directory.
func (p *Project) Root() string { return p.root }

// Runtime returns the shared unit runtime.
func (p *Project) Runtime() *unit.Runtime { return p.rt }

// NewUnit creates a unit on the project runtime and registers it.
func (p *Project) NewUnit(gen unit.Generator, opts unit.Options) (*unit.Unit, error) {
	u, err := unit.New(p.rt, gen, opts)
	if err != nil {
		return nil, err
	}
	if err := p.Add(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Add registers u. IDs are unique within a project.
func (p *Project) Add(u *unit.Unit) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.units[u.ID()]; exists {
		return zerr.With(zerr.Wrap(domain.ErrUnitAlreadyExists, "cannot register unit"), "unit_id", u.ID())
	}
	p.units[u.ID()] = u
	p.order = append(p.order, u.ID())
	return nil
}

// Unit returns the unit registered under id.
func (p *Project) Unit(id string) (*unit.Unit, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	u, ok := p.units[id]
	return u, ok
}

// Units returns every unit in registration order.
func (p *Project) Units() []*unit.Unit {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*unit.Unit, len(p.order))
	for i, id := range p.order {
		out[i] = p.units[id]
	}
	return out
}

// UnitIDs returns every unit ID in registration order.
func (p *Project) UnitIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return slices.Clone(p.order)
}

// MustUnit returns the unit registered under id or an ErrUnitNotFound error.
func (p *Project) MustUnit(id string) (*unit.Unit, error) {
	u, ok := p.Unit(id)
	if !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrUnitNotFound, "unknown unit"), "unit_id", id)
	}
	return u, nil
}

// UnitHash returns the current hash of the unit registered under id.
func (p *Project) UnitHash(ctx context.Context, id string) (domain.ContentHash, bool, error) {
	u, err := p.MustUnit(id)
	if err != nil {
		return domain.ContentHash{}, false, err
	}
	return u.Hash(ctx)
}

// Clean removes every cached entry of every unit.
func (p *Project) Clean(ctx context.Context) error {
	return p.rt.Cache.Clean(ctx)
}

// Close closes the cache. Config previews that were never persisted are
// dropped.
func (p *Project) Close(_ context.Context) error {
	return p.rt.Cache.Close()
}

// FlushConfig writes the previews of every config store to disk and reports
// how many stores were written.
func (p *Project) FlushConfig(ctx context.Context) (int, error) {
	var (
		n    int
		errs error
	)
	for _, store := range p.stores() {
		if !store.IsDirty("") {
			continue
		}
		if err := store.Flush(ctx); err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		n++
	}
	return n, errs
}

// stores returns the distinct config stores in use.
func (p *Project) stores() []ports.ConfigStore {
	var out []ports.ConfigStore
	seen := func(s ports.ConfigStore) bool {
		return slices.ContainsFunc(out, func(o ports.ConfigStore) bool { return o == s })
	}
	if p.rt.ConfigStore != nil {
		out = append(out, p.rt.ConfigStore)
	}
	for _, u := range p.Units() {
		if s := u.ConfigStore(); s != nil && !seen(s) {
			out = append(out, s)
		}
	}
	return out
}
