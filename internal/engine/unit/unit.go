// Package unit implements the hash-gated generation engine for a single unit.
//
// A Unit wraps a Generator and decides, per request, whether a cached source
// can be returned, whether an incomplete entry can be completed blob by blob,
// or whether the generator has to run. Every request for one Unit runs under
// that Unit's lock, so generation work never overlaps on the same instance.
package unit

import (
	"context"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"go.trai.ch/kiln/internal/adapters/telemetry" //nolint:depguard // no-op tracer default
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

// Runtime holds the collaborators shared by every unit of a project.
type Runtime struct {
	Cache ports.Cache
	// ConfigStore is the project-wide store. It is optional.
	ConfigStore ports.ConfigStore
	Logger      ports.Logger
	Tracer      ports.Tracer
	// Metrics is optional.
	Metrics ports.Metrics
}

// Options declares a unit.
type Options struct {
	ID string
	// Kind defaults to the generator's type name.
	Kind         string
	Strategy     domain.CacheStrategy
	Dependencies []*Unit
	// ConfigStore overrides the project store for this unit.
	ConfigStore ports.ConfigStore
}

// Unit is a named producer of blobs whose results are memoized by hash.
type Unit struct {
	id       string
	kind     string
	strategy domain.CacheStrategy
	deps     []*Unit
	ownStore ports.ConfigStore

	rt   *Runtime
	gen  Generator
	caps capabilities
	lock *semaphore.Weighted

	mu        sync.Mutex
	fixedPath string
}

var (
	_ ports.ConfigTarget = (*Unit)(nil)
	_ domain.Component   = (*Unit)(nil)
)

// New creates a Unit. rt must carry a Cache.
func New(rt *Runtime, gen Generator, opts Options) (*Unit, error) {
	if strings.TrimSpace(opts.ID) == "" {
		return nil, domain.ErrInvalidUnitID
	}
	if gen == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "no generator"), "unit_id", opts.ID)
	}
	if rt == nil || rt.Cache == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "no cache"), "unit_id", opts.ID)
	}
	if err := opts.Strategy.Validate(); err != nil {
		return nil, zerr.With(err, "unit_id", opts.ID)
	}
	for _, dep := range opts.Dependencies {
		if dep == nil {
			return nil, zerr.With(domain.ErrMissingDependency, "unit_id", opts.ID)
		}
	}

	runtime := *rt
	if runtime.Tracer == nil {
		runtime.Tracer = telemetry.NewNoOpTracer()
	}

	kind := opts.Kind
	if kind == "" {
		kind = typeName(gen)
	}

	return &Unit{
		id:       opts.ID,
		kind:     kind,
		strategy: opts.Strategy,
		deps:     append([]*Unit(nil), opts.Dependencies...),
		ownStore: opts.ConfigStore,
		rt:       &runtime,
		gen:      gen,
		caps:     resolveCapabilities(gen),
		lock:     semaphore.NewWeighted(1),
	}, nil
}

func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t.Name()
}

// ID returns the unit identity.
func (u *Unit) ID() string { return u.id }

// ComponentID implements domain.Component and ports.ConfigTarget.
func (u *Unit) ComponentID() string { return u.id }

// Kind returns the unit kind.
func (u *Unit) Kind() string { return u.kind }

// Strategy returns the cache strategy.
func (u *Unit) Strategy() domain.CacheStrategy { return u.strategy }

// Dependencies returns the units whose hashes are folded into this one.
func (u *Unit) Dependencies() []*Unit { return u.deps }

// DependencyIDs returns the IDs of Dependencies.
func (u *Unit) DependencyIDs() []string {
	ids := make([]string, len(u.deps))
	for i, d := range u.deps {
		ids[i] = d.id
	}
	return ids
}

// Config returns the generator's configuration, or nil when it has none.
func (u *Unit) Config() any {
	if u.caps.config == nil {
		return nil
	}
	return u.caps.config.Config()
}

// HasOwnConfigStore reports whether the unit overrides the project store.
func (u *Unit) HasOwnConfigStore() bool { return u.ownStore != nil }

// HasInheritedConfigStore reports whether the unit uses the project store.
func (u *Unit) HasInheritedConfigStore() bool {
	return u.ownStore == nil && u.rt.ConfigStore != nil
}

// ConfigStore returns the store that overlays this unit's config, or nil.
func (u *Unit) ConfigStore() ports.ConfigStore {
	if u.ownStore != nil {
		return u.ownStore
	}
	return u.rt.ConfigStore
}

// FixedPath returns the pinned export destination, or "".
func (u *Unit) FixedPath() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.fixedPath
}

func (u *Unit) scope() domain.CacheScope {
	return domain.CacheScope{UnitID: u.id, Strategy: u.strategy}
}

func (u *Unit) acquire(ctx context.Context) error {
	if err := u.lock.Acquire(ctx, 1); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLockFailed.Error()), "unit_id", u.id)
	}
	return nil
}

func (u *Unit) release() {
	u.lock.Release(1)
}

// ensureConfig overlays the store's patch onto the unit's config.
func (u *Unit) ensureConfig(ctx context.Context) error {
	store := u.ConfigStore()
	if store == nil || u.caps.config == nil {
		return nil
	}
	return store.EnsureApplied(ctx, u)
}

// absPreservingSlash makes path absolute and keeps a trailing separator,
// which marks a directory destination.
func absPreservingSlash(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if isDirPath(path) && !isDirPath(abs) {
		abs += string(filepath.Separator)
	}
	return abs, nil
}

func isDirPath(path string) bool {
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(filepath.Separator))
}

// ReadConfig overlays the config store's patch onto the unit's config and
// passes the result to read. The config must not be retained after read
// returns; it is only stable while the unit lock is held.
func (u *Unit) ReadConfig(ctx context.Context, read func(cfg any) error) error {
	if err := u.acquire(ctx); err != nil {
		return err
	}
	defer u.release()

	if err := u.ensureConfig(ctx); err != nil {
		return err
	}
	return read(u.Config())
}

// EditConfig runs edit against the unit's config store under the unit lock
// and re-applies the config afterwards. It reports false without calling
// edit when the unit has no store or no config.
func (u *Unit) EditConfig(ctx context.Context, edit func(ctx context.Context, store ports.ConfigStore) error) (bool, error) {
	store := u.ConfigStore()
	if store == nil || u.caps.config == nil {
		return false, nil
	}

	if err := u.acquire(ctx); err != nil {
		return false, err
	}
	defer u.release()

	if err := edit(ctx, store); err != nil {
		return false, err
	}
	return true, store.EnsureApplied(ctx, u)
}
