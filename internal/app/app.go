// Package app implements the application layer for kiln.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"go.trai.ch/kiln/internal/adapters/admin"
	"go.trai.ch/kiln/internal/adapters/cache"
	"go.trai.ch/kiln/internal/adapters/configstore"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/settings"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/engine/project"
	"go.trai.ch/kiln/internal/engine/unit"
	"go.trai.ch/kiln/internal/units"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	logger    *logger.Logger
	settings  *settings.Loader
	manifests ports.ManifestLoader
	registry  *units.Registry
	walker    *fs.Walker
	files     ports.FileHasher
	tree      ports.TreeHasher
	metrics   *metrics.Prometheus
	telemetry *telemetry.Provider
}

// New creates a new App instance.
func New(
	log *logger.Logger,
	settingsLoader *settings.Loader,
	manifests ports.ManifestLoader,
	registry *units.Registry,
	walker *fs.Walker,
	files ports.FileHasher,
	tree ports.TreeHasher,
	m *metrics.Prometheus,
	tp *telemetry.Provider,
) *App {
	return &App{
		logger:    log,
		settings:  settingsLoader,
		manifests: manifests,
		registry:  registry,
		walker:    walker,
		files:     files,
		tree:      tree,
		metrics:   m,
		telemetry: tp,
	}
}

// Session is a loaded project together with the settings it was loaded with.
type Session struct {
	Project  *project.Project
	Settings *settings.Settings
}

// Close closes the cache. Unpersisted config previews are dropped.
func (s *Session) Close(ctx context.Context) error {
	return s.Project.Close(ctx)
}

// Open loads settings and the manifest of the project at root and builds
// every declared unit, dependencies first.
func (a *App) Open(ctx context.Context, root string) (*Session, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFailedToGetRoot.Error()), "root", root)
	}

	s, err := a.settings.Load(abs)
	if err != nil {
		return nil, err
	}
	a.logger.SetJSON(s.Log.Format == "json")

	m, err := a.manifests.Load(resolve(abs, s.Manifest))
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load manifest")
	}

	rt := &unit.Runtime{
		Cache:   cache.NewManager(abs, a.logger, a.metrics),
		Logger:  a.logger,
		Tracer:  a.telemetry.Tracer(s.Telemetry.Enabled),
		Metrics: a.metrics,
	}

	stores := make(map[string]*configstore.Store)
	store := func(rel string) *configstore.Store {
		path := resolve(abs, rel)
		if st, ok := stores[path]; ok {
			return st
		}
		st := configstore.New(path, a.logger)
		stores[path] = st
		return st
	}
	if m.ConfigStore != "" {
		rt.ConfigStore = store(m.ConfigStore)
	}

	proj := project.New(abs, rt)
	deps := units.Deps{Root: abs, Walker: a.walker, Files: a.files, Tree: a.tree}
	for spec := range m.Graph.Walk() {
		if err := ctx.Err(); err != nil {
			return nil, joinClose(err, proj.Close(ctx))
		}
		if err := a.addUnit(proj, deps, spec, store); err != nil {
			return nil, joinClose(err, proj.Close(ctx))
		}
	}
	return &Session{Project: proj, Settings: s}, nil
}

func (a *App) addUnit(
	proj *project.Project,
	deps units.Deps,
	spec domain.UnitSpec,
	store func(rel string) *configstore.Store,
) error {
	gen, err := a.registry.Build(spec.Kind, deps, spec.Config)
	if err != nil {
		return zerr.With(err, "unit_id", spec.ID)
	}

	opts := unit.Options{ID: spec.ID, Kind: spec.Kind, Strategy: spec.Strategy}
	for _, id := range spec.Dependencies {
		dep, err := proj.MustUnit(id)
		if err != nil {
			return err
		}
		opts.Dependencies = append(opts.Dependencies, dep)
	}
	if spec.ConfigStore != "" {
		opts.ConfigStore = store(spec.ConfigStore)
	}

	_, err = proj.NewUnit(gen, opts)
	return err
}

// Shutdown flushes and stops span reporting.
func (a *App) Shutdown(ctx context.Context) error {
	return a.telemetry.Shutdown(ctx)
}

// with opens the project at root, runs fn and closes the project again.
func (a *App) with(ctx context.Context, root string, fn func(*Session) error) error {
	sess, err := a.Open(ctx, root)
	if err != nil {
		return err
	}
	return joinClose(fn(sess), sess.Close(ctx))
}

// joinClose returns err as is when closing succeeded.
func joinClose(err, closeErr error) error {
	if closeErr == nil {
		return err
	}
	return errors.Join(err, closeErr)
}

// SourceOptions selects what Source produces.
type SourceOptions struct {
	Unit string
	// Blob restricts the result to one blob when set.
	Blob string
	// Out exports the result to this path when set. A path ending in a
	// separator is a directory.
	Out string
}

// Source produces the content of a unit, optionally exporting it.
func (a *App) Source(ctx context.Context, root string, opts SourceOptions) (*domain.Source, error) {
	var src *domain.Source
	err := a.with(ctx, root, func(s *Session) error {
		u, err := s.Project.MustUnit(opts.Unit)
		if err != nil {
			return err
		}

		if opts.Blob == "" {
			src, err = u.Source(ctx)
		} else {
			var ok bool
			src, ok, err = u.PartialSource(ctx, opts.Blob)
			if err == nil && !ok {
				err = zerr.With(zerr.With(zerr.Wrap(domain.ErrBlobNotFound, "cannot source blob"), "unit_id", opts.Unit), "blob", opts.Blob)
			}
		}
		if err != nil {
			return err
		}

		if opts.Out != "" {
			if err := unit.Export(src, opts.Out); err != nil {
				return err
			}
			a.logger.Info(fmt.Sprintf("exported %d blob(s) of %s to %s", len(src.Blobs), opts.Unit, opts.Out))
		}
		return nil
	})
	return src, err
}

// Hash returns the current hash of a unit. ok is false when the unit cannot
// be cached.
func (a *App) Hash(ctx context.Context, root, id string) (hash domain.ContentHash, ok bool, err error) {
	err = a.with(ctx, root, func(s *Session) error {
		hash, ok, err = s.Project.UnitHash(ctx, id)
		return err
	})
	return hash, ok, err
}

// List returns the blob ids a unit produces.
func (a *App) List(ctx context.Context, root, id string) (ids []string, err error) {
	err = a.with(ctx, root, func(s *Session) error {
		u, err := s.Project.MustUnit(id)
		if err != nil {
			return err
		}
		ids, err = u.ListIDs(ctx)
		return err
	})
	return ids, err
}

// Refresh drops every cached entry of a unit.
func (a *App) Refresh(ctx context.Context, root, id string) error {
	return a.with(ctx, root, func(s *Session) error {
		u, err := s.Project.MustUnit(id)
		if err != nil {
			return err
		}
		if err := u.Refresh(ctx); err != nil {
			return err
		}
		a.logger.Info("refreshed " + id)
		return nil
	})
}

// Config returns the editable config of a unit.
func (a *App) Config(ctx context.Context, root, id string) (view *domain.ConfigView, err error) {
	err = a.with(ctx, root, func(s *Session) error {
		var ok bool
		view, ok, err = s.Project.GetConfig(ctx, id)
		if err == nil && !ok {
			err = zerr.With(zerr.Wrap(domain.ErrConfigTargetUnknown, "cannot read config"), "unit_id", id)
		}
		return err
	})
	return view, err
}

// SetConfig patches the config of a unit through its config store and
// returns the resulting config. A preview only lives as long as the session,
// so from a one-shot command it shows the effect of a patch without keeping it.
func (a *App) SetConfig(ctx context.Context, root, id string, patch map[string]any, mode domain.ConfigMode) (view *domain.ConfigView, err error) {
	err = a.with(ctx, root, func(s *Session) error {
		ok, err := s.Project.SetConfig(ctx, id, patch, mode)
		if err != nil {
			return err
		}
		if !ok {
			return missingTarget(s.Project, id)
		}
		a.logger.Info(fmt.Sprintf("updated config of %s (%s)", id, mode))
		view, _, err = s.Project.GetConfig(ctx, id)
		return err
	})
	return view, err
}

// ClearConfig drops the preview entry of a unit and returns the config it
// reverts to. Clearing a unit without a preview succeeds.
func (a *App) ClearConfig(ctx context.Context, root, id string) (view *domain.ConfigView, err error) {
	err = a.with(ctx, root, func(s *Session) error {
		ok, err := s.Project.ClearConfigPreview(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return missingTarget(s.Project, id)
		}
		view, _, err = s.Project.GetConfig(ctx, id)
		return err
	})
	return view, err
}

// CleanCache removes every cached entry of the project.
func (a *App) CleanCache(ctx context.Context, root string) error {
	return a.with(ctx, root, func(s *Session) error {
		if err := s.Project.Clean(ctx); err != nil {
			return err
		}
		a.logger.Info("removed cache under " + filepath.Join(s.Project.Root(), domain.KilnDirName))
		return nil
	})
}

// ServeAdmin serves the admin API for the project at root until ctx is
// cancelled. An empty listen uses the configured address.
func (a *App) ServeAdmin(ctx context.Context, root, listen string) error {
	return a.with(ctx, root, func(s *Session) error {
		opts := admin.Options{
			Addr:            s.Settings.Admin.Listen,
			ShutdownTimeout: s.Settings.Admin.ShutdownTimeout,
		}
		if listen != "" {
			opts.Addr = listen
		}
		if s.Settings.Admin.Metrics {
			opts.Metrics = a.metrics.Handler()
		}
		a.logger.Info("admin listening on " + opts.Addr)
		return admin.NewServer(s.Project, opts, a.logger).ListenAndServe(ctx)
	})
}

func missingTarget(p *project.Project, id string) error {
	if _, ok := p.Unit(id); ok {
		return zerr.With(zerr.Wrap(domain.ErrNoConfigStore, "cannot edit config"), "unit_id", id)
	}
	return zerr.With(zerr.Wrap(domain.ErrConfigTargetUnknown, "cannot edit config"), "unit_id", id)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, filepath.FromSlash(p))
}
