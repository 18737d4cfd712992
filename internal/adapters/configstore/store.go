// Package configstore overlays JSON patches onto unit configuration.
package configstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	iofs "io/fs"
	"os"
	"reflect"
	"sync"

	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.ConfigStore = (*Store)(nil)

type entry struct {
	baseline   map[string]any
	preview    map[string]any
	hasPreview bool
	applied    map[string]any
	dirty      bool
}

// Store keeps one JSON document mapping component IDs to patches.
//
// The document is re-read whenever the file's modification time or size
// changes. IDs that no registered component claims are kept as they are.
type Store struct {
	path   string
	logger ports.Logger

	mu      sync.Mutex
	doc     map[string]any
	stat    domain.FileStat
	loaded  bool
	entries map[string]*entry
}

// New creates a Store backed by the file at path. The file need not exist.
func New(path string, logger ports.Logger) *Store {
	return &Store{
		path:    path,
		logger:  logger,
		doc:     map[string]any{},
		entries: make(map[string]*entry),
	}
}

// Path implements ports.ConfigStore.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) entry(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

// EnsureApplied implements ports.ConfigStore.
func (s *Store) EnsureApplied(_ context.Context, target ports.ConfigTarget) error {
	cfg := target.Config()
	if cfg == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(); err != nil {
		return err
	}
	return s.apply(target.ComponentID(), cfg)
}

// SetEntry implements ports.ConfigStore.
func (s *Store) SetEntry(id string, patch map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(id)
	e.preview = Merge(nil, patch)
	e.hasPreview = true
	e.dirty = true
}

// SetPatch implements ports.ConfigStore.
func (s *Store) SetPatch(_ context.Context, target ports.ConfigTarget, patch map[string]any) error {
	id := target.ComponentID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(); err != nil {
		return err
	}
	s.doc[id] = Merge(nil, patch)
	if err := s.write(); err != nil {
		return err
	}

	e := s.entry(id)
	e.preview = nil
	e.hasPreview = false
	e.dirty = false

	if cfg := target.Config(); cfg != nil {
		return s.apply(id, cfg)
	}
	return nil
}

// ClearPreview implements ports.ConfigStore.
func (s *Store) ClearPreview(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || !e.hasPreview {
		return false
	}
	e.preview = nil
	e.hasPreview = false
	e.dirty = false
	return true
}

// IsDirty implements ports.ConfigStore.
func (s *Store) IsDirty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		e, ok := s.entries[id]
		return ok && e.dirty
	}
	for _, e := range s.entries {
		if e.dirty {
			return true
		}
	}
	return false
}

// Flush implements ports.ConfigStore.
func (s *Store) Flush(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.reload(); err != nil {
		return err
	}

	var promoted []*entry
	for id, e := range s.entries {
		if !e.dirty {
			continue
		}
		if e.hasPreview {
			s.doc[id] = Merge(nil, e.preview)
		}
		promoted = append(promoted, e)
	}
	if len(promoted) == 0 {
		return nil
	}
	if err := s.write(); err != nil {
		return err
	}
	for _, e := range promoted {
		e.preview = nil
		e.hasPreview = false
		e.dirty = false
	}
	return nil
}

// apply writes the effective config into cfg unless it is unchanged since
// the last call. The caller holds s.mu.
func (s *Store) apply(id string, cfg any) error {
	e := s.entry(id)
	if e.baseline == nil {
		baseline, err := Snapshot(cfg)
		if err != nil {
			return zerr.With(err, "unit_id", id)
		}
		e.baseline = baseline
	}

	effective := Merge(e.baseline, s.patch(id, e))
	if e.applied != nil && reflect.DeepEqual(effective, e.applied) {
		return nil
	}
	if err := Apply(cfg, effective); err != nil {
		return zerr.With(err, "unit_id", id)
	}
	e.applied = effective
	return nil
}

func (s *Store) patch(id string, e *entry) map[string]any {
	if e.hasPreview {
		return e.preview
	}
	raw, ok := s.doc[id]
	if !ok || raw == nil {
		return nil
	}
	patch, ok := raw.(map[string]any)
	if !ok {
		s.logger.Warn("ignoring non-object config patch for " + id + " in " + s.path)
		return nil
	}
	return patch
}

// reload re-reads the document if the file changed. The caller holds s.mu.
func (s *Store) reload() error {
	info, err := os.Stat(s.path)
	if errors.Is(err, iofs.ErrNotExist) {
		if s.loaded && s.stat != (domain.FileStat{}) {
			s.doc = map[string]any{}
		}
		s.stat = domain.FileStat{}
		s.loaded = true
		return nil
	}
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", s.path)
	}

	st := domain.FileStat{ModTime: info.ModTime(), Size: info.Size()}
	if s.loaded && st.Same(s.stat) {
		return nil
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", s.path)
	}
	doc := map[string]any{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "path", s.path)
		}
		if doc == nil {
			doc = map[string]any{}
		}
	}

	s.doc = doc
	s.stat = st
	s.loaded = true
	return nil
}

// write persists the document with sorted keys. The caller holds s.mu.
func (s *Store) write() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigWriteFailed.Error()), "path", s.path)
	}
	data = append(data, '\n')
	if err := fs.WriteFileAtomic(s.path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigWriteFailed.Error()), "path", s.path)
	}

	info, err := os.Stat(s.path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrConfigReadFailed.Error()), "path", s.path)
	}
	s.stat = domain.FileStat{ModTime: info.ModTime(), Size: info.Size()}
	s.loaded = true
	return nil
}
