// Package cache implements the memory and file backends for generated sources.
package cache

import (
	"context"
	"errors"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

var _ ports.Cache = (*Manager)(nil)

type backend interface {
	name() string
	lookup(scope domain.CacheScope, h domain.ContentHash) (*domain.Source, bool, error)
	store(scope domain.CacheScope, src *domain.Source) (int, error)
	mergePartial(scope domain.CacheScope, h domain.ContentHash, blob domain.Blob) (int, error)
	markComplete(scope domain.CacheScope, h domain.ContentHash) error
	discard(scope domain.CacheScope, h domain.ContentHash) error
	invalidate(unitID string) error
	clean() error
	close() error
}

// Manager routes cache requests to a backend by the scope's strategy.
type Manager struct {
	memory  *memoryBackend
	file    *fileBackend
	metrics ports.Metrics
}

// NewManager creates a Manager whose file backend lives under root.
// metrics may be nil.
func NewManager(root string, logger ports.Logger, metrics ports.Metrics) *Manager {
	return &Manager{
		memory:  newMemoryBackend(),
		file:    newFileBackend(root, logger),
		metrics: metrics,
	}
}

func (m *Manager) backend(scope domain.CacheScope) backend {
	switch scope.Strategy.Kind {
	case domain.CacheInMemory:
		return m.memory
	case domain.CacheInFile:
		return m.file
	default:
		return nil
	}
}

// Lookup implements ports.Cache.
func (m *Manager) Lookup(
	_ context.Context, scope domain.CacheScope, h domain.ContentHash,
) (*domain.Source, bool, error) {
	b := m.backend(scope)
	if b == nil {
		return nil, false, nil
	}
	src, ok, err := b.lookup(scope, h)
	if err != nil {
		return nil, false, err
	}
	if m.metrics != nil {
		m.metrics.CacheLookup(b.name(), lookupResult(src, ok))
	}
	return src, ok, nil
}

// Store implements ports.Cache.
func (m *Manager) Store(_ context.Context, scope domain.CacheScope, src *domain.Source) error {
	b := m.backend(scope)
	if b == nil || src == nil {
		return nil
	}
	evicted, err := b.store(scope, src)
	m.record(b, evicted)
	return err
}

// MergePartial implements ports.Cache.
func (m *Manager) MergePartial(
	_ context.Context, scope domain.CacheScope, h domain.ContentHash, blob domain.Blob,
) error {
	b := m.backend(scope)
	if b == nil {
		return nil
	}
	evicted, err := b.mergePartial(scope, h, blob)
	m.record(b, evicted)
	return err
}

func (m *Manager) record(b backend, evicted int) {
	if m.metrics == nil {
		return
	}
	m.metrics.CacheStore(b.name())
	if evicted > 0 {
		m.metrics.CacheEviction(b.name(), evicted)
	}
}

// MarkComplete implements ports.Cache.
func (m *Manager) MarkComplete(_ context.Context, scope domain.CacheScope, h domain.ContentHash) error {
	if b := m.backend(scope); b != nil {
		return b.markComplete(scope, h)
	}
	return nil
}

// Discard implements ports.Cache.
func (m *Manager) Discard(_ context.Context, scope domain.CacheScope, h domain.ContentHash) error {
	if b := m.backend(scope); b != nil {
		return b.discard(scope, h)
	}
	return nil
}

// Invalidate implements ports.Cache.
func (m *Manager) Invalidate(_ context.Context, scope domain.CacheScope) error {
	if b := m.backend(scope); b != nil {
		return b.invalidate(scope.UnitID)
	}
	return nil
}

// Clean empties both backends and removes the cache directory.
func (m *Manager) Clean(_ context.Context) error {
	return errors.Join(m.memory.clean(), m.file.clean())
}

// Close flushes the file index and unloads it. Memory entries are kept.
func (m *Manager) Close() error {
	return errors.Join(m.memory.close(), m.file.close())
}

func lookupResult(src *domain.Source, ok bool) string {
	switch {
	case !ok:
		return ports.LookupMiss
	case !src.Complete:
		return ports.LookupPartial
	default:
		return ports.LookupHit
	}
}
