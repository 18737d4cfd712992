package cache

import (
	"sync"

	"go.trai.ch/kiln/internal/core/domain"
)

// memoryBackend keeps sources in process memory. It survives Close.
type memoryBackend struct {
	mu  sync.Mutex
	idx *lruIndex[*domain.Source]
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{idx: newLRUIndex[*domain.Source]()}
}

func (b *memoryBackend) name() string { return domain.CacheInMemory.String() }

func (b *memoryBackend) lookup(scope domain.CacheScope, h domain.ContentHash) (*domain.Source, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.idx.get(scope.UnitID, h)
	if !ok {
		return nil, false, nil
	}
	return src.Clone(), true, nil
}

func (b *memoryBackend) store(scope domain.CacheScope, src *domain.Source) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idx.put(scope.UnitID, src.Hash, src.Clone())
	return len(b.idx.evict(scope.UnitID, scope.Strategy.Durability.Limit, src.Hash)), nil
}

func (b *memoryBackend) mergePartial(scope domain.CacheScope, h domain.ContentHash, blob domain.Blob) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	src, ok := b.idx.peek(scope.UnitID, h)
	if !ok {
		src = domain.NewSource(nil, h, false)
	}
	src.Upsert(domain.Blob{ID: blob.ID, Data: append([]byte(nil), blob.Data...)})
	b.idx.put(scope.UnitID, h, src)
	return len(b.idx.evict(scope.UnitID, scope.Strategy.Durability.Limit, h)), nil
}

func (b *memoryBackend) markComplete(scope domain.CacheScope, h domain.ContentHash) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if src, ok := b.idx.peek(scope.UnitID, h); ok {
		src.Complete = true
	}
	return nil
}

func (b *memoryBackend) discard(scope domain.CacheScope, h domain.ContentHash) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idx.remove(scope.UnitID, h)
	return nil
}

func (b *memoryBackend) invalidate(unitID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idx.removeUnit(unitID)
	return nil
}

func (b *memoryBackend) clean() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idx = newLRUIndex[*domain.Source]()
	return nil
}

func (b *memoryBackend) close() error {
	return nil
}
