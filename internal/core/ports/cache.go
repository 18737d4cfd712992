package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Cache stores generated sources keyed by unit and content hash.
//
//go:generate mockgen -source=cache.go -destination=mocks/mock_cache.go -package=mocks
type Cache interface {
	// Lookup returns a copy of the entry stored for hash, complete or not.
	// Under CacheNone it always misses.
	Lookup(ctx context.Context, scope domain.CacheScope, hash domain.ContentHash) (*domain.Source, bool, error)

	// Store inserts or replaces the entry for src.Hash and applies eviction.
	Store(ctx context.Context, scope domain.CacheScope, src *domain.Source) error

	// MergePartial upserts one blob into the entry for hash, creating an
	// incomplete entry when none exists.
	MergePartial(ctx context.Context, scope domain.CacheScope, hash domain.ContentHash, blob domain.Blob) error

	// MarkComplete flags the entry for hash as holding every blob.
	MarkComplete(ctx context.Context, scope domain.CacheScope, hash domain.ContentHash) error

	// Discard removes the entry for hash.
	Discard(ctx context.Context, scope domain.CacheScope, hash domain.ContentHash) error

	// Invalidate removes every entry of the scope's unit.
	Invalidate(ctx context.Context, scope domain.CacheScope) error

	// Clean removes every entry from every backend.
	Clean(ctx context.Context) error

	// Close persists pending state and releases file-backed data.
	Close() error
}
