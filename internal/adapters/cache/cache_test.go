package cache_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cache"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func source(hash string, complete bool, blobs ...string) *domain.Source {
	list := make([]domain.Blob, 0, len(blobs))
	for _, id := range blobs {
		list = append(list, domain.Blob{ID: id, Data: []byte("data:" + id + ":" + hash)})
	}
	return domain.NewSource(list, domain.HashString(hash), complete)
}

func newManager(t *testing.T, root string) *cache.Manager {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	return cache.NewManager(root, logger, nil)
}

var strategies = map[string]func(domain.Durability) domain.CacheStrategy{
	"memory": func(d domain.Durability) domain.CacheStrategy { return domain.InMemory(d, domain.CheckAllOnUse) },
	"file":   func(d domain.Durability) domain.CacheStrategy { return domain.InFile(d, domain.CheckAllOnUse) },
}

func TestManager_StoreLookup(t *testing.T) {
	ctx := context.Background()
	for name, strategy := range strategies {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, t.TempDir())
			scope := domain.CacheScope{UnitID: "css", Strategy: strategy(domain.KeepForever())}

			_, ok, err := m.Lookup(ctx, scope, domain.HashString("a"))
			require.NoError(t, err)
			assert.False(t, ok)

			src := source("a", true, "main.css", "print.css")
			require.NoError(t, m.Store(ctx, scope, src))

			got, ok, err := m.Lookup(ctx, scope, src.Hash)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, src, got)

			got.Blobs[0].Data[0] = 'X'
			again, _, err := m.Lookup(ctx, scope, src.Hash)
			require.NoError(t, err)
			assert.Equal(t, src.Blobs[0].Data, again.Blobs[0].Data, "lookups must not alias stored data")

			other := domain.CacheScope{UnitID: "js", Strategy: scope.Strategy}
			_, ok, err = m.Lookup(ctx, other, src.Hash)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestManager_NoneAlwaysMisses(t *testing.T) {
	ctx := context.Background()
	m := newManager(t, t.TempDir())
	scope := domain.CacheScope{UnitID: "css", Strategy: domain.NoCache}

	src := source("a", true, "main.css")
	require.NoError(t, m.Store(ctx, scope, src))
	_, ok, err := m.Lookup(ctx, scope, src.Hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManager_LimitCountByLastUse(t *testing.T) {
	ctx := context.Background()
	for name, strategy := range strategies {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, t.TempDir())
			scope := domain.CacheScope{UnitID: "img", Strategy: strategy(domain.LimitCountByLastUse(2))}

			a, b, c := source("a", true, "x"), source("b", true, "x"), source("c", true, "x")
			require.NoError(t, m.Store(ctx, scope, a))
			require.NoError(t, m.Store(ctx, scope, b))

			// Touch a so that b is the least recently used.
			_, ok, err := m.Lookup(ctx, scope, a.Hash)
			require.NoError(t, err)
			require.True(t, ok)

			require.NoError(t, m.Store(ctx, scope, c))

			for hash, want := range map[domain.ContentHash]bool{a.Hash: true, b.Hash: false, c.Hash: true} {
				_, ok, err := m.Lookup(ctx, scope, hash)
				require.NoError(t, err)
				assert.Equal(t, want, ok, hash.Hex())
			}
		})
	}
}

func TestManager_PartialEntries(t *testing.T) {
	ctx := context.Background()
	for name, strategy := range strategies {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, t.TempDir())
			scope := domain.CacheScope{UnitID: "fonts", Strategy: strategy(domain.KeepForever())}
			h := domain.HashString("fonts")

			require.NoError(t, m.MergePartial(ctx, scope, h, domain.Blob{ID: "a.woff", Data: []byte("1")}))
			require.NoError(t, m.MergePartial(ctx, scope, h, domain.Blob{ID: "b.woff", Data: []byte("2")}))
			require.NoError(t, m.MergePartial(ctx, scope, h, domain.Blob{ID: "a.woff", Data: []byte("3")}))

			got, ok, err := m.Lookup(ctx, scope, h)
			require.NoError(t, err)
			require.True(t, ok)
			assert.False(t, got.Complete)
			assert.Equal(t, []string{"a.woff", "b.woff"}, got.IDs())
			blob, _ := got.Get("a.woff")
			assert.Equal(t, "3", string(blob.Data))

			require.NoError(t, m.MarkComplete(ctx, scope, h))
			got, ok, err = m.Lookup(ctx, scope, h)
			require.NoError(t, err)
			require.True(t, ok)
			assert.True(t, got.Complete)

			require.NoError(t, m.Discard(ctx, scope, h))
			_, ok, err = m.Lookup(ctx, scope, h)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestManager_Invalidate(t *testing.T) {
	ctx := context.Background()
	for name, strategy := range strategies {
		t.Run(name, func(t *testing.T) {
			m := newManager(t, t.TempDir())
			css := domain.CacheScope{UnitID: "css", Strategy: strategy(domain.KeepForever())}
			js := domain.CacheScope{UnitID: "js", Strategy: css.Strategy}

			src := source("a", true, "out")
			require.NoError(t, m.Store(ctx, css, src))
			require.NoError(t, m.Store(ctx, js, src))
			require.NoError(t, m.Invalidate(ctx, css))

			_, ok, err := m.Lookup(ctx, css, src.Hash)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = m.Lookup(ctx, js, src.Hash)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestManager_FileSurvivesClose(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	ids := []string{"MyUnit:2", "my/unit?id=1&v=2", "plain"}
	strategy := domain.InFile(domain.KeepForever(), domain.CheckAllOnUse)

	first := newManager(t, root)
	for _, id := range ids {
		require.NoError(t, first.Store(ctx, domain.CacheScope{UnitID: id, Strategy: strategy}, source(id, true, "a", "b")))
	}
	require.NoError(t, first.Close())

	second := newManager(t, root)
	for _, id := range ids {
		got, ok, err := second.Lookup(ctx, domain.CacheScope{UnitID: id, Strategy: strategy}, domain.HashString(id))
		require.NoError(t, err)
		require.True(t, ok, id)
		assert.Equal(t, source(id, true, "a", "b"), got)
	}

	entries, err := os.ReadDir(filepath.Join(root, domain.DefaultCachePath()))
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ":")
		assert.NotContains(t, e.Name(), "?")
	}
}

func TestManager_FileEvictionPersists(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	scope := domain.CacheScope{UnitID: "x", Strategy: domain.InFile(domain.LimitCountByLastUse(1), domain.CheckAllOnUse)}

	m := newManager(t, root)
	require.NoError(t, m.Store(ctx, scope, source("a", true, "out")))
	require.NoError(t, m.Store(ctx, scope, source("b", true, "out")))
	require.NoError(t, m.Close())

	reopened := newManager(t, root)
	_, ok, err := reopened.Lookup(ctx, scope, domain.HashString("a"))
	require.NoError(t, err)
	assert.False(t, ok)
	_, ok, err = reopened.Lookup(ctx, scope, domain.HashString("b"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestManager_CorruptBlobIsAMiss(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	scope := domain.CacheScope{UnitID: "css", Strategy: domain.InFile(domain.KeepForever(), domain.CheckAllOnUse)}

	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Warn(gomock.Any()).Times(1)
	m := cache.NewManager(root, logger, nil)

	src := source("a", true, "main.css")
	require.NoError(t, m.Store(ctx, scope, src))

	blobs, err := filepath.Glob(filepath.Join(root, domain.DefaultCachePath(), "*", src.Hash.Hex(), "*.blob"))
	require.NoError(t, err)
	require.Len(t, blobs, 1)
	require.NoError(t, os.WriteFile(blobs[0], []byte("tampered!"), domain.FilePerm))

	_, ok, err := m.Lookup(ctx, scope, src.Hash)
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = m.Lookup(ctx, scope, src.Hash)
	require.NoError(t, err)
	assert.False(t, ok, "the dropped entry must stay dropped")
}

func TestManager_CorruptIndex(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, domain.DefaultCachePath())
	require.NoError(t, os.MkdirAll(dir, domain.DirPerm))
	require.NoError(t, os.WriteFile(filepath.Join(dir, domain.CacheIndexFileName), []byte("{not json"), domain.FilePerm))

	m := newManager(t, root)
	scope := domain.CacheScope{UnitID: "css", Strategy: domain.InFile(domain.KeepForever(), domain.CheckAllOnUse)}
	_, _, err := m.Lookup(context.Background(), scope, domain.HashString("a"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCacheBackend)
	assert.ErrorContains(t, err, domain.ErrCacheIndexCorrupt.Error())
}

func TestManager_Clean(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	m := newManager(t, root)
	file := domain.CacheScope{UnitID: "css", Strategy: domain.InFile(domain.KeepForever(), domain.CheckAllOnUse)}
	mem := domain.CacheScope{UnitID: "css", Strategy: domain.InMemory(domain.KeepForever(), domain.CheckAllOnUse)}

	src := source("a", true, "out")
	require.NoError(t, m.Store(ctx, file, src))
	require.NoError(t, m.Store(ctx, mem, src))
	require.NoError(t, m.Clean(ctx))

	_, err := os.Stat(filepath.Join(root, domain.DefaultCachePath()))
	assert.True(t, os.IsNotExist(err))

	for _, scope := range []domain.CacheScope{file, mem} {
		_, ok, err := m.Lookup(ctx, scope, src.Hash)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func TestManager_Metrics(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockMetrics(ctrl)
	logger := mocks.NewMockLogger(ctrl)

	m := cache.NewManager(t.TempDir(), logger, metrics)
	scope := domain.CacheScope{UnitID: "css", Strategy: domain.InMemory(domain.LimitCountByLastUse(1), domain.CheckAllOnUse)}

	gomock.InOrder(
		metrics.EXPECT().CacheStore("memory"),
		metrics.EXPECT().CacheStore("memory"),
		metrics.EXPECT().CacheEviction("memory", 1),
		metrics.EXPECT().CacheLookup("memory", ports.LookupHit),
		metrics.EXPECT().CacheLookup("memory", ports.LookupMiss),
		metrics.EXPECT().CacheStore("memory"),
		metrics.EXPECT().CacheLookup("memory", ports.LookupPartial),
	)

	require.NoError(t, m.Store(ctx, scope, source("a", true, "out")))
	require.NoError(t, m.Store(ctx, scope, source("b", true, "out")))
	_, _, err := m.Lookup(ctx, scope, domain.HashString("b"))
	require.NoError(t, err)
	_, _, err = m.Lookup(ctx, scope, domain.HashString("a"))
	require.NoError(t, err)

	// Incomplete entries are served but not counted as hits.
	js := domain.CacheScope{UnitID: "js", Strategy: domain.InMemory(domain.KeepForever(), domain.CheckAllOnUse)}
	require.NoError(t, m.Store(ctx, js, source("c", false, "app.js")))
	_, ok, err := m.Lookup(ctx, js, domain.HashString("c"))
	require.NoError(t, err)
	assert.True(t, ok)
}
