package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	iofs "io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	indexVersion     = 1
	maxUnitDirPrefix = 48
)

type fileIndex struct {
	Version int                  `json:"version"`
	Clock   uint64               `json:"clock"`
	Units   map[string]*fileUnit `json:"units"`
}

type fileUnit struct {
	Dir     string                            `json:"dir"`
	Entries map[domain.ContentHash]*fileEntry `json:"entries"`
}

type fileEntry struct {
	Complete bool       `json:"complete"`
	LastUse  uint64     `json:"lastUse"`
	Blobs    []fileBlob `json:"blobs"`
}

type fileBlob struct {
	ID       string `json:"id"`
	File     string `json:"file"`
	Size     int    `json:"size"`
	Checksum string `json:"checksum"`
}

// fileBackend stores sources under <root>/.kiln/cache. The index is read
// lazily on first use and released on close.
type fileBackend struct {
	mu     sync.Mutex
	dir    string
	logger ports.Logger

	idx      *lruIndex[*fileEntry]
	unitDirs map[string]string
	dirty    bool
}

func newFileBackend(root string, logger ports.Logger) *fileBackend {
	return &fileBackend{
		dir:    filepath.Join(root, domain.DefaultCachePath()),
		logger: logger,
	}
}

func (b *fileBackend) name() string { return domain.CacheInFile.String() }

func (b *fileBackend) indexPath() string {
	return filepath.Join(b.dir, domain.CacheIndexFileName)
}

func (b *fileBackend) load() error {
	if b.idx != nil {
		return nil
	}

	idx := newLRUIndex[*fileEntry]()
	unitDirs := make(map[string]string)

	data, err := os.ReadFile(b.indexPath())
	switch {
	case errors.Is(err, iofs.ErrNotExist):
	case err != nil:
		return errors.Join(domain.ErrCacheBackend, zerr.With(zerr.Wrap(err, "failed to read cache index"), "path", b.indexPath()))
	default:
		var doc fileIndex
		if err := json.Unmarshal(data, &doc); err != nil {
			return errors.Join(domain.ErrCacheBackend,
				zerr.With(zerr.Wrap(err, domain.ErrCacheIndexCorrupt.Error()), "path", b.indexPath()))
		}
		if doc.Version != indexVersion {
			return errors.Join(domain.ErrCacheBackend,
				zerr.With(zerr.With(domain.ErrCacheIndexCorrupt, "path", b.indexPath()), "version", doc.Version))
		}
		for unitID, u := range doc.Units {
			unitDirs[unitID] = u.Dir
			for h, e := range u.Entries {
				idx.restore(unitID, h, e, e.LastUse)
			}
		}
		idx.clock = max(idx.clock, doc.Clock)
	}

	b.idx = idx
	b.unitDirs = unitDirs
	b.dirty = false
	return nil
}

func (b *fileBackend) save() error {
	doc := fileIndex{Version: indexVersion, Clock: b.idx.clock, Units: make(map[string]*fileUnit)}
	for unitID, entries := range b.idx.units {
		u := &fileUnit{Dir: b.unitDir(unitID), Entries: make(map[domain.ContentHash]*fileEntry, len(entries))}
		for h, s := range entries {
			s.value.LastUse = s.lastUse
			u.Entries[h] = s.value
		}
		doc.Units[unitID] = u
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Join(domain.ErrCacheBackend, zerr.Wrap(err, "failed to encode cache index"))
	}
	if err := fs.WriteFileAtomic(b.indexPath(), data, domain.FilePerm); err != nil {
		return errors.Join(domain.ErrCacheBackend, err)
	}
	b.dirty = false
	return nil
}

// unitDir returns a filesystem-safe directory name for unitID. The readable
// prefix is lossy, the xxhash suffix keeps names distinct.
func (b *fileBackend) unitDir(unitID string) string {
	if dir, ok := b.unitDirs[unitID]; ok {
		return dir
	}
	prefix := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, unitID)
	if len(prefix) > maxUnitDirPrefix {
		prefix = prefix[:maxUnitDirPrefix]
	}
	dir := fmt.Sprintf("%s-%016x", prefix, xxhash.Sum64String(unitID))
	b.unitDirs[unitID] = dir
	return dir
}

func (b *fileBackend) entryDir(unitID string, h domain.ContentHash) string {
	return filepath.Join(b.dir, b.unitDir(unitID), h.Hex())
}

func checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}

func (b *fileBackend) writeBlob(dir string, pos int, blob domain.Blob) (fileBlob, error) {
	name := fmt.Sprintf("%04d.blob", pos)
	if err := fs.WriteFileAtomic(filepath.Join(dir, name), blob.Data, domain.FilePerm); err != nil {
		return fileBlob{}, errors.Join(domain.ErrCacheBackend, err)
	}
	return fileBlob{ID: blob.ID, File: name, Size: len(blob.Data), Checksum: checksum(blob.Data)}, nil
}

// readEntry loads and verifies every blob of the entry.
func (b *fileBackend) readEntry(dir string, e *fileEntry) ([]domain.Blob, error) {
	blobs := make([]domain.Blob, 0, len(e.Blobs))
	for _, fb := range e.Blobs {
		path := filepath.Join(dir, fb.File)
		data, err := os.ReadFile(path) //nolint:gosec // Path is built from the cache index
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to read cached blob"), "path", path)
		}
		if len(data) != fb.Size || checksum(data) != fb.Checksum {
			return nil, zerr.With(zerr.New("cached blob checksum mismatch"), "path", path)
		}
		blobs = append(blobs, domain.Blob{ID: fb.ID, Data: data})
	}
	return blobs, nil
}

func (b *fileBackend) lookup(scope domain.CacheScope, h domain.ContentHash) (*domain.Source, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return nil, false, err
	}
	e, ok := b.idx.get(scope.UnitID, h)
	if !ok {
		return nil, false, nil
	}
	b.dirty = true

	dir := b.entryDir(scope.UnitID, h)
	blobs, err := b.readEntry(dir, e)
	if err != nil {
		b.logger.Warn(fmt.Sprintf("dropping cache entry %s for %q: %v", h.Hex(), scope.UnitID, err))
		b.idx.remove(scope.UnitID, h)
		_ = os.RemoveAll(dir)
		if err := b.save(); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	return domain.NewSource(blobs, h, e.Complete), true, nil
}

func (b *fileBackend) store(scope domain.CacheScope, src *domain.Source) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return 0, err
	}

	dir := b.entryDir(scope.UnitID, src.Hash)
	if err := os.RemoveAll(dir); err != nil {
		return 0, errors.Join(domain.ErrCacheBackend, zerr.With(zerr.Wrap(err, "failed to clear cache entry"), "path", dir))
	}

	entry := &fileEntry{Complete: src.Complete, Blobs: make([]fileBlob, 0, len(src.Blobs))}
	for i, blob := range src.Blobs {
		fb, err := b.writeBlob(dir, i, blob)
		if err != nil {
			return 0, err
		}
		entry.Blobs = append(entry.Blobs, fb)
	}
	b.idx.put(scope.UnitID, src.Hash, entry)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return 0, errors.Join(domain.ErrCacheBackend, zerr.With(zerr.Wrap(err, "failed to create cache entry"), "path", dir))
	}

	evicted := b.evict(scope, src.Hash)
	return evicted, b.save()
}

func (b *fileBackend) mergePartial(scope domain.CacheScope, h domain.ContentHash, blob domain.Blob) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return 0, err
	}

	entry, ok := b.idx.peek(scope.UnitID, h)
	if !ok {
		entry = &fileEntry{}
	}
	pos := len(entry.Blobs)
	for i, fb := range entry.Blobs {
		if fb.ID == blob.ID {
			pos = i
			break
		}
	}

	fb, err := b.writeBlob(b.entryDir(scope.UnitID, h), pos, blob)
	if err != nil {
		return 0, err
	}
	if pos == len(entry.Blobs) {
		entry.Blobs = append(entry.Blobs, fb)
	} else {
		entry.Blobs[pos] = fb
	}
	b.idx.put(scope.UnitID, h, entry)

	evicted := b.evict(scope, h)
	return evicted, b.save()
}

func (b *fileBackend) evict(scope domain.CacheScope, keep domain.ContentHash) int {
	evicted := b.idx.evict(scope.UnitID, scope.Strategy.Durability.Limit, keep)
	for h := range evicted {
		_ = os.RemoveAll(b.entryDir(scope.UnitID, h))
	}
	return len(evicted)
}

func (b *fileBackend) markComplete(scope domain.CacheScope, h domain.ContentHash) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return err
	}
	entry, ok := b.idx.peek(scope.UnitID, h)
	if !ok || entry.Complete {
		return nil
	}
	entry.Complete = true
	return b.save()
}

func (b *fileBackend) discard(scope domain.CacheScope, h domain.ContentHash) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return err
	}
	if _, ok := b.idx.remove(scope.UnitID, h); !ok {
		return nil
	}
	_ = os.RemoveAll(b.entryDir(scope.UnitID, h))
	return b.save()
}

func (b *fileBackend) invalidate(unitID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.load(); err != nil {
		return err
	}
	if b.idx.removeUnit(unitID) == 0 {
		return nil
	}
	_ = os.RemoveAll(filepath.Join(b.dir, b.unitDir(unitID)))
	delete(b.unitDirs, unitID)
	return b.save()
}

func (b *fileBackend) clean() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idx = nil
	b.unitDirs = nil
	b.dirty = false
	if err := os.RemoveAll(b.dir); err != nil {
		return errors.Join(domain.ErrCacheBackend, zerr.With(zerr.Wrap(err, "failed to remove cache directory"), "path", b.dir))
	}
	return nil
}

// close flushes pending touches and unloads the index.
func (b *fileBackend) close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.idx == nil {
		return nil
	}
	var err error
	if b.dirty {
		err = b.save()
	}
	b.idx = nil
	b.unitDirs = nil
	return err
}
