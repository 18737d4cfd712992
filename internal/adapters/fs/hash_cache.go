package fs

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"unique"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.FileHasher = (*HashCache)(nil)

type hashRecord struct {
	stat domain.FileStat
	hash domain.ContentHash
}

// HashCache memoizes file content hashes. A record stays valid while the
// file's modification time and size are unchanged.
type HashCache struct {
	mu      sync.RWMutex
	entries map[unique.Handle[string]]hashRecord
}

// NewHashCache creates an empty cache.
func NewHashCache() *HashCache {
	return &HashCache{entries: make(map[unique.Handle[string]]hashRecord)}
}

// DefaultHashCache returns the process-wide cache.
var DefaultHashCache = sync.OnceValue(NewHashCache)

// Stat returns the metadata used to validate cached hashes.
func (c *HashCache) Stat(path string) (domain.FileStat, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.FileStat{}, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	return stat(abs)
}

// FileHash returns the hash of the file at path, reading it only when it
// changed since the last call.
func (c *HashCache) FileHash(path string) (domain.ContentHash, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return domain.ContentHash{}, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", path)
	}
	st, err := stat(abs)
	if err != nil {
		return domain.ContentHash{}, err
	}

	key := unique.Make(abs)
	c.mu.RLock()
	rec, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && rec.stat.Same(st) {
		return rec.hash, nil
	}

	h, err := hashFile(abs)
	if err != nil {
		return domain.ContentHash{}, err
	}

	c.mu.Lock()
	c.entries[key] = hashRecord{stat: st, hash: h}
	c.mu.Unlock()
	return h, nil
}

// Forget drops the record for path so the next FileHash re-reads it.
func (c *HashCache) Forget(path string) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, unique.Make(abs))
	c.mu.Unlock()
}

func stat(abs string) (domain.FileStat, error) {
	info, err := os.Stat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.FileStat{}, zerr.With(zerr.Wrap(err, domain.ErrFileNotFound.Error()), "path", abs)
		}
		return domain.FileStat{}, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", abs)
	}
	return domain.FileStat{ModTime: info.ModTime(), Size: info.Size()}, nil
}

func hashFile(abs string) (domain.ContentHash, error) {
	f, err := os.Open(abs) //nolint:gosec // Path is controlled by caller
	if err != nil {
		return domain.ContentHash{}, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", abs)
	}
	defer f.Close() //nolint:errcheck // Best effort close in defer

	h, err := domain.HashReader(f)
	if err != nil {
		return domain.ContentHash{}, zerr.With(err, "path", abs)
	}
	return h, nil
}
