package unit

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/kiln/internal/adapters/fs" //nolint:depguard // atomic writes for exports
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// SetFixedPath pins the unit's output to path. Every later full generation
// writes through to it. With generateNow the unit generates and writes
// immediately, bypassing the cache lookup.
func (u *Unit) SetFixedPath(ctx context.Context, path string, generateNow bool) error {
	abs, err := absPreservingSlash(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", path)
	}

	if err := u.acquire(ctx); err != nil {
		return err
	}
	defer u.release()

	u.mu.Lock()
	u.fixedPath = abs
	u.mu.Unlock()

	if !generateNow {
		return nil
	}

	hash, ok, err := u.hash(ctx)
	if err != nil {
		return err
	}
	if !ok {
		_, _, err = u.generate(ctx, hash)
		return err
	}
	_, err = u.generateAndStore(ctx, hash)
	return err
}

// ExportTo writes the unit's source under path. A single blob is written to
// path itself unless path ends in a separator; several blobs need a
// directory path.
func (u *Unit) ExportTo(ctx context.Context, path string) error {
	src, err := u.Source(ctx)
	if err != nil {
		return err
	}
	return Export(src, path)
}

func (u *Unit) writeThrough(src *domain.Source) error {
	path := u.FixedPath()
	if path == "" {
		return nil
	}
	return Export(src, path)
}

// Export writes src to path. See ExportTo for the layout.
func Export(src *domain.Source, path string) error {
	dir := isDirPath(path)
	if !dir && len(src.Blobs) > 1 {
		return zerr.With(
			zerr.Wrap(domain.ErrExportTargetNotDir, "cannot export "+strconv.Itoa(len(src.Blobs))+" blobs"),
			"path", path,
		)
	}

	if len(src.Blobs) == 0 {
		if !dir {
			return nil
		}
		if err := os.MkdirAll(path, domain.DirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", path)
		}
		return nil
	}

	for _, blob := range src.Blobs {
		target := path
		if dir {
			rel := filepath.FromSlash(blob.ID)
			if !filepath.IsLocal(rel) {
				return zerr.With(zerr.Wrap(domain.ErrInvalidBlobID, "blob id must be a local path"), "blob_id", blob.ID)
			}
			target = filepath.Join(path, rel)
		}
		if err := fs.WriteFileAtomic(target, blob.Data, domain.FilePerm); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrExportFailed.Error()), "path", target)
		}
	}
	return nil
}
