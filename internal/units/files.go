package units

import (
	"context"
	"errors"
	iofs "io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/unit"
	"go.trai.ch/zerr"
)

// FilesKind is the manifest kind of Files units.
const FilesKind = "files"

// FilesConfig selects files under the project root.
type FilesConfig struct {
	// Paths are files or directories relative to the root. A file yields one
	// blob named after its base name; a directory yields one blob per file,
	// named by its path relative to the directory.
	Paths []string `mapstructure:"paths"`
	// Include keeps only blob ids matching one of the patterns. Empty keeps
	// everything.
	Include []string `mapstructure:"include"`
}

// Files serves files from disk. Its hash folds the contents of every
// selected file, so edits on disk invalidate cached sources.
type Files struct {
	deps Deps
	cfg  *FilesConfig
}

// NewFiles builds a Files unit from a declared config.
func NewFiles(deps Deps, config map[string]any) (unit.Generator, error) {
	cfg := &FilesConfig{}
	if err := decodeConfig(FilesKind, config, cfg); err != nil {
		return nil, err
	}
	if deps.Walker == nil || deps.Files == nil || deps.Tree == nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrInvalidUnit, "files unit needs a walker and hashers"), "kind", FilesKind)
	}
	return &Files{deps: deps, cfg: cfg}, nil
}

// Config implements unit.Configurable.
func (f *Files) Config() any { return f.cfg }

type fileEntry struct {
	id  string
	abs string
}

func (f *Files) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(f.deps.Root, filepath.FromSlash(p))
}

func (f *Files) included(id string) bool {
	if len(f.cfg.Include) == 0 {
		return true
	}
	for _, pattern := range f.cfg.Include {
		if ok, _ := path.Match(pattern, id); ok {
			return true
		}
		if ok, _ := path.Match(pattern, path.Base(id)); ok {
			return true
		}
	}
	return false
}

func (f *Files) stat(abs string) (os.FileInfo, error) {
	info, err := os.Stat(abs)
	if errors.Is(err, iofs.ErrNotExist) {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrFileNotFound.Error()), "path", abs)
	}
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrPathStatFailed.Error()), "path", abs)
	}
	return info, nil
}

// entries lists the selected files in declaration order, each directory
// sorted by relative path.
func (f *Files) entries() ([]fileEntry, error) {
	var out []fileEntry
	for _, p := range f.cfg.Paths {
		abs := f.resolve(p)
		info, err := f.stat(abs)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if id := filepath.Base(abs); f.included(id) {
				out = append(out, fileEntry{id: id, abs: abs})
			}
			continue
		}

		var rels []string
		for rel, err := range f.deps.Walker.WalkFiles(abs, nil) {
			if err != nil {
				return nil, err
			}
			if f.included(rel) {
				rels = append(rels, rel)
			}
		}
		slices.Sort(rels)
		for _, rel := range rels {
			out = append(out, fileEntry{id: rel, abs: filepath.Join(abs, filepath.FromSlash(rel))})
		}
	}
	return out, nil
}

// GenerateHash implements unit.HashGenerator.
func (f *Files) GenerateHash(ctx context.Context) (domain.ContentHash, bool, error) {
	hashes := []domain.ContentHash{domain.HashConfig(f.cfg)}
	for _, p := range f.cfg.Paths {
		abs := f.resolve(p)
		info, err := f.stat(abs)
		if err != nil {
			return domain.ContentHash{}, false, err
		}

		var h domain.ContentHash
		if info.IsDir() {
			h, err = f.deps.Tree.HashDir(ctx, abs, f.included)
		} else if f.included(filepath.Base(abs)) {
			h, err = f.deps.Files.FileHash(abs)
		} else {
			continue
		}
		if err != nil {
			return domain.ContentHash{}, false, err
		}
		hashes = append(hashes, h)
	}
	return domain.Fold(hashes...), true, nil
}

// Generate implements unit.Generator.
func (f *Files) Generate(_ context.Context) ([]domain.Blob, error) {
	entries, err := f.entries()
	if err != nil {
		return nil, err
	}
	blobs := make([]domain.Blob, 0, len(entries))
	for _, e := range entries {
		blob, err := readBlob(e)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, blob)
	}
	return blobs, nil
}

// GeneratePartial implements unit.PartialGenerator.
func (f *Files) GeneratePartial(_ context.Context, id string, _ domain.ContentHash) (domain.Blob, bool, error) {
	entries, err := f.entries()
	if err != nil {
		return domain.Blob{}, false, err
	}
	for _, e := range entries {
		if e.id == id {
			blob, err := readBlob(e)
			return blob, err == nil, err
		}
	}
	return domain.Blob{}, false, nil
}

// List implements unit.Lister.
func (f *Files) List(_ context.Context) ([]string, bool, error) {
	entries, err := f.entries()
	if err != nil {
		return nil, false, err
	}
	ids := make([]string, len(entries))
	for i, e := range entries {
		ids[i] = e.id
	}
	return ids, true, nil
}

func readBlob(e fileEntry) (domain.Blob, error) {
	data, err := os.ReadFile(e.abs)
	if err != nil {
		return domain.Blob{}, zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", e.abs)
	}
	return domain.Blob{ID: e.id, Data: data}, nil
}
