// Package fs provides file system adapters for walking and hashing files.
package fs

import (
	"errors"
	"io/fs"
	"iter"
	"path/filepath"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// Walker lists the files of a directory tree.
type Walker struct{}

// NewWalker creates a new Walker.
func NewWalker() *Walker {
	return &Walker{}
}

// WalkFiles yields every regular file below root as a slash-separated path
// relative to root. Version control directories and the .kiln directory are
// never entered, and any entry whose base name matches one of ignores is
// skipped. A walk failure is yielded once as the second value and ends the
// sequence.
func (w *Walker) WalkFiles(root string, ignores []string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stopped := false
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if path == root {
				return nil
			}
			if skip, action := w.skip(d, ignores); skip {
				return action
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if !yield(filepath.ToSlash(rel), nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if err != nil && !stopped {
			if errors.Is(err, fs.ErrNotExist) {
				err = zerr.Wrap(err, domain.ErrFileNotFound.Error())
			} else {
				err = zerr.Wrap(err, domain.ErrWalkFailed.Error())
			}
			yield("", zerr.With(err, "path", root))
		}
	}
}

// skip reports whether d is excluded and what WalkDir should do about it.
func (w *Walker) skip(d fs.DirEntry, ignores []string) (bool, error) {
	name := d.Name()

	if d.IsDir() {
		switch name {
		case ".git", ".jj", domain.KilnDirName:
			return true, filepath.SkipDir
		}
	}

	for _, ignore := range ignores {
		if matched, _ := filepath.Match(ignore, name); matched {
			if d.IsDir() {
				return true, filepath.SkipDir
			}
			return true, nil
		}
	}
	return false, nil
}
