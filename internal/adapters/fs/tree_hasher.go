package fs

import (
	"context"
	"path/filepath"
	"runtime"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
	"golang.org/x/sync/errgroup"
)

var _ ports.TreeHasher = (*TreeHasher)(nil)

// TreeHasher hashes directory trees through a FileHasher.
type TreeHasher struct {
	walker *Walker
	files  ports.FileHasher
}

// NewTreeHasher creates a TreeHasher.
func NewTreeHasher(walker *Walker, files ports.FileHasher) *TreeHasher {
	return &TreeHasher{walker: walker, files: files}
}

// HashDir folds the content hashes of the files under dir, ordered by their
// relative path. Only contents take part, so renaming a file without
// changing its position in the order keeps the hash.
func (t *TreeHasher) HashDir(ctx context.Context, dir string, filter func(rel string) bool) (domain.ContentHash, error) {
	var rels []string
	for rel, err := range t.walker.WalkFiles(dir, nil) {
		if err != nil {
			return domain.ContentHash{}, err
		}
		if filter == nil || filter(rel) {
			rels = append(rels, rel)
		}
	}
	slices.Sort(rels)

	hashes := make([]domain.ContentHash, len(rels))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, rel := range rels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			h, err := t.files.FileHash(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil {
				return err
			}
			hashes[i] = h
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.ContentHash{}, err
	}
	return domain.Fold(hashes...), nil
}
