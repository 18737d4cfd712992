package ports

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// FileHasher hashes single files, memoizing results by mtime and size.
//
//go:generate mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type FileHasher interface {
	// FileHash returns the content hash of the file at path.
	FileHash(path string) (domain.ContentHash, error)
	// Stat returns the modification time and size of the file at path.
	Stat(path string) (domain.FileStat, error)
}

// TreeHasher hashes directory trees.
type TreeHasher interface {
	// HashDir folds the hashes of every file under dir in sorted path order.
	// filter receives slash-separated paths relative to dir; nil keeps every file.
	HashDir(ctx context.Context, dir string, filter func(rel string) bool) (domain.ContentHash, error)
}
