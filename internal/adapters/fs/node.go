package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/kiln/internal/core/ports"
)

const (
	// WalkerNodeID is the graft node ID for the file walker.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// FileHasherNodeID is the graft node ID for the process-wide hash cache.
	FileHasherNodeID graft.ID = "adapter.fs.file_hasher"
	// TreeHasherNodeID is the graft node ID for the directory hasher.
	TreeHasherNodeID graft.ID = "adapter.fs.tree_hasher"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.FileHasher]{
		ID:        FileHasherNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.FileHasher, error) {
			return DefaultHashCache(), nil
		},
	})

	graft.Register(graft.Node[ports.TreeHasher]{
		ID:        TreeHasherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID, FileHasherNodeID},
		Run: func(ctx context.Context) (ports.TreeHasher, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			files, err := graft.Dep[ports.FileHasher](ctx)
			if err != nil {
				return nil, err
			}
			return NewTreeHasher(walker, files), nil
		},
	})
}
