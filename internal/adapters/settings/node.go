package settings

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the graft node ID for the settings loader.
const NodeID graft.ID = "adapter.settings"

func init() {
	graft.Register(graft.Node[*Loader]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Loader, error) {
			return NewLoader(), nil
		},
	})
}
