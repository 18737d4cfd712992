package unit

import (
	"context"

	"go.trai.ch/kiln/internal/core/domain"
)

// Generator produces every blob of a unit.
type Generator interface {
	Generate(ctx context.Context) ([]domain.Blob, error)
}

// HashGenerator replaces the default config hash. A false result marks the
// unit uncacheable for this request.
type HashGenerator interface {
	GenerateHash(ctx context.Context) (domain.ContentHash, bool, error)
}

// PartialGenerator produces a single blob. A false result means the id
// cannot be produced on its own.
type PartialGenerator interface {
	GeneratePartial(ctx context.Context, id string, hash domain.ContentHash) (domain.Blob, bool, error)
}

// Lister reports every blob id a unit can produce without generating. A false
// result means the set is unknown.
type Lister interface {
	List(ctx context.Context) ([]string, bool, error)
}

// ErrorHandler substitutes blobs when generation fails.
type ErrorHandler interface {
	HandleError(ctx context.Context, err error) ([]domain.Blob, error)
}

// Configurable exposes a config that can be hashed and overlaid. Config
// returns a pointer to a struct or a map[string]any.
type Configurable interface {
	Config() any
}

type capabilities struct {
	hash    HashGenerator
	partial PartialGenerator
	list    Lister
	onError ErrorHandler
	config  Configurable
}

func resolveCapabilities(gen Generator) capabilities {
	var c capabilities
	c.hash, _ = gen.(HashGenerator)
	c.partial, _ = gen.(PartialGenerator)
	c.list, _ = gen.(Lister)
	c.onError, _ = gen.(ErrorHandler)
	c.config, _ = gen.(Configurable)
	return c
}
