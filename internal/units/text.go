package units

import (
	"context"
	"maps"
	"slices"

	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/engine/unit"
)

// TextKind is the manifest kind of Text units.
const TextKind = "text"

// TextConfig declares blobs inline.
type TextConfig struct {
	Blobs map[string]string `mapstructure:"blobs"`
}

// Text produces blobs declared in its config. It relies on the default config
// hash, so any config patch changes its hash.
type Text struct {
	cfg *TextConfig
}

// NewText builds a Text unit from a declared config.
func NewText(_ Deps, config map[string]any) (unit.Generator, error) {
	cfg := &TextConfig{}
	if err := decodeConfig(TextKind, config, cfg); err != nil {
		return nil, err
	}
	return &Text{cfg: cfg}, nil
}

// Config implements unit.Configurable.
func (t *Text) Config() any { return t.cfg }

// Generate implements unit.Generator.
func (t *Text) Generate(ctx context.Context) ([]domain.Blob, error) {
	ids, _, _ := t.List(ctx)
	blobs := make([]domain.Blob, len(ids))
	for i, id := range ids {
		blobs[i] = domain.Blob{ID: id, Data: []byte(t.cfg.Blobs[id])}
	}
	return blobs, nil
}

// GeneratePartial implements unit.PartialGenerator.
func (t *Text) GeneratePartial(_ context.Context, id string, _ domain.ContentHash) (domain.Blob, bool, error) {
	data, ok := t.cfg.Blobs[id]
	if !ok {
		return domain.Blob{}, false, nil
	}
	return domain.Blob{ID: id, Data: []byte(data)}, true, nil
}

// List implements unit.Lister.
func (t *Text) List(_ context.Context) ([]string, bool, error) {
	return slices.Sorted(maps.Keys(t.cfg.Blobs)), true, nil
}
