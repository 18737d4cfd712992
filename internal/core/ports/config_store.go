package ports

import "context"

// ConfigTarget is a component whose configuration can be overlaid.
type ConfigTarget interface {
	ComponentID() string
	// Config returns a pointer to a struct or a map[string]any, or nil when
	// the component has no configuration.
	Config() any
}

// ConfigStore overlays patches from a JSON document onto component configs.
//
//go:generate mockgen -source=config_store.go -destination=mocks/mock_config_store.go -package=mocks
type ConfigStore interface {
	// EnsureApplied writes the effective config into target if it changed.
	EnsureApplied(ctx context.Context, target ConfigTarget) error

	// SetEntry records an in-memory preview patch for id.
	SetEntry(id string, patch map[string]any)

	// SetPatch replaces the persisted patch for target, writes the document
	// and re-applies the config.
	SetPatch(ctx context.Context, target ConfigTarget, patch map[string]any) error

	// ClearPreview drops the preview for id. It reports whether one existed.
	ClearPreview(id string) bool

	// IsDirty reports whether id has unflushed previews. An empty id checks all.
	IsDirty(id string) bool

	// Flush promotes previews into the document and writes it.
	Flush(ctx context.Context) error

	// Path returns the document location.
	Path() string
}
