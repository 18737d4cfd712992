package project

import (
	"context"

	"go.trai.ch/kiln/internal/adapters/configstore" //nolint:depguard // editable config snapshots
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// GetConfig returns the effective, editable config of the unit id. The
// boolean is false for unknown ids.
func (p *Project) GetConfig(ctx context.Context, id string) (*domain.ConfigView, bool, error) {
	u, ok := p.Unit(id)
	if !ok {
		return nil, false, nil
	}
	var editable map[string]any
	err := u.ReadConfig(ctx, func(cfg any) error {
		var err error
		editable, err = configstore.Snapshot(cfg)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return &domain.ConfigView{
		ID:       id,
		Editable: editable,
		Meta: domain.ConfigMeta{
			Kind:                    u.Kind(),
			CacheStrategy:           u.Strategy().String(),
			DependencyIDs:           u.DependencyIDs(),
			HasOwnConfigStore:       u.HasOwnConfigStore(),
			HasInheritedConfigStore: u.HasInheritedConfigStore(),
		},
	}, true, nil
}

// SetConfig patches the config of the unit id. Preview edits stay in memory
// for the lifetime of the project; persist edits replace the stored patch and
// write it. The boolean is false for unknown ids and units without a store.
func (p *Project) SetConfig(ctx context.Context, id string, patch map[string]any, mode domain.ConfigMode) (bool, error) {
	u, ok := p.Unit(id)
	if !ok {
		return false, nil
	}
	return u.EditConfig(ctx, func(ctx context.Context, store ports.ConfigStore) error {
		if mode == domain.ConfigModePersist {
			return store.SetPatch(ctx, u, patch)
		}
		store.SetEntry(id, patch)
		return nil
	})
}

// ClearConfigPreview reverts the unit id to its persisted patch. Clearing a
// unit without a preview succeeds. The boolean is false for unknown ids and
// units without a store.
func (p *Project) ClearConfigPreview(ctx context.Context, id string) (bool, error) {
	u, ok := p.Unit(id)
	if !ok {
		return false, nil
	}
	return u.EditConfig(ctx, func(_ context.Context, store ports.ConfigStore) error {
		store.ClearPreview(id)
		return nil
	})
}
