package project_test

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/cache"
	"go.trai.ch/kiln/internal/adapters/configstore"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.trai.ch/kiln/internal/engine/project"
	"go.trai.ch/kiln/internal/engine/unit"
	"go.uber.org/mock/gomock"
	"golang.org/x/sync/errgroup"
)

type styleConfig struct {
	Minify bool             `mapstructure:"minify"`
	Width  int              `mapstructure:"width"`
	Owner  *project.Project `mapstructure:"-"`
}

type styleGen struct {
	cfg *styleConfig
}

func (g *styleGen) Generate(context.Context) ([]domain.Blob, error) {
	return []domain.Blob{{ID: "style.css", Data: fmt.Appendf(nil, "minify=%t width=%d", g.cfg.Minify, g.cfg.Width)}}, nil
}

func (g *styleGen) Config() any { return g.cfg }

type plainGen struct{}

func (plainGen) Generate(context.Context) ([]domain.Blob, error) { return nil, nil }

func newProject(t *testing.T, storePath string) *project.Project {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	root := t.TempDir()
	rt := &unit.Runtime{Cache: cache.NewManager(root, log, nil), Logger: log}
	if storePath != "" {
		rt.ConfigStore = configstore.New(storePath, log)
	}
	return project.New(root, rt)
}

func readDoc(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	doc := map[string]any{}
	require.NoError(t, json.Unmarshal(data, &doc))
	return doc
}

func TestProject_Registry(t *testing.T) {
	p := newProject(t, "")

	a, err := p.NewUnit(plainGen{}, unit.Options{ID: "a"})
	require.NoError(t, err)
	_, err = p.NewUnit(plainGen{}, unit.Options{ID: "b", Dependencies: []*unit.Unit{a}})
	require.NoError(t, err)

	_, err = p.NewUnit(plainGen{}, unit.Options{ID: "a"})
	assert.ErrorIs(t, err, domain.ErrUnitAlreadyExists)

	assert.Equal(t, []string{"a", "b"}, p.UnitIDs())
	require.Len(t, p.Units(), 2)
	assert.Equal(t, "b", p.Units()[1].ID())

	got, ok := p.Unit("a")
	require.True(t, ok)
	assert.Same(t, a, got)

	_, err = p.MustUnit("zzz")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)

	_, _, err = p.UnitHash(context.Background(), "zzz")
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)

	h, ok, err := p.UnitHash(context.Background(), "b")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, domain.ContentHash{}, h)

	require.NoError(t, p.Close(context.Background()))
}

func TestProject_GetConfig(t *testing.T) {
	ctx := context.Background()
	p := newProject(t, filepath.Join(t.TempDir(), "overrides.json"))
	gen := &styleGen{cfg: &styleConfig{Width: 10}}
	gen.cfg.Owner = p

	_, err := p.NewUnit(gen, unit.Options{
		ID:       "styles",
		Kind:     "style",
		Strategy: domain.InMemory(domain.LimitCountByLastUse(2), domain.CheckAllOnUse),
	})
	require.NoError(t, err)

	view, ok, err := p.GetConfig(ctx, "styles")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "styles", view.ID)
	assert.Equal(t, map[string]any{"minify": false, "width": float64(10)}, view.Editable)
	assert.Equal(t, domain.ConfigMeta{
		Kind:                    "style",
		CacheStrategy:           "InMemory(LimitCountByLastUse(2), AllOnUse)",
		DependencyIDs:           []string{},
		HasInheritedConfigStore: true,
	}, view.Meta)

	_, ok, err = p.GetConfig(ctx, "unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProject_PreviewLifecycle(t *testing.T) {
	ctx := context.Background()
	storePath := filepath.Join(t.TempDir(), "overrides.json")
	p := newProject(t, storePath)
	gen := &styleGen{cfg: &styleConfig{Width: 10}}
	u, err := p.NewUnit(gen, unit.Options{ID: "styles", Strategy: domain.InMemory(domain.KeepForever(), domain.CheckAllOnUse)})
	require.NoError(t, err)

	before, _, err := u.Hash(ctx)
	require.NoError(t, err)

	ok, err := p.SetConfig(ctx, "styles", map[string]any{"minify": true}, domain.ConfigModePreview)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, gen.cfg.Minify)
	assert.NoFileExists(t, storePath)

	src, err := u.Source(ctx)
	require.NoError(t, err)
	assert.Equal(t, "minify=true width=10", string(src.Blobs[0].Data))

	during, _, err := u.Hash(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, before, during)

	ok, err = p.ClearConfigPreview(ctx, "styles")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, gen.cfg.Minify)

	after, _, err := u.Hash(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Nothing left to clear still succeeds for a unit with a store.
	ok, err = p.ClearConfigPreview(ctx, "styles")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestProject_ClearConfigPreviewWithoutTarget(t *testing.T) {
	ctx := context.Background()

	withStore := newProject(t, filepath.Join(t.TempDir(), "overrides.json"))
	ok, err := withStore.ClearConfigPreview(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	withoutStore := newProject(t, "")
	_, err = withoutStore.NewUnit(&styleGen{cfg: &styleConfig{}}, unit.Options{ID: "styles"})
	require.NoError(t, err)
	ok, err = withoutStore.ClearConfigPreview(ctx, "styles")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProject_PersistSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	storePath := filepath.Join(t.TempDir(), "overrides.json")

	p := newProject(t, storePath)
	_, err := p.NewUnit(&styleGen{cfg: &styleConfig{Width: 10}}, unit.Options{ID: "styles"})
	require.NoError(t, err)

	ok, err := p.SetConfig(ctx, "styles", map[string]any{"width": 20}, domain.ConfigModePersist)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"styles": map[string]any{"width": float64(20)}}, readDoc(t, storePath))
	require.NoError(t, p.Close(ctx))

	restarted := newProject(t, storePath)
	gen := &styleGen{cfg: &styleConfig{Width: 10}}
	_, err = restarted.NewUnit(gen, unit.Options{ID: "styles"})
	require.NoError(t, err)

	view, ok, err := restarted.GetConfig(ctx, "styles")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, float64(20), view.Editable["width"])
	assert.Equal(t, 20, gen.cfg.Width)
}

func TestProject_CloseDropsPreviews(t *testing.T) {
	ctx := context.Background()
	storePath := filepath.Join(t.TempDir(), "overrides.json")
	p := newProject(t, storePath)
	_, err := p.NewUnit(&styleGen{cfg: &styleConfig{}}, unit.Options{ID: "styles"})
	require.NoError(t, err)

	_, err = p.SetConfig(ctx, "styles", map[string]any{"minify": true}, domain.ConfigModePreview)
	require.NoError(t, err)
	require.NoError(t, p.Close(ctx))

	assert.NoFileExists(t, storePath)
}

func TestProject_FlushConfig(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	shared := filepath.Join(dir, "overrides.json")
	own := filepath.Join(dir, "scripts.json")
	p := newProject(t, shared)
	log := mocks.NewMockLogger(gomock.NewController(t))
	_, err := p.NewUnit(&styleGen{cfg: &styleConfig{}}, unit.Options{ID: "styles"})
	require.NoError(t, err)
	_, err = p.NewUnit(&styleGen{cfg: &styleConfig{}}, unit.Options{
		ID:          "scripts",
		ConfigStore: configstore.New(own, log),
	})
	require.NoError(t, err)

	n, err := p.FlushConfig(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.NoFileExists(t, shared)

	_, err = p.SetConfig(ctx, "styles", map[string]any{"minify": true}, domain.ConfigModePreview)
	require.NoError(t, err)
	_, err = p.SetConfig(ctx, "scripts", map[string]any{"width": 3}, domain.ConfigModePreview)
	require.NoError(t, err)

	n, err = p.FlushConfig(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, map[string]any{"styles": map[string]any{"minify": true}}, readDoc(t, shared))
	assert.Equal(t, map[string]any{"scripts": map[string]any{"width": float64(3)}}, readDoc(t, own))
}

// GetConfig must not observe a config while an edit or hash on the same unit
// rewrites it. Run with -race.
func TestProject_ConcurrentConfigAccess(t *testing.T) {
	ctx := context.Background()
	p := newProject(t, filepath.Join(t.TempDir(), "overrides.json"))
	u, err := p.NewUnit(&styleGen{cfg: &styleConfig{}}, unit.Options{ID: "styles"})
	require.NoError(t, err)

	const rounds = 200
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := range rounds {
			if _, err := p.SetConfig(ctx, "styles", map[string]any{"width": i, "minify": i%2 == 0}, domain.ConfigModePreview); err != nil {
				return err
			}
			if _, _, err := u.Hash(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	g.Go(func() error {
		for range rounds {
			view, ok, err := p.GetConfig(ctx, "styles")
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("styles vanished")
			}
			width, _ := view.Editable["width"].(float64)
			if minify, _ := view.Editable["minify"].(bool); minify != (int(width)%2 == 0) {
				return fmt.Errorf("torn config: %v", view.Editable)
			}
		}
		return nil
	})
	require.NoError(t, g.Wait())

	view, _, err := p.GetConfig(context.Background(), "styles")
	require.NoError(t, err)
	assert.Equal(t, float64(rounds-1), view.Editable["width"])
}

func TestProject_SetConfigWithoutTarget(t *testing.T) {
	ctx := context.Background()

	withStore := newProject(t, filepath.Join(t.TempDir(), "overrides.json"))
	ok, err := withStore.SetConfig(ctx, "missing", map[string]any{"a": 1}, domain.ConfigModePersist)
	require.NoError(t, err)
	assert.False(t, ok)

	withoutStore := newProject(t, "")
	_, err = withoutStore.NewUnit(&styleGen{cfg: &styleConfig{}}, unit.Options{ID: "styles"})
	require.NoError(t, err)
	ok, err = withoutStore.SetConfig(ctx, "styles", map[string]any{"minify": true}, domain.ConfigModePreview)
	require.NoError(t, err)
	assert.False(t, ok)

	view, ok, err := withoutStore.GetConfig(ctx, "styles")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, false, view.Editable["minify"])
	assert.False(t, view.Meta.HasInheritedConfigStore)
}
