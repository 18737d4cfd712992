package app_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/grindlemire/graft"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/fs"
	"go.trai.ch/kiln/internal/adapters/logger"
	"go.trai.ch/kiln/internal/adapters/manifest"
	"go.trai.ch/kiln/internal/adapters/metrics"
	"go.trai.ch/kiln/internal/adapters/settings"
	"go.trai.ch/kiln/internal/adapters/telemetry"
	"go.trai.ch/kiln/internal/app"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/units"
	_ "go.trai.ch/kiln/internal/wiring" // Register providers
)

const siteManifest = `
configStore: kiln.overrides.json
units:
  - id: banner
    kind: text
    cache:
      kind: memory
    dependencies: [styles]
    config:
      blobs:
        banner.txt: hello
  - id: styles
    kind: files
    cache:
      kind: file
    config:
      paths: [assets]
      include: ["*.css"]
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
}

func newApp(t *testing.T) *app.App {
	t.Helper()
	log := logger.New()
	log.SetOutput(io.Discard)
	walker := fs.NewWalker()
	files := fs.NewHashCache()
	return app.New(
		log,
		settings.NewLoader(),
		manifest.NewLoader(),
		units.NewRegistry(),
		walker,
		files,
		fs.NewTreeHasher(walker, files),
		metrics.New(),
		telemetry.NewProvider(log),
	)
}

func newSite(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, domain.ManifestFileName), siteManifest)
	writeFile(t, filepath.Join(root, "assets", "main.css"), "body{}")
	writeFile(t, filepath.Join(root, "assets", "theme", "dark.css"), ".dark{}")
	writeFile(t, filepath.Join(root, "assets", "README.md"), "not served")
	return root
}

func TestApp_Open(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)

	sess, err := a.Open(ctx, newSite(t))
	require.NoError(t, err)
	defer func() { require.NoError(t, sess.Close(ctx)) }()

	assert.Equal(t, []string{"styles", "banner"}, sess.Project.UnitIDs())

	banner, ok := sess.Project.Unit("banner")
	require.True(t, ok)
	assert.Equal(t, units.TextKind, banner.Kind())
	assert.Equal(t, []string{"styles"}, banner.DependencyIDs())
	assert.True(t, banner.HasInheritedConfigStore())
	assert.Equal(t, "pretty", sess.Settings.Log.Format)
}

func TestApp_Source(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	root := newSite(t)

	src, err := a.Source(ctx, root, app.SourceOptions{Unit: "styles"})
	require.NoError(t, err)
	assert.Equal(t, []string{"main.css", "theme/dark.css"}, src.IDs())
	assert.True(t, src.Complete)

	single, err := a.Source(ctx, root, app.SourceOptions{Unit: "styles", Blob: "theme/dark.css"})
	require.NoError(t, err)
	require.Len(t, single.Blobs, 1)
	assert.Equal(t, ".dark{}", string(single.Blobs[0].Data))

	_, err = a.Source(ctx, root, app.SourceOptions{Unit: "styles", Blob: "README.md"})
	assert.ErrorIs(t, err, domain.ErrBlobNotFound)

	_, err = a.Source(ctx, root, app.SourceOptions{Unit: "scripts"})
	assert.ErrorIs(t, err, domain.ErrUnitNotFound)

	out := filepath.Join(t.TempDir(), "public") + string(filepath.Separator)
	_, err = a.Source(ctx, root, app.SourceOptions{Unit: "styles", Out: out})
	require.NoError(t, err)
	data, err := os.ReadFile(filepath.Join(out, "theme", "dark.css"))
	require.NoError(t, err)
	assert.Equal(t, ".dark{}", string(data))
}

func TestApp_HashFollowsFiles(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	root := newSite(t)

	h1, ok, err := a.Hash(ctx, root, "styles")
	require.NoError(t, err)
	require.True(t, ok)

	again, _, err := a.Hash(ctx, root, "styles")
	require.NoError(t, err)
	assert.Equal(t, h1, again)

	path := filepath.Join(root, "assets", "main.css")
	writeFile(t, path, "body{margin:0}")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	h2, _, err := a.Hash(ctx, root, "styles")
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2)

	bannerHash, ok, err := a.Hash(ctx, root, "banner")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEqual(t, h2, bannerHash)
}

func TestApp_List(t *testing.T) {
	ids, err := newApp(t).List(context.Background(), newSite(t), "banner")
	require.NoError(t, err)
	assert.Equal(t, []string{"banner.txt"}, ids)
}

func TestApp_Config(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	root := newSite(t)

	view, err := a.Config(ctx, root, "banner")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"blobs": map[string]any{"banner.txt": "hello"}}, view.Editable)
	assert.Equal(t, units.TextKind, view.Meta.Kind)

	before, _, err := a.Hash(ctx, root, "banner")
	require.NoError(t, err)

	patch := map[string]any{"blobs": map[string]any{"banner.txt": "bye"}}
	view, err = a.SetConfig(ctx, root, "banner", patch, domain.ConfigModePersist)
	require.NoError(t, err)
	assert.Equal(t, patch, view.Editable)

	// A fresh session picks the persisted patch up.
	src, err := a.Source(ctx, root, app.SourceOptions{Unit: "banner"})
	require.NoError(t, err)
	assert.Equal(t, "bye", string(src.Blobs[0].Data))

	after, _, err := a.Hash(ctx, root, "banner")
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
	assert.FileExists(t, filepath.Join(root, domain.DefaultConfigStoreFileName))

	view, err = a.ClearConfig(ctx, root, "banner")
	require.NoError(t, err)
	assert.Equal(t, patch, view.Editable)

	_, err = a.Config(ctx, root, "scripts")
	assert.ErrorIs(t, err, domain.ErrConfigTargetUnknown)

	_, err = a.SetConfig(ctx, root, "scripts", patch, domain.ConfigModePreview)
	assert.ErrorIs(t, err, domain.ErrConfigTargetUnknown)

	_, err = a.ClearConfig(ctx, root, "scripts")
	assert.ErrorIs(t, err, domain.ErrConfigTargetUnknown)
}

func TestApp_PreviewIsNotSaved(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	root := newSite(t)

	patch := map[string]any{"blobs": map[string]any{"banner.txt": "draft"}}
	view, err := a.SetConfig(ctx, root, "banner", patch, domain.ConfigModePreview)
	require.NoError(t, err)
	assert.Equal(t, patch, view.Editable)
	assert.NoFileExists(t, filepath.Join(root, domain.DefaultConfigStoreFileName))

	src, err := a.Source(ctx, root, app.SourceOptions{Unit: "banner"})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(src.Blobs[0].Data))
}

func TestApp_SetConfigWithoutStore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, domain.ManifestFileName), `
units:
  - id: banner
    kind: text
    config:
      blobs:
        banner.txt: hello
`)

	_, err := newApp(t).SetConfig(context.Background(), root, "banner", map[string]any{}, domain.ConfigModePersist)
	assert.ErrorIs(t, err, domain.ErrNoConfigStore)

	_, err = newApp(t).ClearConfig(context.Background(), root, "banner")
	assert.ErrorIs(t, err, domain.ErrNoConfigStore)
}

func TestApp_CleanCache(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	root := newSite(t)

	_, err := a.Source(ctx, root, app.SourceOptions{Unit: "styles"})
	require.NoError(t, err)
	assert.DirExists(t, filepath.Join(root, domain.DefaultCachePath()))

	require.NoError(t, a.CleanCache(ctx, root))
	assert.NoDirExists(t, filepath.Join(root, domain.DefaultCachePath()))
}

func TestApp_Refresh(t *testing.T) {
	ctx := context.Background()
	a := newApp(t)
	root := newSite(t)

	require.NoError(t, a.Refresh(ctx, root, "styles"))
	assert.ErrorIs(t, a.Refresh(ctx, root, "scripts"), domain.ErrUnitNotFound)
}

func TestApp_OpenErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
		contains string
	}{
		{name: "missing manifest", contains: domain.ErrManifestReadFailed.Error()},
		{
			name:     "unknown kind",
			manifest: "units:\n  - id: a\n    kind: sass\n",
			contains: domain.ErrUnknownUnitKind.Error(),
		},
		{
			name:     "unknown config key",
			manifest: "units:\n  - id: a\n    kind: text\n    config:\n      blbos: {}\n",
			contains: "invalid unit config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			if tt.manifest != "" {
				writeFile(t, filepath.Join(root, domain.ManifestFileName), tt.manifest)
			}
			_, err := newApp(t).Open(context.Background(), root)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.contains)
		})
	}
}

func TestAppWiring(t *testing.T) {
	components, _, err := graft.ExecuteFor[*app.Components](context.Background())
	require.NoError(t, err)
	require.NotNil(t, components)
	require.NotNil(t, components.App)
	require.NotNil(t, components.Logger)
}
