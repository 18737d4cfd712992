package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/manifest"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), domain.ManifestFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), domain.PrivateFilePerm))
	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeManifest(t, `
configStore: overrides.json
units:
  - id: site
    kind: text
    dependencies: [css]
    config:
      blobs:
        index.html: "<h1>hi</h1>"
  - id: css
    kind: files
    cache:
      kind: file
      limit: 2
    configStore: css.json
    config:
      dir: assets/css
`)

	m, err := manifest.NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, "overrides.json", m.ConfigStore)

	var specs []domain.UnitSpec
	for spec := range m.Graph.Walk() {
		specs = append(specs, spec)
	}
	require.Len(t, specs, 2)

	css, site := specs[0], specs[1]
	assert.Equal(t, "css", css.ID)
	assert.Equal(t, domain.InFile(domain.LimitCountByLastUse(2), domain.CheckAllOnUse), css.Strategy)
	assert.Equal(t, "css.json", css.ConfigStore)
	assert.Equal(t, "assets/css", css.Config["dir"])

	assert.Equal(t, "site", site.ID)
	assert.Equal(t, domain.NoCache, site.Strategy)
	assert.Equal(t, []string{"css"}, site.Dependencies)
}

func TestLoader_DefaultConfigStore(t *testing.T) {
	path := writeManifest(t, "useDefaultConfigStore: true\nunits: []\n")

	m, err := manifest.NewLoader().Load(path)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultConfigStoreFileName, m.ConfigStore)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    error
	}{
		{
			name:    "malformed yaml",
			content: "units: [",
			want:    domain.ErrManifestParseFailed,
		},
		{
			name:    "missing kind",
			content: "units:\n  - id: a\n",
			want:    domain.ErrManifestInvalid,
		},
		{
			name:    "unknown cache kind",
			content: "units:\n  - id: a\n    kind: text\n    cache:\n      kind: redis\n",
			want:    domain.ErrManifestInvalid,
		},
		{
			name:    "duplicate id",
			content: "units:\n  - id: a\n    kind: text\n  - id: a\n    kind: text\n",
			want:    domain.ErrUnitAlreadyExists,
		},
		{
			name:    "missing dependency",
			content: "units:\n  - id: a\n    kind: text\n    dependencies: [b]\n",
			want:    domain.ErrMissingDependency,
		},
		{
			name:    "cycle",
			content: "units:\n  - id: a\n    kind: text\n    dependencies: [b]\n  - id: b\n    kind: text\n    dependencies: [a]\n",
			want:    domain.ErrCycleDetected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeManifest(t, tt.content)
			_, err := manifest.NewLoader().Load(path)
			require.Error(t, err)
			assert.ErrorContains(t, err, tt.want.Error())

			var zErr *zerr.Error
			require.ErrorAs(t, err, &zErr)
			assert.Equal(t, path, zErr.Metadata()["path"])
		})
	}
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := manifest.NewLoader().Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorContains(t, err, domain.ErrManifestReadFailed.Error())
}
