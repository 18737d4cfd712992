package admin_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/kiln/internal/adapters/admin"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

type fakeService struct {
	views    map[string]*domain.ConfigView
	stores   map[string]bool
	previews map[string]bool
	setMode  domain.ConfigMode
	setPatch map[string]any
	hashErr  error
	flushErr error
}

func newFakeService() *fakeService {
	return &fakeService{
		views: map[string]*domain.ConfigView{
			"styles": {ID: "styles", Editable: map[string]any{"minify": true}, Meta: domain.ConfigMeta{Kind: "files", CacheStrategy: "None"}},
			"readme": {ID: "readme", Editable: map[string]any{}, Meta: domain.ConfigMeta{Kind: "text", CacheStrategy: "None"}},
		},
		stores:   map[string]bool{"styles": true},
		previews: map[string]bool{},
	}
}

func (f *fakeService) UnitIDs() []string { return []string{"styles", "readme"} }

func (f *fakeService) GetConfig(_ context.Context, id string) (*domain.ConfigView, bool, error) {
	view, ok := f.views[id]
	return view, ok, nil
}

func (f *fakeService) SetConfig(_ context.Context, id string, patch map[string]any, mode domain.ConfigMode) (bool, error) {
	if _, ok := f.views[id]; !ok || !f.stores[id] {
		return false, nil
	}
	f.setMode, f.setPatch = mode, patch
	for k, v := range patch {
		f.views[id].Editable[k] = v
	}
	if mode == domain.ConfigModePreview {
		f.previews[id] = true
	}
	return true, nil
}

func (f *fakeService) ClearConfigPreview(_ context.Context, id string) (bool, error) {
	if _, ok := f.views[id]; !ok || !f.stores[id] {
		return false, nil
	}
	delete(f.previews, id)
	return true, nil
}

func (f *fakeService) FlushConfig(context.Context) (int, error) {
	if f.flushErr != nil {
		return 0, f.flushErr
	}
	n := len(f.previews)
	clear(f.previews)
	return n, nil
}

func (f *fakeService) UnitHash(_ context.Context, id string) (domain.ContentHash, bool, error) {
	if f.hashErr != nil {
		return domain.ContentHash{}, false, f.hashErr
	}
	if id == "readme" {
		return domain.ContentHash{}, false, nil
	}
	return domain.HashString(id), true, nil
}

func serve(t *testing.T, svc admin.Service, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	router := admin.NewRouter(svc, nil, log)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestListUnits(t *testing.T) {
	rec := serve(t, newFakeService(), http.MethodGet, "/units", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"styles", "readme"}, decode[admin.UnitsResponse](t, rec).Units)
}

func TestGetConfig(t *testing.T) {
	svc := newFakeService()

	rec := serve(t, svc, http.MethodGet, "/units/styles/config", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[domain.ConfigView](t, rec)
	assert.Equal(t, "styles", view.ID)
	assert.Equal(t, true, view.Editable["minify"])
	assert.Equal(t, "files", view.Meta.Kind)

	rec = serve(t, svc, http.MethodGet, "/units/nope/config", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, admin.ContentTypeProblemJSON, rec.Header().Get("Content-Type"))
	problem := decode[admin.Problem](t, rec)
	assert.Equal(t, http.StatusNotFound, problem.Status)
	assert.Contains(t, problem.Detail, domain.ErrConfigTargetUnknown.Error())
}

func TestPutConfig(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		body     string
		wantCode int
		wantMode domain.ConfigMode
	}{
		{name: "preview by default", target: "/units/styles/config", body: `{"minify":false}`, wantCode: http.StatusOK, wantMode: domain.ConfigModePreview},
		{name: "persist", target: "/units/styles/config?mode=persist", body: `{"minify":false}`, wantCode: http.StatusOK, wantMode: domain.ConfigModePersist},
		{name: "invalid mode", target: "/units/styles/config?mode=draft", body: `{}`, wantCode: http.StatusBadRequest},
		{name: "invalid body", target: "/units/styles/config", body: `[1,2]`, wantCode: http.StatusBadRequest},
		{name: "unknown unit", target: "/units/nope/config", body: `{}`, wantCode: http.StatusNotFound},
		{name: "no config store", target: "/units/readme/config", body: `{}`, wantCode: http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newFakeService()
			rec := serve(t, svc, http.MethodPut, tt.target, tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantCode != http.StatusOK {
				return
			}
			assert.Equal(t, tt.wantMode, svc.setMode)
			assert.Equal(t, map[string]any{"minify": false}, svc.setPatch)
			assert.Equal(t, false, decode[domain.ConfigView](t, rec).Editable["minify"])
		})
	}
}

func TestClearPreview(t *testing.T) {
	svc := newFakeService()
	svc.previews["styles"] = true

	rec := serve(t, svc, http.MethodDelete, "/units/styles/config/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "styles", decode[domain.ConfigView](t, rec).ID)
	assert.NotContains(t, svc.previews, "styles")

	// Nothing left to clear is still a success.
	rec = serve(t, svc, http.MethodDelete, "/units/styles/config/preview", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, svc, http.MethodDelete, "/units/readme/config/preview", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(t, svc, http.MethodDelete, "/units/nope/config/preview", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFlushConfig(t *testing.T) {
	svc := newFakeService()
	rec := serve(t, svc, http.MethodPut, "/units/styles/config", `{"minify":false}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, svc, http.MethodPost, "/config/flush", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[admin.FlushResponse](t, rec).Stores)
	assert.Empty(t, svc.previews)

	svc.flushErr = errors.New("disk full")
	rec = serve(t, svc, http.MethodPost, "/config/flush", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetHash(t *testing.T) {
	svc := newFakeService()

	rec := serve(t, svc, http.MethodGet, "/units/styles/hash", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[admin.HashResponse](t, rec)
	assert.True(t, resp.Cacheable)
	assert.Equal(t, domain.HashString("styles").Hex(), resp.Hash)

	rec = serve(t, svc, http.MethodGet, "/units/readme/hash", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[admin.HashResponse](t, rec)
	assert.False(t, resp.Cacheable)
	assert.Empty(t, resp.Hash)

	svc.hashErr = errors.Join(domain.ErrUnitNotFound, errors.New("nope"))
	rec = serve(t, svc, http.MethodGet, "/units/nope/hash", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	svc.hashErr = errors.New("disk on fire")
	rec = serve(t, svc, http.MethodGet, "/units/styles/hash", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("kiln_cache_stores_total 1\n"))
	})
	router := admin.NewRouter(newFakeService(), metrics, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "kiln_cache_stores_total")

	rec = httptest.NewRecorder()
	admin.NewRouter(newFakeService(), nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := admin.NewServer(newFakeService(), admin.Options{ShutdownTimeout: time.Second}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/units"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx // test helper
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
	require.NoError(t, srv.Stop(context.Background()))
}
