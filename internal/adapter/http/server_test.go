package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/mapplot/internal/adapter/http"
	"github.com/couchcryptid/mapplot/internal/domain"
	"github.com/couchcryptid/mapplot/internal/magics"
	"github.com/couchcryptid/mapplot/internal/product"
	"github.com/couchcryptid/mapplot/internal/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockRenderer struct {
	got domain.RenderRequest
	res product.Result
	err error
}

func (m *mockRenderer) Render(_ context.Context, req domain.RenderRequest) (product.Result, error) {
	m.got = req
	return m.res, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, nil, time.Minute, discardLogger())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("not ready yet"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "not ready yet", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRenderRouteAbsentWithoutRenderer(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(`{}`))

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRenderReturnsPNG(t *testing.T) {
	r := &mockRenderer{res: product.Result{Figure: &magics.Figure{PNG: []byte("\x89PNG fake")}}}
	srv := httpadapter.NewServer(":0", &mockReadiness{}, r, time.Minute, discardLogger())

	body := `{"product":"mslp","data_file":"gfs.nc","variables":{"mslp":{"name":"msl"}},"output_path":"/etc/passwd"}`
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(body)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG fake", rec.Body.String())
	assert.Equal(t, "mslp", r.got.Product)
	assert.Empty(t, r.got.OutputPath, "output path must be cleared")
	require.NotNil(t, r.got.Variables.MSLP)
	assert.Equal(t, "msl", r.got.Variables.MSLP.Name)
}

func TestRenderErrorStatus(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{name: "malformed json", body: `{`, status: http.StatusBadRequest},
		{name: "unknown field", body: `{"prodct":"mslp"}`, status: http.StatusBadRequest},
		{name: "invalid request", body: `{}`, err: fmt.Errorf("%w: product is required", domain.ErrInvalidRequest), status: http.StatusBadRequest},
		{name: "timeout", body: `{}`, err: fmt.Errorf("run magics: %w", context.DeadlineExceeded), status: http.StatusGatewayTimeout},
		{name: "engine failure", body: `{}`, err: fmt.Errorf("run magics: exit status 1"), status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httpadapter.NewServer(":0", &mockReadiness{}, &mockRenderer{err: tt.err}, time.Minute, discardLogger())
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(tt.body)))

			assert.Equal(t, tt.status, rec.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body["error"])
			assert.NotContains(t, body["error"], "run magics")
		})
	}
}

func TestRenderRejectsDataOutsideDataDir(t *testing.T) {
	logger := discardLogger()
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "gfs.nc"), []byte("not netcdf"), 0o600))
	svc := render.NewService(product.NewRenderer(nil, product.WithLogger(logger)), nil, logger, render.WithDataDir(dataDir))
	srv := httpadapter.NewServer(":0", &mockReadiness{}, svc, time.Minute, logger)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{name: "absolute system file", path: "/etc/passwd", status: http.StatusBadRequest},
		{name: "missing system file", path: "/etc/does-not-exist", status: http.StatusBadRequest},
		{name: "directory", path: "/root", status: http.StatusBadRequest},
		{name: "parent traversal", path: "../../etc/passwd", status: http.StatusBadRequest},
		{name: "unreadable file inside", path: "gfs.nc", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := fmt.Sprintf(`{"product":"mslp","data_file":%q,"variables":{"mslp":{"name":"msl"}}}`, tt.path)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/render", strings.NewReader(body)))

			assert.Equal(t, tt.status, rec.Code)
			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.NotEmpty(t, resp["error"])
			assert.NotContains(t, resp["error"], tt.path)
			assert.NotContains(t, resp["error"], dataDir)
		})
	}
}
