package httpserver

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/nicheimage/ingest/common"
)

type pingHandler struct{}

func (pingHandler) RegisterRoutes(r chi.Router) {
	r.Post("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("pong"))
	})
}

func setupTestServer(t *testing.T, cfg *HTTPServerConfig) http.Handler {
	t.Helper()
	cfg.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := New(cfg, pingHandler{})
	require.NoError(t, err)
	return srv.Handler()
}

func get(t *testing.T, h http.Handler, path string) (int, map[string]string) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]string
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w.Code, body
}

func TestHealthEndpoints(t *testing.T) {
	h := setupTestServer(t, &HTTPServerConfig{})

	code, body := get(t, h, "/livez")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "alive", body["status"])

	code, _ = get(t, h, "/readyz")
	require.Equal(t, http.StatusOK, code)

	_, body = get(t, h, "/drain")
	require.Equal(t, "draining", body["status"])
	_, body = get(t, h, "/drain")
	require.Equal(t, "already draining", body["status"])

	code, _ = get(t, h, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)

	_, body = get(t, h, "/undrain")
	require.Equal(t, "ready", body["status"])
	_, body = get(t, h, "/undrain")
	require.Equal(t, "already ready", body["status"])

	code, _ = get(t, h, "/readyz")
	require.Equal(t, http.StatusOK, code)
}

func TestReadinessCheckGatesReadyz(t *testing.T) {
	var loaded atomic.Bool
	h := setupTestServer(t, &HTTPServerConfig{ReadinessCheck: loaded.Load})

	code, body := get(t, h, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "waiting for validator registry", body["status"])

	loaded.Store(true)
	code, _ = get(t, h, "/readyz")
	require.Equal(t, http.StatusOK, code)
}

func TestVersionEndpoint(t *testing.T) {
	h := setupTestServer(t, &HTTPServerConfig{})

	code, body := get(t, h, "/version")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, common.PackageName, body["service"])
	require.Equal(t, common.Version, body["version"])
}

func TestComponentRoutesAndCORS(t *testing.T) {
	h := setupTestServer(t, &HTTPServerConfig{CORSAllowedOrigins: []string{"https://dashboard.example"}})

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "pong", w.Body.String())

	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://dashboard.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, "https://dashboard.example", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}
