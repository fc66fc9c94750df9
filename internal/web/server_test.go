package web

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpj-cowork/internal/cache"
	"github.com/cnpj-cowork/internal/config"
	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/ingest"
	"github.com/cnpj-cowork/internal/search"
	"github.com/cnpj-cowork/internal/web/handlers"
)

func newTestServer(t *testing.T, cfg *Config) http.Handler {
	t.Helper()
	ds := ingest.NewDataset([]cowork.Record{
		{CNPJBase: "1", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "SALA 1", Street: "RUA X", Number: "10"},
		{CNPJBase: "2", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "SALA 1", Street: "RUA X", Number: "10"},
	}, nil)
	searcher := &handlers.Searcher{
		Service: search.NewService(search.DatasetSource{Dataset: ds}, false),
		Cache:   cache.Nop{},
		Version: "test",
	}
	srv, err := NewServer(cfg, searcher)
	require.NoError(t, err)
	return srv.Handler()
}

func get(h http.Handler, url string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNewServerRequiresSearcher(t *testing.T) {
	_, err := NewServer(DefaultConfig(), nil)
	assert.Error(t, err)

	_, err = NewServer(DefaultConfig(), &handlers.Searcher{})
	assert.Error(t, err)
}

func TestRoutes(t *testing.T) {
	h := newTestServer(t, DefaultConfig())

	tests := []struct {
		url    string
		status int
	}{
		{"/healthz", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/stats", http.StatusOK},
		{"/api/neighborhoods", http.StatusOK},
		{"/api/search?bairro=centro", http.StatusOK},
		{"/api/search?bairro=savassi", http.StatusNotFound},
		{"/api/export?bairro=centro&format=csv", http.StatusOK},
		{"/?bairro=centro", http.StatusOK},
		{"/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.status, get(h, tt.url, nil).Code)
		})
	}
}

func TestExportRouteDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Features.ExportEnabled = false
	h := newTestServer(t, cfg)

	assert.Equal(t, http.StatusNotFound, get(h, "/api/export?bairro=centro", nil).Code)
}

func TestAPIKey(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Auth.APIKey = "s3cret"
	h := newTestServer(t, cfg)

	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/search?bairro=centro", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, get(h, "/api/search?bairro=centro", map[string]string{"X-API-Key": "wrong"}).Code)
	assert.Equal(t, http.StatusOK, get(h, "/api/search?bairro=centro", map[string]string{"X-API-Key": "s3cret"}).Code)

	// health and the page stay public
	assert.Equal(t, http.StatusOK, get(h, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, get(h, "/", nil).Code)
}

func TestRateLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit = RateLimitConfig{PerSecond: 0.001, Burst: 1}
	h := newTestServer(t, cfg)

	assert.Equal(t, http.StatusOK, get(h, "/api/search?bairro=centro", nil).Code)

	rec := get(h, "/api/search?bairro=centro", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	// listing is not limited
	assert.Equal(t, http.StatusOK, get(h, "/api/neighborhoods", nil).Code)
}

func TestRateLimitDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RateLimit.PerSecond = 0
	h := newTestServer(t, cfg)

	for i := 0; i < 20; i++ {
		require.Equal(t, http.StatusOK, get(h, "/api/search?bairro=centro", nil).Code)
	}
}

func TestRequestID(t *testing.T) {
	h := newTestServer(t, DefaultConfig())

	rec := get(h, "/healthz", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = get(h, "/healthz", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestFromApp(t *testing.T) {
	app := &config.AppConfig{Web: config.WebConfig{
		Host:         "127.0.0.1",
		Port:         9090,
		SearchRate:   2,
		SearchBurst:  3,
		ExportEnable: false,
		APIKey:       "k",
	}}

	cfg := FromApp(app)
	assert.Equal(t, ServerConfig{Host: "127.0.0.1", Port: 9090}, cfg.Server)
	assert.Equal(t, "k", cfg.Auth.APIKey)
	assert.False(t, cfg.Features.ExportEnabled)
	assert.Equal(t, RateLimitConfig{PerSecond: 2, Burst: 3}, cfg.RateLimit)
}
