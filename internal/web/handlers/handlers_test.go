package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cnpj-cowork/internal/cache"
	"github.com/cnpj-cowork/internal/cowork"
	"github.com/cnpj-cowork/internal/ingest"
	"github.com/cnpj-cowork/internal/search"
)

type brokenSource struct{ search.DatasetSource }

func (brokenSource) HasNeighborhood(ctx context.Context, neighborhood string) (bool, error) {
	return false, errors.New("connection refused")
}

func testSearcher(t *testing.T) (*Searcher, *cache.Memory) {
	t.Helper()
	ds := ingest.NewDataset([]cowork.Record{
		{CNPJBase: "1", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "BLOCO A", Street: "RUA X", Number: "10"},
		{CNPJBase: "2", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "BLOCO A SALA 2", Street: "RUA X", Number: "10"},
		{CNPJBase: "3", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "LOJA", Street: "AV Y", Number: "2"},
		{CNPJBase: "4", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "CENTRO", Complement: "LOJA", Street: "AV Y", Number: "2"},
		{CNPJBase: "5", CNPJOrder: "1", CNPJCheck: "1", Neighborhood: "SAVASSI", Complement: "SALA 1", Street: "RUA Z", Number: "1"},
	}, nil)
	mem := cache.NewMemory(time.Minute)
	return &Searcher{
		Service: search.NewService(search.DatasetSource{Dataset: ds}, false),
		Cache:   mem,
		Version: "test",
	}, mem
}

func exportConfig(enabled bool) *Config {
	cfg := &Config{}
	cfg.Features.ExportEnabled = enabled
	return cfg
}

func TestSearcherLookupCaches(t *testing.T) {
	s, mem := testSearcher(t)

	first, err := s.Lookup(context.Background(), " centro ")
	require.NoError(t, err)
	assert.Equal(t, "CENTRO", first.Neighborhood)
	assert.Equal(t, 1, mem.Len())

	second, err := s.Lookup(context.Background(), "CENTRO")
	require.NoError(t, err)
	assert.Same(t, first, second)
}

func TestSearcherLookupErrors(t *testing.T) {
	s, mem := testSearcher(t)

	_, err := s.Lookup(context.Background(), "   ")
	assert.ErrorIs(t, err, search.ErrEmptyQuery)

	_, err = s.Lookup(context.Background(), "PAMPULHA")
	assert.ErrorIs(t, err, search.ErrUnknownNeighborhood)

	assert.Zero(t, mem.Len())
}

func TestSearch(t *testing.T) {
	s, _ := testSearcher(t)
	h := &SearchHandler{Searcher: s, Config: exportConfig(true)}

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?bairro=centro", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var result search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "CENTRO", result.Neighborhood)
	assert.Equal(t, 4, result.Rows)
	require.Len(t, result.Streets, 2)
	assert.Equal(t, "AV Y", result.Streets[0].Street)
	assert.Equal(t, "RUA X", result.Streets[1].Street)
	assert.Equal(t, "00000001000101", result.Streets[1].Rows[0].CNPJ)
}

func TestSearchStatuses(t *testing.T) {
	s, _ := testSearcher(t)
	h := &SearchHandler{Searcher: s, Config: exportConfig(true)}

	tests := []struct {
		name   string
		url    string
		status int
	}{
		{"missing query", "/api/search", http.StatusBadRequest},
		{"blank query", "/api/search?bairro=%20%20", http.StatusBadRequest},
		{"unknown neighborhood", "/api/search?bairro=pampulha", http.StatusNotFound},
		{"no clusters", "/api/search?bairro=savassi", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Search(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestSearchInternalErrorHidesCause(t *testing.T) {
	s, _ := testSearcher(t)
	s.Service = search.NewService(brokenSource{}, false)
	h := &SearchHandler{Searcher: s, Config: exportConfig(true)}

	rec := httptest.NewRecorder()
	h.Search(rec, httptest.NewRequest(http.MethodGet, "/api/search?bairro=centro", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.Contains(t, rec.Body.String(), "internal error")
}

func TestExportCSV(t *testing.T) {
	s, _ := testSearcher(t)
	h := &ExportHandler{Searcher: s, Config: exportConfig(true)}

	rec := httptest.NewRecorder()
	h.ExportData(rec, httptest.NewRequest(http.MethodGet, "/api/export?bairro=centro&format=csv", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "coworkers_CENTRO_")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[0], "CNPJ;"))
}

func TestExportExcel(t *testing.T) {
	s, _ := testSearcher(t)
	h := &ExportHandler{Searcher: s, Config: exportConfig(true)}

	rec := httptest.NewRecorder()
	h.ExportData(rec, httptest.NewRequest(http.MethodGet, "/api/export?bairro=centro&format=xlsx", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(rec.Body.String(), "PK"))
}

func TestExportRejections(t *testing.T) {
	s, _ := testSearcher(t)

	tests := []struct {
		name    string
		enabled bool
		url     string
		status  int
	}{
		{"disabled", false, "/api/export?bairro=centro", http.StatusForbidden},
		{"bad format", true, "/api/export?bairro=centro&format=pdf", http.StatusBadRequest},
		{"unknown neighborhood", true, "/api/export?bairro=pampulha", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &ExportHandler{Searcher: s, Config: exportConfig(tt.enabled)}
			rec := httptest.NewRecorder()
			h.ExportData(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestExportFilename(t *testing.T) {
	name := exportFilename("SÃO PEDRO", "xlsx")
	assert.True(t, strings.HasPrefix(name, "coworkers_S_O_PEDRO_"), name)
	assert.True(t, strings.HasSuffix(name, ".xlsx"), name)
}

func TestStatsAndNeighborhoods(t *testing.T) {
	s, _ := testSearcher(t)
	h := &APIHandler{Searcher: s, Config: exportConfig(true)}

	rec := httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, StatsResponse{Records: 5, Neighborhoods: 2, Version: "test"}, stats)

	rec = httptest.NewRecorder()
	h.ListNeighborhoods(rec, httptest.NewRequest(http.MethodGet, "/api/neighborhoods", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var hoods []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hoods))
	assert.Equal(t, []string{"CENTRO", "SAVASSI"}, hoods)
}

func TestIndex(t *testing.T) {
	s, _ := testSearcher(t)
	h := &UIHandler{Searcher: s, Config: exportConfig(true)}

	tests := []struct {
		name     string
		url      string
		status   int
		contains []string
	}{
		{"form only", "/", http.StatusOK, []string{`<option value="CENTRO">`, "Buscar"}},
		{"results", "/?bairro=centro", http.StatusOK, []string{
			"Logradouro: AV Y (2)",
			"Logradouro: RUA X (2)",
			"00.000.001/0001-01",
			"format=xlsx",
		}},
		{"empty query", "/?bairro=", http.StatusBadRequest, []string{"Digite algo para buscar."}},
		{"unknown", "/?bairro=pampulha", http.StatusNotFound, []string{"Bairro não consta no conjunto de dados."}},
		{"no clusters", "/?bairro=savassi", http.StatusOK, []string{"Nenhum endereço compartilhado"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Index(rec, httptest.NewRequest(http.MethodGet, tt.url, nil))
			assert.Equal(t, tt.status, rec.Code)
			for _, want := range tt.contains {
				assert.Contains(t, rec.Body.String(), want)
			}
		})
	}
}
