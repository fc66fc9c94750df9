package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cnpj-cowork/internal/cache"
	"github.com/cnpj-cowork/internal/logger"
	"github.com/cnpj-cowork/internal/metrics"
	"github.com/cnpj-cowork/internal/search"
)

// Config represents the handler feature toggles
type Config struct {
	Features struct {
		ExportEnabled bool `json:"export_enabled"`
	} `json:"features"`
}

// Counter is implemented by sources able to count their records
type Counter interface {
	Count(ctx context.Context) (int, error)
}

// Searcher runs searches through the result cache
type Searcher struct {
	Service *search.Service
	Cache   cache.Cache
	// Version identifies the loaded dataset; it is part of every cache key
	Version string
}

// Lookup returns the result of a neighborhood query, from cache when possible
func (s *Searcher) Lookup(ctx context.Context, query string) (*search.Result, error) {
	neighborhood, err := search.NormalizeQuery(query)
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	key := cache.Key(s.Version, neighborhood)
	if cached, ok, err := s.Cache.Get(ctx, key); err != nil {
		logger.L().Warn("cache_get_error", "key", key, "err", err)
	} else if ok {
		metrics.CacheHitsTotal.Inc()
		metrics.SearchesTotal.WithLabelValues("cached").Inc()
		return cached, nil
	}
	metrics.CacheMissesTotal.Inc()

	result, err := s.Service.Search(ctx, neighborhood)
	if err != nil {
		if errors.Is(err, search.ErrUnknownNeighborhood) {
			metrics.SearchesTotal.WithLabelValues("unknown").Inc()
		} else {
			metrics.SearchesTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}

	metrics.SearchesTotal.WithLabelValues("ok").Inc()
	metrics.SearchDurationMs.Observe(float64(result.Duration.Microseconds()) / 1000)
	metrics.SearchRows.Observe(float64(result.Rows))

	if err := s.Cache.Set(ctx, key, result); err != nil {
		logger.L().Warn("cache_set_error", "key", key, "err", err)
	}
	return result, nil
}

// APIHandler handles general API endpoints
type APIHandler struct {
	Searcher *Searcher
	Config   *Config
}

// StatsResponse describes the searchable dataset
type StatsResponse struct {
	Records       int    `json:"records"`
	Neighborhoods int    `json:"neighborhoods"`
	Version       string `json:"version"`
}

// GetStats returns dataset statistics
func (h *APIHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	source := h.Searcher.Service.Source()

	hoods, err := source.Neighborhoods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	stats := StatsResponse{Neighborhoods: len(hoods), Version: h.Searcher.Version}
	if c, ok := source.(Counter); ok {
		if stats.Records, err = c.Count(r.Context()); err != nil {
			writeError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

// ListNeighborhoods returns the sorted neighborhoods that can be searched
func (h *APIHandler) ListNeighborhoods(w http.ResponseWriter, r *http.Request) {
	hoods, err := h.Searcher.Service.Source().Neighborhoods(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if hoods == nil {
		hoods = []string{}
	}
	writeJSON(w, http.StatusOK, hoods)
}

// Health reports liveness
func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Warn("response_encode_error", "err", err)
	}
}

// statusOf maps search errors to HTTP status codes
func statusOf(err error) int {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, search.ErrUnknownNeighborhood):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.L().Error("request_failed", "err", err)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}
