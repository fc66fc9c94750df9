package handlers

import (
	"net/http"
)

// SearchHandler handles search endpoints
type SearchHandler struct {
	Searcher *Searcher
	Config   *Config
}

// Search returns the co-located establishments of ?bairro= grouped by street
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	result, err := h.Searcher.Lookup(r.Context(), r.URL.Query().Get("bairro"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
