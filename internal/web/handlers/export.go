package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/cnpj-cowork/internal/export"
	"github.com/cnpj-cowork/internal/metrics"
)

// ExportHandler handles data export endpoints
type ExportHandler struct {
	Searcher *Searcher
	Config   *Config
}

// ExportData streams the result of ?bairro= as CSV or XLSX (?format=)
func (h *ExportHandler) ExportData(w http.ResponseWriter, r *http.Request) {
	if !h.Config.Features.ExportEnabled {
		http.Error(w, "Export feature disabled", http.StatusForbidden)
		return
	}

	query := r.URL.Query()
	format, err := export.ParseFormat(query.Get("format"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	result, err := h.Searcher.Lookup(r.Context(), query.Get("bairro"))
	if err != nil {
		writeError(w, err)
		return
	}

	// render fully before writing headers so failures still get a proper status
	var buf bytes.Buffer
	if err := export.Write(&buf, format, result); err != nil {
		writeError(w, err)
		return
	}

	metrics.ExportsTotal.WithLabelValues(string(format)).Inc()
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(result.Neighborhood, format)))
	w.Write(buf.Bytes())
}

// exportFilename builds a unique download name for a neighborhood export
func exportFilename(neighborhood string, format export.Format) string {
	slug := strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' || r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			return r
		}
		return '_'
	}, neighborhood)
	return fmt.Sprintf("coworkers_%s_%s.%s", slug, uuid.NewString()[:8], format)
}
