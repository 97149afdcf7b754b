package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/budget-escalator/internal/pkg/httputil"
	"github.com/ignite/budget-escalator/internal/report"
)

func parseFormat(raw string) (report.Format, bool) {
	switch report.Format(raw) {
	case report.FormatCSV, report.FormatHTML:
		return report.Format(raw), true
	}
	return "", false
}

// GetReport returns a client's history grid as JSON, CSV or HTML
//
//	GET /api/clients/{clientID}/report?format=csv
func (h *Handlers) GetReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "Reports not configured")
		return
	}
	clientID := chi.URLParam(r, "clientID")
	raw := r.URL.Query().Get("format")

	if raw == "" || raw == "json" {
		grid, err := h.reports.Grid(r.Context(), clientID)
		if err != nil {
			respondServiceError(w, err)
			return
		}
		httputil.OK(w, grid)
		return
	}

	f, ok := parseFormat(raw)
	if !ok {
		httputil.BadRequest(w, fmt.Sprintf("unsupported format %q", raw))
		return
	}
	data, err := h.reports.Render(r.Context(), clientID, f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	w.Header().Set("Content-Type", f.ContentType())
	if f == report.FormatCSV {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="history-%s.csv"`, clientID))
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// ExportReport renders a client's history and stores it in the report
// sink
//
//	POST /api/clients/{clientID}/report/export
func (h *Handlers) ExportReport(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		respondError(w, http.StatusServiceUnavailable, "Reports not configured")
		return
	}
	var req struct {
		Format string `json:"format"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.Format == "" {
		req.Format = string(report.FormatCSV)
	}
	f, ok := parseFormat(req.Format)
	if !ok {
		httputil.BadRequest(w, fmt.Sprintf("unsupported format %q", req.Format))
		return
	}

	exp, err := h.reports.Export(r.Context(), chi.URLParam(r, "clientID"), f)
	if errors.Is(err, report.ErrNoSink) {
		respondError(w, http.StatusServiceUnavailable, "Report export not configured")
		return
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, exp)
}
