package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/httputil"
	"github.com/ignite/budget-escalator/internal/service/campaign"
)

// CreateClient creates a client
//
//	POST /api/clients
func (h *Handlers) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	cl, err := h.svc.CreateClient(r.Context(), req.Name)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, cl)
}

// ListClients returns every client
//
//	GET /api/clients
func (h *Handlers) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.svc.ListClients(r.Context())
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, clients)
}

// GetClient returns one client
//
//	GET /api/clients/{clientID}
func (h *Handlers) GetClient(w http.ResponseWriter, r *http.Request) {
	cl, err := h.svc.GetClient(r.Context(), chi.URLParam(r, "clientID"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, cl)
}

// ListClientCampaigns lists a client's campaigns in display order.
// Filters: status (comma separated), platform. Paginated with page/limit.
//
//	GET /api/clients/{clientID}/campaigns
func (h *Handlers) ListClientCampaigns(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	if _, err := h.svc.GetClient(r.Context(), clientID); err != nil {
		respondServiceError(w, err)
		return
	}

	f := campaign.ListFilter{ClientID: clientID, Platform: r.URL.Query().Get("platform")}
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			f.Statuses = append(f.Statuses, domain.CampaignStatus(strings.TrimSpace(s)))
		}
	}

	list, err := h.svc.List(r.Context(), f)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	params := ParsePagination(r, 50, 200)
	httputil.OK(w, NewPaginatedResponse(Page(list, params), params, int64(len(list))))
}

// ReorderCampaigns stores a new display order for a client's active
// campaigns.
//
//	PUT /api/clients/{clientID}/campaigns/order
func (h *Handlers) ReorderCampaigns(w http.ResponseWriter, r *http.Request) {
	clientID := chi.URLParam(r, "clientID")
	var req struct {
		IDs []string `json:"ids"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if len(req.IDs) > 0 {
		first, err := h.svc.Get(r.Context(), req.IDs[0])
		if err != nil {
			respondServiceError(w, err)
			return
		}
		if first.ClientID != clientID {
			httputil.ErrorCode(w, http.StatusUnprocessableEntity, string(campaign.KindInvalidInput),
				"campaigns do not belong to this client", errorDetails{Op: "reorder"})
			return
		}
	}
	if err := h.svc.Reorder(r.Context(), req.IDs); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

// PlanBulkAdvance previews a bulk advance.
//
//	GET /api/clients/{clientID}/bulk/plan?platform=meta
func (h *Handlers) PlanBulkAdvance(w http.ResponseWriter, r *http.Request) {
	plan, err := h.svc.PlanBulkAdvance(r.Context(), chi.URLParam(r, "clientID"), r.URL.Query().Get("platform"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, plan)
}

// BulkAdvance advances every eligible campaign of a client on a platform.
//
//	POST /api/clients/{clientID}/bulk/advance
func (h *Handlers) BulkAdvance(w http.ResponseWriter, r *http.Request) {
	var opts campaign.BulkOptions
	if !httputil.Decode(w, r, &opts) {
		return
	}
	rep, err := h.svc.BulkAdvance(r.Context(), chi.URLParam(r, "clientID"), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, rep)
}

// BulkRollback rolls back every active campaign of a client on a platform.
//
//	POST /api/clients/{clientID}/bulk/rollback?confirm=true
func (h *Handlers) BulkRollback(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "bulk_rollback") {
		return
	}
	var req struct {
		Platform string `json:"platform"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	rep, err := h.svc.BulkRollback(r.Context(), chi.URLParam(r, "clientID"), req.Platform)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, rep)
}
