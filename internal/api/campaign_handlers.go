package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/httputil"
	"github.com/ignite/budget-escalator/internal/service/campaign"
)

// CreateCampaign creates a campaign and its first period records
//
//	POST /api/campaigns
func (h *Handlers) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var in campaign.CreateInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, c)
}

// GetCampaign returns one campaign
//
//	GET /api/campaigns/{id}
func (h *Handlers) GetCampaign(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// GetOverview returns the derived read model of a campaign
//
//	GET /api/campaigns/{id}/overview
func (h *Handlers) GetOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.Overview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, ov)
}

// GetSchedule projects the next periods of a campaign
//
//	GET /api/campaigns/{id}/schedule?periods=12
func (h *Handlers) GetSchedule(w http.ResponseWriter, r *http.Request) {
	n, ok, err := queryInt(r, "periods")
	if err != nil {
		httputil.BadRequest(w, "periods must be an integer")
		return
	}
	if !ok {
		n = 12
	}
	steps, err := h.svc.Schedule(r.Context(), chi.URLParam(r, "id"), n)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, steps)
}

// GetRecords returns the records of one period, or the full history when
// no period is given
//
//	GET /api/campaigns/{id}/records?period=3
func (h *Handlers) GetRecords(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	period, ok, err := queryInt(r, "period")
	if err != nil {
		httputil.BadRequest(w, "period must be an integer")
		return
	}
	var recs []domain.PeriodRecord
	if ok {
		recs, err = h.svc.Records(r.Context(), id, period)
	} else {
		recs, err = h.svc.History(r.Context(), id)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, recs)
}

// GetLabelRecord returns one label's record at a period
//
//	GET /api/campaigns/{id}/records/label?period=3&label=Lookalike
func (h *Handlers) GetLabelRecord(w http.ResponseWriter, r *http.Request) {
	period, ok, err := queryInt(r, "period")
	if err != nil || !ok {
		httputil.BadRequest(w, "period is required and must be an integer")
		return
	}
	rec, err := h.svc.LabelRecord(r.Context(), chi.URLParam(r, "id"), period, r.URL.Query().Get("label"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, rec)
}

// RemoveLabelRecord drops one label from the current period
//
//	DELETE /api/campaigns/{id}/records/label?label=Lookalike&confirm=true
func (h *Handlers) RemoveLabelRecord(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "remove label record") {
		return
	}
	rec, err := h.svc.RemoveLabelRecord(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("label"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, map[string]interface{}{"removed": rec})
}

// GetAdjustments returns the strategy ledger, most recent first
//
//	GET /api/campaigns/{id}/adjustments
func (h *Handlers) GetAdjustments(w http.ResponseWriter, r *http.Request) {
	adjs, err := h.svc.Adjustments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, adjs)
}

// SetRate changes the persistent growth rate
//
//	PUT /api/campaigns/{id}/rate
func (h *Handlers) SetRate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RatePct *float64 `json:"rate_pct"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	if req.RatePct == nil {
		httputil.BadRequest(w, "rate_pct is required")
		return
	}
	adj, err := h.svc.SetPersistentRate(r.Context(), chi.URLParam(r, "id"), *req.RatePct)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if adj == nil {
		httputil.OK(w, map[string]interface{}{"changed": false})
		return
	}
	httputil.OK(w, map[string]interface{}{"changed": true, "adjustment": adj})
}

// Advance applies a uniform advance, optionally with a one-off rate
//
//	POST /api/campaigns/{id}/advance
func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	var opts campaign.AdvanceOptions
	if !httputil.Decode(w, r, &opts) {
		return
	}
	res, err := h.svc.Advance(r.Context(), chi.URLParam(r, "id"), opts)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// AdvanceCustom writes caller-supplied budgets as the next period
//
//	POST /api/campaigns/{id}/advance/custom
func (h *Handlers) AdvanceCustom(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Budgets []domain.LabelBudget `json:"budgets"`
	}
	if !httputil.Decode(w, r, &req) {
		return
	}
	res, err := h.svc.AdvanceWithCustomBudgets(r.Context(), chi.URLParam(r, "id"), req.Budgets)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// SuggestSplit returns the budgets a uniform advance would write, as a
// starting point for a custom advance
//
//	GET /api/campaigns/{id}/advance/suggest?override_rate_pct=10
func (h *Handlers) SuggestSplit(w http.ResponseWriter, r *http.Request) {
	override, err := queryFloat(r, "override_rate_pct")
	if err != nil {
		httputil.BadRequest(w, "override_rate_pct must be a number")
		return
	}
	budgets, err := h.svc.SuggestCustomSplit(r.Context(), chi.URLParam(r, "id"), override)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, budgets)
}

// Rollback undoes the latest advance
//
//	POST /api/campaigns/{id}/rollback?confirm=true
func (h *Handlers) Rollback(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "rollback") {
		return
	}
	res, err := h.svc.Rollback(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, res)
}

// pauseRequest accepts either an explicit date or a month offset.
type pauseRequest struct {
	Until  string `json:"until"`
	Months int    `json:"months"`
}

func parseDay(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// Pause pauses a campaign indefinitely, until a date, or for 1, 3 or 5
// months
//
//	POST /api/campaigns/{id}/pause
func (h *Handlers) Pause(w http.ResponseWriter, r *http.Request) {
	var req pauseRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	var (
		c   *domain.Campaign
		err error
	)
	switch {
	case req.Until != "" && req.Months != 0:
		httputil.BadRequest(w, "until and months are mutually exclusive")
		return
	case req.Months != 0:
		c, err = h.svc.PauseForMonths(r.Context(), id, req.Months)
	case req.Until != "":
		day, perr := parseDay(req.Until)
		if perr != nil {
			httputil.BadRequest(w, fmt.Sprintf("invalid until date %q", req.Until))
			return
		}
		c, err = h.svc.Pause(r.Context(), id, &day)
	default:
		c, err = h.svc.Pause(r.Context(), id, nil)
	}
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, c)
}

// transition adapts a single-step lifecycle operation to a handler.
//
//	POST /api/campaigns/{id}/{resume|complete|archive|delete|restore}
func (h *Handlers) transition(fn func(context.Context, string) (*domain.Campaign, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := fn(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			respondServiceError(w, err)
			return
		}
		httputil.OK(w, c)
	}
}

// PermanentlyDelete purges a soft-deleted campaign and its history
//
//	DELETE /api/campaigns/{id}?confirm=true
func (h *Handlers) PermanentlyDelete(w http.ResponseWriter, r *http.Request) {
	if !requireConfirm(w, r, "permanent_delete") {
		return
	}
	if err := h.svc.PermanentlyDelete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}
