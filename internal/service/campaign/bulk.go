package campaign

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
	"github.com/ignite/budget-escalator/internal/projection"
)

// Skip reasons reported by bulk runs.
const (
	SkipNotActive     = "not_active"
	SkipTargetReached = "target_reached"
	SkipAtFloor       = "at_first_period"
)

// BulkOptions tunes a bulk advance.
type BulkOptions struct {
	// Platform selects campaigns by platform tag. Empty means the
	// default platform; untagged campaigns count as the default platform.
	Platform string `json:"platform"`
	// ConfirmMixedRates acknowledges that the selected campaigns do not
	// share one growth rate. Each campaign still advances at its own rate.
	ConfirmMixedRates bool `json:"confirm_mixed_rates"`
}

// BulkItem is the outcome for one campaign in a bulk run.
type BulkItem struct {
	CampaignID string  `json:"campaign_id"`
	Name       string  `json:"name"`
	Period     int     `json:"period"`
	Rate       float64 `json:"rate"`
	Budget     float64 `json:"budget"`
	Reason     string  `json:"reason,omitempty"`
	Kind       Kind    `json:"kind,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// BulkReport summarizes a best-effort bulk run. A failure on one campaign
// is recorded in Failed and never stops the run.
type BulkReport struct {
	ClientID  string     `json:"client_id"`
	Platform  string     `json:"platform"`
	Succeeded []BulkItem `json:"succeeded"`
	Skipped   []BulkItem `json:"skipped"`
	Failed    []BulkItem `json:"failed"`
}

// BulkPlan previews a bulk advance without writing anything.
type BulkPlan struct {
	ClientID   string     `json:"client_id"`
	Platform   string     `json:"platform"`
	Eligible   []BulkItem `json:"eligible"`
	Skipped    []BulkItem `json:"skipped"`
	Rates      []float64  `json:"rates"`
	MixedRates bool       `json:"mixed_rates"`
}

// PlanBulkAdvance lists the active campaigns a bulk advance would touch,
// the ones it would skip for having reached their target, and whether
// the eligible set shares a single growth rate.
func (s *Service) PlanBulkAdvance(ctx context.Context, clientID, platform string) (*BulkPlan, error) {
	const op = "plan_bulk_advance"
	platform = s.platform(platform)
	snaps, err := s.bulkSnapshots(ctx, op, clientID, platform)
	if err != nil {
		return nil, err
	}

	plan := &BulkPlan{ClientID: clientID, Platform: platform, Eligible: []BulkItem{}, Skipped: []BulkItem{}}
	rates := make(map[float64]struct{})
	for _, snap := range snaps {
		item := snapshotItem(snap)
		if reason := advanceSkip(snap); reason != "" {
			item.Reason = reason
			plan.Skipped = append(plan.Skipped, item)
			continue
		}
		plan.Eligible = append(plan.Eligible, item)
		rates[snap.Campaign.GrowthRate] = struct{}{}
	}
	for r := range rates {
		plan.Rates = append(plan.Rates, r)
	}
	sort.Float64s(plan.Rates)
	plan.MixedRates = len(plan.Rates) > 1
	return plan, nil
}

// BulkAdvance advances every active campaign of a client on a platform,
// each at its own rate. Campaigns at or above their target are skipped.
// If the eligible campaigns use different rates the call fails with
// KindConfirmationRequired until opts.ConfirmMixedRates is set.
func (s *Service) BulkAdvance(ctx context.Context, clientID string, opts BulkOptions) (*BulkReport, error) {
	const op = "bulk_advance"
	plan, err := s.PlanBulkAdvance(ctx, clientID, opts.Platform)
	if err != nil {
		return nil, err
	}
	if plan.MixedRates && !opts.ConfirmMixedRates {
		return nil, &Error{
			Kind:    KindConfirmationRequired,
			Op:      op,
			Message: fmt.Sprintf("campaigns use %d different growth rates (%s); confirm to advance each at its own rate", len(plan.Rates), formatRates(plan.Rates)),
			Err:     ErrConfirmation,
		}
	}

	release, err := s.acquireBulk(ctx, op, clientID, plan.Platform)
	if err != nil {
		return nil, err
	}
	defer release()

	report := newReport(clientID, plan.Platform)
	for _, item := range plan.Eligible {
		snap, err := s.repo.Snapshot(ctx, item.CampaignID)
		if err != nil {
			report.fail(item, storeErr(op, "load_snapshot", err))
			continue
		}
		// State may have moved since planning.
		if reason := advanceSkip(snap); reason != "" {
			skipped := snapshotItem(snap)
			skipped.Reason = reason
			report.Skipped = append(report.Skipped, skipped)
			continue
		}
		res, err := s.advanceSnapshot(ctx, op, snap, nil)
		if err != nil {
			report.fail(snapshotItem(snap), err)
			continue
		}
		done := snapshotItem(snap)
		done.Period, done.Budget = res.ToPeriod, res.Budget
		report.Succeeded = append(report.Succeeded, done)
	}
	report.Skipped = append(report.Skipped, plan.Skipped...)

	logger.Info("bulk advance finished",
		"client_id", clientID,
		"platform", plan.Platform,
		"succeeded", len(report.Succeeded),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}

// BulkRollback rolls back every active campaign of a client on a
// platform that is past its first period. Callers must have obtained
// confirmation first.
func (s *Service) BulkRollback(ctx context.Context, clientID, platform string) (*BulkReport, error) {
	const op = "bulk_rollback"
	platform = s.platform(platform)
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return nil, storeErr(op, "load_client", err)
	}
	release, err := s.acquireBulk(ctx, op, clientID, platform)
	if err != nil {
		return nil, err
	}
	defer release()

	campaigns, err := s.repo.ListCampaigns(ctx, ListFilter{
		ClientID: clientID,
		Statuses: []domain.CampaignStatus{domain.CampaignActive},
		Platform: platform,
	})
	if err != nil {
		return nil, storeErr(op, "load_campaigns", err)
	}

	report := newReport(clientID, platform)
	for i := range campaigns {
		c := &campaigns[i]
		item := BulkItem{CampaignID: c.ID, Name: c.Name, Period: c.CurrentPeriod, Rate: c.GrowthRate}
		if c.CurrentPeriod <= rollbackFloor(c) {
			item.Reason = SkipAtFloor
			report.Skipped = append(report.Skipped, item)
			continue
		}
		res, err := s.rollbackCampaign(ctx, op, c)
		if err != nil {
			report.fail(item, err)
			continue
		}
		item.Period = res.ToPeriod
		report.Succeeded = append(report.Succeeded, item)
	}

	logger.Info("bulk rollback finished",
		"client_id", clientID,
		"platform", platform,
		"succeeded", len(report.Succeeded),
		"skipped", len(report.Skipped),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (s *Service) platform(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return s.defaults.Platform
	}
	return p
}

func (s *Service) bulkSnapshots(ctx context.Context, op, clientID, platform string) ([]*Snapshot, error) {
	if _, err := s.repo.GetClient(ctx, clientID); err != nil {
		return nil, storeErr(op, "load_client", err)
	}
	campaigns, err := s.repo.ListCampaigns(ctx, ListFilter{
		ClientID: clientID,
		Statuses: []domain.CampaignStatus{domain.CampaignActive},
		Platform: platform,
	})
	if err != nil {
		return nil, storeErr(op, "load_campaigns", err)
	}
	snaps := make([]*Snapshot, 0, len(campaigns))
	for _, c := range campaigns {
		snap, err := s.repo.Snapshot(ctx, c.ID)
		if err != nil {
			return nil, storeErr(op, "load_snapshot", err)
		}
		snaps = append(snaps, snap)
	}
	return snaps, nil
}

// acquireBulk takes the per-client, per-platform bulk lock and returns
// its release func.
func (s *Service) acquireBulk(ctx context.Context, op, clientID, platform string) (func(), error) {
	key := fmt.Sprintf("escalation:bulk:%s:%s", clientID, platform)
	lock := s.locks(key, s.defaults.LockTTL)
	ok, err := lock.Acquire(ctx)
	if err != nil {
		return nil, storeErr(op, "acquire_lock", err)
	}
	if !ok {
		return nil, &Error{
			Kind:    KindConflict,
			Op:      op,
			Message: "another bulk operation is running for this client and platform",
			Err:     ErrBulkInProgress,
		}
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("bulk lock release failed", "key", key, "error", err)
		}
	}, nil
}

// advanceSkip returns why a bulk advance leaves snap alone, or "".
func advanceSkip(snap *Snapshot) string {
	c := &snap.Campaign
	if c.Status != domain.CampaignActive {
		return SkipNotActive
	}
	if c.Finished(AggregateBudget(snap.Records, c.CurrentPeriod)) {
		return SkipTargetReached
	}
	return ""
}

func snapshotItem(snap *Snapshot) BulkItem {
	c := &snap.Campaign
	return BulkItem{
		CampaignID: c.ID,
		Name:       c.Name,
		Period:     c.CurrentPeriod,
		Rate:       c.GrowthRate,
		Budget:     AggregateBudget(snap.Records, c.CurrentPeriod),
	}
}

func newReport(clientID, platform string) *BulkReport {
	return &BulkReport{
		ClientID:  clientID,
		Platform:  platform,
		Succeeded: []BulkItem{},
		Skipped:   []BulkItem{},
		Failed:    []BulkItem{},
	}
}

func (r *BulkReport) fail(item BulkItem, err error) {
	item.Kind = KindOf(err)
	item.Error = err.Error()
	r.Failed = append(r.Failed, item)
	logger.Warn("bulk item failed",
		"campaign_id", item.CampaignID,
		"kind", string(item.Kind),
		"error", err,
	)
}

func formatRates(rates []float64) string {
	parts := make([]string, len(rates))
	for i, r := range rates {
		parts[i] = fmt.Sprintf("%g%%", projection.PercentFromRate(r))
	}
	return strings.Join(parts, ", ")
}
