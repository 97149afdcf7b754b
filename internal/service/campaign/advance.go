package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
	"github.com/ignite/budget-escalator/internal/projection"
)

// AdvanceOptions tunes a single uniform advance.
type AdvanceOptions struct {
	// OverrideRatePct applies to this advance only. The persistent rate
	// and the ledger are left untouched.
	OverrideRatePct *float64 `json:"override_rate_pct,omitempty"`
}

// AdvanceResult describes a completed advance.
type AdvanceResult struct {
	CampaignID string                `json:"campaign_id"`
	FromPeriod int                   `json:"from_period"`
	ToPeriod   int                   `json:"to_period"`
	Rate       float64               `json:"rate"`
	Override   bool                  `json:"override"`
	Custom     bool                  `json:"custom"`
	Records    []domain.PeriodRecord `json:"records"`
	Budget     float64               `json:"budget"`
	Finished   bool                  `json:"finished"`
	// Resumed is set when the records already existed from an earlier
	// attempt and only the period index was updated.
	Resumed bool `json:"resumed"`
}

// RollbackResult describes a completed rollback.
type RollbackResult struct {
	CampaignID string `json:"campaign_id"`
	FromPeriod int    `json:"from_period"`
	ToPeriod   int    `json:"to_period"`
	Removed    int    `json:"removed"`
}

// Advance grows every current-period record by the campaign's rate, or a
// one-off override, writes the results at the next period and then moves
// the period index. Records are written before the index so a failure
// between the two steps is completed by retrying Advance.
func (s *Service) Advance(ctx context.Context, campaignID string, opts AdvanceOptions) (*AdvanceResult, error) {
	const op = "advance"
	snap, err := s.repo.Snapshot(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_snapshot", err)
	}
	return s.advanceSnapshot(ctx, op, snap, opts.OverrideRatePct)
}

func (s *Service) advanceSnapshot(ctx context.Context, op string, snap *Snapshot, overridePct *float64) (*AdvanceResult, error) {
	c := snap.Campaign
	if c.Status != domain.CampaignActive {
		return nil, notActive(op, c.Status)
	}

	rate := c.GrowthRate
	if overridePct != nil {
		rate = projection.RateFromPercent(*overridePct)
	}
	if err := projection.ValidateRate(rate); err != nil {
		return nil, ruleErr(op, err)
	}

	res := &AdvanceResult{
		CampaignID: c.ID,
		FromPeriod: c.CurrentPeriod,
		ToPeriod:   c.CurrentPeriod + 1,
		Rate:       rate,
		Override:   overridePct != nil,
	}

	if len(snap.Records) == 0 {
		err := fmt.Errorf("%w: period %d has no records", domain.ErrNoPriorBudget, c.CurrentPeriod)
		return nil, ruleErr(op, err)
	}

	var override *float64
	if res.Override {
		override = &rate
	}
	now := s.now().UTC()
	recs := make([]domain.PeriodRecord, 0, len(snap.Records))
	for _, prior := range snap.Records {
		next, err := projection.NextBudget(prior.Budget, rate)
		if err != nil {
			return nil, ruleErr(op, err)
		}
		recs = append(recs, newRecord(c.ID, res.ToPeriod, prior.Label, next, now, override))
	}
	return s.commitAdvance(ctx, op, &c, res, recs)
}

// AdvanceWithCustomBudgets writes caller-chosen budgets at the next
// period. Single-layout campaigns take exactly one unlabeled budget;
// split campaigns take one budget per label.
func (s *Service) AdvanceWithCustomBudgets(ctx context.Context, campaignID string, budgets []domain.LabelBudget) (*AdvanceResult, error) {
	const op = "advance_custom"
	snap, err := s.repo.Snapshot(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_snapshot", err)
	}
	c := snap.Campaign
	if c.Status != domain.CampaignActive {
		return nil, notActive(op, c.Status)
	}

	layout := domain.DeriveLayout(c.Structure, snap.Records)
	split, err := normalizeSplit(budgets, layout)
	if err != nil {
		return nil, invalid(op, "%s", err.Error())
	}
	if len(snap.Records) == 0 {
		err := fmt.Errorf("%w: period %d has no records", domain.ErrNoPriorBudget, c.CurrentPeriod)
		return nil, ruleErr(op, err)
	}

	res := &AdvanceResult{
		CampaignID: c.ID,
		FromPeriod: c.CurrentPeriod,
		ToPeriod:   c.CurrentPeriod + 1,
		Rate:       c.GrowthRate,
		Custom:     true,
	}
	now := s.now().UTC()
	recs := make([]domain.PeriodRecord, 0, len(split))
	for _, lb := range split {
		recs = append(recs, newRecord(c.ID, res.ToPeriod, lb.Label, lb.Budget, now, nil))
	}
	return s.commitAdvance(ctx, op, &c, res, recs)
}

// SuggestCustomSplit returns the uniform-growth budgets a custom-split
// advance starts from: round(prior × (1+rate), 2) per current label.
func (s *Service) SuggestCustomSplit(ctx context.Context, campaignID string, overrideRatePct *float64) ([]domain.LabelBudget, error) {
	const op = "suggest_split"
	snap, err := s.repo.Snapshot(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_snapshot", err)
	}
	rate := snap.Campaign.GrowthRate
	if overrideRatePct != nil {
		rate = projection.RateFromPercent(*overrideRatePct)
	}
	out, err := nextBudgets(snap.Records, rate)
	if err != nil {
		return nil, ruleErr(op, err)
	}
	return out, nil
}

func nextBudgets(records []domain.PeriodRecord, rate float64) ([]domain.LabelBudget, error) {
	if err := projection.ValidateRate(rate); err != nil {
		return nil, err
	}
	out := make([]domain.LabelBudget, 0, len(records))
	for _, r := range records {
		next, err := projection.NextBudget(r.Budget, rate)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.LabelBudget{Label: r.Label, Budget: next})
	}
	return out, nil
}

// commitAdvance writes recs at the next period and then moves the index.
// Records already present at the next period are accepted only when they
// carry the same labels and budgets as recs, i.e. they were written by an
// identical advance whose index update failed.
func (s *Service) commitAdvance(ctx context.Context, op string, c *domain.Campaign, res *AdvanceResult, recs []domain.PeriodRecord) (*AdvanceResult, error) {
	pending, err := s.repo.ListRecords(ctx, c.ID, res.ToPeriod)
	if err != nil {
		return nil, storeErr(op, "load_next_records", err)
	}
	if len(pending) > 0 {
		if !sameBudgets(pending, recs) {
			return nil, &Error{
				Kind: KindConflict,
				Op:   op,
				Step: "load_next_records",
				Message: fmt.Sprintf("period %d already holds %.2f from an unfinished advance; retry that advance with the same rate or budgets to finish it",
					res.ToPeriod, AggregateBudget(pending, res.ToPeriod)),
				Err: ErrStaleRecords,
			}
		}
		return s.resumeAdvance(ctx, op, c, res, pending)
	}

	if err := s.repo.InsertRecords(ctx, recs); err != nil {
		return nil, storeErr(op, "write_records", err)
	}
	if err := s.repo.UpdateCampaign(ctx, c.ID, UpdateFields{CurrentPeriod: &res.ToPeriod}); err != nil {
		logger.Error("advance left period index behind",
			"campaign_id", c.ID,
			"period", res.ToPeriod,
			"error", err,
		)
		return nil, partialErr(op, "update_period",
			fmt.Sprintf("records for period %d were written but the period index was not updated; retry the advance to finish", res.ToPeriod),
			err)
	}
	domain.SortRecords(recs)
	res.Records = recs
	res.Budget = AggregateBudget(recs, res.ToPeriod)
	res.Finished = c.Finished(res.Budget)

	logger.Info("campaign advanced",
		"campaign_id", c.ID,
		"period", res.ToPeriod,
		"budget", res.Budget,
		"rate", res.Rate,
		"custom", res.Custom,
	)
	return res, nil
}

func (s *Service) resumeAdvance(ctx context.Context, op string, c *domain.Campaign, res *AdvanceResult, pending []domain.PeriodRecord) (*AdvanceResult, error) {
	if err := s.repo.UpdateCampaign(ctx, c.ID, UpdateFields{CurrentPeriod: &res.ToPeriod}); err != nil {
		return nil, storeErr(op, "update_period", err)
	}
	domain.SortRecords(pending)
	res.Records = pending
	res.Budget = AggregateBudget(pending, res.ToPeriod)
	res.Finished = c.Finished(res.Budget)
	res.Resumed = true
	logger.Warn("advance resumed from existing records",
		"campaign_id", c.ID,
		"period", res.ToPeriod,
	)
	return res, nil
}

// sameBudgets reports whether pending and recs hold the same label set
// with equal budgets.
func sameBudgets(pending, recs []domain.PeriodRecord) bool {
	if len(pending) != len(recs) {
		return false
	}
	want := make(map[string]float64, len(recs))
	for _, r := range recs {
		want[r.Label] = r.Budget
	}
	for _, p := range pending {
		b, ok := want[p.Label]
		if !ok || projection.Round2(b) != projection.Round2(p.Budget) {
			return false
		}
	}
	return true
}

// Rollback undoes the most recent advance: it deletes the current
// period's records, along with any left above it by an unfinished
// advance, and then steps the index back by one. A campaign at
// its first period cannot be rolled back. Callers must have obtained
// confirmation first.
func (s *Service) Rollback(ctx context.Context, campaignID string) (*RollbackResult, error) {
	const op = "rollback"
	c, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_campaign", err)
	}
	return s.rollbackCampaign(ctx, op, c)
}

func (s *Service) rollbackCampaign(ctx context.Context, op string, c *domain.Campaign) (*RollbackResult, error) {
	if c.Status != domain.CampaignActive && c.Status != domain.CampaignPaused {
		return nil, &Error{
			Kind:    KindInvalidTransition,
			Op:      op,
			Message: fmt.Sprintf("cannot roll back a campaign that is %s", c.Status),
			Err:     domain.ErrInvalidTransition,
		}
	}
	if floor := rollbackFloor(c); c.CurrentPeriod <= floor {
		err := fmt.Errorf("%w: campaign is at period %d", domain.ErrRollbackAtFloor, c.CurrentPeriod)
		return nil, ruleErr(op, err)
	}

	res := &RollbackResult{CampaignID: c.ID, FromPeriod: c.CurrentPeriod, ToPeriod: c.CurrentPeriod - 1}
	n, err := s.repo.DeleteRecordsFrom(ctx, c.ID, res.FromPeriod)
	if err != nil {
		return nil, storeErr(op, "delete_records", err)
	}
	res.Removed = n
	if err := s.repo.UpdateCampaign(ctx, c.ID, UpdateFields{CurrentPeriod: &res.ToPeriod}); err != nil {
		logger.Error("rollback left period index ahead",
			"campaign_id", c.ID,
			"period", res.FromPeriod,
			"error", err,
		)
		return nil, partialErr(op, "update_period",
			fmt.Sprintf("records for period %d were deleted but the period index was not updated; retry the rollback to finish", res.FromPeriod),
			err)
	}

	logger.Info("campaign rolled back",
		"campaign_id", c.ID,
		"period", res.ToPeriod,
		"removed", n,
	)
	return res, nil
}

// rollbackFloor is the lowest period a campaign can be rolled back to.
func rollbackFloor(c *domain.Campaign) int {
	if c.StartPeriod > 1 {
		return c.StartPeriod
	}
	return 1
}

func newRecord(campaignID string, period int, label string, budget float64, at time.Time, override *float64) domain.PeriodRecord {
	return domain.PeriodRecord{
		ID:           uuid.New().String(),
		CampaignID:   campaignID,
		Period:       period,
		Label:        label,
		Budget:       budget,
		AdvancedAt:   at,
		OverrideRate: override,
	}
}

func notActive(op string, status domain.CampaignStatus) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Op:      op,
		Message: fmt.Sprintf("only active campaigns can advance; campaign is %s", status),
		Err:     domain.ErrInvalidTransition,
	}
}
