package campaign

import (
	"context"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/projection"
)

// MaxSchedulePeriods caps a schedule preview.
const MaxSchedulePeriods = 104

// LabelStatus is the per-label view of a split campaign's current period.
type LabelStatus struct {
	Label    string   `json:"label"`
	Budget   float64  `json:"budget"`
	Target   *float64 `json:"target,omitempty"`
	Finished bool     `json:"finished"`
	Next     float64  `json:"next"`
}

// Overview is the read model of one campaign. Every value in it is
// derived; nothing is persisted.
type Overview struct {
	Campaign      domain.Campaign             `json:"campaign"`
	Layout        domain.Layout               `json:"layout"`
	Labels        []string                    `json:"labels"`
	Current       []domain.PeriodRecord       `json:"current_records"`
	CurrentBudget float64                     `json:"current_budget"`
	Initial       InitialBudget               `json:"initial_budget"`
	ProgressPct   float64                     `json:"progress_pct"`
	Finished      bool                        `json:"finished"`
	PerLabel      []LabelStatus               `json:"per_label,omitempty"`
	NextPreview   []domain.LabelBudget        `json:"next_preview"`
	NextBudget    float64                     `json:"next_budget"`
	Adjustments   []domain.StrategyAdjustment `json:"adjustments"`
}

// Overview assembles the read model for one campaign.
func (s *Service) Overview(ctx context.Context, campaignID string) (*Overview, error) {
	const op = "overview"
	snap, err := s.repo.Snapshot(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_snapshot", err)
	}
	all, err := s.repo.ListAllRecords(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_records", err)
	}
	adjs, err := s.repo.ListAdjustments(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_adjustments", err)
	}
	reverse(adjs)

	c := snap.Campaign
	current := snap.Records
	domain.SortRecords(current)
	ov := &Overview{
		Campaign:      c,
		Layout:        domain.DeriveLayout(c.Structure, all),
		Labels:        domain.Labels(all),
		Current:       current,
		CurrentBudget: AggregateBudget(current, c.CurrentPeriod),
		Initial:       ResolveInitialBudget(&c, all),
		Adjustments:   adjs,
	}
	if ov.Labels == nil {
		ov.Labels = []string{}
	}
	ov.ProgressPct = projection.ProgressPct(ov.CurrentBudget, c.TargetBudget)
	ov.Finished = c.Finished(ov.CurrentBudget)

	next, err := nextBudgets(current, c.GrowthRate)
	if err != nil {
		return nil, ruleErr(op, err)
	}
	ov.NextPreview = next
	amounts := make([]float64, len(next))
	for i, lb := range next {
		amounts[i] = lb.Budget
	}
	ov.NextBudget = projection.Sum(amounts...)

	if ov.Layout == domain.LayoutSplit {
		for i, r := range current {
			if r.Label == "" {
				continue
			}
			ls := LabelStatus{Label: r.Label, Budget: r.Budget, Next: next[i].Budget}
			if t, ok := c.LabelTargets[r.Label]; ok {
				t := t
				ls.Target = &t
				ls.Finished = r.Budget >= t
			}
			ov.PerLabel = append(ov.PerLabel, ls)
		}
	}
	return ov, nil
}

// Schedule previews the next n periods from the current aggregate budget
// at the persistent rate. It is display-only.
func (s *Service) Schedule(ctx context.Context, campaignID string, n int) ([]projection.Step, error) {
	const op = "schedule"
	if n < 1 || n > MaxSchedulePeriods {
		return nil, invalid(op, "periods must be between 1 and %d", MaxSchedulePeriods)
	}
	snap, err := s.repo.Snapshot(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_snapshot", err)
	}
	c := snap.Campaign
	steps, err := projection.Schedule(projection.ScheduleInput{
		CurrentBudget: AggregateBudget(snap.Records, c.CurrentPeriod),
		CurrentPeriod: c.CurrentPeriod,
		StartPeriod:   c.StartPeriod,
		StartDate:     c.StartDate,
		Rate:          c.GrowthRate,
		Cadence:       c.Cadence,
		Target:        c.TargetBudget,
	}, n)
	if err != nil {
		return nil, ruleErr(op, err)
	}
	return steps, nil
}
