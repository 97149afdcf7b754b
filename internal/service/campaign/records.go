package campaign

import (
	"context"
	"fmt"
	"strings"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
	"github.com/ignite/budget-escalator/internal/projection"
)

// InitialBudgetSource records where a resolved initial budget came from.
type InitialBudgetSource string

const (
	SourceStored         InitialBudgetSource = "stored"
	SourceEarliestPeriod InitialBudgetSource = "earliest_period"
	SourceUnknown        InitialBudgetSource = "unknown"
)

// InitialBudget is a campaign's starting budget with its provenance.
type InitialBudget struct {
	Amount float64             `json:"amount"`
	Source InitialBudgetSource `json:"source"`
}

// ResolveInitialBudget applies the back-fill precedence: the stored field
// when positive, else the aggregate of the earliest recorded period, else
// unknown.
func ResolveInitialBudget(c *domain.Campaign, all []domain.PeriodRecord) InitialBudget {
	if c.InitialBudget > 0 {
		return InitialBudget{Amount: c.InitialBudget, Source: SourceStored}
	}
	if amount, ok := EarliestPeriodBudget(all); ok && amount > 0 {
		return InitialBudget{Amount: amount, Source: SourceEarliestPeriod}
	}
	return InitialBudget{Source: SourceUnknown}
}

// EarliestPeriodBudget sums the records at the minimum recorded period.
// ok is false when there are no records.
func EarliestPeriodBudget(all []domain.PeriodRecord) (amount float64, ok bool) {
	if len(all) == 0 {
		return 0, false
	}
	minPeriod := all[0].Period
	for _, r := range all[1:] {
		if r.Period < minPeriod {
			minPeriod = r.Period
		}
	}
	return AggregateBudget(all, minPeriod), true
}

// AggregateBudget sums the budgets recorded at period.
func AggregateBudget(records []domain.PeriodRecord, period int) float64 {
	amounts := make([]float64, 0, len(records))
	for _, r := range records {
		if r.Period == period {
			amounts = append(amounts, r.Budget)
		}
	}
	return projection.Sum(amounts...)
}

// Records returns the records of one campaign period ordered by label.
func (s *Service) Records(ctx context.Context, campaignID string, period int) ([]domain.PeriodRecord, error) {
	const op = "list_records"
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, storeErr(op, "load_campaign", err)
	}
	recs, err := s.repo.ListRecords(ctx, campaignID, period)
	if err != nil {
		return nil, storeErr(op, "load_records", err)
	}
	domain.SortRecords(recs)
	return recs, nil
}

// LabelRecord returns the record of one label at a campaign period. An
// empty label addresses the single unlabeled record.
func (s *Service) LabelRecord(ctx context.Context, campaignID string, period int, label string) (*domain.PeriodRecord, error) {
	const op = "get_label_record"
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, storeErr(op, "load_campaign", err)
	}
	rec, err := s.repo.GetLabelRecord(ctx, campaignID, period, strings.TrimSpace(label))
	if err != nil {
		return nil, storeErr(op, "load_record", err)
	}
	return rec, nil
}

// RemoveLabelRecord drops one label's record from the campaign's current
// period, e.g. an ad set that was switched off after the last advance.
// The last remaining record of a period cannot be removed; roll the
// campaign back instead. Callers must have obtained confirmation first.
func (s *Service) RemoveLabelRecord(ctx context.Context, campaignID, label string) (*domain.PeriodRecord, error) {
	const op = "remove_label_record"
	label = strings.TrimSpace(label)
	snap, err := s.repo.Snapshot(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_snapshot", err)
	}
	c := snap.Campaign
	if c.Status == domain.CampaignDeleted {
		return nil, &Error{
			Kind:    KindInvalidTransition,
			Op:      op,
			Message: "cannot edit records of a deleted campaign",
			Err:     domain.ErrInvalidTransition,
		}
	}

	var found *domain.PeriodRecord
	for i := range snap.Records {
		if snap.Records[i].Label == label {
			found = &snap.Records[i]
			break
		}
	}
	if found == nil {
		return nil, storeErr(op, "load_record",
			fmt.Errorf("label %q at period %d: %w", label, c.CurrentPeriod, ErrNotFound))
	}
	if len(snap.Records) == 1 {
		return nil, invalid(op, "label %q holds the only record of period %d; roll back instead", label, c.CurrentPeriod)
	}

	if _, err := s.repo.DeleteLabelRecord(ctx, c.ID, c.CurrentPeriod, label); err != nil {
		return nil, storeErr(op, "delete_record", err)
	}
	logger.Info("label record removed",
		"campaign_id", c.ID,
		"period", c.CurrentPeriod,
		"label", label,
		"budget", found.Budget,
	)
	return found, nil
}

// History returns every record of a campaign ordered by period, label.
func (s *Service) History(ctx context.Context, campaignID string) ([]domain.PeriodRecord, error) {
	const op = "history"
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, storeErr(op, "load_campaign", err)
	}
	recs, err := s.repo.ListAllRecords(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_records", err)
	}
	domain.SortRecords(recs)
	return recs, nil
}

// Labels returns the distinct labels ever recorded for a campaign.
func (s *Service) Labels(ctx context.Context, campaignID string) ([]string, error) {
	recs, err := s.History(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	return domain.Labels(recs), nil
}

// CurrentBudget returns the aggregate budget at the campaign's current period.
func (s *Service) CurrentBudget(ctx context.Context, campaignID string) (float64, error) {
	snap, err := s.repo.Snapshot(ctx, campaignID)
	if err != nil {
		return 0, storeErr("current_budget", "load_snapshot", err)
	}
	return AggregateBudget(snap.Records, snap.Campaign.CurrentPeriod), nil
}
