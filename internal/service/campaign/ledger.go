package campaign

import (
	"context"

	"github.com/google/uuid"
	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
	"github.com/ignite/budget-escalator/internal/projection"
)

// SetPersistentRate changes a campaign's stored growth rate and appends the
// change to the adjustment ledger in one repository call. Setting the rate
// it already has is a no-op and returns a nil adjustment.
func (s *Service) SetPersistentRate(ctx context.Context, campaignID string, ratePct float64) (*domain.StrategyAdjustment, error) {
	const op = "set_rate"
	rate := projection.RateFromPercent(ratePct)
	if err := projection.ValidateRate(rate); err != nil {
		return nil, ruleErr(op, err)
	}

	c, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_campaign", err)
	}
	if c.Status == domain.CampaignDeleted {
		return nil, &Error{
			Kind:    KindInvalidTransition,
			Op:      op,
			Message: "deleted campaigns cannot change their growth rate",
			Err:     domain.ErrInvalidTransition,
		}
	}
	if c.GrowthRate == rate {
		return nil, nil
	}

	adj := &domain.StrategyAdjustment{
		ID:         uuid.New().String(),
		CampaignID: c.ID,
		OldRate:    c.GrowthRate,
		NewRate:    rate,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.repo.ApplyAdjustment(ctx, adj); err != nil {
		return nil, storeErr(op, "write_adjustment", err)
	}

	logger.Info("growth rate changed",
		"campaign_id", c.ID,
		"old_rate", adj.OldRate,
		"new_rate", adj.NewRate,
	)
	return adj, nil
}

// Adjustments returns a campaign's ledger, most recent first.
func (s *Service) Adjustments(ctx context.Context, campaignID string) ([]domain.StrategyAdjustment, error) {
	const op = "list_adjustments"
	if _, err := s.repo.GetCampaign(ctx, campaignID); err != nil {
		return nil, storeErr(op, "load_campaign", err)
	}
	adjs, err := s.repo.ListAdjustments(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_adjustments", err)
	}
	reverse(adjs)
	return adjs, nil
}

func reverse[T any](s []T) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
