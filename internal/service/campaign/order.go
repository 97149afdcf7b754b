package campaign

import (
	"context"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
)

// Reorder persists a new display order for a client's active campaigns.
// ids lead the order; active campaigns of the same client missing from
// ids follow in their current order. Every active campaign is re-ranked
// to its index, replacing any previous ranks.
func (s *Service) Reorder(ctx context.Context, ids []string) error {
	const op = "reorder"
	if len(ids) == 0 {
		return invalid(op, "at least one campaign id is required")
	}
	seen := make(map[string]struct{}, len(ids))
	var clientID string
	for i, id := range ids {
		if _, dup := seen[id]; dup {
			return invalid(op, "campaign %s appears more than once", id)
		}
		seen[id] = struct{}{}

		c, err := s.repo.GetCampaign(ctx, id)
		if err != nil {
			return storeErr(op, "load_campaign", err)
		}
		if c.Status != domain.CampaignActive {
			return invalid(op, "campaign %s is %s; only active campaigns are ordered", id, c.Status)
		}
		if i == 0 {
			clientID = c.ClientID
		} else if c.ClientID != clientID {
			return invalid(op, "campaigns belong to different clients")
		}
	}

	active, err := s.repo.ListCampaigns(ctx, ListFilter{
		ClientID: clientID,
		Statuses: []domain.CampaignStatus{domain.CampaignActive},
	})
	if err != nil {
		return storeErr(op, "load_campaigns", err)
	}
	order := make([]string, 0, len(active))
	order = append(order, ids...)
	for _, c := range active {
		if _, ok := seen[c.ID]; !ok {
			order = append(order, c.ID)
		}
	}

	if err := s.repo.SetSortRanks(ctx, order); err != nil {
		return storeErr(op, "write_ranks", err)
	}
	logger.Info("campaigns reordered",
		"client_id", clientID,
		"count", len(order),
		"appended", len(order)-len(ids),
	)
	return nil
}
