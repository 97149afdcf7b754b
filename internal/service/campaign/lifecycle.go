package campaign

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
)

// PauseOffsets are the month offsets offered by PauseForMonths.
var PauseOffsets = []int{1, 3, 5}

// Pause pauses an active campaign. A nil until pauses indefinitely;
// otherwise until must not be earlier than today. The date is a reminder
// only and never resumes the campaign by itself.
func (s *Service) Pause(ctx context.Context, campaignID string, until *time.Time) (*domain.Campaign, error) {
	const op = "pause"
	var day *time.Time
	if until != nil {
		d := dayOf(*until)
		if d.Before(s.today()) {
			err := fmt.Errorf("%w: %s is before today", domain.ErrInvalidPauseDate, d.Format("2006-01-02"))
			return nil, ruleErr(op, err)
		}
		day = &d
	}
	return s.transition(ctx, op, campaignID, domain.ActionPause, day)
}

// PauseForMonths pauses a campaign until the given number of months from
// now. months must be one of PauseOffsets.
func (s *Service) PauseForMonths(ctx context.Context, campaignID string, months int) (*domain.Campaign, error) {
	for _, m := range PauseOffsets {
		if m == months {
			until := s.now().AddDate(0, months, 0)
			return s.Pause(ctx, campaignID, &until)
		}
	}
	return nil, invalid("pause", "pause offset must be one of %v months", PauseOffsets)
}

// Resume reactivates a paused campaign and clears its resume date.
func (s *Service) Resume(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return s.transition(ctx, "resume", campaignID, domain.ActionResume, nil)
}

// Complete marks an active campaign completed. Reaching the target never
// completes a campaign on its own.
func (s *Service) Complete(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return s.transition(ctx, "complete", campaignID, domain.ActionComplete, nil)
}

// Archive moves an active, paused or completed campaign to the archive.
func (s *Service) Archive(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return s.transition(ctx, "archive", campaignID, domain.ActionArchive, nil)
}

// SoftDelete marks a campaign deleted. Its records and ledger are kept.
func (s *Service) SoftDelete(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return s.transition(ctx, "soft_delete", campaignID, domain.ActionSoftDelete, nil)
}

// Restore returns a paused, completed, archived or deleted campaign to active.
func (s *Service) Restore(ctx context.Context, campaignID string) (*domain.Campaign, error) {
	return s.transition(ctx, "restore", campaignID, domain.ActionRestore, nil)
}

// PermanentlyDelete removes a soft-deleted campaign with all of its period
// records and strategy adjustments. It is irreversible; callers must have
// obtained confirmation first.
func (s *Service) PermanentlyDelete(ctx context.Context, campaignID string) error {
	const op = "permanent_delete"
	c, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return storeErr(op, "load_campaign", err)
	}
	if _, err := domain.NextStatus(c.Status, domain.ActionPurge); err != nil {
		return transitionErr(op, c.Status, domain.ActionPurge)
	}
	if err := s.repo.PurgeCampaign(ctx, c.ID); err != nil {
		return storeErr(op, "purge_campaign", err)
	}
	logger.Info("campaign purged", "campaign_id", c.ID, "client_id", c.ClientID)
	return nil
}

// transition validates action against the stored status and persists the
// new status in a single update, so a failed write leaves the prior
// status intact.
func (s *Service) transition(ctx context.Context, op, campaignID string, action domain.LifecycleAction, pausedUntil *time.Time) (*domain.Campaign, error) {
	c, err := s.repo.GetCampaign(ctx, campaignID)
	if err != nil {
		return nil, storeErr(op, "load_campaign", err)
	}
	t, err := domain.NextStatus(c.Status, action)
	if err != nil {
		return nil, transitionErr(op, c.Status, action)
	}

	u := UpdateFields{Status: &t.To}
	if pausedUntil != nil {
		u.PausedUntil = pausedUntil
	} else if t.ClearsPause || t.To == domain.CampaignPaused {
		u.ClearPausedUntil = true
	}
	if err := s.repo.UpdateCampaign(ctx, c.ID, u); err != nil {
		return nil, storeErr(op, "update_status", err)
	}

	c.Status = t.To
	c.PausedUntil = pausedUntil
	c.UpdatedAt = s.now().UTC()
	logger.Info("campaign status changed",
		"campaign_id", c.ID,
		"from", string(t.From),
		"to", string(t.To),
	)
	return c, nil
}

func transitionErr(op string, from domain.CampaignStatus, action domain.LifecycleAction) *Error {
	return &Error{
		Kind:    KindInvalidTransition,
		Op:      op,
		Message: fmt.Sprintf("cannot %s a campaign that is %s", action, from),
		Err:     domain.ErrInvalidTransition,
	}
}
