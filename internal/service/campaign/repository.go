package campaign

import (
	"context"
	"time"

	"github.com/ignite/budget-escalator/internal/domain"
)

// Repository defines the data access contract for the escalation engine.
// Implementations must be safe for concurrent use.
type Repository interface {
	// CreateClient inserts a new client.
	CreateClient(ctx context.Context, c *domain.Client) error

	// GetClient returns a single client. Returns ErrNotFound if it doesn't exist.
	GetClient(ctx context.Context, id string) (*domain.Client, error)

	// ListClients returns all clients ordered by name.
	ListClients(ctx context.Context) ([]domain.Client, error)

	// CreateCampaign inserts a new campaign.
	CreateCampaign(ctx context.Context, c *domain.Campaign) error

	// GetCampaign returns a single campaign. Returns ErrNotFound if it doesn't exist.
	GetCampaign(ctx context.Context, id string) (*domain.Campaign, error)

	// ListCampaigns returns campaigns matching the filter, ordered by
	// sort_rank ASC, created_at DESC.
	ListCampaigns(ctx context.Context, f ListFilter) ([]domain.Campaign, error)

	// UpdateCampaign applies the non-nil fields of u in one write.
	UpdateCampaign(ctx context.Context, id string, u UpdateFields) error

	// SetSortRanks assigns rank i to ids[i] for every id, atomically.
	SetSortRanks(ctx context.Context, ids []string) error

	// PurgeCampaign physically removes the campaign together with its
	// period records and strategy adjustments, atomically.
	PurgeCampaign(ctx context.Context, id string) error

	// Snapshot reads a campaign and its records at its current period as
	// one consistent view.
	Snapshot(ctx context.Context, id string) (*Snapshot, error)

	// ListRecords returns the records of one campaign period.
	ListRecords(ctx context.Context, campaignID string, period int) ([]domain.PeriodRecord, error)

	// ListAllRecords returns every record of a campaign ordered by period, label.
	ListAllRecords(ctx context.Context, campaignID string) ([]domain.PeriodRecord, error)

	// GetLabelRecord returns the record of one label in one campaign
	// period. Returns ErrNotFound if it doesn't exist.
	GetLabelRecord(ctx context.Context, campaignID string, period int, label string) (*domain.PeriodRecord, error)

	// InsertRecords writes all records or none. Returns ErrDuplicateRecord
	// if a (campaign, period, label) tuple already exists.
	InsertRecords(ctx context.Context, recs []domain.PeriodRecord) error

	// DeleteRecordsFrom removes every record of a campaign at period or
	// later and returns how many were removed.
	DeleteRecordsFrom(ctx context.Context, campaignID string, period int) (int, error)

	// DeleteLabelRecord removes the record of one label in one campaign
	// period and returns how many were removed.
	DeleteLabelRecord(ctx context.Context, campaignID string, period int, label string) (int, error)

	// ApplyAdjustment appends a to the ledger and sets the campaign's
	// growth rate to a.NewRate in one transaction. Returns ErrStaleRate if
	// the stored rate no longer equals a.OldRate.
	ApplyAdjustment(ctx context.Context, a *domain.StrategyAdjustment) error

	// ListAdjustments returns a campaign's ledger ordered by created_at ASC.
	ListAdjustments(ctx context.Context, campaignID string) ([]domain.StrategyAdjustment, error)
}

// Snapshot is a campaign together with its current-period records.
type Snapshot struct {
	Campaign domain.Campaign
	Records  []domain.PeriodRecord
}

// ListFilter selects campaigns. Zero-value fields do not filter.
type ListFilter struct {
	ClientID string
	Statuses []domain.CampaignStatus
	// Platform matches untagged campaigns as domain.DefaultPlatform.
	Platform string
}

// UpdateFields holds the mutable fields for a campaign update.
// Nil fields are not applied.
type UpdateFields struct {
	Status           *domain.CampaignStatus
	PausedUntil      *time.Time
	ClearPausedUntil bool
	CurrentPeriod    *int
}
