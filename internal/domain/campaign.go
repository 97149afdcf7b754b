package domain

import (
	"time"
)

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignActive    CampaignStatus = "active"
	CampaignPaused    CampaignStatus = "paused"
	CampaignCompleted CampaignStatus = "completed"
	CampaignArchived  CampaignStatus = "archived"
	CampaignDeleted   CampaignStatus = "deleted"
)

// Valid reports whether s is one of the known statuses.
func (s CampaignStatus) Valid() bool {
	switch s {
	case CampaignActive, CampaignPaused, CampaignCompleted, CampaignArchived, CampaignDeleted:
		return true
	}
	return false
}

// BudgetStructure is the stored budget-structure kind chosen at creation.
type BudgetStructure string

const (
	StructureSingle        BudgetStructure = "single"
	StructurePerLabelSplit BudgetStructure = "per-label-split"
	StructureMixed         BudgetStructure = "mixed"
)

// Valid reports whether b is one of the known structure kinds.
func (b BudgetStructure) Valid() bool {
	switch b {
	case StructureSingle, StructurePerLabelSplit, StructureMixed:
		return true
	}
	return false
}

// DefaultPlatform is the platform assumed for campaigns created before
// platform tags existed.
const DefaultPlatform = "meta"

// Client owns a set of campaigns.
type Client struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// Campaign is a named budget-escalation plan. Rates are fractions
// (0.20 means +20% per period); amounts are in the campaign's currency.
type Campaign struct {
	ID                  string             `json:"id" db:"id"`
	ClientID            string             `json:"client_id" db:"client_id"`
	Name                string             `json:"name" db:"name"`
	Structure           BudgetStructure    `json:"structure" db:"structure"`
	Platform            string             `json:"platform" db:"platform"`
	Currency            string             `json:"currency" db:"currency"`
	StartPeriod         int                `json:"start_period" db:"start_period"`
	CurrentPeriod       int                `json:"current_period" db:"current_period"`
	GrowthRate          float64            `json:"growth_rate" db:"growth_rate"`
	InitialGrowthRate   float64            `json:"initial_growth_rate" db:"initial_growth_rate"`
	Cadence             Cadence            `json:"cadence" db:"cadence"`
	StartDate           time.Time          `json:"start_date" db:"start_date"`
	InitialBudget       float64            `json:"initial_budget" db:"initial_budget"`
	TargetBudget        *float64           `json:"target_budget,omitempty" db:"target_budget"`
	TargetPeriod        *int               `json:"target_period,omitempty" db:"target_period"`
	EstimatedTargetDate *time.Time         `json:"estimated_target_date,omitempty" db:"estimated_target_date"`
	LabelTargets        map[string]float64 `json:"label_targets,omitempty" db:"label_targets"`
	Status              CampaignStatus     `json:"status" db:"status"`
	PausedUntil         *time.Time         `json:"paused_until,omitempty" db:"paused_until"`
	SortRank            int                `json:"sort_rank" db:"sort_rank"`
	CreatedAt           time.Time          `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time          `json:"updated_at" db:"updated_at"`
}

// OnPlatform reports whether the campaign belongs to platform. An empty
// filter matches every campaign; an untagged campaign counts as
// DefaultPlatform.
func (c *Campaign) OnPlatform(platform string) bool {
	if platform == "" {
		return true
	}
	p := c.Platform
	if p == "" {
		p = DefaultPlatform
	}
	return p == platform
}

// HasTarget reports whether a positive target budget is configured.
func (c *Campaign) HasTarget() bool {
	return c.TargetBudget != nil && *c.TargetBudget > 0
}

// Finished reports whether currentBudget has reached the target. It is a
// derived flag and never a stored status.
func (c *Campaign) Finished(currentBudget float64) bool {
	return c.HasTarget() && currentBudget >= *c.TargetBudget
}

// IsIndefinitelyPaused is true for a paused campaign with no resume date.
func (c *Campaign) IsIndefinitelyPaused() bool {
	return c.Status == CampaignPaused && c.PausedUntil == nil
}
