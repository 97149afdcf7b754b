package domain

import (
	"sort"
	"time"
)

// PeriodRecord is one budget value for one campaign and period, optionally
// scoped to a label (ad set or platform). An empty Label is the
// whole-campaign budget.
type PeriodRecord struct {
	ID           string    `json:"id" db:"id"`
	CampaignID   string    `json:"campaign_id" db:"campaign_id"`
	Period       int       `json:"period" db:"period"`
	Label        string    `json:"label,omitempty" db:"label"`
	Budget       float64   `json:"budget" db:"budget"`
	AdvancedAt   time.Time `json:"advanced_at" db:"advanced_at"`
	OverrideRate *float64  `json:"override_rate,omitempty" db:"override_rate"`
}

// StrategyAdjustment is an append-only audit entry for a persistent
// growth-rate change.
type StrategyAdjustment struct {
	ID         string    `json:"id" db:"id"`
	CampaignID string    `json:"campaign_id" db:"campaign_id"`
	OldRate    float64   `json:"old_rate" db:"old_rate"`
	NewRate    float64   `json:"new_rate" db:"new_rate"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// LabelBudget pairs a label with an amount. It is the unit of custom-split
// advances and next-period previews.
type LabelBudget struct {
	Label  string  `json:"label"`
	Budget float64 `json:"budget"`
}

// Layout is the structure derived from a campaign's records, computed once
// and passed around instead of branching on BudgetStructure.
type Layout string

const (
	LayoutSingle Layout = "single"
	LayoutSplit  Layout = "split"
)

// DeriveLayout returns LayoutSplit when any record carries a label, or
// when the stored structure is a split kind. Legacy campaigns without a
// stored structure are classified purely by their records.
func DeriveLayout(structure BudgetStructure, records []PeriodRecord) Layout {
	for _, r := range records {
		if r.Label != "" {
			return LayoutSplit
		}
	}
	if structure == StructurePerLabelSplit || structure == StructureMixed {
		return LayoutSplit
	}
	return LayoutSingle
}

// Labels returns the distinct non-empty labels in records, sorted.
func Labels(records []PeriodRecord) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range records {
		if r.Label == "" {
			continue
		}
		if _, ok := seen[r.Label]; ok {
			continue
		}
		seen[r.Label] = struct{}{}
		out = append(out, r.Label)
	}
	sort.Strings(out)
	return out
}

// SortRecords orders records by period, then label, in place.
func SortRecords(records []PeriodRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if records[i].Period != records[j].Period {
			return records[i].Period < records[j].Period
		}
		return records[i].Label < records[j].Label
	})
}
