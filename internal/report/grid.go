// Package report builds the escalation history grid for a client: one
// row per period, one column per campaign label, and renders it as CSV
// or HTML for export.
package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/projection"
	"github.com/ignite/budget-escalator/internal/service/campaign"
)

// Source is the read side the report is built from. *campaign.Service
// satisfies it.
type Source interface {
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	List(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, error)
	History(ctx context.Context, campaignID string) ([]domain.PeriodRecord, error)
}

// Column is one (campaign, label) series.
type Column struct {
	CampaignID string `json:"campaign_id"`
	Campaign   string `json:"campaign"`
	Label      string `json:"label,omitempty"`
	Currency   string `json:"currency"`
}

// Title is the column heading.
func (c Column) Title() string {
	if c.Label == "" {
		return c.Campaign
	}
	return c.Campaign + " / " + c.Label
}

// Row is one period. Cells align with Grid.Columns; a nil cell means the
// series has no record for the period.
type Row struct {
	Period int        `json:"period"`
	Label  string     `json:"label"`
	Cells  []*float64 `json:"cells"`
	Total  float64    `json:"total"`
}

// Grid is the period × (campaign, label) history of a client.
type Grid struct {
	ClientID    string         `json:"client_id"`
	ClientName  string         `json:"client_name"`
	Cadence     domain.Cadence `json:"cadence,omitempty"`
	GeneratedAt time.Time      `json:"generated_at"`
	Columns     []Column       `json:"columns"`
	Rows        []Row          `json:"rows"`
}

// reportStatuses are the statuses included in a report; deleted
// campaigns are left out.
var reportStatuses = []domain.CampaignStatus{
	domain.CampaignActive,
	domain.CampaignPaused,
	domain.CampaignCompleted,
	domain.CampaignArchived,
}

// Build assembles the grid for a client's non-deleted campaigns in
// display order.
func Build(ctx context.Context, src Source, clientID string, now time.Time) (*Grid, error) {
	client, err := src.GetClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	campaigns, err := src.List(ctx, campaign.ListFilter{ClientID: clientID, Statuses: reportStatuses})
	if err != nil {
		return nil, err
	}

	g := &Grid{
		ClientID:    client.ID,
		ClientName:  client.Name,
		GeneratedAt: now.UTC(),
		Columns:     []Column{},
		Rows:        []Row{},
	}

	type cellKey struct {
		col    int
		period int
	}
	cells := make(map[cellKey]float64)
	periods := make(map[int]struct{})
	cadences := make(map[domain.Cadence]struct{})

	for _, c := range campaigns {
		recs, err := src.History(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		cadences[c.Cadence] = struct{}{}

		labels := domain.Labels(recs)
		hasUnlabeled := false
		for _, r := range recs {
			if r.Label == "" {
				hasUnlabeled = true
				break
			}
		}
		if hasUnlabeled || len(labels) == 0 {
			labels = append([]string{""}, labels...)
		}

		colIdx := make(map[string]int, len(labels))
		for _, l := range labels {
			colIdx[l] = len(g.Columns)
			g.Columns = append(g.Columns, Column{
				CampaignID: c.ID,
				Campaign:   c.Name,
				Label:      l,
				Currency:   c.Currency,
			})
		}
		for _, r := range recs {
			cells[cellKey{colIdx[r.Label], r.Period}] = r.Budget
			periods[r.Period] = struct{}{}
		}
	}

	if len(cadences) == 1 {
		for cd := range cadences {
			g.Cadence = cd
		}
	}

	ordered := make([]int, 0, len(periods))
	for p := range periods {
		ordered = append(ordered, p)
	}
	sort.Ints(ordered)

	for _, p := range ordered {
		row := Row{Period: p, Label: PeriodLabel(p, g.Cadence), Cells: make([]*float64, len(g.Columns))}
		amounts := make([]float64, 0, len(g.Columns))
		for i := range g.Columns {
			if v, ok := cells[cellKey{i, p}]; ok {
				v := v
				row.Cells[i] = &v
				amounts = append(amounts, v)
			}
		}
		row.Total = projection.Sum(amounts...)
		g.Rows = append(g.Rows, row)
	}
	return g, nil
}

// PeriodLabel renders a period with its cadence prefix, e.g. "S4" for
// the fourth weekly period. Mixed or unknown cadences use "#4".
func PeriodLabel(period int, cadence domain.Cadence) string {
	if !cadence.Valid() {
		return fmt.Sprintf("#%d", period)
	}
	return fmt.Sprintf("%s%d", cadence.Prefix(), period)
}
