// Package memory provides a concurrency-safe in-memory implementation of
// campaign.Repository. The server uses it when no database is configured
// and the engine tests use it as their store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/service/campaign"
)

type recordKey struct {
	campaignID string
	period     int
	label      string
}

// Repo is an in-memory campaign.Repository.
type Repo struct {
	mu          sync.RWMutex
	clients     map[string]domain.Client
	campaigns   map[string]domain.Campaign
	records     map[recordKey]domain.PeriodRecord
	adjustments map[string][]domain.StrategyAdjustment // keyed by campaign id
	now         func() time.Time
}

var _ campaign.Repository = (*Repo)(nil)

// New creates an empty repository.
func New() *Repo {
	return &Repo{
		clients:     make(map[string]domain.Client),
		campaigns:   make(map[string]domain.Campaign),
		records:     make(map[recordKey]domain.PeriodRecord),
		adjustments: make(map[string][]domain.StrategyAdjustment),
		now:         time.Now,
	}
}

func (m *Repo) CreateClient(_ context.Context, c *domain.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		return fmt.Errorf("client id required")
	}
	if _, ok := m.clients[c.ID]; ok {
		return fmt.Errorf("client %s already exists", c.ID)
	}
	m.clients[c.ID] = *c
	return nil
}

func (m *Repo) GetClient(_ context.Context, id string) (*domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	return &c, nil
}

func (m *Repo) ListClients(_ context.Context) ([]domain.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !strings.EqualFold(out[i].Name, out[j].Name) {
			return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Repo) CreateCampaign(_ context.Context, c *domain.Campaign) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		return fmt.Errorf("campaign id required")
	}
	if _, ok := m.campaigns[c.ID]; ok {
		return fmt.Errorf("campaign %s already exists", c.ID)
	}
	if _, ok := m.clients[c.ClientID]; !ok {
		return fmt.Errorf("create campaign: %w", campaign.ErrNotFound)
	}
	m.campaigns[c.ID] = cloneCampaign(*c)
	return nil
}

func (m *Repo) GetCampaign(_ context.Context, id string) (*domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	cp := cloneCampaign(c)
	return &cp, nil
}

func (m *Repo) ListCampaigns(_ context.Context, f campaign.ListFilter) ([]domain.Campaign, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.Campaign{}
	for _, c := range m.campaigns {
		if f.ClientID != "" && c.ClientID != f.ClientID {
			continue
		}
		if len(f.Statuses) > 0 && !hasStatus(f.Statuses, c.Status) {
			continue
		}
		if !c.OnPlatform(f.Platform) {
			continue
		}
		out = append(out, cloneCampaign(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortRank != out[j].SortRank {
			return out[i].SortRank < out[j].SortRank
		}
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *Repo) UpdateCampaign(_ context.Context, id string, u campaign.UpdateFields) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return campaign.ErrNotFound
	}
	if u.Status != nil {
		c.Status = *u.Status
	}
	if u.PausedUntil != nil {
		t := *u.PausedUntil
		c.PausedUntil = &t
	} else if u.ClearPausedUntil {
		c.PausedUntil = nil
	}
	if u.CurrentPeriod != nil {
		c.CurrentPeriod = *u.CurrentPeriod
	}
	c.UpdatedAt = m.now().UTC()
	m.campaigns[id] = c
	return nil
}

func (m *Repo) SetSortRanks(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.campaigns[id]; !ok {
			return fmt.Errorf("set rank %s: %w", id, campaign.ErrNotFound)
		}
	}
	for i, id := range ids {
		c := m.campaigns[id]
		c.SortRank = i
		m.campaigns[id] = c
	}
	return nil
}

func (m *Repo) PurgeCampaign(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.campaigns[id]; !ok {
		return campaign.ErrNotFound
	}
	for k := range m.records {
		if k.campaignID == id {
			delete(m.records, k)
		}
	}
	delete(m.adjustments, id)
	delete(m.campaigns, id)
	return nil
}

func (m *Repo) Snapshot(_ context.Context, id string) (*campaign.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	return &campaign.Snapshot{
		Campaign: cloneCampaign(c),
		Records:  m.recordsAt(id, c.CurrentPeriod),
	}, nil
}

func (m *Repo) ListRecords(_ context.Context, campaignID string, period int) ([]domain.PeriodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.recordsAt(campaignID, period), nil
}

func (m *Repo) ListAllRecords(_ context.Context, campaignID string) ([]domain.PeriodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []domain.PeriodRecord{}
	for k, r := range m.records {
		if k.campaignID == campaignID {
			out = append(out, r)
		}
	}
	domain.SortRecords(out)
	return out, nil
}

func (m *Repo) GetLabelRecord(_ context.Context, campaignID string, period int, label string) (*domain.PeriodRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[recordKey{campaignID, period, label}]
	if !ok {
		return nil, campaign.ErrNotFound
	}
	return &r, nil
}

func (m *Repo) InsertRecords(_ context.Context, recs []domain.PeriodRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := make(map[recordKey]struct{}, len(recs))
	for _, r := range recs {
		k := recordKey{r.CampaignID, r.Period, r.Label}
		if _, ok := m.campaigns[r.CampaignID]; !ok {
			return fmt.Errorf("insert record: %w", campaign.ErrNotFound)
		}
		if _, dup := m.records[k]; dup {
			return campaign.ErrDuplicateRecord
		}
		if _, dup := batch[k]; dup {
			return campaign.ErrDuplicateRecord
		}
		batch[k] = struct{}{}
	}
	for _, r := range recs {
		m.records[recordKey{r.CampaignID, r.Period, r.Label}] = r
	}
	return nil
}

func (m *Repo) DeleteRecordsFrom(_ context.Context, campaignID string, period int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.records {
		if k.campaignID == campaignID && k.period >= period {
			delete(m.records, k)
			n++
		}
	}
	return n, nil
}

func (m *Repo) DeleteLabelRecord(_ context.Context, campaignID string, period int, label string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := recordKey{campaignID, period, label}
	if _, ok := m.records[k]; !ok {
		return 0, nil
	}
	delete(m.records, k)
	return 1, nil
}

func (m *Repo) ApplyAdjustment(_ context.Context, a *domain.StrategyAdjustment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[a.CampaignID]
	if !ok {
		return campaign.ErrNotFound
	}
	if c.GrowthRate != a.OldRate {
		return campaign.ErrStaleRate
	}
	c.GrowthRate = a.NewRate
	c.UpdatedAt = m.now().UTC()
	m.campaigns[c.ID] = c
	m.adjustments[c.ID] = append(m.adjustments[c.ID], *a)
	return nil
}

func (m *Repo) ListAdjustments(_ context.Context, campaignID string) ([]domain.StrategyAdjustment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.StrategyAdjustment, len(m.adjustments[campaignID]))
	copy(out, m.adjustments[campaignID])
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// recordsAt must be called with m.mu held.
func (m *Repo) recordsAt(campaignID string, period int) []domain.PeriodRecord {
	out := []domain.PeriodRecord{}
	for k, r := range m.records {
		if k.campaignID == campaignID && k.period == period {
			out = append(out, r)
		}
	}
	domain.SortRecords(out)
	return out
}

func hasStatus(set []domain.CampaignStatus, s domain.CampaignStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func cloneCampaign(c domain.Campaign) domain.Campaign {
	if c.LabelTargets != nil {
		lt := make(map[string]float64, len(c.LabelTargets))
		for k, v := range c.LabelTargets {
			lt[k] = v
		}
		c.LabelTargets = lt
	}
	return c
}
