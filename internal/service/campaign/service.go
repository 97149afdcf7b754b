package campaign

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/distlock"
	"github.com/ignite/budget-escalator/internal/pkg/logger"
	"github.com/ignite/budget-escalator/internal/projection"
)

// Defaults are applied to creation inputs that leave a field empty.
type Defaults struct {
	RatePct  float64
	Cadence  domain.Cadence
	Currency string
	Platform string
	LockTTL  time.Duration
}

// DefaultSettings returns the defaults used when none are configured.
func DefaultSettings() Defaults {
	return Defaults{
		RatePct:  20,
		Cadence:  domain.CadenceWeekly,
		Currency: "USD",
		Platform: domain.DefaultPlatform,
		LockTTL:  2 * time.Minute,
	}
}

// LockFactory returns a lock for key. Bulk runs hold one per client and
// platform.
type LockFactory func(key string, ttl time.Duration) distlock.DistLock

// Service implements the escalation engine. It coordinates between the
// repository layer and the projection calculator. All public methods are
// safe for concurrent use if the underlying repository is concurrency-safe.
type Service struct {
	repo     Repository
	now      func() time.Time
	locks    LockFactory
	defaults Defaults
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocks sets the lock factory used by bulk operations.
func WithLocks(f LockFactory) Option {
	return func(s *Service) { s.locks = f }
}

// WithDefaults overrides the creation defaults. Zero fields keep the
// built-in value.
func WithDefaults(d Defaults) Option {
	return func(s *Service) {
		if d.RatePct != 0 {
			s.defaults.RatePct = d.RatePct
		}
		if d.Cadence != "" {
			s.defaults.Cadence = d.Cadence
		}
		if d.Currency != "" {
			s.defaults.Currency = d.Currency
		}
		if d.Platform != "" {
			s.defaults.Platform = d.Platform
		}
		if d.LockTTL > 0 {
			s.defaults.LockTTL = d.LockTTL
		}
	}
}

// NewService creates an escalation service backed by the given repository.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{
		repo:     repo,
		now:      time.Now,
		defaults: DefaultSettings(),
		locks: func(key string, _ time.Duration) distlock.DistLock {
			return distlock.NewLocalLock(key)
		},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Defaults returns the effective creation defaults.
func (s *Service) Defaults() Defaults { return s.defaults }

// today returns the current calendar day at UTC midnight.
func (s *Service) today() time.Time {
	return dayOf(s.now())
}

func dayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// Clients
// =============================================================================

// CreateClient persists a new client.
func (s *Service) CreateClient(ctx context.Context, name string) (*domain.Client, error) {
	const op = "create_client"
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid(op, "name is required")
	}
	c := &domain.Client{ID: uuid.New().String(), Name: name, CreatedAt: s.now().UTC()}
	if err := s.repo.CreateClient(ctx, c); err != nil {
		return nil, storeErr(op, "write_client", err)
	}
	logger.Info("client created", "client_id", c.ID)
	return c, nil
}

// GetClient returns a single client.
func (s *Service) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	c, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return nil, storeErr("get_client", "load_client", err)
	}
	return c, nil
}

// ListClients returns all clients ordered by name.
func (s *Service) ListClients(ctx context.Context) ([]domain.Client, error) {
	out, err := s.repo.ListClients(ctx)
	if err != nil {
		return nil, storeErr("list_clients", "load_clients", err)
	}
	return out, nil
}

// =============================================================================
// Campaigns
// =============================================================================

// CreateInput holds the fields for creating a new campaign. Rates are
// whole-number percentages.
type CreateInput struct {
	ClientID      string                 `json:"client_id"`
	Name          string                 `json:"name"`
	Structure     domain.BudgetStructure `json:"structure"`
	Platform      string                 `json:"platform"`
	Currency      string                 `json:"currency"`
	RatePct       *float64               `json:"rate_pct"`
	Cadence       domain.Cadence         `json:"cadence"`
	StartPeriod   int                    `json:"start_period"`
	StartDate     *time.Time             `json:"start_date"`
	InitialBudget float64                `json:"initial_budget"`
	LabelBudgets  []domain.LabelBudget   `json:"label_budgets"`
	TargetBudget  *float64               `json:"target_budget"`
	TargetPeriod  *int                   `json:"target_period"`
	LabelTargets  map[string]float64     `json:"label_targets"`
}

// Create validates and persists a new active campaign together with its
// first period records. The target period and date are derived from the
// growth rate unless a target period is supplied; an unreachable target
// leaves both unset.
func (s *Service) Create(ctx context.Context, in CreateInput) (*domain.Campaign, error) {
	const op = "create_campaign"

	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalid(op, "name is required")
	}
	if in.ClientID == "" {
		return nil, invalid(op, "client_id is required")
	}

	structure := in.Structure
	if structure == "" {
		structure = domain.StructureSingle
		if len(in.LabelBudgets) > 0 {
			structure = domain.StructurePerLabelSplit
		}
	}
	if !structure.Valid() {
		return nil, invalid(op, "unknown budget structure %q", structure)
	}
	if structure == domain.StructureSingle && len(in.LabelBudgets) > 0 {
		return nil, invalid(op, "a single-budget campaign takes no label budgets")
	}

	cadence := in.Cadence
	if cadence == "" {
		cadence = s.defaults.Cadence
	}
	if !cadence.Valid() {
		return nil, invalid(op, "unknown cadence %q", cadence)
	}

	ratePct := s.defaults.RatePct
	if in.RatePct != nil {
		ratePct = *in.RatePct
	}
	rate := projection.RateFromPercent(ratePct)
	if err := projection.ValidateRate(rate); err != nil {
		return nil, ruleErr(op, err)
	}

	startPeriod := in.StartPeriod
	if startPeriod == 0 {
		startPeriod = 1
	}
	if startPeriod < 1 {
		return nil, invalid(op, "start_period must be at least 1")
	}
	startDate := s.today()
	if in.StartDate != nil {
		startDate = dayOf(*in.StartDate)
	}

	initial, err := initialBudgets(in)
	if err != nil {
		return nil, invalid(op, "%s", err.Error())
	}
	total := 0.0
	for _, lb := range initial {
		total = projection.Sum(total, lb.Budget)
	}
	if total <= 0 {
		return nil, invalid(op, "initial budget must be positive")
	}

	if in.TargetBudget != nil && (*in.TargetBudget <= 0 || !finite(*in.TargetBudget)) {
		return nil, invalid(op, "target_budget must be positive")
	}
	for label, t := range in.LabelTargets {
		if strings.TrimSpace(label) == "" || t <= 0 || !finite(t) {
			return nil, invalid(op, "label target %q must be a positive amount", label)
		}
	}

	platform := strings.TrimSpace(in.Platform)
	if platform == "" {
		platform = s.defaults.Platform
	}
	currency := strings.ToUpper(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = s.defaults.Currency
	}

	now := s.now().UTC()
	c := &domain.Campaign{
		ID:                uuid.New().String(),
		ClientID:          in.ClientID,
		Name:              name,
		Structure:         structure,
		Platform:          platform,
		Currency:          currency,
		StartPeriod:       startPeriod,
		CurrentPeriod:     startPeriod,
		GrowthRate:        rate,
		InitialGrowthRate: rate,
		Cadence:           cadence,
		StartDate:         startDate,
		InitialBudget:     total,
		Status:            domain.CampaignActive,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if in.TargetBudget != nil {
		t := projection.Round2(*in.TargetBudget)
		c.TargetBudget = &t
	}
	if len(in.LabelTargets) > 0 {
		c.LabelTargets = make(map[string]float64, len(in.LabelTargets))
		for label, t := range in.LabelTargets {
			c.LabelTargets[strings.TrimSpace(label)] = projection.Round2(t)
		}
	}

	switch {
	case in.TargetPeriod != nil:
		if *in.TargetPeriod < startPeriod {
			return nil, invalid(op, "target_period %d precedes start_period %d", *in.TargetPeriod, startPeriod)
		}
		tp := *in.TargetPeriod
		d := projection.EstimatedDate(startDate, tp-startPeriod, cadence)
		c.TargetPeriod, c.EstimatedTargetDate = &tp, &d
	case c.TargetBudget != nil:
		n, err := projection.PeriodsToTarget(total, *c.TargetBudget, rate)
		if err != nil {
			logger.Debug("target not reachable by growth", "client_id", in.ClientID, "error", err)
			break
		}
		tp := startPeriod + n
		d := projection.EstimatedDate(startDate, n, cadence)
		c.TargetPeriod, c.EstimatedTargetDate = &tp, &d
	}

	if _, err := s.repo.GetClient(ctx, in.ClientID); err != nil {
		return nil, storeErr(op, "load_client", err)
	}
	if err := s.repo.CreateCampaign(ctx, c); err != nil {
		return nil, storeErr(op, "write_campaign", err)
	}

	recs := make([]domain.PeriodRecord, 0, len(initial))
	for _, lb := range initial {
		recs = append(recs, domain.PeriodRecord{
			ID:         uuid.New().String(),
			CampaignID: c.ID,
			Period:     startPeriod,
			Label:      lb.Label,
			Budget:     lb.Budget,
			AdvancedAt: now,
		})
	}
	if err := s.repo.InsertRecords(ctx, recs); err != nil {
		if perr := s.repo.PurgeCampaign(ctx, c.ID); perr != nil {
			logger.Error("create cleanup failed", "campaign_id", c.ID, "error", perr)
			return nil, partialErr(op, "write_initial_records",
				"campaign "+c.ID+" was written without initial records", err)
		}
		return nil, storeErr(op, "write_initial_records", err)
	}

	logger.Info("campaign created",
		"campaign_id", c.ID,
		"client_id", c.ClientID,
		"structure", string(c.Structure),
		"initial_budget", c.InitialBudget,
		"rate", c.GrowthRate,
	)
	return c, nil
}

// initialBudgets normalizes the creation budgets into first-period labels.
func initialBudgets(in CreateInput) ([]domain.LabelBudget, error) {
	if len(in.LabelBudgets) == 0 {
		if in.InitialBudget < 0 || !finite(in.InitialBudget) {
			return nil, errors.New("initial_budget must not be negative")
		}
		return []domain.LabelBudget{{Budget: projection.Round2(in.InitialBudget)}}, nil
	}
	return normalizeSplit(in.LabelBudgets, domain.LayoutSplit)
}

// normalizeSplit validates label budgets for a layout and rounds amounts.
func normalizeSplit(budgets []domain.LabelBudget, layout domain.Layout) ([]domain.LabelBudget, error) {
	if len(budgets) == 0 {
		return nil, errors.New("at least one budget is required")
	}
	if layout == domain.LayoutSingle {
		if len(budgets) != 1 || strings.TrimSpace(budgets[0].Label) != "" {
			return nil, errors.New("a single-budget campaign takes exactly one unlabeled budget")
		}
	}
	seen := make(map[string]struct{}, len(budgets))
	out := make([]domain.LabelBudget, 0, len(budgets))
	for _, b := range budgets {
		label := strings.TrimSpace(b.Label)
		if layout == domain.LayoutSplit && label == "" {
			return nil, errors.New("every split budget needs a label")
		}
		if _, dup := seen[label]; dup {
			return nil, errors.New("duplicate label " + label)
		}
		seen[label] = struct{}{}
		if b.Budget < 0 || !finite(b.Budget) {
			return nil, errors.New("budget for " + labelName(label) + " must not be negative")
		}
		out = append(out, domain.LabelBudget{Label: label, Budget: projection.Round2(b.Budget)})
	}
	return out, nil
}

func labelName(label string) string {
	if label == "" {
		return "campaign"
	}
	return label
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// Get returns a single campaign.
func (s *Service) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := s.repo.GetCampaign(ctx, id)
	if err != nil {
		return nil, storeErr("get_campaign", "load_campaign", err)
	}
	return c, nil
}

// List returns campaigns matching the filter in display order.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.Campaign, error) {
	for _, st := range f.Statuses {
		if !st.Valid() {
			return nil, invalid("list_campaigns", "unknown status %q", st)
		}
	}
	out, err := s.repo.ListCampaigns(ctx, f)
	if err != nil {
		return nil, storeErr("list_campaigns", "load_campaigns", err)
	}
	return out, nil
}
