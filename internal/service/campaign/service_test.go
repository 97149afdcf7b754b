package campaign_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/pkg/distlock"
	"github.com/ignite/budget-escalator/internal/repository/memory"
	"github.com/ignite/budget-escalator/internal/service/campaign"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC)

// faultRepo wraps the memory repository and fails selected calls.
type faultRepo struct {
	*memory.Repo
	failInsert map[string]error // keyed by campaign id
	failUpdate map[string]error
}

func newFaultRepo() *faultRepo {
	return &faultRepo{
		Repo:       memory.New(),
		failInsert: map[string]error{},
		failUpdate: map[string]error{},
	}
}

func (f *faultRepo) InsertRecords(ctx context.Context, recs []domain.PeriodRecord) error {
	if len(recs) > 0 {
		if err := f.failInsert[recs[0].CampaignID]; err != nil {
			return err
		}
	}
	return f.Repo.InsertRecords(ctx, recs)
}

func (f *faultRepo) UpdateCampaign(ctx context.Context, id string, u campaign.UpdateFields) error {
	if err := f.failUpdate[id]; err != nil {
		return err
	}
	return f.Repo.UpdateCampaign(ctx, id, u)
}

type fixture struct {
	repo   *faultRepo
	svc    *campaign.Service
	client *domain.Client
}

func setup(t *testing.T, opts ...campaign.Option) *fixture {
	t.Helper()
	repo := newFaultRepo()
	opts = append([]campaign.Option{campaign.WithClock(func() time.Time { return now })}, opts...)
	svc := campaign.NewService(repo, opts...)
	cl, err := svc.CreateClient(context.Background(), "Acme")
	require.NoError(t, err)
	return &fixture{repo: repo, svc: svc, client: cl}
}

func pct(v float64) *float64 { return &v }

func (f *fixture) single(t *testing.T, budget, ratePct float64) *domain.Campaign {
	t.Helper()
	c, err := f.svc.Create(context.Background(), campaign.CreateInput{
		ClientID:      f.client.ID,
		Name:          "Prospecting",
		RatePct:       pct(ratePct),
		InitialBudget: budget,
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) split(t *testing.T, ratePct float64, budgets ...domain.LabelBudget) *domain.Campaign {
	t.Helper()
	c, err := f.svc.Create(context.Background(), campaign.CreateInput{
		ClientID:     f.client.ID,
		Name:         "Retargeting",
		RatePct:      pct(ratePct),
		LabelBudgets: budgets,
	})
	require.NoError(t, err)
	return c
}

func requireKind(t *testing.T, err error, kind campaign.Kind) *campaign.Error {
	t.Helper()
	require.Error(t, err)
	var e *campaign.Error
	require.True(t, errors.As(err, &e), "want *campaign.Error, got %T", err)
	assert.Equal(t, kind, e.Kind, e.Error())
	return e
}

// =============================================================================
// Create
// =============================================================================

func TestCreate_DerivesTarget(t *testing.T) {
	f := setup(t)
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	c, err := f.svc.Create(context.Background(), campaign.CreateInput{
		ClientID:      f.client.ID,
		Name:          "  Launch  ",
		RatePct:       pct(20),
		StartDate:     &start,
		InitialBudget: 100,
		TargetBudget:  pct(200),
	})
	require.NoError(t, err)

	assert.Equal(t, "Launch", c.Name)
	assert.Equal(t, domain.CampaignActive, c.Status)
	assert.Equal(t, domain.StructureSingle, c.Structure)
	assert.Equal(t, "meta", c.Platform)
	assert.Equal(t, "USD", c.Currency)
	assert.Equal(t, 1, c.CurrentPeriod)
	assert.Equal(t, 0.2, c.GrowthRate)
	assert.Equal(t, 0.2, c.InitialGrowthRate)
	require.NotNil(t, c.TargetPeriod)
	assert.Equal(t, 5, *c.TargetPeriod)
	require.NotNil(t, c.EstimatedTargetDate)
	assert.Equal(t, start.AddDate(0, 0, 28), *c.EstimatedTargetDate)

	recs, err := f.svc.Records(context.Background(), c.ID, 1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "", recs[0].Label)
	assert.Equal(t, 100.0, recs[0].Budget)
}

func TestCreate_UnreachableTargetLeavesFieldsUnset(t *testing.T) {
	f := setup(t)
	c, err := f.svc.Create(context.Background(), campaign.CreateInput{
		ClientID:      f.client.ID,
		Name:          "Flat",
		InitialBudget: 1000,
		TargetBudget:  pct(1000),
	})
	require.NoError(t, err)
	assert.Nil(t, c.TargetPeriod)
	assert.Nil(t, c.EstimatedTargetDate)
	require.NotNil(t, c.TargetBudget)
	assert.Equal(t, 1000.0, *c.TargetBudget)
}

func TestCreate_ManualTargetPeriod(t *testing.T) {
	f := setup(t)
	tp := 10
	c, err := f.svc.Create(context.Background(), campaign.CreateInput{
		ClientID:      f.client.ID,
		Name:          "Manual",
		Cadence:       domain.CadenceDaily,
		StartPeriod:   3,
		InitialBudget: 50,
		TargetBudget:  pct(80),
		TargetPeriod:  &tp,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, c.CurrentPeriod)
	assert.Equal(t, 10, *c.TargetPeriod)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), *c.EstimatedTargetDate)
}

func TestCreate_Split(t *testing.T) {
	f := setup(t)
	c := f.split(t, 20,
		domain.LabelBudget{Label: "B", Budget: 50},
		domain.LabelBudget{Label: "A", Budget: 100.005},
	)
	assert.Equal(t, domain.StructurePerLabelSplit, c.Structure)
	assert.Equal(t, 150.01, c.InitialBudget)

	labels, err := f.svc.Labels(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, labels)
}

func TestCreate_Rejections(t *testing.T) {
	f := setup(t)
	tp := 0
	tests := []struct {
		name string
		in   campaign.CreateInput
		kind campaign.Kind
	}{
		{"missing name", campaign.CreateInput{ClientID: f.client.ID, InitialBudget: 10}, campaign.KindInvalidInput},
		{"unknown client", campaign.CreateInput{ClientID: "nope", Name: "x", InitialBudget: 10}, campaign.KindNotFound},
		{"rate at -100%", campaign.CreateInput{ClientID: f.client.ID, Name: "x", InitialBudget: 10, RatePct: pct(-100)}, campaign.KindInvalidRate},
		{"zero budget", campaign.CreateInput{ClientID: f.client.ID, Name: "x"}, campaign.KindInvalidInput},
		{"bad cadence", campaign.CreateInput{ClientID: f.client.ID, Name: "x", InitialBudget: 10, Cadence: "hourly"}, campaign.KindInvalidInput},
		{"single with labels", campaign.CreateInput{
			ClientID: f.client.ID, Name: "x", Structure: domain.StructureSingle,
			LabelBudgets: []domain.LabelBudget{{Label: "A", Budget: 1}},
		}, campaign.KindInvalidInput},
		{"duplicate labels", campaign.CreateInput{
			ClientID: f.client.ID, Name: "x",
			LabelBudgets: []domain.LabelBudget{{Label: "A", Budget: 1}, {Label: "A", Budget: 2}},
		}, campaign.KindInvalidInput},
		{"target period before start", campaign.CreateInput{
			ClientID: f.client.ID, Name: "x", InitialBudget: 10, TargetPeriod: &tp,
		}, campaign.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), tt.in)
			requireKind(t, err, tt.kind)
		})
	}

	all, err := f.svc.List(context.Background(), campaign.ListFilter{ClientID: f.client.ID})
	require.NoError(t, err)
	assert.Empty(t, all, "rejected creations must not write")
}

func TestCreate_InitialRecordFailureCleansUp(t *testing.T) {
	f := setup(t)
	// The campaign id is unknown before Create, so fail every insert.
	wrapped := &insertFailRepo{faultRepo: f.repo}
	svc := campaign.NewService(wrapped, campaign.WithClock(func() time.Time { return now }))

	_, err := svc.Create(context.Background(), campaign.CreateInput{ClientID: f.client.ID, Name: "x", InitialBudget: 10})
	e := requireKind(t, err, campaign.KindPersistence)
	assert.Equal(t, "write_initial_records", e.Step)

	all, err := svc.List(context.Background(), campaign.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

type insertFailRepo struct{ *faultRepo }

func (r *insertFailRepo) InsertRecords(context.Context, []domain.PeriodRecord) error {
	return errors.New("disk full")
}

// =============================================================================
// Advance
// =============================================================================

func TestAdvance_UniformSplit(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.split(t, 20,
		domain.LabelBudget{Label: "A", Budget: 100},
		domain.LabelBudget{Label: "B", Budget: 50},
	)

	res, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.FromPeriod)
	assert.Equal(t, 2, res.ToPeriod)
	assert.False(t, res.Override)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "A", res.Records[0].Label)
	assert.Equal(t, 120.0, res.Records[0].Budget)
	assert.Equal(t, "B", res.Records[1].Label)
	assert.Equal(t, 60.0, res.Records[1].Budget)
	assert.Nil(t, res.Records[0].OverrideRate)

	budget, err := f.svc.CurrentBudget(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 180.0, budget)

	got, err := f.svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.CurrentPeriod)
}

func TestAdvance_RoundsEachStep(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	want := []float64{120, 144, 172.8, 207.36, 248.83}
	for _, w := range want {
		res, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
		require.NoError(t, err)
		assert.Equal(t, w, res.Budget)
	}
}

func TestAdvance_OverrideIsOneOff(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	res, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{OverrideRatePct: pct(50)})
	require.NoError(t, err)
	assert.True(t, res.Override)
	assert.Equal(t, 150.0, res.Budget)
	require.NotNil(t, res.Records[0].OverrideRate)
	assert.Equal(t, 0.5, *res.Records[0].OverrideRate)

	got, _ := f.svc.Get(ctx, c.ID)
	assert.Equal(t, 0.2, got.GrowthRate)
	adjs, err := f.svc.Adjustments(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, adjs)

	res, err = f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 180.0, res.Budget)
}

func TestAdvance_NoPriorBudget(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	require.NoError(t, f.repo.CreateCampaign(ctx, &domain.Campaign{
		ID: "empty", ClientID: f.client.ID, Name: "legacy", Status: domain.CampaignActive,
		CurrentPeriod: 4, GrowthRate: 0.2,
	}))

	_, err := f.svc.Advance(ctx, "empty", campaign.AdvanceOptions{})
	requireKind(t, err, campaign.KindNoPriorBudget)
	assert.ErrorIs(t, err, domain.ErrNoPriorBudget)

	recs, _ := f.repo.ListAllRecords(ctx, "empty")
	assert.Empty(t, recs)
	got, _ := f.svc.Get(ctx, "empty")
	assert.Equal(t, 4, got.CurrentPeriod)
}

func TestAdvance_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{OverrideRatePct: pct(-150)})
	requireKind(t, err, campaign.KindInvalidRate)

	_, err = f.svc.Advance(ctx, "missing", campaign.AdvanceOptions{})
	requireKind(t, err, campaign.KindNotFound)

	_, err = f.svc.Pause(ctx, c.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	requireKind(t, err, campaign.KindInvalidTransition)

	got, _ := f.svc.Get(ctx, c.ID)
	assert.Equal(t, 1, got.CurrentPeriod)
}

func TestAdvance_PartialFailureThenResume(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	f.repo.failUpdate[c.ID] = errors.New("connection reset")
	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	e := requireKind(t, err, campaign.KindPersistence)
	assert.Equal(t, "update_period", e.Step)
	assert.Contains(t, e.Error(), "period 2")

	recs, _ := f.repo.ListRecords(ctx, c.ID, 2)
	assert.Len(t, recs, 1, "records are written before the index")

	delete(f.repo.failUpdate, c.ID)
	res, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, 2, res.ToPeriod)
	assert.Equal(t, 120.0, res.Budget)

	all, _ := f.repo.ListAllRecords(ctx, c.ID)
	assert.Len(t, all, 2)
}

func TestAdvance_RollbackClearsUnfinishedAdvance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)

	// period 3 is written but the index stays at 2
	f.repo.failUpdate[c.ID] = errors.New("connection reset")
	_, err = f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	requireKind(t, err, campaign.KindPersistence)
	delete(f.repo.failUpdate, c.ID)

	rb, err := f.svc.Rollback(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, rb.ToPeriod)
	assert.Equal(t, 2, rb.Removed, "records of periods 2 and 3")

	all, _ := f.repo.ListAllRecords(ctx, c.ID)
	assert.Len(t, all, 1)

	res, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	assert.False(t, res.Resumed)
	assert.Equal(t, 120.0, res.Budget)

	_, err = f.svc.SetPersistentRate(ctx, c.ID, 50)
	require.NoError(t, err)

	res, err = f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	assert.False(t, res.Resumed)
	assert.Equal(t, 3, res.ToPeriod)
	assert.Equal(t, 0.5, res.Rate)
	assert.Equal(t, 180.0, res.Budget)
}

func TestAdvance_RetryMustMatchUnfinishedAdvance(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	f.repo.failUpdate[c.ID] = errors.New("connection reset")
	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	requireKind(t, err, campaign.KindPersistence)
	delete(f.repo.failUpdate, c.ID)

	_, err = f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{OverrideRatePct: pct(50)})
	e := requireKind(t, err, campaign.KindConflict)
	assert.ErrorIs(t, err, campaign.ErrStaleRecords)
	assert.Equal(t, "load_next_records", e.Step)
	assert.Contains(t, e.Message, "period 2")

	_, err = f.svc.AdvanceWithCustomBudgets(ctx, c.ID, []domain.LabelBudget{{Budget: 130}})
	requireKind(t, err, campaign.KindConflict)

	got, _ := f.svc.Get(ctx, c.ID)
	assert.Equal(t, 1, got.CurrentPeriod)
	recs, _ := f.repo.ListRecords(ctx, c.ID, 2)
	require.Len(t, recs, 1)
	assert.Equal(t, 120.0, recs[0].Budget)

	// the same budget through the custom path finishes it
	res, err := f.svc.AdvanceWithCustomBudgets(ctx, c.ID, []domain.LabelBudget{{Budget: 120}})
	require.NoError(t, err)
	assert.True(t, res.Resumed)
	assert.Equal(t, 2, res.ToPeriod)
	assert.Equal(t, 120.0, res.Budget)
}

func TestAdvance_WriteFailureNamesStep(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	f.repo.failInsert[c.ID] = errors.New("timeout")
	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	e := requireKind(t, err, campaign.KindPersistence)
	assert.Equal(t, "write_records", e.Step)

	got, _ := f.svc.Get(ctx, c.ID)
	assert.Equal(t, 1, got.CurrentPeriod)
}

func TestAdvanceWithCustomBudgets(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.split(t, 20,
		domain.LabelBudget{Label: "A", Budget: 100},
		domain.LabelBudget{Label: "B", Budget: 33.33},
	)

	suggested, err := f.svc.SuggestCustomSplit(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, []domain.LabelBudget{{Label: "A", Budget: 120}, {Label: "B", Budget: 40}}, suggested)

	suggested, err = f.svc.SuggestCustomSplit(ctx, c.ID, pct(15))
	require.NoError(t, err)
	assert.Equal(t, 38.33, suggested[1].Budget)

	res, err := f.svc.AdvanceWithCustomBudgets(ctx, c.ID, []domain.LabelBudget{
		{Label: "A", Budget: 90},
		{Label: "C", Budget: 12.345},
	})
	require.NoError(t, err)
	assert.True(t, res.Custom)
	assert.Equal(t, 2, res.ToPeriod)
	assert.Equal(t, 102.35, res.Budget)

	recs, _ := f.svc.Records(ctx, c.ID, 2)
	require.Len(t, recs, 2)
	assert.Equal(t, "C", recs[1].Label)
	assert.Equal(t, 12.35, recs[1].Budget)

	got, _ := f.svc.Get(ctx, c.ID)
	assert.Equal(t, 0.2, got.GrowthRate, "custom budgets never touch the rate")
}

func TestAdvanceWithCustomBudgets_Validation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	single := f.single(t, 100, 20)
	split := f.split(t, 20, domain.LabelBudget{Label: "A", Budget: 100})

	tests := []struct {
		name    string
		id      string
		budgets []domain.LabelBudget
	}{
		{"empty", split.ID, nil},
		{"single takes no labels", single.ID, []domain.LabelBudget{{Label: "A", Budget: 1}}},
		{"single takes one budget", single.ID, []domain.LabelBudget{{Budget: 1}, {Budget: 2}}},
		{"split needs labels", split.ID, []domain.LabelBudget{{Budget: 1}}},
		{"duplicate label", split.ID, []domain.LabelBudget{{Label: "A", Budget: 1}, {Label: "A", Budget: 2}}},
		{"negative", split.ID, []domain.LabelBudget{{Label: "A", Budget: -1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.AdvanceWithCustomBudgets(ctx, tt.id, tt.budgets)
			requireKind(t, err, campaign.KindInvalidInput)
		})
	}

	res, err := f.svc.AdvanceWithCustomBudgets(ctx, single.ID, []domain.LabelBudget{{Budget: 175}})
	require.NoError(t, err)
	assert.Equal(t, 175.0, res.Budget)
}

// =============================================================================
// Rollback
// =============================================================================

func TestRollback_InvertsAdvance(t *testing.T) {
	for _, n := range []int{1, 2, 5} {
		f := setup(t)
		ctx := context.Background()
		c := f.split(t, 20,
			domain.LabelBudget{Label: "A", Budget: 100},
			domain.LabelBudget{Label: "B", Budget: 50},
		)
		for i := 1; i < n; i++ {
			_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
			require.NoError(t, err)
		}
		before, _ := f.repo.ListAllRecords(ctx, c.ID)

		_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
		require.NoError(t, err)
		res, err := f.svc.Rollback(ctx, c.ID)
		require.NoError(t, err)

		assert.Equal(t, n+1, res.FromPeriod)
		assert.Equal(t, n, res.ToPeriod)
		assert.Equal(t, 2, res.Removed)
		got, _ := f.svc.Get(ctx, c.ID)
		assert.Equal(t, n, got.CurrentPeriod)
		after, _ := f.repo.ListAllRecords(ctx, c.ID)
		assert.Equal(t, before, after)
	}
}

func TestRollback_AtFloor(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	_, err := f.svc.Rollback(ctx, c.ID)
	requireKind(t, err, campaign.KindRollbackAtFloor)
	recs, _ := f.repo.ListAllRecords(ctx, c.ID)
	assert.Len(t, recs, 1)

	late, err := f.svc.Create(ctx, campaign.CreateInput{
		ClientID: f.client.ID, Name: "late", StartPeriod: 4, InitialBudget: 10,
	})
	require.NoError(t, err)
	_, err = f.svc.Rollback(ctx, late.ID)
	requireKind(t, err, campaign.KindRollbackAtFloor)
}

func TestRollback_StatusGuard(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)
	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)

	_, err = f.svc.Pause(ctx, c.ID, nil)
	require.NoError(t, err)
	_, err = f.svc.Rollback(ctx, c.ID)
	require.NoError(t, err, "paused campaigns can be rolled back")

	_, err = f.svc.Archive(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.Rollback(ctx, c.ID)
	requireKind(t, err, campaign.KindInvalidTransition)
}

func TestRollback_PartialFailureIsRetryable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)
	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)

	f.repo.failUpdate[c.ID] = errors.New("connection reset")
	_, err = f.svc.Rollback(ctx, c.ID)
	e := requireKind(t, err, campaign.KindPersistence)
	assert.Equal(t, "update_period", e.Step)

	delete(f.repo.failUpdate, c.ID)
	res, err := f.svc.Rollback(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Removed)
	assert.Equal(t, 1, res.ToPeriod)
}

// =============================================================================
// Ledger
// =============================================================================

func TestSetPersistentRate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	adj, err := f.svc.SetPersistentRate(ctx, c.ID, 30)
	require.NoError(t, err)
	require.NotNil(t, adj)
	assert.Equal(t, 0.2, adj.OldRate)
	assert.Equal(t, 0.3, adj.NewRate)

	adjs, err := f.svc.Adjustments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, adjs, 1)
	assert.Equal(t, 0.2, adjs[0].OldRate)
	assert.Equal(t, 0.3, adjs[0].NewRate)

	res, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 130.0, res.Budget)
	res, err = f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	assert.Equal(t, 169.0, res.Budget)

	same, err := f.svc.SetPersistentRate(ctx, c.ID, 30)
	require.NoError(t, err)
	assert.Nil(t, same)
	adjs, _ = f.svc.Adjustments(ctx, c.ID)
	assert.Len(t, adjs, 1)
}

func TestSetPersistentRate_LedgerIsMostRecentFirst(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	clock := now
	svc := campaign.NewService(f.repo, campaign.WithClock(func() time.Time { return clock }))
	for _, p := range []float64{25, 30, 10} {
		clock = clock.Add(time.Minute)
		_, err := svc.SetPersistentRate(ctx, c.ID, p)
		require.NoError(t, err)
	}

	adjs, err := svc.Adjustments(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, adjs, 3)
	assert.Equal(t, 0.1, adjs[0].NewRate)
	assert.Equal(t, 0.3, adjs[0].OldRate)
	assert.Equal(t, 0.25, adjs[2].NewRate)
}

func TestSetPersistentRate_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	_, err := f.svc.SetPersistentRate(ctx, c.ID, -100)
	requireKind(t, err, campaign.KindInvalidRate)

	_, err = f.svc.SoftDelete(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.SetPersistentRate(ctx, c.ID, 30)
	requireKind(t, err, campaign.KindInvalidTransition)
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestPause(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	yesterday := now.AddDate(0, 0, -1)
	_, err := f.svc.Pause(ctx, c.ID, &yesterday)
	requireKind(t, err, campaign.KindInvalidPauseDate)

	earlierToday := time.Date(2026, 3, 2, 0, 5, 0, 0, time.UTC)
	got, err := f.svc.Pause(ctx, c.ID, &earlierToday)
	require.NoError(t, err, "today is allowed")
	assert.Equal(t, domain.CampaignPaused, got.Status)
	require.NotNil(t, got.PausedUntil)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), *got.PausedUntil)

	got, err = f.svc.Resume(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, got.Status)
	assert.Nil(t, got.PausedUntil)
	stored, _ := f.svc.Get(ctx, c.ID)
	assert.Nil(t, stored.PausedUntil)

	got, err = f.svc.Pause(ctx, c.ID, nil)
	require.NoError(t, err)
	assert.True(t, got.IsIndefinitelyPaused())
}

func TestPauseForMonths(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	_, err := f.svc.PauseForMonths(ctx, c.ID, 2)
	requireKind(t, err, campaign.KindInvalidInput)

	got, err := f.svc.PauseForMonths(ctx, c.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 6, 2, 0, 0, 0, 0, time.UTC), *got.PausedUntil)
}

func TestLifecycle_Transitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	_, err := f.svc.Resume(ctx, c.ID)
	requireKind(t, err, campaign.KindInvalidTransition)

	got, err := f.svc.Complete(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignCompleted, got.Status)

	_, err = f.svc.Pause(ctx, c.ID, nil)
	requireKind(t, err, campaign.KindInvalidTransition)

	got, err = f.svc.Archive(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignArchived, got.Status)

	got, err = f.svc.Restore(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, got.Status)

	_, err = f.svc.Restore(ctx, c.ID)
	requireKind(t, err, campaign.KindInvalidTransition)
}

func TestLifecycle_FailedWriteKeepsStatus(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)

	f.repo.failUpdate[c.ID] = errors.New("read-only transaction")
	_, err := f.svc.Archive(ctx, c.ID)
	e := requireKind(t, err, campaign.KindPersistence)
	assert.Equal(t, "update_status", e.Step)

	delete(f.repo.failUpdate, c.ID)
	got, _ := f.svc.Get(ctx, c.ID)
	assert.Equal(t, domain.CampaignActive, got.Status)
}

func TestSoftDeleteRestore_PreservesHistory(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.single(t, 100, 20)
	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	_, err = f.svc.SetPersistentRate(ctx, c.ID, 25)
	require.NoError(t, err)

	recsBefore, _ := f.repo.ListAllRecords(ctx, c.ID)
	adjsBefore, _ := f.repo.ListAdjustments(ctx, c.ID)

	_, err = f.svc.SoftDelete(ctx, c.ID)
	require.NoError(t, err)
	got, err := f.svc.Restore(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.CampaignActive, got.Status)

	recsAfter, _ := f.repo.ListAllRecords(ctx, c.ID)
	adjsAfter, _ := f.repo.ListAdjustments(ctx, c.ID)
	assert.Equal(t, recsBefore, recsAfter)
	assert.Equal(t, adjsBefore, adjsAfter)
}

func TestPermanentlyDelete(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	doomed := f.single(t, 100, 20)
	kept := f.single(t, 200, 20)
	for _, id := range []string{doomed.ID, kept.ID} {
		_, err := f.svc.Advance(ctx, id, campaign.AdvanceOptions{})
		require.NoError(t, err)
		_, err = f.svc.SetPersistentRate(ctx, id, 30)
		require.NoError(t, err)
	}

	err := f.svc.PermanentlyDelete(ctx, doomed.ID)
	requireKind(t, err, campaign.KindInvalidTransition)

	_, err = f.svc.SoftDelete(ctx, doomed.ID)
	require.NoError(t, err)
	require.NoError(t, f.svc.PermanentlyDelete(ctx, doomed.ID))

	_, err = f.svc.Get(ctx, doomed.ID)
	requireKind(t, err, campaign.KindNotFound)
	recs, _ := f.repo.ListAllRecords(ctx, doomed.ID)
	assert.Empty(t, recs)
	adjs, _ := f.repo.ListAdjustments(ctx, doomed.ID)
	assert.Empty(t, adjs)

	recs, _ = f.repo.ListAllRecords(ctx, kept.ID)
	assert.Len(t, recs, 2)
	adjs, _ = f.repo.ListAdjustments(ctx, kept.ID)
	assert.Len(t, adjs, 1)
}

// =============================================================================
// Bulk
// =============================================================================

func TestBulkAdvance_MixedRatesNeedConfirmation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.single(t, 100, 20)
	b := f.single(t, 100, 10)

	_, err := f.svc.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{})
	requireKind(t, err, campaign.KindConfirmationRequired)
	for _, id := range []string{a.ID, b.ID} {
		got, _ := f.svc.Get(ctx, id)
		assert.Equal(t, 1, got.CurrentPeriod, "nothing is written before confirmation")
	}

	report, err := f.svc.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{ConfirmMixedRates: true})
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 2)
	assert.Empty(t, report.Failed)

	ba, _ := f.svc.CurrentBudget(ctx, a.ID)
	bb, _ := f.svc.CurrentBudget(ctx, b.ID)
	assert.Equal(t, 120.0, ba)
	assert.Equal(t, 110.0, bb, "each campaign keeps its own rate")
}

func TestBulkAdvance_SelectsAndSkips(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	due := f.single(t, 100, 20)
	done, err := f.svc.Create(ctx, campaign.CreateInput{
		ClientID: f.client.ID, Name: "done", RatePct: pct(20), InitialBudget: 500, TargetBudget: pct(400),
	})
	require.NoError(t, err)
	paused := f.single(t, 100, 20)
	_, err = f.svc.Pause(ctx, paused.ID, nil)
	require.NoError(t, err)
	google, err := f.svc.Create(ctx, campaign.CreateInput{
		ClientID: f.client.ID, Name: "search", Platform: "google", RatePct: pct(20), InitialBudget: 100,
	})
	require.NoError(t, err)
	require.NoError(t, f.repo.CreateCampaign(ctx, &domain.Campaign{
		ID: "legacy", ClientID: f.client.ID, Name: "legacy", Status: domain.CampaignActive,
		CurrentPeriod: 1, GrowthRate: 0.2,
	}))
	require.NoError(t, f.repo.InsertRecords(ctx, []domain.PeriodRecord{{ID: "l1", CampaignID: "legacy", Period: 1, Budget: 10}}))

	plan, err := f.svc.PlanBulkAdvance(ctx, f.client.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "meta", plan.Platform)
	assert.Len(t, plan.Eligible, 2)
	require.Len(t, plan.Skipped, 1)
	assert.Equal(t, done.ID, plan.Skipped[0].CampaignID)
	assert.Equal(t, campaign.SkipTargetReached, plan.Skipped[0].Reason)
	assert.False(t, plan.MixedRates)

	report, err := f.svc.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{Platform: "meta"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{due.ID, "legacy"}, itemIDs(report.Succeeded))
	assert.Equal(t, []string{done.ID}, itemIDs(report.Skipped))

	for id, want := range map[string]int{due.ID: 2, "legacy": 2, done.ID: 1, paused.ID: 1, google.ID: 1} {
		got, _ := f.svc.Get(ctx, id)
		assert.Equal(t, want, got.CurrentPeriod, id)
	}
}

func TestBulkAdvance_BestEffort(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.single(t, 100, 20)
	b := f.single(t, 100, 20)
	c := f.single(t, 100, 20)

	f.repo.failInsert[b.ID] = errors.New("deadlock detected")
	report, err := f.svc.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{})
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{a.ID, c.ID}, itemIDs(report.Succeeded))
	require.Len(t, report.Failed, 1)
	assert.Equal(t, b.ID, report.Failed[0].CampaignID)
	assert.Equal(t, campaign.KindPersistence, report.Failed[0].Kind)
	assert.Contains(t, report.Failed[0].Error, "deadlock")
}

func TestBulkAdvance_UnknownClient(t *testing.T) {
	f := setup(t)
	_, err := f.svc.BulkAdvance(context.Background(), "nope", campaign.BulkOptions{})
	requireKind(t, err, campaign.KindNotFound)
}

func TestBulkAdvance_LockHeld(t *testing.T) {
	held := distlock.NewLocalLock("")
	f := setup(t, campaign.WithLocks(func(key string, _ time.Duration) distlock.DistLock {
		return held
	}))
	ctx := context.Background()
	f.single(t, 100, 20)

	ok, err := held.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	other := distlock.NewLocalLock("")
	f2 := campaign.NewService(f.repo, campaign.WithLocks(func(string, time.Duration) distlock.DistLock { return other }))

	_, err = f2.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{})
	e := requireKind(t, err, campaign.KindConflict)
	assert.ErrorIs(t, e, campaign.ErrBulkInProgress)

	require.NoError(t, held.Release(ctx))
	_, err = f2.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{})
	require.NoError(t, err)
}

func TestBulkAdvance_RedisLock(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	f := setup(t, campaign.WithLocks(distlock.Factory(rdb, nil)))
	ctx := context.Background()
	f.single(t, 100, 20)

	// another instance is mid-run for the same client and platform
	other := distlock.NewRedisLock(rdb, "escalation:bulk:"+f.client.ID+":meta", time.Minute)
	ok, err := other.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	_, err = f.svc.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{})
	requireKind(t, err, campaign.KindConflict)

	// a different platform is not blocked
	_, err = f.svc.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{Platform: "google"})
	require.NoError(t, err)

	require.NoError(t, other.Release(ctx))
	report, err := f.svc.BulkAdvance(ctx, f.client.ID, campaign.BulkOptions{})
	require.NoError(t, err)
	assert.Len(t, report.Succeeded, 1)
	assert.False(t, mr.Exists(other.Key()), "lock released after the run")
}

func TestBulkRollback(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	moved := f.single(t, 100, 20)
	fresh := f.single(t, 100, 20)
	paused := f.single(t, 100, 20)
	for _, id := range []string{moved.ID, paused.ID} {
		_, err := f.svc.Advance(ctx, id, campaign.AdvanceOptions{})
		require.NoError(t, err)
	}
	_, err := f.svc.Pause(ctx, paused.ID, nil)
	require.NoError(t, err)

	report, err := f.svc.BulkRollback(ctx, f.client.ID, "")
	require.NoError(t, err)
	assert.Equal(t, []string{moved.ID}, itemIDs(report.Succeeded))
	require.Len(t, report.Skipped, 1)
	assert.Equal(t, fresh.ID, report.Skipped[0].CampaignID)
	assert.Equal(t, campaign.SkipAtFloor, report.Skipped[0].Reason)

	got, _ := f.svc.Get(ctx, moved.ID)
	assert.Equal(t, 1, got.CurrentPeriod)
	got, _ = f.svc.Get(ctx, paused.ID)
	assert.Equal(t, 2, got.CurrentPeriod, "only active campaigns are rolled back in bulk")
}

// =============================================================================
// Ordering
// =============================================================================

func TestReorder(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.single(t, 100, 20)
	b := f.single(t, 100, 20)
	c := f.single(t, 100, 20)

	require.NoError(t, f.svc.Reorder(ctx, []string{b.ID, c.ID, a.ID}))
	list, err := f.svc.List(ctx, campaign.ListFilter{ClientID: f.client.ID, Statuses: []domain.CampaignStatus{domain.CampaignActive}})
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID, c.ID, a.ID}, campaignIDs(list))
	for i, cp := range list {
		assert.Equal(t, i, cp.SortRank)
	}

	require.NoError(t, f.svc.Reorder(ctx, []string{a.ID, b.ID, c.ID}))
	list, _ = f.svc.List(ctx, campaign.ListFilter{ClientID: f.client.ID})
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, campaignIDs(list))
}

func TestReorder_AppendsUnlistedActive(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.single(t, 100, 20)
	b := f.single(t, 100, 20)
	c := f.single(t, 100, 20)
	require.NoError(t, f.svc.Reorder(ctx, []string{a.ID, b.ID, c.ID}))

	// new campaigns start at rank 0, colliding with a
	d := f.single(t, 100, 20)
	paused := f.single(t, 100, 20)
	_, err := f.svc.Pause(ctx, paused.ID, nil)
	require.NoError(t, err)

	require.NoError(t, f.svc.Reorder(ctx, []string{c.ID, d.ID}))

	list, err := f.svc.List(ctx, campaign.ListFilter{ClientID: f.client.ID, Statuses: []domain.CampaignStatus{domain.CampaignActive}})
	require.NoError(t, err)
	assert.Equal(t, []string{c.ID, d.ID, a.ID, b.ID}, campaignIDs(list))
	for i, cp := range list {
		assert.Equal(t, i, cp.SortRank)
	}
}

func TestReorder_Rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.single(t, 100, 20)
	b := f.single(t, 100, 20)
	other, err := f.svc.CreateClient(ctx, "Globex")
	require.NoError(t, err)
	foreign, err := f.svc.Create(ctx, campaign.CreateInput{ClientID: other.ID, Name: "x", InitialBudget: 1})
	require.NoError(t, err)

	requireKind(t, f.svc.Reorder(ctx, nil), campaign.KindInvalidInput)
	requireKind(t, f.svc.Reorder(ctx, []string{a.ID, a.ID}), campaign.KindInvalidInput)
	requireKind(t, f.svc.Reorder(ctx, []string{a.ID, "missing"}), campaign.KindNotFound)
	requireKind(t, f.svc.Reorder(ctx, []string{a.ID, foreign.ID}), campaign.KindInvalidInput)

	_, err = f.svc.Archive(ctx, b.ID)
	require.NoError(t, err)
	requireKind(t, f.svc.Reorder(ctx, []string{a.ID, b.ID}), campaign.KindInvalidInput)
}

// =============================================================================
// Read side
// =============================================================================

func TestOverview(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c, err := f.svc.Create(ctx, campaign.CreateInput{
		ClientID: f.client.ID,
		Name:     "split",
		RatePct:  pct(20),
		LabelBudgets: []domain.LabelBudget{
			{Label: "A", Budget: 100},
			{Label: "B", Budget: 50},
		},
		TargetBudget: pct(300),
		LabelTargets: map[string]float64{"A": 110},
	})
	require.NoError(t, err)
	_, err = f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)
	_, err = f.svc.SetPersistentRate(ctx, c.ID, 10)
	require.NoError(t, err)

	ov, err := f.svc.Overview(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LayoutSplit, ov.Layout)
	assert.Equal(t, []string{"A", "B"}, ov.Labels)
	assert.Equal(t, 180.0, ov.CurrentBudget)
	assert.Equal(t, campaign.InitialBudget{Amount: 150, Source: campaign.SourceStored}, ov.Initial)
	assert.Equal(t, 60.0, ov.ProgressPct)
	assert.False(t, ov.Finished)
	assert.Equal(t, []domain.LabelBudget{{Label: "A", Budget: 132}, {Label: "B", Budget: 66}}, ov.NextPreview)
	assert.Equal(t, 198.0, ov.NextBudget)
	require.Len(t, ov.PerLabel, 2)
	assert.True(t, ov.PerLabel[0].Finished)
	assert.False(t, ov.PerLabel[1].Finished)
	require.Len(t, ov.Adjustments, 1)
}

func TestLabelRecords(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	c := f.split(t, 20,
		domain.LabelBudget{Label: "A", Budget: 100},
		domain.LabelBudget{Label: "B", Budget: 50},
	)
	_, err := f.svc.Advance(ctx, c.ID, campaign.AdvanceOptions{})
	require.NoError(t, err)

	rec, err := f.svc.LabelRecord(ctx, c.ID, 2, " B ")
	require.NoError(t, err)
	assert.Equal(t, 60.0, rec.Budget)

	_, err = f.svc.LabelRecord(ctx, c.ID, 2, "Z")
	requireKind(t, err, campaign.KindNotFound)

	removed, err := f.svc.RemoveLabelRecord(ctx, c.ID, "B")
	require.NoError(t, err)
	assert.Equal(t, 60.0, removed.Budget)

	budget, err := f.svc.CurrentBudget(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, budget)

	// earlier periods are untouched
	prior, err := f.svc.Records(ctx, c.ID, 1)
	require.NoError(t, err)
	assert.Len(t, prior, 2)

	_, err = f.svc.RemoveLabelRecord(ctx, c.ID, "B")
	requireKind(t, err, campaign.KindNotFound)

	_, err = f.svc.RemoveLabelRecord(ctx, c.ID, "A")
	requireKind(t, err, campaign.KindInvalidInput)

	_, err = f.svc.SoftDelete(ctx, c.ID)
	require.NoError(t, err)
	_, err = f.svc.RemoveLabelRecord(ctx, c.ID, "A")
	requireKind(t, err, campaign.KindInvalidTransition)
}

func TestResolveInitialBudget(t *testing.T) {
	recs := []domain.PeriodRecord{
		{Period: 3, Label: "A", Budget: 70},
		{Period: 2, Label: "A", Budget: 60},
		{Period: 2, Label: "B", Budget: 40.5},
	}
	tests := []struct {
		name    string
		initial float64
		records []domain.PeriodRecord
		want    campaign.InitialBudget
	}{
		{"stored wins", 80, recs, campaign.InitialBudget{Amount: 80, Source: campaign.SourceStored}},
		{"earliest period back-fill", 0, recs, campaign.InitialBudget{Amount: 100.5, Source: campaign.SourceEarliestPeriod}},
		{"negative stored value is ignored", -5, recs, campaign.InitialBudget{Amount: 100.5, Source: campaign.SourceEarliestPeriod}},
		{"unknown", 0, nil, campaign.InitialBudget{Source: campaign.SourceUnknown}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &domain.Campaign{InitialBudget: tt.initial}
			assert.Equal(t, tt.want, campaign.ResolveInitialBudget(c, tt.records))
		})
	}
}

func TestSchedule(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	c, err := f.svc.Create(ctx, campaign.CreateInput{
		ClientID: f.client.ID, Name: "s", RatePct: pct(20), StartDate: &start,
		InitialBudget: 100, TargetBudget: pct(200),
	})
	require.NoError(t, err)

	steps, err := f.svc.Schedule(ctx, c.ID, 4)
	require.NoError(t, err)
	require.Len(t, steps, 4)
	assert.Equal(t, 207.36, steps[3].Budget)
	assert.True(t, steps[3].ReachesTarget)
	assert.Equal(t, start.AddDate(0, 0, 7), steps[0].Date)

	_, err = f.svc.Schedule(ctx, c.ID, 0)
	requireKind(t, err, campaign.KindInvalidInput)

	got, _ := f.svc.Get(ctx, c.ID)
	assert.Equal(t, 1, got.CurrentPeriod, "previews never persist")
}

func itemIDs(items []campaign.BulkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.CampaignID
	}
	return out
}

func campaignIDs(cs []domain.Campaign) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}
