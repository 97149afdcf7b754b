package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/service/campaign"
	"github.com/lib/pq"
)

const campaignColumns = `
	id, client_id, name, structure, platform, currency,
	start_period, current_period, growth_rate, initial_growth_rate,
	cadence, start_date, initial_budget, target_budget, target_period,
	estimated_target_date, label_targets, status, paused_until,
	sort_rank, created_at, updated_at`

func scanCampaign(s rowScanner) (*domain.Campaign, error) {
	var (
		c            domain.Campaign
		targetBudget sql.NullFloat64
		targetPeriod sql.NullInt64
		targetDate   sql.NullTime
		pausedUntil  sql.NullTime
		labelTargets []byte
	)
	if err := s.Scan(
		&c.ID, &c.ClientID, &c.Name, &c.Structure, &c.Platform, &c.Currency,
		&c.StartPeriod, &c.CurrentPeriod, &c.GrowthRate, &c.InitialGrowthRate,
		&c.Cadence, &c.StartDate, &c.InitialBudget, &targetBudget, &targetPeriod,
		&targetDate, &labelTargets, &c.Status, &pausedUntil,
		&c.SortRank, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if targetBudget.Valid {
		c.TargetBudget = &targetBudget.Float64
	}
	if targetPeriod.Valid {
		tp := int(targetPeriod.Int64)
		c.TargetPeriod = &tp
	}
	if targetDate.Valid {
		c.EstimatedTargetDate = &targetDate.Time
	}
	if pausedUntil.Valid {
		c.PausedUntil = &pausedUntil.Time
	}
	if len(labelTargets) > 0 {
		if err := json.Unmarshal(labelTargets, &c.LabelTargets); err != nil {
			return nil, fmt.Errorf("decode label targets: %w", err)
		}
	}
	return &c, nil
}

func (r *Repo) CreateCampaign(ctx context.Context, c *domain.Campaign) error {
	var labelTargets any
	if len(c.LabelTargets) > 0 {
		data, err := json.Marshal(c.LabelTargets)
		if err != nil {
			return fmt.Errorf("encode label targets: %w", err)
		}
		labelTargets = string(data)
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (`+campaignColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22)
	`, c.ID, c.ClientID, c.Name, c.Structure, c.Platform, c.Currency,
		c.StartPeriod, c.CurrentPeriod, c.GrowthRate, c.InitialGrowthRate,
		c.Cadence, c.StartDate, c.InitialBudget, c.TargetBudget, c.TargetPeriod,
		c.EstimatedTargetDate, labelTargets, c.Status, c.PausedUntil,
		c.SortRank, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

func (r *Repo) GetCampaign(ctx context.Context, id string) (*domain.Campaign, error) {
	c, err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
	if err != nil {
		return nil, lookupErr("get campaign", err)
	}
	return c, nil
}

func (r *Repo) ListCampaigns(ctx context.Context, f campaign.ListFilter) ([]domain.Campaign, error) {
	q := `SELECT ` + campaignColumns + ` FROM campaigns WHERE 1=1`
	args := []interface{}{}
	idx := 1

	if f.ClientID != "" {
		q += fmt.Sprintf(" AND client_id = $%d", idx)
		args = append(args, f.ClientID)
		idx++
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q += fmt.Sprintf(" AND status = ANY($%d)", idx)
		args = append(args, pq.Array(statuses))
		idx++
	}
	if f.Platform != "" {
		q += fmt.Sprintf(" AND COALESCE(NULLIF(platform, ''), $%d) = $%d", idx, idx+1)
		args = append(args, domain.DefaultPlatform, f.Platform)
	}
	q += " ORDER BY sort_rank ASC, created_at DESC, id"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *Repo) UpdateCampaign(ctx context.Context, id string, u campaign.UpdateFields) error {
	sets := []string{}
	args := []interface{}{}
	idx := 1
	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, idx))
		args = append(args, val)
		idx++
	}

	if u.Status != nil {
		add("status", string(*u.Status))
	}
	if u.PausedUntil != nil {
		add("paused_until", *u.PausedUntil)
	} else if u.ClearPausedUntil {
		sets = append(sets, "paused_until = NULL")
	}
	if u.CurrentPeriod != nil {
		add("current_period", *u.CurrentPeriod)
	}

	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = NOW()")
	q := fmt.Sprintf("UPDATE campaigns SET %s WHERE id = $%d", strings.Join(sets, ", "), idx)
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return lookupErr("update campaign", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return campaign.ErrNotFound
	}
	return nil
}

func (r *Repo) SetSortRanks(ctx context.Context, ids []string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns c
		SET sort_rank = o.ord - 1, updated_at = NOW()
		FROM unnest($1::uuid[]) WITH ORDINALITY AS o(id, ord)
		WHERE c.id = o.id
	`, pq.Array(ids))
	if err != nil {
		return lookupErr("set sort ranks", err)
	}
	n, _ := res.RowsAffected()
	if int(n) != len(ids) {
		return fmt.Errorf("set sort ranks: %d of %d campaigns updated: %w", n, len(ids), campaign.ErrNotFound)
	}
	return nil
}

func (r *Repo) PurgeCampaign(ctx context.Context, id string) error {
	return r.withTx(ctx, nil, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM period_records WHERE campaign_id = $1`, id); err != nil {
			return lookupErr("purge records", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM strategy_adjustments WHERE campaign_id = $1`, id); err != nil {
			return fmt.Errorf("purge adjustments: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM campaigns WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("purge campaign: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return campaign.ErrNotFound
		}
		return nil
	})
}

// Snapshot reads the campaign and its current-period records inside one
// repeatable-read transaction.
func (r *Repo) Snapshot(ctx context.Context, id string) (*campaign.Snapshot, error) {
	var snap campaign.Snapshot
	err := r.withTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}, func(tx *sql.Tx) error {
		c, err := scanCampaign(tx.QueryRowContext(ctx,
			`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id))
		if err != nil {
			return lookupErr("snapshot campaign", err)
		}
		recs, err := queryRecords(ctx, tx, `
			SELECT `+recordColumns+` FROM period_records
			WHERE campaign_id = $1 AND period = $2
			ORDER BY label`, id, c.CurrentPeriod)
		if err != nil {
			return fmt.Errorf("snapshot records: %w", err)
		}
		snap = campaign.Snapshot{Campaign: *c, Records: recs}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}
