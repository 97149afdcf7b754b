package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/budget-escalator/internal/domain"
	"github.com/ignite/budget-escalator/internal/service/campaign"
)

const recordColumns = `id, campaign_id, period, label, budget, advanced_at, override_rate`

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryRecords(ctx context.Context, q querier, query string, args ...any) ([]domain.PeriodRecord, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.PeriodRecord{}
	for rows.Next() {
		var (
			rec      domain.PeriodRecord
			override sql.NullFloat64
		)
		if err := rows.Scan(&rec.ID, &rec.CampaignID, &rec.Period, &rec.Label,
			&rec.Budget, &rec.AdvancedAt, &override); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		if override.Valid {
			rec.OverrideRate = &override.Float64
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *Repo) ListRecords(ctx context.Context, campaignID string, period int) ([]domain.PeriodRecord, error) {
	recs, err := queryRecords(ctx, r.db, `
		SELECT `+recordColumns+` FROM period_records
		WHERE campaign_id = $1 AND period = $2
		ORDER BY label`, campaignID, period)
	if err != nil {
		return nil, lookupErr("list records", err)
	}
	return recs, nil
}

func (r *Repo) ListAllRecords(ctx context.Context, campaignID string) ([]domain.PeriodRecord, error) {
	recs, err := queryRecords(ctx, r.db, `
		SELECT `+recordColumns+` FROM period_records
		WHERE campaign_id = $1
		ORDER BY period, label`, campaignID)
	if err != nil {
		return nil, lookupErr("list all records", err)
	}
	return recs, nil
}

func (r *Repo) GetLabelRecord(ctx context.Context, campaignID string, period int, label string) (*domain.PeriodRecord, error) {
	recs, err := queryRecords(ctx, r.db, `
		SELECT `+recordColumns+` FROM period_records
		WHERE campaign_id = $1 AND period = $2 AND label = $3`, campaignID, period, label)
	if err != nil {
		return nil, lookupErr("get label record", err)
	}
	if len(recs) == 0 {
		return nil, campaign.ErrNotFound
	}
	return &recs[0], nil
}

// InsertRecords writes every record in one transaction.
func (r *Repo) InsertRecords(ctx context.Context, recs []domain.PeriodRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return r.withTx(ctx, nil, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO period_records (`+recordColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`)
		if err != nil {
			return fmt.Errorf("prepare insert record: %w", err)
		}
		defer stmt.Close()
		for _, rec := range recs {
			if _, err := stmt.ExecContext(ctx, rec.ID, rec.CampaignID, rec.Period, rec.Label,
				rec.Budget, rec.AdvancedAt, rec.OverrideRate); err != nil {
				if isUniqueViolation(err) {
					return campaign.ErrDuplicateRecord
				}
				return fmt.Errorf("insert record: %w", err)
			}
		}
		return nil
	})
}

func (r *Repo) DeleteRecordsFrom(ctx context.Context, campaignID string, period int) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM period_records WHERE campaign_id = $1 AND period >= $2
	`, campaignID, period)
	if err != nil {
		return 0, lookupErr("delete records", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *Repo) DeleteLabelRecord(ctx context.Context, campaignID string, period int, label string) (int, error) {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM period_records WHERE campaign_id = $1 AND period = $2 AND label = $3
	`, campaignID, period, label)
	if err != nil {
		return 0, lookupErr("delete label record", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// ApplyAdjustment swaps the growth rate only while it still equals
// a.OldRate, then appends the ledger entry, in one transaction.
func (r *Repo) ApplyAdjustment(ctx context.Context, a *domain.StrategyAdjustment) error {
	return r.withTx(ctx, nil, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
			UPDATE campaigns SET growth_rate = $1, updated_at = NOW()
			WHERE id = $2 AND growth_rate = $3
		`, a.NewRate, a.CampaignID, a.OldRate)
		if err != nil {
			return lookupErr("update growth rate", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS(SELECT 1 FROM campaigns WHERE id = $1)`, a.CampaignID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("check campaign: %w", err)
			}
			if !exists {
				return campaign.ErrNotFound
			}
			return campaign.ErrStaleRate
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO strategy_adjustments (id, campaign_id, old_rate, new_rate, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`, a.ID, a.CampaignID, a.OldRate, a.NewRate, a.CreatedAt); err != nil {
			return fmt.Errorf("insert adjustment: %w", err)
		}
		return nil
	})
}

func (r *Repo) ListAdjustments(ctx context.Context, campaignID string) ([]domain.StrategyAdjustment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, old_rate, new_rate, created_at
		FROM strategy_adjustments
		WHERE campaign_id = $1
		ORDER BY created_at, id
	`, campaignID)
	if err != nil {
		return nil, lookupErr("list adjustments", err)
	}
	defer rows.Close()

	out := []domain.StrategyAdjustment{}
	for rows.Next() {
		var a domain.StrategyAdjustment
		if err := rows.Scan(&a.ID, &a.CampaignID, &a.OldRate, &a.NewRate, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
