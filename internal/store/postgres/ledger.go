package postgres

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type LedgerRepository struct {
	q sqlx.ExtContext
}

func (r *LedgerRepository) Append(ctx context.Context, e *model.AdjustmentEntry) error {
	query := `
        INSERT INTO adjustment_log (
            id, product_id, category, old_quantity, new_quantity, delta, reason,
            batch_id, serial_id, actor, reference_type, reference_id, idempotency_key, created_at
        )
        VALUES (
            :id, :product_id, :category, :old_quantity, :new_quantity, :delta, :reason,
            :batch_id, :serial_id, :actor, :reference_type, :reference_id, :idempotency_key, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, r.q, query, e); err != nil {
		return mapError(err)
	}
	return nil
}

func (r *LedgerRepository) FindByID(ctx context.Context, id string) (*model.AdjustmentEntry, error) {
	return r.get(ctx, `SELECT * FROM adjustment_log WHERE id = $1`, id)
}

func (r *LedgerRepository) FindByIdempotencyKey(ctx context.Context, key string) (*model.AdjustmentEntry, error) {
	return r.get(ctx, `SELECT * FROM adjustment_log WHERE idempotency_key = $1`, key)
}

func (r *LedgerRepository) get(ctx context.Context, query string, args ...any) (*model.AdjustmentEntry, error) {
	var e model.AdjustmentEntry
	if err := sqlx.GetContext(ctx, r.q, &e, query, args...); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

func (r *LedgerRepository) ListByProduct(ctx context.Context, productID int64, limit, offset int) ([]model.AdjustmentEntry, error) {
	items := []model.AdjustmentEntry{}
	query := `SELECT * FROM adjustment_log WHERE product_id = $1 ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
	}
	err := sqlx.SelectContext(ctx, r.q, &items, query, productID)
	return items, err
}

func (r *LedgerRepository) ListBySerial(ctx context.Context, serialID int64) ([]model.AdjustmentEntry, error) {
	items := []model.AdjustmentEntry{}
	query := `SELECT * FROM adjustment_log WHERE serial_id = $1 ORDER BY created_at, id`
	err := sqlx.SelectContext(ctx, r.q, &items, query, serialID)
	return items, err
}
