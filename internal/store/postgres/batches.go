package postgres

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type BatchRepository struct {
	q sqlx.ExtContext
}

// NextSequence bumps the per-product counter row. The first call for a product seeds it
// from the highest existing sequence so rows created before the counter keep their numbers.
func (r *BatchRepository) NextSequence(ctx context.Context, productID int64) (int64, error) {
	query := `
        INSERT INTO batch_sequences (product_id, last_sequence)
        SELECT $1, COALESCE(MAX(sequence), 0) + 1 FROM batches WHERE product_id = $1
        ON CONFLICT (product_id)
        DO UPDATE SET last_sequence = batch_sequences.last_sequence + 1
        RETURNING last_sequence
    `
	var seq int64
	if err := r.q.QueryRowxContext(ctx, query, productID).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *BatchRepository) Create(ctx context.Context, b *model.Batch) error {
	query := `
        INSERT INTO batches (
            product_id, purchase_id, batch_uid, batch_number, sequence,
            expiry_date, mfg_date, mrp, mop, mfw, quantity, location, is_active
        )
        VALUES (
            :product_id, :purchase_id, :batch_uid, :batch_number, :sequence,
            :expiry_date, :mfg_date, :mrp, :mop, :mfw, :quantity, :location, :is_active
        )
        RETURNING id
    `
	id, err := insertReturningID(ctx, r.q, query, b)
	if err != nil {
		return mapError(err)
	}
	b.ID = id
	return nil
}

func (r *BatchRepository) FindByID(ctx context.Context, id int64) (*model.Batch, error) {
	return r.get(ctx, `SELECT * FROM batches WHERE id = $1`, id)
}

func (r *BatchRepository) FindByUID(ctx context.Context, uid string) (*model.Batch, error) {
	return r.get(ctx, `SELECT * FROM batches WHERE batch_uid = $1`, uid)
}

func (r *BatchRepository) get(ctx context.Context, query string, args ...any) (*model.Batch, error) {
	var b model.Batch
	if err := sqlx.GetContext(ctx, r.q, &b, query, args...); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *BatchRepository) ListByProduct(ctx context.Context, productID int64, includeInactive bool) ([]model.Batch, error) {
	query := `SELECT * FROM batches WHERE product_id = $1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY sequence`

	items := []model.Batch{}
	err := sqlx.SelectContext(ctx, r.q, &items, query, productID)
	return items, err
}

func (r *BatchRepository) AddQuantity(ctx context.Context, id, delta int64) (int64, error) {
	var qty int64
	query := `UPDATE batches SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2 RETURNING quantity`
	if err := r.q.QueryRowxContext(ctx, query, delta, id).Scan(&qty); err != nil {
		if notFound(err) {
			return 0, apperr.NotFound("batch", id)
		}
		return 0, err
	}
	return qty, nil
}

func (r *BatchRepository) Deactivate(ctx context.Context, id int64) error {
	res, err := r.q.ExecContext(ctx, `UPDATE batches SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("batch", id)
	}
	return nil
}

func (r *BatchRepository) TrackedQuantity(ctx context.Context, productID int64) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(quantity), 0) FROM batches WHERE product_id = $1 AND is_active`
	err := sqlx.GetContext(ctx, r.q, &total, query, productID)
	return total, err
}
