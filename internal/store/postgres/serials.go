package postgres

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type SerialRepository struct {
	q sqlx.ExtContext
}

// BulkCreate uses a single multi-row INSERT; ids come back in insertion order.
func (r *SerialRepository) BulkCreate(ctx context.Context, serials []model.Serial) error {
	if len(serials) == 0 {
		return nil
	}
	query := `
        INSERT INTO serials (product_id, batch_id, serial_number, status)
        VALUES (:product_id, :batch_id, :serial_number, :status)
        RETURNING id
    `
	bound, args, err := sqlx.Named(query, serials)
	if err != nil {
		return err
	}
	rows, err := r.q.QueryxContext(ctx, r.q.Rebind(bound), args...)
	if err != nil {
		return mapError(err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if err := rows.Scan(&serials[i].ID); err != nil {
			return err
		}
		i++
	}
	return mapError(rows.Err())
}

func (r *SerialRepository) FindByID(ctx context.Context, id int64) (*model.Serial, error) {
	var s model.Serial
	if err := sqlx.GetContext(ctx, r.q, &s, `SELECT * FROM serials WHERE id = $1`, id); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SerialRepository) FindByIDs(ctx context.Context, ids []int64) ([]model.Serial, error) {
	items := []model.Serial{}
	if len(ids) == 0 {
		return items, nil
	}
	query, args, err := sqlx.In(`SELECT * FROM serials WHERE id IN (?) ORDER BY id`, ids)
	if err != nil {
		return nil, err
	}
	err = sqlx.SelectContext(ctx, r.q, &items, r.q.Rebind(query), args...)
	return items, err
}

func (r *SerialRepository) FindByCompositeKey(ctx context.Context, productID int64, batchUID, serialNumber string) (*model.Serial, error) {
	var s model.Serial
	query := `
        SELECT s.* FROM serials s
        JOIN batches b ON b.id = s.batch_id
        WHERE s.product_id = $1 AND b.batch_uid = $2 AND s.serial_number = $3
    `
	if err := sqlx.GetContext(ctx, r.q, &s, query, productID, batchUID, serialNumber); err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *SerialRepository) FindByExactMatch(ctx context.Context, serialNumber string) ([]model.Serial, error) {
	items := []model.Serial{}
	err := sqlx.SelectContext(ctx, r.q, &items, `SELECT * FROM serials WHERE serial_number = $1 ORDER BY id`, serialNumber)
	return items, err
}

func (r *SerialRepository) ForEachInBatch(ctx context.Context, batchID int64, fn func(model.Serial) error) error {
	rows, err := r.q.QueryxContext(ctx, `SELECT * FROM serials WHERE batch_id = $1 ORDER BY id`, batchID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var s model.Serial
		if err := rows.StructScan(&s); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *SerialRepository) ListAvailableByProduct(ctx context.Context, productID int64) ([]model.Serial, error) {
	items := []model.Serial{}
	query := `
        SELECT s.* FROM serials s
        JOIN batches b ON b.id = s.batch_id
        WHERE s.product_id = $1 AND s.status = $2 AND b.is_active
        ORDER BY s.id
    `
	err := sqlx.SelectContext(ctx, r.q, &items, query, productID, model.SerialAvailable)
	return items, err
}

func (r *SerialRepository) CountByStatus(ctx context.Context, batchID int64) (map[model.SerialStatus]int, error) {
	var rows []struct {
		Status model.SerialStatus `db:"status"`
		Count  int                `db:"count"`
	}
	query := `SELECT status, count(*) AS count FROM serials WHERE batch_id = $1 GROUP BY status`
	if err := sqlx.SelectContext(ctx, r.q, &rows, query, batchID); err != nil {
		return nil, err
	}
	counts := make(map[model.SerialStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *SerialRepository) UpdateStatus(ctx context.Context, id int64, status model.SerialStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE serials SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return apperr.NotFound("serial", id)
	}
	return nil
}
