package postgres

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/jmoiron/sqlx"
)

type ProductRepository struct {
	q sqlx.ExtContext
}

func (r *ProductRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (code, barcode, name, price, tracking_type, quantity, is_active)
        VALUES (:code, :barcode, :name, :price, :tracking_type, :quantity, :is_active)
        RETURNING id
    `
	id, err := insertReturningID(ctx, r.q, query, p)
	if err != nil {
		return mapError(err)
	}
	p.ID = id
	return nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id int64) (*model.Product, error) {
	var p model.Product
	err := sqlx.GetContext(ctx, r.q, &p, `SELECT * FROM products WHERE id = $1`, id)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var p model.Product
	query := `
        SELECT * FROM products
        WHERE barcode = $1 OR code = $1
        ORDER BY (barcode = $1) DESC NULLS LAST, id
        LIMIT 1
    `
	err := sqlx.GetContext(ctx, r.q, &p, query, code)
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) AddQuantity(ctx context.Context, id, delta int64) (int64, int64, error) {
	var newQty int64
	query := `UPDATE products SET quantity = quantity + $1, updated_at = NOW() WHERE id = $2 RETURNING quantity`
	err := r.q.QueryRowxContext(ctx, query, delta, id).Scan(&newQty)
	if err != nil {
		if notFound(err) {
			return 0, 0, apperr.NotFound("product", id)
		}
		return 0, 0, err
	}
	return newQty - delta, newQty, nil
}
