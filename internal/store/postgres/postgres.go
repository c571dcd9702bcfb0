package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
)

//go:embed schema.sql
var schema string

const (
	codeUniqueViolation      = "23505"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
)

type Manager struct {
	DB *sqlx.DB
}

var _ store.Manager = (*Manager)(nil)

func NewManager(db *sqlx.DB) *Manager {
	return &Manager{DB: db}
}

// Migrate applies the idempotent schema.
func (m *Manager) Migrate(ctx context.Context) error {
	if _, err := m.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (m *Manager) WithinTx(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	tx, err := m.DB.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return apperr.TxFailed("begin", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, &unitOfWork{q: tx}); err != nil {
		return mapError(err)
	}

	if err := tx.Commit(); err != nil {
		return apperr.TxFailed("commit", err)
	}
	return nil
}

func (m *Manager) Reader() store.UnitOfWork {
	return &unitOfWork{q: m.DB}
}

type unitOfWork struct {
	q sqlx.ExtContext
}

func (u *unitOfWork) Products() store.ProductRepository { return &ProductRepository{q: u.q} }
func (u *unitOfWork) Batches() store.BatchRepository    { return &BatchRepository{q: u.q} }
func (u *unitOfWork) Serials() store.SerialRepository   { return &SerialRepository{q: u.q} }
func (u *unitOfWork) Ledger() store.LedgerRepository    { return &LedgerRepository{q: u.q} }

// mapError turns driver errors into the shared taxonomy. Domain errors pass through.
func mapError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case codeUniqueViolation:
		return apperr.Conflict("%s (%s)", pgErr.Detail, pgErr.ConstraintName)
	case codeSerializationFailure, codeDeadlockDetected:
		return apperr.TxFailed("serialize", err)
	default:
		return apperr.TxFailed("statement", err)
	}
}

func notFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// insertReturningID executes a named INSERT ... RETURNING id.
func insertReturningID(ctx context.Context, q sqlx.ExtContext, query string, arg any) (int64, error) {
	bound, args, err := sqlx.Named(query, arg)
	if err != nil {
		return 0, err
	}
	var id int64
	if err := q.QueryRowxContext(ctx, q.Rebind(bound), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
