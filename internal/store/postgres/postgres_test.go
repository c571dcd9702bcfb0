package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	plain := errors.New("plain")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"unique violation", &pgconn.PgError{Code: codeUniqueViolation, ConstraintName: "batches_batch_uid_key"}, apperr.ErrConflict},
		{"wrapped unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: codeUniqueViolation}), apperr.ErrConflict},
		{"serialization failure", &pgconn.PgError{Code: codeSerializationFailure}, apperr.ErrTransactionFailed},
		{"deadlock", &pgconn.PgError{Code: codeDeadlockDetected}, apperr.ErrTransactionFailed},
		{"other driver error", &pgconn.PgError{Code: "22003"}, apperr.ErrTransactionFailed},
		{"domain error", apperr.NotFound("batch", int64(1)), apperr.ErrNotFound},
		{"plain error", plain, plain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.in), tt.want)
		})
	}
}

func TestMapErrorNil(t *testing.T) {
	assert.NoError(t, mapError(nil))
}

func TestSchemaIsEmbedded(t *testing.T) {
	assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS batch_sequences")
	assert.Contains(t, schema, "idempotency_key TEXT UNIQUE")
}
