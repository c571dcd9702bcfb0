package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSentinelsSurviveWrapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"not found", NotFound("batch", int64(7)), ErrNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", NotFound("product", "X1")), ErrNotFound},
		{"transition", &TransitionError{SerialID: 3, From: "sold", To: "adjusted_out"}, ErrInvalidTransition},
		{"invalid", Invalid("delta must not be zero"), ErrInvalidInput},
		{"ambiguous", Ambiguous("x-BAT-", "missing sequence"), ErrParseAmbiguous},
		{"tx failed", TxFailed("commit", errors.New("io")), ErrTransactionFailed},
		{"conflict", Conflict("key %s in progress", "k"), ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.sentinel)
		})
	}
}

func TestNotFoundErrorMessage(t *testing.T) {
	err := NotFound("serial", int64(12))

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, "serial", nf.Entity)
	assert.Equal(t, "serial 12 not found", err.Error())
}

func TestTxFailedKeepsCause(t *testing.T) {
	cause := errors.New("could not serialize access")
	err := TxFailed("commit", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "commit")
}
