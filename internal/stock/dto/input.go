package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

// SaleLine is one line item of a sale or return document. A serial line always moves
// exactly one unit whatever Quantity says.
type SaleLine struct {
	ProductID int64  `json:"product_id"`
	BatchID   *int64 `json:"batch_id"`
	SerialID  *int64 `json:"serial_id"`
	Quantity  int64  `json:"quantity"`
}

// Units is the number of product units the line moves.
func (l SaleLine) Units() int64 {
	if l.SerialID != nil {
		return 1
	}
	return l.Quantity
}

// Document is a sale or return. A document carrying an IdempotencyKey is recorded
// at most once; a repeat returns the entries of the first recording.
type Document struct {
	ReferenceType  string     `json:"reference_type"`
	ReferenceID    string     `json:"reference_id"`
	Reason         string     `json:"reason"`
	IdempotencyKey string     `json:"idempotency_key"`
	Lines          []SaleLine `json:"lines"`
}

// AdjustInput is a manual adjustment. SerialID is only accepted with a negative
// Delta: a serial can be adjusted out but new serial units arrive through a batch.
type AdjustInput struct {
	ProductID      int64                    `json:"product_id"`
	Delta          int64                    `json:"delta"`
	BatchID        *int64                   `json:"batch_id"`
	SerialID       *int64                   `json:"serial_id"`
	Category       model.AdjustmentCategory `json:"category"`
	Reason         string                   `json:"reason"`
	IdempotencyKey string                   `json:"idempotency_key"`
}

type AdjustResult struct {
	Entry model.AdjustmentEntry `json:"entry"`
	// Replayed is set when the idempotency key matched an earlier adjustment.
	Replayed bool `json:"replayed"`
}
