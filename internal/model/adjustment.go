package model

import "time"

type AdjustmentCategory string

const (
	CategoryDamage          AdjustmentCategory = "damage"
	CategoryLoss            AdjustmentCategory = "loss"
	CategoryCountCorrection AdjustmentCategory = "count_correction"
	CategoryFound           AdjustmentCategory = "found"
	CategoryOther           AdjustmentCategory = "other"

	// Written by automated flows, not accepted from manual requests.
	CategorySale       AdjustmentCategory = "sale"
	CategoryReturn     AdjustmentCategory = "return"
	CategoryReceipt    AdjustmentCategory = "receipt"
	CategoryAssign     AdjustmentCategory = "assign"
	CategoryReclassify AdjustmentCategory = "reclassify"
)

func (c AdjustmentCategory) Manual() bool {
	switch c {
	case CategoryDamage, CategoryLoss, CategoryCountCorrection, CategoryFound, CategoryOther:
		return true
	}
	return false
}

// AdjustmentEntry is one append-only audit row.
type AdjustmentEntry struct {
	ID             string             `db:"id" json:"id"`
	ProductID      int64              `db:"product_id" json:"product_id"`
	Category       AdjustmentCategory `db:"category" json:"category"`
	OldQuantity    int64              `db:"old_quantity" json:"old_quantity"`
	NewQuantity    int64              `db:"new_quantity" json:"new_quantity"`
	Delta          int64              `db:"delta" json:"delta"`
	Reason         string             `db:"reason" json:"reason"`
	BatchID        *int64             `db:"batch_id" json:"batch_id"`
	SerialID       *int64             `db:"serial_id" json:"serial_id"`
	Actor          string             `db:"actor" json:"actor"`
	ReferenceType  *string            `db:"reference_type" json:"reference_type"`
	ReferenceID    *string            `db:"reference_id" json:"reference_id"`
	IdempotencyKey *string            `db:"idempotency_key" json:"-"`
	CreatedAt      time.Time          `db:"created_at" json:"created_at"`
}
