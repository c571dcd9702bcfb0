package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Batch struct {
	BaseModel
	ProductID   int64               `db:"product_id" json:"product_id"`
	PurchaseID  *int64              `db:"purchase_id" json:"purchase_id"`
	BatchUID    *string             `db:"batch_uid" json:"batch_uid"` // Null on rows older than uid allocation
	BatchNumber string              `db:"batch_number" json:"batch_number"`
	Sequence    int64               `db:"sequence" json:"sequence"`
	ExpiryDate  *time.Time          `db:"expiry_date" json:"expiry_date"`
	MfgDate     *time.Time          `db:"mfg_date" json:"mfg_date"`
	MRP         decimal.NullDecimal `db:"mrp" json:"mrp"`
	MOP         decimal.NullDecimal `db:"mop" json:"mop"`
	MFW         decimal.NullDecimal `db:"mfw" json:"mfw"`
	Quantity    int64               `db:"quantity" json:"quantity"`
	Location    string              `db:"location" json:"location"`
	IsActive    bool                `db:"is_active" json:"is_active"`
}

// UID returns the stored batch uid, or "BAT-<id>" for legacy rows without one.
func (b *Batch) UID() string {
	if b.BatchUID != nil && *b.BatchUID != "" {
		return *b.BatchUID
	}
	return LegacyBatchCode(b.ID)
}

// BatchDetails is the batch row with serial counts grouped by status.
type BatchDetails struct {
	Batch        Batch                `json:"batch"`
	SerialCounts map[SerialStatus]int `json:"serial_counts"`
}
