package model

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// TrackingType decides whether batch or serial sub-ledgers apply to a product.
type TrackingType string

const (
	TrackingNone   TrackingType = "none"
	TrackingBatch  TrackingType = "batch"
	TrackingSerial TrackingType = "serial"
)

func (t TrackingType) Valid() bool {
	switch t {
	case TrackingNone, TrackingBatch, TrackingSerial:
		return true
	}
	return false
}

type Product struct {
	BaseModel
	Code         string          `db:"code" json:"code"`
	Barcode      *string         `db:"barcode" json:"barcode"` // Nullable
	Name         string          `db:"name" json:"name"`
	Price        decimal.Decimal `db:"price" json:"price"`
	TrackingType TrackingType    `db:"tracking_type" json:"tracking_type"`
	Quantity     int64           `db:"quantity" json:"quantity"`
	IsActive     bool            `db:"is_active" json:"is_active"`
}

// ScanCode is the code printed on product-scope labels.
func (p *Product) ScanCode() string {
	if p.Barcode != nil && *p.Barcode != "" {
		return *p.Barcode
	}
	return p.Code
}

// StockSummary splits book stock into the part tracked by active batches and the untracked gap.
type StockSummary struct {
	ProductID int64 `json:"product_id"`
	Book      int64 `json:"book_quantity"`
	Tracked   int64 `json:"tracked_quantity"`
	Untracked int64 `json:"untracked_quantity"`
}

func NewStockSummary(productID, book, tracked int64) StockSummary {
	return StockSummary{ProductID: productID, Book: book, Tracked: tracked, Untracked: book - tracked}
}

func (t TrackingType) Value() (driver.Value, error) {
	return string(t), nil
}

func (t *TrackingType) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*t = TrackingType(v)
	case []byte:
		*t = TrackingType(v)
	case nil:
		*t = TrackingNone
	default:
		return fmt.Errorf("tracking type: unsupported type %T", src)
	}
	return nil
}
