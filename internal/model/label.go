package model

import (
	"strconv"

	"github.com/shopspring/decimal"
)

type LabelScope string

const (
	ScopeProduct LabelScope = "product"
	ScopeBatch   LabelScope = "batch"
	ScopeSerial  LabelScope = "serial"
)

// Label is one print payload handed to the rendering collaborator.
type Label struct {
	Barcode string          `json:"barcode"`
	Label   string          `json:"label"`
	Price   decimal.Decimal `json:"price"`
	Copies  int             `json:"copies"`
}

// LegacyBatchCode is printed for batches that predate uid allocation.
func LegacyBatchCode(batchID int64) string {
	return "BAT-" + strconv.FormatInt(batchID, 10)
}
