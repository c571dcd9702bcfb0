package dto

import (
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateBatchInput struct {
	ProductID   int64
	PurchaseID  *int64
	BatchNumber string
	ExpiryDate  *time.Time
	MfgDate     *time.Time
	MRP         decimal.NullDecimal
	MOP         decimal.NullDecimal
	MFW         decimal.NullDecimal
	Quantity    int64
	Location    string
	// Serials may come as a list, as delimited free text, or both.
	SerialNumbers []string
	SerialText    string
	Reason        string
}

type CreateBatchResult struct {
	BatchID  int64          `json:"batch_id"`
	BatchUID string         `json:"batch_uid"`
	Sequence int64          `json:"sequence"`
	Quantity int64          `json:"quantity"`
	Serials  []model.Serial `json:"serials"`
}
