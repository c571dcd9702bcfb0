package dto

import (
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Code            string
	Barcode         string
	Name            string
	Price           decimal.Decimal
	TrackingType    model.TrackingType
	InitialQuantity int64
}
