// Package batch allocates batches. A batch uid is derived from the product id and a
// per-product sequence that is allocated inside the creating transaction and never reused.
package batch

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/barcode"
	"github.com/fekuna/omnipos-stock-service/internal/batch/dto"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/store"
)

// Create validates input, allocates the next sequence and inserts the batch with its serials.
func Create(ctx context.Context, uow store.UnitOfWork, input *dto.CreateBatchInput) (*model.Product, *dto.CreateBatchResult, error) {
	p, err := uow.Products().FindByID(ctx, input.ProductID)
	if err != nil {
		return nil, nil, err
	}
	if p == nil {
		return nil, nil, apperr.NotFound("product", input.ProductID)
	}
	if p.TrackingType == model.TrackingNone {
		return nil, nil, apperr.Invalid("product %d does not track batches", p.ID)
	}

	numbers, err := serial.Normalize(input.SerialNumbers, input.SerialText)
	if err != nil {
		return nil, nil, err
	}
	qty := input.Quantity
	if qty < 0 {
		return nil, nil, apperr.Invalid("batch quantity must not be negative")
	}
	if len(numbers) > 0 {
		if p.TrackingType != model.TrackingSerial {
			return nil, nil, apperr.Invalid("product %d is not serial tracked", p.ID)
		}
		if qty == 0 {
			qty = int64(len(numbers))
		} else if qty != int64(len(numbers)) {
			return nil, nil, apperr.Invalid("quantity %d does not match %d serial numbers", qty, len(numbers))
		}
	}

	seq, err := uow.Batches().NextSequence(ctx, p.ID)
	if err != nil {
		return nil, nil, err
	}
	uid := barcode.EncodeBatchUID(p.ID, seq)

	b := &model.Batch{
		ProductID:   p.ID,
		PurchaseID:  input.PurchaseID,
		BatchUID:    &uid,
		BatchNumber: strings.TrimSpace(input.BatchNumber),
		Sequence:    seq,
		ExpiryDate:  input.ExpiryDate,
		MfgDate:     input.MfgDate,
		MRP:         input.MRP,
		MOP:         input.MOP,
		MFW:         input.MFW,
		Quantity:    qty,
		Location:    strings.TrimSpace(input.Location),
		IsActive:    true,
	}
	if err := uow.Batches().Create(ctx, b); err != nil {
		return nil, nil, err
	}

	serials, err := serial.Register(ctx, uow, b, numbers)
	if err != nil {
		return nil, nil, err
	}

	return p, &dto.CreateBatchResult{
		BatchID:  b.ID,
		BatchUID: uid,
		Sequence: seq,
		Quantity: qty,
		Serials:  serials,
	}, nil
}
