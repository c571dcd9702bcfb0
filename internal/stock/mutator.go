// Package stock moves quantities between the product, batch and serial levels.
//
// The primitives here only touch sub-ledgers (batch quantity, serial status). Callers
// adjust Product.quantity themselves so that document flows can write one ledger
// entry per line.
package stock

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/serial"
	"github.com/fekuna/omnipos-stock-service/internal/stock/dto"
	"github.com/fekuna/omnipos-stock-service/internal/store"
)

// DeductForSaleItem marks a serial sold and takes one unit off its batch, or takes
// line.Quantity off the line's batch. Lines without either only hit book stock.
func DeductForSaleItem(ctx context.Context, uow store.UnitOfWork, line dto.SaleLine) error {
	return moveSubLedger(ctx, uow, line, model.SerialSold, -1)
}

// RestoreForReturnItem is the exact inverse of DeductForSaleItem.
func RestoreForReturnItem(ctx context.Context, uow store.UnitOfWork, line dto.SaleLine) error {
	return moveSubLedger(ctx, uow, line, model.SerialAvailable, 1)
}

func moveSubLedger(ctx context.Context, uow store.UnitOfWork, line dto.SaleLine, status model.SerialStatus, sign int64) error {
	if line.SerialID != nil {
		s, err := serial.Transition(ctx, uow, *line.SerialID, status)
		if err != nil {
			return err
		}
		_, err = uow.Batches().AddQuantity(ctx, s.BatchID, sign)
		return err
	}
	if line.BatchID != nil {
		if line.Quantity < 0 {
			return apperr.Invalid("line quantity must not be negative")
		}
		_, err := uow.Batches().AddQuantity(ctx, *line.BatchID, sign*line.Quantity)
		return err
	}
	return nil
}
