// Package label builds print payloads for product, batch and serial labels. Rendering
// them is left to the printing collaborator.
package label

import (
	"context"
	"errors"
	"iter"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/barcode"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"github.com/shopspring/decimal"
)

type Request struct {
	Scope     model.LabelScope `json:"scope"`
	ProductID int64            `json:"product_id"`
	BatchID   *int64           `json:"batch_id"`
	SerialIDs []int64          `json:"serial_ids"`
	// AllSerials prints every serial of BatchID and ignores SerialIDs.
	AllSerials bool `json:"all_serials"`
	Copies     int  `json:"copies"`
}

type Builder struct {
	reader store.UnitOfWork
}

func NewBuilder(reader store.UnitOfWork) *Builder {
	return &Builder{reader: reader}
}

var errStop = errors.New("stop")

// Build checks the request and resolves its product and batch up front, so a missing
// product or batch fails before anything is yielded. Serial labels are read lazily.
func (b *Builder) Build(ctx context.Context, req Request) (iter.Seq2[model.Label, error], error) {
	copies := req.Copies
	if copies < 1 {
		copies = 1
	}

	p, err := b.reader.Products().FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", req.ProductID)
	}

	var batch *model.Batch
	if req.BatchID != nil {
		batch, err = b.reader.Batches().FindByID(ctx, *req.BatchID)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			return nil, apperr.NotFound("batch", *req.BatchID)
		}
		if batch.ProductID != p.ID {
			return nil, apperr.Invalid("batch %d does not belong to product %d", batch.ID, p.ID)
		}
	}

	switch req.Scope {
	case model.ScopeProduct:
		return single(model.Label{Barcode: p.ScanCode(), Label: p.Name, Price: p.Price, Copies: copies}), nil

	case model.ScopeBatch:
		if batch == nil {
			return nil, apperr.Invalid("batch labels need a batch id")
		}
		return single(model.Label{Barcode: batch.UID(), Label: batchLabel(p, batch), Price: price(p, batch), Copies: copies}), nil

	case model.ScopeSerial:
		if req.AllSerials {
			if batch == nil {
				return nil, apperr.Invalid("printing all serials needs a batch id")
			}
			return b.allInBatch(ctx, p, batch, copies), nil
		}
		if len(req.SerialIDs) == 0 {
			return nil, apperr.Invalid("serial labels need serial ids or all serials")
		}
		return b.byIDs(ctx, p, batch, req.SerialIDs, copies), nil
	}

	return nil, apperr.Invalid("unknown label scope %q", req.Scope)
}

func (b *Builder) allInBatch(ctx context.Context, p *model.Product, batch *model.Batch, copies int) iter.Seq2[model.Label, error] {
	return func(yield func(model.Label, error) bool) {
		err := b.reader.Serials().ForEachInBatch(ctx, batch.ID, func(s model.Serial) error {
			if !yield(serialLabel(p, batch, s, copies), nil) {
				return errStop
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStop) {
			yield(model.Label{}, err)
		}
	}
}

// byIDs skips ids that do not resolve to a serial of p.
func (b *Builder) byIDs(ctx context.Context, p *model.Product, batch *model.Batch, ids []int64, copies int) iter.Seq2[model.Label, error] {
	return func(yield func(model.Label, error) bool) {
		serials, err := b.reader.Serials().FindByIDs(ctx, ids)
		if err != nil {
			yield(model.Label{}, err)
			return
		}
		batches := map[int64]*model.Batch{}
		if batch != nil {
			batches[batch.ID] = batch
		}
		for _, s := range serials {
			if s.ProductID != p.ID || (batch != nil && s.BatchID != batch.ID) {
				continue
			}
			owner, ok := batches[s.BatchID]
			if !ok {
				owner, err = b.reader.Batches().FindByID(ctx, s.BatchID)
				if err != nil {
					yield(model.Label{}, err)
					return
				}
				if owner == nil {
					continue
				}
				batches[s.BatchID] = owner
			}
			if !yield(serialLabel(p, owner, s, copies), nil) {
				return
			}
		}
	}
}

func single(l model.Label) iter.Seq2[model.Label, error] {
	return func(yield func(model.Label, error) bool) {
		yield(l, nil)
	}
}

func serialLabel(p *model.Product, batch *model.Batch, s model.Serial, copies int) model.Label {
	return model.Label{
		Barcode: barcode.EncodeSerialCode(p.ID, batch.UID(), s.SerialNumber),
		Label:   p.Name + " SN " + s.SerialNumber,
		Price:   price(p, batch),
		Copies:  copies,
	}
}

func batchLabel(p *model.Product, batch *model.Batch) string {
	if batch.BatchNumber != "" {
		return p.Name + " " + batch.BatchNumber
	}
	return p.Name + " " + batch.UID()
}

// price prefers the batch MRP over the catalog price.
func price(p *model.Product, batch *model.Batch) decimal.Decimal {
	if batch != nil && batch.MRP.Valid {
		return batch.MRP.Decimal
	}
	return p.Price
}
