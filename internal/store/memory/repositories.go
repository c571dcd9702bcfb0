package memory

import (
	"context"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
)

type productRepo struct{ u *unitOfWork }

func (r *productRepo) Create(_ context.Context, p *model.Product) error {
	st, err := r.u.writable()
	if err != nil {
		return err
	}
	for _, existing := range st.products {
		if existing.Code == p.Code {
			return apperr.Conflict("product code %q already exists", p.Code)
		}
		if p.Barcode != nil && existing.Barcode != nil && *existing.Barcode == *p.Barcode {
			return apperr.Conflict("barcode %q already exists", *p.Barcode)
		}
	}
	st.nextProductID++
	now := r.u.now()
	p.ID = st.nextProductID
	p.CreatedAt, p.UpdatedAt = now, now
	st.products[p.ID] = *p
	return nil
}

func (r *productRepo) FindByID(_ context.Context, id int64) (*model.Product, error) {
	p, ok := r.u.st().products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *productRepo) FindByCode(_ context.Context, code string) (*model.Product, error) {
	st := r.u.st()
	for _, id := range sortedKeys(st.products) {
		p := st.products[id]
		if p.Barcode != nil && *p.Barcode == code {
			return &p, nil
		}
	}
	for _, id := range sortedKeys(st.products) {
		p := st.products[id]
		if p.Code == code {
			return &p, nil
		}
	}
	return nil, nil
}

func (r *productRepo) AddQuantity(_ context.Context, id, delta int64) (int64, int64, error) {
	st, err := r.u.writable()
	if err != nil {
		return 0, 0, err
	}
	p, ok := st.products[id]
	if !ok {
		return 0, 0, apperr.NotFound("product", id)
	}
	old := p.Quantity
	p.Quantity += delta
	p.UpdatedAt = r.u.now()
	st.products[id] = p
	return old, p.Quantity, nil
}

type batchRepo struct{ u *unitOfWork }

func (r *batchRepo) NextSequence(_ context.Context, productID int64) (int64, error) {
	st, err := r.u.writable()
	if err != nil {
		return 0, err
	}
	if _, ok := st.sequences[productID]; !ok {
		// Seed from rows created before the counter existed.
		var last int64
		for _, b := range st.batches {
			if b.ProductID == productID && b.Sequence > last {
				last = b.Sequence
			}
		}
		st.sequences[productID] = last
	}
	st.sequences[productID]++
	return st.sequences[productID], nil
}

func (r *batchRepo) Create(_ context.Context, b *model.Batch) error {
	st, err := r.u.writable()
	if err != nil {
		return err
	}
	if b.BatchUID != nil {
		for _, existing := range st.batches {
			if existing.BatchUID != nil && *existing.BatchUID == *b.BatchUID {
				return apperr.Conflict("batch uid %q already exists", *b.BatchUID)
			}
		}
	}
	st.nextBatchID++
	now := r.u.now()
	b.ID = st.nextBatchID
	b.CreatedAt, b.UpdatedAt = now, now
	st.batches[b.ID] = *b
	return nil
}

func (r *batchRepo) FindByID(_ context.Context, id int64) (*model.Batch, error) {
	b, ok := r.u.st().batches[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *batchRepo) FindByUID(_ context.Context, uid string) (*model.Batch, error) {
	for _, b := range r.u.st().batches {
		if b.BatchUID != nil && *b.BatchUID == uid {
			return &b, nil
		}
	}
	return nil, nil
}

func (r *batchRepo) ListByProduct(_ context.Context, productID int64, includeInactive bool) ([]model.Batch, error) {
	st := r.u.st()
	out := []model.Batch{}
	for _, id := range sortedKeys(st.batches) {
		b := st.batches[id]
		if b.ProductID != productID || (!b.IsActive && !includeInactive) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

func (r *batchRepo) AddQuantity(_ context.Context, id, delta int64) (int64, error) {
	st, err := r.u.writable()
	if err != nil {
		return 0, err
	}
	b, ok := st.batches[id]
	if !ok {
		return 0, apperr.NotFound("batch", id)
	}
	b.Quantity += delta
	b.UpdatedAt = r.u.now()
	st.batches[id] = b
	return b.Quantity, nil
}

func (r *batchRepo) Deactivate(_ context.Context, id int64) error {
	st, err := r.u.writable()
	if err != nil {
		return err
	}
	b, ok := st.batches[id]
	if !ok {
		return apperr.NotFound("batch", id)
	}
	b.IsActive = false
	b.UpdatedAt = r.u.now()
	st.batches[id] = b
	return nil
}

func (r *batchRepo) TrackedQuantity(_ context.Context, productID int64) (int64, error) {
	var total int64
	for _, b := range r.u.st().batches {
		if b.ProductID == productID && b.IsActive {
			total += b.Quantity
		}
	}
	return total, nil
}

type serialRepo struct{ u *unitOfWork }

func (r *serialRepo) BulkCreate(_ context.Context, serials []model.Serial) error {
	st, err := r.u.writable()
	if err != nil {
		return err
	}
	for i := range serials {
		for _, existing := range st.serials {
			if existing.BatchID == serials[i].BatchID && existing.SerialNumber == serials[i].SerialNumber {
				return apperr.Conflict("serial %q already exists in batch %d", serials[i].SerialNumber, serials[i].BatchID)
			}
		}
		st.nextSerialID++
		now := r.u.now()
		serials[i].ID = st.nextSerialID
		serials[i].CreatedAt, serials[i].UpdatedAt = now, now
		st.serials[serials[i].ID] = serials[i]
	}
	return nil
}

func (r *serialRepo) FindByID(_ context.Context, id int64) (*model.Serial, error) {
	s, ok := r.u.st().serials[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *serialRepo) FindByIDs(_ context.Context, ids []int64) ([]model.Serial, error) {
	st := r.u.st()
	out := []model.Serial{}
	for _, id := range ids {
		if s, ok := st.serials[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *serialRepo) FindByCompositeKey(_ context.Context, productID int64, batchUID, serialNumber string) (*model.Serial, error) {
	st := r.u.st()
	for _, id := range sortedKeys(st.serials) {
		s := st.serials[id]
		if s.ProductID != productID || s.SerialNumber != serialNumber {
			continue
		}
		b, ok := st.batches[s.BatchID]
		if ok && b.BatchUID != nil && *b.BatchUID == batchUID {
			return &s, nil
		}
	}
	return nil, nil
}

func (r *serialRepo) FindByExactMatch(_ context.Context, serialNumber string) ([]model.Serial, error) {
	st := r.u.st()
	out := []model.Serial{}
	for _, id := range sortedKeys(st.serials) {
		if s := st.serials[id]; s.SerialNumber == serialNumber {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *serialRepo) ForEachInBatch(ctx context.Context, batchID int64, fn func(model.Serial) error) error {
	st := r.u.st()
	for _, id := range sortedKeys(st.serials) {
		s := st.serials[id]
		if s.BatchID != batchID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(s); err != nil {
			return err
		}
	}
	return nil
}

func (r *serialRepo) ListAvailableByProduct(_ context.Context, productID int64) ([]model.Serial, error) {
	st := r.u.st()
	out := []model.Serial{}
	for _, id := range sortedKeys(st.serials) {
		s := st.serials[id]
		if s.ProductID != productID || s.Status != model.SerialAvailable {
			continue
		}
		if b, ok := st.batches[s.BatchID]; ok && b.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *serialRepo) CountByStatus(_ context.Context, batchID int64) (map[model.SerialStatus]int, error) {
	counts := map[model.SerialStatus]int{}
	for _, s := range r.u.st().serials {
		if s.BatchID == batchID {
			counts[s.Status]++
		}
	}
	return counts, nil
}

func (r *serialRepo) UpdateStatus(_ context.Context, id int64, status model.SerialStatus) error {
	st, err := r.u.writable()
	if err != nil {
		return err
	}
	s, ok := st.serials[id]
	if !ok {
		return apperr.NotFound("serial", id)
	}
	s.Status = status
	s.UpdatedAt = r.u.now()
	st.serials[id] = s
	return nil
}

type ledgerRepo struct{ u *unitOfWork }

func (r *ledgerRepo) Append(_ context.Context, e *model.AdjustmentEntry) error {
	st, err := r.u.writable()
	if err != nil {
		return err
	}
	for _, existing := range st.ledger {
		if existing.ID == e.ID {
			return apperr.Conflict("ledger entry %s already exists", e.ID)
		}
		if e.IdempotencyKey != nil && existing.IdempotencyKey != nil && *existing.IdempotencyKey == *e.IdempotencyKey {
			return apperr.Conflict("idempotency key %q already used", *e.IdempotencyKey)
		}
	}
	st.ledger = append(st.ledger, *e)
	return nil
}

func (r *ledgerRepo) FindByID(_ context.Context, id string) (*model.AdjustmentEntry, error) {
	for _, e := range r.u.st().ledger {
		if e.ID == id {
			return &e, nil
		}
	}
	return nil, nil
}

func (r *ledgerRepo) FindByIdempotencyKey(_ context.Context, key string) (*model.AdjustmentEntry, error) {
	for _, e := range r.u.st().ledger {
		if e.IdempotencyKey != nil && *e.IdempotencyKey == key {
			return &e, nil
		}
	}
	return nil, nil
}

// ListByProduct returns newest first.
func (r *ledgerRepo) ListByProduct(_ context.Context, productID int64, limit, offset int) ([]model.AdjustmentEntry, error) {
	ledger := r.u.st().ledger
	out := []model.AdjustmentEntry{}
	skipped := 0
	for i := len(ledger) - 1; i >= 0; i-- {
		e := ledger[i]
		if e.ProductID != productID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, e)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ListBySerial returns oldest first.
func (r *ledgerRepo) ListBySerial(_ context.Context, serialID int64) ([]model.AdjustmentEntry, error) {
	out := []model.AdjustmentEntry{}
	for _, e := range r.u.st().ledger {
		if e.SerialID != nil && *e.SerialID == serialID {
			out = append(out, e)
		}
	}
	return out, nil
}
