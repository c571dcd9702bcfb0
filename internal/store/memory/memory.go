// Package memory is an in-process store.Manager. Writers are serialized by a mutex and
// work on a private copy of the state that replaces the committed state only when the
// callback succeeds, which gives the same all-or-nothing behavior as the Postgres store.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
)

var errReadOnly = errors.New("memory store: write outside transaction")

type state struct {
	products  map[int64]model.Product
	batches   map[int64]model.Batch
	serials   map[int64]model.Serial
	sequences map[int64]int64
	ledger    []model.AdjustmentEntry

	nextProductID int64
	nextBatchID   int64
	nextSerialID  int64
}

func newState() *state {
	return &state{
		products:  map[int64]model.Product{},
		batches:   map[int64]model.Batch{},
		serials:   map[int64]model.Serial{},
		sequences: map[int64]int64{},
	}
}

func (s *state) clone() *state {
	c := &state{
		products:      make(map[int64]model.Product, len(s.products)),
		batches:       make(map[int64]model.Batch, len(s.batches)),
		serials:       make(map[int64]model.Serial, len(s.serials)),
		sequences:     make(map[int64]int64, len(s.sequences)),
		ledger:        slices.Clone(s.ledger),
		nextProductID: s.nextProductID,
		nextBatchID:   s.nextBatchID,
		nextSerialID:  s.nextSerialID,
	}
	for k, v := range s.products {
		c.products[k] = v
	}
	for k, v := range s.batches {
		c.batches[k] = v
	}
	for k, v := range s.serials {
		c.serials[k] = v
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	return c
}

type Store struct {
	writeMu sync.Mutex
	mu      sync.RWMutex
	cur     *state
	now     func() time.Time
}

var _ store.Manager = (*Store)(nil)

func New() *Store {
	return &Store{cur: newState(), now: time.Now}
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, uow store.UnitOfWork) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	work := s.cur.clone()
	s.mu.RUnlock()

	if err := fn(ctx, &unitOfWork{st: func() *state { return work }, now: s.now}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return apperr.TxFailed("commit", err)
	}

	s.mu.Lock()
	s.cur = work
	s.mu.Unlock()
	return nil
}

func (s *Store) Reader() store.UnitOfWork {
	return &unitOfWork{st: s.snapshot, now: s.now, readOnly: true}
}

func (s *Store) snapshot() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

type unitOfWork struct {
	st       func() *state
	now      func() time.Time
	readOnly bool
}

func (u *unitOfWork) Products() store.ProductRepository { return &productRepo{u} }
func (u *unitOfWork) Batches() store.BatchRepository    { return &batchRepo{u} }
func (u *unitOfWork) Serials() store.SerialRepository   { return &serialRepo{u} }
func (u *unitOfWork) Ledger() store.LedgerRepository    { return &ledgerRepo{u} }

func (u *unitOfWork) writable() (*state, error) {
	if u.readOnly {
		return nil, errReadOnly
	}
	return u.st(), nil
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
