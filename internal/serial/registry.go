// Package serial persists serial units and enforces their status machine:
//
//	available -> sold | defective | in_repair | adjusted_out
//	sold      -> available
//	in_repair -> available
//
// adjusted_out is terminal. returned and defective have no outgoing edges.
package serial

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/store"
)

// Transition loads a serial and moves it to the next status inside uow.
func Transition(ctx context.Context, uow store.UnitOfWork, serialID int64, next model.SerialStatus) (*model.Serial, error) {
	s, err := uow.Serials().FindByID(ctx, serialID)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, apperr.NotFound("serial", serialID)
	}
	if !s.Status.CanTransition(next) {
		return nil, &apperr.TransitionError{SerialID: s.ID, From: s.Status.String(), To: next.String()}
	}
	if err := uow.Serials().UpdateStatus(ctx, s.ID, next); err != nil {
		return nil, err
	}
	s.Status = next
	return s, nil
}

// Register bulk-inserts numbers as available serials of batch.
func Register(ctx context.Context, uow store.UnitOfWork, batch *model.Batch, numbers []string) ([]model.Serial, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	serials := make([]model.Serial, len(numbers))
	for i, n := range numbers {
		serials[i] = model.Serial{
			ProductID:    batch.ProductID,
			BatchID:      batch.ID,
			SerialNumber: n,
			Status:       model.SerialAvailable,
		}
	}
	if err := uow.Serials().BulkCreate(ctx, serials); err != nil {
		return nil, err
	}
	return serials, nil
}

func isSeparator(r rune) bool {
	switch r {
	case '\n', '\r', ',', ';', '\t':
		return true
	}
	return false
}

// Normalize merges a list and a delimited free-text block into trimmed, non-empty
// serial numbers, keeping first-seen order. Duplicates are rejected because serial
// numbers are unique within a batch.
func Normalize(list []string, text string) ([]string, error) {
	raw := append([]string{}, list...)
	if text != "" {
		raw = append(raw, strings.FieldsFunc(text, isSeparator)...)
	}

	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, n := range raw {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			return nil, apperr.Invalid("duplicate serial number %q", n)
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out, nil
}
