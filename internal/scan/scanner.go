// Package scan resolves a scanned string to the product, batch or serial it was printed for.
//
// Resolution order is fixed: serial composite, batch uid, product code, legacy serial
// number. A composite or batch code that matches nothing is still tried against the
// product codes and legacy serial numbers, because those are free-form and may contain
// the same markers.
package scan

import (
	"context"
	"errors"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/fekuna/omnipos-stock-service/internal/barcode"
	"github.com/fekuna/omnipos-stock-service/internal/model"
	"github.com/fekuna/omnipos-stock-service/internal/platform/logger"
	"github.com/fekuna/omnipos-stock-service/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("omnipos-stock-service/scan")

type ResolutionType string

const (
	TypeProduct ResolutionType = "product"
	TypeBatch   ResolutionType = "batch"
	TypeSerial  ResolutionType = "serial"
)

type Resolution struct {
	Type    ResolutionType `json:"type"`
	Product *model.Product `json:"product"`
	Batch   *model.Batch   `json:"batch,omitempty"`
	Serial  *model.Serial  `json:"serial,omitempty"`
}

// ProductLookup resolves barcodes and product codes. product.UseCase satisfies it.
type ProductLookup interface {
	ResolveCode(ctx context.Context, code string) (*model.Product, error)
}

type Scanner struct {
	reader   store.UnitOfWork
	products ProductLookup
	parse    barcode.Parser
	logger   logger.ZapLogger
}

// NewScanner builds a scanner. parse defaults to barcode.Parse.
func NewScanner(reader store.UnitOfWork, products ProductLookup, parse barcode.Parser, log logger.ZapLogger) *Scanner {
	if parse == nil {
		parse = barcode.Parse
	}
	return &Scanner{
		reader:   reader,
		products: products,
		parse:    parse,
		logger:   log,
	}
}

func (s *Scanner) Scan(ctx context.Context, raw string) (*Resolution, error) {
	ctx, span := tracer.Start(ctx, "Scan")
	defer span.End()

	code, parseErr := s.parse(raw)
	if code.Raw == "" {
		return nil, apperr.Invalid("empty code")
	}
	span.SetAttributes(attribute.String("scan.kind", code.Kind.String()))

	var (
		res *Resolution
		err error
	)
	switch {
	case parseErr != nil:
		s.logger.Debug("scan code is ambiguous, trying exact matches", zap.String("code", code.Raw), zap.Error(parseErr))
	case code.Kind == barcode.KindSerial:
		res, err = s.bySerialComposite(ctx, code)
	case code.Kind == barcode.KindBatch:
		res, err = s.byBatch(ctx, code)
	}
	if err != nil || res != nil {
		return res, err
	}

	if res, err = s.byProductCode(ctx, code.Raw); err != nil || res != nil {
		return res, err
	}
	if res, err = s.byLegacySerial(ctx, code.Raw); err != nil || res != nil {
		return res, err
	}

	if parseErr != nil {
		return nil, parseErr
	}
	return nil, apperr.NotFound("code", code.Raw)
}

func (s *Scanner) bySerialComposite(ctx context.Context, code barcode.Code) (*Resolution, error) {
	sr, err := s.reader.Serials().FindByCompositeKey(ctx, code.ProductID, code.BatchUID, code.SerialNumber)
	if err != nil || sr == nil {
		return nil, err
	}
	return s.serialResolution(ctx, sr)
}

func (s *Scanner) byBatch(ctx context.Context, code barcode.Code) (*Resolution, error) {
	b, err := s.reader.Batches().FindByUID(ctx, code.BatchUID)
	if err != nil {
		return nil, err
	}
	if b == nil && code.LegacyBatchID > 0 {
		b, err = s.reader.Batches().FindByID(ctx, code.LegacyBatchID)
		if err != nil {
			return nil, err
		}
		// Only batches that were printed with the fallback code answer to it.
		if b != nil && b.UID() != code.Raw {
			b = nil
		}
	}
	if b == nil {
		return nil, nil
	}
	p, err := s.product(ctx, b.ProductID)
	if err != nil {
		return nil, err
	}
	return &Resolution{Type: TypeBatch, Product: p, Batch: b}, nil
}

func (s *Scanner) byProductCode(ctx context.Context, code string) (*Resolution, error) {
	p, err := s.products.ResolveCode(ctx, code)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &Resolution{Type: TypeProduct, Product: p}, nil
}

func (s *Scanner) byLegacySerial(ctx context.Context, code string) (*Resolution, error) {
	matches, err := s.reader.Serials().FindByExactMatch(ctx, code)
	if err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return s.serialResolution(ctx, &matches[0])
	default:
		return nil, apperr.Ambiguous(code, "serial number exists in several batches")
	}
}

func (s *Scanner) serialResolution(ctx context.Context, sr *model.Serial) (*Resolution, error) {
	b, err := s.reader.Batches().FindByID(ctx, sr.BatchID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, apperr.NotFound("batch", sr.BatchID)
	}
	p, err := s.product(ctx, sr.ProductID)
	if err != nil {
		return nil, err
	}
	return &Resolution{Type: TypeSerial, Product: p, Batch: b, Serial: sr}, nil
}

func (s *Scanner) product(ctx context.Context, id int64) (*model.Product, error) {
	p, err := s.reader.Products().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product", id)
	}
	return p, nil
}
