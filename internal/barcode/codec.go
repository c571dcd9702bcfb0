// Package barcode encodes and parses the three scannable code shapes:
//
//	product:        the product barcode or code, verbatim
//	batch:          BAT-<product_id>-<sequence>
//	serial:         <product_id>-BAT-<product_id>-<sequence>-<serial_number>
//
// The package is pure; resolving a parsed code against stored rows is done by the scanner.
package barcode

import (
	"strconv"
	"strings"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
)

const (
	BatchPrefix    = "BAT-"
	compositeInfix = "-" + BatchPrefix
)

type Kind int

const (
	// KindPlain is anything that is neither a batch uid nor a serial composite.
	// It is matched against product codes first and legacy serial numbers second.
	KindPlain Kind = iota
	KindBatch
	KindSerial
)

func (k Kind) String() string {
	switch k {
	case KindBatch:
		return "batch"
	case KindSerial:
		return "serial"
	default:
		return "plain"
	}
}

// Code is the structured form of a scanned string.
type Code struct {
	Kind         Kind
	Raw          string
	ProductID    int64
	BatchUID     string
	SerialNumber string
	// LegacyBatchID is set for "BAT-<id>" codes printed for batches without a uid.
	LegacyBatchID int64
}

// Parser turns a raw scan into a Code.
type Parser func(code string) (Code, error)

func EncodeBatchUID(productID, sequence int64) string {
	return BatchPrefix + strconv.FormatInt(productID, 10) + "-" + strconv.FormatInt(sequence, 10)
}

func EncodeSerialCode(productID int64, batchUID, serialNumber string) string {
	return strconv.FormatInt(productID, 10) + "-" + batchUID + "-" + serialNumber
}

// Parse decodes a code using the numeric layout of the batch uid, so serial numbers
// may contain hyphens. Codes built from hyphen-free serials decode exactly as ParseLegacy does.
func Parse(code string) (Code, error) {
	return parse(code, splitStructured)
}

// ParseLegacy separates batch uid and serial number at the last hyphen.
// Serial numbers containing a hyphen do not round-trip through it.
func ParseLegacy(code string) (Code, error) {
	return parse(code, splitLastHyphen)
}

func parse(raw string, split func(rest string) (batchUID, serial string, ok bool)) (Code, error) {
	code := strings.TrimSpace(raw)
	c := Code{Kind: KindPlain, Raw: code}

	if idx := strings.Index(code, compositeInfix); idx >= 0 {
		c.Kind = KindSerial
		pid, err := parseID(code[:idx])
		if err != nil {
			return c, apperr.Ambiguous(code, "product id is not numeric")
		}
		batchUID, serial, ok := split(code[idx+len(compositeInfix):])
		if !ok {
			return c, apperr.Ambiguous(code, "cannot separate batch uid from serial number")
		}
		c.ProductID = pid
		c.BatchUID = batchUID
		c.SerialNumber = serial
		return c, nil
	}

	if strings.HasPrefix(code, BatchPrefix) {
		c.Kind = KindBatch
		c.BatchUID = code
		rest := code[len(BatchPrefix):]
		if pidPart, seqPart, found := strings.Cut(rest, "-"); found {
			if pid, err := parseID(pidPart); err == nil {
				if _, err := parseID(seqPart); err == nil {
					c.ProductID = pid
				}
			}
		} else if id, err := parseID(rest); err == nil {
			c.LegacyBatchID = id
		}
		return c, nil
	}

	return c, nil
}

func splitStructured(rest string) (string, string, bool) {
	parts := strings.SplitN(rest, "-", 3)
	if len(parts) != 3 || parts[2] == "" {
		return "", "", false
	}
	pid, err := parseID(parts[0])
	if err != nil {
		return "", "", false
	}
	seq, err := parseID(parts[1])
	if err != nil {
		return "", "", false
	}
	return EncodeBatchUID(pid, seq), parts[2], true
}

func splitLastHyphen(rest string) (string, string, bool) {
	last := strings.LastIndex(rest, "-")
	if last <= 0 || last == len(rest)-1 {
		return "", "", false
	}
	return BatchPrefix + rest[:last], rest[last+1:], true
}

func parseID(s string) (int64, error) {
	if s == "" || s[0] == '+' || s[0] == '-' {
		return 0, strconv.ErrSyntax
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
