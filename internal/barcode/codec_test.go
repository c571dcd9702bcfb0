package barcode

import (
	"fmt"
	"testing"

	"github.com/fekuna/omnipos-stock-service/internal/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	assert.Equal(t, "BAT-5-1", EncodeBatchUID(5, 1))
	assert.Equal(t, "5-BAT-5-1-SN001", EncodeSerialCode(5, "BAT-5-1", "SN001"))
}

func TestBatchUIDRoundTrip(t *testing.T) {
	for pid := int64(1); pid <= 30; pid += 7 {
		for seq := int64(1); seq <= 200; seq += 13 {
			uid := EncodeBatchUID(pid, seq)
			for _, parse := range []Parser{Parse, ParseLegacy} {
				c, err := parse(uid)
				require.NoError(t, err)
				assert.Equal(t, KindBatch, c.Kind)
				assert.Equal(t, uid, c.BatchUID)
				assert.Equal(t, pid, c.ProductID)
			}
		}
	}
}

func TestSerialCodeRoundTrip(t *testing.T) {
	serials := []string{"SN001", "A", "0000123", "abc.def", "X_1"}
	for pid := int64(1); pid <= 100; pid += 33 {
		for seq := int64(1); seq <= 50; seq += 17 {
			uid := EncodeBatchUID(pid, seq)
			for _, sn := range serials {
				code := EncodeSerialCode(pid, uid, sn)
				for _, parse := range []Parser{Parse, ParseLegacy} {
					c, err := parse(code)
					require.NoError(t, err, code)
					assert.Equal(t, KindSerial, c.Kind)
					assert.Equal(t, pid, c.ProductID)
					assert.Equal(t, uid, c.BatchUID)
					assert.Equal(t, sn, c.SerialNumber)
				}
			}
		}
	}
}

func TestHyphenatedSerial(t *testing.T) {
	code := EncodeSerialCode(5, "BAT-5-1", "SN-001")

	c, err := Parse(code)
	require.NoError(t, err)
	assert.Equal(t, "BAT-5-1", c.BatchUID)
	assert.Equal(t, "SN-001", c.SerialNumber)

	// The last-hyphen split misattributes the serial prefix to the batch uid.
	legacy, err := ParseLegacy(code)
	require.NoError(t, err)
	assert.Equal(t, "BAT-5-1-SN", legacy.BatchUID)
	assert.Equal(t, "001", legacy.SerialNumber)
}

func TestParseShapes(t *testing.T) {
	tests := []struct {
		code   string
		kind   Kind
		legacy int64
	}{
		{"5-BAT-5-1-SN001", KindSerial, 0},
		{"BAT-5-1", KindBatch, 0},
		{"BAT-42", KindBatch, 42},
		{"8991234567890", KindPlain, 0},
		{"SN001", KindPlain, 0},
		{"  BAT-5-2  ", KindBatch, 0},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			c, err := Parse(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, c.Kind)
			assert.Equal(t, tt.legacy, c.LegacyBatchID)
		})
	}
}

func TestParseAmbiguous(t *testing.T) {
	codes := []string{
		"X-BAT-5-1-SN001",
		"5-BAT-5-1",
		"5-BAT-5-1-",
		"5-BAT-X-1-SN",
		"-BAT-5-1-SN",
		"0-BAT-5-1-SN",
	}

	for _, code := range codes {
		t.Run(code, func(t *testing.T) {
			c, err := Parse(code)
			assert.ErrorIs(t, err, apperr.ErrParseAmbiguous)
			assert.Equal(t, KindSerial, c.Kind)
		})
	}
}

func TestParseLegacyAmbiguous(t *testing.T) {
	for _, code := range []string{"5-BAT-", "5-BAT-SN", "5-BAT-5-"} {
		_, err := ParseLegacy(code)
		assert.ErrorIs(t, err, apperr.ErrParseAmbiguous, code)
	}
}

func ExampleEncodeSerialCode() {
	uid := EncodeBatchUID(5, 1)
	fmt.Println(uid)
	fmt.Println(EncodeSerialCode(5, uid, "SN001"))
	// Output:
	// BAT-5-1
	// 5-BAT-5-1-SN001
}
