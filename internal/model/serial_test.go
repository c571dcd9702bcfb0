package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialStatusTransitions(t *testing.T) {
	allowed := map[SerialStatus][]SerialStatus{
		SerialAvailable: {SerialSold, SerialDefective, SerialInRepair, SerialAdjustedOut},
		SerialSold:      {SerialAvailable},
		SerialInRepair:  {SerialAvailable},
	}

	all := []SerialStatus{SerialAvailable, SerialSold, SerialReturned, SerialDefective, SerialInRepair, SerialAdjustedOut}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equalf(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestAdjustedOutIsTerminal(t *testing.T) {
	assert.True(t, SerialAdjustedOut.Terminal())
	assert.False(t, SerialSold.Terminal())
}

func TestSerialStatusText(t *testing.T) {
	for _, name := range []string{"available", "sold", "returned", "defective", "in_repair", "adjusted_out"} {
		s, err := ParseSerialStatus(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.String())
	}

	_, err := ParseSerialStatus("lost")
	assert.Error(t, err)
	assert.Equal(t, "SerialStatus(42)", SerialStatus(42).String())
}

func TestSerialStatusJSON(t *testing.T) {
	b, err := json.Marshal(Serial{SerialNumber: "SN1", Status: SerialInRepair})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"status":"in_repair"`)

	var s Serial
	require.NoError(t, json.Unmarshal(b, &s))
	assert.Equal(t, SerialInRepair, s.Status)
}

func TestBatchUIDFallback(t *testing.T) {
	uid := "BAT-5-1"
	assert.Equal(t, "BAT-5-1", (&Batch{BatchUID: &uid}).UID())

	legacy := &Batch{BaseModel: BaseModel{ID: 42}}
	assert.Equal(t, "BAT-42", legacy.UID())
}

func TestStockSummaryUntracked(t *testing.T) {
	s := NewStockSummary(9, 14, 10)
	assert.Equal(t, int64(4), s.Untracked)

	negative := NewStockSummary(9, 3, 10)
	assert.Equal(t, int64(-7), negative.Untracked)
}
