package model

import (
	"database/sql/driver"
	"fmt"
	"strconv"
)

type SerialStatus int

const (
	SerialAvailable SerialStatus = iota
	SerialSold
	SerialReturned
	SerialDefective
	SerialInRepair
	SerialAdjustedOut
)

var serialStatusNames = [...]string{
	SerialAvailable:   "available",
	SerialSold:        "sold",
	SerialReturned:    "returned",
	SerialDefective:   "defective",
	SerialInRepair:    "in_repair",
	SerialAdjustedOut: "adjusted_out",
}

func (s SerialStatus) String() string {
	if s < 0 || int(s) >= len(serialStatusNames) {
		return "SerialStatus(" + strconv.Itoa(int(s)) + ")"
	}
	return serialStatusNames[s]
}

func ParseSerialStatus(v string) (SerialStatus, error) {
	for i, name := range serialStatusNames {
		if name == v {
			return SerialStatus(i), nil
		}
	}
	return 0, fmt.Errorf("unknown serial status %q", v)
}

// CanTransition reports whether a serial may move from s to next.
func (s SerialStatus) CanTransition(next SerialStatus) bool {
	switch s {
	case SerialAvailable:
		switch next {
		case SerialSold, SerialDefective, SerialInRepair, SerialAdjustedOut:
			return true
		}
	case SerialSold:
		return next == SerialAvailable
	case SerialInRepair:
		return next == SerialAvailable
	case SerialReturned, SerialDefective, SerialAdjustedOut:
		return false
	}
	return false
}

func (s SerialStatus) Terminal() bool {
	return s == SerialAdjustedOut
}

func (s SerialStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SerialStatus) UnmarshalText(b []byte) error {
	v, err := ParseSerialStatus(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SerialStatus) Value() (driver.Value, error) {
	return s.String(), nil
}

func (s *SerialStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return s.UnmarshalText([]byte(v))
	case []byte:
		return s.UnmarshalText(v)
	default:
		return fmt.Errorf("serial status: unsupported type %T", src)
	}
}

type Serial struct {
	BaseModel
	ProductID    int64        `db:"product_id" json:"product_id"`
	BatchID      int64        `db:"batch_id" json:"batch_id"`
	SerialNumber string       `db:"serial_number" json:"serial_number"`
	Status       SerialStatus `db:"status" json:"status"`
}

// SerialHistory is a serial with its owning batch and every ledger entry naming it, oldest first.
type SerialHistory struct {
	Serial  Serial            `json:"serial"`
	Batch   *Batch            `json:"batch"`
	Entries []AdjustmentEntry `json:"entries"`
}
