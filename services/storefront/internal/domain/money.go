package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Money is an amount in paisa (1/100 of a rupee). Cart arithmetic stays in
// integers. In JSON it is a decimal rupee number, the same unit the catalog
// and the order API use.
type Money int64

// MoneyFromRupees converts a decimal rupee amount, rounding to the nearest paisa.
func MoneyFromRupees(rupees float64) Money {
	return Money(math.Round(rupees * 100))
}

// Rupees returns the amount as decimal rupees for the remote order API.
func (m Money) Rupees() float64 {
	return float64(m) / 100
}

// String formats the amount the way receipts show it, e.g. "Rs.1250.50".
func (m Money) String() string {
	sign := ""
	v := int64(m)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%sRs.%d.%02d", sign, v/100, v%100)
}

// Times multiplies the amount by a quantity.
func (m Money) Times(qty int) Money {
	return m * Money(qty)
}

// MarshalJSON encodes the amount as decimal rupees, e.g. 1250.5.
func (m Money) MarshalJSON() ([]byte, error) {
	return strconv.AppendFloat(nil, m.Rupees(), 'f', -1, 64), nil
}

// UnmarshalJSON decodes a decimal rupee amount, rounding to the nearest paisa.
func (m *Money) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var rupees float64
	if err := json.Unmarshal(data, &rupees); err != nil {
		return fmt.Errorf("decode money: %w", err)
	}
	*m = MoneyFromRupees(rupees)
	return nil
}
