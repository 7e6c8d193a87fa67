package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Cents is an integer amount of cents. JSON payloads carry decimal currency
// strings or numbers ("19.90"); arithmetic happens on the integer form so tier
// comparisons never suffer binary float drift.
type Cents int

var hundred = decimal.NewFromInt(100)

// CentsFromDecimal converts a decimal currency amount into cents, rounding
// half up at the second decimal place.
func CentsFromDecimal(d decimal.Decimal) Cents {
	return Cents(d.Mul(hundred).Round(0).IntPart())
}

// Decimal returns the decimal currency representation of the amount.
func (c Cents) Decimal() decimal.Decimal {
	return decimal.NewFromInt(int64(c)).Div(hundred)
}

// Int returns the raw cent count.
func (c Cents) Int() int {
	return int(c)
}

// UnmarshalJSON accepts both decimal strings and JSON numbers.
func (c *Cents) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("invalid currency amount %q: %w", v, err)
		}
		*c = CentsFromDecimal(d)
		return nil
	case float64:
		d := decimal.NewFromFloat(v)
		*c = CentsFromDecimal(d)
		return nil
	default:
		return fmt.Errorf("invalid currency amount %v", raw)
	}
}

// MarshalJSON renders the amount as a decimal currency string.
func (c Cents) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.Decimal().StringFixed(2))
}
