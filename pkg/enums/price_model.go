package enums

import "fmt"

// PriceModelType maps to the price_model_enum enum in Postgres.
type PriceModelType string

const (
	PriceModelRetailOnly       PriceModelType = "retail_only"
	PriceModelWholesaleOnly    PriceModelType = "wholesale_only"
	PriceModelSimpleWholesale  PriceModelType = "simple_wholesale"
	PriceModelGradualWholesale PriceModelType = "gradual_wholesale"
)

var validPriceModelTypes = []PriceModelType{
	PriceModelRetailOnly,
	PriceModelWholesaleOnly,
	PriceModelSimpleWholesale,
	PriceModelGradualWholesale,
}

// String implements fmt.Stringer.
func (p PriceModelType) String() string {
	return string(p)
}

// IsValid reports whether the value matches the canonical price model enum.
func (p PriceModelType) IsValid() bool {
	for _, candidate := range validPriceModelTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePriceModelType converts raw input into a PriceModelType.
func ParsePriceModelType(value string) (PriceModelType, error) {
	for _, candidate := range validPriceModelTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid price model %q", value)
}
