package enums

import "fmt"

// RateSheetPricingType describes which pricing strategies a rate sheet carries.
type RateSheetPricingType string

const (
	RateSheetPricingTypeFixedOnly RateSheetPricingType = "fixed_only"
	RateSheetPricingTypeFormula   RateSheetPricingType = "formula"
	RateSheetPricingTypeHybrid    RateSheetPricingType = "hybrid"
)

var validRateSheetPricingTypes = []RateSheetPricingType{
	RateSheetPricingTypeFixedOnly,
	RateSheetPricingTypeFormula,
	RateSheetPricingTypeHybrid,
}

// String implements fmt.Stringer.
func (r RateSheetPricingType) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RateSheetPricingType.
func (r RateSheetPricingType) IsValid() bool {
	for _, candidate := range validRateSheetPricingTypes {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseRateSheetPricingType converts raw input into a RateSheetPricingType.
func ParseRateSheetPricingType(value string) (RateSheetPricingType, error) {
	for _, candidate := range validRateSheetPricingTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid rate sheet pricing type %q", value)
}
