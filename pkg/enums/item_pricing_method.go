package enums

import "fmt"

// ItemPricingMethod is the per-SKU strategy stored on a rate sheet item.
type ItemPricingMethod string

const (
	ItemPricingMethodFixed  ItemPricingMethod = "fixed"
	ItemPricingMethodMarkup ItemPricingMethod = "markup"
	ItemPricingMethodMargin ItemPricingMethod = "margin"
)

var validItemPricingMethods = []ItemPricingMethod{
	ItemPricingMethodFixed,
	ItemPricingMethodMarkup,
	ItemPricingMethodMargin,
}

// String implements fmt.Stringer.
func (i ItemPricingMethod) String() string {
	return string(i)
}

// IsValid reports whether the value is a known ItemPricingMethod.
func (i ItemPricingMethod) IsValid() bool {
	for _, candidate := range validItemPricingMethods {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseItemPricingMethod converts raw input into a ItemPricingMethod.
func ParseItemPricingMethod(value string) (ItemPricingMethod, error) {
	for _, candidate := range validItemPricingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid item pricing method %q", value)
}
