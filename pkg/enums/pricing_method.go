package enums

import "fmt"

// PricingMethod records how a resolved price was produced.
type PricingMethod string

const (
	PricingMethodFixed  PricingMethod = "fixed"
	PricingMethodMarkup PricingMethod = "markup"
	PricingMethodMargin PricingMethod = "margin"
	// PricingMethodDefaultFormula comes from a rate sheet's default margin/markup, not an item.
	PricingMethodDefaultFormula PricingMethod = "default_formula"
	PricingMethodCostOnly       PricingMethod = "cost_only"
	// PricingMethodCostPlus marks a community price override.
	PricingMethodCostPlus PricingMethod = "cost_plus"
)

var validPricingMethods = []PricingMethod{
	PricingMethodFixed,
	PricingMethodMarkup,
	PricingMethodMargin,
	PricingMethodDefaultFormula,
	PricingMethodCostOnly,
	PricingMethodCostPlus,
}

// String implements fmt.Stringer.
func (p PricingMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingMethod.
func (p PricingMethod) IsValid() bool {
	for _, candidate := range validPricingMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsCommunityOverride reports whether the price replaced rate-sheet resolution outright.
func (p PricingMethod) IsCommunityOverride() bool {
	return p == PricingMethodCostPlus
}

// ParsePricingMethod converts raw input into a PricingMethod.
func ParsePricingMethod(value string) (PricingMethod, error) {
	for _, candidate := range validPricingMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing method %q", value)
}
