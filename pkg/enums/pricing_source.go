package enums

import "fmt"

// PricingSource names the context level that supplied a price.
type PricingSource string

const (
	PricingSourceCommunity    PricingSource = "community"
	PricingSourceClient       PricingSource = "client"
	PricingSourceBusinessUnit PricingSource = "business_unit"
	PricingSourceNone         PricingSource = "none"
)

var validPricingSources = []PricingSource{
	PricingSourceCommunity,
	PricingSourceClient,
	PricingSourceBusinessUnit,
	PricingSourceNone,
}

// String implements fmt.Stringer.
func (p PricingSource) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PricingSource.
func (p PricingSource) IsValid() bool {
	for _, candidate := range validPricingSources {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePricingSource converts raw input into a PricingSource.
func ParsePricingSource(value string) (PricingSource, error) {
	for _, candidate := range validPricingSources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pricing source %q", value)
}
