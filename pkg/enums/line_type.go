package enums

import "fmt"

// LineType classifies a quote line item.
type LineType string

const (
	LineTypeMaterial   LineType = "material"
	LineTypeLabor      LineType = "labor"
	LineTypeService    LineType = "service"
	LineTypeAdjustment LineType = "adjustment"
	LineTypeDiscount   LineType = "discount"
)

var validLineTypes = []LineType{
	LineTypeMaterial,
	LineTypeLabor,
	LineTypeService,
	LineTypeAdjustment,
	LineTypeDiscount,
}

// String implements fmt.Stringer.
func (l LineType) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LineType.
func (l LineType) IsValid() bool {
	for _, candidate := range validLineTypes {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLineType converts raw input into a LineType.
func ParseLineType(value string) (LineType, error) {
	for _, candidate := range validLineTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid line type %q", value)
}
