package enums

import "fmt"

// LostReason is the closed set of reasons a quote can be marked lost.
type LostReason string

const (
	LostReasonPrice        LostReason = "price"
	LostReasonCompetitor   LostReason = "competitor"
	LostReasonCancelled    LostReason = "cancelled"
	LostReasonBudget       LostReason = "budget"
	LostReasonTimeline     LostReason = "timeline"
	LostReasonRequirements LostReason = "requirements"
	LostReasonNoResponse   LostReason = "no_response"
	LostReasonOther        LostReason = "other"
)

var validLostReasons = []LostReason{
	LostReasonPrice,
	LostReasonCompetitor,
	LostReasonCancelled,
	LostReasonBudget,
	LostReasonTimeline,
	LostReasonRequirements,
	LostReasonNoResponse,
	LostReasonOther,
}

// String implements fmt.Stringer.
func (l LostReason) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LostReason.
func (l LostReason) IsValid() bool {
	for _, candidate := range validLostReasons {
		if candidate == l {
			return true
		}
	}
	return false
}

// ParseLostReason converts raw input into a LostReason.
func ParseLostReason(value string) (LostReason, error) {
	for _, candidate := range validLostReasons {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lost reason %q", value)
}
