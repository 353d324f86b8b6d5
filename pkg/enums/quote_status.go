package enums

import "fmt"

// QuoteStatus tracks where a quote sits in its sales lifecycle.
type QuoteStatus string

const (
	QuoteStatusDraft            QuoteStatus = "draft"
	QuoteStatusPendingApproval  QuoteStatus = "pending_approval"
	QuoteStatusSent             QuoteStatus = "sent"
	QuoteStatusAwaitingResponse QuoteStatus = "awaiting_response"
	QuoteStatusChangesRequested QuoteStatus = "changes_requested"
	QuoteStatusAccepted         QuoteStatus = "accepted"
	QuoteStatusLost             QuoteStatus = "lost"
	QuoteStatusConverted        QuoteStatus = "converted"
	QuoteStatusArchived         QuoteStatus = "archived"
)

var validQuoteStatuses = []QuoteStatus{
	QuoteStatusDraft,
	QuoteStatusPendingApproval,
	QuoteStatusSent,
	QuoteStatusAwaitingResponse,
	QuoteStatusChangesRequested,
	QuoteStatusAccepted,
	QuoteStatusLost,
	QuoteStatusConverted,
	QuoteStatusArchived,
}

// String implements fmt.Stringer.
func (q QuoteStatus) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QuoteStatus.
func (q QuoteStatus) IsValid() bool {
	for _, candidate := range validQuoteStatuses {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQuoteStatus converts raw input into a QuoteStatus.
func ParseQuoteStatus(value string) (QuoteStatus, error) {
	for _, candidate := range validQuoteStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid quote status %q", value)
}

// IsTerminal reports whether no further lifecycle transitions may leave the status.
func (q QuoteStatus) IsTerminal() bool {
	switch q {
	case QuoteStatusLost, QuoteStatusConverted, QuoteStatusArchived:
		return true
	default:
		return false
	}
}

// IsEditable reports whether line items and rates may change in this status.
func (q QuoteStatus) IsEditable() bool {
	return q == QuoteStatusDraft || q == QuoteStatusChangesRequested
}
