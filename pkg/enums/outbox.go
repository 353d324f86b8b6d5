package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type column of outbox_events.
type OutboxAggregateType string

const (
	AggregateQuote     OutboxAggregateType = "quote"
	AggregateJob       OutboxAggregateType = "job"
	AggregateRateSheet OutboxAggregateType = "rate_sheet"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateQuote,
	AggregateJob,
	AggregateRateSheet,
}

// IsValid reports whether the value matches a known aggregate type.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type column of outbox_events.
type OutboxEventType string

const (
	EventQuoteCreated           OutboxEventType = "quote_created"
	EventQuoteStatusChanged     OutboxEventType = "quote_status_changed"
	EventQuoteApprovalCleared   OutboxEventType = "quote_approval_cleared"
	EventQuoteConverted         OutboxEventType = "quote_converted"
	EventRateSheetActiveChanged OutboxEventType = "rate_sheet_active_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventQuoteCreated,
	EventQuoteStatusChanged,
	EventQuoteApprovalCleared,
	EventQuoteConverted,
	EventRateSheetActiveChanged,
}

// IsValid reports whether the value matches a known event type.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
