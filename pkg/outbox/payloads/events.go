package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

// QuoteCreatedEvent announces a new draft quote.
type QuoteCreatedEvent struct {
	QuoteID       uuid.UUID  `json:"quote_id"`
	QuoteGroup    *uuid.UUID `json:"quote_group,omitempty"`
	IsAlternative bool       `json:"is_alternative"`
	CommunityID   *uuid.UUID `json:"community_id,omitempty"`
	ClientID      *uuid.UUID `json:"client_id,omitempty"`
}

// QuoteStatusChangedEvent is emitted for every lifecycle transition, including sibling archiving.
type QuoteStatusChangedEvent struct {
	QuoteID    uuid.UUID         `json:"quote_id"`
	QuoteGroup *uuid.UUID        `json:"quote_group,omitempty"`
	Event      string            `json:"event"`
	From       enums.QuoteStatus `json:"from"`
	To         enums.QuoteStatus `json:"to"`
	Total      string            `json:"total"`
	LostReason *enums.LostReason `json:"lost_reason,omitempty"`
	// CausedBy is set when the change is a side effect of another quote's transition.
	CausedBy  *uuid.UUID `json:"caused_by,omitempty"`
	ChangedAt time.Time  `json:"changed_at"`
}

// QuoteApprovalClearedEvent reports that a pricing edit voided a manager approval.
type QuoteApprovalClearedEvent struct {
	QuoteID          uuid.UUID `json:"quote_id"`
	PreviousApproval time.Time `json:"previous_approval"`
	PreviousTotal    string    `json:"previous_total"`
	CurrentTotal     string    `json:"current_total"`
	ClearedAt        time.Time `json:"cleared_at"`
}

// QuoteConvertedEvent carries the job created from an accepted quote.
type QuoteConvertedEvent struct {
	QuoteID        uuid.UUID   `json:"quote_id"`
	JobID          uuid.UUID   `json:"job_id"`
	LineItemIDs    []uuid.UUID `json:"line_item_ids"`
	ContractTotal  string      `json:"contract_total"`
	RemainingItems int         `json:"remaining_items"`
	ConvertedAt    time.Time   `json:"converted_at"`
}

// RateSheetActiveChangedEvent is emitted when a rate sheet is activated or retired.
type RateSheetActiveChangedEvent struct {
	RateSheetID uuid.UUID `json:"rate_sheet_id"`
	IsActive    bool      `json:"is_active"`
	ChangedAt   time.Time `json:"changed_at"`
}
