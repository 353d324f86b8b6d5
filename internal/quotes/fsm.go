package quotes

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fenceops-backend/pkg/errors"
)

// Event names a requested lifecycle move.
type Event string

const (
	EventRequestApproval      Event = "request_approval"
	EventApprove              Event = "approve"
	EventReject               Event = "reject"
	EventSend                 Event = "send"
	EventMarkAwaitingResponse Event = "mark_awaiting_response"
	EventRequestChanges       Event = "request_changes"
	EventReopen               Event = "reopen"
	EventAccept               Event = "accept"
	EventLose                 Event = "lose"
	EventConvert              Event = "convert"
	EventArchive              Event = "archive"
)

func (e Event) String() string {
	return string(e)
}

// State is everything the guards need to know about a quote.
type State struct {
	Status           enums.QuoteStatus
	Approval         ApprovalDecision
	ConvertedToJobID *uuid.UUID
	// Convertible holds the committed, not yet converted line items.
	Convertible map[uuid.UUID]struct{}
}

// Command is an event plus its arguments.
type Command struct {
	Event               Event
	LostReason          enums.LostReason
	SelectedLineItemIDs []uuid.UUID
}

type guard func(State, Command) string

type rule struct {
	from  []enums.QuoteStatus
	to    enums.QuoteStatus
	guard guard
}

var openStatuses = []enums.QuoteStatus{
	enums.QuoteStatusDraft,
	enums.QuoteStatusPendingApproval,
	enums.QuoteStatusSent,
	enums.QuoteStatusAwaitingResponse,
	enums.QuoteStatusChangesRequested,
}

var rules = map[Event]rule{
	EventRequestApproval: {
		from: []enums.QuoteStatus{enums.QuoteStatusDraft},
		to:   enums.QuoteStatusPendingApproval,
	},
	EventApprove: {
		from:  []enums.QuoteStatus{enums.QuoteStatusPendingApproval},
		to:    enums.QuoteStatusPendingApproval,
		guard: notYetApproved,
	},
	EventReject: {
		from: []enums.QuoteStatus{enums.QuoteStatusPendingApproval},
		to:   enums.QuoteStatusDraft,
	},
	EventSend: {
		from:  []enums.QuoteStatus{enums.QuoteStatusDraft, enums.QuoteStatusPendingApproval},
		to:    enums.QuoteStatusSent,
		guard: approvalSatisfied,
	},
	EventMarkAwaitingResponse: {
		from: []enums.QuoteStatus{enums.QuoteStatusSent},
		to:   enums.QuoteStatusAwaitingResponse,
	},
	EventRequestChanges: {
		from: []enums.QuoteStatus{enums.QuoteStatusSent, enums.QuoteStatusAwaitingResponse},
		to:   enums.QuoteStatusChangesRequested,
	},
	EventReopen: {
		from: []enums.QuoteStatus{enums.QuoteStatusChangesRequested},
		to:   enums.QuoteStatusDraft,
	},
	EventAccept: {
		from: []enums.QuoteStatus{enums.QuoteStatusAwaitingResponse},
		to:   enums.QuoteStatusAccepted,
	},
	EventLose: {
		from:  openStatuses,
		to:    enums.QuoteStatusLost,
		guard: hasLostReason,
	},
	EventConvert: {
		from:  []enums.QuoteStatus{enums.QuoteStatusAccepted},
		to:    enums.QuoteStatusConverted,
		guard: convertibleSelection,
	},
	EventArchive: {
		from: append(append([]enums.QuoteStatus{}, openStatuses...), enums.QuoteStatusAccepted),
		to:   enums.QuoteStatusArchived,
	},
}

// Machine decides lifecycle moves for one quote. It never mutates anything.
type Machine struct {
	state State
}

func NewMachine(state State) *Machine {
	return &Machine{state: state}
}

// Transition returns the status the command leads to, or an illegal transition error
// naming the current status and the event.
func (m *Machine) Transition(cmd Command) (enums.QuoteStatus, error) {
	r, ok := rules[cmd.Event]
	if !ok {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "unknown quote event %q", cmd.Event)
	}
	if !contains(r.from, m.state.Status) {
		return "", illegal(m.state.Status, cmd.Event, "not allowed from "+m.state.Status.String())
	}
	if r.guard != nil {
		if reason := r.guard(m.state, cmd); reason != "" {
			return "", illegal(m.state.Status, cmd.Event, reason)
		}
	}
	return r.to, nil
}

// Allowed lists the events that would pass from the current state, ignoring command arguments.
func (m *Machine) Allowed() []Event {
	out := make([]Event, 0, len(rules))
	for _, ev := range eventOrder {
		r := rules[ev]
		if !contains(r.from, m.state.Status) {
			continue
		}
		switch ev {
		case EventApprove, EventSend:
			if r.guard(m.state, Command{Event: ev}) != "" {
				continue
			}
		case EventConvert:
			if m.state.ConvertedToJobID != nil || len(m.state.Convertible) == 0 {
				continue
			}
		}
		out = append(out, ev)
	}
	return out
}

var eventOrder = []Event{
	EventRequestApproval,
	EventApprove,
	EventReject,
	EventSend,
	EventMarkAwaitingResponse,
	EventRequestChanges,
	EventReopen,
	EventAccept,
	EventLose,
	EventConvert,
	EventArchive,
}

func notYetApproved(s State, _ Command) string {
	if s.Approval.ManagerApproved {
		return "quote is already approved"
	}
	return ""
}

func approvalSatisfied(s State, _ Command) string {
	if s.Approval.Required {
		return "manager approval required before sending"
	}
	return ""
}

func hasLostReason(_ State, cmd Command) string {
	if cmd.LostReason == "" {
		return "lost reason is required"
	}
	if !cmd.LostReason.IsValid() {
		return "unknown lost reason " + string(cmd.LostReason)
	}
	return ""
}

func convertibleSelection(s State, cmd Command) string {
	if s.ConvertedToJobID != nil {
		return "quote was already converted"
	}
	if len(cmd.SelectedLineItemIDs) == 0 {
		return "select at least one line item to convert"
	}
	seen := make(map[uuid.UUID]struct{}, len(cmd.SelectedLineItemIDs))
	for _, id := range cmd.SelectedLineItemIDs {
		if _, dup := seen[id]; dup {
			return "line item " + id.String() + " selected twice"
		}
		seen[id] = struct{}{}
		if _, ok := s.Convertible[id]; !ok {
			return "line item " + id.String() + " is not convertible"
		}
	}
	return ""
}

func illegal(from enums.QuoteStatus, ev Event, reason string) error {
	return pkgerrors.Newf(pkgerrors.CodeIllegalTransition, "cannot %s quote: %s", ev, reason).
		WithDetails(map[string]any{"from": from.String(), "event": ev.String(), "reason": reason})
}

func contains(statuses []enums.QuoteStatus, s enums.QuoteStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}
