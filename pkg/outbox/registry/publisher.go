package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/fenceops-backend/pkg/config"
	"github.com/angelmondragon/fenceops-backend/pkg/db/models"
	"github.com/angelmondragon/fenceops-backend/pkg/enums"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox"
	"github.com/angelmondragon/fenceops-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.QuoteEventsTopic == "" {
		return nil, fmt.Errorf("quote events topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	topic := cfg.QuoteEventsTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventQuoteCreated,
			AggregateType:  enums.AggregateQuote,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.QuoteCreatedEvent{} },
		},
		{
			EventType:      enums.EventQuoteStatusChanged,
			AggregateType:  enums.AggregateQuote,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.QuoteStatusChangedEvent{} },
		},
		{
			EventType:      enums.EventQuoteApprovalCleared,
			AggregateType:  enums.AggregateQuote,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.QuoteApprovalClearedEvent{} },
		},
		{
			EventType:      enums.EventQuoteConverted,
			AggregateType:  enums.AggregateQuote,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.QuoteConvertedEvent{} },
		},
		{
			EventType:      enums.EventRateSheetActiveChanged,
			AggregateType:  enums.AggregateRateSheet,
			Topic:          topic,
			PayloadFactory: func() interface{} { return &payloads.RateSheetActiveChangedEvent{} },
		},
	} {
		reg.register(desc)
	}

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}
	// Envelopes written before routing fields existed leave them empty.
	if envelope.EventType != "" && envelope.EventType != event.EventType {
		return nil, NewNonRetryableError(fmt.Errorf("envelope event type %s does not match row %s", envelope.EventType, event.EventType))
	}
	if envelope.AggregateID != uuid.Nil && envelope.AggregateID != event.AggregateID {
		return nil, NewNonRetryableError(fmt.Errorf("envelope aggregate %s does not match row", envelope.AggregateID))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := envelope.DecodeData(payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
