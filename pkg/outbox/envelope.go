package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fenceops-backend/pkg/enums"
)

// ActorRef names the estimator or manager whose action produced the event.
type ActorRef struct {
	ActorID string `json:"actorId"`
	Role    string `json:"role,omitempty"`
}

// PayloadEnvelope is what subscribers receive. The routing fields duplicate the
// outbox row so a consumer can dispatch without reading message attributes.
type PayloadEnvelope struct {
	Version       int                       `json:"version"`
	EventID       string                    `json:"eventId"`
	EventType     enums.OutboxEventType     `json:"eventType"`
	AggregateType enums.OutboxAggregateType `json:"aggregateType"`
	AggregateID   uuid.UUID                 `json:"aggregateId"`
	OccurredAt    time.Time                 `json:"occurredAt"`
	Actor         *ActorRef                 `json:"actor,omitempty"`
	Data          json.RawMessage           `json:"data"`
}

// DecodeData unmarshals the event body into dst.
func (e PayloadEnvelope) DecodeData(dst any) error {
	if len(e.Data) == 0 {
		return nil
	}
	return json.Unmarshal(e.Data, dst)
}
