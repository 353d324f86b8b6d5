package enums

// OutboxDLQErrorReason records why the publisher stopped retrying an event.
type OutboxDLQErrorReason string

const (
	// OutboxDLQReasonMaxAttempts means every publish attempt failed transiently.
	OutboxDLQReasonMaxAttempts OutboxDLQErrorReason = "max_attempts"
	// OutboxDLQReasonNonRetryable means the row itself is unpublishable, such as
	// an unknown event type or an envelope that does not match its row.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonMaxAttempts, OutboxDLQReasonNonRetryable:
		return true
	}
	return false
}

func (r OutboxDLQErrorReason) String() string {
	return string(r)
}
