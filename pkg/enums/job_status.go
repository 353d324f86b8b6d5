package enums

import "fmt"

// JobStatus tracks the lifecycle of an installation job.
type JobStatus string

const (
	JobStatusWon        JobStatus = "won"
	JobStatusScheduled  JobStatus = "scheduled"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

var validJobStatuses = []JobStatus{
	JobStatusWon,
	JobStatusScheduled,
	JobStatusInProgress,
	JobStatusCompleted,
	JobStatusCancelled,
}

// String implements fmt.Stringer.
func (j JobStatus) String() string {
	return string(j)
}

// IsValid reports whether the value is a known JobStatus.
func (j JobStatus) IsValid() bool {
	for _, candidate := range validJobStatuses {
		if candidate == j {
			return true
		}
	}
	return false
}

// ParseJobStatus converts raw input into a JobStatus.
func ParseJobStatus(value string) (JobStatus, error) {
	for _, candidate := range validJobStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid job status %q", value)
}
