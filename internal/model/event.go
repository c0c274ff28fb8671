package model

import "time"

// Transition event type constants, persisted with each history row.
const (
	TransitionServiceRecovered   = "SERVICE_RECOVERED"
	TransitionServiceDegraded    = "SERVICE_DEGRADED"
	TransitionServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// StatusChangedEvent records one capability status transition observed by
// the health poller. Events feed the transition history table and the
// subscriber notifications.
type StatusChangedEvent struct {
	Capability Capability
	OldStatus  ServiceStatus
	NewStatus  ServiceStatus
	Level      DegradationLevel
	At         time.Time
}

// TransitionType classifies the event for the history table.
func (e *StatusChangedEvent) TransitionType() string {
	switch e.NewStatus {
	case StatusUnavailable:
		return TransitionServiceUnavailable
	case StatusDegraded:
		return TransitionServiceDegraded
	default:
		return TransitionServiceRecovered
	}
}
