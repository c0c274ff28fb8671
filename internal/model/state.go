package model

import "time"

// CircuitState is the finite-state value of a per-capability circuit breaker.
type CircuitState string

const (
	CircuitClosed   CircuitState = "closed"
	CircuitOpen     CircuitState = "open"
	CircuitHalfOpen CircuitState = "half_open"
)

// ServiceStatus is the health classification of a single capability.
type ServiceStatus string

const (
	StatusHealthy     ServiceStatus = "healthy"
	StatusDegraded    ServiceStatus = "degraded"
	StatusUnavailable ServiceStatus = "unavailable"
)

// DegradationLevel is the system-wide severity derived from the set of
// per-capability statuses.
type DegradationLevel string

const (
	LevelNormal   DegradationLevel = "normal"
	LevelDegraded DegradationLevel = "degraded"
	LevelMinimal  DegradationLevel = "minimal"
	LevelOffline  DegradationLevel = "offline"
)

// ServiceState is the health snapshot of one capability. Values are owned by
// the degradation manager; readers always receive copies.
type ServiceState struct {
	Capability   Capability
	Status       ServiceStatus
	CircuitState CircuitState
	FailureCount int
	LastSuccess  *time.Time
	LastCheck    *time.Time
	ErrorMessage string
}

// StatusForCircuit maps a breaker state to the capability health status.
func StatusForCircuit(cs CircuitState) ServiceStatus {
	switch cs {
	case CircuitOpen:
		return StatusUnavailable
	case CircuitHalfOpen:
		return StatusDegraded
	default:
		return StatusHealthy
	}
}
