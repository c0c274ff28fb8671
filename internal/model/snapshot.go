package model

import "time"

// StatusSnapshot is an immutable aggregate view of the degradation state,
// recomputed on every poll tick or status query and never mutated.
type StatusSnapshot struct {
	Timestamp         time.Time
	Level             DegradationLevel
	Services          map[Capability]ServiceState
	AvailableFeatures []string
}

// ServicePayload is the wire representation of a single capability state.
// Field names and null handling are part of the external JSON contract
// consumed by the status endpoint and the websocket broadcast.
type ServicePayload struct {
	Status       string  `json:"status"`
	CircuitState string  `json:"circuit_state"`
	LastSuccess  *string `json:"last_success"`
	FailureCount int     `json:"failure_count"`
	ErrorMessage *string `json:"error_message"`
	LastCheck    *string `json:"last_check"`
}

// StatusPayload is the wire representation of a StatusSnapshot.
type StatusPayload struct {
	Timestamp         string                    `json:"timestamp"`
	DegradationMode   string                    `json:"degradation_mode"`
	Services          map[string]ServicePayload `json:"services"`
	AvailableFeatures []string                  `json:"available_features"`
}

// ToPayload converts the snapshot into the wire format. Timestamps are
// ISO-8601 in UTC; absent values serialize as null.
func (s *StatusSnapshot) ToPayload() *StatusPayload {
	services := make(map[string]ServicePayload, len(s.Services))
	for cap, state := range s.Services {
		services[string(cap)] = ServicePayload{
			Status:       string(state.Status),
			CircuitState: string(state.CircuitState),
			LastSuccess:  isoTime(state.LastSuccess),
			FailureCount: state.FailureCount,
			ErrorMessage: optString(state.ErrorMessage),
			LastCheck:    isoTime(state.LastCheck),
		}
	}

	return &StatusPayload{
		Timestamp:         s.Timestamp.UTC().Format(time.RFC3339),
		DegradationMode:   string(s.Level),
		Services:          services,
		AvailableFeatures: s.AvailableFeatures,
	}
}

func isoTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.UTC().Format(time.RFC3339)
	return &v
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
