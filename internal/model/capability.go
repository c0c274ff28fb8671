// Package model defines the shared domain types of the degradation subsystem:
// AI capability identifiers, health states and the status snapshot wire format.
package model

// Capability identifies one downstream AI capability guarded by a circuit
// breaker. The set is closed and fixed at construction time.
type Capability string

const (
	CapabilityDetection        Capability = "detection"
	CapabilityRiskReasoning    Capability = "risk_reasoning"
	CapabilityCaptioning       Capability = "captioning"
	CapabilityReidentification Capability = "reidentification"
)

// AllCapabilities returns the closed capability set in a fixed order.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityDetection,
		CapabilityRiskReasoning,
		CapabilityCaptioning,
		CapabilityReidentification,
	}
}

// criticalCapabilities classifies which capabilities drive the system toward
// Minimal/Offline when unavailable. Non-critical ones only cause Degraded.
var criticalCapabilities = map[Capability]bool{
	CapabilityDetection:        true,
	CapabilityRiskReasoning:    true,
	CapabilityCaptioning:       false,
	CapabilityReidentification: false,
}

// IsCritical reports whether the capability is classified as critical.
// Unknown capabilities are never critical.
func (c Capability) IsCritical() bool {
	return criticalCapabilities[c]
}

// IsValid reports whether c belongs to the closed capability set.
func (c Capability) IsValid() bool {
	_, ok := criticalCapabilities[c]
	return ok
}

// capabilityFeatures maps each capability to the user-facing features it
// enables. Features of Healthy capabilities are unioned with baseFeatures
// to produce the available_features list.
var capabilityFeatures = map[Capability][]string{
	CapabilityDetection:        {"object_detection", "live_alerts"},
	CapabilityRiskReasoning:    {"risk_scoring", "alert_prioritization"},
	CapabilityCaptioning:       {"event_captions"},
	CapabilityReidentification: {"person_reid", "cross_camera_tracking"},
}

// baseFeatures are always available regardless of capability health.
var baseFeatures = []string{"event_history", "camera_monitoring"}

// Features returns the feature list enabled by this capability.
func (c Capability) Features() []string {
	return capabilityFeatures[c]
}

// BaseFeatures returns the always-available feature set.
func BaseFeatures() []string {
	return baseFeatures
}
