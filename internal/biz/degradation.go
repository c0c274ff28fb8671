package biz

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"VisionGuard/internal/conf"
	"VisionGuard/internal/model"

	pkglog "VisionGuard/pkg/log"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
)

// DegradationManager owns one circuit breaker and one ServiceState per
// capability. The capability set is fixed at construction; all reads return
// copies so request paths never block on the poller.
// maxPendingEvents bounds the undrained transition queue. Transitions past
// the cap are dropped oldest-first; capability states themselves are
// unaffected, only the per-event history entries are lost.
const maxPendingEvents = 256

type DegradationManager struct {
	breakers map[model.Capability]*CircuitBreaker

	mu      sync.RWMutex
	states  map[model.Capability]model.ServiceState
	pending []model.StatusChangedEvent

	logger *pkglog.LogHelper

	// now is the clock; replaced in tests.
	now func() time.Time
}

// NewDegradationManager builds the manager with one breaker per capability
// using the effective per-capability config.
func NewDegradationManager(c *conf.Degradation, logger log.Logger) *DegradationManager {
	breakers := make(map[model.Capability]*CircuitBreaker, len(model.AllCapabilities()))
	states := make(map[model.Capability]model.ServiceState, len(model.AllCapabilities()))

	for _, capability := range model.AllCapabilities() {
		bc := c.BreakerFor(string(capability))
		breakers[capability] = NewCircuitBreaker(capability, BreakerConfig{
			FailureThreshold: int(bc.FailureThreshold),
			RecoveryTimeout:  bc.RecoveryTimeout.AsDuration(),
			HalfOpenMaxCalls: int(bc.HalfOpenMaxCalls),
			SuccessThreshold: int(bc.SuccessThreshold),
		})
		states[capability] = model.ServiceState{
			Capability:   capability,
			Status:       model.StatusHealthy,
			CircuitState: model.CircuitClosed,
		}
	}

	return &DegradationManager{
		breakers: breakers,
		states:   states,
		logger:   pkglog.NewLogHelper(logger),
		now:      time.Now,
	}
}

// AllowCall reports whether a call to the capability may be attempted and
// consumes a half-open probe slot when applicable. Unknown capabilities are
// never allowed.
func (m *DegradationManager) AllowCall(capability model.Capability) bool {
	cb, ok := m.breakers[capability]
	if !ok {
		return false
	}
	return cb.AllowCall()
}

// RecordSuccess reports a successful downstream call for the capability.
func (m *DegradationManager) RecordSuccess(capability model.Capability) {
	cb, ok := m.breakers[capability]
	if !ok {
		return
	}
	cb.RecordSuccess()
}

// RecordFailure reports a failed downstream call for the capability.
func (m *DegradationManager) RecordFailure(capability model.Capability, message string) {
	cb, ok := m.breakers[capability]
	if !ok {
		return
	}
	cb.RecordFailure(message)
}

// IsAvailable reports whether the capability is currently usable
// (status is anything but unavailable).
func (m *DegradationManager) IsAvailable(capability model.Capability) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[capability]
	if !ok {
		return false
	}
	return state.Status != model.StatusUnavailable
}

// GetState returns a copy of the capability's service state.
// An unknown capability is caller misuse and yields a NotFound error.
func (m *DegradationManager) GetState(capability model.Capability) (model.ServiceState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	state, ok := m.states[capability]
	if !ok {
		return model.ServiceState{}, errors.NotFound(
			"CAPABILITY_NOT_FOUND",
			fmt.Sprintf("unknown capability: %s", capability),
		)
	}
	return state, nil
}

// Refresh pulls every breaker's state into the service state map and returns
// the per-capability transitions observed (empty when nothing changed).
// Observed transitions are also queued for DrainEvents, so a read-through
// refresh between poll ticks cannot lose them.
func (m *DegradationManager) Refresh() []model.StatusChangedEvent {
	checkedAt := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	var changes []model.StatusChangedEvent
	for capability, cb := range m.breakers {
		snap := cb.Snapshot()
		prev := m.states[capability]

		ts := checkedAt
		next := model.ServiceState{
			Capability:   capability,
			Status:       model.StatusForCircuit(snap.State),
			CircuitState: snap.State,
			FailureCount: snap.FailureCount,
			LastSuccess:  snap.LastSuccess,
			LastCheck:    &ts,
			ErrorMessage: snap.LastError,
		}
		m.states[capability] = next

		if next.Status != prev.Status {
			changes = append(changes, model.StatusChangedEvent{
				Capability: capability,
				OldStatus:  prev.Status,
				NewStatus:  next.Status,
				At:         checkedAt,
			})
		}
	}

	if len(changes) > 0 {
		level := EvaluateLevel(m.states)
		for i := range changes {
			changes[i].Level = level
			m.logger.Breaker("capability status changed",
				"capability", changes[i].Capability,
				"old_status", changes[i].OldStatus,
				"new_status", changes[i].NewStatus,
				"level", level)
		}
		m.pending = append(m.pending, changes...)
		if over := len(m.pending) - maxPendingEvents; over > 0 {
			// Refresh can be driven by status reads while no poller is
			// draining; keep the newest transitions and drop the oldest.
			m.pending = m.pending[over:]
			m.logger.Breaker("pending transition queue full, dropping oldest events",
				"dropped", over,
				"capacity", maxPendingEvents)
		}
	}
	return changes
}

// DrainEvents returns all transitions queued since the last drain. Called by
// the health poller once per tick to persist and broadcast changes exactly
// once, regardless of which caller's refresh observed them.
func (m *DegradationManager) DrainEvents() []model.StatusChangedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	events := m.pending
	m.pending = nil
	return events
}

// Status computes the aggregate degradation snapshot from the current
// service states.
func (m *DegradationManager) Status() *model.StatusSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	services := make(map[model.Capability]model.ServiceState, len(m.states))
	for capability, state := range m.states {
		services[capability] = state
	}

	return &model.StatusSnapshot{
		Timestamp:         m.now().UTC(),
		Level:             EvaluateLevel(services),
		Services:          services,
		AvailableFeatures: availableFeatures(services),
	}
}

// EvaluateLevel derives the system-wide degradation level from the
// per-capability states. Pure function:
//   - all critical capabilities unavailable -> offline
//   - some (not all) critical capabilities unavailable -> minimal
//   - only non-critical capabilities unavailable -> degraded
//   - nothing unavailable -> normal
func EvaluateLevel(states map[model.Capability]model.ServiceState) model.DegradationLevel {
	criticalTotal := 0
	criticalDown := 0
	nonCriticalDown := 0

	for capability, state := range states {
		critical := capability.IsCritical()
		if critical {
			criticalTotal++
		}
		if state.Status != model.StatusUnavailable {
			continue
		}
		if critical {
			criticalDown++
		} else {
			nonCriticalDown++
		}
	}

	switch {
	case criticalTotal > 0 && criticalDown == criticalTotal:
		return model.LevelOffline
	case criticalDown > 0:
		return model.LevelMinimal
	case nonCriticalDown > 0:
		return model.LevelDegraded
	default:
		return model.LevelNormal
	}
}

// availableFeatures unions the base feature set with the features of every
// healthy capability, deduplicated, in a deterministic order.
func availableFeatures(states map[model.Capability]model.ServiceState) []string {
	features := make([]string, 0, 8)
	seen := make(map[string]bool, 8)

	add := func(list []string) {
		for _, f := range list {
			if !seen[f] {
				seen[f] = true
				features = append(features, f)
			}
		}
	}

	add(model.BaseFeatures())
	for _, capability := range model.AllCapabilities() {
		if state, ok := states[capability]; ok && state.Status == model.StatusHealthy {
			add(capability.Features())
		}
	}

	sort.Strings(features)
	return features
}
