package biz

import (
	"sync"
	"time"

	"VisionGuard/internal/model"
)

// BreakerConfig holds the immutable thresholds of one circuit breaker.
type BreakerConfig struct {
	// FailureThreshold is the consecutive failure count that trips the
	// breaker from closed to open.
	FailureThreshold int
	// RecoveryTimeout is how long an open breaker waits before allowing
	// half-open probe calls.
	RecoveryTimeout time.Duration
	// HalfOpenMaxCalls bounds the number of probe calls admitted while
	// half-open.
	HalfOpenMaxCalls int
	// SuccessThreshold is the consecutive probe success count that closes
	// a half-open breaker.
	SuccessThreshold int
}

// BreakerSnapshot is a read-only view of a breaker, taken under the lock.
type BreakerSnapshot struct {
	State        model.CircuitState
	FailureCount int
	LastSuccess  *time.Time
	LastError    string
}

// CircuitBreaker guards one downstream capability with a
// closed/open/half-open state machine. All operations are total: they never
// fail for expected input and are safe under concurrent invocation from
// many request paths. State only changes through recorded call outcomes
// and elapsed time.
type CircuitBreaker struct {
	capability model.Capability
	config     BreakerConfig

	mu            sync.Mutex
	state         model.CircuitState
	failureCount  int
	successCount  int // consecutive successes while half-open
	halfOpenCalls int // probe calls admitted in the current half-open window
	openedAt      time.Time
	lastSuccess   *time.Time
	lastError     string

	// now is the clock; replaced in tests to drive recovery timing.
	now func() time.Time
}

// NewCircuitBreaker creates a closed breaker for the given capability.
func NewCircuitBreaker(capability model.Capability, config BreakerConfig) *CircuitBreaker {
	return &CircuitBreaker{
		capability: capability,
		config:     config,
		state:      model.CircuitClosed,
		now:        time.Now,
	}
}

// Capability returns the capability this breaker guards.
func (cb *CircuitBreaker) Capability() model.Capability {
	return cb.capability
}

// RecordSuccess records a successful downstream call.
// Closed: resets the failure count. Half-open: counts toward the success
// threshold and closes the breaker once reached. Open: no-op.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	ts := cb.now()
	cb.lastSuccess = &ts

	switch cb.state {
	case model.CircuitClosed:
		cb.failureCount = 0
	case model.CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.SuccessThreshold {
			cb.state = model.CircuitClosed
			cb.failureCount = 0
			cb.successCount = 0
			cb.halfOpenCalls = 0
			cb.lastError = ""
		}
	case model.CircuitOpen:
		// A success report while open carries no signal: the call was
		// admitted before the breaker tripped.
	}
}

// RecordFailure records a failed downstream call with its error message.
// Closed: counts toward the failure threshold and trips to open once
// reached. Half-open: any failure reopens immediately. Open: no-op.
func (cb *CircuitBreaker) RecordFailure(message string) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.lastError = message

	switch cb.state {
	case model.CircuitClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.state = model.CircuitOpen
			cb.openedAt = cb.now()
		}
	case model.CircuitHalfOpen:
		cb.state = model.CircuitOpen
		cb.openedAt = cb.now()
		cb.successCount = 0
		cb.halfOpenCalls = 0
	case model.CircuitOpen:
		// Failure already implied by the open state.
	}
}

// AllowCall reports whether a downstream call may be attempted now.
// Closed: always. Open: false until the recovery timeout has elapsed, at
// which point the breaker moves to half-open and the call is admitted as
// the first probe. Half-open: admits up to HalfOpenMaxCalls probes.
func (cb *CircuitBreaker) AllowCall() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case model.CircuitClosed:
		return true
	case model.CircuitOpen:
		if cb.now().Sub(cb.openedAt) < cb.config.RecoveryTimeout {
			return false
		}
		cb.state = model.CircuitHalfOpen
		cb.successCount = 0
		cb.halfOpenCalls = 1
		return true
	case model.CircuitHalfOpen:
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			return false
		}
		cb.halfOpenCalls++
		return true
	}
	return false
}

// Snapshot returns a read-only view of the breaker without side effects.
func (cb *CircuitBreaker) Snapshot() BreakerSnapshot {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return BreakerSnapshot{
		State:        cb.state,
		FailureCount: cb.failureCount,
		LastSuccess:  cb.lastSuccess,
		LastError:    cb.lastError,
	}
}
