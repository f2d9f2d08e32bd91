// ABOUTME: Circuit breaker guarding calls to unreliable dependencies
// ABOUTME: Implements closed/open/half-open gating with exponential backoff and jitter

package breaker

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"citations-app-api/core/errors"
	"citations-app-api/core/interfaces"
)

// State is the current position of the breaker gate.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Config controls the breaker thresholds and backoff window.
type Config struct {
	// FailureThreshold is the number of closed-state failures that opens
	// the gate. The counter is cleared only on transition back to closed.
	FailureThreshold int

	// SuccessThreshold is the number of half-open successes that closes
	// the gate again.
	SuccessThreshold int

	// HalfOpenMaxCalls bounds concurrent probe calls while half-open.
	HalfOpenMaxCalls int

	// BaseBackoff is the backoff for the first open. Doubles per
	// consecutive failure, capped at MaxBackoff.
	BaseBackoff time.Duration

	// MaxBackoff caps the computed backoff before jitter.
	MaxBackoff time.Duration

	// OnStateChange is invoked on every transition. Panics are recovered
	// and logged, never propagated to the caller.
	OnStateChange func(newState, previousState State)

	// OnError is invoked on every recorded failure.
	OnError func(err error)
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		HalfOpenMaxCalls: 3,
		BaseBackoff:      time.Second,
		MaxBackoff:       60 * time.Second,
	}
}

// Stats is a read-only snapshot of the breaker counters.
type Stats struct {
	Name             string     `json:"name"`
	State            State      `json:"state"`
	FailureCount     int        `json:"failureCount"`
	ConsecutiveFails int        `json:"consecutiveFailures"`
	TotalCalls       int64      `json:"totalCalls"`
	TotalFailures    int64      `json:"totalFailures"`
	TotalSuccesses   int64      `json:"totalSuccesses"`
	OpenedAt         *time.Time `json:"openedAt,omitempty"`
	NextAttempt      *time.Time `json:"nextAttemptTime,omitempty"`
	LastFailureTime  *time.Time `json:"lastFailureTime,omitempty"`
	LastSuccessTime  *time.Time `json:"lastSuccessTime,omitempty"`
}

// CircuitBreaker gates calls to one named dependency. It does not retry;
// it only decides whether a call may proceed and records the outcome.
// Safe for concurrent use. It imposes no timeout of its own on the
// wrapped function; callers give the function its own deadline.
type CircuitBreaker struct {
	name   string
	config Config
	logger interfaces.Logger

	mu               sync.Mutex
	state            State
	pending          *stateChange
	failureCount     int
	consecutiveFails int
	halfOpenCalls    int
	halfOpenSuccess  int
	totalCalls       int64
	totalFailures    int64
	totalSuccesses   int64
	openedAt         time.Time
	nextAttempt      time.Time
	lastFailure      time.Time
	lastSuccess      time.Time
}

// New creates a closed breaker for the named dependency. Zero-valued
// config fields fall back to DefaultConfig.
func New(name string, config Config, logger interfaces.Logger) *CircuitBreaker {
	defaults := DefaultConfig()
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = defaults.FailureThreshold
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = defaults.SuccessThreshold
	}
	if config.HalfOpenMaxCalls <= 0 {
		config.HalfOpenMaxCalls = defaults.HalfOpenMaxCalls
	}
	if config.BaseBackoff <= 0 {
		config.BaseBackoff = defaults.BaseBackoff
	}
	if config.MaxBackoff <= 0 {
		config.MaxBackoff = defaults.MaxBackoff
	}

	return &CircuitBreaker{
		name:   name,
		config: config,
		logger: logger,
		state:  StateClosed,
	}
}

// Execute runs fn behind the gate. If the gate rejects the call it
// returns a *errors.CircuitOpenError without invoking fn; otherwise the
// outcome of fn is recorded and its error returned unchanged.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := cb.allowRequest(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil {
		cb.recordFailure(err)
		return err
	}

	cb.recordSuccess()
	return nil
}

// allowRequest decides whether a call may proceed, performing the lazy
// open to half-open transition when the cooldown has elapsed.
func (cb *CircuitBreaker) allowRequest() error {
	cb.mu.Lock()

	now := time.Now()
	var err error

	if cb.state == StateOpen {
		if now.Before(cb.nextAttempt) {
			err = &errors.CircuitOpenError{Dependency: cb.name, NextAttempt: cb.nextAttempt}
		} else {
			cb.transition(StateHalfOpen)
		}
	}

	if err == nil && cb.state == StateHalfOpen {
		if cb.halfOpenCalls >= cb.config.HalfOpenMaxCalls {
			// Probe budget exhausted; callers may retry right away and
			// race for the next freed-up probe slot.
			err = &errors.CircuitOpenError{Dependency: cb.name, NextAttempt: now}
		} else {
			cb.halfOpenCalls++
		}
	}

	if err == nil {
		cb.totalCalls++
	}

	notify := cb.takePendingLocked()
	cb.mu.Unlock()

	cb.notifyStateChange(notify)
	return err
}

// recordSuccess notes a successful call and closes the gate after
// enough half-open probes succeed.
func (cb *CircuitBreaker) recordSuccess() {
	cb.mu.Lock()

	cb.totalSuccesses++
	cb.lastSuccess = time.Now()

	switch cb.state {
	case StateClosed:
		// The consecutive streak resets, but failureCount is sticky:
		// it clears only on transition back to closed.
		cb.consecutiveFails = 0
	case StateHalfOpen:
		cb.halfOpenSuccess++
		if cb.halfOpenSuccess >= cb.config.SuccessThreshold {
			cb.transition(StateClosed)
		}
	}

	notify := cb.takePendingLocked()
	cb.mu.Unlock()

	cb.notifyStateChange(notify)
}

// recordFailure notes a failed call and opens the gate when the
// threshold is reached or any half-open probe fails.
func (cb *CircuitBreaker) recordFailure(err error) {
	cb.mu.Lock()

	cb.totalFailures++
	cb.lastFailure = time.Now()
	cb.consecutiveFails++

	switch cb.state {
	case StateClosed:
		cb.failureCount++
		if cb.failureCount >= cb.config.FailureThreshold {
			cb.open()
		}
	case StateHalfOpen:
		cb.open()
	}

	onError := cb.config.OnError
	notify := cb.takePendingLocked()
	cb.mu.Unlock()

	cb.notifyStateChange(notify)
	if onError != nil {
		cb.safeCallback(func() { onError(err) })
	}
}

// open transitions to open and schedules the next probe window.
// Caller holds cb.mu.
func (cb *CircuitBreaker) open() {
	now := time.Now()
	cb.openedAt = now
	cb.nextAttempt = now.Add(cb.backoff())
	cb.transition(StateOpen)
}

// backoff computes the open cooldown: exponential in the consecutive
// failure count, capped, with up to 30% random jitter.
func (cb *CircuitBreaker) backoff() time.Duration {
	exp := cb.consecutiveFails
	if exp > 10 {
		exp = 10
	}

	base := cb.config.BaseBackoff * time.Duration(1<<uint(exp))
	if base > cb.config.MaxBackoff || base <= 0 {
		base = cb.config.MaxBackoff
	}

	jitter := time.Duration(rand.Float64() * 0.3 * float64(base))
	return base + jitter
}

// stateChange is a pending OnStateChange notification. It is recorded
// under the lock and fired only after the lock is released, so the
// callback may call back into the breaker.
type stateChange struct {
	from State
	to   State
}

// transition moves to a new state and records the pending state-change
// notification. Caller holds cb.mu and must fire the notification via
// takePendingLocked/notifyStateChange after unlocking.
func (cb *CircuitBreaker) transition(newState State) {
	if cb.state == newState {
		return
	}

	previous := cb.state
	cb.state = newState

	switch newState {
	case StateClosed:
		cb.failureCount = 0
		cb.consecutiveFails = 0
		cb.halfOpenCalls = 0
		cb.halfOpenSuccess = 0
		cb.openedAt = time.Time{}
		cb.nextAttempt = time.Time{}
	case StateHalfOpen:
		cb.halfOpenCalls = 0
		cb.halfOpenSuccess = 0
		// The cooldown has elapsed; a next-attempt time only makes
		// sense while open.
		cb.nextAttempt = time.Time{}
	}

	if cb.logger != nil {
		cb.logger.Info("circuit breaker state change", map[string]interface{}{
			"breaker":  cb.name,
			"from":     string(previous),
			"to":       string(newState),
			"failures": cb.failureCount,
		})
	}

	if cb.config.OnStateChange != nil {
		cb.pending = &stateChange{from: previous, to: newState}
	}
}

// takePendingLocked returns and clears the notification recorded by the
// last transition. Caller holds cb.mu.
func (cb *CircuitBreaker) takePendingLocked() *stateChange {
	sc := cb.pending
	cb.pending = nil
	return sc
}

// notifyStateChange fires the OnStateChange callback. Must be called
// without cb.mu held.
func (cb *CircuitBreaker) notifyStateChange(sc *stateChange) {
	if sc == nil {
		return
	}
	callback := cb.config.OnStateChange
	cb.safeCallback(func() { callback(sc.to, sc.from) })
}

// safeCallback runs a user callback, recovering and logging any panic.
func (cb *CircuitBreaker) safeCallback(fn func()) {
	defer func() {
		if r := recover(); r != nil && cb.logger != nil {
			cb.logger.Error("circuit breaker callback panicked", map[string]interface{}{
				"breaker": cb.name,
				"panic":   r,
			})
		}
	}()
	fn()
}

// Reset forces the breaker back to closed and clears every counter,
// lifetime totals included. Configuration is untouched.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()

	cb.transition(StateClosed)
	cb.failureCount = 0
	cb.consecutiveFails = 0
	cb.halfOpenCalls = 0
	cb.halfOpenSuccess = 0
	cb.openedAt = time.Time{}
	cb.nextAttempt = time.Time{}
	cb.totalCalls = 0
	cb.totalFailures = 0
	cb.totalSuccesses = 0
	cb.lastFailure = time.Time{}
	cb.lastSuccess = time.Time{}

	notify := cb.takePendingLocked()
	cb.mu.Unlock()

	cb.notifyStateChange(notify)
}

// State returns the current state without side effects. The lazy
// open to half-open transition happens only on the request path.
func (cb *CircuitBreaker) State() State {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// Stats returns a snapshot of the breaker counters.
func (cb *CircuitBreaker) Stats() Stats {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	stats := Stats{
		Name:             cb.name,
		State:            cb.state,
		FailureCount:     cb.failureCount,
		ConsecutiveFails: cb.consecutiveFails,
		TotalCalls:       cb.totalCalls,
		TotalFailures:    cb.totalFailures,
		TotalSuccesses:   cb.totalSuccesses,
	}

	if !cb.openedAt.IsZero() {
		t := cb.openedAt
		stats.OpenedAt = &t
	}
	if !cb.nextAttempt.IsZero() {
		t := cb.nextAttempt
		stats.NextAttempt = &t
	}
	if !cb.lastFailure.IsZero() {
		t := cb.lastFailure
		stats.LastFailureTime = &t
	}
	if !cb.lastSuccess.IsZero() {
		t := cb.lastSuccess
		stats.LastSuccessTime = &t
	}

	return stats
}
