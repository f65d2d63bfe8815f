package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// TransitionFunc observes state changes. It runs after the breaker lock is released.
type TransitionFunc func(from, to CircuitState)

// CircuitBreaker guards an upstream dependency. Consecutive failures open it, and after
// openTimeout a bounded number of probes decide whether it closes again.
type CircuitBreaker struct {
	mu sync.Mutex

	failureThreshold int
	openTimeout      time.Duration
	halfOpenMaxReq   int

	state        CircuitState
	failures     int
	openedAt     time.Time
	probes       int
	probesPassed int
	rejected     int64
	changedAt    time.Time
	onTransition TransitionFunc
	now          func() time.Time
}

// Snapshot is a point-in-time view of a breaker, used by health reporting.
type Snapshot struct {
	State               CircuitState  `json:"state"`
	ConsecutiveFailures int           `json:"consecutiveFailures"`
	Rejected            int64         `json:"rejected"`
	Since               time.Time     `json:"since,omitempty"`
	RetryAfter          time.Duration `json:"-"`
	RetryAfterMs        int64         `json:"retryAfterMs,omitempty"`
}

func NewCircuitBreaker(failureThreshold int, openTimeout time.Duration, halfOpenMaxReq int) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold: max(failureThreshold, 1),
		openTimeout:      cmpOr(openTimeout, DefaultCircuitBreakerConfig().OpenTimeout),
		halfOpenMaxReq:   max(halfOpenMaxReq, 1),
		state:            CircuitStateClosed,
		now:              time.Now,
	}
}

// OnTransition registers fn to be told about every state change.
func (b *CircuitBreaker) OnTransition(fn TransitionFunc) {
	b.mu.Lock()
	b.onTransition = fn
	b.mu.Unlock()
}

// Allow reserves a call slot. Open breakers reject until openTimeout has passed,
// then admit up to halfOpenMaxReq concurrent probes.
func (b *CircuitBreaker) Allow() error {
	b.mu.Lock()
	from := b.state
	err := b.allowLocked()
	to, notify := b.state, b.onTransition
	b.mu.Unlock()

	b.emit(notify, from, to)
	return err
}

func (b *CircuitBreaker) allowLocked() error {
	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.openTimeout {
			b.rejected++
			return ErrCircuitOpen
		}
		b.moveTo(CircuitStateHalfOpen)
	}

	if b.state == CircuitStateHalfOpen {
		if b.probes >= b.halfOpenMaxReq {
			b.rejected++
			return ErrCircuitOpen
		}
		b.probes++
	}
	return nil
}

func (b *CircuitBreaker) RecordSuccess() {
	b.record(func() {
		switch b.state {
		case CircuitStateClosed:
			b.failures = 0
		case CircuitStateHalfOpen:
			b.releaseProbe()
			b.probesPassed++
			if b.probesPassed >= b.halfOpenMaxReq && b.probes == 0 {
				b.moveTo(CircuitStateClosed)
			}
		}
	})
}

func (b *CircuitBreaker) RecordFailure() {
	b.record(func() {
		switch b.state {
		case CircuitStateClosed:
			b.failures++
			if b.failures >= b.failureThreshold {
				b.moveTo(CircuitStateOpen)
			}
		case CircuitStateHalfOpen:
			b.releaseProbe()
			b.moveTo(CircuitStateOpen)
		case CircuitStateOpen:
			b.openedAt = b.now()
		}
	})
}

// State reports half_open once an open breaker's cooldown has elapsed, even before
// the next Allow performs the transition.
func (b *CircuitBreaker) State() CircuitState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.effectiveStateLocked()
}

func (b *CircuitBreaker) Snapshot() Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := Snapshot{
		State:               b.effectiveStateLocked(),
		ConsecutiveFailures: b.failures,
		Rejected:            b.rejected,
		Since:               b.changedAt,
	}
	if snap.State == CircuitStateOpen {
		snap.RetryAfter = b.openTimeout - b.now().Sub(b.openedAt)
		snap.RetryAfterMs = snap.RetryAfter.Milliseconds()
	}
	return snap
}

func (b *CircuitBreaker) effectiveStateLocked() CircuitState {
	if b.state == CircuitStateOpen && b.now().Sub(b.openedAt) >= b.openTimeout {
		return CircuitStateHalfOpen
	}
	return b.state
}

func (b *CircuitBreaker) record(apply func()) {
	b.mu.Lock()
	from := b.state
	apply()
	to, notify := b.state, b.onTransition
	b.mu.Unlock()

	b.emit(notify, from, to)
}

func (b *CircuitBreaker) releaseProbe() {
	if b.probes > 0 {
		b.probes--
	}
}

func (b *CircuitBreaker) moveTo(state CircuitState) {
	now := b.now()
	b.state = state
	b.probes = 0
	b.probesPassed = 0
	b.changedAt = now

	switch state {
	case CircuitStateClosed:
		b.failures = 0
		b.openedAt = time.Time{}
	case CircuitStateOpen:
		b.openedAt = now
	}
}

func (b *CircuitBreaker) emit(fn TransitionFunc, from, to CircuitState) {
	if fn != nil && from != to {
		fn(from, to)
	}
}

func cmpOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
