// Package breaker implements the three-state circuit breaker
// (component G) that guards the outbound HTTP call: closed under
// normal operation, open after a run of qualifying failures, half-open
// while probing recovery.
//
// Grounded on the interface shape of the retrieval pack's breaker
// example (State enum, BreakerConfig-style thresholds), specialised to
// spec.md §3-§4's exact transition rules: open after 5 consecutive
// qualifying failures, half-open after a 30s cooldown observed lazily
// on admission.
package breaker

import (
	"sync"
	"time"
)

// State is one of the breaker's three phases.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

const (
	failureThreshold = 5
	cooldown         = 30 * time.Second
)

// Admission is the outcome of an admit() check.
type Admission struct {
	Allowed bool
	Phase   State
}

// TransitionFunc is invoked whenever the breaker's phase changes, so
// the caller can drive metric side effects (gauge set, trip counter)
// without the breaker importing a metrics package directly. Never
// called while the breaker's internal lock is held.
type TransitionFunc func(from, to State)

// Breaker is a mutex-guarded state machine. No lock is held across the
// HTTP exchange it guards: Admit releases the lock before returning,
// and OnSuccess/OnFailure re-acquire it once the call completes.
type Breaker struct {
	mu                  sync.Mutex
	phase               State
	consecutiveFailures int
	openedAt            time.Time
	onTransition        TransitionFunc
}

// New builds a breaker starting closed.
func New(onTransition TransitionFunc) *Breaker {
	return &Breaker{phase: StateClosed, onTransition: onTransition}
}

// Admit performs the lazy open->half-open transition and reports
// whether the call may proceed. In half-open, every admission is
// allowed to proceed (optimistic probing per spec.md §4.G); the first
// completion to call OnSuccess closes the breaker.
func (b *Breaker) Admit() Admission {
	var result Admission
	from, to, changed := b.withLock(func() {
		if b.phase == StateOpen && time.Since(b.openedAt) >= cooldown {
			b.setPhaseLocked(StateHalfOpen)
		}
		result = Admission{Allowed: b.phase != StateOpen, Phase: b.phase}
	})

	b.notify(from, to, changed)
	return result
}

// OnSuccess closes the breaker and resets the failure count. In
// half-open, the first success to arrive closes the breaker even if
// other optimistic probes are still in flight.
func (b *Breaker) OnSuccess() {
	from, to, changed := b.withLock(func() {
		b.consecutiveFailures = 0
		if b.phase != StateClosed {
			b.setPhaseLocked(StateClosed)
		}
	})
	b.notify(from, to, changed)
}

// OnFailure records a failure. errorCode is nil for network/transport
// failures. A non-qualifying failure (a client error, or a 429) is a
// no-op: it never moves the breaker or resets its counter.
func (b *Breaker) OnFailure(errorCode *int) {
	if !isQualifying(errorCode) {
		return
	}

	from, to, changed := b.withLock(func() {
		b.consecutiveFailures++

		switch b.phase {
		case StateHalfOpen:
			b.setPhaseLocked(StateOpen)
		case StateClosed:
			if b.consecutiveFailures >= failureThreshold {
				b.setPhaseLocked(StateOpen)
			}
		}
	})
	b.notify(from, to, changed)
}

// Phase returns the current phase without mutating state (the lazy
// open->half-open transition only happens on Admit).
func (b *Breaker) Phase() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

func isQualifying(errorCode *int) bool {
	if errorCode == nil {
		return true
	}
	return *errorCode >= 500
}

// withLock runs fn under the mutex and reports whether it changed the
// phase, so the caller can fire the transition callback afterwards
// without holding the lock.
func (b *Breaker) withLock(fn func()) (from, to State, changed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	before := b.phase
	fn()
	after := b.phase
	return before, after, before != after
}

// setPhaseLocked must be called with b.mu held.
func (b *Breaker) setPhaseLocked(to State) {
	b.phase = to
	if to == StateOpen {
		b.openedAt = time.Now()
	}
	if to == StateClosed {
		b.consecutiveFailures = 0
	}
}

func (b *Breaker) notify(from, to State, changed bool) {
	if changed && b.onTransition != nil {
		b.onTransition(from, to)
	}
}
