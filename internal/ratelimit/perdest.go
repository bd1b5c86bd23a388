package ratelimit

import (
	"sync"
	"time"

	"github.com/compresr/bot-gateway/internal/model"
)

const (
	privateMinInterArrival = 1000 * time.Millisecond
	groupMaxPerWindow      = 20
	sweepInterval          = window
)

type destHistory struct {
	kind     model.DestinationKind
	instants []time.Time
}

// PerDestination enforces the per-chat pacing policy from spec.md §3:
// private destinations get a minimum inter-arrival time, group/channel
// destinations get a sliding-window budget. State is tracked separately
// per destination id so two destinations never contend on each other's
// budget.
type PerDestination struct {
	mu        sync.Mutex
	history   map[string]*destHistory
	lastSweep time.Time
}

// NewPerDestination builds an empty per-destination limiter.
func NewPerDestination() *PerDestination {
	return &PerDestination{history: make(map[string]*destHistory)}
}

// AdmitFor checks whether destId may send now under its classified
// policy, without recording anything.
func (p *PerDestination) AdmitFor(destID string, kind model.DestinationKind) Admission {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.sweepLocked(now)

	h := p.history[destID]
	if h == nil {
		return Admission{Allowed: true}
	}

	if kind == model.DestinationPrivate {
		return admitPrivate(h, now)
	}
	return admitGroup(h, now)
}

func admitPrivate(h *destHistory, now time.Time) Admission {
	if len(h.instants) == 0 {
		return Admission{Allowed: true}
	}
	last := h.instants[len(h.instants)-1]
	elapsed := now.Sub(last)
	if elapsed >= privateMinInterArrival {
		return Admission{Allowed: true}
	}
	waitMs := (privateMinInterArrival - elapsed).Milliseconds()
	if waitMs < 0 {
		waitMs = 0
	}
	return Admission{Allowed: false, WaitMs: waitMs}
}

func admitGroup(h *destHistory, now time.Time) Admission {
	cutoff := now.Add(-window)
	count := 0
	oldestInWindow := now
	for _, t := range h.instants {
		if t.After(cutoff) {
			count++
			if t.Before(oldestInWindow) {
				oldestInWindow = t
			}
		}
	}
	if count < groupMaxPerWindow {
		return Admission{Allowed: true}
	}
	waitMs := window.Milliseconds() - now.Sub(oldestInWindow).Milliseconds()
	if waitMs < 0 {
		waitMs = 0
	}
	return Admission{Allowed: false, WaitMs: waitMs}
}

// RecordFor appends now to destId's history, classifying it on first
// use if not already tracked.
func (p *PerDestination) RecordFor(destID string, kind model.DestinationKind) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	h := p.history[destID]
	if h == nil {
		h = &destHistory{kind: kind}
		p.history[destID] = h
	}
	h.instants = append(h.instants, now)
}

// Tracked reports how many distinct destinations currently have history.
func (p *PerDestination) Tracked() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return len(p.history)
}

// sweepLocked drops destinations whose entire history is outside the
// trailing window, at most once per window per spec.md §3. Must be
// called with p.mu held.
func (p *PerDestination) sweepLocked(now time.Time) {
	if now.Sub(p.lastSweep) < sweepInterval {
		return
	}
	p.lastSweep = now

	cutoff := now.Add(-window)
	for id, h := range p.history {
		stale := true
		for _, t := range h.instants {
			if t.After(cutoff) {
				stale = false
				break
			}
		}
		if stale {
			delete(p.history, id)
		}
	}
}
