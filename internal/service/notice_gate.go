package service

import (
	"sync"
	"time"
)

type gateState int

const (
	gateIdle gateState = iota
	gateSuppressing
)

// NoticeGate limits a notification to one per window. It is shared across
// offers: a notice for one offer suppresses another's within the window.
type NoticeGate struct {
	mu     sync.Mutex
	window time.Duration
	state  gateState
	until  time.Time
}

func NewNoticeGate(window time.Duration) *NoticeGate {
	return &NoticeGate{window: window}
}

// Allow reports whether a notification may be shown at now and, if so,
// starts a new suppression window.
func (g *NoticeGate) Allow(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.suppressingAt(now) {
		return false
	}
	g.state = gateSuppressing
	g.until = now.Add(g.window)
	return true
}

func (g *NoticeGate) Suppressing(now time.Time) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.suppressingAt(now)
}

func (g *NoticeGate) suppressingAt(now time.Time) bool {
	if g.state == gateSuppressing && !now.Before(g.until) {
		g.state = gateIdle
		g.until = time.Time{}
	}
	return g.state == gateSuppressing
}
