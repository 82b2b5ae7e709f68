package server

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	maxStreamsPerIP   = 4
	streamDialsPerSec = 2.0
	streamDialBurst   = 5
	limiterIdleCutoff = 10 * time.Minute
)

// wsConnLimiter caps concurrent websocket connections per IP and the rate
// of new dials. One operator drives a handful of streams; anything beyond
// that is a runaway client.
type wsConnLimiter struct {
	mu     sync.Mutex
	states map[string]*ipConnState
}

type ipConnState struct {
	active   int
	dials    *rate.Limiter
	lastSeen time.Time
}

func newWSConnLimiter() *wsConnLimiter {
	return &wsConnLimiter{states: make(map[string]*ipConnState)}
}

// acquire reserves a connection slot for ip. Returns false when the IP is
// at its concurrent cap or dialing too fast.
func (l *wsConnLimiter) acquire(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.states[ip]
	if !ok {
		st = &ipConnState{dials: rate.NewLimiter(rate.Limit(streamDialsPerSec), streamDialBurst)}
		l.states[ip] = st
	}
	st.lastSeen = time.Now()

	if st.active >= maxStreamsPerIP {
		return false
	}
	if !st.dials.Allow() {
		return false
	}
	st.active++
	return true
}

// release frees a slot for ip and drops long-idle per-IP state so the map
// does not grow with every address ever seen.
func (l *wsConnLimiter) release(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	st, ok := l.states[ip]
	if !ok {
		return
	}
	if st.active > 0 {
		st.active--
	}
	if st.active == 0 {
		cutoff := time.Now().Add(-limiterIdleCutoff)
		for addr, other := range l.states {
			if other.active == 0 && other.lastSeen.Before(cutoff) {
				delete(l.states, addr)
			}
		}
	}
}

// activeFor returns the current connection count for ip.
func (l *wsConnLimiter) activeFor(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if st, ok := l.states[ip]; ok {
		return st.active
	}
	return 0
}
