package clock

import (
	"sort"
	"sync"
	"time"
)

// Manual is a Clock that only moves when told to. Timers created with After
// fire in deadline order as Advance or Set pass them.
type Manual struct {
	mu      sync.Mutex
	now     time.Time
	waiters []waiter
}

type waiter struct {
	at time.Time
	ch chan time.Time
}

// NewManual returns a Manual clock reading start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start.UTC()}
}

// Now returns the manual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// After returns a channel that receives once the clock has moved d past now.
// A non-positive d fires immediately.
func (m *Manual) After(d time.Duration) <-chan time.Time {
	ch := make(chan time.Time, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if d <= 0 {
		ch <- m.now
		return ch
	}
	w := waiter{at: m.now.Add(d), ch: ch}
	i := sort.Search(len(m.waiters), func(i int) bool { return m.waiters[i].at.After(w.at) })
	m.waiters = append(m.waiters, waiter{})
	copy(m.waiters[i+1:], m.waiters[i:])
	m.waiters[i] = w
	return ch
}

// Sleep blocks until another goroutine moves the clock d forward.
func (m *Manual) Sleep(d time.Duration) {
	<-m.After(d)
}

// Advance moves the clock forward by d (negative is treated as zero) and
// returns the new time.
func (m *Manual) Advance(d time.Duration) time.Time {
	if d < 0 {
		d = 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.setLocked(m.now.Add(d))
}

// Set moves the clock to t. Times before now are ignored.
func (m *Manual) Set(t time.Time) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.Before(m.now) {
		return m.now
	}
	return m.setLocked(t.UTC())
}

func (m *Manual) setLocked(t time.Time) time.Time {
	m.now = t
	fired := 0
	for _, w := range m.waiters {
		if w.at.After(t) {
			break
		}
		w.ch <- t
		fired++
	}
	m.waiters = append(m.waiters[:0], m.waiters[fired:]...)
	return t
}

// Pending returns the number of timers not yet fired.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.waiters)
}

// BlockUntil polls in real time until at least n timers are pending. It
// reports false if timeout passes first.
func (m *Manual) BlockUntil(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for m.Pending() < n {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(time.Millisecond)
	}
	return true
}
