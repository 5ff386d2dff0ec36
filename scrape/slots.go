package scrape

import (
	"context"
	"sync"
	"time"
)

// captureSlots holds the two network artifacts a capture session waits for.
// Each slot is written once, first capture wins; the CDP event goroutine is
// the only writer and the session control flow only reads, so a plain mutex
// around set-if-empty is all the coordination needed.
type captureSlots struct {
	mu     sync.Mutex
	roster []RosterChannel
	creds  *Credentials
	done   chan struct{}
	closed bool
}

func newCaptureSlots() *captureSlots {
	return &captureSlots{done: make(chan struct{})}
}

// setRoster stores the roster if the slot is empty. Reports whether the
// value was stored.
func (s *captureSlots) setRoster(roster []RosterChannel) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.roster != nil {
		return false
	}
	s.roster = roster
	s.maybeCloseLocked()
	return true
}

// setCredentials stores the credentials if the slot is empty. Reports
// whether the value was stored.
func (s *captureSlots) setCredentials(creds Credentials) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds != nil {
		return false
	}
	s.creds = &creds
	s.maybeCloseLocked()
	return true
}

func (s *captureSlots) hasRoster() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.roster != nil
}

func (s *captureSlots) maybeCloseLocked() {
	if s.roster != nil && s.creds != nil && !s.closed {
		s.closed = true
		close(s.done)
	}
}

// reset clears both slots and re-arms the done channel. Called before a
// lineup change that will retrigger both API calls, so stale captures from
// the previous lineup are discarded.
func (s *captureSlots) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roster = nil
	s.creds = nil
	s.done = make(chan struct{})
	s.closed = false
}

// wait blocks until both slots are filled, the deadline elapses, or ctx is
// cancelled. On the deadline it returns ErrCaptureTimeout.
func (s *captureSlots) wait(ctx context.Context, deadline time.Duration) (*Capture, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		return nil, ErrCaptureTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return &Capture{Roster: s.roster, Credentials: *s.creds}, nil
}
