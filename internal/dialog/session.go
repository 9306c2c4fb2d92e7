// Package dialog tracks where each recipient is in a guided exchange and
// validates the free-text input those exchanges consume.
//
// Sessions are process-local by design: after a restart everyone is back at
// StateIdle and an in-flight dialog is simply lost. There is also no timeout
// on a dialog state; a recipient may sit in StateAwaitTime indefinitely.
package dialog

import "sync"

// State is the active dialog of one recipient.
type State int

const (
	StateIdle State = iota
	StateAwaitTime
	StateAwaitQuote
)

func (s State) String() string {
	switch s {
	case StateAwaitTime:
		return "await_time"
	case StateAwaitQuote:
		return "await_quote"
	default:
		return "idle"
	}
}

// Sessions is an in-memory map of recipient id to dialog state.
// The zero state for an unknown recipient is StateIdle.
type Sessions struct {
	mu sync.RWMutex
	m  map[int64]State
}

func NewSessions() *Sessions {
	return &Sessions{m: make(map[int64]State)}
}

func (s *Sessions) Get(userID int64) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[userID]
}

func (s *Sessions) Set(userID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st == StateIdle {
		delete(s.m, userID)
		return
	}
	s.m[userID] = st
}

// Clear resets the recipient to StateIdle.
func (s *Sessions) Clear(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
