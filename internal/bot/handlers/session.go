package handlers

import "sync"

// State identifies what kind of input the bot expects from a user next.
type State int

const (
	// StateIdle means the user is navigating menus and free text gets the
	// default menu prompt.
	StateIdle State = iota
	// StateAwaitingRegion means the next text message from the user is
	// treated as a region name for market analysis.
	StateAwaitingRegion
)

// Sessions tracks per-user conversation state. Handlers run concurrently for
// different users, so access is guarded by a mutex.
type Sessions struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewSessions creates an empty session tracker.
func NewSessions() *Sessions {
	return &Sessions{states: make(map[int64]State)}
}

// Get returns the current state for the user, defaulting to StateIdle.
func (s *Sessions) Get(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID]
}

// Set records the state for the user. Setting StateIdle removes the entry so
// the map does not grow with every user the bot ever saw.
func (s *Sessions) Set(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if state == StateIdle {
		delete(s.states, userID)
		return
	}
	s.states[userID] = state
}
