package handlers

import (
	"sync"
	"testing"
)

func TestSessionsDefaultIdle(t *testing.T) {
	s := NewSessions()

	if got := s.Get(42); got != StateIdle {
		t.Errorf("Get on unknown user = %v, want StateIdle", got)
	}
}

func TestSessionsSetGet(t *testing.T) {
	s := NewSessions()

	s.Set(42, StateAwaitingRegion)
	if got := s.Get(42); got != StateAwaitingRegion {
		t.Errorf("Get after Set = %v, want StateAwaitingRegion", got)
	}

	s.Set(42, StateIdle)
	if got := s.Get(42); got != StateIdle {
		t.Errorf("Get after reset = %v, want StateIdle", got)
	}
	if len(s.states) != 0 {
		t.Errorf("states map has %d entries after reset, want 0", len(s.states))
	}
}

func TestSessionsIsolatedPerUser(t *testing.T) {
	s := NewSessions()

	s.Set(1, StateAwaitingRegion)
	if got := s.Get(2); got != StateIdle {
		t.Errorf("state for user 2 = %v, want StateIdle", got)
	}
}

func TestSessionsConcurrentAccess(t *testing.T) {
	s := NewSessions()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			s.Set(id, StateAwaitingRegion)
			_ = s.Get(id)
			s.Set(id, StateIdle)
		}(int64(i))
	}
	wg.Wait()

	if len(s.states) != 0 {
		t.Errorf("states map has %d entries after all resets, want 0", len(s.states))
	}
}
