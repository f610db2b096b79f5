// Package conversation drives the multi-step habit creation dialogue.
package conversation

import "sync"

// State is the per-user dialogue position. Idle is represented by the absence
// of a state in the StateStore.
type State interface {
	state()
}

// AwaitingName waits for the habit name.
type AwaitingName struct{}

// AwaitingTime holds the accepted name while the user picks a reminder option.
type AwaitingTime struct {
	HabitName string
}

func (AwaitingName) state() {}
func (AwaitingTime) state() {}

// StateStore keeps conversation state in memory, keyed by user id. Concurrent
// events for the same user are last-write-wins.
type StateStore struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewStateStore constructs an empty StateStore.
func NewStateStore() *StateStore {
	return &StateStore{states: make(map[int64]State)}
}

// Get returns the user's state and whether one exists.
func (s *StateStore) Get(userID int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[userID]
	return st, ok
}

// Set replaces the user's state.
func (s *StateStore) Set(userID int64, st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.states[userID] = st
}

// Clear returns the user to Idle and reports whether there was a state to clear.
func (s *StateStore) Clear(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.states[userID]
	delete(s.states, userID)
	return ok
}

// Len returns the number of users with an active conversation.
func (s *StateStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.states)
}
