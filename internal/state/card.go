package state

import "sync"

// ViewMode selects how exercises are presented.
type ViewMode string

const (
	ViewScroll ViewMode = "scroll"
	ViewCard   ViewMode = "card"
)

// Direction records which way the cursor last moved. It only drives the
// entry animation of the next card.
type Direction string

const (
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// CardStore owns the card-view cursor, the marked exercises and the
// navigation panel visibility.
type CardStore struct {
	notifier

	mu        sync.RWMutex
	viewMode  ViewMode
	current   int
	marked    map[string]struct{}
	panelOpen bool
	direction Direction
	filter    Filter
}

// NewCardStore returns a store in scroll mode at index 0.
func NewCardStore() *CardStore {
	return &CardStore{
		viewMode:  ViewScroll,
		marked:    map[string]struct{}{},
		direction: DirectionRight,
		filter:    FilterAll,
	}
}

// CardSnapshot is a consistent copy of the navigation state.
type CardSnapshot struct {
	ViewMode             ViewMode
	CurrentExerciseIndex int
	Marked               map[string]bool
	NavigationPanelOpen  bool
	Direction            Direction
	Filter               Filter
}

// Snapshot returns the whole navigation state under one lock.
func (s *CardStore) Snapshot() CardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return CardSnapshot{
		ViewMode:             s.viewMode,
		CurrentExerciseIndex: s.current,
		Marked:               s.markedCopy(),
		NavigationPanelOpen:  s.panelOpen,
		Direction:            s.direction,
		Filter:               s.filter,
	}
}

func (s *CardStore) ViewMode() ViewMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewMode
}

func (s *CardStore) SetViewMode(m ViewMode) {
	s.mu.Lock()
	s.viewMode = m
	s.mu.Unlock()
	notify(s.bump())
}

func (s *CardStore) CurrentExerciseIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// SetCurrentExerciseIndex moves the cursor without touching direction.
// Negative indices are ignored.
func (s *CardStore) SetCurrentExerciseIndex(idx int) {
	if idx < 0 {
		return
	}
	s.mu.Lock()
	s.current = idx
	s.mu.Unlock()
	notify(s.bump())
}

func (s *CardStore) Direction() Direction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.direction
}

// NextExercise advances the cursor when it is below maxIndex.
func (s *CardStore) NextExercise(maxIndex int) bool {
	s.mu.Lock()
	if s.current >= maxIndex {
		s.mu.Unlock()
		return false
	}
	s.current++
	s.direction = DirectionRight
	s.mu.Unlock()
	notify(s.bump())
	return true
}

// PreviousExercise moves the cursor back when it is above 0.
func (s *CardStore) PreviousExercise() bool {
	s.mu.Lock()
	if s.current <= 0 {
		s.mu.Unlock()
		return false
	}
	s.current--
	s.direction = DirectionLeft
	s.mu.Unlock()
	notify(s.bump())
	return true
}

// JumpToExercise moves the cursor to index. Indices outside [0, maxIndex]
// are ignored. Jumping to the current index keeps the direction.
func (s *CardStore) JumpToExercise(index, maxIndex int) bool {
	if index < 0 || index > maxIndex {
		return false
	}
	s.mu.Lock()
	switch {
	case index > s.current:
		s.direction = DirectionRight
	case index < s.current:
		s.direction = DirectionLeft
	}
	s.current = index
	s.mu.Unlock()
	notify(s.bump())
	return true
}

// IsMarked reports whether the exercise is flagged for review.
func (s *CardStore) IsMarked(exerciseID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.marked[exerciseID]
	return ok
}

// Marked returns a copy of the marked set.
func (s *CardStore) Marked() map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.markedCopy()
}

// ToggleMarkExercise flips membership of exerciseID in the marked set.
func (s *CardStore) ToggleMarkExercise(exerciseID string) {
	s.mu.Lock()
	next := make(map[string]struct{}, len(s.marked)+1)
	for id := range s.marked {
		next[id] = struct{}{}
	}
	if _, ok := next[exerciseID]; ok {
		delete(next, exerciseID)
	} else {
		next[exerciseID] = struct{}{}
	}
	s.marked = next
	s.mu.Unlock()
	notify(s.bump())
}

func (s *CardStore) NavigationPanelOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelOpen
}

func (s *CardStore) ToggleNavigationPanel() {
	s.mu.Lock()
	s.panelOpen = !s.panelOpen
	s.mu.Unlock()
	notify(s.bump())
}

func (s *CardStore) Filter() Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filter
}

// SetFilter selects which exercises the navigation panel lists.
func (s *CardStore) SetFilter(f Filter) {
	s.mu.Lock()
	s.filter = f
	s.mu.Unlock()
	notify(s.bump())
}

// Reset restores the initial navigation state, clearing marks.
func (s *CardStore) Reset() {
	s.mu.Lock()
	s.viewMode = ViewScroll
	s.current = 0
	s.marked = map[string]struct{}{}
	s.panelOpen = false
	s.direction = DirectionRight
	s.filter = FilterAll
	s.mu.Unlock()
	notify(s.bump())
}

func (s *CardStore) markedCopy() map[string]bool {
	out := make(map[string]bool, len(s.marked))
	for id := range s.marked {
		out[id] = true
	}
	return out
}
