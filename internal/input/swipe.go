package input

import tea "charm.land/bubbletea/v2"

// DefaultSwipeDistance is the minimum horizontal drag, in cells, that counts
// as a swipe.
const DefaultSwipeDistance = 8

// Gesture is a recognized drag.
type Gesture int

const (
	GestureNone Gesture = iota
	GestureSwipeLeft
	GestureSwipeRight
)

// SwipeTracker recognizes horizontal drags from press/release pairs.
type SwipeTracker struct {
	MinDistance int

	pressed bool
	startX  int
	startY  int
}

// Press records the start of a drag.
func (s *SwipeTracker) Press(x, y int) {
	s.pressed = true
	s.startX, s.startY = x, y
}

// Release ends a drag and classifies it. A drag is a swipe when it moved at
// least MinDistance horizontally and more horizontally than vertically.
func (s *SwipeTracker) Release(x, y int) Gesture {
	if !s.pressed {
		return GestureNone
	}
	s.pressed = false

	minDist := s.MinDistance
	if minDist <= 0 {
		minDist = DefaultSwipeDistance
	}
	dx, dy := x-s.startX, y-s.startY
	if abs(dx) < minDist || abs(dx) <= abs(dy) {
		return GestureNone
	}
	if dx < 0 {
		return GestureSwipeLeft
	}
	return GestureSwipeRight
}

// HandleMouseMsg feeds mouse press/release messages to the tracker and turns
// swipes into navigation while the key adapter is attached: swiping left
// shows the next card, swiping right the previous one.
func (a *KeyAdapter) HandleMouseMsg(s *SwipeTracker, msg tea.Msg) bool {
	switch m := msg.(type) {
	case tea.MouseClickMsg:
		if m.Button == tea.MouseLeft {
			s.Press(m.X, m.Y)
		}
		return false
	case tea.MouseReleaseMsg:
		g := s.Release(m.X, m.Y)
		if g == GestureNone || !a.Attached() {
			return false
		}
		p := a.data.Paper()
		if p == nil || len(p.Exercises) == 0 {
			return false
		}
		if g == GestureSwipeLeft {
			return a.card.NextExercise(len(p.Exercises) - 1)
		}
		return a.card.PreviousExercise()
	}
	return false
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
