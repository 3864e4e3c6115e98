// Package input translates key presses and drag gestures into card
// navigation. It holds no state beyond whether it is attached.
package input

import (
	"sync"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/paperz/internal/state"
)

// FocusReporter reports whether a text input currently owns the keyboard.
type FocusReporter interface {
	Focused() bool
}

// KeyAdapter maps keys onto the card store. It is attached only while the
// card view is active and a paper is loaded; it re-evaluates this on every
// change of either store.
type KeyAdapter struct {
	data  *state.DataStore
	card  *state.CardStore
	focus FocusReporter

	mu       sync.Mutex
	attached bool
	unsubs   []func()
	closed   bool
}

// NewKeyAdapter creates an adapter and starts following the stores. focus
// may be nil.
func NewKeyAdapter(data *state.DataStore, card *state.CardStore, focus FocusReporter) *KeyAdapter {
	a := &KeyAdapter{data: data, card: card, focus: focus}
	a.unsubs = []func(){
		data.Subscribe(a.Sync),
		card.Subscribe(a.Sync),
	}
	a.Sync()
	return a
}

// Sync attaches or detaches the adapter from the current store state.
func (a *KeyAdapter) Sync() {
	want := a.card.ViewMode() == state.ViewCard && a.data.Paper() != nil

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.attached = want
}

// Attached reports whether key events are currently handled.
func (a *KeyAdapter) Attached() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.attached
}

// Close detaches the adapter for good and drops its store subscriptions.
func (a *KeyAdapter) Close() {
	a.mu.Lock()
	unsubs := a.unsubs
	a.unsubs = nil
	a.attached = false
	a.closed = true
	a.mu.Unlock()

	for _, u := range unsubs {
		u()
	}
}

// HandleKeyMsg handles a bubbletea key press. It reports whether the key
// was consumed.
func (a *KeyAdapter) HandleKeyMsg(msg tea.KeyPressMsg) bool {
	return a.HandleKey(msg.String())
}

// HandleKey handles a key by name ("left", "home", "m", "3", ...).
func (a *KeyAdapter) HandleKey(key string) bool {
	if !a.Attached() || (a.focus != nil && a.focus.Focused()) {
		return false
	}

	p := a.data.Paper()
	if p == nil || len(p.Exercises) == 0 {
		return false
	}
	last := len(p.Exercises) - 1

	switch key {
	case "left":
		a.card.PreviousExercise()
	case "right":
		a.card.NextExercise(last)
	case "home":
		a.card.JumpToExercise(0, last)
	case "end":
		a.card.JumpToExercise(last, last)
	case "m", "M":
		cur := a.card.CurrentExerciseIndex()
		if cur >= 0 && cur <= last {
			a.card.ToggleMarkExercise(p.Exercises[cur].ID)
		}
	case "n", "N":
		a.card.ToggleNavigationPanel()
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		idx := int(key[0]-'1')
		if idx > last {
			return false
		}
		a.card.JumpToExercise(idx, last)
	default:
		return false
	}
	return true
}
