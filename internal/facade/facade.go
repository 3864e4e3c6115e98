// Package facade offers one merged view over the session stores and the
// orchestrator's workflows, for callers that read everything at once.
package facade

import (
	"context"

	"github.com/abhisek/paperz/internal/actions"
	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/state"
)

// Actions are the workflows exposed through the facade. *actions.Orchestrator
// satisfies it.
type Actions interface {
	LoadPaper(ctx context.Context, paperID string)
	StartPaper(ctx context.Context) error
	SubmitAnswer(ctx context.Context, exerciseID, itemID string, answerIndex int) error
	CompletePaper(ctx context.Context) error
	AbandonPaper(ctx context.Context) error
	RetryPaper(ctx context.Context) error
	Reset()
}

// State is the merged contents of the three stores.
type State struct {
	state.DataSnapshot
	state.StatusSnapshot
	state.CardSnapshot
}

// View is State plus the derived score and the workflows.
type View struct {
	State
	Stats   state.Stats
	Actions Actions
}

// Patch is a partial update. Nil fields are left alone. Fields are applied
// in declaration order, so a new Paper is in place before Answers are
// filtered against it.
type Patch struct {
	Paper           *paper.Paper
	UserPapers      []paper.Attempt
	ActiveUserPaper *paper.Attempt
	Mode            *paper.Status
	Answers         paper.AnswerMap

	IsLoading    *bool
	Error        *string
	IsSubmitting *bool

	ViewMode             *state.ViewMode
	CurrentExerciseIndex *int
	NavigationPanelOpen  *bool
	Filter               *state.Filter
}

// Facade reads through to the stores on every call; it keeps nothing.
type Facade struct {
	stores  actions.Stores
	actions Actions
}

// New builds a facade over stores. a may be nil for read-only use.
func New(stores actions.Stores, a Actions) *Facade {
	return &Facade{stores: stores, actions: a}
}

// ForOrchestrator builds a facade over an orchestrator and its stores.
func ForOrchestrator(o *actions.Orchestrator) *Facade {
	return New(o.Stores(), o)
}

// GetState returns the merged store contents.
func (f *Facade) GetState() State {
	return State{
		DataSnapshot:   f.stores.Data.Snapshot(),
		StatusSnapshot: f.stores.Status.Snapshot(),
		CardSnapshot:   f.stores.Card.Snapshot(),
	}
}

// Get returns the merged state, its stats and the workflows.
func (f *Facade) Get() View {
	return View{
		State:   f.GetState(),
		Stats:   f.stores.Data.CalculateStats(),
		Actions: f.actions,
	}
}

// Select applies fn to the current view.
func Select[T any](f *Facade, fn func(View) T) T {
	return fn(f.Get())
}

// SetState routes each set field of p to the store that owns it.
func (f *Facade) SetState(p Patch) {
	data, status, card := f.stores.Data, f.stores.Status, f.stores.Card

	if p.Paper != nil {
		data.SetPaper(p.Paper)
	}
	if p.UserPapers != nil {
		data.SetUserPapers(p.UserPapers)
	}
	if p.ActiveUserPaper != nil {
		data.SetActiveUserPaper(p.ActiveUserPaper)
	}
	if p.Mode != nil {
		data.SetMode(*p.Mode)
	}
	if p.Answers != nil {
		data.SetAnswers(p.Answers)
	}

	if p.IsLoading != nil {
		status.SetIsLoading(*p.IsLoading)
	}
	if p.Error != nil {
		if *p.Error == "" {
			status.ClearError()
		} else {
			status.SetError(*p.Error)
		}
	}
	if p.IsSubmitting != nil {
		status.SetIsSubmitting(*p.IsSubmitting)
	}

	if p.ViewMode != nil {
		card.SetViewMode(*p.ViewMode)
	}
	if p.CurrentExerciseIndex != nil {
		card.SetCurrentExerciseIndex(*p.CurrentExerciseIndex)
	}
	if p.NavigationPanelOpen != nil && card.NavigationPanelOpen() != *p.NavigationPanelOpen {
		card.ToggleNavigationPanel()
	}
	if p.Filter != nil {
		card.SetFilter(*p.Filter)
	}
}
