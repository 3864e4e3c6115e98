package facade

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/paperz/internal/actions"
	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/paperapi"
	"github.com/abhisek/paperz/internal/state"
)

func twoItemPaper() *paper.Paper {
	opts := []paper.Option{{Text: "yes", IsCorrect: true}, {Text: "no"}}
	return &paper.Paper{
		ID: "p1",
		Exercises: []paper.Exercise{
			{ID: "ex-0", Type: paper.TypeSingleChoice, Items: []paper.ExerciseItem{{ID: "item-0", Options: opts}}},
			{ID: "ex-1", Type: paper.TypeSingleChoice, Items: []paper.ExerciseItem{{ID: "item-1", Options: opts}}},
		},
		TotalItems: 2,
	}
}

func ptr[T any](v T) *T { return &v }

func TestGetMergesStores(t *testing.T) {
	stores := actions.NewStores()
	f := New(stores, nil)

	stores.Data.SetPaper(twoItemPaper())
	stores.Data.SetMode(paper.StatusInProgress)
	stores.Data.SetAnswer("item-0", 0)
	stores.Status.SetError("boom")
	stores.Card.SetViewMode(state.ViewCard)
	stores.Card.ToggleMarkExercise("ex-1")

	v := f.Get()
	assert.Equal(t, "p1", v.Paper.ID)
	assert.Equal(t, paper.StatusInProgress, v.Mode)
	assert.Equal(t, paper.AnswerMap{"item-0": 0}, v.Answers)
	assert.Equal(t, "boom", v.Error)
	assert.Equal(t, state.ViewCard, v.ViewMode)
	assert.True(t, v.Marked["ex-1"])
	assert.Equal(t, state.Stats{CorrectCount: 1, TotalCount: 2, Score: 50}, v.Stats)
	assert.Nil(t, v.Actions)
}

func TestGetReadsThrough(t *testing.T) {
	stores := actions.NewStores()
	f := New(stores, nil)

	assert.Equal(t, 0, f.GetState().CurrentExerciseIndex)
	stores.Card.SetCurrentExerciseIndex(3)
	assert.Equal(t, 3, f.GetState().CurrentExerciseIndex, "no cached copy")
}

func TestSetStateRoutesToOwningStore(t *testing.T) {
	stores := actions.NewStores()
	f := New(stores, nil)
	dataV, statusV, cardV := stores.Data.Version(), stores.Status.Version(), stores.Card.Version()

	f.SetState(Patch{IsLoading: ptr(true)})
	assert.True(t, stores.Status.IsLoading())
	assert.Equal(t, dataV, stores.Data.Version())
	assert.Equal(t, cardV, stores.Card.Version())
	assert.Greater(t, stores.Status.Version(), statusV)

	f.SetState(Patch{ViewMode: ptr(state.ViewCard), NavigationPanelOpen: ptr(true), Filter: ptr(state.FilterMarked)})
	snap := stores.Card.Snapshot()
	assert.Equal(t, state.ViewCard, snap.ViewMode)
	assert.True(t, snap.NavigationPanelOpen)
	assert.Equal(t, state.FilterMarked, snap.Filter)

	f.SetState(Patch{NavigationPanelOpen: ptr(true)})
	assert.True(t, stores.Card.NavigationPanelOpen(), "setting the same value keeps it")
	assert.Equal(t, dataV, stores.Data.Version())
}

func TestSetStatePaperBeforeAnswers(t *testing.T) {
	stores := actions.NewStores()
	f := New(stores, nil)

	f.SetState(Patch{
		Paper:   twoItemPaper(),
		Mode:    ptr(paper.StatusInProgress),
		Answers: paper.AnswerMap{"item-1": 1, "ghost": 0},
	})

	assert.Equal(t, "p1", stores.Data.Paper().ID)
	assert.Equal(t, paper.StatusInProgress, stores.Data.Mode())
	assert.Equal(t, paper.AnswerMap{"item-1": 1}, stores.Data.Answers(), "unknown items dropped")
}

func TestSetStateErrorClear(t *testing.T) {
	stores := actions.NewStores()
	f := New(stores, nil)

	f.SetState(Patch{Error: ptr("broken")})
	assert.Equal(t, "broken", stores.Status.ErrorMessage())
	f.SetState(Patch{Error: ptr("")})
	assert.Empty(t, stores.Status.ErrorMessage())
}

func TestSelect(t *testing.T) {
	stores := actions.NewStores()
	f := New(stores, nil)
	stores.Data.SetMode(paper.StatusCompleted)

	mode := Select(f, func(v View) paper.Status { return v.Mode })
	assert.Equal(t, paper.StatusCompleted, mode)
}

func TestActionsReachOrchestrator(t *testing.T) {
	svc := paperapi.NewMockService()
	svc.Papers["p1"] = twoItemPaper()
	svc.Attempts["p1"] = []paper.Attempt{{
		ID: "a1", PaperID: "p1", UserID: "u1",
		Status: paper.StatusPending, CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}}
	o := actions.New(svc, actions.NewStores(), actions.Config{})
	f := ForOrchestrator(o)

	ctx := context.Background()
	v := f.Get()
	require.NotNil(t, v.Actions)
	v.Actions.LoadPaper(ctx, "p1")

	require.NoError(t, f.Get().Actions.StartPaper(ctx))
	assert.Equal(t, paper.StatusInProgress, f.Get().Mode)

	f.Get().Actions.Reset()
	assert.Nil(t, f.GetState().Paper)
}
