package results

import (
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/paperz/internal/actions"
	"github.com/abhisek/paperz/internal/facade"
	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/router"
)

func keyPress(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func finishedView(t *testing.T, mode paper.Status) *facade.Facade {
	t.Helper()
	p := &paper.Paper{ID: "p1", Title: "Unit 3 quiz", Exercises: []paper.Exercise{
		{ID: "ex-0", Title: "First", Type: paper.TypeSingleChoice, Items: []paper.ExerciseItem{{
			ID: "item-0", Prompt: "Pick one",
			Options: []paper.Option{{Text: "yes", IsCorrect: true, Rationale: "Because."}, {Text: "no"}},
		}}},
		{ID: "ex-1", Title: "Second", Type: paper.TypeSingleChoice, Items: []paper.ExerciseItem{{
			ID: "item-1", Prompt: "Pick again",
			Options: []paper.Option{{Text: "yes", IsCorrect: true}, {Text: "no", Rationale: "Not quite."}},
		}}},
	}}
	stores := actions.NewStores()
	stores.Data.SetPaper(p)
	stores.Data.SetMode(mode)
	stores.Data.SetAnswers(paper.AnswerMap{"item-0": 0, "item-1": 1})
	return facade.New(stores, nil)
}

func TestViewShowsScore(t *testing.T) {
	s := New(finishedView(t, paper.StatusCompleted))
	out := s.View(100, 40)

	assert.Contains(t, out, "Paper complete!")
	assert.Contains(t, out, "Score: 50%")
	assert.Contains(t, out, "Correct: 1 of 2")
	assert.Contains(t, out, "First")
	assert.Contains(t, out, "Second")
	assert.NotContains(t, out, "Because.")
}

func TestAbandonedHeadline(t *testing.T) {
	s := New(finishedView(t, paper.StatusAbandoned))
	assert.Contains(t, s.View(100, 40), "Paper abandoned")
}

func TestSelectionIsClamped(t *testing.T) {
	s := New(finishedView(t, paper.StatusCompleted))

	s.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	assert.Equal(t, 0, s.selected)

	s.Update(keyPress('j'))
	s.Update(keyPress('j'))
	assert.Equal(t, 1, s.selected)

	s.Update(keyPress('k'))
	assert.Equal(t, 0, s.selected)
}

func TestDetailsRevealRationale(t *testing.T) {
	s := New(finishedView(t, paper.StatusCompleted))

	s.Update(keyPress(' '))
	require.True(t, s.expanded)
	out := s.View(100, 40)
	assert.Contains(t, out, "Pick one")
	assert.Contains(t, out, "Because.")
	assert.NotContains(t, out, "Pick again")

	s.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	out = s.View(100, 40)
	assert.Contains(t, out, "Pick again")
	assert.Contains(t, out, "Not quite.")
}

func TestEnterPops(t *testing.T) {
	s := New(finishedView(t, paper.StatusCompleted))

	_, cmd := s.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, router.PopScreenMsg{}, cmd())
}

func TestEmptyWithoutPaper(t *testing.T) {
	s := New(facade.New(actions.NewStores(), nil))
	assert.Empty(t, s.View(100, 40))

	_, cmd := s.Update(keyPress('j'))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, s.selected)
}
