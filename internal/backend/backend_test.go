package backend

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/paperapi"
	"github.com/abhisek/paperz/internal/store"
)

const samplePaper = `{
	"id": "p1",
	"title": "Sample",
	"exercises": [
		{
			"id": "e1",
			"type": "listening",
			"asset": "{\"transcript\":\"Hi\"}",
			"items": [{"id": "i1", "prompt": "Q1", "options": [{"text":"a","is_correct":true},{"text":"b"}]}]
		},
		{
			"id": "e2",
			"type": "single_choice",
			"items": "[{\"id\":\"i2\",\"prompt\":\"Q2\",\"options\":[{\"text\":\"x\"},{\"text\":\"y\",\"is_correct\":true}]}]"
		}
	]
}`

type fixture struct {
	backend *Backend
	clock   time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	f := &fixture{clock: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)}
	b := New(s.PaperRepo(), "u1")
	ids := 0
	b.NewID = func() string {
		ids++
		return fmt.Sprintf("att-%d", ids)
	}
	b.Now = func() time.Time {
		f.clock = f.clock.Add(time.Second)
		return f.clock
	}
	f.backend = b

	_, err = b.ImportPaper(context.Background(), []byte(samplePaper))
	require.NoError(t, err)
	return f
}

func rejectedStatus(t *testing.T, err error) int {
	t.Helper()
	var rej *paperapi.ErrRejected
	require.ErrorAs(t, err, &rej)
	return rej.StatusCode
}

func TestImportPaper_Invalid(t *testing.T) {
	f := newFixture(t)
	_, err := f.backend.ImportPaper(context.Background(), []byte(`{"title":"x"}`))
	assert.Equal(t, http.StatusBadRequest, rejectedStatus(t, err))
}

func TestGetPaperDetail_DecodesStoredPayload(t *testing.T) {
	f := newFixture(t)
	p, err := f.backend.GetPaperDetail(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, p.Exercises, 2)
	assert.Equal(t, "Hi", p.Exercises[0].Asset.Transcript)
	assert.Equal(t, 2, p.TotalItems)

	_, err = f.backend.GetPaperDetail(context.Background(), "missing")
	var nf *paperapi.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestGetUserPapersByPaper_CreatesPendingOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.backend.GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, paper.StatusPending, first[0].Status)
	assert.Equal(t, "u1", first[0].UserID)

	second, err := f.backend.GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].ID, second[0].ID)

	// Another user gets their own attempt.
	other, err := f.backend.ForUser("u2").GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.NotEqual(t, first[0].ID, other[0].ID)
}

func TestLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.backend

	attempts, err := b.GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)
	id := attempts[0].ID

	// Complete before start is rejected.
	_, err = b.CompletePaper(ctx, id)
	assert.Equal(t, http.StatusConflict, rejectedStatus(t, err))

	sr, err := b.StartUserPaper(ctx, id)
	require.NoError(t, err)

	// Starting again is idempotent.
	again, err := b.StartUserPaper(ctx, id)
	require.NoError(t, err)
	assert.True(t, sr.StartedAt.Equal(again.StartedAt))

	require.NoError(t, b.SubmitAnswer(ctx, id, paperapi.SubmitRequest{ExerciseID: "e1", ExerciseItemID: "i1", AnswerContent: 1}))
	require.NoError(t, b.SubmitAnswer(ctx, id, paperapi.SubmitRequest{ExerciseID: "e1", ExerciseItemID: "i1", AnswerContent: 0}))
	require.NoError(t, b.SubmitAnswer(ctx, id, paperapi.SubmitRequest{ExerciseItemID: "i2", AnswerContent: 1}))

	answers, err := b.GetUserPaperAnswers(ctx, id)
	require.NoError(t, err)
	got := map[string]int{}
	for _, a := range answers {
		got[*a.ExerciseItemID] = a.AnswerIndex
	}
	assert.Equal(t, map[string]int{"i1": 0, "i2": 1}, got)

	fr, err := b.CompletePaper(ctx, id)
	require.NoError(t, err)
	assert.True(t, fr.FinishedAt.After(sr.StartedAt))

	// Answers are closed once finished.
	err = b.SubmitAnswer(ctx, id, paperapi.SubmitRequest{ExerciseItemID: "i1", AnswerContent: 1})
	assert.Equal(t, http.StatusConflict, rejectedStatus(t, err))

	_, err = b.StartUserPaper(ctx, id)
	assert.Equal(t, http.StatusConflict, rejectedStatus(t, err))

	rr, err := b.RenewPaper(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "p1", rr.PaperID)
	assert.Equal(t, paper.StatusInProgress, rr.Status)

	all, err := b.GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, all, 2)
	active := paper.SelectActive(all)
	require.NotNil(t, active)
	assert.Equal(t, rr.UserPaperID, active.ID)
}

func TestAbandonAndRenewRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.backend

	attempts, err := b.GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)
	id := attempts[0].ID

	_, err = b.RenewPaper(ctx, id)
	assert.Equal(t, http.StatusConflict, rejectedStatus(t, err))

	_, err = b.StartUserPaper(ctx, id)
	require.NoError(t, err)
	_, err = b.AbandonPaper(ctx, id)
	require.NoError(t, err)

	_, err = b.AbandonPaper(ctx, id)
	assert.Equal(t, http.StatusConflict, rejectedStatus(t, err))

	_, err = b.RenewPaper(ctx, id)
	assert.NoError(t, err)
}

func TestSubmitAnswer_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	b := f.backend

	attempts, err := b.GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)
	id := attempts[0].ID

	tests := []struct {
		name string
		req  paperapi.SubmitRequest
	}{
		{"unknown item", paperapi.SubmitRequest{ExerciseItemID: "nope"}},
		{"wrong exercise", paperapi.SubmitRequest{ExerciseID: "e2", ExerciseItemID: "i1"}},
		{"index too high", paperapi.SubmitRequest{ExerciseItemID: "i1", AnswerContent: 5}},
		{"negative index", paperapi.SubmitRequest{ExerciseItemID: "i1", AnswerContent: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := b.SubmitAnswer(ctx, id, tt.req)
			assert.Equal(t, http.StatusBadRequest, rejectedStatus(t, err))
		})
	}

	// Pending attempts accept answers.
	assert.NoError(t, b.SubmitAnswer(ctx, id, paperapi.SubmitRequest{ExerciseItemID: "i1"}))
}

func TestAttemptsAreScopedToUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	attempts, err := f.backend.GetUserPapersByPaper(ctx, "p1")
	require.NoError(t, err)

	_, err = f.backend.ForUser("intruder").StartUserPaper(ctx, attempts[0].ID)
	var nf *paperapi.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}
