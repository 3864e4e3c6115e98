package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/paperz/internal/backend"
	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/paperapi"
	"github.com/abhisek/paperz/internal/store"
)

const samplePaper = `{
	"id": 7,
	"title": "Cloze",
	"exercises": [
		{"id": "e1", "type": "cloze", "asset": "", "items": [{"id": "i1", "prompt": "I ___ tea", "options": [{"text":"drink","is_correct":true},{"text":"drinks"}]}]},
		{"id": "e2", "type": "reading", "asset": "{\"passage\":\"Once upon a time\"}", "items": "[{\"id\":\"i2\",\"prompt\":\"When?\",\"options\":[{\"text\":\"once\",\"is_correct\":true}]}]"}
	]
}`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s, err := store.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	srv := httptest.NewServer(New(backend.New(s.PaperRepo(), ""), Options{}).Handler())
	t.Cleanup(srv.Close)

	resp, err := http.Post(srv.URL+"/api/papers", "application/json", strings.NewReader(samplePaper))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return srv
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoundTripThroughClient(t *testing.T) {
	srv := newTestServer(t)
	c := paperapi.NewClient(srv.URL, "alice", srv.Client())
	ctx := context.Background()

	p, err := c.GetPaperDetail(ctx, "7")
	require.NoError(t, err)
	require.Len(t, p.Exercises, 2)
	assert.Equal(t, "Once upon a time", p.Exercises[1].Asset.Passage)
	assert.Equal(t, 2, p.TotalItems)

	attempts, err := c.GetUserPapersByPaper(ctx, "7")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "alice", attempts[0].UserID)
	id := attempts[0].ID

	_, err = c.CompletePaper(ctx, id)
	var rej *paperapi.ErrRejected
	require.ErrorAs(t, err, &rej)
	assert.Equal(t, http.StatusConflict, rej.StatusCode)

	_, err = c.StartUserPaper(ctx, id)
	require.NoError(t, err)

	require.NoError(t, c.SubmitAnswer(ctx, id, paperapi.SubmitRequest{ExerciseID: "e1", ExerciseItemID: "i1", AnswerContent: 1, TimeSpent: 3}))

	answers, err := c.GetUserPaperAnswers(ctx, id)
	require.NoError(t, err)
	hydrated := paper.HydrateAnswers(p, answers)
	assert.Equal(t, paper.AnswerMap{"i1": 1}, hydrated)

	fin, err := c.AbandonPaper(ctx, id)
	require.NoError(t, err)
	assert.False(t, fin.FinishedAt.IsZero())

	renewed, err := c.RenewPaper(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "7", renewed.PaperID)
	assert.Equal(t, paper.StatusInProgress, renewed.Status)
}

func TestUsersAreIsolated(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	alice := paperapi.NewClient(srv.URL, "alice", srv.Client())
	bob := paperapi.NewClient(srv.URL, "bob", srv.Client())

	attempts, err := alice.GetUserPapersByPaper(ctx, "7")
	require.NoError(t, err)

	_, err = bob.StartUserPaper(ctx, attempts[0].ID)
	var nf *paperapi.ErrNotFound
	assert.ErrorAs(t, err, &nf)
}

func TestErrorResponses(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"missing paper", http.MethodGet, "/api/papers/nope", "", http.StatusNotFound},
		{"missing attempt", http.MethodPost, "/api/user-papers/nope/start", "", http.StatusNotFound},
		{"bad import", http.MethodPost, "/api/papers", `{"title":"x"}`, http.StatusBadRequest},
		{"empty import", http.MethodPost, "/api/papers", "", http.StatusBadRequest},
		{"bad answer body", http.MethodPost, "/api/user-papers/nope/answers", `{`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(tt.method, srv.URL+tt.path, strings.NewReader(tt.body))
			require.NoError(t, err)
			req.Header.Set("Content-Type", "application/json")
			resp, err := srv.Client().Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestCORSAllowsLocalhost(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/papers/7", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
