package paperapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stringAssetPaper = `{
	"id": "p1",
	"title": "Listening 1",
	"exercises": [
		{
			"id": "e1",
			"type": "listening",
			"asset": "{\"transcript\":\"Good morning\"}",
			"items": [{"id": "i1", "prompt": "Who?", "options": [{"text":"a","is_correct":true},{"text":"b"}]}]
		}
	]
}`

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "u1", srv.Client())
}

func TestClient_GetPaperDetail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/papers/p1", r.URL.Path)
		assert.Equal(t, "u1", r.Header.Get(UserHeader))
		w.Write([]byte(stringAssetPaper))
	})

	p, err := c.GetPaperDetail(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, p.Exercises, 1)
	require.NotNil(t, p.Exercises[0].Asset)
	assert.Equal(t, "Good morning", p.Exercises[0].Asset.Transcript)
	assert.Equal(t, 1, p.TotalItems)
}

func TestClient_GetPaperDetailInvalidPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"title": "no id or exercises"}`))
	})

	_, err := c.GetPaperDetail(context.Background(), "p1")
	var decErr *ErrDecode
	require.ErrorAs(t, err, &decErr)
	assert.Equal(t, OpGetPaperDetail, decErr.Op)
}

func TestClient_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "not found",
			status: http.StatusNotFound,
			body:   `{"error":"user paper not found"}`,
			check: func(t *testing.T, err error) {
				var nf *ErrNotFound
				require.ErrorAs(t, err, &nf)
				assert.Equal(t, "a1", nf.ID)
			},
		},
		{
			name:   "conflict",
			status: http.StatusConflict,
			body:   `{"error":"cannot complete a pending paper"}`,
			check: func(t *testing.T, err error) {
				var rej *ErrRejected
				require.ErrorAs(t, err, &rej)
				assert.Equal(t, http.StatusConflict, rej.StatusCode)
				assert.Equal(t, "cannot complete a pending paper", rej.Message)
			},
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `oops`,
			check: func(t *testing.T, err error) {
				var un *ErrUnavailable
				require.ErrorAs(t, err, &un)
				assert.Equal(t, http.StatusBadGateway, un.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})
			_, err := c.CompletePaper(context.Background(), "a1")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestClient_SubmitAnswerBody(t *testing.T) {
	var got SubmitRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user-papers/a1/answers", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	})

	req := SubmitRequest{ExerciseID: "e1", ExerciseItemID: "i1", AnswerContent: 2, TimeSpent: 9}
	require.NoError(t, c.SubmitAnswer(context.Background(), "a1", req))
	assert.Equal(t, req, got)
}

func TestClient_StartAndRenew(t *testing.T) {
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/user-papers/a1/start":
			json.NewEncoder(w).Encode(StartResult{StartedAt: started})
		case "/api/user-papers/a1/renew":
			w.Write([]byte(`{"user_paper_id":"a2","paper_id":"p1","status":"in_progress"}`))
		default:
			http.NotFound(w, r)
		}
	})

	sr, err := c.StartUserPaper(context.Background(), "a1")
	require.NoError(t, err)
	assert.True(t, sr.StartedAt.Equal(started))

	rr, err := c.RenewPaper(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "a2", rr.UserPaperID)
	assert.Equal(t, "p1", rr.PaperID)
}

func TestClient_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := NewClient(url, "", nil)
	_, err := c.GetUserPapersByPaper(context.Background(), "p1")
	var un *ErrUnavailable
	require.ErrorAs(t, err, &un)
}

func TestClient_CancelledContextPassesThrough(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.GetUserPaperAnswers(ctx, "a1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, shouldRetry(err))
}
