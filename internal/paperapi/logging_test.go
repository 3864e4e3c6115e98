package paperapi

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/store"
)

// fakeEventRepo captures request events in memory.
type fakeEventRepo struct {
	mu     sync.Mutex
	events []store.RequestEventData
	err    error
}

func (f *fakeEventRepo) AppendRequestEvent(_ context.Context, data store.RequestEventData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, data)
	return nil
}

func TestLogging_RecordsSuccessAndFailure(t *testing.T) {
	mock := NewMockService()
	mock.Attempts["p1"] = []paper.Attempt{{ID: "a1", PaperID: "p1", Status: paper.StatusPending}}
	mock.FailNext(OpCompletePaper, &ErrRejected{StatusCode: 409, Message: "not started"})

	repo := &fakeEventRepo{}
	s := WithLogging(mock, repo)
	ctx := context.Background()

	if _, err := s.StartUserPaper(ctx, "a1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := s.CompletePaper(ctx, "a1"); err == nil {
		t.Fatal("expected complete to fail")
	}
	if err := s.SubmitAnswer(ctx, "a1", SubmitRequest{ExerciseID: "e1", ExerciseItemID: "i1"}); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if len(repo.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(repo.events))
	}

	start := repo.events[0]
	if start.Operation != OpStartUserPaper || !start.Success || start.Target != "a1" {
		t.Errorf("start event = %+v", start)
	}

	complete := repo.events[1]
	if complete.Success || complete.ErrorMessage == "" {
		t.Errorf("complete event should record the failure: %+v", complete)
	}

	if repo.events[2].Target != "a1/i1" {
		t.Errorf("submit target = %q", repo.events[2].Target)
	}
}

func TestLogging_RepoFailureDoesNotFailRequest(t *testing.T) {
	mock := NewMockService()
	mock.Papers["p1"] = &paper.Paper{ID: "p1"}
	repo := &fakeEventRepo{err: errors.New("disk full")}

	s := WithLogging(mock, repo)
	p, err := s.GetPaperDetail(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ID != "p1" {
		t.Fatalf("unexpected paper: %+v", p)
	}
}

func TestLogging_RecordsAfterCancel(t *testing.T) {
	mock := NewMockService()
	mock.FailNext(OpGetPaperDetail, context.Canceled)
	repo := &fakeEventRepo{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := WithLogging(mock, repo)
	if _, err := s.GetPaperDetail(ctx, "p1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(repo.events) != 1 {
		t.Fatalf("expected the cancelled call to be logged, got %d events", len(repo.events))
	}
}
