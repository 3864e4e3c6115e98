package paperapi

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/paperz/internal/paper"
)

// MockCall records one invocation of a MockService operation.
type MockCall struct {
	Op     string
	ID     string
	Submit *SubmitRequest
}

// MockService is a deterministic in-memory Service for tests. Errors can be
// queued per operation; queued errors are consumed FIFO, one per call.
type MockService struct {
	mu sync.Mutex

	Papers   map[string]*paper.Paper
	Attempts map[string][]paper.Attempt // by paper id
	Answers  map[string][]paper.AnswerRecord
	Now      func() time.Time

	errs  map[string][]error
	calls []MockCall
	next  int
}

var _ Service = (*MockService)(nil)

// NewMockService creates an empty MockService.
func NewMockService() *MockService {
	return &MockService{
		Papers:   make(map[string]*paper.Paper),
		Attempts: make(map[string][]paper.Attempt),
		Answers:  make(map[string][]paper.AnswerRecord),
		Now:      time.Now,
		errs:     make(map[string][]error),
	}
}

// FailNext queues err as the result of the next call to op.
func (m *MockService) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[op] = append(m.errs[op], err)
}

// Calls returns a copy of the recorded calls.
func (m *MockService) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}

// CallCount returns the number of calls made to op.
func (m *MockService) CallCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// begin records the call and returns any queued error. Caller holds m.mu.
func (m *MockService) begin(op, id string, submit *SubmitRequest) error {
	m.calls = append(m.calls, MockCall{Op: op, ID: id, Submit: submit})
	if q := m.errs[op]; len(q) > 0 {
		m.errs[op] = q[1:]
		return q[0]
	}
	return nil
}

func (m *MockService) GetPaperDetail(_ context.Context, paperID string) (*paper.Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGetPaperDetail, paperID, nil); err != nil {
		return nil, err
	}
	p, ok := m.Papers[paperID]
	if !ok {
		return nil, &ErrNotFound{Resource: "paper", ID: paperID}
	}
	return p, nil
}

func (m *MockService) GetUserPapersByPaper(_ context.Context, paperID string) ([]paper.Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGetUserPapersByPaper, paperID, nil); err != nil {
		return nil, err
	}
	return append([]paper.Attempt(nil), m.Attempts[paperID]...), nil
}

func (m *MockService) GetUserPaperAnswers(_ context.Context, attemptID string) ([]paper.AnswerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpGetUserPaperAnswers, attemptID, nil); err != nil {
		return nil, err
	}
	return append([]paper.AnswerRecord(nil), m.Answers[attemptID]...), nil
}

func (m *MockService) StartUserPaper(_ context.Context, attemptID string) (*StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpStartUserPaper, attemptID, nil); err != nil {
		return nil, err
	}
	now := m.Now()
	if !m.setStatus(attemptID, paper.StatusInProgress, &now, nil) {
		return nil, &ErrNotFound{Resource: "user paper", ID: attemptID}
	}
	return &StartResult{StartedAt: now}, nil
}

func (m *MockService) SubmitAnswer(_ context.Context, attemptID string, req SubmitRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpSubmitAnswer, attemptID, &req); err != nil {
		return err
	}
	itemID := req.ExerciseItemID
	m.Answers[attemptID] = append(m.Answers[attemptID], paper.AnswerRecord{
		ExerciseItemID: &itemID,
		AnswerIndex:    req.AnswerContent,
	})
	return nil
}

func (m *MockService) CompletePaper(_ context.Context, attemptID string) (*FinishResult, error) {
	return m.finish(OpCompletePaper, attemptID, paper.StatusCompleted)
}

func (m *MockService) AbandonPaper(_ context.Context, attemptID string) (*FinishResult, error) {
	return m.finish(OpAbandonPaper, attemptID, paper.StatusAbandoned)
}

func (m *MockService) finish(op, attemptID string, status paper.Status) (*FinishResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(op, attemptID, nil); err != nil {
		return nil, err
	}
	now := m.Now()
	if !m.setStatus(attemptID, status, nil, &now) {
		return nil, &ErrNotFound{Resource: "user paper", ID: attemptID}
	}
	return &FinishResult{FinishedAt: now}, nil
}

func (m *MockService) RenewPaper(_ context.Context, attemptID string) (*RenewResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin(OpRenewPaper, attemptID, nil); err != nil {
		return nil, err
	}
	for paperID, attempts := range m.Attempts {
		for _, a := range attempts {
			if a.ID != attemptID {
				continue
			}
			m.next++
			fresh := paper.Attempt{
				ID:        fmt.Sprintf("%s-renew-%d", attemptID, m.next),
				PaperID:   paperID,
				UserID:    a.UserID,
				Status:    paper.StatusInProgress,
				StartedAt: ptr(m.Now()),
				CreatedAt: m.Now(),
			}
			m.Attempts[paperID] = append(m.Attempts[paperID], fresh)
			return &RenewResult{UserPaperID: fresh.ID, PaperID: paperID, Status: fresh.Status}, nil
		}
	}
	return nil, &ErrNotFound{Resource: "user paper", ID: attemptID}
}

// setStatus updates a stored attempt. Caller holds m.mu.
func (m *MockService) setStatus(attemptID string, status paper.Status, started, finished *time.Time) bool {
	for paperID, attempts := range m.Attempts {
		for i := range attempts {
			if attempts[i].ID != attemptID {
				continue
			}
			attempts[i].Status = status
			if started != nil {
				attempts[i].StartedAt = started
			}
			if finished != nil {
				attempts[i].FinishedAt = finished
			}
			m.Attempts[paperID] = attempts
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }
