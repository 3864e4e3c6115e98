package store

import (
	"context"
	"time"

	"github.com/abhisek/paperz/internal/paper"
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // sequence > After
	Before int64     // sequence < Before
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
}

// RequestEventData captures one call to the paper service.
type RequestEventData struct {
	Operation    string
	Target       string
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RequestEvent is a stored RequestEventData.
type RequestEvent struct {
	ID        int64
	Sequence  int64
	Timestamp time.Time
	RequestEventData
}

// EventRepo provides append access to request events.
type EventRepo interface {
	// AppendRequestEvent records a paper service call.
	AppendRequestEvent(ctx context.Context, data RequestEventData) error
}

// PaperSummary describes an imported paper without its payload.
type PaperSummary struct {
	ID         string
	Title      string
	ImportedAt time.Time
}

// AnswerRow is one recorded answer of an attempt.
type AnswerRow struct {
	AttemptID   string
	ExerciseID  string
	ItemID      string
	AnswerIndex int
	TimeSpent   int
	AnsweredAt  time.Time
}

// PaperRepo persists papers, attempts and answers for the local backend.
type PaperRepo interface {
	// SavePaper inserts or replaces a paper payload.
	SavePaper(ctx context.Context, id, title string, payload []byte) error

	// GetPaper returns the raw payload, or ErrNotFound.
	GetPaper(ctx context.Context, id string) ([]byte, error)

	// ListPapers returns all papers ordered by import time, newest first.
	ListPapers(ctx context.Context) ([]PaperSummary, error)

	// CreateAttempt inserts a new attempt.
	CreateAttempt(ctx context.Context, a paper.Attempt) error

	// GetAttempt returns the attempt, or ErrNotFound.
	GetAttempt(ctx context.Context, id string) (*paper.Attempt, error)

	// ListAttempts returns the user's attempts at a paper, oldest first.
	ListAttempts(ctx context.Context, paperID, userID string) ([]paper.Attempt, error)

	// UpdateAttempt sets the status and, when non-nil, the timestamps.
	UpdateAttempt(ctx context.Context, id string, status paper.Status, startedAt, finishedAt *time.Time) error

	// UpsertAnswer records an answer, replacing any earlier one for the item.
	UpsertAnswer(ctx context.Context, row AnswerRow) error

	// ListAnswers returns the answers of an attempt ordered by answer time.
	ListAnswers(ctx context.Context, attemptID string) ([]AnswerRow, error)
}
