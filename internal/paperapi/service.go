package paperapi

import (
	"context"
	"time"

	"github.com/abhisek/paperz/internal/paper"
)

// Service is the remote paper/grading service.
type Service interface {
	// GetPaperDetail returns the paper with nested payloads normalized.
	GetPaperDetail(ctx context.Context, paperID string) (*paper.Paper, error)

	// GetUserPapersByPaper returns the caller's attempts at a paper.
	GetUserPapersByPaper(ctx context.Context, paperID string) ([]paper.Attempt, error)

	// GetUserPaperAnswers returns the answers recorded for an attempt.
	GetUserPaperAnswers(ctx context.Context, attemptID string) ([]paper.AnswerRecord, error)

	StartUserPaper(ctx context.Context, attemptID string) (*StartResult, error)

	// SubmitAnswer records one answer. Callers treat it as best effort.
	SubmitAnswer(ctx context.Context, attemptID string, req SubmitRequest) error

	CompletePaper(ctx context.Context, attemptID string) (*FinishResult, error)
	AbandonPaper(ctx context.Context, attemptID string) (*FinishResult, error)

	// RenewPaper creates a fresh attempt for the attempt's paper.
	RenewPaper(ctx context.Context, attemptID string) (*RenewResult, error)
}

// StartResult is returned when an attempt starts.
type StartResult struct {
	StartedAt time.Time `json:"started_at"`
}

// FinishResult is returned when an attempt completes or is abandoned.
type FinishResult struct {
	FinishedAt time.Time `json:"finished_at"`
}

// RenewResult identifies the attempt created by RenewPaper.
type RenewResult struct {
	UserPaperID string       `json:"user_paper_id"`
	PaperID     string       `json:"paper_id"`
	Status      paper.Status `json:"status"`
}

// SubmitRequest is one answer submission.
type SubmitRequest struct {
	ExerciseID     string `json:"exercise_id"`
	ExerciseItemID string `json:"exercise_item_id"`
	AnswerContent  int    `json:"answer_content"`
	TimeSpent      int    `json:"time_spent"` // seconds
}

// Operation names used in telemetry and mocks.
const (
	OpGetPaperDetail       = "get_paper_detail"
	OpGetUserPapersByPaper = "get_user_papers_by_paper"
	OpGetUserPaperAnswers  = "get_user_paper_answers"
	OpStartUserPaper       = "start_user_paper"
	OpSubmitAnswer         = "submit_answer"
	OpCompletePaper        = "complete_paper"
	OpAbandonPaper         = "abandon_paper"
	OpRenewPaper           = "renew_paper"
)
