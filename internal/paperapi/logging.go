package paperapi

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/store"
)

// LoggingService is a decorator that records every remote call as an event.
type LoggingService struct {
	inner     Service
	eventRepo store.EventRepo
}

var _ Service = (*LoggingService)(nil)

// WithLogging wraps a Service with request event logging.
func WithLogging(s Service, repo store.EventRepo) Service {
	return &LoggingService{inner: s, eventRepo: repo}
}

func (l *LoggingService) GetPaperDetail(ctx context.Context, paperID string) (*paper.Paper, error) {
	start := time.Now()
	p, err := l.inner.GetPaperDetail(ctx, paperID)
	l.record(ctx, OpGetPaperDetail, paperID, start, err)
	return p, err
}

func (l *LoggingService) GetUserPapersByPaper(ctx context.Context, paperID string) ([]paper.Attempt, error) {
	start := time.Now()
	out, err := l.inner.GetUserPapersByPaper(ctx, paperID)
	l.record(ctx, OpGetUserPapersByPaper, paperID, start, err)
	return out, err
}

func (l *LoggingService) GetUserPaperAnswers(ctx context.Context, attemptID string) ([]paper.AnswerRecord, error) {
	start := time.Now()
	out, err := l.inner.GetUserPaperAnswers(ctx, attemptID)
	l.record(ctx, OpGetUserPaperAnswers, attemptID, start, err)
	return out, err
}

func (l *LoggingService) StartUserPaper(ctx context.Context, attemptID string) (*StartResult, error) {
	start := time.Now()
	out, err := l.inner.StartUserPaper(ctx, attemptID)
	l.record(ctx, OpStartUserPaper, attemptID, start, err)
	return out, err
}

func (l *LoggingService) SubmitAnswer(ctx context.Context, attemptID string, req SubmitRequest) error {
	start := time.Now()
	err := l.inner.SubmitAnswer(ctx, attemptID, req)
	l.record(ctx, OpSubmitAnswer, attemptID+"/"+req.ExerciseItemID, start, err)
	return err
}

func (l *LoggingService) CompletePaper(ctx context.Context, attemptID string) (*FinishResult, error) {
	start := time.Now()
	out, err := l.inner.CompletePaper(ctx, attemptID)
	l.record(ctx, OpCompletePaper, attemptID, start, err)
	return out, err
}

func (l *LoggingService) AbandonPaper(ctx context.Context, attemptID string) (*FinishResult, error) {
	start := time.Now()
	out, err := l.inner.AbandonPaper(ctx, attemptID)
	l.record(ctx, OpAbandonPaper, attemptID, start, err)
	return out, err
}

func (l *LoggingService) RenewPaper(ctx context.Context, attemptID string) (*RenewResult, error) {
	start := time.Now()
	out, err := l.inner.RenewPaper(ctx, attemptID)
	l.record(ctx, OpRenewPaper, attemptID, start, err)
	return out, err
}

func (l *LoggingService) record(ctx context.Context, op, target string, start time.Time, err error) {
	data := store.RequestEventData{
		Operation: op,
		Target:    target,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
	}
	if err != nil {
		data.ErrorMessage = err.Error()
	}

	// The caller may have been cancelled; the event should still land.
	ctx = context.WithoutCancel(ctx)

	// Log the event but don't fail the request if logging fails.
	if logErr := l.eventRepo.AppendRequestEvent(ctx, data); logErr != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to log request event: %v\n", logErr)
	}
}
