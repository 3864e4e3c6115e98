// Package backend implements the paper service locally on top of the SQLite
// store. It serves both the in-process --local mode and the dev server.
package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/paperapi"
	"github.com/abhisek/paperz/internal/store"
)

// DefaultUserID is used when no user is given.
const DefaultUserID = "local"

// Backend is a paperapi.Service for a single user.
type Backend struct {
	repo   store.PaperRepo
	userID string

	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() string
}

var _ paperapi.Service = (*Backend)(nil)

// New creates a Backend acting on behalf of userID.
func New(repo store.PaperRepo, userID string) *Backend {
	if userID == "" {
		userID = DefaultUserID
	}
	return &Backend{
		repo:   repo,
		userID: userID,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

// ForUser returns a copy of b acting on behalf of userID.
func (b *Backend) ForUser(userID string) *Backend {
	if userID == "" {
		userID = DefaultUserID
	}
	cp := *b
	cp.userID = userID
	return &cp
}

// UserID returns the user this backend acts for.
func (b *Backend) UserID() string {
	return b.userID
}

// ImportPaper validates a paper payload and stores it verbatim, so nested
// string-encoded fields survive until a client decodes them.
func (b *Backend) ImportPaper(ctx context.Context, raw []byte) (*paper.Paper, error) {
	if err := paper.ValidatePayload(raw); err != nil {
		return nil, &paperapi.ErrRejected{StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	p, err := paper.DecodePaper(raw)
	if err != nil {
		return nil, &paperapi.ErrRejected{StatusCode: http.StatusBadRequest, Message: err.Error()}
	}
	if p.ID == "" {
		return nil, &paperapi.ErrRejected{StatusCode: http.StatusBadRequest, Message: "paper id is required"}
	}
	if err := b.repo.SavePaper(ctx, p.ID, p.Title, raw); err != nil {
		return nil, err
	}
	return p, nil
}

func (b *Backend) GetPaperDetail(ctx context.Context, paperID string) (*paper.Paper, error) {
	raw, err := b.repo.GetPaper(ctx, paperID)
	if err != nil {
		return nil, notFound(err, "paper", paperID)
	}
	p, err := paper.DecodePaper(raw)
	if err != nil {
		return nil, &paperapi.ErrDecode{Op: paperapi.OpGetPaperDetail, Err: err}
	}
	return p, nil
}

// GetUserPapersByPaper lists the user's attempts. A user without any attempt
// gets a fresh pending one so there is always something to start.
func (b *Backend) GetUserPapersByPaper(ctx context.Context, paperID string) ([]paper.Attempt, error) {
	if _, err := b.repo.GetPaper(ctx, paperID); err != nil {
		return nil, notFound(err, "paper", paperID)
	}

	attempts, err := b.repo.ListAttempts(ctx, paperID, b.userID)
	if err != nil {
		return nil, err
	}
	if len(attempts) > 0 {
		return attempts, nil
	}

	a := paper.Attempt{
		ID:        b.NewID(),
		PaperID:   paperID,
		UserID:    b.userID,
		Status:    paper.StatusPending,
		CreatedAt: b.now(),
	}
	if err := b.repo.CreateAttempt(ctx, a); err != nil {
		return nil, err
	}
	return []paper.Attempt{a}, nil
}

func (b *Backend) GetUserPaperAnswers(ctx context.Context, attemptID string) ([]paper.AnswerRecord, error) {
	if _, err := b.attempt(ctx, attemptID); err != nil {
		return nil, err
	}
	rows, err := b.repo.ListAnswers(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	out := make([]paper.AnswerRecord, 0, len(rows))
	for _, r := range rows {
		itemID := r.ItemID
		out = append(out, paper.AnswerRecord{ExerciseItemID: &itemID, AnswerIndex: r.AnswerIndex})
	}
	return out, nil
}

// StartUserPaper moves a pending attempt to in_progress. Starting an attempt
// that is already in progress returns its original start time.
func (b *Backend) StartUserPaper(ctx context.Context, attemptID string) (*paperapi.StartResult, error) {
	a, err := b.attempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	switch a.Status {
	case paper.StatusInProgress:
		if a.StartedAt != nil {
			return &paperapi.StartResult{StartedAt: *a.StartedAt}, nil
		}
	case paper.StatusPending:
	default:
		return nil, conflict("cannot start a %s paper", a.Status)
	}

	now := b.now()
	if err := b.repo.UpdateAttempt(ctx, attemptID, paper.StatusInProgress, &now, nil); err != nil {
		return nil, err
	}
	return &paperapi.StartResult{StartedAt: now}, nil
}

func (b *Backend) SubmitAnswer(ctx context.Context, attemptID string, req paperapi.SubmitRequest) error {
	a, err := b.attempt(ctx, attemptID)
	if err != nil {
		return err
	}
	if !a.Status.AcceptsAnswers() {
		return conflict("paper is %s, answers are closed", a.Status)
	}

	p, err := b.GetPaperDetail(ctx, a.PaperID)
	if err != nil {
		return err
	}
	exIdx, item, ok := p.FindItem(req.ExerciseItemID)
	if !ok {
		return badRequest("unknown exercise item %q", req.ExerciseItemID)
	}
	if req.ExerciseID != "" && p.Exercises[exIdx].ID != req.ExerciseID {
		return badRequest("item %q does not belong to exercise %q", req.ExerciseItemID, req.ExerciseID)
	}
	if req.AnswerContent < 0 || req.AnswerContent >= len(item.Options) {
		return badRequest("answer %d out of range for item %q", req.AnswerContent, req.ExerciseItemID)
	}
	if req.TimeSpent < 0 {
		req.TimeSpent = 0
	}

	return b.repo.UpsertAnswer(ctx, store.AnswerRow{
		AttemptID:   attemptID,
		ExerciseID:  p.Exercises[exIdx].ID,
		ItemID:      req.ExerciseItemID,
		AnswerIndex: req.AnswerContent,
		TimeSpent:   req.TimeSpent,
		AnsweredAt:  b.now(),
	})
}

func (b *Backend) CompletePaper(ctx context.Context, attemptID string) (*paperapi.FinishResult, error) {
	return b.finish(ctx, attemptID, paper.StatusCompleted)
}

func (b *Backend) AbandonPaper(ctx context.Context, attemptID string) (*paperapi.FinishResult, error) {
	return b.finish(ctx, attemptID, paper.StatusAbandoned)
}

func (b *Backend) finish(ctx context.Context, attemptID string, to paper.Status) (*paperapi.FinishResult, error) {
	a, err := b.attempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if a.Status != paper.StatusInProgress {
		return nil, conflict("cannot move a %s paper to %s", a.Status, to)
	}

	now := b.now()
	if err := b.repo.UpdateAttempt(ctx, attemptID, to, nil, &now); err != nil {
		return nil, err
	}
	return &paperapi.FinishResult{FinishedAt: now}, nil
}

// RenewPaper opens a new in-progress attempt for the paper of a finished one.
func (b *Backend) RenewPaper(ctx context.Context, attemptID string) (*paperapi.RenewResult, error) {
	a, err := b.attempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if !a.Status.Finished() {
		return nil, conflict("cannot renew a %s paper", a.Status)
	}

	now := b.now()
	fresh := paper.Attempt{
		ID:        b.NewID(),
		PaperID:   a.PaperID,
		UserID:    b.userID,
		Status:    paper.StatusInProgress,
		StartedAt: &now,
		CreatedAt: now,
	}
	if err := b.repo.CreateAttempt(ctx, fresh); err != nil {
		return nil, err
	}
	return &paperapi.RenewResult{UserPaperID: fresh.ID, PaperID: fresh.PaperID, Status: fresh.Status}, nil
}

// attempt loads an attempt owned by the backend's user.
func (b *Backend) attempt(ctx context.Context, attemptID string) (*paper.Attempt, error) {
	a, err := b.repo.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, notFound(err, "user paper", attemptID)
	}
	if a.UserID != b.userID {
		return nil, &paperapi.ErrNotFound{Resource: "user paper", ID: attemptID}
	}
	return a, nil
}

func (b *Backend) now() time.Time {
	// Stored with millisecond precision.
	return b.Now().Truncate(time.Millisecond)
}

func notFound(err error, resource, id string) error {
	if errors.Is(err, store.ErrNotFound) {
		return &paperapi.ErrNotFound{Resource: resource, ID: id}
	}
	return err
}

func conflict(format string, args ...any) error {
	return &paperapi.ErrRejected{StatusCode: http.StatusConflict, Message: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) error {
	return &paperapi.ErrRejected{StatusCode: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}
