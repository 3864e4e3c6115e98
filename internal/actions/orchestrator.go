// Package actions holds the orchestrator: the only component that talks to
// the paper service and the only one that coordinates writes across the
// data, status and card stores.
package actions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/paperapi"
	"github.com/abhisek/paperz/internal/state"
)

// DefaultAutoAdvanceDelay is how long a fully answered card stays on screen
// before the card view moves on.
const DefaultAutoAdvanceDelay = 600 * time.Millisecond

// DefaultNarrowWidth is the viewport width below which a paper opens in card
// view.
const DefaultNarrowWidth = 100

// Timer is a pending scheduled function.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Stores groups the three state containers the orchestrator coordinates.
type Stores struct {
	Data   *state.DataStore
	Status *state.StatusStore
	Card   *state.CardStore
}

// NewStores returns empty stores.
func NewStores() Stores {
	return Stores{
		Data:   state.NewDataStore(),
		Status: state.NewStatusStore(),
		Card:   state.NewCardStore(),
	}
}

// Config tunes the orchestrator. Zero values fall back to defaults.
type Config struct {
	AutoAdvanceDelay time.Duration
	NarrowWidth      int

	// Scheduler and Now are replaceable in tests.
	Scheduler Scheduler
	Now       func() time.Time

	// OnBackgroundError receives failures of fire-and-forget answer
	// submissions. They are never surfaced to the student.
	OnBackgroundError func(op string, err error)
}

// Orchestrator implements the paper workflows: load, start, submit answer,
// complete, abandon, retry and reset.
type Orchestrator struct {
	svc    paperapi.Service
	stores Stores
	cfg    Config

	// startMu serializes starts so concurrent auto-starts hit the service once.
	startMu sync.Mutex

	mu         sync.Mutex
	viewport   int
	advance    Timer
	lastSubmit map[string]time.Time // attempt id -> last answer time

	// submitMu guards inflight together with the submitting flag it drives.
	submitMu sync.Mutex
	inflight int

	bg sync.WaitGroup
}

// New creates an Orchestrator over svc and stores.
func New(svc paperapi.Service, stores Stores, cfg Config) *Orchestrator {
	if cfg.AutoAdvanceDelay <= 0 {
		cfg.AutoAdvanceDelay = DefaultAutoAdvanceDelay
	}
	if cfg.NarrowWidth <= 0 {
		cfg.NarrowWidth = DefaultNarrowWidth
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = realScheduler{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		svc:        svc,
		stores:     stores,
		cfg:        cfg,
		lastSubmit: make(map[string]time.Time),
	}
}

// Stores returns the stores the orchestrator writes to.
func (o *Orchestrator) Stores() Stores {
	return o.stores
}

// SetViewport records the current viewport width. It only affects the view
// mode chosen by the next LoadPaper.
func (o *Orchestrator) SetViewport(width int) {
	o.mu.Lock()
	o.viewport = width
	o.mu.Unlock()
}

// Wait blocks until all background submissions have finished.
func (o *Orchestrator) Wait() {
	o.bg.Wait()
}

// LoadPaper fetches a paper and its attempts and rebuilds all session state.
// Failures are recorded in the status store; nothing is returned.
func (o *Orchestrator) LoadPaper(ctx context.Context, paperID string) {
	_ = o.load(ctx, paperID)
}

func (o *Orchestrator) load(ctx context.Context, paperID string) error {
	status := o.stores.Status
	status.SetIsLoading(true)
	status.ClearError()
	defer status.SetIsLoading(false)

	err := o.fetchAndCommit(ctx, paperID)
	if err != nil {
		status.SetError(Message(err))
	}
	return err
}

func (o *Orchestrator) fetchAndCommit(ctx context.Context, paperID string) error {
	p, err := o.svc.GetPaperDetail(ctx, paperID)
	if err != nil {
		return fmt.Errorf("load paper %s: %w", paperID, err)
	}
	attempts, err := o.svc.GetUserPapersByPaper(ctx, paperID)
	if err != nil {
		return fmt.Errorf("load attempts of %s: %w", paperID, err)
	}

	active := paper.SelectActive(attempts)
	answers := paper.AnswerMap{}
	if active != nil && (active.Status == paper.StatusInProgress || active.Status == paper.StatusCompleted) {
		records, err := o.svc.GetUserPaperAnswers(ctx, active.ID)
		if err != nil {
			return fmt.Errorf("load answers of %s: %w", active.ID, err)
		}
		answers = paper.HydrateAnswers(p, records)
	}

	var mode paper.Status
	if active != nil {
		mode = active.Status
	}

	data := o.stores.Data
	data.SetPaper(p)
	data.SetUserPapers(attempts)
	data.SetActiveUserPaper(active)
	data.SetMode(mode)
	data.SetAnswers(answers)

	card := o.stores.Card
	o.mu.Lock()
	width := o.viewport
	o.mu.Unlock()
	if width > 0 && width < o.cfg.NarrowWidth {
		card.SetViewMode(state.ViewCard)
	} else {
		card.SetViewMode(state.ViewScroll)
	}
	if last := len(p.Exercises) - 1; card.CurrentExerciseIndex() > last {
		card.SetCurrentExerciseIndex(max(last, 0))
	}
	return nil
}

// StartPaper moves a pending attempt to in_progress. It does nothing without
// an active attempt or when the attempt is already in progress.
func (o *Orchestrator) StartPaper(ctx context.Context) error {
	o.startMu.Lock()
	defer o.startMu.Unlock()

	active := o.stores.Data.ActiveUserPaper()
	if active == nil {
		return nil
	}
	switch active.Status {
	case paper.StatusInProgress:
		return nil
	case paper.StatusPending:
	default:
		return &TransitionError{Op: "start", From: active.Status}
	}

	end := o.beginSubmit()
	res, err := o.svc.StartUserPaper(ctx, active.ID)
	end()
	if err != nil {
		return fmt.Errorf("start paper: %w", err)
	}

	if !o.stillActive(active.ID) {
		return nil
	}
	started := res.StartedAt
	active.Status = paper.StatusInProgress
	active.StartedAt = &started
	o.stores.Data.SetActiveUserPaper(active)
	o.stores.Data.SetMode(paper.StatusInProgress)
	return nil
}

// SubmitAnswer records a selection. A pending attempt is started first. The
// answer map is updated before any network traffic and the remote submit
// runs in the background; its failures never reach the caller.
func (o *Orchestrator) SubmitAnswer(ctx context.Context, exerciseID, itemID string, answerIndex int) error {
	data := o.stores.Data

	switch data.Mode() {
	case "":
		return ErrNoActiveAttempt
	case paper.StatusPending:
		if err := o.StartPaper(ctx); err != nil {
			return err
		}
	}
	// Re-read: the start may have lost a race with a reset or reload.
	if data.Mode() != paper.StatusInProgress {
		return ErrAnswersClosed
	}

	p := data.Paper()
	exIdx, _, ok := p.FindItem(itemID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, itemID)
	}
	if exerciseID == "" {
		exerciseID = p.Exercises[exIdx].ID
	}
	if !data.SetAnswer(itemID, answerIndex) {
		return fmt.Errorf("%w: %d for item %s", ErrInvalidOption, answerIndex, itemID)
	}

	active := data.ActiveUserPaper()
	if active != nil {
		o.submitInBackground(ctx, active, paperapi.SubmitRequest{
			ExerciseID:     exerciseID,
			ExerciseItemID: itemID,
			AnswerContent:  answerIndex,
			TimeSpent:      o.timeSpent(active),
		})
	}

	o.maybeScheduleAdvance(p)
	return nil
}

func (o *Orchestrator) submitInBackground(ctx context.Context, active *paper.Attempt, req paperapi.SubmitRequest) {
	// The submit outlives the caller, e.g. a UI command that already returned.
	ctx = context.WithoutCancel(ctx)
	end := o.beginSubmit()
	o.bg.Add(1)
	go func() {
		defer o.bg.Done()
		defer end()
		if err := o.svc.SubmitAnswer(ctx, active.ID, req); err != nil && o.cfg.OnBackgroundError != nil {
			o.cfg.OnBackgroundError(paperapi.OpSubmitAnswer, err)
		}
	}()
}

// timeSpent returns whole seconds since the previous answer of the attempt,
// or since the attempt started for its first answer.
func (o *Orchestrator) timeSpent(a *paper.Attempt) int {
	now := o.cfg.Now()

	o.mu.Lock()
	defer o.mu.Unlock()
	since, ok := o.lastSubmit[a.ID]
	o.lastSubmit[a.ID] = now
	if !ok {
		if a.StartedAt == nil {
			return 0
		}
		since = *a.StartedAt
	}
	secs := int(now.Sub(since) / time.Second)
	return max(secs, 0)
}

// maybeScheduleAdvance schedules a move to the next card once every item of
// the displayed exercise is answered.
func (o *Orchestrator) maybeScheduleAdvance(p *paper.Paper) {
	card := o.stores.Card
	if card.ViewMode() != state.ViewCard {
		return
	}
	cur := card.CurrentExerciseIndex()
	if cur >= len(p.Exercises)-1 || !o.stores.Data.IsExerciseAnswered(cur) {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.advance != nil {
		o.advance.Stop()
	}
	o.advance = o.cfg.Scheduler.AfterFunc(o.cfg.AutoAdvanceDelay, o.fireAdvance)
}

// fireAdvance moves from whatever card is current when the timer fires.
func (o *Orchestrator) fireAdvance() {
	o.mu.Lock()
	o.advance = nil
	o.mu.Unlock()

	p := o.stores.Data.Paper()
	if p == nil {
		return
	}
	o.stores.Card.NextExercise(len(p.Exercises) - 1)
}

// CompletePaper finishes an in-progress attempt.
func (o *Orchestrator) CompletePaper(ctx context.Context) error {
	return o.finish(ctx, "complete", paper.StatusCompleted, o.svc.CompletePaper)
}

// AbandonPaper gives up an in-progress attempt.
func (o *Orchestrator) AbandonPaper(ctx context.Context) error {
	return o.finish(ctx, "abandon", paper.StatusAbandoned, o.svc.AbandonPaper)
}

func (o *Orchestrator) finish(ctx context.Context, op string, to paper.Status,
	call func(context.Context, string) (*paperapi.FinishResult, error)) error {
	active := o.stores.Data.ActiveUserPaper()
	if active == nil {
		return ErrNoActiveAttempt
	}
	if active.Status != paper.StatusInProgress {
		return &TransitionError{Op: op, From: active.Status}
	}

	end := o.beginSubmit()
	res, err := call(ctx, active.ID)
	end()
	if err != nil {
		return fmt.Errorf("%s paper: %w", op, err)
	}

	if !o.stillActive(active.ID) {
		return nil
	}
	finished := res.FinishedAt
	active.Status = to
	active.FinishedAt = &finished
	o.stores.Data.SetActiveUserPaper(active)
	o.stores.Data.SetMode(to)

	// Review starts from the top.
	if o.stores.Card.ViewMode() == state.ViewCard {
		o.stores.Card.SetCurrentExerciseIndex(0)
	}
	return nil
}

// RetryPaper opens a new attempt for a finished paper and reloads everything
// from the service.
func (o *Orchestrator) RetryPaper(ctx context.Context) error {
	active := o.stores.Data.ActiveUserPaper()
	if active == nil {
		return ErrNoActiveAttempt
	}
	if !active.Status.Finished() {
		return &TransitionError{Op: "retry", From: active.Status}
	}

	end := o.beginSubmit()
	res, err := o.svc.RenewPaper(ctx, active.ID)
	end()
	if err != nil {
		return fmt.Errorf("retry paper: %w", err)
	}

	paperID := res.PaperID
	if paperID == "" {
		paperID = active.PaperID
	}
	if err := o.load(ctx, paperID); err != nil {
		return fmt.Errorf("retry paper: %w", err)
	}
	return nil
}

// Reset clears all stores. Timers and background submits already in flight
// are left alone.
func (o *Orchestrator) Reset() {
	o.stores.Data.Reset()
	o.stores.Status.Reset()
	o.stores.Card.Reset()

	o.mu.Lock()
	o.lastSubmit = make(map[string]time.Time)
	o.mu.Unlock()
}

// beginSubmit raises the submitting flag and returns the function that
// lowers it. The flag stays up while any call is in flight.
func (o *Orchestrator) beginSubmit() func() {
	o.submitMu.Lock()
	o.inflight++
	if o.inflight == 1 {
		o.stores.Status.SetIsSubmitting(true)
	}
	o.submitMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.submitMu.Lock()
			o.inflight--
			if o.inflight == 0 {
				o.stores.Status.SetIsSubmitting(false)
			}
			o.submitMu.Unlock()
		})
	}
}

// stillActive reports whether attemptID is still the active attempt, i.e.
// no reset or reload happened while a remote call was in flight.
func (o *Orchestrator) stillActive(attemptID string) bool {
	a := o.stores.Data.ActiveUserPaper()
	return a != nil && a.ID == attemptID
}
