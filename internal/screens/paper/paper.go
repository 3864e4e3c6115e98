// Package paper is the screen a student takes a paper on.
package paper

import (
	"context"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/paperz/internal/actions"
	"github.com/abhisek/paperz/internal/facade"
	"github.com/abhisek/paperz/internal/input"
	pp "github.com/abhisek/paperz/internal/paper"
	"github.com/abhisek/paperz/internal/router"
	"github.com/abhisek/paperz/internal/screen"
	"github.com/abhisek/paperz/internal/screens/results"
	"github.com/abhisek/paperz/internal/state"
	"github.com/abhisek/paperz/internal/ui/components"
	"github.com/abhisek/paperz/internal/ui/layout"
)

const toastDuration = 4 * time.Second

// Workflow names used in messages and confirmations.
const (
	opStart    = "start"
	opAnswer   = "answer"
	opComplete = "complete"
	opAbandon  = "abandon"
	opRetry    = "retry"
)

// itemRef locates an item by exercise and item position.
type itemRef struct {
	ex, item int
}

// Screen implements screen.Screen for one paper.
type Screen struct {
	ctx     context.Context
	paperID string
	orch    *actions.Orchestrator
	view    *facade.Facade
	keys    *input.KeyAdapter
	swipe   input.SwipeTracker

	jump     components.TextInput
	confirm  string
	focus    int // index into itemRefs
	cursor   int // highlighted option of the focused item
	toast    string
	toastSeq int
	loaded   bool

	changes   chan struct{}
	done      chan struct{}
	unsubs    []func()
	closeOnce sync.Once
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)
var _ screen.Closer = (*Screen)(nil)

// New creates the screen for paperID. The paper is loaded once the first
// window size is known, so the view mode can follow the terminal width.
func New(ctx context.Context, orch *actions.Orchestrator, paperID string) *Screen {
	s := &Screen{
		ctx:     ctx,
		paperID: paperID,
		orch:    orch,
		view:    facade.ForOrchestrator(orch),
		jump:    components.NewTextInput("Go to exercise:", "number", true, 3),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	stores := orch.Stores()
	s.keys = input.NewKeyAdapter(stores.Data, stores.Card, &s.jump)
	s.unsubs = []func(){
		stores.Data.Subscribe(s.signal),
		stores.Status.Subscribe(s.signal),
		stores.Card.Subscribe(s.signal),
	}
	return s
}

func (s *Screen) Init() tea.Cmd {
	return s.waitForChange()
}

func (s *Screen) Title() string {
	if p := s.view.GetState().Paper; p != nil && p.Title != "" {
		return p.Title
	}
	return "Paper"
}

// Status labels the attempt mode for the header badge.
func (s *Screen) Status() string {
	st := s.view.GetState()
	label := modeLabel(st.Mode)
	if st.IsSubmitting {
		if label == "" {
			return "saving"
		}
		label += " · saving"
	}
	return label
}

// CapturesEscape reports whether esc is consumed by a prompt or dialog.
func (s *Screen) CapturesEscape() bool {
	return s.jump.Focused() || s.confirm != ""
}

func (s *Screen) KeyHints() []layout.KeyHint {
	st := s.view.GetState()
	switch {
	case s.jump.Focused():
		return []layout.KeyHint{{Key: "Enter", Description: "Go"}, {Key: "Esc", Description: "Cancel"}}
	case s.confirm != "":
		return []layout.KeyHint{{Key: "Y", Description: "Confirm"}, {Key: "N", Description: "Cancel"}}
	case st.Paper == nil:
		return []layout.KeyHint{{Key: "r", Description: "Reload"}, {Key: "Ctrl+C", Description: "Quit"}}
	}

	hints := []layout.KeyHint{{Key: "Tab", Description: "Item"}}
	if st.Mode.AcceptsAnswers() {
		hints = append(hints, layout.KeyHint{Key: "a-f", Description: "Answer"})
	}
	if st.ViewMode == state.ViewCard {
		hints = append(hints,
			layout.KeyHint{Key: "←→", Description: "Card"},
			layout.KeyHint{Key: "n", Description: "Panel"})
	}
	hints = append(hints,
		layout.KeyHint{Key: "m", Description: "Mark"},
		layout.KeyHint{Key: "v", Description: "View"},
		layout.KeyHint{Key: "g", Description: "Go to"})
	switch {
	case st.Mode == pp.StatusPending:
		hints = append(hints, layout.KeyHint{Key: "s", Description: "Start"})
	case st.Mode == pp.StatusInProgress:
		hints = append(hints,
			layout.KeyHint{Key: "C", Description: "Complete"},
			layout.KeyHint{Key: "x", Description: "Abandon"})
	case st.Mode.Finished():
		hints = append(hints, layout.KeyHint{Key: "r", Description: "Retry"})
	}
	return hints
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.orch.SetViewport(msg.Width)
		if !s.loaded {
			s.loaded = true
			return s, s.load()
		}
		return s, nil

	case loadDoneMsg:
		s.syncFocus()
		return s, nil

	case storeChangedMsg:
		s.syncFocus()
		return s, s.waitForChange()

	case workflowDoneMsg:
		return s.handleWorkflowDone(msg)

	case toastExpiredMsg:
		if msg.seq == s.toastSeq {
			s.toast = ""
		}
		return s, nil

	case tea.KeyPressMsg:
		return s.handleKey(msg)

	case tea.MouseClickMsg, tea.MouseReleaseMsg:
		s.keys.HandleMouseMsg(&s.swipe, msg)
		return s, nil
	}

	if s.jump.Focused() {
		var cmd tea.Cmd
		s.jump, cmd = s.jump.Update(msg)
		return s, cmd
	}
	return s, nil
}

// Close releases the key adapter and store subscriptions.
func (s *Screen) Close() {
	s.closeOnce.Do(func() {
		s.keys.Close()
		for _, u := range s.unsubs {
			u()
		}
		close(s.done)
	})
}

// signal is the store subscriber. It never blocks the writer.
func (s *Screen) signal() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

func (s *Screen) waitForChange() tea.Cmd {
	changes, done := s.changes, s.done
	return func() tea.Msg {
		select {
		case <-done:
			return nil
		default:
		}
		select {
		case <-changes:
			return storeChangedMsg{}
		case <-done:
			return nil
		}
	}
}

func (s *Screen) load() tea.Cmd {
	ctx, orch, id := s.ctx, s.orch, s.paperID
	return func() tea.Msg {
		orch.LoadPaper(ctx, id)
		return loadDoneMsg{}
	}
}

func (s *Screen) run(op string, fn func(context.Context) error) tea.Cmd {
	ctx := s.ctx
	return func() tea.Msg {
		return workflowDoneMsg{op: op, err: fn(ctx)}
	}
}

func (s *Screen) workflow(op string) tea.Cmd {
	switch op {
	case opStart:
		return s.run(op, s.orch.StartPaper)
	case opComplete:
		return s.run(op, s.orch.CompletePaper)
	case opAbandon:
		return s.run(op, s.orch.AbandonPaper)
	case opRetry:
		return s.run(op, s.orch.RetryPaper)
	}
	return nil
}

func (s *Screen) handleWorkflowDone(msg workflowDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.err != nil {
		return s, s.showToast(actions.Message(msg.err))
	}
	switch msg.op {
	case opComplete:
		res := results.New(s.view)
		return s, func() tea.Msg { return router.PushScreenMsg{Screen: res} }
	case opRetry:
		s.setFocus(0)
	}
	return s, nil
}

func (s *Screen) showToast(text string) tea.Cmd {
	s.toastSeq++
	s.toast = text
	seq := s.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastExpiredMsg{seq: seq}
	})
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.jump.Focused() {
		switch key {
		case "enter":
			n, err := s.jump.NumericValue()
			s.jump.Blur()
			if err == nil {
				s.jumpTo(n - 1)
			}
			return s, nil
		case "esc":
			s.jump.Blur()
			return s, nil
		}
		var cmd tea.Cmd
		s.jump, cmd = s.jump.Update(msg)
		return s, cmd
	}

	if s.confirm != "" {
		switch key {
		case "y", "Y":
			op := s.confirm
			s.confirm = ""
			return s, s.workflow(op)
		case "n", "N", "esc":
			s.confirm = ""
		}
		return s, nil
	}

	st := s.view.GetState()
	if st.Paper == nil {
		if key == "r" && !st.IsLoading {
			return s, s.load()
		}
		return s, nil
	}

	if s.keys.HandleKeyMsg(msg) {
		return s, nil
	}

	card := s.orch.Stores().Card
	switch key {
	case "tab":
		s.moveFocus(1, st)
	case "shift+tab":
		s.moveFocus(-1, st)
	case "up", "k":
		s.cursor = max(s.cursor-1, 0)
	case "down", "j":
		if it := s.focusedItem(st); it != nil {
			s.cursor = min(s.cursor+1, len(it.Options)-1)
		}
	case "enter":
		return s.answer(st, s.cursor)
	case "v":
		if st.ViewMode == state.ViewCard {
			card.SetViewMode(state.ViewScroll)
		} else {
			card.SetViewMode(state.ViewCard)
		}
	case "g":
		return s, s.jump.Focus()
	case "F":
		card.SetFilter(st.Filter.Next())
	case "m", "M":
		if refs := itemRefs(st.Paper); s.focus < len(refs) {
			card.ToggleMarkExercise(st.Paper.Exercises[refs[s.focus].ex].ID)
		}
	case "s":
		if st.Mode == pp.StatusPending {
			return s, s.workflow(opStart)
		}
	case "C":
		if st.Mode == pp.StatusInProgress {
			s.confirm = opComplete
		}
	case "x":
		if st.Mode == pp.StatusInProgress {
			s.confirm = opAbandon
		}
	case "r":
		if st.Mode.Finished() {
			return s, s.workflow(opRetry)
		}
	default:
		if idx, ok := components.LetterIndex(key); ok {
			return s.answer(st, idx)
		}
	}
	return s, nil
}

// answer submits option idx for the focused item and moves focus on.
func (s *Screen) answer(st facade.State, idx int) (screen.Screen, tea.Cmd) {
	refs := itemRefs(st.Paper)
	if s.focus >= len(refs) {
		return s, nil
	}
	ref := refs[s.focus]
	ex := st.Paper.Exercises[ref.ex]
	it := ex.Items[ref.item]
	if idx < 0 || idx >= len(it.Options) {
		return s, nil
	}

	s.cursor = idx
	orch := s.orch
	cmd := s.run(opAnswer, func(ctx context.Context) error {
		return orch.SubmitAnswer(ctx, ex.ID, it.ID, idx)
	})

	if st.Mode.AcceptsAnswers() {
		next := s.focus + 1
		if next < len(refs) && (st.ViewMode != state.ViewCard || refs[next].ex == ref.ex) {
			s.setFocus(next)
		}
	}
	return s, cmd
}

// jumpTo moves to exercise idx in either view. Out of range is ignored.
func (s *Screen) jumpTo(idx int) {
	st := s.view.GetState()
	if st.Paper == nil {
		return
	}
	if !s.orch.Stores().Card.JumpToExercise(idx, len(st.Paper.Exercises)-1) {
		return
	}
	if first := firstItemOf(itemRefs(st.Paper), idx); first >= 0 {
		s.setFocus(first)
	}
}

// moveFocus steps between items. Card view stays inside the current card;
// scroll view drags the card cursor along.
func (s *Screen) moveFocus(delta int, st facade.State) {
	refs := itemRefs(st.Paper)
	next := s.focus + delta
	if next < 0 || next >= len(refs) {
		return
	}
	if st.ViewMode == state.ViewCard {
		if refs[next].ex != refs[s.focus].ex {
			return
		}
	} else if refs[next].ex != refs[s.focus].ex {
		s.orch.Stores().Card.SetCurrentExerciseIndex(refs[next].ex)
	}
	s.setFocus(next)
}

func (s *Screen) setFocus(i int) {
	s.focus = i
	s.cursor = 0
	if it := s.focusedItem(s.view.GetState()); it != nil {
		if a, ok := s.orch.Stores().Data.Answer(it.ID); ok {
			s.cursor = a
		}
	}
}

// syncFocus keeps focus valid after store changes and, in card view, inside
// the current card.
func (s *Screen) syncFocus() {
	st := s.view.GetState()
	refs := itemRefs(st.Paper)
	if len(refs) == 0 {
		s.focus, s.cursor = 0, 0
		return
	}
	if s.focus >= len(refs) {
		s.setFocus(len(refs) - 1)
	}
	if st.ViewMode == state.ViewCard && refs[s.focus].ex != st.CurrentExerciseIndex {
		if first := firstItemOf(refs, st.CurrentExerciseIndex); first >= 0 {
			s.setFocus(first)
		}
	}
}

func (s *Screen) focusedItem(st facade.State) *pp.ExerciseItem {
	refs := itemRefs(st.Paper)
	if s.focus >= len(refs) {
		return nil
	}
	r := refs[s.focus]
	return &st.Paper.Exercises[r.ex].Items[r.item]
}

func itemRefs(p *pp.Paper) []itemRef {
	if p == nil {
		return nil
	}
	refs := make([]itemRef, 0, p.ItemCount())
	for i, ex := range p.Exercises {
		for j := range ex.Items {
			refs = append(refs, itemRef{ex: i, item: j})
		}
	}
	return refs
}

func firstItemOf(refs []itemRef, ex int) int {
	for i, r := range refs {
		if r.ex == ex {
			return i
		}
	}
	return -1
}

func modeLabel(m pp.Status) string {
	switch m {
	case pp.StatusPending:
		return "not started"
	case pp.StatusInProgress:
		return "in progress"
	case pp.StatusCompleted:
		return "completed"
	case pp.StatusAbandoned:
		return "abandoned"
	}
	return ""
}
