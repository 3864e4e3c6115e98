package state

import (
	"fmt"
	"testing"

	"github.com/abhisek/paperz/internal/paper"
)

// testPaper builds a paper with n exercises of one item each. Option 0 is
// always the correct one.
func testPaper(n int) *paper.Paper {
	p := &paper.Paper{ID: "paper-1"}
	for i := 0; i < n; i++ {
		p.Exercises = append(p.Exercises, paper.Exercise{
			ID:   fmt.Sprintf("ex-%d", i),
			Type: paper.TypeSingleChoice,
			Items: []paper.ExerciseItem{{
				ID:     fmt.Sprintf("item-%d", i),
				Prompt: "pick",
				Options: []paper.Option{
					{Text: "right", IsCorrect: true},
					{Text: "wrong"},
				},
			}},
		})
	}
	p.TotalItems = n
	return p
}

func TestCalculateStats_NoPaper(t *testing.T) {
	s := NewDataStore()
	if got := s.CalculateStats(); got != (Stats{}) {
		t.Errorf("stats = %+v, want zero", got)
	}
}

func TestCalculateStats_EmptyAnswers(t *testing.T) {
	for _, n := range []int{0, 1, 5, 12} {
		s := NewDataStore()
		s.SetPaper(testPaper(n))
		got := s.CalculateStats()
		want := Stats{CorrectCount: 0, TotalCount: n, Score: 0}
		if n == 0 {
			want = Stats{}
		}
		if got != want {
			t.Errorf("n=%d: stats = %+v, want %+v", n, got, want)
		}
	}
}

func TestCalculateStats_AllCorrect(t *testing.T) {
	s := NewDataStore()
	s.SetPaper(testPaper(7))
	for i := 0; i < 7; i++ {
		s.SetAnswer(fmt.Sprintf("item-%d", i), 0)
	}
	if got := s.CalculateStats(); got.Score != 100 || got.CorrectCount != 7 {
		t.Errorf("stats = %+v, want score 100", got)
	}
}

func TestCalculateStats_Rounding(t *testing.T) {
	s := NewDataStore()
	s.SetPaper(testPaper(3))
	s.SetAnswer("item-0", 0)
	s.SetAnswer("item-1", 1)
	s.SetAnswer("item-2", 0)

	want := Stats{CorrectCount: 2, TotalCount: 3, Score: 67}
	if got := s.CalculateStats(); got != want {
		t.Errorf("stats = %+v, want %+v", got, want)
	}
}

func TestSetAnswer_CopyOnWrite(t *testing.T) {
	s := NewDataStore()
	s.SetPaper(testPaper(2))

	before := s.Answers()
	v0 := s.Version()
	if !s.SetAnswer("item-0", 1) {
		t.Fatal("SetAnswer rejected a known item")
	}
	if len(before) != 0 {
		t.Error("earlier copy was mutated")
	}
	if s.Version() <= v0 {
		t.Error("version not bumped")
	}
	if idx, ok := s.Answer("item-0"); !ok || idx != 1 {
		t.Errorf("Answer = %d,%v want 1,true", idx, ok)
	}
}

func TestSetAnswer_RejectsUnknownItems(t *testing.T) {
	s := NewDataStore()
	if s.SetAnswer("item-0", 0) {
		t.Error("answer accepted before a paper is loaded")
	}

	s.SetPaper(testPaper(1))
	v := s.Version()
	if s.SetAnswer("nope", 0) {
		t.Error("answer accepted for unknown item")
	}
	if s.SetAnswer("item-0", 5) {
		t.Error("answer accepted for out-of-range option")
	}
	if s.Version() != v {
		t.Error("rejected writes must not bump the version")
	}
}

func TestSetAnswers_FiltersAndPrunes(t *testing.T) {
	s := NewDataStore()
	s.SetPaper(testPaper(2))
	s.SetAnswers(paper.AnswerMap{"item-0": 0, "item-1": 1, "stray": 0})

	if got := s.Answers(); len(got) != 2 {
		t.Errorf("answers = %v, want 2 entries", got)
	}

	// Replacing the paper drops answers for items that disappeared.
	s.SetPaper(testPaper(1))
	if got := s.Answers(); len(got) != 1 || got["item-0"] != 0 {
		t.Errorf("answers after reload = %v", got)
	}
}

func TestSetActiveUserPaper_UpdatesHistory(t *testing.T) {
	s := NewDataStore()
	s.SetUserPapers([]paper.Attempt{{ID: "a", Status: paper.StatusPending}, {ID: "b", Status: paper.StatusCompleted}})
	s.SetActiveUserPaper(&paper.Attempt{ID: "a", Status: paper.StatusInProgress})

	history := s.UserPapers()
	if history[0].Status != paper.StatusInProgress {
		t.Errorf("history not updated: %+v", history[0])
	}
	if history[1].Status != paper.StatusCompleted {
		t.Errorf("unrelated attempt changed: %+v", history[1])
	}
}

func TestDataStore_Reset(t *testing.T) {
	s := NewDataStore()
	s.SetPaper(testPaper(2))
	s.SetAnswer("item-0", 0)
	s.SetMode(paper.StatusInProgress)
	s.SetActiveUserPaper(&paper.Attempt{ID: "a"})

	s.Reset()

	snap := s.Snapshot()
	if snap.Paper != nil || snap.ActiveUserPaper != nil || snap.Mode != "" || len(snap.Answers) != 0 {
		t.Errorf("reset left state behind: %+v", snap)
	}
}

func TestExerciseProgress(t *testing.T) {
	s := NewDataStore()
	p := testPaper(2)
	p.Exercises[1].Items = append(p.Exercises[1].Items, paper.ExerciseItem{
		ID: "item-1b", Options: []paper.Option{{Text: "x", IsCorrect: true}},
	})
	s.SetPaper(p)

	s.SetAnswer("item-1", 1)
	if s.IsExerciseAnswered(1) {
		t.Error("exercise with one unanswered item reported answered")
	}
	s.SetAnswer("item-1b", 0)
	if !s.IsExerciseAnswered(1) {
		t.Error("fully answered exercise reported unanswered")
	}
	if s.IsExerciseAnswered(9) {
		t.Error("out-of-range exercise reported answered")
	}
	if got := s.ItemResult("item-1"); got != ItemIncorrect {
		t.Errorf("ItemResult(item-1) = %v, want incorrect", got)
	}
	if got := s.ItemResult("item-0"); got != ItemUnanswered {
		t.Errorf("ItemResult(item-0) = %v, want unanswered", got)
	}
	if s.AnsweredCount() != 2 {
		t.Errorf("AnsweredCount = %d, want 2", s.AnsweredCount())
	}
}

func TestStatusStore(t *testing.T) {
	s := NewStatusStore()
	s.SetIsLoading(true)
	s.SetError("boom")
	s.SetIsSubmitting(true)

	want := StatusSnapshot{IsLoading: true, Error: "boom", IsSubmitting: true}
	if got := s.Snapshot(); got != want {
		t.Errorf("snapshot = %+v, want %+v", got, want)
	}

	s.ClearError()
	if s.ErrorMessage() != "" {
		t.Error("ClearError did not clear")
	}

	s.Reset()
	if got := s.Snapshot(); got != (StatusSnapshot{}) {
		t.Errorf("after reset = %+v", got)
	}
}

func TestNextExercise(t *testing.T) {
	s := NewCardStore()
	if !s.NextExercise(2) || s.CurrentExerciseIndex() != 1 || s.Direction() != DirectionRight {
		t.Fatalf("next from 0: idx=%d dir=%s", s.CurrentExerciseIndex(), s.Direction())
	}
	s.NextExercise(2)
	v := s.Version()
	if s.NextExercise(2) {
		t.Error("next at last index should be a no-op")
	}
	if s.CurrentExerciseIndex() != 2 || s.Version() != v {
		t.Errorf("cursor moved past max: %d", s.CurrentExerciseIndex())
	}
}

func TestPreviousExercise(t *testing.T) {
	s := NewCardStore()
	if s.PreviousExercise() {
		t.Error("previous at 0 should be a no-op")
	}
	if s.CurrentExerciseIndex() != 0 {
		t.Errorf("cursor = %d, want 0", s.CurrentExerciseIndex())
	}

	s.SetCurrentExerciseIndex(3)
	if !s.PreviousExercise() || s.CurrentExerciseIndex() != 2 || s.Direction() != DirectionLeft {
		t.Errorf("previous from 3: idx=%d dir=%s", s.CurrentExerciseIndex(), s.Direction())
	}
}

func TestJumpToExercise(t *testing.T) {
	tests := []struct {
		name    string
		start   int
		startDr Direction
		target  int
		wantIdx int
		wantDir Direction
		wantOK  bool
	}{
		{"forward", 2, DirectionLeft, 5, 5, DirectionRight, true},
		{"backward", 5, DirectionRight, 1, 1, DirectionLeft, true},
		{"same index keeps left", 3, DirectionLeft, 3, 3, DirectionLeft, true},
		{"same index keeps right", 3, DirectionRight, 3, 3, DirectionRight, true},
		{"negative", 3, DirectionLeft, -1, 3, DirectionLeft, false},
		{"past max", 3, DirectionLeft, 10, 3, DirectionLeft, false},
		{"exactly max", 0, DirectionLeft, 9, 9, DirectionRight, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewCardStore()
			s.JumpToExercise(tt.start, 9)
			s.direction = tt.startDr

			ok := s.JumpToExercise(tt.target, 9)
			if ok != tt.wantOK {
				t.Errorf("ok = %v, want %v", ok, tt.wantOK)
			}
			if s.CurrentExerciseIndex() != tt.wantIdx {
				t.Errorf("index = %d, want %d", s.CurrentExerciseIndex(), tt.wantIdx)
			}
			if s.Direction() != tt.wantDir {
				t.Errorf("direction = %s, want %s", s.Direction(), tt.wantDir)
			}
		})
	}
}

func TestToggleMark_Idempotent(t *testing.T) {
	s := NewCardStore()
	s.ToggleMarkExercise("keep")
	before := s.Marked()

	s.ToggleMarkExercise("ex-1")
	if !s.IsMarked("ex-1") {
		t.Fatal("expected ex-1 marked")
	}
	s.ToggleMarkExercise("ex-1")

	after := s.Marked()
	if len(after) != len(before) || !after["keep"] || after["ex-1"] {
		t.Errorf("marked = %v, want %v", after, before)
	}
}

func TestMarksSurviveNavigation(t *testing.T) {
	s := NewCardStore()
	s.ToggleMarkExercise("ex-0")
	s.NextExercise(3)
	s.SetViewMode(ViewCard)
	s.ToggleNavigationPanel()
	if !s.IsMarked("ex-0") {
		t.Error("mark lost on navigation")
	}
	s.Reset()
	if s.IsMarked("ex-0") || s.NavigationPanelOpen() || s.ViewMode() != ViewScroll {
		t.Errorf("reset incomplete: %+v", s.Snapshot())
	}
}

func TestSubscribe(t *testing.T) {
	s := NewCardStore()
	calls := 0
	unsub := s.Subscribe(func() { calls++ })

	s.ToggleNavigationPanel()
	s.PreviousExercise() // no-op, no notification
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}

	unsub()
	s.ToggleNavigationPanel()
	if calls != 1 {
		t.Errorf("calls after unsubscribe = %d, want 1", calls)
	}
}

func TestFilterExercises(t *testing.T) {
	p := testPaper(4)
	answers := paper.AnswerMap{"item-0": 0, "item-1": 1}
	marked := map[string]bool{"ex-3": true}

	tests := []struct {
		filter Filter
		want   []int
	}{
		{FilterAll, []int{0, 1, 2, 3}},
		{FilterMarked, []int{3}},
		{FilterAnswered, []int{0, 1}},
		{FilterUnanswered, []int{2, 3}},
		{FilterIncorrect, []int{1}},
	}
	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			got := FilterExercises(p, answers, marked, tt.filter)
			if fmt.Sprint(got) != fmt.Sprint(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	if FilterExercises(nil, answers, marked, FilterAll) != nil {
		t.Error("nil paper should yield nil")
	}
	if FilterIncorrect.Next() != FilterAll {
		t.Error("filter cycle should wrap")
	}
}
