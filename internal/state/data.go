package state

import (
	"math"
	"sync"

	"github.com/abhisek/paperz/internal/paper"
)

// Stats is the derived score of the current answer map.
type Stats struct {
	CorrectCount int
	TotalCount   int
	Score        int // 0-100
}

// ItemResult classifies an item against the answer map.
type ItemResult int

const (
	ItemUnanswered ItemResult = iota
	ItemCorrect
	ItemIncorrect
)

// DataStore owns the paper payload, the attempt records, the lifecycle mode
// and the answer map. It never talks to the network.
//
// The answer map is replaced, never mutated in place: every write builds a
// new map and bumps the store version.
type DataStore struct {
	notifier

	mu         sync.RWMutex
	paper      *paper.Paper
	userPapers []paper.Attempt
	active     *paper.Attempt
	mode       paper.Status
	answers    paper.AnswerMap
}

// NewDataStore returns an empty store.
func NewDataStore() *DataStore {
	return &DataStore{answers: paper.AnswerMap{}}
}

// DataSnapshot is a consistent copy of the data store.
type DataSnapshot struct {
	Paper           *paper.Paper
	UserPapers      []paper.Attempt
	ActiveUserPaper *paper.Attempt
	Mode            paper.Status
	Answers         paper.AnswerMap
}

// Snapshot returns a copy of the whole store under one lock.
func (s *DataStore) Snapshot() DataSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return DataSnapshot{
		Paper:           s.paper,
		UserPapers:      append([]paper.Attempt(nil), s.userPapers...),
		ActiveUserPaper: copyAttempt(s.active),
		Mode:            s.mode,
		Answers:         s.answers.Clone(),
	}
}

// Paper returns the loaded paper, or nil. The paper must be treated as
// read-only.
func (s *DataStore) Paper() *paper.Paper {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paper
}

// SetPaper replaces the loaded paper. Answers for items the new paper does
// not contain are dropped.
func (s *DataStore) SetPaper(p *paper.Paper) {
	s.mu.Lock()
	s.paper = p
	s.answers = filterAnswers(p, s.answers)
	s.mu.Unlock()
	notify(s.bump())
}

// UserPapers returns a copy of the attempt history.
func (s *DataStore) UserPapers() []paper.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]paper.Attempt(nil), s.userPapers...)
}

// SetUserPapers replaces the attempt history.
func (s *DataStore) SetUserPapers(attempts []paper.Attempt) {
	s.mu.Lock()
	s.userPapers = append([]paper.Attempt(nil), attempts...)
	s.mu.Unlock()
	notify(s.bump())
}

// ActiveUserPaper returns a copy of the active attempt, or nil.
func (s *DataStore) ActiveUserPaper() *paper.Attempt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyAttempt(s.active)
}

// SetActiveUserPaper replaces the active attempt. The matching entry of the
// attempt history is updated too so both views agree.
func (s *DataStore) SetActiveUserPaper(a *paper.Attempt) {
	s.mu.Lock()
	s.active = copyAttempt(a)
	if a != nil {
		history := append([]paper.Attempt(nil), s.userPapers...)
		for i := range history {
			if history[i].ID == a.ID {
				history[i] = *a
			}
		}
		s.userPapers = history
	}
	s.mu.Unlock()
	notify(s.bump())
}

// Mode returns the mirrored status of the active attempt. Empty when no
// attempt is active.
func (s *DataStore) Mode() paper.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// SetMode sets the lifecycle mode.
func (s *DataStore) SetMode(m paper.Status) {
	s.mu.Lock()
	s.mode = m
	s.mu.Unlock()
	notify(s.bump())
}

// Answers returns a copy of the answer map.
func (s *DataStore) Answers() paper.AnswerMap {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.answers.Clone()
}

// Answer returns the selected option index for itemID.
func (s *DataStore) Answer(itemID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx, ok := s.answers[itemID]
	return idx, ok
}

// SetAnswers replaces the answer map. Entries for unknown items are dropped.
func (s *DataStore) SetAnswers(answers paper.AnswerMap) {
	s.mu.Lock()
	s.answers = filterAnswers(s.paper, answers)
	s.mu.Unlock()
	notify(s.bump())
}

// SetAnswer records a single selection. It reports false, leaving the map
// untouched, when the item is not part of the loaded paper or the index is
// outside the item's options.
func (s *DataStore) SetAnswer(itemID string, answerIndex int) bool {
	s.mu.Lock()
	_, item, ok := s.paper.FindItem(itemID)
	if !ok || answerIndex < 0 || answerIndex >= len(item.Options) {
		s.mu.Unlock()
		return false
	}
	next := s.answers.Clone()
	next[itemID] = answerIndex
	s.answers = next
	s.mu.Unlock()
	notify(s.bump())
	return true
}

// CalculateStats scores the answer map against the loaded paper.
func (s *DataStore) CalculateStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return calculateStats(s.paper, s.answers)
}

func calculateStats(p *paper.Paper, answers paper.AnswerMap) Stats {
	if p == nil {
		return Stats{}
	}
	var st Stats
	for _, ex := range p.Exercises {
		for _, it := range ex.Items {
			st.TotalCount++
			if itemResult(it, answers) == ItemCorrect {
				st.CorrectCount++
			}
		}
	}
	if st.TotalCount == 0 {
		return Stats{}
	}
	st.Score = int(math.Round(float64(st.CorrectCount) / float64(st.TotalCount) * 100))
	return st
}

// AnsweredCount returns the number of answered items.
func (s *DataStore) AnsweredCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.answers)
}

// IsExerciseAnswered reports whether every item of the exercise at idx has
// an answer. Exercises without items count as answered.
func (s *DataStore) IsExerciseAnswered(idx int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.paper == nil || idx < 0 || idx >= len(s.paper.Exercises) {
		return false
	}
	return exerciseAnswered(s.paper.Exercises[idx], s.answers)
}

// ItemResult classifies itemID against the answer map.
func (s *DataStore) ItemResult(itemID string) ItemResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, item, ok := s.paper.FindItem(itemID)
	if !ok {
		return ItemUnanswered
	}
	return itemResult(*item, s.answers)
}

// Reset clears the store to its initial state.
func (s *DataStore) Reset() {
	s.mu.Lock()
	s.paper = nil
	s.userPapers = nil
	s.active = nil
	s.mode = ""
	s.answers = paper.AnswerMap{}
	s.mu.Unlock()
	notify(s.bump())
}

func itemResult(it paper.ExerciseItem, answers paper.AnswerMap) ItemResult {
	idx, ok := answers[it.ID]
	if !ok {
		return ItemUnanswered
	}
	if idx >= 0 && idx < len(it.Options) && it.Options[idx].IsCorrect {
		return ItemCorrect
	}
	return ItemIncorrect
}

func exerciseAnswered(ex paper.Exercise, answers paper.AnswerMap) bool {
	for _, it := range ex.Items {
		if _, ok := answers[it.ID]; !ok {
			return false
		}
	}
	return true
}

func filterAnswers(p *paper.Paper, answers paper.AnswerMap) paper.AnswerMap {
	out := make(paper.AnswerMap, len(answers))
	for id, idx := range answers {
		if p.HasItem(id) {
			out[id] = idx
		}
	}
	return out
}

func copyAttempt(a *paper.Attempt) *paper.Attempt {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}
