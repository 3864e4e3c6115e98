package paper

import "time"

// Status is the lifecycle status of an attempt.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusAbandoned  Status = "abandoned"
)

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusAbandoned:
		return true
	}
	return false
}

// AcceptsAnswers reports whether answer submission is allowed in this status.
func (s Status) AcceptsAnswers() bool {
	return s == StatusPending || s == StatusInProgress
}

// Finished reports whether the attempt reached a terminal status.
func (s Status) Finished() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// ExerciseType discriminates which renderer applies to an exercise.
type ExerciseType string

const (
	TypeSingleChoice ExerciseType = "single_choice"
	TypeCloze        ExerciseType = "cloze"
	TypeReading      ExerciseType = "reading"
	TypeListening    ExerciseType = "listening"
	TypeTranslation  ExerciseType = "translation"
)

// Paper is the full ordered set of exercises a student works through.
// A loaded Paper is never mutated; reloads replace it.
type Paper struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Exercises  []Exercise `json:"exercises"`
	TotalItems int        `json:"total_items"`
}

// Exercise is one graded unit.
type Exercise struct {
	ID    string         `json:"id"`
	Type  ExerciseType   `json:"type"`
	Title string         `json:"title,omitempty"`
	Items []ExerciseItem `json:"items"`
	Asset *Asset         `json:"asset,omitempty"`
}

// Asset is the nested payload some exercise types carry (passage, audio...).
type Asset struct {
	Passage     string `json:"passage,omitempty"`
	Transcript  string `json:"transcript,omitempty"`
	Translation string `json:"translation,omitempty"`
	AudioURL    string `json:"audio_url,omitempty"`
}

// ExerciseItem is the smallest answerable unit.
type ExerciseItem struct {
	ID      string   `json:"id"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
}

// Option is one selectable choice of an item.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"is_correct"`
	Rationale string `json:"rationale,omitempty"`
}

// Attempt is one try of a user at a paper (a "user paper").
type Attempt struct {
	ID         string     `json:"id"`
	PaperID    string     `json:"paper_id"`
	UserID     string     `json:"user_id"`
	Status     Status     `json:"status"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AnswerRecord is a previously recorded answer of an attempt. ItemID is nil
// for records the service could not attribute to an item.
type AnswerRecord struct {
	ExerciseItemID *string `json:"exercise_item_id"`
	AnswerIndex    int     `json:"answer_index"`
}

// AnswerMap maps exercise item ids to the selected option index.
type AnswerMap map[string]int

// Clone returns an independent copy of m. A nil map clones to an empty map.
func (m AnswerMap) Clone() AnswerMap {
	out := make(AnswerMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// DefersTranscript reports whether transcript and translation stay hidden
// until the attempt is reviewed.
func (t ExerciseType) DefersTranscript() bool {
	return t == TypeListening || t == TypeTranslation
}

// RevealTranscript reports whether the exercise's transcript may be shown
// while the attempt is in the given status.
func (e Exercise) RevealTranscript(s Status) bool {
	if e.Asset == nil || (e.Asset.Transcript == "" && e.Asset.Translation == "") {
		return false
	}
	return !e.Type.DefersTranscript() || s.Finished()
}

// ItemCount returns the number of items across all exercises.
func (p *Paper) ItemCount() int {
	if p == nil {
		return 0
	}
	n := 0
	for _, ex := range p.Exercises {
		n += len(ex.Items)
	}
	return n
}

// FindItem returns the exercise index and item for itemID.
func (p *Paper) FindItem(itemID string) (int, *ExerciseItem, bool) {
	if p == nil {
		return -1, nil, false
	}
	for i := range p.Exercises {
		for j := range p.Exercises[i].Items {
			if p.Exercises[i].Items[j].ID == itemID {
				return i, &p.Exercises[i].Items[j], true
			}
		}
	}
	return -1, nil, false
}

// ExerciseIndex returns the index of the exercise with the given id, or -1.
func (p *Paper) ExerciseIndex(exerciseID string) int {
	if p == nil {
		return -1
	}
	for i, ex := range p.Exercises {
		if ex.ID == exerciseID {
			return i
		}
	}
	return -1
}

// HasItem reports whether itemID belongs to the paper.
func (p *Paper) HasItem(itemID string) bool {
	_, _, ok := p.FindItem(itemID)
	return ok
}

// CorrectIndex returns the index of the first correct option, or -1.
func (it ExerciseItem) CorrectIndex() int {
	for i, o := range it.Options {
		if o.IsCorrect {
			return i
		}
	}
	return -1
}
