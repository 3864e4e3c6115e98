package state

import "github.com/abhisek/paperz/internal/paper"

// Filter narrows the exercises listed in the navigation panel.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterMarked     Filter = "marked"
	FilterUnanswered Filter = "unanswered"
	FilterAnswered   Filter = "answered"
	FilterIncorrect  Filter = "incorrect"
)

var filterCycle = []Filter{FilterAll, FilterMarked, FilterUnanswered, FilterAnswered, FilterIncorrect}

// Next returns the filter after f in display order, wrapping around.
func (f Filter) Next() Filter {
	for i, c := range filterCycle {
		if c == f {
			return filterCycle[(i+1)%len(filterCycle)]
		}
	}
	return FilterAll
}

// FilterExercises returns the indices of exercises matching f. An exercise
// is incorrect when any of its answered items selected a wrong option.
func FilterExercises(p *paper.Paper, answers paper.AnswerMap, marked map[string]bool, f Filter) []int {
	if p == nil {
		return nil
	}
	var out []int
	for i, ex := range p.Exercises {
		if matchesFilter(ex, answers, marked, f) {
			out = append(out, i)
		}
	}
	return out
}

func matchesFilter(ex paper.Exercise, answers paper.AnswerMap, marked map[string]bool, f Filter) bool {
	switch f {
	case FilterMarked:
		return marked[ex.ID]
	case FilterUnanswered:
		return !exerciseAnswered(ex, answers)
	case FilterAnswered:
		return exerciseAnswered(ex, answers)
	case FilterIncorrect:
		for _, it := range ex.Items {
			if itemResult(it, answers) == ItemIncorrect {
				return true
			}
		}
		return false
	default:
		return true
	}
}
