package paper

// statusRank orders attempt classes for active selection. Finished attempts
// share one class and are ordered by recency alone.
func statusRank(s Status) int {
	switch s {
	case StatusInProgress:
		return 3
	case StatusPending:
		return 2
	case StatusCompleted, StatusAbandoned:
		return 1
	}
	return 0
}

// SelectActive picks the attempt the session should work on: an in-progress
// attempt wins over a pending one, which wins over the most recently created
// finished one. Ties within a class go to the most recent CreatedAt.
// Attempts with an unknown status are never selected. Returns nil when no
// attempt qualifies.
func SelectActive(attempts []Attempt) *Attempt {
	var best *Attempt
	for i := range attempts {
		a := &attempts[i]
		rank := statusRank(a.Status)
		if rank == 0 {
			continue
		}
		if best == nil {
			best = a
			continue
		}
		bestRank := statusRank(best.Status)
		if rank > bestRank || (rank == bestRank && a.CreatedAt.After(best.CreatedAt)) {
			best = a
		}
	}
	if best == nil {
		return nil
	}
	out := *best
	return &out
}

// HydrateAnswers builds an answer map from recorded answers, skipping
// records without an item id and items the paper does not contain.
func HydrateAnswers(p *Paper, records []AnswerRecord) AnswerMap {
	answers := make(AnswerMap, len(records))
	for _, r := range records {
		if r.ExerciseItemID == nil {
			continue
		}
		if p != nil && !p.HasItem(*r.ExerciseItemID) {
			continue
		}
		answers[*r.ExerciseItemID] = r.AnswerIndex
	}
	return answers
}
