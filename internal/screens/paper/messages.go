package paper

// loadDoneMsg is sent when LoadPaper returns. Failures are in the status
// store, not here.
type loadDoneMsg struct{}

// storeChangedMsg is sent after any store mutation, including ones made by
// timers and background submits.
type storeChangedMsg struct{}

// workflowDoneMsg is sent when a start/answer/complete/abandon/retry call
// returns.
type workflowDoneMsg struct {
	op  string
	err error
}

// toastExpiredMsg hides the toast it was scheduled for.
type toastExpiredMsg struct {
	seq int
}
