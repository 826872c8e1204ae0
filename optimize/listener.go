package optimize

import "log"

// IterationListener observes training progress. Listeners are invoked
// synchronously after each solver iteration.
type IterationListener interface {
	IterationDone(m Model, iteration int, score float64)
}

// ScoreListener logs the model score every Every iterations.
type ScoreListener struct {
	Every int
}

// NewScoreListener returns a listener logging every n iterations.
func NewScoreListener(n int) *ScoreListener {
	return &ScoreListener{Every: n}
}

// IterationDone logs the score when the iteration hits the configured
// interval.
func (l *ScoreListener) IterationDone(_ Model, iteration int, score float64) {
	every := l.Every
	if every <= 0 {
		every = 1
	}
	if iteration%every == 0 {
		log.Printf("score at iteration %d is %v", iteration, score)
	}
}
