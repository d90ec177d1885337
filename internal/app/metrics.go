package app

// Metrics records service-level counters.
type Metrics interface {
	GameStarted(mode string)
	AnswerRecorded(correct bool)
	ScoreSubmitted()
}

type nopMetrics struct{}

func (nopMetrics) GameStarted(string) {}
func (nopMetrics) AnswerRecorded(bool) {}
func (nopMetrics) ScoreSubmitted() {}
