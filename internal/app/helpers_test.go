package app_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type countingMetrics struct {
	mu      sync.Mutex
	started map[string]int
	correct int
	wrong   int
	scores  int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{started: map[string]int{}}
}

func (m *countingMetrics) GameStarted(mode string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started[mode]++
}

func (m *countingMetrics) AnswerRecorded(correct bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if correct {
		m.correct++
	} else {
		m.wrong++
	}
}

func (m *countingMetrics) ScoreSubmitted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores++
}

type recordingEvents struct {
	mu      sync.Mutex
	records []domain.ScoreRecord
	err     error
}

func (e *recordingEvents) ScoreSubmitted(_ context.Context, record domain.ScoreRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, record)
	return e.err
}

// failingScoreStore fails every call.
type failingScoreStore struct{}

var errStoreDown = errors.New("store down")

func (failingScoreStore) CreateScore(context.Context, domain.ScoreRecord) (domain.ScoreRecord, error) {
	return domain.ScoreRecord{}, errStoreDown
}

func (failingScoreStore) ScoresBetween(context.Context, time.Time, time.Time) ([]domain.ScoreRecord, error) {
	return nil, errStoreDown
}

func (failingScoreStore) RecentScores(context.Context, string, int) ([]domain.ScoreRecord, error) {
	return nil, errStoreDown
}

// tickingClock advances by step on every call.
func tickingClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	next := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now := next
		next = next.Add(step)
		return now
	}
}
