package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// ScoreStore keeps score records in process memory (dev mode and tests).
type ScoreStore struct {
	mu      sync.RWMutex
	records []domain.ScoreRecord
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{}
}

func (s *ScoreStore) CreateScore(_ context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}
	s.mu.Lock()
	s.records = append(s.records, record)
	s.mu.Unlock()
	return record, nil
}

func (s *ScoreStore) ScoresBetween(_ context.Context, start, end time.Time) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ScoreRecord, 0)
	for _, r := range s.records {
		if !r.SubmittedAt.Before(start) && r.SubmittedAt.Before(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *ScoreStore) RecentScores(_ context.Context, submitterID string, limit int) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	out := make([]domain.ScoreRecord, 0)
	for _, r := range s.records {
		if r.SubmitterID == submitterID {
			out = append(out, r)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
