package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// HistoryLimit is the number of past scores returned per submitter.
const HistoryLimit = 10

// ScoreEvents is notified after a score is persisted (e.g. a Kafka topic).
type ScoreEvents interface {
	ScoreSubmitted(ctx context.Context, record domain.ScoreRecord) error
}

// ScoreService validates and stores game results.
type ScoreService struct {
	store       ScoreStore
	leaderboard *LeaderboardService
	events      ScoreEvents
	metrics     Metrics
	now         func() time.Time
	logger      *slog.Logger
}

func NewScoreService(store ScoreStore, leaderboard *LeaderboardService, logger *slog.Logger) *ScoreService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoreService{
		store:       store,
		leaderboard: leaderboard,
		metrics:     nopMetrics{},
		now:         time.Now,
		logger:      logger,
	}
}

func (s *ScoreService) WithEvents(events ScoreEvents) *ScoreService {
	s.events = events
	return s
}

func (s *ScoreService) WithMetrics(m Metrics) *ScoreService {
	if m != nil {
		s.metrics = m
	}
	return s
}

func (s *ScoreService) WithClock(now func() time.Time) *ScoreService {
	s.now = now
	return s
}

// Submit validates a submission and persists it as a new score record.
func (s *ScoreService) Submit(ctx context.Context, submission domain.ScoreSubmission) (domain.ScoreRecord, error) {
	submission = submission.Normalize()
	if err := submission.Validate(); err != nil {
		return domain.ScoreRecord{}, err
	}
	return s.save(ctx, domain.ScoreRecord{
		ID:             uuid.NewString(),
		SubmitterID:    submission.SubmitterID,
		Score:          submission.Score,
		TotalQuestions: submission.TotalQuestions,
		DisplayName:    submission.DisplayName,
		SubmittedAt:    s.now().UTC(),
	})
}

// History returns the most recent scores of a submitter, newest first.
func (s *ScoreService) History(ctx context.Context, submitterID string) ([]domain.ScoreRecord, error) {
	submitterID = strings.TrimSpace(submitterID)
	if submitterID == "" {
		return nil, domain.NewValidationError("submitterId", "is required")
	}
	records, err := s.store.RecentScores(ctx, submitterID, HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return records, nil
}

func (s *ScoreService) save(ctx context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error) {
	saved, err := s.store.CreateScore(ctx, record)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("save score: %w", err)
	}
	s.metrics.ScoreSubmitted()
	s.logger.Info("score saved",
		"id", saved.ID,
		"submitter_id", saved.SubmitterID,
		"score", saved.Score,
		"total", saved.TotalQuestions,
	)

	// Side channels never fail the submission.
	if s.events != nil {
		if err := s.events.ScoreSubmitted(ctx, saved); err != nil {
			s.logger.Warn("failed to publish score event", "id", saved.ID, "error", err)
		}
	}
	if s.leaderboard != nil && saved.DisplayName != "" {
		if _, err := s.leaderboard.Refresh(ctx); err != nil {
			s.logger.Warn("failed to refresh leaderboard", "error", err)
		}
	}
	return saved, nil
}
