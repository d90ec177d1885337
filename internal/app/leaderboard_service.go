package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"flag-quiz-service/internal/domain"
)

// DefaultTopN is the number of leaderboard entries shown when not configured.
const DefaultTopN = 5

// ScoreStore persists and queries score records (PocketBase, Postgres, memory).
type ScoreStore interface {
	CreateScore(ctx context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error)
	// ScoresBetween returns records submitted in [start, end).
	ScoresBetween(ctx context.Context, start, end time.Time) ([]domain.ScoreRecord, error)
	// RecentScores returns up to limit records of a submitter, newest first.
	RecentScores(ctx context.Context, submitterID string, limit int) ([]domain.ScoreRecord, error)
}

// LeaderboardService computes today's leaderboard and pushes it to subscribers.
type LeaderboardService struct {
	store  ScoreStore
	topN   int
	now    func() time.Time
	logger *slog.Logger
	feed   *feed
}

func NewLeaderboardService(store ScoreStore, topN int, logger *slog.Logger) *LeaderboardService {
	if topN <= 0 {
		topN = DefaultTopN
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardService{
		store:  store,
		topN:   topN,
		now:    time.Now,
		logger: logger,
		feed:   newFeed(),
	}
}

// WithClock replaces the clock; used by tests.
func (s *LeaderboardService) WithClock(now func() time.Time) *LeaderboardService {
	s.now = now
	return s
}

// Today recomputes the leaderboard for the current UTC day from a single fetch.
func (s *LeaderboardService) Today(ctx context.Context) (domain.Leaderboard, error) {
	now := s.now()
	window := TodayWindow(now)

	records, err := s.store.ScoresBetween(ctx, window.Start, window.End)
	if err != nil {
		s.logger.Error("leaderboard fetch failed", "date", window.Date(), "error", err)
		return domain.Leaderboard{}, fmt.Errorf("fetch scores: %w", err)
	}

	return domain.Leaderboard{
		Date:      window.Date(),
		Entries:   Aggregate(records, window, s.topN),
		UpdatedAt: now.UTC(),
	}, nil
}

// Refresh recomputes the leaderboard and broadcasts it to subscribers.
func (s *LeaderboardService) Refresh(ctx context.Context) (domain.Leaderboard, error) {
	lb, err := s.Today(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	s.feed.broadcast(lb)
	s.logger.Debug("leaderboard broadcast", "date", lb.Date, "entries", len(lb.Entries), "subscribers", s.feed.size())
	return lb, nil
}

// Subscribe returns a channel that receives leaderboard updates, starting with
// the current snapshot. The caller must invoke the returned cancel function.
// The channel is registered before the snapshot is read so no refresh is missed.
func (s *LeaderboardService) Subscribe(ctx context.Context) (<-chan domain.Leaderboard, func(), error) {
	ch, cancel := s.feed.subscribe()
	lb, err := s.Today(ctx)
	if err != nil {
		cancel()
		return nil, nil, err
	}
	s.feed.offer(ch, lb)
	return ch, cancel, nil
}

// Subscribers reports how many listeners are attached.
func (s *LeaderboardService) Subscribers() int {
	return s.feed.size()
}
