package postgres

import (
	"context"
	"fmt"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ScoreStore persists score records in the scores table.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) CreateScore(ctx context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.SubmittedAt.IsZero() {
		record.SubmittedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO scores (id, submitter_id, score, total_questions, display_name, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		record.ID, record.SubmitterID, record.Score, record.TotalQuestions, record.DisplayName, record.SubmittedAt,
	)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("insert score: %w", err)
	}
	return record, nil
}

func (s *ScoreStore) ScoresBetween(ctx context.Context, start, end time.Time) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, submitter_id, score, total_questions, display_name, submitted_at
		 FROM scores WHERE submitted_at >= $1 AND submitted_at < $2`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	return scanScores(rows)
}

func (s *ScoreStore) RecentScores(ctx context.Context, submitterID string, limit int) ([]domain.ScoreRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, submitter_id, score, total_questions, display_name, submitted_at
		 FROM scores WHERE submitter_id = $1 ORDER BY submitted_at DESC LIMIT $2`,
		submitterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return scanScores(rows)
}

func scanScores(rows pgx.Rows) ([]domain.ScoreRecord, error) {
	defer rows.Close()
	records := make([]domain.ScoreRecord, 0)
	for rows.Next() {
		var r domain.ScoreRecord
		if err := rows.Scan(&r.ID, &r.SubmitterID, &r.Score, &r.TotalQuestions, &r.DisplayName, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		r.SubmittedAt = r.SubmittedAt.UTC()
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scores: %w", err)
	}
	return records, nil
}
