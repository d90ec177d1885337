package pocketbase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"flag-quiz-service/internal/domain"
)

// PocketBase stores datetimes as "2006-01-02 15:04:05.000Z" in UTC.
const dateTimeLayout = "2006-01-02 15:04:05.000Z"

type scoreRecord struct {
	ID             string `json:"id,omitempty"`
	UserID         string `json:"userId"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	Name           string `json:"name,omitempty"`
	Created        string `json:"created,omitempty"`
}

func (r scoreRecord) toDomain() (domain.ScoreRecord, error) {
	created, err := parseDateTime(r.Created)
	if err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("score %s: %w", r.ID, err)
	}
	return domain.ScoreRecord{
		ID:             r.ID,
		SubmitterID:    r.UserID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		DisplayName:    r.Name,
		SubmittedAt:    created,
	}, nil
}

// CreateScore stores a score record. PocketBase assigns the id and created
// timestamp; the returned record carries them, not the caller's id.
func (c *Client) CreateScore(ctx context.Context, record domain.ScoreRecord) (domain.ScoreRecord, error) {
	body := scoreRecord{
		UserID:         record.SubmitterID,
		Score:          record.Score,
		TotalQuestions: record.TotalQuestions,
		Name:           record.DisplayName,
	}
	var created scoreRecord
	if err := c.do(ctx, http.MethodPost, "/api/collections/"+scoresCollection+"/records", nil, body, &created); err != nil {
		return domain.ScoreRecord{}, fmt.Errorf("create score: %w", err)
	}
	if created.Created == "" {
		created.Created = formatDateTime(record.SubmittedAt)
	}
	return created.toDomain()
}

// ScoresBetween returns every score created in [start, end).
func (c *Client) ScoresBetween(ctx context.Context, start, end time.Time) ([]domain.ScoreRecord, error) {
	filter := fmt.Sprintf("created >= %s && created < %s", quote(formatDateTime(start)), quote(formatDateTime(end)))
	records, err := listAll[scoreRecord](ctx, c, scoresCollection, listQuery{filter: filter, sort: "-score,created"})
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	return toDomainScores(records)
}

// RecentScores returns the latest scores of a submitter, newest first.
func (c *Client) RecentScores(ctx context.Context, submitterID string, limit int) ([]domain.ScoreRecord, error) {
	q := listQuery{filter: "userId = " + quote(submitterID), sort: "-created", perPage: limit}
	resp, err := listPage[scoreRecord](ctx, c, scoresCollection, q, 1, limit)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return toDomainScores(resp.Items)
}

func toDomainScores(records []scoreRecord) ([]domain.ScoreRecord, error) {
	out := make([]domain.ScoreRecord, 0, len(records))
	for _, r := range records {
		record, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, record)
	}
	return out, nil
}

func formatDateTime(t time.Time) string {
	return t.UTC().Format(dateTimeLayout)
}

func parseDateTime(raw string) (time.Time, error) {
	for _, layout := range []string{dateTimeLayout, "2006-01-02 15:04:05Z07:00", time.RFC3339Nano} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized datetime %q", raw)
}
