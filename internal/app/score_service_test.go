package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"flag-quiz-service/internal/infra/memory"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitValidatesInput(t *testing.T) {
	service := app.NewScoreService(memory.NewScoreStore(), nil, nil)

	cases := []struct {
		name       string
		submission domain.ScoreSubmission
		field      string
	}{
		{"missing submitter", domain.ScoreSubmission{SubmitterID: "  ", Score: 1, TotalQuestions: 15}, "submitterId"},
		{"zero total", domain.ScoreSubmission{SubmitterID: "s1", Score: 0, TotalQuestions: 0}, "totalQuestions"},
		{"negative score", domain.ScoreSubmission{SubmitterID: "s1", Score: -1, TotalQuestions: 15}, "score"},
		{"score above total", domain.ScoreSubmission{SubmitterID: "s1", Score: 16, TotalQuestions: 15}, "score"},
		{"long name", domain.ScoreSubmission{SubmitterID: "s1", Score: 1, TotalQuestions: 15, DisplayName: strings.Repeat("ж", 41)}, "displayName"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Submit(context.Background(), tc.submission)
			var validation *domain.ValidationError
			require.ErrorAs(t, err, &validation)
			assert.Equal(t, tc.field, validation.Field)
		})
	}
}

func TestSubmitStoresRecord(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	store := memory.NewScoreStore()
	metrics := newCountingMetrics()
	events := &recordingEvents{}
	service := app.NewScoreService(store, nil, nil).
		WithClock(fixedClock(now)).
		WithMetrics(metrics).
		WithEvents(events)

	record, err := service.Submit(context.Background(), domain.ScoreSubmission{
		SubmitterID:    " s1 ",
		Score:          12,
		TotalQuestions: 15,
		DisplayName:    "  Jelena  ",
	})
	require.NoError(t, err)

	_, err = uuid.Parse(record.ID)
	assert.NoError(t, err, "record id should be a uuid")
	assert.Equal(t, "s1", record.SubmitterID)
	assert.Equal(t, "Jelena", record.DisplayName)
	assert.True(t, record.SubmittedAt.Equal(now))
	assert.Equal(t, 1, metrics.scores)
	require.Len(t, events.records, 1)
	assert.Equal(t, record.ID, events.records[0].ID)

	stored, err := store.RecentScores(context.Background(), "s1", 10)
	require.NoError(t, err)
	assert.Equal(t, []domain.ScoreRecord{record}, stored)
}

func TestSubmitIgnoresEventFailures(t *testing.T) {
	events := &recordingEvents{err: errors.New("broker unavailable")}
	service := app.NewScoreService(memory.NewScoreStore(), nil, nil).WithEvents(events)

	_, err := service.Submit(context.Background(), domain.ScoreSubmission{SubmitterID: "s1", Score: 1, TotalQuestions: 2})
	require.NoError(t, err)
	assert.Len(t, events.records, 1)
}

func TestSubmitWrapsStoreErrors(t *testing.T) {
	service := app.NewScoreService(failingScoreStore{}, nil, nil)

	_, err := service.Submit(context.Background(), domain.ScoreSubmission{SubmitterID: "s1", Score: 1, TotalQuestions: 2})
	require.ErrorIs(t, err, errStoreDown)
}

func TestHistoryNewestFirstAndLimited(t *testing.T) {
	store := memory.NewScoreStore()
	start := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	ctx := context.Background()
	for i := 0; i < 12; i++ {
		_, err := store.CreateScore(ctx, domain.ScoreRecord{
			SubmitterID:    "s1",
			Score:          i,
			TotalQuestions: 15,
			SubmittedAt:    start.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	_, err := store.CreateScore(ctx, domain.ScoreRecord{SubmitterID: "other", Score: 15, TotalQuestions: 15, SubmittedAt: start})
	require.NoError(t, err)

	history, err := app.NewScoreService(store, nil, nil).History(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, app.HistoryLimit)
	assert.Equal(t, 11, history[0].Score)
	assert.Equal(t, 2, history[len(history)-1].Score)
}

func TestHistoryRequiresSubmitter(t *testing.T) {
	_, err := app.NewScoreService(memory.NewScoreStore(), nil, nil).History(context.Background(), "")
	var validation *domain.ValidationError
	require.ErrorAs(t, err, &validation)
}
