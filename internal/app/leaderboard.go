package app

import (
	"math"
	"sort"
	"strings"

	"flag-quiz-service/internal/domain"
)

// Aggregate ranks the named records submitted inside window.
// Higher scores rank first; equal scores rank by earlier submission.
func Aggregate(records []domain.ScoreRecord, window Window, topN int) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(records))
	if topN <= 0 {
		return entries
	}
	for _, record := range records {
		name := strings.TrimSpace(record.DisplayName)
		if name == "" || !window.Contains(record.SubmittedAt) {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			ID:             record.ID,
			DisplayName:    name,
			Score:          record.Score,
			TotalQuestions: record.TotalQuestions,
			Percentage:     Percentage(record.Score, record.TotalQuestions),
			SubmittedAt:    record.SubmittedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].SubmittedAt.Before(entries[j].SubmittedAt)
	})

	if len(entries) > topN {
		entries = entries[:topN]
	}
	return entries
}

// Percentage is score/total*100 rounded half up and clamped to [0, 100];
// a non-positive total counts as 0%.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	pct := int(math.Floor(float64(score)*100/float64(total) + 0.5))
	return min(max(pct, 0), 100)
}
