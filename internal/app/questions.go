package app

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"flag-quiz-service/internal/domain"
)

const (
	optionsPerQuestion     = 4
	distractorsPerQuestion = optionsPerQuestion - 1
)

// Generate builds up to count questions from pool.
//
// Correct answers are the first count countries of a shuffled pool, so no country
// is asked twice in one set. Distractors are drawn cyclically from the shuffled
// remainder; when the remainder is too small to give three distinct distractors
// each question draws from the whole pool minus its own country instead.
func Generate(pool []domain.Country, count int, rnd *rand.Rand) ([]domain.Question, error) {
	pool = uniqueByCode(pool)
	if len(pool) < optionsPerQuestion {
		return nil, fmt.Errorf("%w: have %d, need %d", domain.ErrInsufficientData, len(pool), optionsPerQuestion)
	}
	if count > len(pool) {
		count = len(pool)
	}
	if count < 1 {
		return []domain.Question{}, nil
	}

	shuffled := shuffle(rnd, pool)
	selected := shuffled[:count]
	reservoir := shuffle(rnd, shuffled[count:])

	questions := make([]domain.Question, 0, count)
	for index, country := range selected {
		source := reservoir
		offset := index * distractorsPerQuestion
		if len(source) < distractorsPerQuestion {
			source = without(shuffled, country.Code)
		}

		options := make([]string, 0, optionsPerQuestion)
		options = append(options, country.Code)
		for k := 0; k < distractorsPerQuestion; k++ {
			options = append(options, source[(offset+k)%len(source)].Code)
		}

		questions = append(questions, domain.Question{
			ID:                index + 1,
			FlagAssetRef:      country.FlagAssetRef(),
			CorrectAnswer:     country.Code,
			Options:           shuffle(rnd, options),
			SourceCountryCode: country.Code,
		})
	}
	return questions, nil
}

func uniqueByCode(countries []domain.Country) []domain.Country {
	seen := make(map[string]struct{}, len(countries))
	out := make([]domain.Country, 0, len(countries))
	for _, c := range countries {
		key := strings.ToLower(strings.TrimSpace(c.Code))
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out
}

func without(countries []domain.Country, code string) []domain.Country {
	out := make([]domain.Country, 0, len(countries))
	for _, c := range countries {
		if !domain.SameCode(c.Code, code) {
			out = append(out, c)
		}
	}
	return out
}
