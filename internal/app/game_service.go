package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/google/uuid"
)

// CountryRepository returns the country pool of a region ("" for all countries).
type CountryRepository interface {
	Countries(ctx context.Context, region string) ([]domain.Country, error)
}

// GameRepository abstracts how game sessions are stored (in-memory, Redis, etc).
type GameRepository interface {
	Save(ctx context.Context, game domain.Game) error
	Get(ctx context.Context, id string) (domain.Game, error)
	// Update applies fn atomically to the stored game and persists the result.
	Update(ctx context.Context, id string, fn func(*domain.Game) error) (domain.Game, error)
	Delete(ctx context.Context, id string) error
}

// GameService contains the play use cases: start, answer, save score.
type GameService struct {
	countries CountryRepository
	games     GameRepository
	scores    *ScoreService
	modes     map[string]domain.GameMode
	metrics   Metrics
	now       func() time.Time
	logger    *slog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewGameService(countries CountryRepository, games GameRepository, scores *ScoreService, modes []domain.GameMode, logger *slog.Logger) *GameService {
	if logger == nil {
		logger = slog.Default()
	}
	byName := make(map[string]domain.GameMode, len(modes))
	for _, m := range modes {
		byName[strings.ToLower(m.Name)] = m
	}
	return &GameService{
		countries: countries,
		games:     games,
		scores:    scores,
		modes:     byName,
		metrics:   nopMetrics{},
		now:       time.Now,
		logger:    logger,
		rnd:       NewRand(),
	}
}

func (s *GameService) WithMetrics(m Metrics) *GameService {
	if m != nil {
		s.metrics = m
	}
	return s
}

func (s *GameService) WithClock(now func() time.Time) *GameService {
	s.now = now
	return s
}

// WithRand makes question order reproducible in tests.
func (s *GameService) WithRand(rnd *rand.Rand) *GameService {
	s.rnd = rnd
	return s
}

// Modes lists the configured game modes by name.
func (s *GameService) Modes() []domain.GameMode {
	modes := make([]domain.GameMode, 0, len(s.modes))
	for _, m := range s.modes {
		modes = append(modes, m)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i].Name < modes[j].Name })
	return modes
}

// Start creates a game for a submitter in the given mode.
// A region too small to build questions falls back to the full country pool.
func (s *GameService) Start(ctx context.Context, submitterID, modeName string) (domain.Game, error) {
	submitterID = strings.TrimSpace(submitterID)
	if submitterID == "" {
		return domain.Game{}, domain.NewValidationError("submitterId", "is required")
	}
	mode, ok := s.modes[strings.ToLower(strings.TrimSpace(modeName))]
	if !ok {
		return domain.Game{}, fmt.Errorf("%w: %q", domain.ErrUnknownMode, modeName)
	}

	questions, err := s.questionsFor(ctx, mode.Region, mode.Questions)
	if errors.Is(err, domain.ErrInsufficientData) && mode.Region != "" {
		s.logger.Warn("region pool too small, using all countries", "mode", mode.Name, "region", mode.Region)
		questions, err = s.questionsFor(ctx, "", mode.Questions)
	}
	if err != nil {
		return domain.Game{}, err
	}

	game := domain.Game{
		ID:          uuid.NewString(),
		SubmitterID: submitterID,
		Mode:        mode.Name,
		Questions:   questions,
		StartedAt:   s.now().UTC(),
	}
	if err := s.games.Save(ctx, game); err != nil {
		return domain.Game{}, fmt.Errorf("save game: %w", err)
	}
	s.metrics.GameStarted(mode.Name)
	s.logger.Info("game started", "game_id", game.ID, "mode", mode.Name, "questions", len(questions))
	return game, nil
}

// Get returns a stored game.
func (s *GameService) Get(ctx context.Context, gameID string) (domain.Game, error) {
	return s.games.Get(ctx, gameID)
}

// Answer records the answer to the current question of a game.
func (s *GameService) Answer(ctx context.Context, gameID string, questionID int, answer string) (domain.AnswerResult, error) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return domain.AnswerResult{}, domain.NewValidationError("answer", "is required")
	}

	var result domain.AnswerResult
	now := s.now().UTC()
	_, err := s.games.Update(ctx, gameID, func(g *domain.Game) error {
		var err error
		result, err = answerQuestion(g, questionID, answer, now)
		return err
	})
	if err != nil {
		return domain.AnswerResult{}, err
	}
	s.metrics.AnswerRecorded(result.Correct)
	return result, nil
}

// SaveScore persists the result of a finished game once.
func (s *GameService) SaveScore(ctx context.Context, gameID, displayName string) (domain.ScoreRecord, error) {
	scoreID := uuid.NewString()
	game, err := s.games.Update(ctx, gameID, func(g *domain.Game) error {
		if !g.Finished() {
			return domain.ErrGameNotFinished
		}
		if g.ScoreID != "" {
			return domain.ErrScoreAlreadySaved
		}
		g.ScoreID = scoreID
		return nil
	})
	if err != nil {
		return domain.ScoreRecord{}, err
	}

	submission := domain.ScoreSubmission{
		SubmitterID:    game.SubmitterID,
		Score:          game.Score,
		TotalQuestions: len(game.Questions),
		DisplayName:    displayName,
	}.Normalize()
	if err := submission.Validate(); err != nil {
		s.releaseScore(ctx, gameID)
		return domain.ScoreRecord{}, err
	}

	submittedAt := s.now().UTC()
	if game.FinishedAt != nil {
		submittedAt = *game.FinishedAt
	}
	record, err := s.scores.save(ctx, domain.ScoreRecord{
		ID:             scoreID,
		SubmitterID:    submission.SubmitterID,
		Score:          submission.Score,
		TotalQuestions: submission.TotalQuestions,
		DisplayName:    submission.DisplayName,
		SubmittedAt:    submittedAt,
	})
	if err != nil {
		s.releaseScore(ctx, gameID)
		return domain.ScoreRecord{}, err
	}
	if record.ID != scoreID {
		// Stores that assign their own ids (PocketBase) replace the claim.
		if _, err := s.games.Update(ctx, gameID, func(g *domain.Game) error {
			g.ScoreID = record.ID
			return nil
		}); err != nil {
			s.logger.Warn("failed to record score id", "game_id", gameID, "score_id", record.ID, "error", err)
		}
	}
	return record, nil
}

// Abandon drops an unfinished or saved game.
func (s *GameService) Abandon(ctx context.Context, gameID string) error {
	return s.games.Delete(ctx, gameID)
}

func (s *GameService) releaseScore(ctx context.Context, gameID string) {
	if _, err := s.games.Update(ctx, gameID, func(g *domain.Game) error {
		g.ScoreID = ""
		return nil
	}); err != nil {
		s.logger.Warn("failed to release score claim", "game_id", gameID, "error", err)
	}
}

func (s *GameService) questionsFor(ctx context.Context, region string, count int) ([]domain.Question, error) {
	pool, err := s.countries.Countries(ctx, region)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	s.rndMu.Lock()
	defer s.rndMu.Unlock()
	return Generate(pool, count, s.rnd)
}

// answerQuestion applies an answer to the current question of g.
func answerQuestion(g *domain.Game, questionID int, answer string, now time.Time) (domain.AnswerResult, error) {
	if g.Finished() {
		return domain.AnswerResult{}, domain.ErrGameFinished
	}
	question := g.Questions[g.Current]
	if question.ID != questionID {
		return domain.AnswerResult{}, fmt.Errorf("%w: expected %d, got %d", domain.ErrQuestionOutOfOrder, question.ID, questionID)
	}
	if !containsCode(question.Options, answer) {
		return domain.AnswerResult{}, domain.NewValidationError("answer", "is not one of the options")
	}

	correct := domain.SameCode(answer, question.CorrectAnswer)
	if correct {
		g.Score++
	}
	g.Current++
	if g.Finished() {
		finishedAt := now
		g.FinishedAt = &finishedAt
	}

	return domain.AnswerResult{
		QuestionID:    question.ID,
		Correct:       correct,
		CorrectAnswer: question.CorrectAnswer,
		Score:         g.Score,
		Answered:      g.Current,
		Finished:      g.Finished(),
	}, nil
}

func containsCode(codes []string, code string) bool {
	for _, c := range codes {
		if domain.SameCode(c, code) {
			return true
		}
	}
	return false
}
