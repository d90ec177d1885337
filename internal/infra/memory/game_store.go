package memory

import (
	"context"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameRepository.
// Games expire ttl after their last write; a zero ttl keeps them until deleted.
type GameStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.Mutex
	games map[string]storedGame
}

type storedGame struct {
	game      domain.Game
	expiresAt time.Time
}

func NewGameStore(ttl time.Duration) *GameStore {
	return NewGameStoreWithClock(ttl, time.Now)
}

func NewGameStoreWithClock(ttl time.Duration, clock func() time.Time) *GameStore {
	return &GameStore{
		ttl:   ttl,
		clock: clock,
		games: make(map[string]storedGame),
	}
}

func (s *GameStore) Save(_ context.Context, game domain.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(game)
	return nil
}

func (s *GameStore) Get(_ context.Context, id string) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.getLocked(id)
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	return copyGame(stored), nil
}

func (s *GameStore) Update(_ context.Context, id string, fn func(*domain.Game) error) (domain.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.getLocked(id)
	if !ok {
		return domain.Game{}, domain.ErrGameNotFound
	}
	game := copyGame(stored)
	if err := fn(&game); err != nil {
		return domain.Game{}, err
	}
	s.putLocked(game)
	return copyGame(game), nil
}

func (s *GameStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, id)
	return nil
}

// Len reports the number of live games.
func (s *GameStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.clock()
	n := 0
	for _, g := range s.games {
		if g.live(now) {
			n++
		}
	}
	return n
}

func (s *GameStore) getLocked(id string) (domain.Game, bool) {
	stored, ok := s.games[id]
	if !ok {
		return domain.Game{}, false
	}
	if !stored.live(s.clock()) {
		delete(s.games, id)
		return domain.Game{}, false
	}
	return stored.game, true
}

func (s *GameStore) putLocked(game domain.Game) {
	entry := storedGame{game: copyGame(game)}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.games[game.ID] = entry
}

func (g storedGame) live(now time.Time) bool {
	return g.expiresAt.IsZero() || now.Before(g.expiresAt)
}

func copyGame(g domain.Game) domain.Game {
	out := g
	out.Questions = make([]domain.Question, len(g.Questions))
	for i, q := range g.Questions {
		q.Options = append([]string(nil), q.Options...)
		out.Questions[i] = q
	}
	if g.FinishedAt != nil {
		finishedAt := *g.FinishedAt
		out.FinishedAt = &finishedAt
	}
	return out
}
