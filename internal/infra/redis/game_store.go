package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

const maxUpdateRetries = 5

// GameStore keeps game sessions in Redis so any instance can serve a game.
// Each game is one JSON value with a sliding TTL; updates use WATCH/MULTI.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{client: client, ttl: ttl}
}

func (s *GameStore) Save(ctx context.Context, game domain.Game) error {
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	if err := s.client.Set(ctx, s.key(game.ID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("store game: %w", err)
	}
	return nil
}

func (s *GameStore) Get(ctx context.Context, id string) (domain.Game, error) {
	payload, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Game{}, domain.ErrGameNotFound
		}
		return domain.Game{}, fmt.Errorf("load game: %w", err)
	}
	return decodeGame(payload)
}

func (s *GameStore) Update(ctx context.Context, id string, fn func(*domain.Game) error) (domain.Game, error) {
	key := s.key(id)
	var updated domain.Game

	txf := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return domain.ErrGameNotFound
			}
			return fmt.Errorf("load game: %w", err)
		}
		game, err := decodeGame(payload)
		if err != nil {
			return err
		}
		if err := fn(&game); err != nil {
			return err
		}
		next, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("encode game: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, s.ttl)
			return nil
		})
		if err == nil {
			updated = game
		}
		return err
	}

	for i := 0; i < maxUpdateRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			// another writer touched the game; retry on the fresh value
			continue
		}
		if err != nil {
			return domain.Game{}, err
		}
		return updated, nil
	}
	return domain.Game{}, fmt.Errorf("update game %s: %w", id, redis.TxFailedErr)
}

func (s *GameStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

func (s *GameStore) key(id string) string {
	return "game:" + id
}

func decodeGame(payload []byte) (domain.Game, error) {
	var game domain.Game
	if err := json.Unmarshal(payload, &game); err != nil {
		return domain.Game{}, fmt.Errorf("decode game: %w", err)
	}
	return game, nil
}
