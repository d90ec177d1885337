package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"flag-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const countriesKey = "countries:all"

// CountryLoader fetches the full country list from a backing store.
type CountryLoader interface {
	LoadCountries(ctx context.Context) ([]domain.Country, error)
}

// CountryRepository caches the country list in Redis (one JSON value shared by
// all instances) and falls back to a loader on cache miss.
type CountryRepository struct {
	client *redis.Client
	loader CountryLoader
	ttl    time.Duration
	logger *slog.Logger
	sf     singleflight.Group
}

func NewCountryRepository(client *redis.Client, loader CountryLoader, ttl time.Duration, logger *slog.Logger) *CountryRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &CountryRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		logger: logger,
	}
}

// Countries returns the countries of region ("" for all), sorted by English name.
func (r *CountryRepository) Countries(ctx context.Context, region string) ([]domain.Country, error) {
	if countries, ok := r.cached(ctx); ok {
		return domain.CountriesInRegion(countries, region), nil
	}

	result, err, _ := r.sf.Do(countriesKey, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if countries, ok := r.cached(ctx); ok {
			return countries, nil
		}

		countries, err := r.loader.LoadCountries(ctx)
		if err != nil {
			return nil, err
		}
		if len(countries) == 0 {
			return nil, domain.ErrCountriesUnavailable
		}
		domain.SortByName(countries)

		payload, err := json.Marshal(countries)
		if err != nil {
			return nil, fmt.Errorf("encode countries: %w", err)
		}
		if err := r.client.Set(ctx, countriesKey, payload, r.ttlWithJitter()).Err(); err != nil {
			r.logger.Warn("failed to cache countries", "error", err)
		}
		return countries, nil
	})
	if err != nil {
		return nil, err
	}
	return domain.CountriesInRegion(result.([]domain.Country), region), nil
}

// Invalidate removes the cached list.
func (r *CountryRepository) Invalidate(ctx context.Context) error {
	return r.client.Del(ctx, countriesKey).Err()
}

func (r *CountryRepository) cached(ctx context.Context) ([]domain.Country, bool) {
	payload, err := r.client.Get(ctx, countriesKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("failed to read cached countries", "error", err)
		}
		return nil, false
	}
	var countries []domain.Country
	if err := json.Unmarshal(payload, &countries); err != nil || len(countries) == 0 {
		return nil, false
	}
	return countries, true
}

func (r *CountryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
