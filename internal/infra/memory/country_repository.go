package memory

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"flag-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CountryLoader fetches the full country list from a backing source (PocketBase, Postgres).
type CountryLoader interface {
	LoadCountries(ctx context.Context) ([]domain.Country, error)
}

// CountryRepository caches the country list with a TTL to avoid repeated source hits.
// Region pools are filtered from the cached full list.
type CountryRepository struct {
	loader CountryLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	mu    sync.RWMutex
	cache countryCache
}

type countryCache struct {
	countries []domain.Country
	fetchedAt time.Time
	ttl       time.Duration
}

func (c countryCache) fresh(now time.Time) bool {
	return len(c.countries) > 0 && now.Sub(c.fetchedAt) < c.ttl
}

func NewCountryRepository(loader CountryLoader, ttl time.Duration) *CountryRepository {
	return NewCountryRepositoryWithClock(loader, ttl, time.Now)
}

// NewCountryRepositoryWithClock allows deterministic expiry in tests.
func NewCountryRepositoryWithClock(loader CountryLoader, ttl time.Duration, clock func() time.Time) *CountryRepository {
	return &CountryRepository{
		loader: loader,
		ttl:    ttl,
		clock:  clock,
	}
}

// Countries returns the countries of region ("" for all), sorted by English name.
func (r *CountryRepository) Countries(ctx context.Context, region string) ([]domain.Country, error) {
	all, err := r.all(ctx)
	if err != nil {
		return nil, err
	}
	return domain.CountriesInRegion(all, region), nil
}

func (r *CountryRepository) all(ctx context.Context) ([]domain.Country, error) {
	r.mu.RLock()
	if r.cache.fresh(r.clock()) {
		countries := r.cache.countries
		r.mu.RUnlock()
		return countries, nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do("countries", func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if r.cache.fresh(now) {
			countries := r.cache.countries
			r.mu.RUnlock()
			return countries, nil
		}
		r.mu.RUnlock()

		countries, err := r.loader.LoadCountries(ctx)
		if err != nil {
			return nil, err
		}
		if len(countries) == 0 {
			return nil, domain.ErrCountriesUnavailable
		}
		sorted := make([]domain.Country, len(countries))
		copy(sorted, countries)
		domain.SortByName(sorted)

		r.mu.Lock()
		r.cache = countryCache{
			countries: sorted,
			fetchedAt: now,
			ttl:       r.ttlWithJitter(),
		}
		r.mu.Unlock()
		return sorted, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Country), nil
}

// Invalidate drops the cached list so the next read reloads it.
func (r *CountryRepository) Invalidate() {
	r.mu.Lock()
	r.cache = countryCache{}
	r.mu.Unlock()
}

func (r *CountryRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(rand.Int64N(jitterMax+1))
}
