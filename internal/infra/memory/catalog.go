package memory

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"flag-quiz-service/internal/domain"
)

//go:embed countries.json
var catalogJSON []byte

// Catalog returns the embedded country catalog. It seeds record stores and
// backs the fallback loader when the country source is unreachable.
func Catalog() ([]domain.Country, error) {
	var countries []domain.Country
	if err := json.Unmarshal(catalogJSON, &countries); err != nil {
		return nil, fmt.Errorf("decode country catalog: %w", err)
	}
	return countries, nil
}

// StaticCountryLoader is a simple loader backed by a fixed list (useful for tests/demos).
type StaticCountryLoader struct {
	countries []domain.Country
}

func NewStaticCountryLoader(countries []domain.Country) *StaticCountryLoader {
	return &StaticCountryLoader{countries: countries}
}

// NewCatalogLoader serves the embedded catalog.
func NewCatalogLoader() (*StaticCountryLoader, error) {
	countries, err := Catalog()
	if err != nil {
		return nil, err
	}
	return NewStaticCountryLoader(countries), nil
}

func (l *StaticCountryLoader) LoadCountries(_ context.Context) ([]domain.Country, error) {
	out := make([]domain.Country, len(l.countries))
	copy(out, l.countries)
	return out, nil
}

// FallbackLoader reads from a primary source and falls back to another loader
// when the primary fails, times out, or returns nothing.
type FallbackLoader struct {
	primary  CountryLoader
	fallback CountryLoader
	timeout  time.Duration
	logger   *slog.Logger
}

func NewFallbackLoader(primary, fallback CountryLoader, timeout time.Duration, logger *slog.Logger) *FallbackLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackLoader{primary: primary, fallback: fallback, timeout: timeout, logger: logger}
}

func (l *FallbackLoader) LoadCountries(ctx context.Context) ([]domain.Country, error) {
	primaryCtx := ctx
	if l.timeout > 0 {
		var cancel context.CancelFunc
		primaryCtx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	countries, err := l.primary.LoadCountries(primaryCtx)
	if err == nil && len(countries) > 0 {
		return countries, nil
	}
	if err == nil {
		err = domain.ErrCountriesUnavailable
	}
	l.logger.Warn("country source failed, using fallback list", "error", err)

	countries, fallbackErr := l.fallback.LoadCountries(ctx)
	if fallbackErr != nil {
		return nil, fmt.Errorf("load fallback countries: %w", fallbackErr)
	}
	return countries, nil
}
