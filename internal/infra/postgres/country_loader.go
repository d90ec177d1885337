package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"flag-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// CountryLoader loads the country catalog from Postgres.
type CountryLoader struct {
	pool *pgxpool.Pool
}

func NewCountryLoader(pool *pgxpool.Pool) *CountryLoader {
	return &CountryLoader{pool: pool}
}

func (l *CountryLoader) LoadCountries(ctx context.Context) ([]domain.Country, error) {
	rows, err := l.pool.Query(ctx, `SELECT code, names, flag_file, region FROM countries ORDER BY names->>'en', code`)
	if err != nil {
		return nil, fmt.Errorf("load countries: %w", err)
	}
	defer rows.Close()

	var countries []domain.Country
	for rows.Next() {
		var (
			c        domain.Country
			rawNames []byte
		)
		if err := rows.Scan(&c.Code, &rawNames, &c.FlagFile, &c.Region); err != nil {
			return nil, fmt.Errorf("scan country: %w", err)
		}
		if err := json.Unmarshal(rawNames, &c.Names); err != nil {
			return nil, fmt.Errorf("unmarshal country names: %w", err)
		}
		countries = append(countries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate countries: %w", err)
	}
	return countries, nil
}
