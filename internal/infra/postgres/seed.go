package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"flag-quiz-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

type countryRow struct {
	bun.BaseModel `bun:"table:countries"`

	Code     string            `bun:"code,pk"`
	Names    map[string]string `bun:"names,type:jsonb"`
	FlagFile string            `bun:"flag_file"`
	Region   string            `bun:"region"`
}

// OpenDB opens a bun handle over the pgdriver connector.
func OpenDB(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

// SeedCountries upserts the given countries by code and returns how many were written.
func SeedCountries(ctx context.Context, db *bun.DB, countries []domain.Country) (int, error) {
	if len(countries) == 0 {
		return 0, nil
	}
	rows := make([]countryRow, 0, len(countries))
	for _, c := range countries {
		rows = append(rows, countryRow{
			Code:     c.Code,
			Names:    c.Names,
			FlagFile: c.FlagFile,
			Region:   c.Region,
		})
	}

	res, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (code) DO UPDATE").
		Set("names = EXCLUDED.names").
		Set("flag_file = EXCLUDED.flag_file").
		Set("region = EXCLUDED.region").
		Set("updated_at = now()").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("upsert countries: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return len(rows), nil
	}
	return int(n), nil
}
