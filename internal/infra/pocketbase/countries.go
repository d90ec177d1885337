package pocketbase

import (
	"context"
	"fmt"
	"net/http"

	"flag-quiz-service/internal/domain"
)

type countryRecord struct {
	ID        string `json:"id,omitempty"`
	Code      string `json:"code"`
	NameEn    string `json:"nameEn"`
	NameSr    string `json:"nameSr"`
	FlagFile  string `json:"flagFile"`
	Continent string `json:"continent"`
}

func (r countryRecord) toDomain() domain.Country {
	names := map[string]string{"en": r.NameEn}
	if r.NameSr != "" {
		names["sr"] = r.NameSr
	}
	return domain.Country{
		Code:     r.Code,
		Names:    names,
		FlagFile: r.FlagFile,
		Region:   r.Continent,
	}
}

func countryRecordFrom(c domain.Country) countryRecord {
	return countryRecord{
		Code:      c.Code,
		NameEn:    c.Names["en"],
		NameSr:    c.Names["sr"],
		FlagFile:  c.FlagFile,
		Continent: c.Region,
	}
}

// Countries lists countries of a continent ("" for all), sorted by English name.
func (c *Client) Countries(ctx context.Context, region string) ([]domain.Country, error) {
	q := listQuery{sort: "nameEn"}
	if region != "" {
		q.filter = "continent = " + quote(region)
	}
	records, err := listAll[countryRecord](ctx, c, countriesCollection, q)
	if err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	countries := make([]domain.Country, 0, len(records))
	for _, r := range records {
		countries = append(countries, r.toDomain())
	}
	c.logger.Debug("fetched countries", "region", region, "count", len(countries))
	return countries, nil
}

// LoadCountries returns every country; it satisfies the cache loader interfaces.
func (c *Client) LoadCountries(ctx context.Context) ([]domain.Country, error) {
	return c.Countries(ctx, "")
}

// SeedCountries creates or updates countries by code and returns how many were written.
func (c *Client) SeedCountries(ctx context.Context, countries []domain.Country) (int, error) {
	existing, err := listAll[countryRecord](ctx, c, countriesCollection, listQuery{})
	if err != nil {
		return 0, fmt.Errorf("list countries: %w", err)
	}
	idByCode := make(map[string]string, len(existing))
	for _, r := range existing {
		idByCode[r.Code] = r.ID
	}

	written := 0
	for _, country := range countries {
		record := countryRecordFrom(country)
		path := "/api/collections/" + countriesCollection + "/records"
		method := http.MethodPost
		if id, ok := idByCode[country.Code]; ok {
			path += "/" + id
			method = http.MethodPatch
		}
		if err := c.do(ctx, method, path, nil, record, nil); err != nil {
			return written, fmt.Errorf("write country %s: %w", country.Code, err)
		}
		written++
	}
	return written, nil
}
