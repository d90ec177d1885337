package domain

import (
	"sort"
	"strings"
)

// CountriesInRegion returns the countries of region, or all of them when region is empty.
// The input slice is not modified.
func CountriesInRegion(countries []Country, region string) []Country {
	region = strings.TrimSpace(region)
	out := make([]Country, 0, len(countries))
	for _, c := range countries {
		if region == "" || strings.EqualFold(c.Region, region) {
			out = append(out, c)
		}
	}
	return out
}

// SortByName orders countries by English name, then code, in place.
func SortByName(countries []Country) {
	sort.SliceStable(countries, func(i, j int) bool {
		ni, nj := countries[i].Name(DefaultLanguage), countries[j].Name(DefaultLanguage)
		if ni != nj {
			return ni < nj
		}
		return countries[i].Code < countries[j].Code
	})
}
