// Package timezone maps coordinates and place names to IANA timezone ids
// using a small reference-city table. It is a coarse approximation: the
// nearest reference city in degree space wins, which is good enough for
// showing local wall-clock times on a movement trail.
package timezone

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/openparcel/parceltrack/internal/geomath"
)

type RefCity struct {
	Lat     float64
	Lng     float64
	TZID    string
	Country string
}

type Result struct {
	TZID    string
	Country string
}

// Resolver answers timezone lookups from an explicit table. No package
// globals: callers construct it (usually via Default) and pass it down.
type Resolver struct {
	cities    []RefCity
	byName    map[string]Result
	byCountry map[string]string
}

func New(cities []RefCity, byName map[string]Result, byCountry map[string]string) *Resolver {
	return &Resolver{cities: cities, byName: byName, byCountry: byCountry}
}

// Default returns a resolver over the built-in reference tables.
func Default() *Resolver {
	return New(defaultCities, defaultCityNames, defaultCountryTZ)
}

// ResolveCoord picks the nearest reference city by Euclidean distance in
// degree space. Ties keep the earlier table entry. Empty table => UTC.
func (r *Resolver) ResolveCoord(c geomath.Coordinate) Result {
	best := Result{TZID: "UTC", Country: ""}
	minDist := math.MaxFloat64
	for _, city := range r.cities {
		d := math.Sqrt((c.Lat-city.Lat)*(c.Lat-city.Lat) + (c.Lng-city.Lng)*(c.Lng-city.Lng))
		if d < minDist {
			minDist = d
			best = Result{TZID: city.TZID, Country: city.Country}
		}
	}
	return best
}

// ResolveName matches a city name case-insensitively, then falls back to
// the country-code table, then to UTC.
func (r *Resolver) ResolveName(city, countryHint string) Result {
	key := strings.ToLower(strings.TrimSpace(city))
	if res, ok := r.byName[key]; ok {
		return res
	}
	hint := strings.ToUpper(strings.TrimSpace(countryHint))
	if tz, ok := r.byCountry[hint]; ok {
		return Result{TZID: tz, Country: hint}
	}
	return Result{TZID: "UTC", Country: ""}
}

// LocalTime converts a UTC instant to wall-clock time in tzid and returns
// the signed offset in ±HH:MM form. Unknown tzid degrades to UTC, never
// an error.
func LocalTime(t time.Time, tzid string) (time.Time, string) {
	loc, err := time.LoadLocation(tzid)
	if err != nil {
		return t.UTC(), "+00:00"
	}
	local := t.In(loc)
	_, offsetSec := local.Zone()
	return local, FormatOffset(offsetSec)
}

// FormatOffset renders an offset in seconds as ±HH:MM.
func FormatOffset(offsetSec int) string {
	sign := "+"
	if offsetSec < 0 {
		sign = "-"
		offsetSec = -offsetSec
	}
	return fmt.Sprintf("%s%02d:%02d", sign, offsetSec/3600, offsetSec%3600/60)
}
