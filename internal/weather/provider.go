package weather

import (
	"context"
)

// LocationSearcher looks up places by free-text name (e.g. AccuWeather city search).
type LocationSearcher interface {
	Name() string
	SearchCity(ctx context.Context, query string) ([]Location, error)
}

// ReverseGeocoder resolves coordinates to a settlement (e.g. Nominatim, Google).
type ReverseGeocoder interface {
	Name() string
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}

// ForecastSource abstracts a provider that serves both current conditions
// and daily forecasts keyed by its own location key.
type ForecastSource interface {
	Name() string
	CurrentConditions(ctx context.Context, key string) (Conditions, error)
	DailyForecast(ctx context.Context, key string, days int) ([]DailyForecast, error)
}
