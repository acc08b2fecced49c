package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds the collaborators and limits for Service.
type ServiceConfig struct {
	Searcher  LocationSearcher
	Reverse   ReverseGeocoder
	Forecasts ForecastSource

	// RequestTimeout bounds city search and forecast calls (default: 5s).
	RequestTimeout time.Duration

	// ReverseTimeout bounds reverse geocoding calls (default: 10s).
	ReverseTimeout time.Duration

	Logger zerolog.Logger

	// Now is used to date synthesized single-day forecasts (default: time.Now).
	Now func() time.Time
}

// Service resolves places and fetches their forecasts.
type Service struct {
	searcher       LocationSearcher
	reverse        ReverseGeocoder
	forecasts      ForecastSource
	requestTimeout time.Duration
	reverseTimeout time.Duration
	logger         zerolog.Logger
	now            func() time.Time
}

// NewService creates a new Service.
func NewService(cfg ServiceConfig) *Service {
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 5 * time.Second
	}
	reverseTimeout := cfg.ReverseTimeout
	if reverseTimeout <= 0 {
		reverseTimeout = 10 * time.Second
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		searcher:       cfg.Searcher,
		reverse:        cfg.Reverse,
		forecasts:      cfg.Forecasts,
		requestTimeout: requestTimeout,
		reverseTimeout: reverseTimeout,
		logger:         cfg.Logger,
		now:            now,
	}
}

// Resolve looks a place up by name and returns the first match that carries
// coordinates. Every failure is reported as ErrNotFound.
func (s *Service) Resolve(ctx context.Context, name string) (Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Location{}, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	results, err := s.searcher.SearchCity(ctx, name)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("provider", s.searcher.Name()).
			Str("query", name).
			Msg("city search failed")
		return Location{}, fmt.Errorf("%w: %q", ErrNotFound, name)
	}

	for _, loc := range results {
		if _, _, ok := loc.Coordinates(); ok {
			s.logger.Debug().
				Str("query", name).
				Str("city", loc.Name).
				Str("key", loc.Key).
				Msg("city resolved")
			return loc, nil
		}
	}

	s.logger.Info().Str("query", name).Int("results", len(results)).Msg("no city with coordinates")
	return Location{}, fmt.Errorf("%w: %q", ErrNotFound, name)
}

// ResolveCoordinates reverse geocodes a coordinate pair. The returned location
// keeps the original coordinates and has no forecast key.
func (s *Service) ResolveCoordinates(ctx context.Context, lat, lon float64) (Location, error) {
	if s.reverse == nil {
		return Location{}, fmt.Errorf("%w: reverse geocoding not configured", ErrNotFound)
	}

	ctx, cancel := context.WithTimeout(ctx, s.reverseTimeout)
	defer cancel()

	place, err := s.reverse.ReverseGeocode(ctx, lat, lon)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("provider", s.reverse.Name()).
			Float64("lat", lat).
			Float64("lon", lon).
			Msg("reverse geocoding failed")
		return Location{}, fmt.Errorf("%w: (%f, %f)", ErrNotFound, lat, lon)
	}

	name := place.Name()
	if name == "" {
		s.logger.Info().Float64("lat", lat).Float64("lon", lon).Msg("no settlement at coordinates")
		return Location{}, fmt.Errorf("%w: (%f, %f)", ErrNotFound, lat, lon)
	}

	return NewLocation(name, lat, lon, ""), nil
}

// Forecast returns one entry per day, today first. A one-day forecast is
// synthesized from current conditions; longer horizons come from the daily
// forecast and may be shorter than requested if the provider returns less.
func (s *Service) Forecast(ctx context.Context, loc Location, days int) ([]DailyForecast, error) {
	if !ValidDays(days) {
		return nil, ErrInvalidDays
	}
	if loc.Key == "" {
		return nil, errors.New("location has no forecast key")
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	if days == 1 {
		cur, err := s.forecasts.CurrentConditions(ctx, loc.Key)
		if err != nil {
			return nil, fmt.Errorf("current conditions for %s: %w", loc.Name, err)
		}
		return []DailyForecast{s.synthesize(cur)}, nil
	}

	daily, err := s.forecasts.DailyForecast(ctx, loc.Key, days)
	if err != nil {
		return nil, fmt.Errorf("daily forecast for %s: %w", loc.Name, err)
	}
	if len(daily) > days {
		daily = daily[:days]
	}
	return daily, nil
}

func (s *Service) synthesize(cur Conditions) DailyForecast {
	date := cur.ObservedAt
	if date.IsZero() {
		date = s.now()
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	return DailyForecast{
		Date:            day,
		MinTempC:        cur.TemperatureC,
		MaxTempC:        cur.TemperatureC,
		WindKph:         cur.WindKph,
		PrecipProb:      cur.PrecipProb,
		NightWindKph:    cur.WindKph,
		NightPrecipProb: cur.PrecipProb,
		DayPhrase:       cur.Phrase,
		NightPhrase:     cur.Phrase,
	}
}
