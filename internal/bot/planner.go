package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/i474232898/route-weather-bot/internal/maplink"
	"github.com/i474232898/route-weather-bot/internal/weather"
)

// ErrRoutePointNotFound is returned when a route point no longer resolves
// during fan-out.
var ErrRoutePointNotFound = errors.New("route point not found")

// RoutePointError names the route point that failed to resolve.
type RoutePointError struct {
	Name string
	Err  error
}

func (e *RoutePointError) Error() string {
	return fmt.Sprintf("%s: %q: %v", ErrRoutePointNotFound, e.Name, e.Err)
}

func (e *RoutePointError) Unwrap() []error {
	return []error{ErrRoutePointNotFound, e.Err}
}

// Resolver turns names and coordinates into locations.
type Resolver interface {
	Resolve(ctx context.Context, name string) (weather.Location, error)
	ResolveCoordinates(ctx context.Context, lat, lon float64) (weather.Location, error)
}

// Forecaster fetches daily forecasts for a resolved location.
type Forecaster interface {
	Forecast(ctx context.Context, loc weather.Location, days int) ([]weather.DailyForecast, error)
}

// ChartRenderer draws a forecast chart and returns the image path.
type ChartRenderer interface {
	Render(city string, days []weather.DailyForecast) (string, error)
}

// PlannerConfig holds the collaborators for Planner.
type PlannerConfig struct {
	Resolver   Resolver
	Forecaster Forecaster

	// Charts is optional; without it no charts are rendered.
	Charts ChartRenderer

	Metrics *Metrics
	Logger  zerolog.Logger
}

// Planner runs the per-point forecast pipeline for a whole route.
type Planner struct {
	resolver   Resolver
	forecaster Forecaster
	charts     ChartRenderer
	metrics    *Metrics
	logger     zerolog.Logger
}

// NewPlanner creates a new Planner.
func NewPlanner(cfg PlannerConfig) *Planner {
	return &Planner{
		resolver:   cfg.Resolver,
		forecaster: cfg.Forecaster,
		charts:     cfg.Charts,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
}

// RoutePlan is the outcome of a fan-out, one entry per route point in route
// order.
type RoutePlan struct {
	Days    int                          `json:"days"`
	Entries []weather.RouteForecastEntry `json:"entries"`

	// MapLink is empty when no point carries coordinates.
	MapLink string `json:"mapLink,omitempty"`
}

// Plan re-resolves every point by name, fetches and classifies its forecast
// and, when withCharts is set, renders a chart. Points are processed
// sequentially so entries keep route order.
//
// A point that fails to resolve aborts the whole plan with a
// *RoutePointError, unless ctx is done, in which case ctx's error is returned. Forecast and chart failures only leave that point without
// data or without a chart.
func (p *Planner) Plan(ctx context.Context, names []string, days int, withCharts bool) (*RoutePlan, error) {
	if !weather.ValidDays(days) {
		return nil, weather.ErrInvalidDays
	}

	plan := &RoutePlan{
		Days:    days,
		Entries: make([]weather.RouteForecastEntry, 0, len(names)),
	}

	for _, name := range names {
		loc, err := p.resolver.Resolve(ctx, name)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("resolving %q: %w", name, ctxErr)
			}
			p.metrics.resolutionFailed(ctx, "route_point")
			return nil, &RoutePointError{Name: name, Err: err}
		}

		forecast, err := p.forecaster.Forecast(ctx, loc, days)
		if err != nil {
			p.logger.Warn().Err(err).Str("city", loc.Name).Int("days", days).Msg("forecast unavailable")
			forecast = nil
		}
		for i := range forecast {
			forecast[i] = forecast[i].Classified()
		}

		entry := weather.RouteForecastEntry{
			City:     name,
			Forecast: forecast,
			Lat:      loc.Lat,
			Lon:      loc.Lon,
		}

		if withCharts && p.charts != nil {
			path, err := p.charts.Render(name, forecast)
			if err != nil {
				p.metrics.chartFailed(ctx)
				p.logger.Warn().Err(err).Str("city", name).Msg("chart render failed")
			} else {
				entry.ChartPath = path
			}
		}

		plan.Entries = append(plan.Entries, entry)
	}

	points := make([]maplink.Point, 0, len(plan.Entries))
	for _, entry := range plan.Entries {
		points = append(points, maplink.Point{Lat: entry.Lat, Lon: entry.Lon})
	}
	if link, ok := maplink.Build(points); ok {
		plan.MapLink = link
	}

	return plan, nil
}
