package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

type fakeResolver struct {
	known  map[string]weather.Location
	place  *weather.Location
	calls  []string
	coords int
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{
		known: map[string]weather.Location{
			"Moscow": weather.NewLocation("Moscow", 55.75, 37.62, "294021"),
			"Paris":  weather.NewLocation("Paris", 48.85, 2.35, "623"),
			"Tula":   weather.NewLocation("Tula", 54.2, 37.6, "293886"),
			"Orel":   weather.NewLocation("Orel", 52.97, 36.07, "295382"),
		},
	}
}

func (f *fakeResolver) Resolve(_ context.Context, name string) (weather.Location, error) {
	f.calls = append(f.calls, name)
	loc, ok := f.known[name]
	if !ok {
		return weather.Location{}, fmt.Errorf("%w: %q", weather.ErrNotFound, name)
	}
	return loc, nil
}

func (f *fakeResolver) ResolveCoordinates(_ context.Context, lat, lon float64) (weather.Location, error) {
	f.coords++
	if f.place == nil {
		return weather.Location{}, weather.ErrNotFound
	}
	return weather.NewLocation(f.place.Name, lat, lon, ""), nil
}

type forecastCall struct {
	key  string
	days int
}

type fakeForecaster struct {
	calls []forecastCall
	fail  map[string]bool
}

func (f *fakeForecaster) Forecast(_ context.Context, loc weather.Location, days int) ([]weather.DailyForecast, error) {
	f.calls = append(f.calls, forecastCall{key: loc.Key, days: days})
	if f.fail[loc.Name] {
		return nil, errors.New("upstream unavailable")
	}

	out := make([]weather.DailyForecast, 0, days)
	for i := 0; i < days; i++ {
		out = append(out, weather.DailyForecast{
			Date:            time.Date(2026, 10, 1+i, 0, 0, 0, 0, time.UTC),
			MinTempC:        10,
			MaxTempC:        18.5,
			WindKph:         12,
			PrecipProb:      20,
			NightWindKph:    25,
			NightPrecipProb: 80,
			DayPhrase:       "Sunny",
			NightPhrase:     "Rain",
		})
	}
	return out, nil
}

type fakeCharts struct {
	calls []string
	fail  map[string]bool
}

func (f *fakeCharts) Render(city string, _ []weather.DailyForecast) (string, error) {
	f.calls = append(f.calls, city)
	if f.fail[city] {
		return "", errors.New("render failed")
	}
	return "charts/" + city + ".png", nil
}

type recordingMessenger struct {
	sent []Reply
	err  error
}

func (m *recordingMessenger) Send(_ context.Context, _ int64, r Reply) error {
	m.sent = append(m.sent, r)
	return m.err
}

func (m *recordingMessenger) reset() {
	m.sent = nil
}

func (m *recordingMessenger) last() Reply {
	if len(m.sent) == 0 {
		return Reply{}
	}
	return m.sent[len(m.sent)-1]
}
