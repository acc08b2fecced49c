package weather

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a place name or coordinate pair cannot be
	// resolved. Provider errors and timeouts are reported the same way.
	ErrNotFound = errors.New("location not found")

	// ErrInvalidDays is returned for a forecast horizon outside 1, 3 or 5 days.
	ErrInvalidDays = errors.New("days must be one of 1, 3 or 5")
)

// Location is a resolved route point.
// Lat/Lon are nil when the producing provider did not report coordinates.
type Location struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat,omitempty"`
	Lon  *float64 `json:"lon,omitempty"`

	// Key is the forecast provider's lookup key for this place.
	Key string `json:"-"`
}

// NewLocation builds a Location with coordinates.
func NewLocation(name string, lat, lon float64, key string) Location {
	return Location{
		Name: name,
		Lat:  &lat,
		Lon:  &lon,
		Key:  key,
	}
}

// Coordinates returns the location's coordinates and whether both are set.
func (l Location) Coordinates() (lat, lon float64, ok bool) {
	if l.Lat == nil || l.Lon == nil {
		return 0, 0, false
	}
	return *l.Lat, *l.Lon, true
}

// DailyForecast is the normalized forecast for a single calendar day.
type DailyForecast struct {
	Date       time.Time `json:"date"`
	MinTempC   float64   `json:"minTempC"`
	MaxTempC   float64   `json:"maxTempC"`
	WindKph    float64   `json:"windKph"`
	PrecipProb int       `json:"precipProbability"`

	NightWindKph    float64 `json:"nightWindKph"`
	NightPrecipProb int     `json:"nightPrecipProbability"`

	// Provider supplied condition text.
	DayPhrase   string `json:"dayPhrase"`
	NightPhrase string `json:"nightPhrase"`

	// Filled by Classify during route fan-out.
	DayAdvisory   string `json:"dayAdvisory,omitempty"`
	NightAdvisory string `json:"nightAdvisory,omitempty"`
}

// Classified returns a copy of f with day and night advisories set.
// Day uses the maximum temperature, night the minimum.
func (f DailyForecast) Classified() DailyForecast {
	f.DayAdvisory = Classify(f.MaxTempC, f.WindKph, f.PrecipProb)
	f.NightAdvisory = Classify(f.MinTempC, f.NightWindKph, f.NightPrecipProb)
	return f
}

// Conditions is a single current-conditions reading.
type Conditions struct {
	ObservedAt   time.Time
	TemperatureC float64
	WindKph      float64
	PrecipProb   int
	Phrase       string
}

// Place is the result of a reverse geocode lookup.
type Place struct {
	City    string
	Town    string
	Village string
}

// Name picks the most specific settlement name, preferring city over town
// over village. It is empty when none is set.
func (p Place) Name() string {
	switch {
	case p.City != "":
		return p.City
	case p.Town != "":
		return p.Town
	default:
		return p.Village
	}
}

// RouteForecastEntry is the forecast for one route point.
type RouteForecastEntry struct {
	City     string          `json:"city"`
	Forecast []DailyForecast `json:"forecast"`
	Lat      *float64        `json:"lat,omitempty"`
	Lon      *float64        `json:"lon,omitempty"`

	// ChartPath is empty when no chart was rendered.
	ChartPath string `json:"-"`
}

// ValidDays reports whether days is a supported forecast horizon.
func ValidDays(days int) bool {
	return days == 1 || days == 3 || days == 5
}
