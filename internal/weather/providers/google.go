package providers

import (
	"context"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

// GoogleReverseGeocoder implements weather.ReverseGeocoder with the Google
// Geocoding API. The geocoder library keeps its key in a package variable, so
// only one Google key can be used per process.
type GoogleReverseGeocoder struct {
	name    string
	reverse func(geocoder.Location) ([]geocoder.Address, error)
}

func NewGoogleReverseGeocoder(apiKey string) *GoogleReverseGeocoder {
	geocoder.ApiKey = apiKey
	return &GoogleReverseGeocoder{
		name:    "google",
		reverse: geocoder.GeocodingReverse,
	}
}

func (g *GoogleReverseGeocoder) Name() string {
	return g.name
}

// ReverseGeocode returns the first address that names a city. The library call
// takes no context; on cancellation the call is abandoned and finishes in the
// background.
func (g *GoogleReverseGeocoder) ReverseGeocode(ctx context.Context, lat, lon float64) (weather.Place, error) {
	type result struct {
		addrs []geocoder.Address
		err   error
	}
	done := make(chan result, 1)

	go func() {
		addrs, err := g.reverse(geocoder.Location{Latitude: lat, Longitude: lon})
		done <- result{addrs: addrs, err: err}
	}()

	select {
	case <-ctx.Done():
		return weather.Place{}, ctx.Err()
	case r := <-done:
		if r.err != nil {
			return weather.Place{}, r.err
		}
		for _, a := range r.addrs {
			if a.City != "" {
				return weather.Place{City: a.City}, nil
			}
		}
		return weather.Place{}, nil
	}
}
