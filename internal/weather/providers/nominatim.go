package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

// NominatimProvider implements weather.ReverseGeocoder using OpenStreetMap Nominatim.
type NominatimProvider struct {
	name      string
	userAgent string
	language  string
	baseURL   string
	client    *http.Client
	circuit   *gobreaker.CircuitBreaker
}

// NewNominatimProvider creates a reverse geocoder. Nominatim's usage policy
// requires an identifying User-Agent.
func NewNominatimProvider(client *http.Client, userAgent, language string) *NominatimProvider {
	if userAgent == "" {
		userAgent = "RouteWeatherBot/1.0"
	}
	return &NominatimProvider{
		name:      "nominatim",
		userAgent: userAgent,
		language:  language,
		baseURL:   "https://nominatim.openstreetmap.org/reverse",
		client:    client,
		circuit:   newCircuitBreaker("nominatim"),
	}
}

func (p *NominatimProvider) Name() string {
	return p.name
}

func (p *NominatimProvider) ReverseGeocode(ctx context.Context, lat, lon float64) (weather.Place, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		values.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
		values.Set("format", "json")
		if p.language != "" {
			values.Set("accept-language", p.language)
		}

		req, err := http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", p.userAgent)
		return req, nil
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return weather.Place{}, err
	}
	defer resp.Body.Close()

	var payload struct {
		Error   string `json:"error"`
		Address struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return weather.Place{}, err
	}
	if payload.Error != "" {
		return weather.Place{}, fmt.Errorf("nominatim: %s", payload.Error)
	}

	return weather.Place{
		City:    payload.Address.City,
		Town:    payload.Address.Town,
		Village: payload.Address.Village,
	}, nil
}
