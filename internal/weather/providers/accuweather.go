package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

// AccuWeatherProvider implements weather.LocationSearcher and
// weather.ForecastSource for the AccuWeather data service.
type AccuWeatherProvider struct {
	name     string
	apiKey   string
	language string
	baseURL  string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
}

func NewAccuWeatherProvider(client *http.Client, apiKey, language string) *AccuWeatherProvider {
	if language == "" {
		language = "en-us"
	}
	return &AccuWeatherProvider{
		name:     "accuweather",
		apiKey:   apiKey,
		language: language,
		baseURL:  "https://dataservice.accuweather.com",
		client:   client,
		circuit:  newCircuitBreaker("accuweather"),
	}
}

func (p *AccuWeatherProvider) Name() string {
	return p.name
}

func (p *AccuWeatherProvider) get(ctx context.Context, path string, values url.Values, out interface{}) error {
	if p.apiKey == "" {
		return fmt.Errorf("accuweather api key is not configured")
	}

	buildRequest := func() (*http.Request, error) {
		values.Set("apikey", p.apiKey)
		values.Set("language", p.language)

		u := fmt.Sprintf("%s%s?%s", p.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequest(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}

// SearchCity returns the cities matching query in provider order.
func (p *AccuWeatherProvider) SearchCity(ctx context.Context, query string) ([]weather.Location, error) {
	values := url.Values{}
	values.Set("q", query)

	var payload []struct {
		Key           string `json:"Key"`
		LocalizedName string `json:"LocalizedName"`
		GeoPosition   *struct {
			Latitude  float64 `json:"Latitude"`
			Longitude float64 `json:"Longitude"`
		} `json:"GeoPosition"`
	}
	if err := p.get(ctx, "/locations/v1/cities/search", values, &payload); err != nil {
		return nil, err
	}

	locs := make([]weather.Location, 0, len(payload))
	for _, item := range payload {
		if item.GeoPosition == nil {
			locs = append(locs, weather.Location{Name: item.LocalizedName, Key: item.Key})
			continue
		}
		locs = append(locs, weather.NewLocation(
			item.LocalizedName,
			item.GeoPosition.Latitude,
			item.GeoPosition.Longitude,
			item.Key,
		))
	}
	return locs, nil
}

// CurrentConditions returns the latest observation for a location key.
func (p *AccuWeatherProvider) CurrentConditions(ctx context.Context, key string) (weather.Conditions, error) {
	values := url.Values{}
	values.Set("details", "true")

	var payload []struct {
		LocalObservationDateTime string `json:"LocalObservationDateTime"`
		WeatherText              string `json:"WeatherText"`
		Temperature              struct {
			Metric struct {
				Value float64 `json:"Value"`
			} `json:"Metric"`
		} `json:"Temperature"`
		Wind struct {
			Speed struct {
				Metric struct {
					Value float64 `json:"Value"`
				} `json:"Metric"`
			} `json:"Speed"`
		} `json:"Wind"`
		PrecipitationProbability int `json:"PrecipitationProbability"`
	}
	if err := p.get(ctx, "/currentconditions/v1/"+url.PathEscape(key), values, &payload); err != nil {
		return weather.Conditions{}, err
	}
	if len(payload) == 0 {
		return weather.Conditions{}, fmt.Errorf("no current conditions for key %s", key)
	}

	cur := payload[0]
	observed, err := time.Parse(time.RFC3339, cur.LocalObservationDateTime)
	if err != nil {
		observed = time.Time{}
	}

	return weather.Conditions{
		ObservedAt:   observed,
		TemperatureC: cur.Temperature.Metric.Value,
		WindKph:      cur.Wind.Speed.Metric.Value,
		PrecipProb:   cur.PrecipitationProbability,
		Phrase:       cur.WeatherText,
	}, nil
}

type dailyHalf struct {
	IconPhrase               string `json:"IconPhrase"`
	PrecipitationProbability int    `json:"PrecipitationProbability"`
	Wind                     struct {
		Speed struct {
			Value float64 `json:"Value"`
		} `json:"Speed"`
	} `json:"Wind"`
}

// DailyForecast fetches the daily forecast. AccuWeather only serves 1, 5, 10
// and 15 day products, so other horizons are rounded up and the caller trims.
func (p *AccuWeatherProvider) DailyForecast(ctx context.Context, key string, days int) ([]weather.DailyForecast, error) {
	product := dailyProduct(days)

	values := url.Values{}
	values.Set("metric", "true")
	values.Set("details", "true")

	var payload struct {
		DailyForecasts []struct {
			Date        string `json:"Date"`
			Temperature struct {
				Minimum struct {
					Value float64 `json:"Value"`
				} `json:"Minimum"`
				Maximum struct {
					Value float64 `json:"Value"`
				} `json:"Maximum"`
			} `json:"Temperature"`
			Day   dailyHalf `json:"Day"`
			Night dailyHalf `json:"Night"`
		} `json:"DailyForecasts"`
	}
	path := fmt.Sprintf("/forecasts/v1/daily/%dday/%s", product, url.PathEscape(key))
	if err := p.get(ctx, path, values, &payload); err != nil {
		return nil, err
	}

	out := make([]weather.DailyForecast, 0, len(payload.DailyForecasts))
	for _, d := range payload.DailyForecasts {
		date, err := parseForecastDate(d.Date)
		if err != nil {
			return nil, err
		}
		out = append(out, weather.DailyForecast{
			Date:            date,
			MinTempC:        d.Temperature.Minimum.Value,
			MaxTempC:        d.Temperature.Maximum.Value,
			WindKph:         d.Day.Wind.Speed.Value,
			PrecipProb:      d.Day.PrecipitationProbability,
			NightWindKph:    d.Night.Wind.Speed.Value,
			NightPrecipProb: d.Night.PrecipitationProbability,
			DayPhrase:       d.Day.IconPhrase,
			NightPhrase:     d.Night.IconPhrase,
		})
	}
	return out, nil
}

func dailyProduct(days int) int {
	for _, n := range []int{1, 5, 10, 15} {
		if days <= n {
			return n
		}
	}
	return 15
}

// parseForecastDate accepts RFC3339 or a bare calendar date.
func parseForecastDate(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, ts.Location()), nil
	}
	if len(s) >= 10 {
		if ts, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid forecast date %q", s)
}
