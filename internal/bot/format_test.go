package bot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"Nizhny-Novgorod.", "Nizhny\\-Novgorod\\."},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
		{"a\\b", "a\\\\b"},
		{"Привет!", "Привет\\!"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, EscapeMarkdownV2(tt.in), tt.in)
	}
}

func TestFormatEntry(t *testing.T) {
	entry := weather.RouteForecastEntry{
		City: "Saint-Petersburg",
		Forecast: []weather.DailyForecast{{
			Date:          time.Date(2026, 10, 3, 0, 0, 0, 0, time.UTC),
			MinTempC:      -2.5,
			MaxTempC:      4,
			WindKph:       30,
			PrecipProb:    75,
			DayPhrase:     "Snow",
			DayAdvisory:   "Cold",
			NightAdvisory: "Freezing",
		}},
	}

	got := formatEntry(entry)

	assert.Contains(t, got, "*Saint\\-Petersburg*\n")
	assert.Contains(t, got, "2026\\-10\\-03")
	assert.Contains(t, got, "\\-2\\.5°C")
	assert.Contains(t, got, "75%")
	assert.Contains(t, got, "*Day:* Snow\\. Cold")
	assert.Contains(t, got, "*Night:* Freezing")
}

func TestFormatMapLink(t *testing.T) {
	got := formatMapLink("https://www.google.com/maps/dir/1.5,2/")
	assert.Contains(t, got, "[Open map](https://www.google.com/maps/dir/1.5,2/)")
}
