package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/route-weather-bot/internal/bot"
	"github.com/i474232898/route-weather-bot/internal/weather"
)

type fakePlanner struct {
	names []string
	days  int
	err   error
}

func (f *fakePlanner) Plan(_ context.Context, names []string, days int, withCharts bool) (*bot.RoutePlan, error) {
	if withCharts {
		return nil, fmt.Errorf("charts requested over HTTP")
	}
	f.names = names
	f.days = days
	if f.err != nil {
		return nil, f.err
	}

	plan := &bot.RoutePlan{Days: days, MapLink: "https://www.google.com/maps/dir/1,2/"}
	for _, n := range names {
		plan.Entries = append(plan.Entries, weather.RouteForecastEntry{City: n})
	}
	return plan, nil
}

type fixedSessions int

func (f fixedSessions) Len() int { return int(f) }

func newTestApp(deps Deps) *fiber.App {
	app := fiber.New()
	RegisterRoutes(app, deps)
	return app
}

func TestRouteForecastValidation(t *testing.T) {
	planner := &fakePlanner{}
	app := newTestApp(Deps{Planner: planner})

	for _, target := range []string{
		"/api/v1/route/forecast?cities=Moscow,Paris",
		"/api/v1/route/forecast?cities=Moscow,Paris&days=2",
		"/api/v1/route/forecast?cities=Moscow&days=three",
		"/api/v1/route/forecast?days=3",
		"/api/v1/route/forecast?cities=,,&days=3",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, target)
	}
	assert.Nil(t, planner.names)
}

func TestRouteForecast(t *testing.T) {
	planner := &fakePlanner{}
	app := newTestApp(Deps{Planner: planner})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/route/forecast?cities=Moscow,%20Tula,Paris&days=3", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"Moscow", "Tula", "Paris"}, planner.names)
	assert.Equal(t, 3, planner.days)

	var body struct {
		Days    int `json:"days"`
		Entries []struct {
			City string `json:"city"`
		} `json:"entries"`
		MapLink string `json:"mapLink"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 3, body.Days)
	require.Len(t, body.Entries, 3)
	assert.Equal(t, "Tula", body.Entries[1].City)
	assert.NotEmpty(t, body.MapLink)
}

func TestRouteForecastErrors(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{&bot.RoutePointError{Name: "Atlantis", Err: weather.ErrNotFound}, http.StatusNotFound},
		{weather.ErrInvalidDays, http.StatusBadRequest},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		app := newTestApp(Deps{Planner: &fakePlanner{err: tt.err}})
		req := httptest.NewRequest(http.MethodGet, "/api/v1/route/forecast?cities=Atlantis&days=1", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, tt.code, resp.StatusCode, tt.err.Error())
	}
}

func TestRouteForecastRateLimit(t *testing.T) {
	app := newTestApp(Deps{Planner: &fakePlanner{}, RateLimit: 2})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/route/forecast?cities=Moscow&days=1", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestHealth(t *testing.T) {
	app := newTestApp(Deps{Planner: &fakePlanner{}, Sessions: fixedSessions(4)})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"sessions":4`)
	assert.Contains(t, string(body), `"status":"ok"`)
}

const testSecret = "s3cretPathSegment42"

const testUpdate = `{"update_id":10,"message":{"message_id":1,"date":0,"chat":{"id":5,"type":"private"},"from":{"id":5,"is_bot":false,"first_name":"A"},"text":"Moscow"}}`

func postUpdate(t *testing.T, app *fiber.App, target, body string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestTelegramWebhook(t *testing.T) {
	var got []tgbotapi.Update
	app := newTestApp(Deps{
		Planner:       &fakePlanner{},
		Webhook:       func(u tgbotapi.Update) { got = append(got, u) },
		WebhookSecret: testSecret,
	})

	assert.Equal(t, http.StatusOK, postUpdate(t, app, "/telegram/webhook/"+testSecret, testUpdate))
	require.Len(t, got, 1)
	assert.Equal(t, 10, got[0].UpdateID)
	assert.Equal(t, "Moscow", got[0].Message.Text)

	assert.Equal(t, http.StatusBadRequest, postUpdate(t, app, "/telegram/webhook/"+testSecret, "{"))
	assert.Len(t, got, 1)
}

func TestTelegramWebhookRejectsUnknownSecret(t *testing.T) {
	var got []tgbotapi.Update
	app := newTestApp(Deps{
		Planner:       &fakePlanner{},
		Webhook:       func(u tgbotapi.Update) { got = append(got, u) },
		WebhookSecret: testSecret,
	})

	for _, target := range []string{
		"/telegram/webhook",
		"/telegram/webhook/",
		"/telegram/webhook/wrong",
		"/telegram/webhook/" + testSecret + "x",
		"/telegram/webhook/" + testSecret[:len(testSecret)-1],
	} {
		assert.Equal(t, http.StatusNotFound, postUpdate(t, app, target, testUpdate), target)
	}
	assert.Empty(t, got)
}

func TestTelegramWebhookDisabled(t *testing.T) {
	var got []tgbotapi.Update
	for _, deps := range []Deps{
		{Planner: &fakePlanner{}},
		{Planner: &fakePlanner{}, Webhook: func(u tgbotapi.Update) { got = append(got, u) }},
	} {
		app := newTestApp(deps)
		assert.Equal(t, http.StatusNotFound, postUpdate(t, app, "/telegram/webhook", testUpdate))
		assert.Equal(t, http.StatusNotFound, postUpdate(t, app, "/telegram/webhook/anything", testUpdate))
	}
	assert.Empty(t, got)
}
