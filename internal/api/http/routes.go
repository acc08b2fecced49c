package httpapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/i474232898/route-weather-bot/internal/bot"
	"github.com/i474232898/route-weather-bot/internal/common"
	"github.com/i474232898/route-weather-bot/internal/weather"
)

var validate = validator.New()

// RoutePlanner builds a forecast for an ordered list of place names.
type RoutePlanner interface {
	Plan(ctx context.Context, names []string, days int, withCharts bool) (*bot.RoutePlan, error)
}

// SessionCounter reports active conversations.
type SessionCounter interface {
	Len() int
}

// Deps holds what the handlers need. Webhook is nil when the bot polls.
type Deps struct {
	Planner  RoutePlanner
	Sessions SessionCounter
	Webhook  func(update tgbotapi.Update)

	// WebhookSecret is the last path segment of the webhook URL registered
	// with Telegram. The webhook route is not mounted without it.
	WebhookSecret string

	// RateLimit caps route forecast requests per client per minute (default: 30).
	RateLimit int
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		resp := fiber.Map{
			"status":  "ok",
			"service": "route-weather-bot",
		}
		if deps.Sessions != nil {
			resp["sessions"] = deps.Sessions.Len()
		}
		return c.JSON(resp)
	})

	if deps.Webhook != nil && deps.WebhookSecret != "" {
		secret := []byte(deps.WebhookSecret)
		app.Post("/telegram/webhook/:secret", func(c *fiber.Ctx) error {
			if subtle.ConstantTimeCompare([]byte(c.Params("secret")), secret) != 1 {
				return fiber.ErrNotFound
			}

			var update tgbotapi.Update
			if err := json.Unmarshal(c.Body(), &update); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid update payload")
			}
			deps.Webhook(update)
			return c.SendStatus(fiber.StatusOK)
		})
	}

	rate := deps.RateLimit
	if rate <= 0 {
		rate = 30
	}
	v1 := app.Group("/api/v1", limiter.New(limiter.Config{
		Max:        rate,
		Expiration: time.Minute,
	}))

	v1.Get("/route/forecast", func(c *fiber.Ctx) error {
		var req routeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		plan, err := deps.Planner.Plan(c.UserContext(), req.Cities, req.Days, false)
		if err != nil {
			var pointErr *bot.RoutePointError
			switch {
			case errors.As(err, &pointErr):
				return fiber.NewError(fiber.StatusNotFound, "city not found: "+pointErr.Name)
			case errors.Is(err, weather.ErrInvalidDays):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build route forecast")
		}

		return c.JSON(plan)
	})
}

// routeQuery holds query parameters for the route forecast endpoint.
type routeQuery struct {
	Cities []string `validate:"required,min=1,max=10,dive,required"`
	Days   int      `validate:"required,oneof=1 3 5"`
}

func (r *routeQuery) bind(c *fiber.Ctx) error {
	r.Cities = common.SplitList(c.Query("cities"))

	daysStr := c.Query("days")
	if daysStr == "" {
		return errors.New("days query parameter is required")
	}
	days, err := strconv.Atoi(daysStr)
	if err != nil {
		return errors.New("days must be an integer")
	}
	r.Days = days
	return nil
}
