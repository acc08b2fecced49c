// Package main runs the route weather Telegram bot.
package main

import (
	"context"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/i474232898/route-weather-bot/internal/api/http"
	"github.com/i474232898/route-weather-bot/internal/bot"
	"github.com/i474232898/route-weather-bot/internal/chart"
	"github.com/i474232898/route-weather-bot/internal/config"
	"github.com/i474232898/route-weather-bot/internal/scheduler"
	"github.com/i474232898/route-weather-bot/internal/store"
	"github.com/i474232898/route-weather-bot/internal/telegram"
	"github.com/i474232898/route-weather-bot/internal/telemetry"
	"github.com/i474232898/route-weather-bot/internal/weather"
	"github.com/i474232898/route-weather-bot/internal/weather/providers"
)

// Version is set at compile time via ldflags.
var Version = "dev"

const (
	serviceName = "route-weather-bot"

	// pollTimeout is the Telegram long-polling timeout in seconds.
	pollTimeout = 60
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		stderrLog := zerolog.New(os.Stderr)
		stderrLog.Fatal().Err(err).Msg("failed to load config")
	}

	log, closeLog := newLogger(cfg)
	defer closeLog()
	log.Info().Msg("starting route weather bot")
	if cfg.DotenvErr != nil {
		log.Info().Err(cfg.DotenvErr).Msg("no .env file loaded; using process environment")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize OpenTelemetry
	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shutdown telemetry")
		}
	}()

	metrics, err := bot.NewMetrics(tp.Meter)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize metrics")
	}

	// Shared HTTP client for outbound provider calls; per-call deadlines come
	// from the weather service.
	httpClient := &http.Client{Timeout: 30 * time.Second}

	accuWeather := providers.NewAccuWeatherProvider(httpClient, cfg.AccuWeatherAPIKey, cfg.AccuWeatherLanguage)

	var reverse weather.ReverseGeocoder = providers.NewNominatimProvider(httpClient, cfg.NominatimUserAgent, cfg.AccuWeatherLanguage)
	if cfg.GoogleGeocoderAPIKey != "" {
		reverse = providers.NewGoogleReverseGeocoder(cfg.GoogleGeocoderAPIKey)
	}
	log.Info().Str("reverse_geocoder", reverse.Name()).Msg("providers configured")

	service := weather.NewService(weather.ServiceConfig{
		Searcher:       accuWeather,
		Reverse:        reverse,
		Forecasts:      accuWeather,
		RequestTimeout: cfg.SearchTimeout,
		ReverseTimeout: cfg.ReverseGeocodeTimeout,
		Logger:         log.With().Str("component", "weather").Logger(),
	})

	renderer := chart.NewRenderer(chart.RendererConfig{
		Dir:    cfg.ChartDir,
		Logger: log.With().Str("component", "chart").Logger(),
	})

	sessions := store.NewMemoryStore()

	tgAPI, err := tgbotapi.NewBotAPIWithClient(cfg.TelegramToken, tgbotapi.APIEndpoint, newTelegramClient())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to telegram")
	}
	log.Info().Str("bot", tgAPI.Self.UserName).Msg("telegram connected")

	adapter := telegram.NewAdapter(telegram.AdapterConfig{
		API:         tgAPI,
		Logger:      log.With().Str("component", "telegram").Logger(),
		PollTimeout: pollTimeout,
	})

	engine := bot.NewEngine(bot.EngineConfig{
		Store:      sessions,
		Resolver:   service,
		Forecaster: service,
		Charts:     renderer,
		Messenger:  adapter,
		Metrics:    metrics,
		Logger:     log.With().Str("component", "bot").Logger(),
	})

	dispatcher := bot.NewDispatcher(ctx, bot.DispatcherConfig{
		Handler: engine,
		Logger:  log.With().Str("component", "dispatcher").Logger(),
	})
	defer dispatcher.Close()

	// Housekeeping for chart files and abandoned conversations.
	sched := scheduler.New(scheduler.Config{
		Charts:         renderer,
		ChartRetention: cfg.ChartRetention,
		Sessions:       sessions,
		SessionIdleTTL: cfg.SessionIdleTTL,
		Interval:       cfg.CleanupInterval,
		Logger:         log.With().Str("component", "scheduler").Logger(),
	})
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	deps := httpapi.Deps{
		Planner: bot.NewPlanner(bot.PlannerConfig{
			Resolver:   service,
			Forecaster: service,
			Metrics:    metrics,
			Logger:     log.With().Str("component", "api").Logger(),
		}),
		Sessions:      sessions,
		WebhookSecret: cfg.WebhookSecret,
	}

	if cfg.WebhookURL != "" {
		deps.Webhook = func(update tgbotapi.Update) {
			adapter.HandleUpdate(update, dispatcher)
		}
		if err := adapter.SetWebhook(cfg.WebhookURL, cfg.WebhookSecret); err != nil {
			log.Fatal().Err(err).Msg("failed to register webhook")
		}
	} else {
		go func() {
			if err := adapter.Poll(ctx, dispatcher); err != nil {
				log.Error().Err(err).Msg("telegram polling stopped")
				stop()
			}
		}()
	}

	// API routes.
	httpapi.RegisterRoutes(app, deps)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Bool("webhook", cfg.WebhookURL != "").Msg("bot started")

	// Wait for termination signal
	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}

// newTelegramClient bounds every Bot API call. Long polls hold a request for
// pollTimeout seconds, so the limit sits just above that.
func newTelegramClient() *http.Client {
	return &http.Client{Timeout: (pollTimeout + 15) * time.Second}
}

// newLogger writes to stdout and, when LOG_FILE is set, to that file too.
func newLogger(cfg *config.AppConfig) (zerolog.Logger, func()) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	closeFn := func() {}
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			stderrLog := zerolog.New(os.Stderr)
			stderrLog.Warn().Err(err).Str("path", cfg.LogFile).Msg("log file unavailable; logging to stdout only")
		} else {
			out = zerolog.MultiLevelWriter(os.Stdout, f)
			closeFn = func() { _ = f.Close() }
		}
	}

	log := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()
	return log, closeFn
}
