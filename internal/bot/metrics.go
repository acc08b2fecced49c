package bot

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/i474232898/route-weather-bot/internal/bot"

// Metrics holds the conversation counters. A nil *Metrics records nothing.
type Metrics struct {
	sessionsStarted    metric.Int64Counter
	fanOutsCompleted   metric.Int64Counter
	fanOutsAborted     metric.Int64Counter
	resolutionFailures metric.Int64Counter
	chartFailures      metric.Int64Counter
}

// NewMetrics creates the counters on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	sessionsStarted, err := meter.Int64Counter(
		"bot.sessions.started",
		metric.WithDescription("Route sessions started with /weather"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, err
	}

	fanOutsCompleted, err := meter.Int64Counter(
		"bot.fanouts.completed",
		metric.WithDescription("Forecast fan-outs delivered to the user"),
		metric.WithUnit("{fanout}"),
	)
	if err != nil {
		return nil, err
	}

	fanOutsAborted, err := meter.Int64Counter(
		"bot.fanouts.aborted",
		metric.WithDescription("Forecast fan-outs aborted because a route point no longer resolved"),
		metric.WithUnit("{fanout}"),
	)
	if err != nil {
		return nil, err
	}

	resolutionFailures, err := meter.Int64Counter(
		"bot.resolution.failures",
		metric.WithDescription("Place names or coordinates that could not be resolved"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	chartFailures, err := meter.Int64Counter(
		"bot.chart.failures",
		metric.WithDescription("Forecast charts that failed to render"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		sessionsStarted:    sessionsStarted,
		fanOutsCompleted:   fanOutsCompleted,
		fanOutsAborted:     fanOutsAborted,
		resolutionFailures: resolutionFailures,
		chartFailures:      chartFailures,
	}, nil
}

func (m *Metrics) sessionStarted(ctx context.Context) {
	if m != nil {
		m.sessionsStarted.Add(ctx, 1)
	}
}

func (m *Metrics) fanOutCompleted(ctx context.Context, days, points int) {
	if m != nil {
		m.fanOutsCompleted.Add(ctx, 1, metric.WithAttributes(
			attribute.Int("days", days),
			attribute.Int("route_points", points),
		))
	}
}

func (m *Metrics) fanOutAborted(ctx context.Context) {
	if m != nil {
		m.fanOutsAborted.Add(ctx, 1)
	}
}

func (m *Metrics) resolutionFailed(ctx context.Context, input string) {
	if m != nil {
		m.resolutionFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("input", input)))
	}
}

func (m *Metrics) chartFailed(ctx context.Context) {
	if m != nil {
		m.chartFailures.Add(ctx, 1)
	}
}
