// Package chart renders per-city temperature and wind charts to PNG files.
package chart

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

const fileExt = ".png"

// ErrNoData is returned when asked to render an empty forecast.
var ErrNoData = errors.New("no forecast data to chart")

var (
	whitespace = regexp.MustCompile(`\s+`)
	unsafeName = strings.NewReplacer("/", "_", `\`, "_", "..", "_")
)

// RendererConfig holds configuration for Renderer.
type RendererConfig struct {
	// Dir is where chart images are written. Created on demand.
	Dir string

	Logger zerolog.Logger

	// Now stamps file names (default: time.Now).
	Now func() time.Time
}

// Renderer writes chart images to a directory.
type Renderer struct {
	dir    string
	logger zerolog.Logger
	now    func() time.Time
}

// NewRenderer creates a new Renderer.
func NewRenderer(cfg RendererConfig) *Renderer {
	dir := cfg.Dir
	if dir == "" {
		dir = filepath.Join("charts", "generated_charts")
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Renderer{dir: dir, logger: cfg.Logger, now: now}
}

// Dir returns the output directory.
func (r *Renderer) Dir() string {
	return r.dir
}

// FileName returns the chart file name for a city at a given instant:
// <city with whitespace runs replaced by "_">_<timestamp>.png.
func FileName(city string, at time.Time) string {
	safe := whitespace.ReplaceAllString(strings.TrimSpace(city), "_")
	safe = unsafeName.Replace(safe)
	if safe == "" {
		safe = "route_point"
	}
	stamp := at.Format("20060102150405") + fmt.Sprintf("%09d", at.Nanosecond())
	return safe + "_" + stamp + fileExt
}

// Render draws min/max temperature on the left axis and wind speed on the
// right axis, one point per forecast day, and returns the image path.
func (r *Renderer) Render(city string, days []weather.DailyForecast) (string, error) {
	if len(days) == 0 {
		return "", ErrNoData
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating chart dir: %w", err)
	}

	graph := buildChart(city, days)

	path := filepath.Join(r.dir, FileName(city, r.now()))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating chart file: %w", err)
	}

	if err := graph.Render(gochart.PNG, f); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("rendering chart for %s: %w", city, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("closing chart file: %w", err)
	}

	r.logger.Debug().Str("city", city).Str("path", path).Msg("chart rendered")
	return path, nil
}

func buildChart(city string, days []weather.DailyForecast) gochart.Chart {
	n := len(days)
	xs := make([]float64, n)
	mins := make([]float64, n)
	maxs := make([]float64, n)
	winds := make([]float64, n)
	ticks := make([]gochart.Tick, n)

	lo, hi, windHi := math.Inf(1), math.Inf(-1), 0.0
	for i, d := range days {
		xs[i] = float64(i)
		mins[i] = d.MinTempC
		maxs[i] = d.MaxTempC
		winds[i] = d.WindKph
		ticks[i] = gochart.Tick{Value: float64(i), Label: d.Date.Format("2006-01-02")}

		lo = math.Min(lo, math.Min(d.MinTempC, d.MaxTempC))
		hi = math.Max(hi, math.Max(d.MinTempC, d.MaxTempC))
		windHi = math.Max(windHi, d.WindKph)
	}

	// Explicit ranges keep single-day charts (zero-width data) renderable.
	graph := gochart.Chart{
		Title:  "Weather forecast for " + city,
		Width:  1024,
		Height: 576,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 60, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{
			Name:  "Date",
			Ticks: ticks,
			Range: &gochart.ContinuousRange{Min: -0.5, Max: float64(n) - 0.5},
		},
		YAxis: gochart.YAxis{
			Name:  "Temperature (°C)",
			Range: &gochart.ContinuousRange{Min: math.Floor(lo) - 2, Max: math.Ceil(hi) + 2},
		},
		YAxisSecondary: gochart.YAxis{
			Name:  "Wind speed (km/h)",
			Range: &gochart.ContinuousRange{Min: 0, Max: math.Ceil(windHi) + 5},
		},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    "Min temperature",
				XValues: xs,
				YValues: mins,
				Style:   lineStyle(drawing.ColorBlue),
			},
			gochart.ContinuousSeries{
				Name:    "Max temperature",
				XValues: xs,
				YValues: maxs,
				Style:   lineStyle(drawing.ColorRed),
			},
			gochart.ContinuousSeries{
				Name:    "Wind speed",
				YAxis:   gochart.YAxisSecondary,
				XValues: xs,
				YValues: winds,
				Style:   lineStyle(drawing.ColorGreen),
			},
		},
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}
	return graph
}

func lineStyle(c drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeColor: c,
		StrokeWidth: 2,
		DotColor:    c,
		DotWidth:    4,
	}
}

// Cleanup removes chart images in the output directory last modified before
// now-maxAge and returns how many were removed.
func (r *Renderer) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != fileExt {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(r.dir, e.Name())); err != nil {
				r.logger.Warn().Err(err).Str("file", e.Name()).Msg("failed to remove old chart")
				continue
			}
			removed++
		}
	}
	return removed, nil
}
