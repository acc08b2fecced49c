package bot

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/i474232898/route-weather-bot/internal/weather"
)

var markdownV2Escaper = func() *strings.Replacer {
	const special = "_*[]()~`>#+-=|{}.!\\"
	pairs := make([]string, 0, len(special)*2)
	for _, r := range special {
		pairs = append(pairs, string(r), "\\"+string(r))
	}
	return strings.NewReplacer(pairs...)
}()

// EscapeMarkdownV2 backslash-escapes every character Telegram's MarkdownV2
// treats as markup.
func EscapeMarkdownV2(s string) string {
	return markdownV2Escaper.Replace(s)
}

const (
	msgWelcome = "👋 Hi! I am a route weather bot.\n\n" +
		"Here is what I can do:\n" +
		"• Get the weather forecast for the start and end points of a route.\n" +
		"• Add intermediate stops.\n" +
		"• Give a forecast for the chosen period.\n" +
		"• Show the forecast on a map and on charts.\n\n" +
		"Use /help to see the available commands."

	msgAskStart      = "Enter the start point of the route (for example, Moscow):"
	msgAskStops      = "Enter intermediate stops separated by commas (for example, Tula, Orel):"
	msgLocationRetry = "Could not find a town near your location. Please try again or type the city name:"
	msgEmptyRetry    = "Please enter a city name:"
	msgCancelled     = "Cancelled."
	msgChartCaption  = "📊 Weather forecast chart"
	msgDone          = "✅ Weather forecast ready."
	msgNoData        = "❌ No forecast data."
	msgMapLinkText   = "Open map"
)

// helpText keeps its bold markers, so only the plain parts are escaped.
var helpText = "ℹ️ *" + EscapeMarkdownV2("Available commands:") + "*\n\n" +
	EscapeMarkdownV2("/start - Greeting and what the bot can do\n"+
		"/help - Available commands and how to use them\n"+
		"/weather - Request a weather forecast along a route\n"+
		"/cancel - Cancel the current request\n\n") +
	"*" + EscapeMarkdownV2("Using /weather:") + "*\n" +
	EscapeMarkdownV2("1. Enter the start point of the route.\n"+
		"2. Enter the end point of the route.\n"+
		"3. Add intermediate stops if needed.\n"+
		"4. Choose the number of forecast days.\n\n"+
		"You can also send your location instead of typing a city.")

func formatStartSet(loc weather.Location) string {
	return EscapeMarkdownV2(fmt.Sprintf("Start point set: %s\nEnter the end point of the route:", loc.Name))
}

func formatEndSet(loc weather.Location) string {
	return EscapeMarkdownV2(fmt.Sprintf("End point set: %s\nDo you want to add intermediate stops?", loc.Name))
}

func formatStopsAdded(locs []weather.Location) string {
	return EscapeMarkdownV2(fmt.Sprintf("Intermediate stops added: %s\nDo you want to add more?", joinNames(locs)))
}

func formatAskDays(stops []weather.Location) string {
	head := "No intermediate stops added."
	if len(stops) > 0 {
		head = "Intermediate stops: " + joinNames(stops)
	}
	return EscapeMarkdownV2(head + "\nChoose the number of forecast days:")
}

func formatNotFound(name string) string {
	return EscapeMarkdownV2(fmt.Sprintf("Could not find the city: %s. Please try again:", name))
}

func formatFetching(days int) string {
	return EscapeMarkdownV2(fmt.Sprintf("Fetching the weather forecast for %d day(s)...", days))
}

func formatAborted(name string) string {
	return EscapeMarkdownV2(fmt.Sprintf("Could not find the city: %s. Please start again with /weather.", name))
}

// formatMapLink leaves the URL unescaped; map URLs carry no ')' or '\'.
func formatMapLink(url string) string {
	return "🗺️ *" + EscapeMarkdownV2("Route on the map:") + "* [" + EscapeMarkdownV2(msgMapLinkText) + "](" + url + ")"
}

// formatEntry renders one route point: a bold city header followed by one
// block per forecast day, or a placeholder when there is no data.
func formatEntry(entry weather.RouteForecastEntry) string {
	var b strings.Builder
	b.WriteString("*" + EscapeMarkdownV2(entry.City) + "*\n")

	if len(entry.Forecast) == 0 {
		b.WriteString(EscapeMarkdownV2(msgNoData))
		return b.String()
	}

	for i, day := range entry.Forecast {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "📅 *Date:* %s\n", EscapeMarkdownV2(day.Date.Format("2006-01-02")))
		fmt.Fprintf(&b, "🌡️ *Min temperature:* %s°C\n", EscapeMarkdownV2(formatNumber(day.MinTempC)))
		fmt.Fprintf(&b, "🌡️ *Max temperature:* %s°C\n", EscapeMarkdownV2(formatNumber(day.MaxTempC)))
		fmt.Fprintf(&b, "💨 *Wind speed:* %s km/h\n", EscapeMarkdownV2(formatNumber(day.WindKph)))
		fmt.Fprintf(&b, "🌧️ *Precipitation probability:* %d%%\n", day.PrecipProb)
		fmt.Fprintf(&b, "☀️ *Day:* %s\n", EscapeMarkdownV2(describe(day.DayPhrase, day.DayAdvisory)))
		fmt.Fprintf(&b, "🌙 *Night:* %s\n", EscapeMarkdownV2(describe(day.NightPhrase, day.NightAdvisory)))
	}
	return b.String()
}

func describe(phrase, advisory string) string {
	switch {
	case phrase == "":
		return advisory
	case advisory == "":
		return phrase
	default:
		return phrase + ". " + advisory
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinNames(locs []weather.Location) string {
	names := make([]string, 0, len(locs))
	for _, loc := range locs {
		names = append(names, loc.Name)
	}
	return strings.Join(names, ", ")
}
