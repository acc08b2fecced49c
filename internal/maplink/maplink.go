// Package maplink builds shareable route links for a map service.
package maplink

import (
	"strconv"
	"strings"
)

// DefaultBaseURL is the Google Maps directions endpoint.
const DefaultBaseURL = "https://www.google.com/maps/dir/"

// Point is a route point; Lat/Lon are nil when unknown.
type Point struct {
	Lat *float64
	Lon *float64
}

// Build returns a directions URL with one "lat,lon" segment per point that
// carries coordinates, in input order. Points without coordinates are
// skipped. ok is false when no point has coordinates.
func Build(points []Point) (link string, ok bool) {
	return BuildWithBase(DefaultBaseURL, points)
}

// BuildWithBase is Build against a custom base URL ending in "/".
func BuildWithBase(baseURL string, points []Point) (string, bool) {
	segments := make([]string, 0, len(points))
	for _, p := range points {
		if p.Lat == nil || p.Lon == nil {
			continue
		}
		segments = append(segments, formatCoord(*p.Lat)+","+formatCoord(*p.Lon))
	}
	if len(segments) == 0 {
		return "", false
	}
	return baseURL + strings.Join(segments, "/") + "/", true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
