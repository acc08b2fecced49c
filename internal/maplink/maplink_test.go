package maplink_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/i474232898/route-weather-bot/internal/maplink"
)

func pt(lat, lon float64) maplink.Point {
	return maplink.Point{Lat: &lat, Lon: &lon}
}

func TestBuild_NoCoordinates(t *testing.T) {
	_, ok := maplink.Build(nil)
	assert.False(t, ok)

	lat := 1.0
	_, ok = maplink.Build([]maplink.Point{{}, {Lat: &lat}})
	assert.False(t, ok)
}

func TestBuild_OrderedSegments(t *testing.T) {
	link, ok := maplink.Build([]maplink.Point{
		pt(55.7522, 37.6156),
		{},
		pt(54.193, 37.617),
		pt(48.8566, 2.3522),
	})

	assert.True(t, ok)
	assert.Equal(t, "https://www.google.com/maps/dir/55.7522,37.6156/54.193,37.617/48.8566,2.3522/", link)

	segments := strings.Split(strings.Trim(strings.TrimPrefix(link, maplink.DefaultBaseURL), "/"), "/")
	assert.Len(t, segments, 3)
}

func TestBuild_NegativeCoordinates(t *testing.T) {
	link, ok := maplink.BuildWithBase("https://maps.example/dir/", []maplink.Point{pt(-33.8688, 151.2093), pt(40.7128, -74.006)})
	assert.True(t, ok)
	assert.Equal(t, "https://maps.example/dir/-33.8688,151.2093/40.7128,-74.006/", link)
}
