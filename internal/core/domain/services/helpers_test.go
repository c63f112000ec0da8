package services_test

import (
	"math"
	"testing"
	"time"

	"fulfillment/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

// Saigon Opera House.
var origin = mustPoint(10.7769, 106.7009)

func mustPoint(lat, lon float64) kernel.GeoPoint {
	p, err := kernel.NewGeoPoint(lat, lon)
	if err != nil {
		panic(err)
	}
	return p
}

// northOf returns the point km kilometres due north of p.
func northOf(t *testing.T, p kernel.GeoPoint, km float64) kernel.GeoPoint {
	t.Helper()

	kmPerDegree := kernel.EarthRadiusKm * math.Pi / 180
	q, err := kernel.NewGeoPoint(p.Lat()+km/kmPerDegree, p.Lon())
	require.NoError(t, err)
	return q
}
