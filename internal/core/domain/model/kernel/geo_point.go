package kernel

import (
	"errors"
	"fmt"
	"math"

	"fulfillment/internal/pkg/errs"
)

const (
	// EarthRadiusKm is the mean Earth radius used by the Haversine formula.
	EarthRadiusKm = 6371.0

	MinLatitude  = -90.0
	MaxLatitude  = 90.0
	MinLongitude = -180.0
	MaxLongitude = 180.0
)

// GeoPoint is a WGS84 coordinate pair. The zero value means "location unknown":
// the geocoder had no answer or the address was saved without coordinates.
type GeoPoint struct {
	lat float64
	lon float64
}

// NewGeoPoint validates both coordinates.
func NewGeoPoint(lat, lon float64) (GeoPoint, error) {
	if err := errors.Join(
		validateCoordinate("latitude", lat, MinLatitude, MaxLatitude),
		validateCoordinate("longitude", lon, MinLongitude, MaxLongitude),
	); err != nil {
		return GeoPoint{}, err
	}
	return GeoPoint{lat: lat, lon: lon}, nil
}

// UnknownPoint returns the "location unknown" value.
func UnknownPoint() GeoPoint {
	return GeoPoint{}
}

func (p GeoPoint) Lat() float64 {
	return p.lat
}

func (p GeoPoint) Lon() float64 {
	return p.lon
}

// IsKnown reports whether the point carries real coordinates.
func (p GeoPoint) IsKnown() bool {
	return p.lat != 0 || p.lon != 0
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("GeoPoint(%.6f,%.6f)", p.lat, p.lon)
}

// DistanceKm returns the great-circle distance between p and other using the Haversine
// formula. If either point is unknown the distance is 0.
func (p GeoPoint) DistanceKm(other GeoPoint) float64 {
	if !p.IsKnown() || !other.IsKnown() {
		return 0
	}

	lat1 := toRadians(p.lat)
	lat2 := toRadians(other.lat)
	dLat := lat2 - lat1
	dLon := toRadians(other.lon - p.lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func validateCoordinate(name string, v, minValue, maxValue float64) error {
	if math.IsNaN(v) || v < minValue || v > maxValue {
		return errs.NewValueIsOutOfRangeError(name, v, minValue, maxValue)
	}
	return nil
}
