package ranking

import (
	"errors"
	"math"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances.
const EarthRadiusKm = 6371.0

// Proximity scales. Suggestions and search score distance on different ceilings.
const (
	SuggestionGeoScale = 10.0
	SearchGeoScale     = 5.0
)

var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// PointOf builds Coordinates from nullable columns. It returns nil when either
// value is missing.
func PointOf(lat, lng *float64) *Coordinates {
	if lat == nil || lng == nil {
		return nil
	}
	return &Coordinates{Lat: *lat, Lng: *lng}
}

func (c Coordinates) valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// DistanceKm returns the haversine great-circle distance between a and b.
func DistanceKm(a, b Coordinates) (float64, error) {
	if !a.valid() || !b.valid() {
		return 0, ErrInvalidCoordinates
	}
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// rounding can push h a hair outside [0,1]
	h = math.Min(1, math.Max(0, h))

	d := 2 * EarthRadiusKm * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	if math.IsNaN(d) {
		return 0, ErrInvalidCoordinates
	}
	return d, nil
}

// ProximityScore maps the distance between a and b onto [0, scale], losing one
// point per 10 km. Missing or unusable coordinates score 0.
func ProximityScore(a, b *Coordinates, scale float64) float64 {
	if a == nil || b == nil {
		return 0
	}
	d, err := DistanceKm(*a, *b)
	if err != nil {
		return 0
	}
	return math.Max(0, scale-d/10)
}
