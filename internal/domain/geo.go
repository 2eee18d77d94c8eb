package domain

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// Coordinates is a WGS-84 latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"latitude"`
	Lon float64 `json:"longitude"`
}

// Valid reports whether the pair is finite and within the WGS-84 ranges.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// Point converts to an orb.Point, which is ordered [lon, lat].
func (c Coordinates) Point() orb.Point {
	return orb.Point{c.Lon, c.Lat}
}

// DistanceKm returns the great-circle distance between a and b in kilometers,
// rounded to one decimal place.
func DistanceKm(a, b Coordinates) float64 {
	return roundTenth(haversineKm(a, b))
}

func haversineKm(a, b Coordinates) float64 {
	lat1 := toRadians(a.Lat)
	lat2 := toRadians(b.Lat)
	dLat := toRadians(b.Lat - a.Lat)
	dLon := toRadians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusKm * c
}

// SearchBound returns a bounding box that contains every point within
// radiusKm of center. Repositories use it as a cheap prefilter before the
// exact DistanceKm check. The radius is rescaled because orb measures on a
// larger Earth radius than DistanceKm does.
func SearchBound(center Coordinates, radiusKm float64) orb.Bound {
	return geo.NewBoundAroundPoint(center.Point(), radiusKm/EarthRadiusKm*orb.EarthRadius)
}

// SearchBounds is SearchBound split at the antimeridian. A box crossing
// ±180° comes back from orb with Min.Lon > Max.Lon and is returned as two
// boxes, one on each side.
func SearchBounds(center Coordinates, radiusKm float64) []orb.Bound {
	b := SearchBound(center, radiusKm)
	if b.Min.Lon() <= b.Max.Lon() {
		return []orb.Bound{b}
	}
	return []orb.Bound{
		{Min: orb.Point{b.Min.Lon(), b.Min.Lat()}, Max: orb.Point{180, b.Max.Lat()}},
		{Min: orb.Point{-180, b.Min.Lat()}, Max: orb.Point{b.Max.Lon(), b.Max.Lat()}},
	}
}

// WithinRadius reports whether p lies within radiusKm of center.
func WithinRadius(center, p Coordinates, radiusKm float64) bool {
	return haversineKm(center, p) <= radiusKm
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
