package domain

import (
	"context"
	"slices"
)

// ServiceCategories lists the POI categories the places provider understands.
var ServiceCategories = []string{
	"hospital",
	"clinic",
	"pharmacy",
	"police",
	"fire_station",
	"school",
	"library",
	"restaurant",
	"cafe",
	"supermarket",
	"bank",
	"fuel",
	"park",
	"post_office",
}

// IsServiceCategory reports whether c is a known places category.
func IsServiceCategory(c string) bool {
	return slices.Contains(ServiceCategories, c)
}

// PlacesQuery selects points of interest around a center.
type PlacesQuery struct {
	Center   Coordinates
	RadiusKm float64
	Category string // empty or "all" for every category
}

// PlacesProvider fetches nearby points of interest.
type PlacesProvider interface {
	NearbyPlaces(ctx context.Context, q PlacesQuery) ([]GeoEntity, error)
}
