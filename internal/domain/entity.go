package domain

// GeoEntity is the common shape every discoverable thing (incident, service,
// community) is reduced to before distance annotation and filtering.
type GeoEntity struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Address     string   `json:"address,omitempty"`
	Category    string   `json:"category"`
	Lat         float64  `json:"latitude"`
	Lon         float64  `json:"longitude"`
	Rating      *float64 `json:"rating,omitempty"`
	Distance    *float64 `json:"distance,omitempty"` // km, one decimal
	Phone       string   `json:"phone,omitempty"`
	Website     string   `json:"website,omitempty"`
}

// Coordinates returns the entity position.
func (e GeoEntity) Coordinates() Coordinates {
	return Coordinates{Lat: e.Lat, Lon: e.Lon}
}

// AnnotateDistances returns a copy of entities with Distance set relative to
// origin. The input slice is left untouched.
func AnnotateDistances(entities []GeoEntity, origin Coordinates) []GeoEntity {
	out := make([]GeoEntity, len(entities))
	for i, e := range entities {
		d := DistanceKm(origin, e.Coordinates())
		e.Distance = &d
		out[i] = e
	}
	return out
}

// WithinRadiusOf drops entities farther than radiusKm from origin. Entities
// must already carry a Distance; those without one are kept.
func WithinRadiusOf(entities []GeoEntity, radiusKm float64) []GeoEntity {
	out := make([]GeoEntity, 0, len(entities))
	for _, e := range entities {
		if e.Distance != nil && *e.Distance > radiusKm {
			continue
		}
		out = append(out, e)
	}
	return out
}
