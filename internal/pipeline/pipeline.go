// Package pipeline runs the discovery flow shared by every nearby listing:
// fetch entities, annotate distance from the caller, keep those inside the
// radius, filter and sort, then paginate.
package pipeline

import (
	"math"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
)

// Radius bounds in kilometres.
const (
	DefaultRadiusKm = 5.0
	MaxRadiusKm     = 50.0
)

// Stages configures one pass over an already fetched entity list.
type Stages struct {
	// Origin enables distance annotation. Nil leaves Distance unset.
	Origin *domain.Coordinates
	// RadiusKm drops annotated entities farther than this. Zero keeps all.
	RadiusKm float64
	Query    domain.Query
	Page     domain.PageRequest
}

// Process applies the annotate, radius, filter/sort and paginate stages to
// entities and records the filtered count. entities is not modified.
func Process(entities []domain.GeoEntity, s Stages, metrics *observability.Metrics) domain.Page[domain.GeoEntity] {
	out := entities
	if s.Origin != nil {
		out = domain.AnnotateDistances(out, *s.Origin)
		if s.RadiusKm > 0 {
			out = domain.WithinRadiusOf(out, s.RadiusKm)
		}
	}
	out = domain.Apply(out, s.Query)

	if metrics != nil {
		metrics.DiscoveryResults.Observe(float64(len(out)))
	}
	return domain.Paginate(out, s.Page.Page, s.Page.Limit)
}

// ClampRadius returns def for non-positive or NaN radii and caps at MaxRadiusKm.
func ClampRadius(radiusKm, def float64) float64 {
	if def <= 0 || math.IsNaN(def) {
		def = DefaultRadiusKm
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) {
		return min(def, MaxRadiusKm)
	}
	return min(radiusKm, MaxRadiusKm)
}
