package service

import (
	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/couchcryptid/urbanpulse-service/internal/pipeline"
)

// ListOptions are the shared geo/text/sort/page parameters of a listing.
type ListOptions struct {
	Center   *domain.Coordinates
	RadiusKm float64
	Query    domain.Query
	Page     domain.PageRequest
}

func (o ListOptions) stages(defaultRadius float64) pipeline.Stages {
	s := pipeline.Stages{Origin: o.Center, Query: o.Query, Page: o.Page}
	if o.Center != nil {
		s.RadiusKm = pipeline.ClampRadius(o.RadiusKm, defaultRadius)
	}
	return s
}

// listThrough runs stored records through the discovery pipeline and maps
// the surviving entities back to their records.
func listThrough[T, V any](
	records []T,
	toEntity func(T) domain.GeoEntity,
	view func(T, *float64) V,
	s pipeline.Stages,
	metrics *observability.Metrics,
) domain.Page[V] {
	entities := make([]domain.GeoEntity, len(records))
	byID := make(map[string]T, len(records))
	for i, r := range records {
		e := toEntity(r)
		entities[i] = e
		byID[e.ID] = r
	}

	page := pipeline.Process(entities, s, metrics)

	items := make([]V, len(page.Items))
	for i, e := range page.Items {
		items[i] = view(byID[e.ID], e.Distance)
	}
	return domain.Page[V]{Items: items, Pagination: page.Pagination}
}
