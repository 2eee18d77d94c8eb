package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
)

// Request selects nearby services.
type Request struct {
	Center   domain.Coordinates
	RadiusKm float64
	Category string
	Query    domain.Query
	Page     domain.PageRequest
}

// Result is one page of nearby services. Fallback is set when the places
// provider failed and an empty list was substituted.
type Result struct {
	domain.Page[domain.GeoEntity]
	RadiusKm float64 `json:"radiusKm"`
	Fallback bool    `json:"fallback"`
}

// Discovery resolves nearby services through the places provider.
type Discovery struct {
	places        domain.PlacesProvider
	defaultRadius float64
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewDiscovery creates a Discovery. A nil provider serves every request from
// the empty fallback.
func NewDiscovery(places domain.PlacesProvider, defaultRadiusKm float64, metrics *observability.Metrics, logger *slog.Logger) *Discovery {
	return &Discovery{
		places:        places,
		defaultRadius: defaultRadiusKm,
		metrics:       metrics,
		logger:        logger,
	}
}

// Run fetches places around req.Center and pushes them through the pipeline.
// Invalid input is returned as an error; provider failures are not.
func (d *Discovery) Run(ctx context.Context, req Request) (Result, error) {
	if !req.Center.Valid() {
		return Result{}, fmt.Errorf("%w: coordinates out of range (%f, %f)", domain.ErrInvalidInput, req.Center.Lat, req.Center.Lon)
	}
	category := strings.ToLower(strings.TrimSpace(req.Category))
	if category == domain.CategoryAll {
		category = ""
	}
	if category != "" && !domain.IsServiceCategory(category) {
		return Result{}, fmt.Errorf("%w: unknown service category %q", domain.ErrInvalidInput, req.Category)
	}
	radius := ClampRadius(req.RadiusKm, d.defaultRadius)

	entities, fallback := d.fetch(ctx, domain.PlacesQuery{
		Center:   req.Center,
		RadiusKm: radius,
		Category: category,
	})

	// Category is already applied by the provider query.
	q := req.Query
	q.Category = ""

	page := Process(entities, Stages{
		Origin:   &req.Center,
		RadiusKm: radius,
		Query:    q,
		Page:     req.Page,
	}, d.metrics)

	return Result{Page: page, RadiusKm: radius, Fallback: fallback}, nil
}

func (d *Discovery) fetch(ctx context.Context, q domain.PlacesQuery) ([]domain.GeoEntity, bool) {
	if d.places == nil {
		d.servedFallback()
		return nil, true
	}
	res := domain.From(d.places.NearbyPlaces(ctx, q))
	entities, fallback := res.OrElse(nil)
	if fallback {
		d.logger.Warn("places lookup failed, serving empty list",
			"category", q.Category,
			"radius_km", q.RadiusKm,
			"kind", res.Kind(),
			"error", res.Err(),
		)
		d.servedFallback()
	}
	return entities, fallback
}

func (d *Discovery) servedFallback() {
	if d.metrics != nil {
		d.metrics.FallbacksServed.WithLabelValues("places").Inc()
	}
}
