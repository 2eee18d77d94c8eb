// Package service implements the use cases behind the HTTP API: location
// resolution, the dashboard, incidents, communities and users.
package service

import (
	"context"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
)

// IPLocator builds a LocationProvider that geolocates a client IP.
type IPLocator interface {
	Provider(ip string) domain.LocationProvider
}

// Locator resolves the caller's location from device coordinates or, when
// none are supplied, from the client IP.
type Locator struct {
	resolver *domain.Resolver
	ip       IPLocator
	metrics  *observability.Metrics
}

// NewLocator creates a Locator. A nil IPLocator sends requests without
// coordinates straight to the configured fallback.
func NewLocator(resolver *domain.Resolver, ip IPLocator, metrics *observability.Metrics) *Locator {
	return &Locator{resolver: resolver, ip: ip, metrics: metrics}
}

// Locate never fails; see domain.Resolver.Resolve.
func (l *Locator) Locate(ctx context.Context, device *domain.Coordinates, clientIP string) domain.Resolution {
	var (
		provider domain.LocationProvider
		source   domain.LocationSource
	)
	switch {
	case device != nil:
		provider, source = domain.DeviceLocation(*device), domain.SourceDevice
	case l.ip != nil:
		provider, source = l.ip.Provider(clientIP), domain.SourceIP
	default:
		provider, source = domain.LocationProviderFunc(noLocation), domain.SourceIP
	}

	res := l.resolver.Resolve(ctx, provider, source)
	l.observe(res.Location.Source)
	return res
}

// Search forward geocodes a free-text place query.
func (l *Locator) Search(ctx context.Context, query string) (domain.UserLocation, error) {
	loc, err := l.resolver.Search(ctx, query)
	if err != nil {
		return domain.UserLocation{}, err
	}
	l.observe(loc.Source)
	return loc, nil
}

func (l *Locator) observe(source domain.LocationSource) {
	if l.metrics != nil {
		l.metrics.LocationResolutions.WithLabelValues(string(source)).Inc()
	}
}

func noLocation(context.Context) (domain.Coordinates, error) {
	return domain.Coordinates{}, domain.ErrProviderDisabled
}
