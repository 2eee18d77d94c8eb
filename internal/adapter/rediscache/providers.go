package rediscache

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
)

// Coordinates in keys are rounded to three decimals (about 110 m); weather
// and nearby places do not change meaningfully within that distance.
func coordKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.3f,%.3f", c.Lat, c.Lon)
}

// WeatherProvider caches a domain.WeatherProvider.
type WeatherProvider struct {
	inner domain.WeatherProvider
	store *Store
}

// NewWeatherProvider wraps inner with the store.
func NewWeatherProvider(inner domain.WeatherProvider, store *Store) *WeatherProvider {
	return &WeatherProvider{inner: inner, store: store}
}

func (p *WeatherProvider) Weather(ctx context.Context, c domain.Coordinates) (domain.WeatherReport, error) {
	return getOrLoad(ctx, p.store, "weather", "weather:"+coordKey(c), func() (domain.WeatherReport, error) {
		return p.inner.Weather(ctx, c)
	})
}

func (p *WeatherProvider) AirQuality(ctx context.Context, c domain.Coordinates) (domain.AirQuality, error) {
	return getOrLoad(ctx, p.store, "air_quality", "aq:"+coordKey(c), func() (domain.AirQuality, error) {
		return p.inner.AirQuality(ctx, c)
	})
}

// NewsProvider caches a domain.NewsProvider per location and page.
type NewsProvider struct {
	inner domain.NewsProvider
	store *Store
}

// NewNewsProvider wraps inner with the store.
func NewNewsProvider(inner domain.NewsProvider, store *Store) *NewsProvider {
	return &NewsProvider{inner: inner, store: store}
}

func (p *NewsProvider) News(ctx context.Context, location string, page domain.PageRequest) (domain.Page[domain.Article], error) {
	key := fmt.Sprintf("news:%s:%d:%d", strings.ToLower(strings.TrimSpace(location)), page.Page, page.Limit)
	return getOrLoad(ctx, p.store, "news", key, func() (domain.Page[domain.Article], error) {
		return p.inner.News(ctx, location, page)
	})
}

// PlacesProvider caches a domain.PlacesProvider.
type PlacesProvider struct {
	inner domain.PlacesProvider
	store *Store
}

// NewPlacesProvider wraps inner with the store.
func NewPlacesProvider(inner domain.PlacesProvider, store *Store) *PlacesProvider {
	return &PlacesProvider{inner: inner, store: store}
}

func (p *PlacesProvider) NearbyPlaces(ctx context.Context, q domain.PlacesQuery) ([]domain.GeoEntity, error) {
	category := q.Category
	if category == "" {
		category = domain.CategoryAll
	}
	key := fmt.Sprintf("places:%s:%.1f:%s", coordKey(q.Center), q.RadiusKm, category)
	return getOrLoad(ctx, p.store, "places", key, func() ([]domain.GeoEntity, error) {
		return p.inner.NearbyPlaces(ctx, q)
	})
}
