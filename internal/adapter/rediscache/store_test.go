package rediscache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTTL = time.Minute

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	store, err := NewStore(context.Background(), mr.Addr(), "", 0, testTTL,
		observability.NewMetricsForTesting(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, mr
}

// --- mock providers ---

type mockWeather struct {
	report  domain.WeatherReport
	aq      domain.AirQuality
	err     error
	calls   int
	aqCalls int
}

func (m *mockWeather) Weather(context.Context, domain.Coordinates) (domain.WeatherReport, error) {
	m.calls++
	return m.report, m.err
}

func (m *mockWeather) AirQuality(context.Context, domain.Coordinates) (domain.AirQuality, error) {
	m.aqCalls++
	return m.aq, m.err
}

type mockNews struct {
	calls int
}

func (m *mockNews) News(_ context.Context, location string, page domain.PageRequest) (domain.Page[domain.Article], error) {
	m.calls++
	return domain.Paginate([]domain.Article{{ID: "1", Title: location}}, page.Page, page.Limit), nil
}

type mockPlaces struct {
	calls int
}

func (m *mockPlaces) NearbyPlaces(context.Context, domain.PlacesQuery) ([]domain.GeoEntity, error) {
	m.calls++
	return []domain.GeoEntity{{ID: "node/1", Name: "Corner Pharmacy", Category: "pharmacy"}}, nil
}

var nyc = domain.Coordinates{Lat: 40.7128, Lon: -74.0060}

// --- tests ---

func TestNewStore_Unreachable(t *testing.T) {
	_, err := NewStore(context.Background(), "127.0.0.1:1", "", 0, testTTL, nil,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestWeatherProvider_CachesUntilTTL(t *testing.T) {
	store, mr := newTestStore(t)
	inner := &mockWeather{report: domain.WeatherReport{Location: "New York", Hourly: []domain.HourlyForecast{}, Daily: []domain.DailyForecast{}}}
	p := NewWeatherProvider(inner, store)

	r1, err := p.Weather(context.Background(), nyc)
	require.NoError(t, err)
	r2, err := p.Weather(context.Background(), domain.Coordinates{Lat: 40.71281, Lon: -74.00601})
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls)
	assert.True(t, mr.Exists(keyPrefix+"weather:40.713,-74.006"))

	mr.FastForward(testTTL + time.Second)

	_, err = p.Weather(context.Background(), nyc)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestWeatherProvider_AirQualitySeparateKey(t *testing.T) {
	store, _ := newTestStore(t)
	inner := &mockWeather{aq: domain.DefaultAirQuality()}
	p := NewWeatherProvider(inner, store)

	_, _ = p.AirQuality(context.Background(), nyc)
	aq, err := p.AirQuality(context.Background(), nyc)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultAirQuality(), aq)
	assert.Equal(t, 1, inner.aqCalls)
	assert.Zero(t, inner.calls)
}

func TestWeatherProvider_ErrorsNotCached(t *testing.T) {
	store, mr := newTestStore(t)
	inner := &mockWeather{err: errors.New("upstream down")}
	p := NewWeatherProvider(inner, store)

	_, err := p.Weather(context.Background(), nyc)
	require.Error(t, err)
	_, err = p.Weather(context.Background(), nyc)
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
	assert.Empty(t, mr.Keys())
}

func TestWeatherProvider_RedisDownFallsThrough(t *testing.T) {
	store, mr := newTestStore(t)
	inner := &mockWeather{report: domain.WeatherReport{Location: "New York"}}
	p := NewWeatherProvider(inner, store)

	mr.Close()

	r, err := p.Weather(context.Background(), nyc)
	require.NoError(t, err)
	assert.Equal(t, "New York", r.Location)
	assert.Equal(t, 1, inner.calls)
}

func TestGetOrLoad_CorruptEntryReloaded(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, mr.Set(keyPrefix+"aq:40.713,-74.006", "{not json"))
	inner := &mockWeather{aq: domain.DefaultAirQuality()}

	aq, err := NewWeatherProvider(inner, store).AirQuality(context.Background(), nyc)
	require.NoError(t, err)
	assert.Equal(t, 2, aq.AQI)
	assert.Equal(t, 1, inner.aqCalls)
}

func TestNewsProvider_KeyedByLocationAndPage(t *testing.T) {
	store, _ := newTestStore(t)
	inner := &mockNews{}
	p := NewNewsProvider(inner, store)
	ctx := context.Background()

	_, _ = p.News(ctx, "Brooklyn", domain.PageRequest{Page: 1, Limit: 8})
	_, _ = p.News(ctx, " brooklyn ", domain.PageRequest{Page: 1, Limit: 8})
	assert.Equal(t, 1, inner.calls)

	_, _ = p.News(ctx, "Brooklyn", domain.PageRequest{Page: 2, Limit: 8})
	assert.Equal(t, 2, inner.calls)
}

func TestPlacesProvider_EmptyCategoryMeansAll(t *testing.T) {
	store, _ := newTestStore(t)
	inner := &mockPlaces{}
	p := NewPlacesProvider(inner, store)
	ctx := context.Background()

	first, err := p.NearbyPlaces(ctx, domain.PlacesQuery{Center: nyc, RadiusKm: 5})
	require.NoError(t, err)
	second, err := p.NearbyPlaces(ctx, domain.PlacesQuery{Center: nyc, RadiusKm: 5, Category: domain.CategoryAll})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.calls)
}

func TestStore_CheckReadiness(t *testing.T) {
	store, mr := newTestStore(t)
	require.NoError(t, store.CheckReadiness(context.Background()))

	mr.Close()
	assert.Error(t, store.CheckReadiness(context.Background()))
}
