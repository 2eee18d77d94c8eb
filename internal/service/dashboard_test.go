package service

import (
	"context"
	"testing"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var brooklyn = domain.UserLocation{
	Lat:     40.6782,
	Lon:     -73.9442,
	City:    "Brooklyn",
	State:   "New York",
	Country: "United States",
	Source:  domain.SourceDevice,
}

func newTestDashboard(w domain.WeatherProvider, n domain.NewsProvider) *Dashboard {
	return NewDashboard(w, n, 8, observability.NewMetricsForTesting(), discardLogger())
}

func TestDashboard_Build_AllSections(t *testing.T) {
	weather := &mockWeather{
		report: domain.WeatherReport{Current: &domain.CurrentConditions{TempC: 21.5, Description: "clear sky"}},
		aq:     domain.AirQuality{AQI: 1, Category: "Good"},
	}
	news := &mockNews{page: domain.Paginate([]domain.Article{{ID: "a1", Title: "Bridge reopens"}}, 1, 8)}

	view := newTestDashboard(weather, news).Build(context.Background(), brooklyn)

	assert.Equal(t, brooklyn, view.Location)
	require.NotNil(t, view.Weather.Current)
	assert.InDelta(t, 21.5, view.Weather.Current.TempC, 1e-9)
	assert.Equal(t, "Brooklyn", view.Weather.Location)
	assert.Equal(t, 1, view.AirQuality.AQI)
	require.Len(t, view.News.Items, 1)
	assert.Equal(t, "Bridge reopens", view.News.Items[0].Title)
	assert.Empty(t, view.Fallbacks)
	assert.NotNil(t, view.Fallbacks)

	assert.Equal(t, "Brooklyn", news.location)
	assert.Equal(t, domain.PageRequest{Page: 1, Limit: 8}, news.req)
}

func TestDashboard_Build_EachSectionFallsBackIndependently(t *testing.T) {
	weather := &mockWeather{
		weatherErr: domain.NewProviderError("openweather", domain.KindTimeout, context.DeadlineExceeded),
		aq:         domain.AirQuality{AQI: 4, Category: "Poor"},
	}
	news := &mockNews{err: domain.NewProviderError("newsapi", domain.KindUnauthorized, errUpstream)}

	view := newTestDashboard(weather, news).Build(context.Background(), brooklyn)

	assert.Equal(t, []string{SectionWeather, SectionNews}, view.Fallbacks)
	assert.Equal(t, domain.EmptyWeatherReport("Brooklyn"), view.Weather)
	assert.Equal(t, 4, view.AirQuality.AQI)
	require.NotEmpty(t, view.News.Items)
	assert.True(t, view.News.Items[0].Placeholder)
	assert.Contains(t, view.News.Items[0].Title, "Brooklyn")
}

func TestDashboard_Build_NilProviders(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	view := newTestDashboard(nil, nil).Build(context.Background(), brooklyn)

	assert.Equal(t, []string{SectionWeather, SectionAirQuality, SectionNews}, view.Fallbacks)
	assert.Equal(t, domain.DefaultAirQuality(), view.AirQuality)
	assert.Equal(t, domain.PlaceholderNews("Brooklyn", domain.PageRequest{Page: 1, Limit: 8}), view.News)
}

func TestDashboard_Weather(t *testing.T) {
	weather := &mockWeather{
		report: domain.WeatherReport{Location: "Kings County"},
		aqErr:  domain.NewProviderError("openweather", domain.KindNotFound, errUpstream),
	}

	view := newTestDashboard(weather, nil).Weather(context.Background(), brooklyn)

	assert.Equal(t, "Kings County", view.Weather.Location)
	assert.Equal(t, domain.DefaultAirQuality(), view.AirQuality)
	assert.Equal(t, []string{SectionAirQuality}, view.Fallbacks)
}

func TestDashboard_News_NormalizesPage(t *testing.T) {
	news := &mockNews{page: domain.Page[domain.Article]{Items: []domain.Article{}}}

	view := newTestDashboard(nil, news).News(context.Background(), "Queens", domain.PageRequest{Page: 0, Limit: 500})

	assert.False(t, view.Fallback)
	assert.Equal(t, domain.PageRequest{Page: 1, Limit: domain.MaxPageSize}, news.req)
}

func TestDashboard_News_PlaceholderPaging(t *testing.T) {
	news := &mockNews{err: errUpstream}

	view := newTestDashboard(nil, news).News(context.Background(), "Queens", domain.PageRequest{Page: 2, Limit: 3})

	assert.True(t, view.Fallback)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 5, view.Pagination.Total)
	assert.Equal(t, 2, view.Pagination.TotalPages)
}
