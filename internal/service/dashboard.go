package service

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

// Dashboard sections that can be served from placeholder data.
const (
	SectionWeather    = "weather"
	SectionAirQuality = "air_quality"
	SectionNews       = "news"
)

// WeatherView is the weather page payload.
type WeatherView struct {
	Weather    domain.WeatherReport `json:"weather"`
	AirQuality domain.AirQuality    `json:"airQuality"`
	Fallbacks  []string             `json:"fallbacks"`
}

// NewsView is one page of local news.
type NewsView struct {
	domain.Page[domain.Article]
	Fallback bool `json:"fallback"`
}

// DashboardView is the landing page payload.
type DashboardView struct {
	Location   domain.UserLocation         `json:"location"`
	Weather    domain.WeatherReport        `json:"weather"`
	AirQuality domain.AirQuality           `json:"airQuality"`
	News       domain.Page[domain.Article] `json:"news"`
	Fallbacks  []string                    `json:"fallbacks"`
}

// Dashboard assembles weather, air quality and news for a location. No
// section ever fails the request; a failed section is replaced by its
// placeholder and named in Fallbacks.
type Dashboard struct {
	weather  domain.WeatherProvider
	news     domain.NewsProvider
	pageSize int
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewDashboard creates a Dashboard. Nil providers always serve placeholders.
func NewDashboard(weather domain.WeatherProvider, news domain.NewsProvider, pageSize int, metrics *observability.Metrics, logger *slog.Logger) *Dashboard {
	return &Dashboard{
		weather:  weather,
		news:     news,
		pageSize: pageSize,
		metrics:  metrics,
		logger:   logger,
	}
}

// Build fetches every section for loc in parallel.
func (d *Dashboard) Build(ctx context.Context, loc domain.UserLocation) DashboardView {
	var (
		report  domain.WeatherReport
		aq      domain.AirQuality
		news    NewsView
		wFall   bool
		aqFall  bool
		g, gctx = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		report, wFall = d.fetchWeather(gctx, loc)
		return nil
	})
	g.Go(func() error {
		aq, aqFall = d.fetchAirQuality(gctx, loc)
		return nil
	})
	g.Go(func() error {
		news = d.News(gctx, loc.DisplayName(), domain.PageRequest{Page: 1, Limit: d.pageSize})
		return nil
	})
	_ = g.Wait()

	return DashboardView{
		Location:   loc,
		Weather:    report,
		AirQuality: aq,
		News:       news.Page,
		Fallbacks:  fallbackSections(wFall, aqFall, news.Fallback),
	}
}

// Weather fetches the weather and air quality sections in parallel.
func (d *Dashboard) Weather(ctx context.Context, loc domain.UserLocation) WeatherView {
	var (
		view          WeatherView
		wFall, aqFall bool
		g, gctx       = errgroup.WithContext(ctx)
	)
	g.Go(func() error {
		view.Weather, wFall = d.fetchWeather(gctx, loc)
		return nil
	})
	g.Go(func() error {
		view.AirQuality, aqFall = d.fetchAirQuality(gctx, loc)
		return nil
	})
	_ = g.Wait()

	view.Fallbacks = fallbackSections(wFall, aqFall, false)
	return view
}

// News returns one page of news for location, or placeholder articles.
func (d *Dashboard) News(ctx context.Context, location string, page domain.PageRequest) NewsView {
	page = domain.NormalizePage(page.Page, page.Limit, d.pageSize)
	placeholder := domain.PlaceholderNews(location, page)
	if d.news == nil {
		d.servedFallback(SectionNews, domain.ErrProviderDisabled)
		return NewsView{Page: placeholder, Fallback: true}
	}

	res := domain.From(d.news.News(ctx, location, page))
	articles, fallback := res.OrElse(placeholder)
	if fallback {
		d.servedFallback(SectionNews, res.Err())
	}
	return NewsView{Page: articles, Fallback: fallback}
}

func (d *Dashboard) fetchWeather(ctx context.Context, loc domain.UserLocation) (domain.WeatherReport, bool) {
	placeholder := domain.EmptyWeatherReport(loc.DisplayName())
	if d.weather == nil {
		d.servedFallback(SectionWeather, domain.ErrProviderDisabled)
		return placeholder, true
	}

	res := domain.From(d.weather.Weather(ctx, loc.Coordinates()))
	report, fallback := res.OrElse(placeholder)
	if fallback {
		d.servedFallback(SectionWeather, res.Err())
		return report, true
	}
	if report.Location == "" {
		report.Location = loc.DisplayName()
	}
	return report, false
}

func (d *Dashboard) fetchAirQuality(ctx context.Context, loc domain.UserLocation) (domain.AirQuality, bool) {
	if d.weather == nil {
		d.servedFallback(SectionAirQuality, domain.ErrProviderDisabled)
		return domain.DefaultAirQuality(), true
	}

	res := domain.From(d.weather.AirQuality(ctx, loc.Coordinates()))
	aq, fallback := res.OrElse(domain.DefaultAirQuality())
	if fallback {
		d.servedFallback(SectionAirQuality, res.Err())
	}
	return aq, fallback
}

func (d *Dashboard) servedFallback(section string, err error) {
	if d.metrics != nil {
		d.metrics.FallbacksServed.WithLabelValues(section).Inc()
	}
	d.logger.Warn("serving placeholder section",
		"section", section,
		"kind", domain.Classify(err),
		"error", err,
	)
}

func fallbackSections(weather, airQuality, news bool) []string {
	out := []string{}
	if weather {
		out = append(out, SectionWeather)
	}
	if airQuality {
		out = append(out, SectionAirQuality)
	}
	if news {
		out = append(out, SectionNews)
	}
	return out
}
