// Package openweather implements domain.WeatherProvider against the
// OpenWeatherMap current weather, 5 day forecast and air pollution APIs.
package openweather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"golang.org/x/sync/errgroup"
)

const (
	providerName   = "openweather"
	defaultBaseURL = "https://api.openweathermap.org/data/2.5"

	hourlySteps = 8 // 3-hour steps, one day ahead
	maxDays     = 5
)

// Client implements domain.WeatherProvider. A client without an API key is
// disabled and fails every call with domain.ErrProviderDisabled.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an OpenWeatherMap client.
func NewClient(apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Weather fetches current conditions and the forecast concurrently and folds
// the forecast into hourly and daily views.
func (c *Client) Weather(ctx context.Context, coords domain.Coordinates) (domain.WeatherReport, error) {
	var (
		current  currentResponse
		forecast forecastResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.get(gctx, "/weather", coords, true, &current) })
	g.Go(func() error { return c.get(gctx, "/forecast", coords, true, &forecast) })
	if err := g.Wait(); err != nil {
		return domain.WeatherReport{}, err
	}

	offset := time.Duration(forecast.City.Timezone) * time.Second
	report := domain.WeatherReport{
		Location: current.Name,
		Current:  current.toDomain(),
		Hourly:   hourly(forecast.List, offset),
		Daily:    daily(forecast.List, offset),
	}
	return report, nil
}

// AirQuality fetches the current air pollution index and components.
func (c *Client) AirQuality(ctx context.Context, coords domain.Coordinates) (domain.AirQuality, error) {
	var resp airPollutionResponse
	if err := c.get(ctx, "/air_pollution", coords, false, &resp); err != nil {
		return domain.AirQuality{}, err
	}
	if len(resp.List) == 0 {
		return domain.AirQuality{}, domain.NewProviderError(providerName, domain.KindNotFound,
			fmt.Errorf("no air quality data for %.4f,%.4f", coords.Lat, coords.Lon))
	}

	entry := resp.List[0]
	return domain.AirQuality{
		AQI:      entry.Main.AQI,
		Category: domain.AQICategory(entry.Main.AQI),
		PM25:     entry.Components.PM25,
		PM10:     entry.Components.PM10,
		O3:       entry.Components.O3,
		NO2:      entry.Components.NO2,
		CO:       entry.Components.CO,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, coords domain.Coordinates, metric bool, out any) error {
	if c.apiKey == "" {
		return domain.NewProviderError(providerName, domain.KindDisabled, domain.ErrProviderDisabled)
	}
	start := time.Now()

	params := url.Values{
		"lat":   {strconv.FormatFloat(coords.Lat, 'f', 4, 64)},
		"lon":   {strconv.FormatFloat(coords.Lon, 'f', 4, 64)},
		"appid": {c.apiKey},
	}
	if metric {
		params.Set("units", "metric")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.NewProviderError(providerName, domain.KindNone, fmt.Errorf("request %s: %w", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.NewProviderError(providerName, domain.KindForStatus(resp.StatusCode),
			fmt.Errorf("openweather API error on %s: status %d: %s", path, resp.StatusCode, body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.NewProviderError(providerName, domain.KindMalformed, fmt.Errorf("decode %s: %w", path, err))
	}
	c.metrics.ObserveProvider(providerName, "success", start)
	return nil
}

func hourly(list []forecastEntry, offset time.Duration) []domain.HourlyForecast {
	n := min(len(list), hourlySteps)
	out := make([]domain.HourlyForecast, 0, n)
	for _, e := range list[:n] {
		desc, icon := e.condition()
		out = append(out, domain.HourlyForecast{
			Time:         localTime(e.Dt, offset),
			TempC:        e.Main.Temp,
			Description:  desc,
			Icon:         icon,
			PrecipChance: e.Pop,
		})
	}
	return out
}

// daily groups forecast steps by local calendar day. The description and icon
// come from the step closest to local noon.
func daily(list []forecastEntry, offset time.Duration) []domain.DailyForecast {
	out := []domain.DailyForecast{}
	noonGap := map[string]time.Duration{}

	for _, e := range list {
		t := localTime(e.Dt, offset)
		date := t.Format(time.DateOnly)

		idx := len(out) - 1
		if idx < 0 || out[idx].Date != date {
			if len(out) == maxDays {
				break
			}
			out = append(out, domain.DailyForecast{Date: date, MinC: e.Main.TempMin, MaxC: e.Main.TempMax})
			idx++
			noonGap[date] = time.Duration(1<<63 - 1)
		}

		day := &out[idx]
		day.MinC = min(day.MinC, e.Main.TempMin)
		day.MaxC = max(day.MaxC, e.Main.TempMax)

		gap := absDuration(time.Duration(t.Hour()-12) * time.Hour)
		if gap < noonGap[date] {
			noonGap[date] = gap
			day.Description, day.Icon = e.condition()
		}
	}
	return out
}

func localTime(unix int64, offset time.Duration) time.Time {
	return time.Unix(unix, 0).UTC().Add(offset)
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// OpenWeatherMap API response types.

type condition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type currentResponse struct {
	Name    string      `json:"name"`
	Dt      int64       `json:"dt"`
	Weather []condition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
}

func (r currentResponse) toDomain() *domain.CurrentConditions {
	cur := &domain.CurrentConditions{
		TempC:       r.Main.Temp,
		FeelsLikeC:  r.Main.FeelsLike,
		Humidity:    r.Main.Humidity,
		WindSpeedMS: r.Wind.Speed,
		ObservedAt:  time.Unix(r.Dt, 0).UTC(),
	}
	if len(r.Weather) > 0 {
		cur.Description = r.Weather[0].Description
		cur.Icon = r.Weather[0].Icon
	}
	return cur
}

type forecastResponse struct {
	List []forecastEntry `json:"list"`
	City struct {
		Name     string `json:"name"`
		Timezone int    `json:"timezone"` // seconds east of UTC
	} `json:"city"`
}

type forecastEntry struct {
	Dt   int64 `json:"dt"`
	Main struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
	Weather []condition `json:"weather"`
	Pop     float64     `json:"pop"`
}

func (e forecastEntry) condition() (string, string) {
	if len(e.Weather) == 0 {
		return "", ""
	}
	return e.Weather[0].Description, e.Weather[0].Icon
}

type airPollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components struct {
			CO   float64 `json:"co"`
			NO2  float64 `json:"no2"`
			O3   float64 `json:"o3"`
			PM25 float64 `json:"pm2_5"`
			PM10 float64 `json:"pm10"`
		} `json:"components"`
	} `json:"list"`
}
