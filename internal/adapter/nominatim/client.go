// Package nominatim implements domain.Geocoder against the OpenStreetMap
// Nominatim API. It needs no API key and is the default geocoder.
package nominatim

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
)

const (
	providerName   = "nominatim"
	defaultBaseURL = "https://nominatim.openstreetmap.org"
	userAgent      = "urbanpulse-service/1.0"
)

// Client implements domain.Geocoder using Nominatim.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim geocoding client.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// ForwardGeocode converts a free-text query to coordinates.
func (c *Client) ForwardGeocode(ctx context.Context, query string) (domain.GeocodingResult, error) {
	params := url.Values{
		"q":               {query},
		"format":          {"jsonv2"},
		"addressdetails":  {"1"},
		"limit":           {"1"},
		"accept-language": {"en"},
	}

	var places []place
	found, err := c.get(ctx, "/search", params, &places)
	if err != nil || !found || len(places) == 0 {
		return domain.GeocodingResult{}, err
	}
	return places[0].toResult()
}

// ReverseGeocode converts coordinates to place details.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (domain.GeocodingResult, error) {
	params := url.Values{
		"lat":             {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":             {strconv.FormatFloat(lon, 'f', 6, 64)},
		"format":          {"jsonv2"},
		"addressdetails":  {"1"},
		"zoom":            {"14"},
		"accept-language": {"en"},
	}

	var p place
	found, err := c.get(ctx, "/reverse", params, &p)
	if err != nil || !found {
		return domain.GeocodingResult{}, err
	}
	// Nominatim answers 200 with {"error": "Unable to geocode"} for open water.
	if p.Error != "" {
		c.logger.Debug("nominatim reverse geocode found nothing", "lat", lat, "lon", lon, "reason", p.Error)
		return domain.GeocodingResult{}, nil
	}
	return p.toResult()
}

// get performs the request and decodes the body into out. It reports
// found=false when the service answered 404.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) (bool, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	// Nominatim's usage policy requires an identifying User-Agent.
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return false, domain.NewProviderError(providerName, domain.KindNone, fmt.Errorf("request %s: %w", path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		c.metrics.ObserveProvider(providerName, "empty", start)
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.ObserveProvider(providerName, "error", start)
		return false, domain.NewProviderError(providerName, domain.KindForStatus(resp.StatusCode),
			fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return false, domain.NewProviderError(providerName, domain.KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	c.metrics.ObserveProvider(providerName, "success", start)
	return true, nil
}

// Nominatim API response types.

type place struct {
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Name        string  `json:"name"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
	Address     address `json:"address"`
	Error       string  `json:"error"`
}

type address struct {
	Suburb  string `json:"suburb"`
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
	County  string `json:"county"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// locality picks the most specific settlement name, mirroring how Nominatim
// tags settlements of different sizes.
func (a address) locality() string {
	for _, v := range []string{a.City, a.Town, a.Village, a.Suburb, a.County} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (p place) toResult() (domain.GeocodingResult, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return domain.GeocodingResult{}, domain.NewProviderError(providerName, domain.KindMalformed,
			fmt.Errorf("parse lat %q: %w", p.Lat, err))
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return domain.GeocodingResult{}, domain.NewProviderError(providerName, domain.KindMalformed,
			fmt.Errorf("parse lon %q: %w", p.Lon, err))
	}

	name := p.Name
	if name == "" {
		name = p.Address.locality()
	}
	return domain.GeocodingResult{
		Lat:              lat,
		Lon:              lon,
		FormattedAddress: p.DisplayName,
		PlaceName:        name,
		City:             p.Address.locality(),
		State:            p.Address.State,
		Country:          p.Address.Country,
		Confidence:       min(max(p.Importance, 0), 1),
	}, nil
}
