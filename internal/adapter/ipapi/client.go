// Package ipapi locates callers by IP address using ip-api.com. It serves as
// the region fallback when device coordinates are unavailable.
package ipapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
)

const (
	providerName   = "ipapi"
	defaultBaseURL = "http://ip-api.com/json"
	fields         = "status,message,lat,lon,city,regionName,country"
)

// Client looks up approximate coordinates for an IP address.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an ip-api.com client.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// Provider returns a domain.LocationProvider for ip. Loopback and private
// addresses are looked up as the service's own public address, which is the
// closest approximation when running behind NAT in development.
func (c *Client) Provider(ip string) domain.LocationProvider {
	return domain.LocationProviderFunc(func(ctx context.Context) (domain.Coordinates, error) {
		return c.Locate(ctx, ip)
	})
}

// Locate returns approximate coordinates for ip.
func (c *Client) Locate(ctx context.Context, ip string) (domain.Coordinates, error) {
	start := time.Now()

	u := c.baseURL
	if addr := net.ParseIP(ip); addr != nil && !addr.IsLoopback() && !addr.IsPrivate() {
		u += "/" + url.PathEscape(addr.String())
	}
	u += "?" + url.Values{"fields": {fields}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.Coordinates{}, domain.NewProviderError(providerName, domain.KindNone, fmt.Errorf("ip lookup: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.Coordinates{}, domain.NewProviderError(providerName, domain.KindForStatus(resp.StatusCode),
			fmt.Errorf("ip-api error: status %d", resp.StatusCode))
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return domain.Coordinates{}, domain.NewProviderError(providerName, domain.KindMalformed, fmt.Errorf("decode response: %w", err))
	}
	if body.Status != "success" {
		c.metrics.ObserveProvider(providerName, "empty", start)
		return domain.Coordinates{}, domain.NewProviderError(providerName, domain.KindNotFound,
			errors.New("ip lookup failed: "+body.Message))
	}

	c.metrics.ObserveProvider(providerName, "success", start)
	c.logger.Debug("located caller by ip", "city", body.City, "region", body.RegionName)
	return domain.Coordinates{Lat: body.Lat, Lon: body.Lon}, nil
}

type lookupResponse struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	City       string  `json:"city"`
	RegionName string  `json:"regionName"`
	Country    string  `json:"country"`
}
