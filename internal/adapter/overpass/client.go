// Package overpass implements domain.PlacesProvider against the OpenStreetMap
// Overpass API.
package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
)

const (
	providerName   = "overpass"
	defaultBaseURL = "https://overpass-api.de/api/interpreter"
	maxElements    = 200
)

// categoryTags maps service categories to the OSM tag that identifies them.
var categoryTags = map[string]string{
	"hospital":     `"amenity"="hospital"`,
	"clinic":       `"amenity"~"^(clinic|doctors)$"`,
	"pharmacy":     `"amenity"="pharmacy"`,
	"police":       `"amenity"="police"`,
	"fire_station": `"amenity"="fire_station"`,
	"school":       `"amenity"="school"`,
	"library":      `"amenity"="library"`,
	"restaurant":   `"amenity"="restaurant"`,
	"cafe":         `"amenity"="cafe"`,
	"bank":         `"amenity"="bank"`,
	"fuel":         `"amenity"="fuel"`,
	"post_office":  `"amenity"="post_office"`,
	"supermarket":  `"shop"="supermarket"`,
	"park":         `"leisure"="park"`,
}

// Client implements domain.PlacesProvider.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an Overpass client.
func NewClient(timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    defaultBaseURL,
		metrics:    metrics,
		logger:     logger,
	}
}

// NearbyPlaces returns named points of interest inside the bounding box of
// the query circle. Callers apply the exact radius check after annotating
// distances.
func (c *Client) NearbyPlaces(ctx context.Context, q domain.PlacesQuery) ([]domain.GeoEntity, error) {
	query, err := buildQuery(q)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	form := url.Values{"data": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return nil, domain.NewProviderError(providerName, domain.KindNone, fmt.Errorf("overpass request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.metrics.ObserveProvider(providerName, "error", start)
		return nil, domain.NewProviderError(providerName, domain.KindForStatus(resp.StatusCode),
			fmt.Errorf("overpass API error: status %d: %s", resp.StatusCode, body))
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		c.metrics.ObserveProvider(providerName, "error", start)
		return nil, domain.NewProviderError(providerName, domain.KindMalformed, fmt.Errorf("decode response: %w", err))
	}

	places := make([]domain.GeoEntity, 0, len(body.Elements))
	for _, el := range body.Elements {
		if e, ok := el.toEntity(); ok {
			places = append(places, e)
		}
	}

	outcome := "success"
	if len(places) == 0 {
		outcome = "empty"
	}
	c.metrics.ObserveProvider(providerName, outcome, start)
	c.logger.Debug("overpass places fetched", "elements", len(body.Elements), "named", len(places))
	return places, nil
}

func buildQuery(q domain.PlacesQuery) (string, error) {
	var tags []string
	switch {
	case q.Category == "" || q.Category == domain.CategoryAll:
		for _, c := range domain.ServiceCategories {
			tags = append(tags, categoryTags[c])
		}
	case categoryTags[q.Category] != "":
		tags = []string{categoryTags[q.Category]}
	default:
		return "", fmt.Errorf("%w: unknown service category %q", domain.ErrInvalidInput, q.Category)
	}

	var boxes []string
	for _, b := range domain.SearchBounds(q.Center, q.RadiusKm) {
		boxes = append(boxes, fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.Min.Lat(), b.Min.Lon(), b.Max.Lat(), b.Max.Lon()))
	}

	var sb strings.Builder
	sb.WriteString("[out:json][timeout:25];(")
	for _, t := range tags {
		for _, bbox := range boxes {
			fmt.Fprintf(&sb, "nwr[%s](%s);", t, bbox)
		}
	}
	fmt.Fprintf(&sb, ");out center %d;", maxElements)
	return sb.String(), nil
}

// Overpass API response types.

type response struct {
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *latLon           `json:"center"` // ways and relations
	Tags   map[string]string `json:"tags"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (el element) toEntity() (domain.GeoEntity, bool) {
	name := el.Tags["name"]
	if name == "" {
		return domain.GeoEntity{}, false
	}
	lat, lon := el.Lat, el.Lon
	if el.Center != nil {
		lat, lon = el.Center.Lat, el.Center.Lon
	}

	return domain.GeoEntity{
		ID:          fmt.Sprintf("%s/%d", el.Type, el.ID),
		Name:        name,
		Description: el.Tags["description"],
		Address:     el.address(),
		Category:    el.category(),
		Lat:         lat,
		Lon:         lon,
		Rating:      el.rating(),
		Phone:       firstTag(el.Tags, "phone", "contact:phone"),
		Website:     firstTag(el.Tags, "website", "contact:website"),
	}, true
}

func (el element) category() string {
	switch {
	case el.Tags["shop"] == "supermarket":
		return "supermarket"
	case el.Tags["leisure"] == "park":
		return "park"
	case el.Tags["amenity"] == "doctors":
		return "clinic"
	default:
		return el.Tags["amenity"]
	}
}

// rating reads the OSM stars tag ("4", "3S" for superior) or a plain rating
// tag. Values outside 0-5 are ignored.
func (el element) rating() *float64 {
	for _, key := range []string{"stars", "rating"} {
		v := strings.TrimRight(strings.TrimSpace(el.Tags[key]), "Ss")
		if v == "" {
			continue
		}
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || math.IsNaN(r) || r < 0 || r > 5 {
			continue
		}
		return &r
	}
	return nil
}

func (el element) address() string {
	street := strings.TrimSpace(el.Tags["addr:housenumber"] + " " + el.Tags["addr:street"])
	parts := make([]string, 0, 2)
	for _, p := range []string{street, el.Tags["addr:city"]} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

func firstTag(tags map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := tags[k]; v != "" {
			return v
		}
	}
	return ""
}
