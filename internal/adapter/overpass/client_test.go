package overpass

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/couchcryptid/urbanpulse-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

var brooklyn = domain.Coordinates{Lat: 40.6782, Lon: -73.9442}

func TestClient_NearbyPlaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		query := r.PostForm.Get("data")
		assert.Contains(t, query, `nwr["amenity"="pharmacy"]`)
		assert.Contains(t, query, "[out:json]")

		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":40.68,"lon":-73.94,"tags":{"name":"Corner Pharmacy","amenity":"pharmacy","addr:housenumber":"12","addr:street":"Main St","addr:city":"Brooklyn","phone":"+1 555 0100"}},
			{"type":"way","id":2,"center":{"lat":40.67,"lon":-73.95},"tags":{"name":"Health Mart","amenity":"pharmacy","contact:website":"https://hm.example"}},
			{"type":"node","id":3,"lat":40.6,"lon":-73.9,"tags":{"amenity":"pharmacy"}}
		]}`))
	}))
	defer srv.Close()

	places, err := testClient(srv.URL).NearbyPlaces(context.Background(), domain.PlacesQuery{
		Center: brooklyn, RadiusKm: 2, Category: "pharmacy",
	})
	require.NoError(t, err)
	require.Len(t, places, 2, "unnamed elements are dropped")

	assert.Equal(t, "node/1", places[0].ID)
	assert.Equal(t, "Corner Pharmacy", places[0].Name)
	assert.Equal(t, "12 Main St, Brooklyn", places[0].Address)
	assert.Equal(t, "pharmacy", places[0].Category)
	assert.Equal(t, "+1 555 0100", places[0].Phone)
	assert.Nil(t, places[0].Rating)
	assert.Nil(t, places[0].Distance)

	assert.Equal(t, "way/2", places[1].ID)
	assert.InDelta(t, 40.67, places[1].Lat, 1e-9)
	assert.Equal(t, "https://hm.example", places[1].Website)
}

func TestBuildQuery_AllCategories(t *testing.T) {
	q, err := buildQuery(domain.PlacesQuery{Center: brooklyn, RadiusKm: 1, Category: domain.CategoryAll})
	require.NoError(t, err)
	assert.Equal(t, len(domain.ServiceCategories), strings.Count(q, "nwr["))
	assert.Contains(t, q, `"leisure"="park"`)
	assert.Contains(t, q, `"shop"="supermarket"`)
}

func TestBuildQuery_UnknownCategory(t *testing.T) {
	_, err := buildQuery(domain.PlacesQuery{Center: brooklyn, RadiusKm: 1, Category: "casino"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestBuildQuery_BoundingBoxContainsCenter(t *testing.T) {
	q, err := buildQuery(domain.PlacesQuery{Center: brooklyn, RadiusKm: 1, Category: "park"})
	require.NoError(t, err)
	// south < center lat < north
	assert.Contains(t, q, "(40.669")
	assert.Contains(t, q, ",40.687")
}

func TestBuildQuery_SplitsAtAntimeridian(t *testing.T) {
	q, err := buildQuery(domain.PlacesQuery{Center: domain.Coordinates{Lat: -16.5, Lon: 179.99}, RadiusKm: 5, Category: "hospital"})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(q, "nwr["))
	assert.Contains(t, q, ",180.000000)")
	assert.Contains(t, q, ",-180.000000,")
}

func TestElement_Category(t *testing.T) {
	assert.Equal(t, "clinic", element{Tags: map[string]string{"amenity": "doctors"}}.category())
	assert.Equal(t, "park", element{Tags: map[string]string{"leisure": "park"}}.category())
	assert.Equal(t, "supermarket", element{Tags: map[string]string{"shop": "supermarket"}}.category())
}

func TestElement_Rating(t *testing.T) {
	tests := []struct {
		name string
		tags map[string]string
		want *float64
	}{
		{"stars", map[string]string{"stars": "4"}, ptr(4.0)},
		{"superior stars", map[string]string{"stars": "3S"}, ptr(3.0)},
		{"rating fallback", map[string]string{"rating": "4.5"}, ptr(4.5)},
		{"stars wins", map[string]string{"stars": "2", "rating": "5"}, ptr(2.0)},
		{"out of range", map[string]string{"rating": "9"}, nil},
		{"not a number", map[string]string{"stars": "yes"}, nil},
		{"nan", map[string]string{"rating": "NaN"}, nil},
		{"missing", map[string]string{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, element{Tags: tt.tags}.rating())
		})
	}
}

func TestClient_RatedPlacesSortThroughDiscovery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[
			{"type":"node","id":1,"lat":40.6785,"lon":-73.9445,"tags":{"name":"Plain Diner","amenity":"restaurant"}},
			{"type":"node","id":2,"lat":40.6790,"lon":-73.9450,"tags":{"name":"Star Bistro","amenity":"restaurant","stars":"4"}},
			{"type":"node","id":3,"lat":40.6780,"lon":-73.9440,"tags":{"name":"Good Grill","amenity":"restaurant","rating":"3.5"}}
		]}`))
	}))
	defer srv.Close()

	d := pipeline.NewDiscovery(testClient(srv.URL), 5, observability.NewMetricsForTesting(),
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := d.Run(context.Background(), pipeline.Request{
		Center:   brooklyn,
		Category: "restaurant",
		Query:    domain.Query{Sort: domain.SortRating},
		Page:     domain.PageRequest{Page: 1, Limit: 8},
	})
	require.NoError(t, err)

	names := make([]string, len(res.Items))
	for i, e := range res.Items {
		names[i] = e.Name
	}
	assert.Equal(t, []string{"Star Bistro", "Good Grill", "Plain Diner"}, names)
}

func ptr(v float64) *float64 { return &v }

func TestClient_NearbyPlaces_GatewayTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).NearbyPlaces(context.Background(), domain.PlacesQuery{Center: brooklyn, RadiusKm: 1})
	require.Error(t, err)
	assert.Equal(t, domain.KindTimeout, domain.Classify(err))
}
