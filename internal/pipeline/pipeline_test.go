package pipeline_test

import (
	"math"
	"testing"

	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/couchcryptid/urbanpulse-service/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cityHall = domain.Coordinates{Lat: 40.7128, Lon: -74.0060}

func entity(id, name, category string, lat, lon float64) domain.GeoEntity {
	return domain.GeoEntity{ID: id, Name: name, Category: category, Lat: lat, Lon: lon}
}

func fixtures() []domain.GeoEntity {
	return []domain.GeoEntity{
		entity("times-square", "Times Square Pharmacy", "pharmacy", 40.7580, -73.9855), // 5.3 km
		entity("city-hall", "City Hall Clinic", "clinic", 40.7130, -74.0062),           // 0.0 km
		entity("brooklyn", "Brooklyn Cafe", "cafe", 40.6782, -73.9442),                 // 6.5 km
		entity("philly", "Philadelphia Library", "library", 39.9526, -75.1652),         // far
	}
}

func ids(entities []domain.GeoEntity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

func TestProcess_AnnotatesFiltersAndSorts(t *testing.T) {
	metrics := observability.NewMetricsForTesting()

	page := pipeline.Process(fixtures(), pipeline.Stages{
		Origin:   &cityHall,
		RadiusKm: 10,
		Query:    domain.Query{Sort: domain.SortDistance},
		Page:     domain.PageRequest{Page: 1, Limit: 8},
	}, metrics)

	assert.Equal(t, []string{"city-hall", "times-square", "brooklyn"}, ids(page.Items))
	assert.Equal(t, 3, page.Pagination.Total)
	for _, e := range page.Items {
		require.NotNil(t, e.Distance)
		assert.LessOrEqual(t, *e.Distance, 10.0)
	}
	assert.InDelta(t, 5.3, *page.Items[1].Distance, 1e-9)
}

func TestProcess_NoOriginSkipsDistance(t *testing.T) {
	page := pipeline.Process(fixtures(), pipeline.Stages{
		RadiusKm: 1,
		Query:    domain.Query{Sort: domain.SortName},
	}, nil)

	assert.Equal(t, []string{"brooklyn", "city-hall", "philly", "times-square"}, ids(page.Items))
	for _, e := range page.Items {
		assert.Nil(t, e.Distance)
	}
}

func TestProcess_TextAndCategory(t *testing.T) {
	page := pipeline.Process(fixtures(), pipeline.Stages{
		Origin: &cityHall,
		Query:  domain.Query{Text: "CLINIC", Category: "clinic"},
	}, nil)

	assert.Equal(t, []string{"city-hall"}, ids(page.Items))
}

func TestProcess_Paginates(t *testing.T) {
	page := pipeline.Process(fixtures(), pipeline.Stages{
		Query: domain.Query{Sort: domain.SortName},
		Page:  domain.PageRequest{Page: 2, Limit: 3},
	}, nil)

	assert.Equal(t, []string{"times-square"}, ids(page.Items))
	assert.Equal(t, domain.Pagination{Total: 4, Page: 2, Limit: 3, TotalPages: 2}, page.Pagination)
}

func TestProcess_HugePageIsEmpty(t *testing.T) {
	page := pipeline.Process(fixtures(), pipeline.Stages{
		Page: domain.NormalizePage(math.MaxInt, 8, 8),
	}, nil)

	assert.Empty(t, page.Items)
	assert.Equal(t, 4, page.Pagination.Total)
	assert.Equal(t, domain.MaxPage, page.Pagination.Page)
}

func TestProcess_DoesNotMutateInput(t *testing.T) {
	in := fixtures()
	pipeline.Process(in, pipeline.Stages{Origin: &cityHall, Query: domain.Query{Sort: domain.SortName}}, nil)

	assert.Equal(t, fixtures(), in)
}

func TestClampRadius(t *testing.T) {
	tests := []struct {
		name       string
		radius     float64
		def        float64
		wantRadius float64
	}{
		{"explicit", 2.5, 5, 2.5},
		{"zero uses default", 0, 5, 5},
		{"negative uses default", -3, 7, 7},
		{"capped", 120, 5, pipeline.MaxRadiusKm},
		{"unset default", 0, 0, pipeline.DefaultRadiusKm},
		{"default capped", 0, 80, pipeline.MaxRadiusKm},
		{"nan uses default", math.NaN(), 5, 5},
		{"infinite capped", math.Inf(1), 5, pipeline.MaxRadiusKm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.wantRadius, pipeline.ClampRadius(tt.radius, tt.def), 1e-9)
		})
	}
}
