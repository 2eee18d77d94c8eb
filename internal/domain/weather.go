package domain

import (
	"context"
	"time"
)

// CurrentConditions is the weather right now at a location.
type CurrentConditions struct {
	TempC       float64   `json:"tempC"`
	FeelsLikeC  float64   `json:"feelsLikeC"`
	Humidity    int       `json:"humidity"`
	WindSpeedMS float64   `json:"windSpeedMs"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	ObservedAt  time.Time `json:"observedAt"`
}

// HourlyForecast is one forecast step.
type HourlyForecast struct {
	Time         time.Time `json:"time"`
	TempC        float64   `json:"tempC"`
	Description  string    `json:"description"`
	Icon         string    `json:"icon"`
	PrecipChance float64   `json:"precipChance"` // 0.0–1.0
}

// DailyForecast aggregates the forecast steps of one calendar day.
type DailyForecast struct {
	Date        string  `json:"date"` // YYYY-MM-DD in the location's offset
	MinC        float64 `json:"minC"`
	MaxC        float64 `json:"maxC"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// WeatherReport bundles current conditions with hourly and daily forecasts.
type WeatherReport struct {
	Location string             `json:"location"`
	Current  *CurrentConditions `json:"current,omitempty"`
	Hourly   []HourlyForecast   `json:"hourly"`
	Daily    []DailyForecast    `json:"daily"`
}

// AirQuality is the provider-supplied air quality index with pollutant
// concentrations in µg/m³. AQI uses the provider's 1 (good) to 5 (very poor) scale.
type AirQuality struct {
	AQI      int     `json:"aqi"`
	Category string  `json:"category"`
	PM25     float64 `json:"pm25"`
	PM10     float64 `json:"pm10"`
	O3       float64 `json:"o3"`
	NO2      float64 `json:"no2"`
	CO       float64 `json:"co"`
}

// WeatherProvider fetches weather and air quality for a coordinate.
type WeatherProvider interface {
	Weather(ctx context.Context, c Coordinates) (WeatherReport, error)
	AirQuality(ctx context.Context, c Coordinates) (AirQuality, error)
}

var aqiCategories = map[int]string{
	1: "Good",
	2: "Fair",
	3: "Moderate",
	4: "Poor",
	5: "Very Poor",
}

// AQICategory names an AQI level on the 1–5 scale.
func AQICategory(aqi int) string {
	if c, ok := aqiCategories[aqi]; ok {
		return c
	}
	return "Unknown"
}

// DefaultAirQuality is the placeholder served when the provider fails.
func DefaultAirQuality() AirQuality {
	return AirQuality{
		AQI:      2,
		Category: AQICategory(2),
		PM25:     10,
		PM10:     20,
		O3:       60,
		NO2:      15,
		CO:       250,
	}
}

// EmptyWeatherReport is the placeholder served when the provider fails.
func EmptyWeatherReport(location string) WeatherReport {
	return WeatherReport{
		Location: location,
		Hourly:   []HourlyForecast{},
		Daily:    []DailyForecast{},
	}
}
