package domain

import (
	"context"
	"fmt"
	"time"
)

// LocationSource records how a UserLocation was obtained.
type LocationSource string

const (
	SourceDevice   LocationSource = "device"
	SourceIP       LocationSource = "ip"
	SourceSearch   LocationSource = "search"
	SourceFallback LocationSource = "fallback"
)

// UserLocation is the resolved position of the caller.
type UserLocation struct {
	Lat              float64        `json:"latitude"`
	Lon              float64        `json:"longitude"`
	City             string         `json:"city"`
	State            string         `json:"state"`
	Country          string         `json:"country"`
	FormattedAddress string         `json:"formattedAddress"`
	Source           LocationSource `json:"source"`
	ResolvedAt       time.Time      `json:"resolvedAt"`
}

// Coordinates returns the location position.
func (l UserLocation) Coordinates() Coordinates {
	return Coordinates{Lat: l.Lat, Lon: l.Lon}
}

// DisplayName picks the most specific human-readable label available.
func (l UserLocation) DisplayName() string {
	switch {
	case l.City != "":
		return l.City
	case l.State != "":
		return l.State
	case l.FormattedAddress != "":
		return l.FormattedAddress
	default:
		return l.Country
	}
}

// LocationProvider produces raw coordinates for the caller.
type LocationProvider interface {
	Resolve(ctx context.Context) (Coordinates, error)
}

// LocationProviderFunc adapts a function to LocationProvider.
type LocationProviderFunc func(ctx context.Context) (Coordinates, error)

func (f LocationProviderFunc) Resolve(ctx context.Context) (Coordinates, error) { return f(ctx) }

// DeviceLocation is a LocationProvider for coordinates the client already
// obtained from the device.
type DeviceLocation Coordinates

func (d DeviceLocation) Resolve(_ context.Context) (Coordinates, error) {
	c := Coordinates(d)
	if !c.Valid() {
		return Coordinates{}, fmt.Errorf("%w: coordinates out of range (%f, %f)", ErrInvalidInput, c.Lat, c.Lon)
	}
	return c, nil
}

// DefaultFallbackLocation is New York City, used when nothing else resolves.
func DefaultFallbackLocation() UserLocation {
	return UserLocation{
		Lat:              40.7128,
		Lon:              -74.0060,
		City:             "New York",
		State:            "New York",
		Country:          "United States",
		FormattedAddress: "New York, New York, United States",
		Source:           SourceFallback,
	}
}
