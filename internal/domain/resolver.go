package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ResolveState is a step of the location resolution state machine.
type ResolveState string

const (
	StateIdle     ResolveState = "idle"
	StateLocating ResolveState = "locating"
	StateResolved ResolveState = "resolved"
	StateFailed   ResolveState = "failed"
)

// Resolution is the outcome of one Resolve call. Location is always usable;
// Cause carries the swallowed failure when a fallback was substituted.
type Resolution struct {
	Location    UserLocation   `json:"location"`
	Transitions []ResolveState `json:"transitions"`
	Cause       error          `json:"-"`
}

// State returns the final state, which is always StateResolved.
func (r Resolution) State() ResolveState {
	if len(r.Transitions) == 0 {
		return StateIdle
	}
	return r.Transitions[len(r.Transitions)-1]
}

// UsedFallback reports whether the location is the hardcoded fallback.
func (r Resolution) UsedFallback() bool {
	return r.Location.Source == SourceFallback
}

// Resolver turns a LocationProvider into a reverse-geocoded UserLocation,
// degrading to a region fallback and then to a fixed location on any failure.
type Resolver struct {
	geocoder Geocoder
	region   LocationProvider
	fallback UserLocation
	timeout  time.Duration
	logger   *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithRegionFallback sets the provider tried once after the primary fails,
// typically IP-based geolocation.
func WithRegionFallback(p LocationProvider) ResolverOption {
	return func(r *Resolver) { r.region = p }
}

// WithFallbackLocation overrides the fixed fallback location.
func WithFallbackLocation(l UserLocation) ResolverOption {
	return func(r *Resolver) {
		l.Source = SourceFallback
		r.fallback = l
	}
}

// WithLocateTimeout bounds each locating attempt.
func WithLocateTimeout(d time.Duration) ResolverOption {
	return func(r *Resolver) { r.timeout = d }
}

// NewResolver creates a Resolver. A nil geocoder disables reverse geocoding;
// locations then carry only coordinates.
func NewResolver(geocoder Geocoder, logger *slog.Logger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		geocoder: geocoder,
		fallback: DefaultFallbackLocation(),
		timeout:  10 * time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs idle -> locating -> resolved, or
// idle -> locating -> failed -> resolved(fallback). It never returns an error.
func (r *Resolver) Resolve(ctx context.Context, p LocationProvider, source LocationSource) Resolution {
	res := Resolution{Transitions: []ResolveState{StateIdle, StateLocating}}

	loc, err := r.locate(ctx, p, source)
	if err == nil {
		res.Location = loc
		res.Transitions = append(res.Transitions, StateResolved)
		return res
	}

	r.logger.Warn("location resolution failed, using fallback",
		"source", source,
		"error", err,
	)
	res.Cause = err
	res.Transitions = append(res.Transitions, StateFailed)

	if r.region != nil && source != SourceIP && ctx.Err() == nil {
		loc, regionErr := r.locate(ctx, r.region, SourceIP)
		if regionErr == nil {
			res.Location = loc
			res.Transitions = append(res.Transitions, StateResolved)
			return res
		}
		r.logger.Warn("region fallback failed", "error", regionErr)
		res.Cause = errors.Join(err, regionErr)
	}

	fb := r.fallback
	fb.ResolvedAt = clock.Now()
	res.Location = fb
	res.Transitions = append(res.Transitions, StateResolved)
	return res
}

// Search forward geocodes a free-text query. Unlike Resolve it is
// user-initiated, so failures are returned to the caller.
func (r *Resolver) Search(ctx context.Context, query string) (UserLocation, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return UserLocation{}, fmt.Errorf("%w: empty search query", ErrInvalidInput)
	}
	if r.geocoder == nil {
		return UserLocation{}, ErrProviderDisabled
	}

	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	result, err := r.geocoder.ForwardGeocode(ctx, query)
	if err != nil {
		return UserLocation{}, fmt.Errorf("search %q: %w", query, err)
	}
	if result.Empty() {
		return UserLocation{}, fmt.Errorf("search %q: %w", query, ErrNotFound)
	}
	return fromGeocoding(result, result.Lat, result.Lon, SourceSearch), nil
}

func (r *Resolver) locate(ctx context.Context, p LocationProvider, source LocationSource) (UserLocation, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	coords, err := p.Resolve(ctx)
	if err != nil {
		return UserLocation{}, fmt.Errorf("locate: %w", err)
	}
	if !coords.Valid() {
		return UserLocation{}, fmt.Errorf("locate: %w: invalid coordinates (%f, %f)", ErrInvalidInput, coords.Lat, coords.Lon)
	}

	if r.geocoder == nil {
		return UserLocation{
			Lat:              coords.Lat,
			Lon:              coords.Lon,
			FormattedAddress: fmt.Sprintf("%.4f, %.4f", coords.Lat, coords.Lon),
			Source:           source,
			ResolvedAt:       clock.Now(),
		}, nil
	}

	result, err := r.geocoder.ReverseGeocode(ctx, coords.Lat, coords.Lon)
	if err != nil {
		return UserLocation{}, fmt.Errorf("reverse geocode: %w", err)
	}
	if result.FormattedAddress == "" {
		return UserLocation{}, fmt.Errorf("reverse geocode: %w: empty result", ErrNotFound)
	}
	return fromGeocoding(result, coords.Lat, coords.Lon, source), nil
}

func (r *Resolver) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, r.timeout)
}

func fromGeocoding(g GeocodingResult, lat, lon float64, source LocationSource) UserLocation {
	city := g.City
	if city == "" {
		city = g.PlaceName
	}
	return UserLocation{
		Lat:              lat,
		Lon:              lon,
		City:             city,
		State:            g.State,
		Country:          g.Country,
		FormattedAddress: g.FormattedAddress,
		Source:           source,
		ResolvedAt:       clock.Now(),
	}
}
