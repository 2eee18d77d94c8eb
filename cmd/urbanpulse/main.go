package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	httpadapter "github.com/couchcryptid/urbanpulse-service/internal/adapter/http"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/ipapi"
	kafkaadapter "github.com/couchcryptid/urbanpulse-service/internal/adapter/kafka"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/mapbox"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/minio"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/newsapi"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/nominatim"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/openweather"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/overpass"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/postgres"
	"github.com/couchcryptid/urbanpulse-service/internal/adapter/rediscache"
	"github.com/couchcryptid/urbanpulse-service/internal/config"
	"github.com/couchcryptid/urbanpulse-service/internal/domain"
	"github.com/couchcryptid/urbanpulse-service/internal/observability"
	"github.com/couchcryptid/urbanpulse-service/internal/pipeline"
	"github.com/couchcryptid/urbanpulse-service/internal/service"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	if err := run(cfg, logger); err != nil {
		logger.Error("service exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := postgres.New(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()
	readiness := []sharedobs.ReadinessChecker{store}

	weather, news, places := providers(cfg, metrics, logger)

	// Redis response cache (feature-flagged via REDIS_ADDR).
	if cfg.CacheEnabled() {
		cache, err := rediscache.NewStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL, metrics, logger)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Error("redis close error", "error", err)
			}
		}()
		if weather != nil {
			weather = rediscache.NewWeatherProvider(weather, cache)
		}
		if news != nil {
			news = rediscache.NewNewsProvider(news, cache)
		}
		places = rediscache.NewPlacesProvider(places, cache)
		readiness = append(readiness, cache)
		logger.Info("redis cache enabled", "addr", cfg.RedisAddr, "ttl", cfg.CacheTTL)
	} else {
		logger.Info("redis cache disabled")
	}

	// Incident events (feature-flagged via KAFKA_ENABLED).
	var publisher domain.IncidentPublisher
	if cfg.KafkaEnabled {
		p := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaIncidentTopic, metrics, logger)
		defer func() {
			if err := p.Close(); err != nil {
				logger.Error("kafka publisher close error", "error", err)
			}
		}()
		publisher = p
		logger.Info("incident events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaIncidentTopic)
	} else {
		logger.Info("incident events disabled")
	}

	// Incident photos (feature-flagged via MINIO_ENDPOINT).
	var photos domain.PhotoStore
	if cfg.PhotosEnabled() {
		ps, err := minio.NewPhotoStore(minio.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		}, logger)
		if err != nil {
			return fmt.Errorf("create photo store: %w", err)
		}
		if err := ps.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("ensure photo bucket: %w", err)
		}
		photos = ps
		readiness = append(readiness, ps)
		logger.Info("photo uploads enabled", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	} else {
		logger.Info("photo uploads disabled")
	}

	ipClient := ipapi.NewClient(cfg.ProviderTimeout, metrics, logger)
	resolver := domain.NewResolver(geocoder(cfg, metrics, logger), logger,
		domain.WithRegionFallback(ipClient.Provider("")),
		domain.WithFallbackLocation(domain.UserLocation{
			Lat:              cfg.FallbackLat,
			Lon:              cfg.FallbackLon,
			City:             cfg.FallbackCity,
			State:            cfg.FallbackState,
			Country:          cfg.FallbackCountry,
			FormattedAddress: fmt.Sprintf("%s, %s, %s", cfg.FallbackCity, cfg.FallbackState, cfg.FallbackCountry),
		}),
		domain.WithLocateTimeout(cfg.LocateTimeout),
	)

	api := httpadapter.API{
		Locations:   service.NewLocator(resolver, ipClient, metrics),
		Dashboard:   service.NewDashboard(weather, news, cfg.PageSize, metrics, logger),
		Discovery:   pipeline.NewDiscovery(places, cfg.DefaultRadiusKm, metrics, logger),
		Incidents:   service.NewIncidents(store, publisher, photos, cfg.DefaultRadiusKm, metrics, logger),
		Communities: service.NewCommunities(store, cfg.DefaultRadiusKm, cfg.PageSize, metrics, logger),
		Users:       service.NewUsers(store, cfg.PageSize, logger),
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, api, httpadapter.AllReady(readiness...), cfg.PageSize, metrics, logger)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
	return nil
}

// geocoder picks the configured backend. Both are wrapped in the LRU cache.
func geocoder(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) domain.Geocoder {
	var inner domain.Geocoder
	switch cfg.Geocoder {
	case config.GeocoderMapbox:
		inner = mapbox.NewClient(cfg.MapboxToken, cfg.ProviderTimeout, metrics, logger)
	default:
		inner = nominatim.NewClient(cfg.ProviderTimeout, metrics, logger)
	}
	logger.Info("geocoding enabled", "backend", cfg.Geocoder, "cache_size", cfg.GeocodeCacheSize)
	return mapbox.NewCachedGeocoder(inner, cfg.GeocodeCacheSize, metrics)
}

// providers builds the third-party data providers. Weather and news are nil
// without an API key, which makes the dashboard serve placeholders.
func providers(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) (domain.WeatherProvider, domain.NewsProvider, domain.PlacesProvider) {
	var (
		weather domain.WeatherProvider
		news    domain.NewsProvider
	)
	if cfg.OpenWeatherAPIKey != "" {
		weather = openweather.NewClient(cfg.OpenWeatherAPIKey, cfg.ProviderTimeout, metrics, logger)
	} else {
		logger.Info("weather provider disabled: OPENWEATHER_API_KEY not set")
	}
	if cfg.NewsAPIKey != "" {
		news = newsapi.NewClient(cfg.NewsAPIKey, cfg.ProviderTimeout, metrics, logger)
	} else {
		logger.Info("news provider disabled: NEWSAPI_KEY not set")
	}
	return weather, news, overpass.NewClient(cfg.ProviderTimeout, metrics, logger)
}
