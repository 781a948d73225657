package main

import (
	"context"

	"github.com/shopalloy/ratewise/internal/config"
	"github.com/shopalloy/ratewise/internal/telemetry"
	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/shopalloy/ratewise/pkg/rating/ups"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (trace.Tracer, func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return nil, func(context.Context) error { return nil }, nil
	}
	return telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
}

func loadCatalog(cfg *config.Config, logger *otelzap.Logger) (*rating.Configuration, error) {
	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		return nil, err
	}
	if rating.MigrateLegacyThreshold(catalog) {
		logger.Info("Migrated legacy free-shipping threshold into rule list")
	}
	return catalog, nil
}

// initEngine wires the rate source chain (UPS client, circuit breaker, TTL
// cache) into the rating engine.
func initEngine(cfg *config.Config, catalog *rating.Configuration, logger *otelzap.Logger, tracer trace.Tracer, metrics *telemetry.Metrics) *rating.Engine {
	upsClient := ups.New(ups.Config{
		AccessKey: cfg.UPSAccessKey,
		Username:  cfg.UPSUsername,
		Password:  cfg.UPSPassword,
		BaseURL:   cfg.UPSBaseURL,
		Sandbox:   cfg.UPSSandbox,
		Timeout:   cfg.UPSTimeout,
		UseMock:   cfg.UPSUseMock,
	}, logger, tracer)

	if cfg.UPSUseMock {
		logger.Warn("UPS mock mode enabled", zap.String("source", upsClient.Name()))
	}

	cache := rating.NewCache()
	cached := rating.NewCachedRateSource(rating.NewBreakerRateSource(upsClient), cache, cfg.RateTTL)
	cached.Hit = metrics.CacheHits.Inc
	cached.Miss = metrics.CacheMisses.Inc

	engine := rating.NewEngine(catalog, cached, cache, logger, tracer)
	engine.Calculator().FallbackUsed = metrics.FallbackRates.Inc
	return engine
}
