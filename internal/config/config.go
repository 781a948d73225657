package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.opentelemetry.io/otel/attribute"
)

// Config holds all configuration for the service.
type Config struct {
	// Server
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// UPS
	UPSAccessKey string        `envconfig:"UPS_ACCESS_KEY"`
	UPSUsername  string        `envconfig:"UPS_USERNAME"`
	UPSPassword  string        `envconfig:"UPS_PASSWORD"`
	UPSBaseURL   string        `envconfig:"UPS_BASE_URL"`
	UPSSandbox   bool          `envconfig:"UPS_SANDBOX" default:"false"`
	UPSTimeout   time.Duration `envconfig:"UPS_TIMEOUT" default:"10s"`
	UPSUseMock   bool          `envconfig:"UPS_USE_MOCK" default:"false"`

	// Rating
	CatalogPath string        `envconfig:"CATALOG_PATH" default:"catalog.yaml"`
	RateTTL     time.Duration `envconfig:"RATE_TTL" default:"30m"`

	// Telemetry
	OTELEnabled  bool   `envconfig:"OTEL_ENABLED" default:"true"`
	OTELEndpoint string `envconfig:"OTEL_ENDPOINT" default:"http://localhost:4318"`
	ServiceName  string `envconfig:"SERVICE_NAME" default:"ratewise"`
	Version      string `envconfig:"SERVICE_VERSION" default:"0.0.1"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &cfg, nil
}

// Attributes returns OpenTelemetry attributes for this configuration.
func (c *Config) Attributes() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service.name", c.ServiceName),
		attribute.String("service.version", c.Version),
		attribute.Bool("ups.sandbox", c.UPSSandbox),
		attribute.Bool("ups.mock", c.UPSUseMock),
	}
}
