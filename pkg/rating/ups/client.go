// Package ups provides integration with the UPS Rating API.
package ups

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const sourceName = "ups"

// Config holds UPS configuration.
type Config struct {
	AccessKey string
	Username  string
	Password  string
	BaseURL   string        // Empty uses the production endpoint
	Sandbox   bool          // Overrides BaseURL with the sandbox endpoint
	Timeout   time.Duration // Per-call bound; defaults to 10s
	UseMock   bool          // When true, uses a mock API client
}

// Client is the UPS rate source. It implements rating.RateSource and
// delegates API calls to the underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	logger    *otelzap.Logger
	tracer    trace.Tracer
}

// New creates a new UPS client. If cfg.UseMock is true, it uses a mock API
// client for testing; otherwise it uses the real HTTP API client against the
// sandbox or production endpoint.
func New(cfg Config, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		apiClient = NewMockAPIClient()
	} else {
		baseURL := cfg.BaseURL
		if cfg.Sandbox {
			baseURL = SandboxBaseURL
		}
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:   baseURL,
			AccessKey: cfg.AccessKey,
			Username:  cfg.Username,
			Password:  cfg.Password,
			Timeout:   cfg.Timeout,
		})
	}

	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// NewWithAPIClient creates a new UPS client with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		logger:    logger,
		tracer:    tracer,
	}
}

// Name returns the source identifier.
func (c *Client) Name() string {
	return sourceName
}

// GetRates returns UPS rates for a lane. A malformed response maps to
// rating.ErrMalformedResponse so the calculator treats it as total failure.
func (c *Client) GetRates(ctx context.Context, origin, dest rating.Address, weightLbs float64, service rating.ServiceCode) ([]rating.RateQuote, error) {
	c.logger.Debug("Getting UPS rates",
		zap.String("origin_zip", origin.PostalCode),
		zap.String("dest_zip", dest.PostalCode),
		zap.Float64("weight", weightLbs),
		zap.String("service", string(service)),
	)

	apiReq := &RateRequest{
		ServiceCode: serviceToAPI(service),
		Shipment: Shipment{
			Shipper:  Party{Name: origin.Company, Address: addressToAPI(origin)},
			ShipFrom: Party{Address: addressToAPI(origin)},
			ShipTo:   Party{Address: addressToAPI(dest)},
			Packages: []APIPackage{
				{
					PackagingType: ServiceSpec{Code: "02"}, // customer supplied
					PackageWeight: PackageWeight{
						UnitOfMeasurement: ServiceSpec{Code: "LBS"},
						Weight:            fmt.Sprintf("%.2f", weightLbs),
					},
				},
			},
		},
	}

	apiResp, err := c.apiClient.GetRates(ctx, apiReq)
	if err != nil {
		c.logger.Error("UPS API error", zap.Error(err))
		return nil, rating.NewRatingError(sourceName, "API_ERROR", "rate request failed").
			WithCause(err).
			WithRetryable(true)
	}

	quotes, err := rateResponseToQuotes(apiResp)
	if err != nil {
		c.logger.Error("UPS response unparseable", zap.Error(err))
		return nil, err
	}
	return quotes, nil
}

// ============================================================================
// Conversion helpers
// ============================================================================

func addressToAPI(addr rating.Address) APIAddress {
	var lines []string
	if addr.Street != "" {
		lines = append(lines, addr.Street)
	}
	return APIAddress{
		AddressLine:       lines,
		City:              addr.City,
		StateProvinceCode: addr.State,
		PostalCode:        addr.PostalCode,
		CountryCode:       addr.Country,
	}
}

// serviceToAPI maps service codes to UPS service numbers. Empty means shop
// all services.
func serviceToAPI(service rating.ServiceCode) string {
	switch service {
	case rating.ServiceGround:
		return "03"
	case rating.ServiceTwoDay:
		return "02"
	case rating.ServiceNextDay:
		return "01"
	case rating.ServiceThreeDay:
		return "12"
	case rating.ServiceSaver:
		return "13"
	default:
		return ""
	}
}

func serviceFromAPI(code string) (rating.ServiceCode, bool) {
	switch code {
	case "03":
		return rating.ServiceGround, true
	case "02":
		return rating.ServiceTwoDay, true
	case "01":
		return rating.ServiceNextDay, true
	case "12":
		return rating.ServiceThreeDay, true
	case "13":
		return rating.ServiceSaver, true
	default:
		return "", false
	}
}

func rateResponseToQuotes(resp *RateResponse) ([]rating.RateQuote, error) {
	if resp == nil || len(resp.RatedShipment) == 0 {
		return nil, fmt.Errorf("%w: empty rated shipment list", rating.ErrMalformedResponse)
	}

	quotes := make([]rating.RateQuote, 0, len(resp.RatedShipment))
	for _, rs := range resp.RatedShipment {
		service, ok := serviceFromAPI(rs.Service.Code)
		if !ok {
			// Unknown services are skipped, not fatal.
			continue
		}

		charge := rs.TotalCharges
		if rs.NegotiatedRates != nil && rs.NegotiatedRates.TotalCharge.MonetaryValue != "" {
			charge = rs.NegotiatedRates.TotalCharge
		}
		cost, err := strconv.ParseFloat(charge.MonetaryValue, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: bad monetary value %q", rating.ErrMalformedResponse, charge.MonetaryValue)
		}

		transit := service.TransitDays()
		if rs.GuaranteedDelivery != nil {
			if d, err := strconv.Atoi(rs.GuaranteedDelivery.BusinessDaysInTransit); err == nil && d > 0 {
				transit = d
			}
		}

		quotes = append(quotes, rating.RateQuote{
			Service:     service,
			Label:       service.Label(),
			Cost:        rating.Round2(cost),
			TransitDays: transit,
		})
	}

	if len(quotes) == 0 {
		return nil, fmt.Errorf("%w: no recognizable services", rating.ErrMalformedResponse)
	}
	return quotes, nil
}
