package ups

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnGetRates func(ctx context.Context, req *RateRequest) (*RateResponse, error)
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Default mock tariff: cost per pound and transit days by UPS service code.
var mockTariff = []struct {
	Code    string
	Name    string
	PerLb   float64
	Minimum float64
	Transit string
}{
	{"03", "UPS Ground", 1.15, 9.25, "5"},
	{"12", "UPS 3 Day Select", 1.85, 13.50, "3"},
	{"02", "UPS 2nd Day Air", 2.70, 18.75, "2"},
	{"13", "UPS Next Day Air Saver", 3.60, 26.00, "1"},
	{"01", "UPS Next Day Air", 4.25, 31.40, "1"},
}

// GetRates returns deterministic mock rates proportional to weight.
func (m *MockAPIClient) GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error) {
	if m.SimulateLatency > 0 {
		time.Sleep(m.SimulateLatency)
	}

	if m.SimulateErrors {
		return nil, &APIError{Code: "MOCK_ERROR", Message: "Simulated API error"}
	}

	if m.OnGetRates != nil {
		return m.OnGetRates(ctx, req)
	}

	var weight float64
	for _, pkg := range req.Shipment.Packages {
		w, _ := strconv.ParseFloat(pkg.PackageWeight.Weight, 64)
		weight += w
	}

	var rated []RatedShipment
	for _, t := range mockTariff {
		if req.ServiceCode != "" && req.ServiceCode != t.Code {
			continue
		}
		cost := t.PerLb * weight
		if cost < t.Minimum {
			cost = t.Minimum
		}
		rated = append(rated, RatedShipment{
			Service: ServiceSpec{Code: t.Code, Description: t.Name},
			TotalCharges: Charge{
				CurrencyCode:  "USD",
				MonetaryValue: fmt.Sprintf("%.2f", cost),
			},
			GuaranteedDelivery: &Guaranteed{BusinessDaysInTransit: t.Transit},
		})
	}

	return &RateResponse{
		Response: ResponseStatus{
			ResponseStatus: ServiceSpec{Code: "1", Description: "Success"},
		},
		RatedShipment: rated,
	}, nil
}
