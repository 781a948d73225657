package ups

import (
	"context"
)

// APIClient defines the interface for UPS Rating API operations.
// This abstraction allows for mock implementations during testing
// and real implementations in production.
type APIClient interface {
	// GetRates fetches shipping rates from the UPS Rating API.
	GetRates(ctx context.Context, req *RateRequest) (*RateResponse, error)
}

// ============================================================================
// API Request/Response Types (match UPS Rating API JSON structure)
// ============================================================================

// RateRequest represents a UPS rate request.
// POST /rating/{version}/Shop or /rating/{version}/Rate
type RateRequest struct {
	Shipment Shipment `json:"Shipment"`

	// ServiceCode restricts the request to one service; empty shops all.
	ServiceCode string `json:"-"`
}

// Shipment holds the lane and package details.
type Shipment struct {
	Shipper     Party        `json:"Shipper"`
	ShipTo      Party        `json:"ShipTo"`
	ShipFrom    Party        `json:"ShipFrom"`
	Service     *ServiceSpec `json:"Service,omitempty"`
	Packages    []APIPackage `json:"Package"`
	RateInfo    *RateInfo    `json:"ShipmentRatingOptions,omitempty"`
	Description string       `json:"Description,omitempty"`
}

// Party is a shipper or consignee.
type Party struct {
	Name    string     `json:"Name,omitempty"`
	Address APIAddress `json:"Address"`
}

// APIAddress is the UPS address shape.
type APIAddress struct {
	AddressLine       []string `json:"AddressLine,omitempty"`
	City              string   `json:"City"`
	StateProvinceCode string   `json:"StateProvinceCode"`
	PostalCode        string   `json:"PostalCode"`
	CountryCode       string   `json:"CountryCode"`
}

// ServiceSpec names one UPS service.
type ServiceSpec struct {
	Code        string `json:"Code"`
	Description string `json:"Description,omitempty"`
}

// RateInfo toggles negotiated rates.
type RateInfo struct {
	NegotiatedRatesIndicator string `json:"NegotiatedRatesIndicator,omitempty"`
}

// APIPackage is one rated package.
type APIPackage struct {
	PackagingType ServiceSpec    `json:"PackagingType"`
	Dimensions    *APIDimensions `json:"Dimensions,omitempty"`
	PackageWeight PackageWeight  `json:"PackageWeight"`
}

// APIDimensions are package measurements.
type APIDimensions struct {
	UnitOfMeasurement ServiceSpec `json:"UnitOfMeasurement"`
	Length            string      `json:"Length"`
	Width             string      `json:"Width"`
	Height            string      `json:"Height"`
}

// PackageWeight is the billable weight.
type PackageWeight struct {
	UnitOfMeasurement ServiceSpec `json:"UnitOfMeasurement"`
	Weight            string      `json:"Weight"`
}

// RateResponse represents the UPS rate response.
type RateResponse struct {
	Response      ResponseStatus  `json:"Response"`
	RatedShipment []RatedShipment `json:"RatedShipment"`
}

// ResponseStatus carries the API-level status.
type ResponseStatus struct {
	ResponseStatus ServiceSpec   `json:"ResponseStatus"`
	Alert          []ServiceSpec `json:"Alert,omitempty"`
}

// RatedShipment is one priced service option.
type RatedShipment struct {
	Service            ServiceSpec    `json:"Service"`
	TotalCharges       Charge         `json:"TotalCharges"`
	NegotiatedRates    *Negotiated    `json:"NegotiatedRateCharges,omitempty"`
	GuaranteedDelivery *Guaranteed    `json:"GuaranteedDelivery,omitempty"`
	BillingWeight      *BillingWeight `json:"BillingWeight,omitempty"`
}

// Charge is a monetary value.
type Charge struct {
	CurrencyCode  string `json:"CurrencyCode"`
	MonetaryValue string `json:"MonetaryValue"`
}

// Negotiated wraps account-negotiated charges.
type Negotiated struct {
	TotalCharge Charge `json:"TotalCharge"`
}

// Guaranteed carries the delivery commitment.
type Guaranteed struct {
	BusinessDaysInTransit string `json:"BusinessDaysInTransit"`
	DeliveryByTime        string `json:"DeliveryByTime,omitempty"`
}

// BillingWeight echoes the weight the shipment was rated at.
type BillingWeight struct {
	UnitOfMeasurement ServiceSpec `json:"UnitOfMeasurement"`
	Weight            string      `json:"Weight"`
}

// APIError represents an error from the UPS API.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

// errorEnvelope is the UPS error response body.
type errorEnvelope struct {
	Response struct {
		Errors []APIError `json:"errors"`
	} `json:"response"`
}
