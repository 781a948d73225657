package server_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopalloy/ratewise/internal/server"
	"github.com/shopalloy/ratewise/internal/telemetry"
	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/shopalloy/ratewise/pkg/rating/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Prometheus collectors register globally, so every test shares one set.
var testMetrics = telemetry.NewMetrics()

func serverConfig() *rating.Configuration {
	return &rating.Configuration{
		Locations: []rating.Location{
			{
				ID: "store-1", Name: "Downtown Store", Kind: rating.KindStore,
				Address: rating.Address{Street: "100 Main St", City: "Portland", State: "OR", PostalCode: "97201", Country: "US"},
				Active:  true, Priority: 1, CutoffTime: "14:00",
			},
			{
				ID: "wh-1", Name: "Main Warehouse", Kind: rating.KindWarehouse,
				Address: rating.Address{Street: "200 Dock Rd", City: "Chicago", State: "IL", PostalCode: "60601", Country: "US"},
				Active:  true, Priority: 1, ProcessingDays: 1,
			},
		},
		Profiles: []rating.ShippingProfile{
			{ID: "store", Name: "Store Stock", LocationKinds: []rating.LocationKind{rating.KindStore}},
			{ID: "warehouse", Name: "Warehouse Stock", LocationKinds: []rating.LocationKind{rating.KindWarehouse}},
		},
		DefaultProfileID: "warehouse",
		Boxes: []rating.Box{
			{ID: "medium", Name: "Medium Box", Type: rating.BoxStandard,
				OuterDims: rating.Dimensions{Length: 14, Width: 12, Height: 8}, MaxWeight: 35, Active: true},
		},
	}
}

func newTestServer(t *testing.T, src rating.RateSource) *server.Server {
	t.Helper()
	logger := otelzap.New(zap.NewNop())
	engine := rating.NewEngine(serverConfig(), src, rating.NewCache(), logger, nil)
	return server.New(server.Config{Port: 0}, engine, logger, testMetrics)
}

func postJSON(t *testing.T, handler http.Handler, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func testCart(items ...rating.CartItem) rating.Cart {
	return rating.Cart{
		Items: items,
		Destination: rating.Address{
			Street: "1 Peachtree St", City: "Atlanta", State: "GA", PostalCode: "30301", Country: "US",
		},
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, mock.New())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, mock.New())

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestQuoteEndpoint(t *testing.T) {
	srv := newTestServer(t, mock.New())

	cart := testCart(rating.CartItem{ProductID: "a", Quantity: 1, UnitWeight: 10, UnitPrice: 50})
	w := postJSON(t, srv.Handler(), "/api/v1/quotes", cart)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Packages []struct {
			ProfileID string `json:"profileId"`
			Quotes    []struct {
				Service string  `json:"service"`
				Cost    float64 `json:"cost"`
			} `json:"quotes"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Packages, 1)
	assert.Equal(t, "warehouse", resp.Packages[0].ProfileID)
	assert.NotEmpty(t, resp.Packages[0].Quotes)
}

func TestQuoteEndpoint_EmptyCart(t *testing.T) {
	srv := newTestServer(t, mock.New())

	w := postJSON(t, srv.Handler(), "/api/v1/quotes", testCart())
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteEndpoint_MalformedBody(t *testing.T) {
	srv := newTestServer(t, mock.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRoutingOptionsEndpoint_MixedCart(t *testing.T) {
	srv := newTestServer(t, mock.New())

	cart := testCart(
		rating.CartItem{ProductID: "a", Quantity: 1, UnitWeight: 5, UnitPrice: 30, ProfileID: "store"},
		rating.CartItem{ProductID: "b", Quantity: 1, UnitWeight: 3, UnitPrice: 20, ProfileID: "warehouse"},
	)
	w := postJSON(t, srv.Handler(), "/api/v1/routing-options", cart)

	require.Equal(t, http.StatusOK, w.Code)

	var decision rating.RoutingDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Len(t, decision.Plans, 2)
}

func TestRoutingOptionsEndpoint_NoChoice(t *testing.T) {
	srv := newTestServer(t, mock.New())

	cart := testCart(rating.CartItem{ProductID: "a", Quantity: 1, UnitWeight: 5, UnitPrice: 30})
	w := postJSON(t, srv.Handler(), "/api/v1/routing-options", cart)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestValidateLocationEndpoint(t *testing.T) {
	srv := newTestServer(t, mock.New())

	valid := rating.Location{
		ID: "wh-2", Name: "Second Warehouse", Kind: rating.KindWarehouse,
		Address: rating.Address{Street: "1 Dock Rd", City: "Reno", State: "NV", PostalCode: "89501", Country: "US"},
	}
	w := postJSON(t, srv.Handler(), "/api/v1/admin/validate/location", valid)
	assert.Equal(t, http.StatusOK, w.Code)

	invalid := valid
	invalid.Kind = rating.KindDropshipWarehouse // missing site code
	w = postJSON(t, srv.Handler(), "/api/v1/admin/validate/location", invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestValidateProfileEndpoint(t *testing.T) {
	srv := newTestServer(t, mock.New())

	invalid := rating.ShippingProfile{
		ID: "p", Name: "P",
		LocationKinds:      []rating.LocationKind{rating.KindWarehouse},
		LocalPickupEnabled: true, // pickup requires a store kind
	}
	w := postJSON(t, srv.Handler(), "/api/v1/admin/validate/profile", invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestValidateBoxEndpoint(t *testing.T) {
	srv := newTestServer(t, mock.New())

	valid := rating.Box{
		ID: "b", Name: "B", Type: rating.BoxStandard,
		OuterDims: rating.Dimensions{Length: 10, Width: 8, Height: 4}, MaxWeight: 20,
	}
	w := postJSON(t, srv.Handler(), "/api/v1/admin/validate/box", valid)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestValidateRuleEndpoint(t *testing.T) {
	srv := newTestServer(t, mock.New())

	invalid := rating.Rule{
		ID: "r", Name: "R", Active: true,
		Conditions: rating.ConditionGroup{
			Type: rating.ConditionAll,
			Conditions: []rating.Condition{
				{Field: "moon_phase", Operator: ">=", Value: "1"},
			},
		},
	}
	w := postJSON(t, srv.Handler(), "/api/v1/admin/validate/rule", invalid)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
