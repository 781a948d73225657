package rating_test

import (
	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func testLogger() *otelzap.Logger {
	return otelzap.New(zap.NewNop())
}

func usAddress(zip string) rating.Address {
	return rating.Address{
		Street:     "100 Main St",
		City:       "Portland",
		State:      "OR",
		PostalCode: zip,
		Country:    "US",
	}
}

// testConfig covers every location kind, a pickup-enabled store profile, a
// ship-to-store warehouse profile, and two dropship sites.
func testConfig() *rating.Configuration {
	return &rating.Configuration{
		Locations: []rating.Location{
			{
				ID: "store-1", Name: "Downtown Store", Kind: rating.KindStore,
				Address: usAddress("97201"), CutoffTime: "14:00", Priority: 1, Active: true,
				FallbackRates: map[rating.ServiceCode]float64{
					rating.ServiceGround:  9.99,
					rating.ServiceTwoDay:  19.99,
					rating.ServiceNextDay: 34.99,
				},
			},
			{
				ID: "wh-1", Name: "Main Warehouse", Kind: rating.KindWarehouse,
				Address: usAddress("60601"), ProcessingDays: 2, Priority: 1, Active: true,
				FallbackRates: map[rating.ServiceCode]float64{
					rating.ServiceGround: 11.50,
					rating.ServiceTwoDay: 22.00,
				},
			},
			{
				ID: "ds-east", Name: "Dropship East", Kind: rating.KindDropshipWarehouse,
				SiteCode: "EAST", Address: usAddress("10001"), Priority: 1, Active: true,
			},
			{
				ID: "ds-west", Name: "Dropship West", Kind: rating.KindDropshipWarehouse,
				SiteCode: "WEST", Address: usAddress("89101"), Priority: 2, Active: true,
			},
		},
		Profiles: []rating.ShippingProfile{
			{
				ID: "store", Name: "Store Stock",
				LocationKinds:      []rating.LocationKind{rating.KindStore},
				LocalPickupEnabled: true,
			},
			{
				ID: "warehouse", Name: "Warehouse Stock",
				LocationKinds:      []rating.LocationKind{rating.KindWarehouse, rating.KindStore},
				ShipToStoreEnabled: true,
				ShipToStoreMargin:  rating.Margin{Type: rating.MarginFlat, Value: 5},
				ShipToStoreLabel:   "Deliver to Store",
			},
			{
				ID: "dropship", Name: "Dropship",
				LocationKinds: []rating.LocationKind{rating.KindDropshipWarehouse},
			},
		},
		DefaultProfileID: "warehouse",
		TagProfiles:      map[string]string{"in-store-only": "store"},
		Boxes:            testBoxes(),
		LocationGroups:   map[string][]string{"retail": {"store-1"}},
		Fees: rating.FeeSchedule{
			FragileHandling:     4.50,
			SignatureRequired:   5.25,
			OverweightSurcharge: 12.00,
		},
	}
}
