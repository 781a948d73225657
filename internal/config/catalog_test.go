package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopalloy/ratewise/internal/config"
	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
locations:
  - id: store-1
    name: Downtown Store
    kind: store
    address:
      street: 100 Main St
      city: Portland
      state: OR
      postal_code: "97201"
      country: US
    cutoff_time: "14:00"
    priority: 1
    active: true
    fallback_rates:
      ground: 9.99
  - id: ds-east
    name: Dropship East
    kind: dropship_warehouse
    site_code: EAST
    address:
      street: 1 Dock Rd
      city: Newark
      state: NJ
      postal_code: "07101"
      country: US
    active: true
profiles:
  - id: store
    name: Store Stock
    location_kinds: [store]
    local_pickup_enabled: true
default_profile_id: store
boxes:
  - id: medium
    name: Medium Box
    type: box
    outer_dims:
      length: 14
      width: 12
      height: 8
    max_weight: 35
    active: true
rules:
  - id: free-300
    name: Free shipping over $300
    priority: 10
    active: true
    conditions:
      type: all
      conditions:
        - field: order_total
          operator: ">="
          value: "300"
    action:
      free_shipping: true
      services: [ground]
fees:
  fragile_handling: 4.50
dim_divisor: 139
dropship_markup: 1.6
legacy_free_shipping_threshold: 150
`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCatalog(t *testing.T) {
	cfg, err := config.LoadCatalog(writeCatalog(t, sampleCatalog))
	require.NoError(t, err)

	assert.Len(t, cfg.Locations, 2)
	assert.Len(t, cfg.Profiles, 1)
	assert.Len(t, cfg.Boxes, 1)
	assert.Len(t, cfg.Rules, 1)
	assert.Equal(t, "store", cfg.DefaultProfileID)
	assert.Equal(t, 139.0, cfg.EffectiveDimDivisor())
	assert.Equal(t, 1.6, cfg.EffectiveDropshipMarkup())
	assert.Equal(t, 4.50, cfg.Fees.FragileHandling)

	require.NotNil(t, cfg.LegacyFreeShippingThreshold)
	assert.Equal(t, 150.0, *cfg.LegacyFreeShippingThreshold)

	loc, ok := cfg.LocationByID("store-1")
	require.True(t, ok)
	assert.Equal(t, 9.99, loc.FallbackRates[rating.ServiceGround])
}

func TestLoadCatalog_MissingFile(t *testing.T) {
	_, err := config.LoadCatalog(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadCatalog_InvalidYAML(t *testing.T) {
	_, err := config.LoadCatalog(writeCatalog(t, "locations: ["))
	assert.Error(t, err)
}

func TestLoadCatalog_InvalidRecord(t *testing.T) {
	// A dropship warehouse without a site code fails validation at load time.
	bad := `
locations:
  - id: ds-1
    name: Dropship
    kind: dropship_warehouse
    address:
      street: 1 Dock Rd
      city: Newark
      state: NJ
      postal_code: "07101"
      country: US
    active: true
`
	_, err := config.LoadCatalog(writeCatalog(t, bad))
	require.Error(t, err)
	assert.ErrorIs(t, err, rating.ErrInvalidRecord)
}
