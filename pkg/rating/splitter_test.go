package rating_test

import (
	"testing"

	"github.com/shopalloy/ratewise/pkg/rating"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplit_SingleProfileSinglePackage(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "a", Quantity: 1, UnitWeight: 2, ProfileID: "warehouse"},
			{ProductID: "b", Quantity: 2, UnitWeight: 1, ProfileID: "warehouse"},
		},
	}

	packages := splitter.Split(cart)
	require.Len(t, packages, 1)
	assert.Equal(t, "warehouse", packages[0].ProfileID)
	assert.Equal(t, rating.KindWarehouse, packages[0].LocationKind)
	assert.Equal(t, "wh-1", packages[0].LocationID)
	assert.Equal(t, usAddress("30301"), packages[0].Destination)
}

func TestSplit_ByProfile(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "a", Quantity: 1, UnitWeight: 2, ProfileID: "store"},
			{ProductID: "b", Quantity: 1, UnitWeight: 2, ProfileID: "warehouse"},
		},
	}

	packages := splitter.Split(cart)
	require.Len(t, packages, 2)
	assert.Equal(t, "store", packages[0].ProfileID)
	assert.Equal(t, "warehouse", packages[1].ProfileID)
}

func TestSplit_TubeIsolation(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "poster", Quantity: 1, UnitWeight: 1, ProfileID: "warehouse", RequiresTube: true},
			{ProductID: "book", Quantity: 1, UnitWeight: 2, ProfileID: "warehouse"},
		},
	}

	packages := splitter.Split(cart)
	require.Len(t, packages, 2)
	for _, pkg := range packages {
		tube := pkg.Items[0].RequiresTube
		for _, item := range pkg.Items {
			assert.Equal(t, tube, item.RequiresTube, "tube and non-tube items must not share a package")
		}
	}
}

func TestSplit_ShipsSeparately(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "lamp-1", Quantity: 1, UnitWeight: 6, ProfileID: "warehouse", ShipsSeparately: true},
			{ProductID: "lamp-2", Quantity: 1, UnitWeight: 6, ProfileID: "warehouse", ShipsSeparately: true},
			{ProductID: "book", Quantity: 1, UnitWeight: 2, ProfileID: "warehouse"},
		},
	}

	packages := splitter.Split(cart)
	require.Len(t, packages, 3)
	for _, pkg := range packages {
		if pkg.Items[0].ShipsSeparately {
			assert.Len(t, pkg.Items, 1)
		}
	}
}

func TestSplit_ItemConservation(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "a", Quantity: 3, UnitWeight: 1, ProfileID: "store"},
			{ProductID: "b", Quantity: 2, UnitWeight: 2, ProfileID: "warehouse", ShipsSeparately: true},
			{ProductID: "c", Quantity: 1, UnitWeight: 1, ProfileID: "warehouse", RequiresTube: true},
			{ProductID: "d", Quantity: 4, UnitWeight: 0.5},
		},
	}

	packages := splitter.Split(cart)
	var count int
	for _, pkg := range packages {
		count += pkg.ItemCount()
	}
	assert.Equal(t, cart.ItemCount(), count)
}

func TestSplit_DefaultAndTagProfiles(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			// No explicit profile, tag mapped to the store profile.
			{ProductID: "a", Quantity: 1, UnitWeight: 1, Tags: []string{"in-store-only"}},
			// No profile, no mapped tag: default profile applies.
			{ProductID: "b", Quantity: 1, UnitWeight: 1},
		},
	}

	packages := splitter.Split(cart)
	require.Len(t, packages, 2)
	assert.Equal(t, "store", packages[0].ProfileID)
	assert.Equal(t, "warehouse", packages[1].ProfileID)
}

func TestSplit_EligibilityFlags(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "a", Quantity: 1, UnitWeight: 1, ProfileID: "store"},
			{ProductID: "b", Quantity: 1, UnitWeight: 1, ProfileID: "warehouse"},
		},
	}

	packages := splitter.Split(cart)
	require.Len(t, packages, 2)

	store, warehouse := packages[0], packages[1]
	assert.True(t, store.LocalPickupEligible)
	assert.False(t, store.ShipToStoreEligible)
	assert.False(t, warehouse.LocalPickupEligible)
	assert.True(t, warehouse.ShipToStoreEligible)
}

func TestSplitForcedKind(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "a", Quantity: 1, UnitWeight: 1, ProfileID: "store"},
			{ProductID: "b", Quantity: 1, UnitWeight: 1, ProfileID: "warehouse"},
		},
	}

	packages := splitter.SplitForcedKind(cart, rating.KindStore)
	require.Len(t, packages, 2)
	for _, pkg := range packages {
		assert.Equal(t, rating.KindStore, pkg.LocationKind)
		assert.Equal(t, "store-1", pkg.LocationID)
	}
}

func TestSplit_LineTotal(t *testing.T) {
	splitter := rating.NewSplitter(testConfig())

	cart := rating.Cart{
		Destination: usAddress("30301"),
		Items: []rating.CartItem{
			{ProductID: "a", Quantity: 2, UnitWeight: 1, UnitPrice: 19.99, ProfileID: "warehouse"},
			{ProductID: "b", Quantity: 1, UnitWeight: 1, UnitPrice: 5.50, ProfileID: "warehouse"},
		},
	}

	packages := splitter.Split(cart)
	require.Len(t, packages, 1)
	assert.Equal(t, 45.48, packages[0].LineTotal)
}
