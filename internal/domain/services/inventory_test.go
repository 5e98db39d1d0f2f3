package services

import (
	"context"
	"testing"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestQuantityForPrecedence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		stock    models.StockInfo
		fallback int
		want     int
	}{
		{
			name:     "out_of_stock обнуляет даже явное количество",
			stock:    models.StockInfo{Status: models.StockStatusOutOfStock, Quantity: intPtr(15)},
			fallback: 10,
			want:     0,
		},
		{
			name:     "явное количество имеет приоритет над значением по умолчанию",
			stock:    models.StockInfo{Status: models.StockStatusInStock, Quantity: intPtr(7)},
			fallback: 10,
			want:     7,
		},
		{
			name:     "явный ноль не заменяется значением по умолчанию",
			stock:    models.StockInfo{Status: models.StockStatusInStock, Quantity: intPtr(0)},
			fallback: 10,
			want:     0,
		},
		{
			name:     "отрицательное количество игнорируется",
			stock:    models.StockInfo{Status: models.StockStatusInStock, Quantity: intPtr(-3)},
			fallback: 10,
			want:     10,
		},
		{
			name:     "без количества используется значение по умолчанию",
			stock:    models.StockInfo{Status: models.StockStatusInStock},
			fallback: 10,
			want:     10,
		},
		{
			name:     "пустой статус трактуется как in_stock",
			stock:    models.StockInfo{},
			fallback: 5,
			want:     5,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, QuantityFor(tc.stock, tc.fallback))
		})
	}
}

func TestResolveLocationUsesFirstInventoryItem(t *testing.T) {
	t.Parallel()

	var requested string
	gw := &fakeGateway{
		InventoryItemLocationFn: func(inventoryItemID string) (string, error) {
			requested = inventoryItemID
			return "gid://shopify/Location/7", nil
		},
	}
	resolver := NewInventoryResolver(gw, nopLogger{})

	variants := []dto.VariantInfo{
		{ID: "v1"}, // без inventory item
		{ID: "v2", InventoryItemID: "gid://shopify/InventoryItem/2"},
		{ID: "v3", InventoryItemID: "gid://shopify/InventoryItem/3"},
	}

	locationID, err := resolver.ResolveLocation(context.Background(), testStore(), variants)
	require.NoError(t, err)
	require.Equal(t, "gid://shopify/Location/7", locationID)
	require.Equal(t, "gid://shopify/InventoryItem/2", requested)
}

func TestResolveLocationNoInventoryItems(t *testing.T) {
	t.Parallel()

	resolver := NewInventoryResolver(&fakeGateway{}, nopLogger{})

	_, err := resolver.ResolveLocation(context.Background(), testStore(), []dto.VariantInfo{{ID: "v1"}})
	require.ErrorIs(t, err, utils.ErrNoFulfillmentLocation)
}

func TestAssignInventoryCountMismatch(t *testing.T) {
	t.Parallel()

	resolver := NewInventoryResolver(&fakeGateway{}, nopLogger{})

	variants := []dto.VariantInfo{
		{ID: "v1", InventoryItemID: "i1"},
		{ID: "v2", InventoryItemID: "i2"},
	}
	descriptors := []models.VariantDescriptor{{Option1: "Red"}}

	err := resolver.AssignInventory(context.Background(), testStore(), variants, descriptors, 10)
	require.ErrorIs(t, err, utils.ErrVariantCountMismatch)
}

func TestAssignInventorySetsQuantitiesPerDescriptor(t *testing.T) {
	t.Parallel()

	var gotLocation string
	var gotQuantities []dto.InventoryQuantityInput
	gw := &fakeGateway{
		SetInventoryQuantitiesFn: func(locationID string, quantities []dto.InventoryQuantityInput) error {
			gotLocation = locationID
			gotQuantities = quantities
			return nil
		},
	}
	resolver := NewInventoryResolver(gw, nopLogger{})

	variants := []dto.VariantInfo{
		{ID: "v1", InventoryItemID: "i1"},
		{ID: "v2", InventoryItemID: "i2"},
		{ID: "v3", InventoryItemID: "i3"},
	}
	descriptors := []models.VariantDescriptor{
		{Stock: models.StockInfo{Quantity: intPtr(4)}},
		{Stock: models.StockInfo{Status: models.StockStatusOutOfStock}},
		{},
	}

	err := resolver.AssignInventory(context.Background(), testStore(), variants, descriptors, 10)
	require.NoError(t, err)
	require.Equal(t, "gid://shopify/Location/1", gotLocation)
	require.Len(t, gotQuantities, 3)
	require.Equal(t, "i1", gotQuantities[0].InventoryItemID)
	require.Equal(t, 4, gotQuantities[0].Quantity)
	require.Equal(t, 0, gotQuantities[1].Quantity)
	require.Equal(t, 10, gotQuantities[2].Quantity)
}

func TestAssignInventoryEmptyDescriptorsUsesDefault(t *testing.T) {
	t.Parallel()

	var gotQuantities []dto.InventoryQuantityInput
	gw := &fakeGateway{
		SetInventoryQuantitiesFn: func(locationID string, quantities []dto.InventoryQuantityInput) error {
			gotQuantities = quantities
			return nil
		},
	}
	resolver := NewInventoryResolver(gw, nopLogger{})

	variants := []dto.VariantInfo{{ID: "v1", InventoryItemID: "i1"}}

	err := resolver.AssignInventory(context.Background(), testStore(), variants, nil, 25)
	require.NoError(t, err)
	require.Len(t, gotQuantities, 1)
	require.Equal(t, 25, gotQuantities[0].Quantity)
}
