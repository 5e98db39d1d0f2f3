package services

import (
	"context"

	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
)

// nopLogger — логгер-заглушка для тестов
type nopLogger struct{}

func (nopLogger) Debug(msg string, args ...interface{}) {}
func (nopLogger) Info(msg string, args ...interface{})  {}
func (nopLogger) Warn(msg string, args ...interface{})  {}
func (nopLogger) Error(msg string, args ...interface{}) {}
func (nopLogger) Fatal(msg string, args ...interface{}) {}

func (nopLogger) DebugWithContext(ctx context.Context, msg string, args ...interface{}) {}
func (nopLogger) InfoWithContext(ctx context.Context, msg string, args ...interface{})  {}
func (nopLogger) WarnWithContext(ctx context.Context, msg string, args ...interface{})  {}
func (nopLogger) ErrorWithContext(ctx context.Context, msg string, args ...interface{}) {}

func (l nopLogger) WithFields(fields ...interfaces.LogField) interfaces.LoggerPort     { return l }
func (l nopLogger) WithField(key string, value interface{}) interfaces.LoggerPort      { return l }
func (l nopLogger) WithTenant(tenantID string) interfaces.LoggerPort                   { return l }
func (l nopLogger) WithTraceID(traceID string) interfaces.LoggerPort                   { return l }
func (nopLogger) Sync() error                                                          { return nil }

// fakeGateway — настраиваемая заглушка шлюза. Поле-функция nil означает
// поведение по умолчанию; Calls хранит имена вызванных операций по порядку.
type fakeGateway struct {
	Calls []string

	CreateProductFn          func(input dto.ProductCreateInput) (*dto.CreatedProduct, error)
	UploadMediaFn            func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error)
	ProductMediaFn           func(productID string) ([]dto.MediaRecord, error)
	BulkCreateVariantsFn     func(productID string, variants []dto.VariantCreateInput) ([]dto.VariantInfo, error)
	BulkUpdateVariantsFn     func(productID string, variants []dto.VariantUpdateInput) error
	InventoryItemLocationFn  func(inventoryItemID string) (string, error)
	SetInventoryQuantitiesFn func(locationID string, quantities []dto.InventoryQuantityInput) error
	UpdateProductFn          func(input dto.ProductUpdateInput) error
	DeleteProductFn          func(productID string) error
}

func (g *fakeGateway) record(name string) {
	g.Calls = append(g.Calls, name)
}

func (g *fakeGateway) CreateProduct(ctx context.Context, store dto.StoreConnection, input dto.ProductCreateInput) (*dto.CreatedProduct, error) {
	g.record("CreateProduct")
	if g.CreateProductFn != nil {
		return g.CreateProductFn(input)
	}
	return &dto.CreatedProduct{
		ID:     "gid://shopify/Product/1",
		Handle: "test-product",
		Variants: []dto.VariantInfo{
			{ID: "gid://shopify/ProductVariant/1", InventoryItemID: "gid://shopify/InventoryItem/1"},
		},
	}, nil
}

func (g *fakeGateway) UploadMedia(ctx context.Context, store dto.StoreConnection, productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
	g.record("UploadMedia")
	if g.UploadMediaFn != nil {
		return g.UploadMediaFn(productID, media)
	}
	records := make([]dto.MediaRecord, 0, len(media))
	for i, m := range media {
		records = append(records, dto.MediaRecord{
			ID:     "gid://shopify/MediaImage/" + string(rune('1'+i)),
			Status: dto.MediaStatusReady,
			Alt:    m.Alt,
		})
	}
	return records, nil
}

func (g *fakeGateway) ProductMedia(ctx context.Context, store dto.StoreConnection, productID string) ([]dto.MediaRecord, error) {
	g.record("ProductMedia")
	if g.ProductMediaFn != nil {
		return g.ProductMediaFn(productID)
	}
	return nil, nil
}

func (g *fakeGateway) BulkCreateVariants(ctx context.Context, store dto.StoreConnection, productID string, variants []dto.VariantCreateInput) ([]dto.VariantInfo, error) {
	g.record("BulkCreateVariants")
	if g.BulkCreateVariantsFn != nil {
		return g.BulkCreateVariantsFn(productID, variants)
	}
	infos := make([]dto.VariantInfo, 0, len(variants))
	for i, v := range variants {
		info := dto.VariantInfo{
			ID:              "gid://shopify/ProductVariant/created-" + string(rune('1'+i)),
			InventoryItemID: "gid://shopify/InventoryItem/created-" + string(rune('1'+i)),
		}
		if len(v.OptionValues) > 0 {
			info.Option1 = v.OptionValues[0].Name
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (g *fakeGateway) BulkUpdateVariants(ctx context.Context, store dto.StoreConnection, productID string, variants []dto.VariantUpdateInput) error {
	g.record("BulkUpdateVariants")
	if g.BulkUpdateVariantsFn != nil {
		return g.BulkUpdateVariantsFn(productID, variants)
	}
	return nil
}

func (g *fakeGateway) InventoryItemLocation(ctx context.Context, store dto.StoreConnection, inventoryItemID string) (string, error) {
	g.record("InventoryItemLocation")
	if g.InventoryItemLocationFn != nil {
		return g.InventoryItemLocationFn(inventoryItemID)
	}
	return "gid://shopify/Location/1", nil
}

func (g *fakeGateway) SetInventoryQuantities(ctx context.Context, store dto.StoreConnection, locationID string, quantities []dto.InventoryQuantityInput) error {
	g.record("SetInventoryQuantities")
	if g.SetInventoryQuantitiesFn != nil {
		return g.SetInventoryQuantitiesFn(locationID, quantities)
	}
	return nil
}

func (g *fakeGateway) UpdateProduct(ctx context.Context, store dto.StoreConnection, input dto.ProductUpdateInput) error {
	g.record("UpdateProduct")
	if g.UpdateProductFn != nil {
		return g.UpdateProductFn(input)
	}
	return nil
}

func (g *fakeGateway) DeleteProduct(ctx context.Context, store dto.StoreConnection, productID string) error {
	g.record("DeleteProduct")
	if g.DeleteProductFn != nil {
		return g.DeleteProductFn(productID)
	}
	return nil
}

func testStore() dto.StoreConnection {
	return dto.StoreConnection{
		Domain:      "test-shop.myshopify.com",
		AccessToken: "shpat_test",
		APIVersion:  "2024-10",
	}
}
