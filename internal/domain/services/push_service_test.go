package services

import (
	"context"
	"errors"
	"testing"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/stretchr/testify/require"
)

func newTestPushService(gw *fakeGateway) *PushService {
	poller := newTestPoller(gw, 5)
	inventory := NewInventoryResolver(gw, nopLogger{})
	return NewPushService(gw, poller, inventory, nopLogger{})
}

// testProduct возвращает товар 2x2 с четырьмя вариантами и изображениями
func testProduct() *models.SourceProduct {
	return &models.SourceProduct{
		ID:          "p1",
		TenantID:    "t1",
		Title:       "Test T-shirt",
		Description: "Обычная футболка",
		Vendor:      "Acme",
		Category:    "Apparel",
		Tags:        []string{"new"},
		Options:     colorSizeOptions(),
		Variants: []models.VariantDescriptor{
			{Option1: "Red", Option2: "S", Price: "10.00", SKU: "TS-R-S", Stock: models.StockInfo{Quantity: intPtr(5)}},
			{Option1: "Red", Option2: "M", Price: "10.00", SKU: "TS-R-M", Stock: models.StockInfo{Quantity: intPtr(3)}},
			{Option1: "Blue", Option2: "S", Price: "12.00", SKU: "TS-B-S", Stock: models.StockInfo{Status: models.StockStatusOutOfStock}},
			{Option1: "Blue", Option2: "M", Price: "12.00", SKU: "TS-B-M", ImageURL: "https://cdn.example.com/blue.jpg"},
		},
		PrimaryImage: "https://cdn.example.com/main.jpg",
		Images:       []string{"https://cdn.example.com/blue.jpg"},
	}
}

func TestPushProductHappyPathWithPublish(t *testing.T) {
	t.Parallel()

	var productUpdates []dto.ProductUpdateInput
	gw := &fakeGateway{
		UpdateProductFn: func(input dto.ProductUpdateInput) error {
			productUpdates = append(productUpdates, input)
			return nil
		},
	}
	svc := newTestPushService(gw)

	product := testProduct()
	result, err := svc.PushProduct(context.Background(), testStore(), product, models.PushOptions{
		Publish:         true,
		DefaultQuantity: 10,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Equal(t, "gid://shopify/Product/1", result.ShopifyProductID)
	require.Equal(t, "test-product", result.Handle)
	require.Len(t, result.VariantIDs, 4)
	require.Empty(t, result.Errors)
	require.False(t, result.CompletedAt.IsZero())

	require.Len(t, result.Steps, 7)
	for _, sr := range result.Steps {
		require.True(t, sr.Success, "шаг %d (%s) должен быть успешным", sr.Step, sr.Name)
	}

	require.Equal(t, []string{
		"CreateProduct",
		"UploadMedia",
		"BulkCreateVariants",
		"BulkUpdateVariants",
		"InventoryItemLocation",
		"SetInventoryQuantities",
		"UpdateProduct", // метаданные
		"UpdateProduct", // активация
	}, gw.Calls)

	// Шаг 6 несет полное описание и SEO-пару, шаг 7 — только статус
	require.Len(t, productUpdates, 2)
	require.Equal(t, product.Description, productUpdates[0].DescriptionHTML)
	require.Equal(t, product.Title, productUpdates[0].SEOTitle)
	require.Equal(t, product.Description, productUpdates[0].SEODescription)
	require.Empty(t, productUpdates[0].Status)
	require.Equal(t, dto.ProductStatusActive, productUpdates[1].Status)
}

func TestPushProductWithoutPublishStaysDraft(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{
		DefaultQuantity: 10,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Steps, 6)

	updates := 0
	for _, call := range gw.Calls {
		if call == "UpdateProduct" {
			updates++
		}
	}
	require.Equal(t, 1, updates, "без публикации UpdateProduct вызывается только для метаданных")
}

func TestPushProductExcludesAutoCreatedVariant(t *testing.T) {
	t.Parallel()

	var bulkInputs []dto.VariantCreateInput
	gw := &fakeGateway{
		BulkCreateVariantsFn: func(productID string, variants []dto.VariantCreateInput) ([]dto.VariantInfo, error) {
			bulkInputs = variants
			infos := make([]dto.VariantInfo, 0, len(variants))
			for i, v := range variants {
				infos = append(infos, dto.VariantInfo{
					ID:              "created-" + string(rune('1'+i)),
					InventoryItemID: "item-" + string(rune('1'+i)),
					Option1:         v.OptionValues[0].Name,
				})
			}
			return infos, nil
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{DefaultQuantity: 10})
	require.NoError(t, err)
	require.True(t, result.Success)

	// Комбинация первых значений (Red, S) создается платформой автоматически
	require.Len(t, bulkInputs, 3)
	for _, input := range bulkInputs {
		require.Len(t, input.OptionValues, 2)
		require.False(t, input.OptionValues[0].Name == "Red" && input.OptionValues[1].Name == "S")
		require.Equal(t, "Color", input.OptionValues[0].OptionName)
		require.Equal(t, "Size", input.OptionValues[1].OptionName)
	}

	// Автоматический вариант возвращается на свою позицию: порядок
	// идентификаторов соответствует порядку дескрипторов
	require.Equal(t, "gid://shopify/ProductVariant/1", result.VariantIDs[0])
	require.Len(t, result.VariantIDs, 4)
}

func TestPushProductMediaUploadErrorIsFatal(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		UploadMediaFn: func(productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
			return nil, errors.New("network unreachable")
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{DefaultQuantity: 10})
	require.Error(t, err)
	require.False(t, result.Success)
	require.Equal(t, stepUploadMedia, result.FailedStep())

	// Частичные идентификаторы сохраняются даже при фатальном сбое
	require.Equal(t, "gid://shopify/Product/1", result.ShopifyProductID)
	require.Equal(t, "test-product", result.Handle)

	require.NotContains(t, gw.Calls, "BulkCreateVariants")
	require.NotContains(t, gw.Calls, "SetInventoryQuantities")
}

func TestPushProductReconcileFailureIsWarning(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		BulkUpdateVariantsFn: func(productID string, variants []dto.VariantUpdateInput) error {
			return errors.New("throttled")
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{DefaultQuantity: 10})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "reconcile variants")

	// Нефатальный шаг помечается успешным, но текст ошибки сохраняется
	var reconcileStep models.StepResult
	for _, sr := range result.Steps {
		if sr.Step == stepReconcileVariants {
			reconcileStep = sr
		}
	}
	require.True(t, reconcileStep.Success)
	require.NotEmpty(t, reconcileStep.Error)

	// Выгрузка продолжилась: остатки назначены
	require.Contains(t, gw.Calls, "SetInventoryQuantities")
}

func TestPushProductMetadataFailureIsWarning(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		UpdateProductFn: func(input dto.ProductUpdateInput) error {
			if input.Status == "" {
				return errors.New("seo rejected")
			}
			return nil
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{
		Publish:         true,
		DefaultQuantity: 10,
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.Warnings, 1)
	require.Contains(t, result.Warnings[0], "update metadata")
}

func TestPushProductInventoryFailureIsFatal(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		SetInventoryQuantitiesFn: func(locationID string, quantities []dto.InventoryQuantityInput) error {
			return errors.New("location disabled")
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{DefaultQuantity: 10})
	require.Error(t, err)
	require.False(t, result.Success)
	require.Equal(t, stepAssignInventory, result.FailedStep())
	require.Len(t, result.VariantIDs, 4, "идентификаторы вариантов сохраняются при сбое остатков")
	require.NotContains(t, gw.Calls, "DeleteProduct", "политика по умолчанию сохраняет частичный товар")
}

func TestPushProductPartialPolicyDelete(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		SetInventoryQuantitiesFn: func(locationID string, quantities []dto.InventoryQuantityInput) error {
			return errors.New("location disabled")
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{
		DefaultQuantity: 10,
		PartialPolicy:   models.PartialPolicyDelete,
	})
	require.Error(t, err)
	require.False(t, result.Success)
	require.Contains(t, gw.Calls, "DeleteProduct")
	// Идентификатор остается в результате и после удаления: след аудита
	require.Equal(t, "gid://shopify/Product/1", result.ShopifyProductID)
}

func TestPushProductCleanupFailureIsWarning(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		SetInventoryQuantitiesFn: func(locationID string, quantities []dto.InventoryQuantityInput) error {
			return errors.New("location disabled")
		},
		DeleteProductFn: func(productID string) error {
			return errors.New("delete throttled")
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{
		DefaultQuantity: 10,
		PartialPolicy:   models.PartialPolicyDelete,
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "location disabled", "ошибка очистки не подменяет исходную причину")

	found := false
	for _, w := range result.Warnings {
		if w != "" && len(w) >= 7 && w[:7] == "cleanup" {
			found = true
		}
	}
	require.True(t, found, "сбой очистки фиксируется предупреждением")
}

func TestPushProductCreateFailureSkipsCleanup(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{
		CreateProductFn: func(input dto.ProductCreateInput) (*dto.CreatedProduct, error) {
			return nil, errors.New("invalid title")
		},
	}
	svc := newTestPushService(gw)

	result, err := svc.PushProduct(context.Background(), testStore(), testProduct(), models.PushOptions{
		PartialPolicy: models.PartialPolicyDelete,
	})
	require.Error(t, err)
	require.False(t, result.Success)
	require.Empty(t, result.ShopifyProductID)
	require.NotContains(t, gw.Calls, "DeleteProduct", "удалять нечего: товар не создан")
}

func TestPushProductWithoutVariantDescriptors(t *testing.T) {
	t.Parallel()

	var gotQuantities []dto.InventoryQuantityInput
	gw := &fakeGateway{
		SetInventoryQuantitiesFn: func(locationID string, quantities []dto.InventoryQuantityInput) error {
			gotQuantities = quantities
			return nil
		},
	}
	svc := newTestPushService(gw)

	product := &models.SourceProduct{
		ID:       "p2",
		TenantID: "t1",
		Title:    "Simple product",
	}

	result, err := svc.PushProduct(context.Background(), testStore(), product, models.PushOptions{DefaultQuantity: 33})
	require.NoError(t, err)
	require.True(t, result.Success)

	// Без дескрипторов товар живет на автоматически созданном варианте
	require.NotContains(t, gw.Calls, "BulkCreateVariants")
	require.NotContains(t, gw.Calls, "BulkUpdateVariants")
	require.Len(t, result.VariantIDs, 1)
	require.Len(t, gotQuantities, 1)
	require.Equal(t, 33, gotQuantities[0].Quantity)
}

func TestPushProductValidation(t *testing.T) {
	t.Parallel()

	svc := newTestPushService(&fakeGateway{})

	_, err := svc.PushProduct(context.Background(), testStore(), nil, models.PushOptions{})
	require.ErrorIs(t, err, utils.ErrInvalidProductId)

	_, err = svc.PushProduct(context.Background(), testStore(), &models.SourceProduct{}, models.PushOptions{})
	require.ErrorIs(t, err, utils.ErrInvalidProductId)

	_, err = svc.PushProduct(context.Background(), dto.StoreConnection{}, testProduct(), models.PushOptions{})
	require.ErrorIs(t, err, utils.ErrStoreNotConfigured)
}

func TestPushProductReportsProgress(t *testing.T) {
	t.Parallel()

	gw := &fakeGateway{}
	svc := newTestPushService(gw)

	var steps []int
	opts := models.PushOptions{
		Publish:         true,
		DefaultQuantity: 10,
		OnProgress: func(step int, name, detail string) {
			steps = append(steps, step)
		},
	}

	_, err := svc.PushProduct(context.Background(), testStore(), testProduct(), opts)
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 7}, steps)
}
