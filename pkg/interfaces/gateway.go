package interfaces

import (
	"context"

	"github.com/athebyme/shopsync-service/pkg/dto"
)

// GatewayPort определяет границу удаленных операций с платформой.
// Каждый метод — один именованный удаленный вызов; реализация сама решает,
// какой транспорт использовать (GraphQL, REST и т.д.). Транспортные сбои
// и ошибки валидации полей нормализуются реализацией в обычные ошибки.
type GatewayPort interface {
	// CreateProduct создает карточку товара с опциями.
	// Платформа автоматически материализует один вариант из первых значений опций.
	CreateProduct(ctx context.Context, store dto.StoreConnection, input dto.ProductCreateInput) (*dto.CreatedProduct, error)

	// UploadMedia загружает пакет изображений к товару.
	// Обработка на стороне платформы асинхронная: возвращенные записи
	// могут еще не находиться в терминальном статусе.
	UploadMedia(ctx context.Context, store dto.StoreConnection, productID string, media []dto.MediaInput) ([]dto.MediaRecord, error)

	// ProductMedia возвращает текущее состояние медиаколлекции товара
	ProductMedia(ctx context.Context, store dto.StoreConnection, productID string) ([]dto.MediaRecord, error)

	// BulkCreateVariants создает недостающие варианты одним вызовом.
	// Порядок результата соответствует порядку входа.
	BulkCreateVariants(ctx context.Context, store dto.StoreConnection, productID string, variants []dto.VariantCreateInput) ([]dto.VariantInfo, error)

	// BulkUpdateVariants обновляет цены/SKU/медиа вариантов одним вызовом
	BulkUpdateVariants(ctx context.Context, store dto.StoreConnection, productID string, variants []dto.VariantUpdateInput) error

	// InventoryItemLocation возвращает идентификатор локации фулфилмента
	// для позиции инвентаря; пустая строка — локация не найдена
	InventoryItemLocation(ctx context.Context, store dto.StoreConnection, inventoryItemID string) (string, error)

	// SetInventoryQuantities выставляет абсолютные количества для списка позиций
	// в указанной локации. Семантика перезаписи: операция идемпотентна при повторе.
	SetInventoryQuantities(ctx context.Context, store dto.StoreConnection, locationID string, quantities []dto.InventoryQuantityInput) error

	// UpdateProduct обновляет карточку товара: метаданные и/или статус
	UpdateProduct(ctx context.Context, store dto.StoreConnection, input dto.ProductUpdateInput) error

	// DeleteProduct удаляет карточку товара. Используется только политикой
	// очистки частично созданного товара после фатального сбоя.
	DeleteProduct(ctx context.Context, store dto.StoreConnection, productID string) error
}
