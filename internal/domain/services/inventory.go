package services

import (
	"context"
	"fmt"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
)

// InventoryResolver назначает остатки вариантам товара: находит локацию
// фулфилмента через первую позицию инвентаря и выставляет абсолютные
// количества одним вызовом.
type InventoryResolver struct {
	gateway interfaces.GatewayPort
	logger  interfaces.LoggerPort
}

// NewInventoryResolver создает резолвер остатков
func NewInventoryResolver(gateway interfaces.GatewayPort, logger interfaces.LoggerPort) *InventoryResolver {
	return &InventoryResolver{
		gateway: gateway,
		logger:  logger,
	}
}

// QuantityFor вычисляет количество для одного варианта.
//
// Порядок приоритетов: явный статус "out_of_stock" дает ноль независимо
// от числового значения; затем явное неотрицательное количество;
// иначе количество по умолчанию из параметров выгрузки.
func QuantityFor(stock models.StockInfo, defaultQuantity int) int {
	if stock.Status == models.StockStatusOutOfStock {
		return 0
	}
	if stock.Quantity != nil && *stock.Quantity >= 0 {
		return *stock.Quantity
	}
	return defaultQuantity
}

// ResolveLocation находит локацию фулфилмента магазина через позицию
// инвентаря первого варианта. Все варианты одного магазина обслуживаются
// одной локацией, поэтому одного запроса достаточно.
func (r *InventoryResolver) ResolveLocation(ctx context.Context, store dto.StoreConnection, variants []dto.VariantInfo) (string, error) {
	for _, v := range variants {
		if v.InventoryItemID == "" {
			continue
		}

		locationID, err := r.gateway.InventoryItemLocation(ctx, store, v.InventoryItemID)
		if err != nil {
			return "", fmt.Errorf("failed to resolve fulfillment location: %w", err)
		}
		if locationID == "" {
			return "", utils.ErrNoFulfillmentLocation
		}
		return locationID, nil
	}

	return "", utils.ErrNoFulfillmentLocation
}

// AssignInventory выставляет абсолютные остатки всем вариантам товара.
// Количество i-го варианта вычисляется из i-го дескриптора: вызывающая
// сторона обязана передать variants и descriptors одной длины и порядка.
// Семантика перезаписи: повторный вызов с теми же данными безопасен.
func (r *InventoryResolver) AssignInventory(ctx context.Context, store dto.StoreConnection, variants []dto.VariantInfo, descriptors []models.VariantDescriptor, defaultQuantity int) error {
	if len(variants) == 0 {
		return nil
	}
	if len(descriptors) != 0 && len(descriptors) != len(variants) {
		return utils.ErrVariantCountMismatch
	}

	locationID, err := r.ResolveLocation(ctx, store, variants)
	if err != nil {
		return err
	}

	quantities := make([]dto.InventoryQuantityInput, 0, len(variants))
	for i, v := range variants {
		if v.InventoryItemID == "" {
			continue
		}

		quantity := defaultQuantity
		if i < len(descriptors) {
			quantity = QuantityFor(descriptors[i].Stock, defaultQuantity)
		}

		quantities = append(quantities, dto.InventoryQuantityInput{
			InventoryItemID: v.InventoryItemID,
			Quantity:        quantity,
		})
	}

	if len(quantities) == 0 {
		return nil
	}

	if err := r.gateway.SetInventoryQuantities(ctx, store, locationID, quantities); err != nil {
		return fmt.Errorf("failed to set inventory quantities: %w", err)
	}

	r.logger.DebugWithContext(ctx, "inventory assigned",
		interfaces.LogField{Key: "location_id", Value: locationID},
		interfaces.LogField{Key: "items", Value: len(quantities)},
	)

	return nil
}
