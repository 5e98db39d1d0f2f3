package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/athebyme/shopsync-service/internal/adapters/messaging"
	"github.com/athebyme/shopsync-service/internal/adapters/storage"
	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/athebyme/shopsync-service/pkg/tx"
)

const (
	pushLockKeyPrefix   = "push:"
	pushResultKeyPrefix = "push_result:"

	// TTL блокировки должен перекрывать худший сценарий выгрузки
	// с учетом опроса медиа и повторов при троттлинге
	pushLockTTL   = 10 * time.Minute
	pushResultTTL = 24 * time.Hour
)

// SyncServiceInterface — операции синхронизации каталога, доступные
// транспортному слою (HTTP, Kafka)
type SyncServiceInterface interface {
	PushByID(ctx context.Context, tenantID, productID string, opts models.PushOptions) (*models.PushResult, error)
	PushPending(ctx context.Context, tenantID string, opts models.PushOptions, batchConcurrency, pageSize int) ([]models.BatchItemResult, error)
	GetPushStatus(ctx context.Context, tenantID, productID string) (*models.PushResult, error)
	ListPending(ctx context.Context, tenantID string, page, pageSize int) ([]*models.SourceProduct, int, error)
}

// SyncService связывает выгрузку с каталогом: читает запись товара и
// параметры магазина из хранилища, запускает выгрузку, фиксирует итог
// в каталоге и истории, кэширует результат и публикует событие.
type SyncService struct {
	pusher    ProductPusher
	storage   postgres.CatalogStoragePort
	txManager tx.TxManager
	cache     interfaces.CachePort
	messaging interfaces.MessagingPort
	logger    interfaces.LoggerPort

	// Топик событий о результатах выгрузки
	resultsTopic string
	// Версия Admin API по умолчанию для подключений без явной версии
	apiVersion string
}

// NewSyncService создает новый экземпляр SyncService.
// Пустой resultsTopic заменяется топиком по умолчанию.
func NewSyncService(
	pusher ProductPusher,
	catalogStorage postgres.CatalogStoragePort,
	txManager tx.TxManager,
	cache interfaces.CachePort,
	messagingPort interfaces.MessagingPort,
	logger interfaces.LoggerPort,
	resultsTopic string,
	apiVersion string,
) *SyncService {
	if resultsTopic == "" {
		resultsTopic = messaging.TopicPushResults
	}
	return &SyncService{
		pusher:       pusher,
		storage:      catalogStorage,
		txManager:    txManager,
		cache:        cache,
		messaging:    messagingPort,
		logger:       logger,
		resultsTopic: resultsTopic,
		apiVersion:   apiVersion,
	}
}

// storeConnection читает параметры подключения арендатора и подставляет
// версию Admin API по умолчанию, если подключение ее не задает
func (s *SyncService) storeConnection(ctx context.Context, tenantID string) (*dto.StoreConnection, error) {
	store, err := s.storage.GetStoreConnection(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if store.APIVersion == "" {
		store.APIVersion = s.apiVersion
	}
	return store, nil
}

// PushByID выгружает товар каталога по идентификатору.
// Повторный запуск той же выгрузки блокируется распределенной блокировкой
// до завершения первой или истечения TTL блокировки.
func (s *SyncService) PushByID(ctx context.Context, tenantID, productID string, opts models.PushOptions) (*models.PushResult, error) {
	if productID == "" {
		return nil, utils.ErrInvalidProductId
	}

	store, err := s.storeConnection(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	product, err := s.storage.GetProduct(ctx, productID, tenantID)
	if err != nil {
		return nil, err
	}

	return s.pushAndRecord(ctx, *store, product, opts)
}

// PushPending выгружает страницу товаров, ожидающих синхронизации.
// Сбой одного товара не прерывает остальные.
func (s *SyncService) PushPending(ctx context.Context, tenantID string, opts models.PushOptions, batchConcurrency, pageSize int) ([]models.BatchItemResult, error) {
	store, err := s.storeConnection(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	products, total, err := s.storage.ListPendingProducts(ctx, tenantID, 1, pageSize)
	if err != nil {
		return nil, err
	}

	s.logger.InfoWithContext(ctx, "starting pending push",
		interfaces.LogField{Key: "tenant_id", Value: tenantID},
		interfaces.LogField{Key: "batch", Value: len(products)},
		interfaces.LogField{Key: "pending_total", Value: total},
	)

	runner := NewBatchRunner(&recordingPusher{s: s}, s.logger, batchConcurrency)
	return runner.Run(ctx, *store, products, opts, nil), nil
}

// recordingPusher подставляет pushAndRecord в пакетный раннер,
// чтобы каждый товар пакета получал полный цикл фиксации итога
type recordingPusher struct {
	s *SyncService
}

func (p *recordingPusher) PushProduct(ctx context.Context, store dto.StoreConnection, product *models.SourceProduct, opts models.PushOptions) (*models.PushResult, error) {
	return p.s.pushAndRecord(ctx, store, product, opts)
}

// pushAndRecord выполняет выгрузку одного товара под блокировкой и фиксирует
// итог: статус в записи каталога, строка истории, кэш результата, событие.
// Сбои фиксации не затирают исход самой выгрузки, а добавляются к нему.
func (s *SyncService) pushAndRecord(ctx context.Context, store dto.StoreConnection, product *models.SourceProduct, opts models.PushOptions) (*models.PushResult, error) {
	lockKey := pushLockKeyPrefix + product.ID
	acquired, err := s.cache.LockWithTenant(ctx, lockKey, product.TenantID, pushLockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire push lock: %w", err)
	}
	if !acquired {
		return nil, utils.ErrPushInProgress
	}
	defer func() {
		if unlockErr := s.cache.UnlockWithTenant(ctx, lockKey, product.TenantID); unlockErr != nil {
			s.logger.WarnWithContext(ctx, "failed to release push lock",
				interfaces.LogField{Key: "product_id", Value: product.ID},
				interfaces.LogField{Key: "error", Value: unlockErr.Error()},
			)
		}
	}()

	result, pushErr := s.pusher.PushProduct(ctx, store, product, opts)
	if result == nil {
		return nil, pushErr
	}

	if err := s.recordResult(ctx, product.TenantID, result); err != nil {
		s.logger.ErrorWithContext(ctx, "failed to record push result",
			interfaces.LogField{Key: "product_id", Value: product.ID},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
		result.Warnings = append(result.Warnings, fmt.Sprintf("record: %v", err))
	}

	s.cacheResult(ctx, product.TenantID, result)
	s.publishEvent(ctx, result)

	return result, pushErr
}

// recordResult атомарно записывает статус синхронизации и строку истории
func (s *SyncService) recordResult(ctx context.Context, tenantID string, result *models.PushResult) error {
	status := models.SyncStatusSynced
	if !result.Success {
		status = models.SyncStatusFailed
	}

	return s.txManager.Do(ctx, func(txCtx context.Context) error {
		if err := s.storage.UpdateSyncStatus(txCtx, result.ProductID, tenantID, status, result.ShopifyProductID); err != nil {
			return err
		}
		return s.storage.SaveSyncHistory(txCtx, tenantID, result)
	})
}

// cacheResult сохраняет результат в кэше для быстрых запросов статуса
func (s *SyncService) cacheResult(ctx context.Context, tenantID string, result *models.PushResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}

	key := pushResultKeyPrefix + result.ProductID
	if err := s.cache.SetWithTenant(ctx, key, data, tenantID, pushResultTTL); err != nil {
		s.logger.WarnWithContext(ctx, "failed to cache push result",
			interfaces.LogField{Key: "product_id", Value: result.ProductID},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
}

// publishEvent публикует событие об итоге выгрузки в топик результатов
func (s *SyncService) publishEvent(ctx context.Context, result *models.PushResult) {
	event := messaging.PushEvent{
		TenantID:         result.TenantID,
		ProductID:        result.ProductID,
		Success:          result.Success,
		ShopifyProductID: result.ShopifyProductID,
		FailedStep:       result.FailedStep(),
		Warnings:         len(result.Warnings),
		CompletedAt:      result.CompletedAt,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	if err := s.messaging.PublishForTenant(ctx, s.resultsTopic, data, result.TenantID); err != nil {
		s.logger.WarnWithContext(ctx, "failed to publish push event",
			interfaces.LogField{Key: "product_id", Value: result.ProductID},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
}

// GetPushStatus возвращает последний известный результат выгрузки товара:
// сперва из кэша, затем из истории синхронизаций
func (s *SyncService) GetPushStatus(ctx context.Context, tenantID, productID string) (*models.PushResult, error) {
	if productID == "" {
		return nil, utils.ErrInvalidProductId
	}

	key := pushResultKeyPrefix + productID
	if data, err := s.cache.GetWithTenant(ctx, key, tenantID); err == nil {
		var result models.PushResult
		if err := json.Unmarshal(data, &result); err == nil {
			return &result, nil
		}
	}

	result, err := s.storage.GetLastSyncResult(ctx, productID, tenantID)
	if err != nil {
		return nil, err
	}

	s.cacheResult(ctx, tenantID, result)
	return result, nil
}

// ListPending возвращает страницу товаров, ожидающих выгрузки
func (s *SyncService) ListPending(ctx context.Context, tenantID string, page, pageSize int) ([]*models.SourceProduct, int, error) {
	return s.storage.ListPendingProducts(ctx, tenantID, page, pageSize)
}
