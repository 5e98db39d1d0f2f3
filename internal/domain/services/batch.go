package services

import (
	"context"
	"sync"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
)

// BatchRunner выгружает набор товаров последовательно или с ограниченным
// параллелизмом. Сбой одного товара не прерывает пакет: каждый товар
// получает собственный результат, агрегат собирается в исходном порядке.
type BatchRunner struct {
	pusher      ProductPusher
	logger      interfaces.LoggerPort
	concurrency int
}

// ProductPusher — минимальная граница для пакетного запуска,
// ей удовлетворяет PushService
type ProductPusher interface {
	PushProduct(ctx context.Context, store dto.StoreConnection, product *models.SourceProduct, opts models.PushOptions) (*models.PushResult, error)
}

// NewBatchRunner создает пакетный раннер. Параллелизм меньше единицы
// означает последовательное выполнение.
func NewBatchRunner(pusher ProductPusher, logger interfaces.LoggerPort, concurrency int) *BatchRunner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchRunner{
		pusher:      pusher,
		logger:      logger,
		concurrency: concurrency,
	}
}

// Run выгружает все товары набора и возвращает результаты в порядке входа.
// Отмена контекста останавливает выдачу новых товаров; уже начатые
// выгрузки довершаются своим чередом.
func (b *BatchRunner) Run(ctx context.Context, store dto.StoreConnection, products []*models.SourceProduct, opts models.PushOptions, onProgress models.BatchProgressFunc) []models.BatchItemResult {
	results := make([]models.BatchItemResult, len(products))
	if len(products) == 0 {
		return results
	}

	var (
		wg        sync.WaitGroup
		progress  sync.Mutex
		completed int
	)
	sem := make(chan struct{}, b.concurrency)

	for i, product := range products {
		if err := ctx.Err(); err != nil {
			results[i] = models.BatchItemResult{
				ProductID: product.ID,
				Error:     err.Error(),
			}
			continue
		}

		select {
		case <-ctx.Done():
			results[i] = models.BatchItemResult{
				ProductID: product.ID,
				Error:     ctx.Err().Error(),
			}
			continue
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, product *models.SourceProduct) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := b.pusher.PushProduct(ctx, store, product, opts)
			item := models.BatchItemResult{
				ProductID: product.ID,
				Result:    result,
			}
			if err != nil {
				item.Error = err.Error()
			}
			results[i] = item

			// Callback прогресса сериализуется: вызывающая сторона
			// не обязана делать его потокобезопасным
			progress.Lock()
			completed++
			done := completed
			if onProgress != nil {
				onProgress(i, len(products), product.ID, result)
			}
			progress.Unlock()

			b.logger.InfoWithContext(ctx, "batch item completed",
				interfaces.LogField{Key: "product_id", Value: product.ID},
				interfaces.LogField{Key: "completed", Value: done},
				interfaces.LogField{Key: "total", Value: len(products)},
				interfaces.LogField{Key: "success", Value: err == nil},
			)
		}(i, product)
	}

	wg.Wait()
	return results
}
