package services

import (
	"context"
	"fmt"
	"time"

	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
)

// MediaPoller доводит асинхронную обработку медиа до устойчивого состояния:
// после загрузки пакета изображений опрашивает платформу с фиксированным
// интервалом, пока все записи не достигнут терминального статуса или не
// исчерпается бюджет попыток.
type MediaPoller struct {
	gateway     interfaces.GatewayPort
	logger      interfaces.LoggerPort
	maxAttempts int
	interval    time.Duration

	// sleep подменяется в тестах, чтобы не ждать реального времени
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMediaPoller создает поллер с заданным бюджетом опроса
func NewMediaPoller(gateway interfaces.GatewayPort, logger interfaces.LoggerPort, maxAttempts int, interval time.Duration) *MediaPoller {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	return &MediaPoller{
		gateway:     gateway,
		logger:      logger,
		maxAttempts: maxAttempts,
		interval:    interval,
		sleep:       sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// UploadAndAwait загружает изображения и дожидается окончания их обработки.
//
// Ошибка самой загрузки возвращается как есть: без медиа нечего опрашивать.
// Дальнейшие сбои мягкие: записи со статусом FAILED и записи, не успевшие
// обработаться за бюджет опроса, просто не попадают в результат. Возвращаются
// только записи в статусе READY, в порядке загрузки.
func (p *MediaPoller) UploadAndAwait(ctx context.Context, store dto.StoreConnection, productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
	if len(media) == 0 {
		return nil, nil
	}

	uploaded, err := p.gateway.UploadMedia(ctx, store, productID, media)
	if err != nil {
		return nil, fmt.Errorf("failed to upload media: %w", err)
	}

	p.logger.DebugWithContext(ctx, "media uploaded, awaiting processing",
		interfaces.LogField{Key: "product_id", Value: productID},
		interfaces.LogField{Key: "count", Value: len(uploaded)},
	)

	// Коллекция медиа наполняется асинхронно: сразу после загрузки запрос
	// может вернуть неполный или пустой список. Опрос завершается только
	// когда терминальны ВСЕ ожидаемые записи, а не все фактически возвращенные.
	expected := len(uploaded)
	records := uploaded
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		if len(records) >= expected && allTerminal(records) {
			break
		}

		if err := p.sleep(ctx, p.interval); err != nil {
			return nil, err
		}

		current, err := p.gateway.ProductMedia(ctx, store, productID)
		if err != nil {
			p.logger.WarnWithContext(ctx, "media status poll failed",
				interfaces.LogField{Key: "product_id", Value: productID},
				interfaces.LogField{Key: "attempt", Value: attempt},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
			continue
		}
		records = current
	}

	ready := make([]dto.MediaRecord, 0, len(records))
	failed := 0
	pending := 0
	for _, m := range records {
		switch m.Status {
		case dto.MediaStatusReady:
			ready = append(ready, m)
		case dto.MediaStatusFailed:
			failed++
		default:
			pending++
		}
	}

	if failed > 0 || pending > 0 {
		p.logger.WarnWithContext(ctx, "media processing incomplete",
			interfaces.LogField{Key: "product_id", Value: productID},
			interfaces.LogField{Key: "ready", Value: len(ready)},
			interfaces.LogField{Key: "failed", Value: failed},
			interfaces.LogField{Key: "pending", Value: pending},
		)
	}

	return ready, nil
}

func allTerminal(records []dto.MediaRecord) bool {
	for _, m := range records {
		if !m.IsTerminal() {
			return false
		}
	}
	return true
}
