package models

import "time"

// Политики обращения с частично созданным удаленным товаром после
// фатального сбоя выгрузки. По умолчанию товар остается как есть —
// оператор сам решает, повторить, удалить или дособрать его вручную.
const (
	PartialPolicyKeep   = "keep"
	PartialPolicyDelete = "delete"
)

// Статусы синхронизации записи каталога
const (
	SyncStatusPending = "pending"
	SyncStatusSynced  = "synced"
	SyncStatusFailed  = "failed"
)

// ProgressFunc вызывается перед началом каждого шага выгрузки и, опционально,
// повторно с деталями завершения. Используется только для обратной связи UI,
// никогда — для управления потоком выполнения.
type ProgressFunc func(step int, message string, detail string)

// PushOptions — параметры одной выгрузки, задаваемые вызывающей стороной
type PushOptions struct {
	// Publish включает шаг 7: перевод товара из черновика в опубликованное состояние
	Publish bool `json:"publish"`

	// DefaultQuantity — количество по умолчанию, если исходные остатки
	// не содержат ни статуса, ни числа
	DefaultQuantity int `json:"default_quantity"`

	// PartialPolicy определяет судьбу частично созданного удаленного товара
	// после фатального сбоя: PartialPolicyKeep или PartialPolicyDelete
	PartialPolicy string `json:"partial_policy,omitempty"`

	// OnProgress — callback прогресса (может быть nil)
	OnProgress ProgressFunc `json:"-"`
}

// StepResult — результат одного шага выгрузки. Неизменяем после добавления;
// упорядоченная последовательность StepResult — аудиторский след одной выгрузки.
// Success=true с непустым Error означает нефатальное предупреждение.
type StepResult struct {
	Step     int           `json:"step"`
	Name     string        `json:"name"`
	Success  bool          `json:"success"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// PushResult — агрегированный итог одной выгрузки товара.
//
// Контракт частичного сбоя без отката: сбой на шаге k оставляет на стороне
// платформы реальный товар в состоянии, определенном шагами 1..k-1. Поэтому
// результат ВСЕГДА несет частичные идентификаторы (ShopifyProductID, Handle,
// VariantIDs) и полный след шагов — вызывающая сторона по ним решает,
// повторить выгрузку, удалить товар или дособрать его вручную.
type PushResult struct {
	ProductID        string       `json:"product_id"`
	TenantID         string       `json:"tenant_id,omitempty"`
	Success          bool         `json:"success"`
	ShopifyProductID string       `json:"shopify_product_id,omitempty"`
	Handle           string       `json:"handle,omitempty"`
	VariantIDs       []string     `json:"variant_ids,omitempty"`
	Steps            []StepResult `json:"steps"`
	Errors           []string     `json:"errors,omitempty"`
	Warnings         []string     `json:"warnings,omitempty"`
	CompletedAt      time.Time    `json:"completed_at"`
}

// FailedStep возвращает номер первого неуспешного шага или 0, если такого нет
func (r *PushResult) FailedStep() int {
	for _, s := range r.Steps {
		if !s.Success {
			return s.Step
		}
	}
	return 0
}

// BatchItemResult — итог выгрузки одного товара внутри пакетного запуска
type BatchItemResult struct {
	ProductID string      `json:"product_id"`
	Result    *PushResult `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
}

// BatchProgressFunc вызывается после завершения выгрузки каждого товара пакета
type BatchProgressFunc func(index, total int, productID string, result *PushResult)
