package messaging

import "time"

// Топики сервиса синхронизации
const (
	TopicPushCommands = "product-push-commands"
	TopicPushResults  = "product-push-results"
	TopicDeadLetter   = "product-push-dead-letter"
)

// Типы команд, принимаемых из топика команд
const (
	CommandPushProduct = "push_product"
	CommandPushPending = "push_pending"
)

// PushCommand — команда на выгрузку, прочитанная из топика команд
type PushCommand struct {
	Type      string `json:"type"`
	TenantID  string `json:"tenant_id"`
	ProductID string `json:"product_id,omitempty"`
	Publish   bool   `json:"publish"`
}

// PushEvent — событие об итоге выгрузки, публикуемое в топик результатов
type PushEvent struct {
	TenantID         string    `json:"tenant_id"`
	ProductID        string    `json:"product_id"`
	Success          bool      `json:"success"`
	ShopifyProductID string    `json:"shopify_product_id,omitempty"`
	FailedStep       int       `json:"failed_step,omitempty"`
	Warnings         int       `json:"warnings,omitempty"`
	CompletedAt      time.Time `json:"completed_at"`
}
