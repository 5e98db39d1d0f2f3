package dto

import (
	"fmt"
	"strings"
)

// StoreConnection описывает подключение к магазину Shopify.
// Передается в шлюз как непрозрачное значение: сервисы не инспектируют
// и не кэшируют учетные данные.
type StoreConnection struct {
	Domain      string `json:"domain"`       // my-store.myshopify.com
	AccessToken string `json:"access_token"` // токен Admin API
	APIVersion  string `json:"api_version"`  // например "2024-10"
}

// EndpointURL возвращает URL GraphQL endpoint'а Admin API для магазина
func (s StoreConnection) EndpointURL() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", s.Domain, s.APIVersion)
}

// UserError представляет ошибку валидации уровня поля,
// возвращаемую платформой внутри успешного (HTTP 200) ответа
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
}

// UserErrorsToError нормализует список ошибок валидации в одну ошибку
// вида "операция: путь.поля: сообщение; ...". Возвращает nil, если список пуст.
func UserErrorsToError(operation string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}

	parts := make([]string, 0, len(errs))
	for _, e := range errs {
		if len(e.Field) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", strings.Join(e.Field, "."), e.Message))
		} else {
			parts = append(parts, e.Message)
		}
	}

	return fmt.Errorf("%s: %s", operation, strings.Join(parts, "; "))
}

// ProductOptionInput описывает одно измерение опций товара (имя + упорядоченные значения)
type ProductOptionInput struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// ProductCreateInput содержит данные для создания карточки товара (шаг 1)
type ProductCreateInput struct {
	Title           string               `json:"title"`
	DescriptionHTML string               `json:"descriptionHtml,omitempty"`
	Vendor          string               `json:"vendor,omitempty"`
	ProductType     string               `json:"productType,omitempty"`
	Tags            []string             `json:"tags,omitempty"`
	Options         []ProductOptionInput `json:"productOptions,omitempty"`
}

// VariantInfo — внутренняя проекция варианта, созданного на стороне платформы.
// Option1 используется только для сверки и сопоставления с медиа,
// бизнес-логика на него не опирается.
type VariantInfo struct {
	ID              string `json:"id"`
	InventoryItemID string `json:"inventory_item_id"`
	Option1         string `json:"option1,omitempty"`
}

// CreatedProduct — результат создания карточки товара:
// непрозрачный идентификатор, человекочитаемый handle и автоматически
// материализованные платформой варианты
type CreatedProduct struct {
	ID       string        `json:"id"`
	Handle   string        `json:"handle"`
	Variants []VariantInfo `json:"variants"`
}

// Терминальные и промежуточные статусы обработки медиа на стороне платформы
const (
	MediaStatusUploaded   = "UPLOADED"
	MediaStatusProcessing = "PROCESSING"
	MediaStatusReady      = "READY"
	MediaStatusFailed     = "FAILED"
)

// MediaInput описывает одно изображение для загрузки
type MediaInput struct {
	OriginalSource string `json:"originalSource"`
	Alt            string `json:"alt,omitempty"`
}

// MediaRecord — запись о медиафайле на стороне платформы.
// Alt используется для эвристического сопоставления вариант-изображение.
type MediaRecord struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Alt    string `json:"alt,omitempty"`
}

// IsTerminal сообщает, достигла ли запись терминального статуса обработки
func (m MediaRecord) IsTerminal() bool {
	return m.Status == MediaStatusReady || m.Status == MediaStatusFailed
}

// VariantOptionValue — значение опции варианта вместе с именем измерения,
// к которому оно относится
type VariantOptionValue struct {
	OptionName string `json:"optionName"`
	Name       string `json:"name"`
}

// VariantCreateInput описывает явное создание одного варианта
type VariantCreateInput struct {
	OptionValues   []VariantOptionValue `json:"optionValues"`
	Price          string               `json:"price,omitempty"`
	CompareAtPrice string               `json:"compareAtPrice,omitempty"`
	SKU            string               `json:"sku,omitempty"`
}

// VariantUpdateInput описывает пакетное обновление одного варианта (шаг 4)
type VariantUpdateInput struct {
	ID             string `json:"id"`
	Price          string `json:"price,omitempty"`
	CompareAtPrice string `json:"compareAtPrice,omitempty"`
	SKU            string `json:"sku,omitempty"`
	MediaID        string `json:"mediaId,omitempty"`
}

// InventoryQuantityInput задает абсолютное количество для одной позиции инвентаря
type InventoryQuantityInput struct {
	InventoryItemID string `json:"inventoryItemId"`
	Quantity        int    `json:"quantity"`
}

// Статусы карточки товара на стороне платформы
const (
	ProductStatusDraft  = "DRAFT"
	ProductStatusActive = "ACTIVE"
)

// ProductUpdateInput описывает обновление карточки товара (шаг 6 и шаг 7).
// Используется и для метаданных, и для активации — форма входа определяет эффект.
type ProductUpdateInput struct {
	ID              string `json:"id"`
	DescriptionHTML string `json:"descriptionHtml,omitempty"`
	SEOTitle        string `json:"seoTitle,omitempty"`
	SEODescription  string `json:"seoDescription,omitempty"`
	Status          string `json:"status,omitempty"`
}
