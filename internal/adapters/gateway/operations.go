package gateway

import (
	"context"
	"fmt"

	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
)

// GraphQL-документы операций Admin API. Переменные всегда передаются
// отдельно от документа, интерполяция значений в текст запроса запрещена.
const (
	productCreateMutation = `
mutation productCreate($product: ProductCreateInput!) {
  productCreate(product: $product) {
    product {
      id
      handle
      variants(first: 10) {
        nodes {
          id
          inventoryItem { id }
          selectedOptions { name value }
        }
      }
    }
    userErrors { field message }
  }
}`

	productCreateMediaMutation = `
mutation productCreateMedia($productId: ID!, $media: [CreateMediaInput!]!) {
  productCreateMedia(productId: $productId, media: $media) {
    media {
      id
      alt
      status
    }
    mediaUserErrors { field message }
  }
}`

	productMediaQuery = `
query productMedia($id: ID!) {
  product(id: $id) {
    media(first: 250) {
      nodes {
        id
        alt
        status
      }
    }
  }
}`

	variantsBulkCreateMutation = `
mutation productVariantsBulkCreate($productId: ID!, $variants: [ProductVariantsBulkInput!]!, $strategy: ProductVariantsBulkCreateStrategy) {
  productVariantsBulkCreate(productId: $productId, variants: $variants, strategy: $strategy) {
    productVariants {
      id
      inventoryItem { id }
      selectedOptions { name value }
    }
    userErrors { field message }
  }
}`

	variantsBulkUpdateMutation = `
mutation productVariantsBulkUpdate($productId: ID!, $variants: [ProductVariantsBulkInput!]!) {
  productVariantsBulkUpdate(productId: $productId, variants: $variants) {
    userErrors { field message }
  }
}`

	inventoryItemLocationQuery = `
query inventoryItemLocation($id: ID!) {
  inventoryItem(id: $id) {
    inventoryLevels(first: 1) {
      nodes {
        location { id }
      }
    }
  }
}`

	inventorySetQuantitiesMutation = `
mutation inventorySetQuantities($input: InventorySetQuantitiesInput!) {
  inventorySetQuantities(input: $input) {
    userErrors { field message }
  }
}`

	productUpdateMutation = `
mutation productUpdate($input: ProductUpdateInput!) {
  productUpdate(input: $input) {
    userErrors { field message }
  }
}`

	productDeleteMutation = `
mutation productDelete($input: ProductDeleteInput!) {
  productDelete(input: $input) {
    userErrors { field message }
  }
}`
)

// variantNode — вариант в GraphQL-ответе
type variantNode struct {
	ID            string `json:"id"`
	InventoryItem struct {
		ID string `json:"id"`
	} `json:"inventoryItem"`
	SelectedOptions []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"selectedOptions"`
}

func (n variantNode) toVariantInfo() dto.VariantInfo {
	info := dto.VariantInfo{
		ID:              n.ID,
		InventoryItemID: n.InventoryItem.ID,
	}
	if len(n.SelectedOptions) > 0 {
		info.Option1 = n.SelectedOptions[0].Value
	}
	return info
}

type mediaNode struct {
	ID     string `json:"id"`
	Alt    string `json:"alt"`
	Status string `json:"status"`
}

func (n mediaNode) toMediaRecord() dto.MediaRecord {
	return dto.MediaRecord{
		ID:     n.ID,
		Status: n.Status,
		Alt:    n.Alt,
	}
}

// CreateProduct создает карточку товара с опциями
func (g *ShopifyGateway) CreateProduct(ctx context.Context, store dto.StoreConnection, input dto.ProductCreateInput) (*dto.CreatedProduct, error) {
	productInput := map[string]interface{}{
		"title": input.Title,
	}
	if input.DescriptionHTML != "" {
		productInput["descriptionHtml"] = input.DescriptionHTML
	}
	if input.Vendor != "" {
		productInput["vendor"] = input.Vendor
	}
	if input.ProductType != "" {
		productInput["productType"] = input.ProductType
	}
	if len(input.Tags) > 0 {
		productInput["tags"] = input.Tags
	}
	if len(input.Options) > 0 {
		options := make([]map[string]interface{}, 0, len(input.Options))
		for _, opt := range input.Options {
			values := make([]map[string]string, 0, len(opt.Values))
			for _, v := range opt.Values {
				values = append(values, map[string]string{"name": v})
			}
			options = append(options, map[string]interface{}{
				"name":   opt.Name,
				"values": values,
			})
		}
		productInput["productOptions"] = options
	}

	var resp struct {
		ProductCreate struct {
			Product *struct {
				ID       string `json:"id"`
				Handle   string `json:"handle"`
				Variants struct {
					Nodes []variantNode `json:"nodes"`
				} `json:"variants"`
			} `json:"product"`
			UserErrors []dto.UserError `json:"userErrors"`
		} `json:"productCreate"`
	}

	err := g.execute(ctx, store, productCreateMutation, map[string]interface{}{
		"product": productInput,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := dto.UserErrorsToError("productCreate", resp.ProductCreate.UserErrors); err != nil {
		return nil, err
	}
	if resp.ProductCreate.Product == nil {
		return nil, fmt.Errorf("productCreate: empty product in response")
	}

	created := &dto.CreatedProduct{
		ID:     resp.ProductCreate.Product.ID,
		Handle: resp.ProductCreate.Product.Handle,
	}
	for _, node := range resp.ProductCreate.Product.Variants.Nodes {
		created.Variants = append(created.Variants, node.toVariantInfo())
	}

	g.logger.DebugWithContext(ctx, "product created",
		interfaces.LogField{Key: "shopify_product_id", Value: created.ID},
		interfaces.LogField{Key: "handle", Value: created.Handle},
	)

	return created, nil
}

// UploadMedia загружает пакет изображений к товару
func (g *ShopifyGateway) UploadMedia(ctx context.Context, store dto.StoreConnection, productID string, media []dto.MediaInput) ([]dto.MediaRecord, error) {
	mediaInputs := make([]map[string]interface{}, 0, len(media))
	for _, m := range media {
		mediaInputs = append(mediaInputs, map[string]interface{}{
			"originalSource":   m.OriginalSource,
			"alt":              m.Alt,
			"mediaContentType": "IMAGE",
		})
	}

	var resp struct {
		ProductCreateMedia struct {
			Media           []mediaNode     `json:"media"`
			MediaUserErrors []dto.UserError `json:"mediaUserErrors"`
		} `json:"productCreateMedia"`
	}

	err := g.execute(ctx, store, productCreateMediaMutation, map[string]interface{}{
		"productId": productID,
		"media":     mediaInputs,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := dto.UserErrorsToError("productCreateMedia", resp.ProductCreateMedia.MediaUserErrors); err != nil {
		return nil, err
	}

	records := make([]dto.MediaRecord, 0, len(resp.ProductCreateMedia.Media))
	for _, node := range resp.ProductCreateMedia.Media {
		records = append(records, node.toMediaRecord())
	}
	return records, nil
}

// ProductMedia возвращает текущее состояние медиаколлекции товара
func (g *ShopifyGateway) ProductMedia(ctx context.Context, store dto.StoreConnection, productID string) ([]dto.MediaRecord, error) {
	var resp struct {
		Product *struct {
			Media struct {
				Nodes []mediaNode `json:"nodes"`
			} `json:"media"`
		} `json:"product"`
	}

	err := g.execute(ctx, store, productMediaQuery, map[string]interface{}{
		"id": productID,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Product == nil {
		return nil, fmt.Errorf("productMedia: product %s not found", productID)
	}

	records := make([]dto.MediaRecord, 0, len(resp.Product.Media.Nodes))
	for _, node := range resp.Product.Media.Nodes {
		records = append(records, node.toMediaRecord())
	}
	return records, nil
}

// BulkCreateVariants создает недостающие варианты одним вызовом.
// Стратегия REMOVE_STANDALONE_VARIANT вытесняет автоматически созданный
// вариант, если он не входит в создаваемый набор.
func (g *ShopifyGateway) BulkCreateVariants(ctx context.Context, store dto.StoreConnection, productID string, variants []dto.VariantCreateInput) ([]dto.VariantInfo, error) {
	variantInputs := make([]map[string]interface{}, 0, len(variants))
	for _, v := range variants {
		optionValues := make([]map[string]string, 0, len(v.OptionValues))
		for _, ov := range v.OptionValues {
			optionValues = append(optionValues, map[string]string{
				"optionName": ov.OptionName,
				"name":       ov.Name,
			})
		}

		variantInput := map[string]interface{}{
			"optionValues": optionValues,
		}
		if v.Price != "" {
			variantInput["price"] = v.Price
		}
		if v.CompareAtPrice != "" {
			variantInput["compareAtPrice"] = v.CompareAtPrice
		}
		if v.SKU != "" {
			variantInput["inventoryItem"] = map[string]interface{}{"sku": v.SKU}
		}
		variantInputs = append(variantInputs, variantInput)
	}

	var resp struct {
		ProductVariantsBulkCreate struct {
			ProductVariants []variantNode   `json:"productVariants"`
			UserErrors      []dto.UserError `json:"userErrors"`
		} `json:"productVariantsBulkCreate"`
	}

	err := g.execute(ctx, store, variantsBulkCreateMutation, map[string]interface{}{
		"productId": productID,
		"variants":  variantInputs,
		"strategy":  "REMOVE_STANDALONE_VARIANT",
	}, &resp)
	if err != nil {
		return nil, err
	}
	if err := dto.UserErrorsToError("productVariantsBulkCreate", resp.ProductVariantsBulkCreate.UserErrors); err != nil {
		return nil, err
	}

	infos := make([]dto.VariantInfo, 0, len(resp.ProductVariantsBulkCreate.ProductVariants))
	for _, node := range resp.ProductVariantsBulkCreate.ProductVariants {
		infos = append(infos, node.toVariantInfo())
	}
	return infos, nil
}

// BulkUpdateVariants обновляет цены, SKU и медиа вариантов одним вызовом
func (g *ShopifyGateway) BulkUpdateVariants(ctx context.Context, store dto.StoreConnection, productID string, variants []dto.VariantUpdateInput) error {
	variantInputs := make([]map[string]interface{}, 0, len(variants))
	for _, v := range variants {
		variantInput := map[string]interface{}{
			"id": v.ID,
		}
		if v.Price != "" {
			variantInput["price"] = v.Price
		}
		if v.CompareAtPrice != "" {
			variantInput["compareAtPrice"] = v.CompareAtPrice
		}
		if v.SKU != "" {
			variantInput["inventoryItem"] = map[string]interface{}{"sku": v.SKU}
		}
		if v.MediaID != "" {
			variantInput["mediaId"] = v.MediaID
		}
		variantInputs = append(variantInputs, variantInput)
	}

	var resp struct {
		ProductVariantsBulkUpdate struct {
			UserErrors []dto.UserError `json:"userErrors"`
		} `json:"productVariantsBulkUpdate"`
	}

	err := g.execute(ctx, store, variantsBulkUpdateMutation, map[string]interface{}{
		"productId": productID,
		"variants":  variantInputs,
	}, &resp)
	if err != nil {
		return err
	}
	return dto.UserErrorsToError("productVariantsBulkUpdate", resp.ProductVariantsBulkUpdate.UserErrors)
}

// InventoryItemLocation возвращает локацию фулфилмента для позиции инвентаря.
// Локация одна на магазин, результат кэшируется по домену магазина.
func (g *ShopifyGateway) InventoryItemLocation(ctx context.Context, store dto.StoreConnection, inventoryItemID string) (string, error) {
	if cached, ok := g.locationCache.Get(store.Domain); ok {
		return cached.(string), nil
	}

	var resp struct {
		InventoryItem *struct {
			InventoryLevels struct {
				Nodes []struct {
					Location struct {
						ID string `json:"id"`
					} `json:"location"`
				} `json:"nodes"`
			} `json:"inventoryLevels"`
		} `json:"inventoryItem"`
	}

	err := g.execute(ctx, store, inventoryItemLocationQuery, map[string]interface{}{
		"id": inventoryItemID,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.InventoryItem == nil || len(resp.InventoryItem.InventoryLevels.Nodes) == 0 {
		return "", nil
	}

	locationID := resp.InventoryItem.InventoryLevels.Nodes[0].Location.ID
	if locationID != "" {
		g.locationCache.Set(store.Domain, locationID, 0)
	}
	return locationID, nil
}

// SetInventoryQuantities выставляет абсолютные количества позиций в локации.
// ignoreCompareQuantity дает семантику безусловной перезаписи.
func (g *ShopifyGateway) SetInventoryQuantities(ctx context.Context, store dto.StoreConnection, locationID string, quantities []dto.InventoryQuantityInput) error {
	items := make([]map[string]interface{}, 0, len(quantities))
	for _, q := range quantities {
		items = append(items, map[string]interface{}{
			"inventoryItemId": q.InventoryItemID,
			"locationId":      locationID,
			"quantity":        q.Quantity,
		})
	}

	var resp struct {
		InventorySetQuantities struct {
			UserErrors []dto.UserError `json:"userErrors"`
		} `json:"inventorySetQuantities"`
	}

	err := g.execute(ctx, store, inventorySetQuantitiesMutation, map[string]interface{}{
		"input": map[string]interface{}{
			"name":                  "available",
			"reason":                "correction",
			"ignoreCompareQuantity": true,
			"quantities":            items,
		},
	}, &resp)
	if err != nil {
		return err
	}
	return dto.UserErrorsToError("inventorySetQuantities", resp.InventorySetQuantities.UserErrors)
}

// UpdateProduct обновляет карточку товара: SEO-метаданные и/или статус
func (g *ShopifyGateway) UpdateProduct(ctx context.Context, store dto.StoreConnection, input dto.ProductUpdateInput) error {
	productInput := map[string]interface{}{
		"id": input.ID,
	}
	if input.DescriptionHTML != "" {
		productInput["descriptionHtml"] = input.DescriptionHTML
	}
	if input.SEOTitle != "" || input.SEODescription != "" {
		seo := map[string]interface{}{}
		if input.SEOTitle != "" {
			seo["title"] = input.SEOTitle
		}
		if input.SEODescription != "" {
			seo["description"] = input.SEODescription
		}
		productInput["seo"] = seo
	}
	if input.Status != "" {
		productInput["status"] = input.Status
	}

	var resp struct {
		ProductUpdate struct {
			UserErrors []dto.UserError `json:"userErrors"`
		} `json:"productUpdate"`
	}

	err := g.execute(ctx, store, productUpdateMutation, map[string]interface{}{
		"input": productInput,
	}, &resp)
	if err != nil {
		return err
	}
	return dto.UserErrorsToError("productUpdate", resp.ProductUpdate.UserErrors)
}

// DeleteProduct удаляет карточку товара
func (g *ShopifyGateway) DeleteProduct(ctx context.Context, store dto.StoreConnection, productID string) error {
	var resp struct {
		ProductDelete struct {
			UserErrors []dto.UserError `json:"userErrors"`
		} `json:"productDelete"`
	}

	err := g.execute(ctx, store, productDeleteMutation, map[string]interface{}{
		"input": map[string]interface{}{"id": productID},
	}, &resp)
	if err != nil {
		return err
	}
	return dto.UserErrorsToError("productDelete", resp.ProductDelete.UserErrors)
}
