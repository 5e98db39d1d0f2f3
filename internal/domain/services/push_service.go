package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/utils"
	"github.com/athebyme/shopsync-service/pkg/dto"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
)

// Имена шагов выгрузки. Порядок фиксирован, нумерация сквозная.
const (
	stepCreateProduct = iota + 1
	stepUploadMedia
	stepCreateVariants
	stepReconcileVariants
	stepAssignInventory
	stepUpdateMetadata
	stepActivateProduct
)

var stepNames = map[int]string{
	stepCreateProduct:     "create product",
	stepUploadMedia:       "upload media",
	stepCreateVariants:    "create variants",
	stepReconcileVariants: "reconcile variants",
	stepAssignInventory:   "assign inventory",
	stepUpdateMetadata:    "update metadata",
	stepActivateProduct:   "activate product",
}

const seoDescriptionMaxLen = 320

// stepWarning помечает ошибку шага как нефатальную: шаг считается успешным,
// текст ошибки сохраняется в результате, выгрузка продолжается
type stepWarning struct {
	err error
}

func (w *stepWarning) Error() string { return w.err.Error() }
func (w *stepWarning) Unwrap() error { return w.err }

func warnf(format string, args ...interface{}) error {
	return &stepWarning{err: fmt.Errorf(format, args...)}
}

// PushService выполняет многошаговую выгрузку товара каталога на платформу.
//
// Выгрузка — сага без отката: фатальный сбой на шаге k прерывает процесс,
// но не отменяет эффекты шагов 1..k-1. Частично созданный товар остается
// на платформе (или удаляется, если вызывающая сторона выбрала политику
// PartialPolicyDelete), а результат несет все частичные идентификаторы.
type PushService struct {
	gateway   interfaces.GatewayPort
	poller    *MediaPoller
	inventory *InventoryResolver
	logger    interfaces.LoggerPort
}

// NewPushService создает новый экземпляр PushService
func NewPushService(
	gateway interfaces.GatewayPort,
	poller *MediaPoller,
	inventory *InventoryResolver,
	logger interfaces.LoggerPort,
) *PushService {
	return &PushService{
		gateway:   gateway,
		poller:    poller,
		inventory: inventory,
		logger:    logger,
	}
}

// runStep исполняет один шаг выгрузки, замеряет его длительность и фиксирует
// результат в аудиторском следе. Ошибки, обернутые в stepWarning, понижаются
// до предупреждений: шаг записывается успешным, возвращается nil.
func (s *PushService) runStep(result *models.PushResult, opts models.PushOptions, step int, fn func() error) error {
	name := stepNames[step]
	if opts.OnProgress != nil {
		opts.OnProgress(step, name, "")
	}

	start := time.Now()
	err := fn()
	sr := models.StepResult{
		Step:     step,
		Name:     name,
		Success:  err == nil,
		Duration: time.Since(start),
	}

	var warn *stepWarning
	if errors.As(err, &warn) {
		sr.Success = true
		sr.Error = warn.Error()
		result.Warnings = append(result.Warnings, fmt.Sprintf("step %d (%s): %s", step, name, warn.Error()))
		err = nil
	} else if err != nil {
		sr.Error = err.Error()
		result.Errors = append(result.Errors, fmt.Sprintf("step %d (%s): %s", step, name, err.Error()))
	}

	result.Steps = append(result.Steps, sr)
	return err
}

// PushProduct выгружает один товар каталога в магазин.
//
// Возвращаемый PushResult заполнен всегда, включая случаи фатального сбоя:
// в нем остаются идентификаторы уже созданных сущностей и полный след шагов.
// Возвращаемая ошибка — ошибка первого фатального шага или nil.
func (s *PushService) PushProduct(ctx context.Context, store dto.StoreConnection, product *models.SourceProduct, opts models.PushOptions) (*models.PushResult, error) {
	if product == nil || product.ID == "" {
		return nil, utils.ErrInvalidProductId
	}
	if store.Domain == "" || store.AccessToken == "" {
		return nil, utils.ErrStoreNotConfigured
	}

	log := s.logger.WithField("product_id", product.ID)
	if product.TenantID != "" {
		log = log.WithTenant(product.TenantID)
	}

	result := &models.PushResult{
		ProductID: product.ID,
		TenantID:  product.TenantID,
	}
	defer func() { result.CompletedAt = time.Now().UTC() }()

	log.InfoWithContext(ctx, "starting product push",
		interfaces.LogField{Key: "title", Value: product.Title},
		interfaces.LogField{Key: "variants", Value: len(product.Variants)},
	)

	// Шаг 1: создание карточки товара с опциями.
	// Платформа сама материализует один вариант из первых значений опций.
	var created *dto.CreatedProduct
	err := s.runStep(result, opts, stepCreateProduct, func() error {
		var stepErr error
		created, stepErr = s.gateway.CreateProduct(ctx, store, dto.ProductCreateInput{
			Title:           product.Title,
			DescriptionHTML: product.Description,
			Vendor:          product.Vendor,
			ProductType:     product.Category,
			Tags:            product.Tags,
			Options:         optionInputs(product.Options),
		})
		if stepErr != nil {
			return fmt.Errorf("failed to create product: %w", stepErr)
		}
		if len(created.Variants) == 0 {
			return utils.ErrNoAutoVariant
		}
		return nil
	})
	if err != nil {
		return s.finish(ctx, store, result, opts, log, err)
	}

	result.ShopifyProductID = created.ID
	result.Handle = created.Handle

	// Шаг 2: загрузка медиа и ожидание обработки. Ошибка загрузки фатальна,
	// сбои обработки отдельных файлов — нет: работаем с тем, что готово.
	var readyMedia []dto.MediaRecord
	err = s.runStep(result, opts, stepUploadMedia, func() error {
		sources := product.ImageSources()
		if len(sources) == 0 {
			return nil
		}

		var stepErr error
		readyMedia, stepErr = s.poller.UploadAndAwait(ctx, store, created.ID, mediaInputs(product, sources))
		return stepErr
	})
	if err != nil {
		return s.finish(ctx, store, result, opts, log, err)
	}

	// Шаг 3: явное создание недостающих вариантов. Автоматически созданный
	// платформой вариант исключается из запроса и после создания вставляется
	// на свою исходную позицию, чтобы сохранить соответствие дескрипторам.
	var variants []dto.VariantInfo
	err = s.runStep(result, opts, stepCreateVariants, func() error {
		toCreate, autoIndex := SplitAutoCreated(product.Options, product.Variants)
		if len(toCreate) == 0 {
			variants = created.Variants
			return nil
		}

		inputs := make([]dto.VariantCreateInput, 0, len(toCreate))
		for _, v := range toCreate {
			inputs = append(inputs, dto.VariantCreateInput{
				OptionValues:   optionValuePairs(product.Options, v),
				Price:          v.Price,
				CompareAtPrice: v.CompareAtPrice,
				SKU:            v.SKU,
			})
		}

		createdVariants, stepErr := s.gateway.BulkCreateVariants(ctx, store, created.ID, inputs)
		if stepErr != nil {
			return fmt.Errorf("failed to create variants: %w", stepErr)
		}
		if len(createdVariants) != len(toCreate) {
			return utils.ErrVariantCountMismatch
		}

		variants = MergeVariantInfos(created.Variants[0], autoIndex, createdVariants)
		return nil
	})
	if err != nil {
		return s.finish(ctx, store, result, opts, log, err)
	}

	result.VariantIDs = variantIDs(variants)

	// Шаг 4: сверка цен, SKU и изображений на вариантах. Нефатальный шаг:
	// товар без корректировки цен жизнеспособен, сбой понижается до предупреждения.
	_ = s.runStep(result, opts, stepReconcileVariants, func() error {
		updates := variantUpdates(variants, product.Variants, readyMedia)
		if len(updates) == 0 {
			return nil
		}

		if stepErr := s.gateway.BulkUpdateVariants(ctx, store, created.ID, updates); stepErr != nil {
			return warnf("failed to reconcile variants: %v", stepErr)
		}
		return nil
	})

	// Шаг 5: назначение остатков. Фатальный шаг: товар без остатков
	// непригоден к продаже.
	err = s.runStep(result, opts, stepAssignInventory, func() error {
		return s.inventory.AssignInventory(ctx, store, variants, product.Variants, opts.DefaultQuantity)
	})
	if err != nil {
		return s.finish(ctx, store, result, opts, log, err)
	}

	// Шаг 6: метаданные. Полное описание плюс производная SEO-пара
	// с усеченным описанием. Нефатальный шаг.
	_ = s.runStep(result, opts, stepUpdateMetadata, func() error {
		if stepErr := s.gateway.UpdateProduct(ctx, store, dto.ProductUpdateInput{
			ID:              created.ID,
			DescriptionHTML: product.Description,
			SEOTitle:        product.Title,
			SEODescription:  utils.TruncateText(product.Description, seoDescriptionMaxLen),
		}); stepErr != nil {
			return warnf("failed to update metadata: %v", stepErr)
		}
		return nil
	})

	// Шаг 7: публикация. Выполняется только по явному запросу и фатальна:
	// вызывающая сторона ожидает опубликованный товар, а не черновик.
	if opts.Publish {
		err = s.runStep(result, opts, stepActivateProduct, func() error {
			if stepErr := s.gateway.UpdateProduct(ctx, store, dto.ProductUpdateInput{
				ID:     created.ID,
				Status: dto.ProductStatusActive,
			}); stepErr != nil {
				return fmt.Errorf("failed to activate product: %w", stepErr)
			}
			return nil
		})
		if err != nil {
			return s.finish(ctx, store, result, opts, log, err)
		}
	}

	result.Success = true
	log.InfoWithContext(ctx, "product push completed",
		interfaces.LogField{Key: "shopify_product_id", Value: result.ShopifyProductID},
		interfaces.LogField{Key: "variants", Value: len(result.VariantIDs)},
		interfaces.LogField{Key: "warnings", Value: len(result.Warnings)},
	)

	return result, nil
}

// finish завершает выгрузку после фатального сбоя: применяет политику
// очистки частично созданного товара и возвращает результат с ошибкой
func (s *PushService) finish(ctx context.Context, store dto.StoreConnection, result *models.PushResult, opts models.PushOptions, log interfaces.LoggerPort, cause error) (*models.PushResult, error) {
	result.Success = false

	log.ErrorWithContext(ctx, "product push failed",
		interfaces.LogField{Key: "failed_step", Value: result.FailedStep()},
		interfaces.LogField{Key: "error", Value: cause.Error()},
	)

	if opts.PartialPolicy == models.PartialPolicyDelete && result.ShopifyProductID != "" {
		if err := s.gateway.DeleteProduct(ctx, store, result.ShopifyProductID); err != nil {
			// Очистка сама по себе выгрузку не проваливает: товар и так не собран
			result.Warnings = append(result.Warnings, fmt.Sprintf("cleanup: failed to delete partial product: %v", err))
			log.WarnWithContext(ctx, "failed to delete partial product",
				interfaces.LogField{Key: "shopify_product_id", Value: result.ShopifyProductID},
				interfaces.LogField{Key: "error", Value: err.Error()},
			)
		} else {
			log.InfoWithContext(ctx, "partial product deleted",
				interfaces.LogField{Key: "shopify_product_id", Value: result.ShopifyProductID},
			)
		}
	}

	return result, cause
}

// optionValuePairs связывает значения опций варианта с именами измерений:
// i-е заполненное значение относится к i-му объявленному измерению
func optionValuePairs(options []models.ProductOption, v models.VariantDescriptor) []dto.VariantOptionValue {
	values := v.OptionValues()
	pairs := make([]dto.VariantOptionValue, 0, len(values))
	for i, val := range values {
		var name string
		if i < len(options) {
			name = options[i].Name
		}
		pairs = append(pairs, dto.VariantOptionValue{
			OptionName: name,
			Name:       val,
		})
	}
	return pairs
}

func optionInputs(options []models.ProductOption) []dto.ProductOptionInput {
	if len(options) == 0 {
		return nil
	}
	inputs := make([]dto.ProductOptionInput, 0, len(options))
	for _, opt := range options {
		inputs = append(inputs, dto.ProductOptionInput{
			Name:   opt.Name,
			Values: opt.Values,
		})
	}
	return inputs
}

// mediaInputs готовит изображения к загрузке. Alt-текст изображения варианта
// равен первому значению его опций: по нему позже сопоставляются варианты
// и медиа. Остальные изображения получают alt из названия товара.
func mediaInputs(product *models.SourceProduct, sources []string) []dto.MediaInput {
	altByURL := make(map[string]string)
	for _, v := range product.Variants {
		if v.ImageURL != "" && v.Option1 != "" {
			if _, ok := altByURL[v.ImageURL]; !ok {
				altByURL[v.ImageURL] = v.Option1
			}
		}
	}

	inputs := make([]dto.MediaInput, 0, len(sources))
	for _, src := range sources {
		alt := altByURL[src]
		if alt == "" {
			alt = product.Title
		}
		inputs = append(inputs, dto.MediaInput{
			OriginalSource: src,
			Alt:            alt,
		})
	}
	return inputs
}

// variantUpdates собирает пакет обновлений для шага сверки: цены, SKU
// и сопоставленные изображения. Пустые обновления не отправляются.
func variantUpdates(variants []dto.VariantInfo, descriptors []models.VariantDescriptor, media []dto.MediaRecord) []dto.VariantUpdateInput {
	if len(descriptors) == 0 || len(variants) != len(descriptors) {
		return nil
	}

	mediaByVariant := AssociateVariantMedia(variants, media)

	updates := make([]dto.VariantUpdateInput, 0, len(variants))
	for i, v := range variants {
		d := descriptors[i]
		update := dto.VariantUpdateInput{
			ID:             v.ID,
			Price:          d.Price,
			CompareAtPrice: d.CompareAtPrice,
			SKU:            d.SKU,
			MediaID:        mediaByVariant[v.ID],
		}
		if update.Price == "" && update.CompareAtPrice == "" && update.SKU == "" && update.MediaID == "" {
			continue
		}
		updates = append(updates, update)
	}
	return updates
}

func variantIDs(variants []dto.VariantInfo) []string {
	ids := make([]string, 0, len(variants))
	for _, v := range variants {
		ids = append(ids, v.ID)
	}
	return ids
}
