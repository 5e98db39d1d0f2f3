package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/athebyme/shopsync-service/internal/domain/models"
	"github.com/athebyme/shopsync-service/internal/domain/services"
	"github.com/athebyme/shopsync-service/internal/utils"
	pkgutils "github.com/athebyme/shopsync-service/pkg/utils"
	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// PushHandler обработчик запросов выгрузки товаров
type PushHandler struct {
	syncService services.SyncServiceInterface
	logger      interfaces.LoggerPort
}

// NewPushHandler создает новый обработчик выгрузки
func NewPushHandler(syncService services.SyncServiceInterface, logger interfaces.LoggerPort) *PushHandler {
	return &PushHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// errorResponse представляет структуру ответа с ошибкой
type errorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
}

// response представляет структуру успешного ответа
type response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// pushRequest — тело запроса на выгрузку
type pushRequest struct {
	Publish         bool   `json:"publish"`
	DefaultQuantity int    `json:"default_quantity"`
	PartialPolicy   string `json:"partial_policy,omitempty"`
}

// batchPushRequest — тело запроса на пакетную выгрузку
type batchPushRequest struct {
	pushRequest
	Concurrency int `json:"concurrency,omitempty"`
	PageSize    int `json:"page_size,omitempty"`
}

func tenantFromContext(r *http.Request) (string, bool) {
	tenantID, ok := r.Context().Value("tenant_id").(string)
	return tenantID, ok && tenantID != ""
}

func badRequest(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusBadRequest)
	render.JSON(w, r, errorResponse{
		Error:   "bad_request",
		Code:    http.StatusBadRequest,
		Message: message,
	})
}

// PushProduct обрабатывает запрос на выгрузку одного товара
func (h *PushHandler) PushProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		badRequest(w, r, "ID товара не указан")
		return
	}

	tenantID, ok := tenantFromContext(r)
	if !ok {
		badRequest(w, r, "ID тенанта не указан")
		return
	}

	var req pushRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, r, "Некорректное тело запроса")
			return
		}
	}

	result, err := h.syncService.PushByID(r.Context(), tenantID, productID, models.PushOptions{
		Publish:         req.Publish,
		DefaultQuantity: req.DefaultQuantity,
		PartialPolicy:   req.PartialPolicy,
	})
	if err != nil && result == nil {
		h.renderPushError(w, r, err)
		return
	}

	// Фатальный сбой выгрузки — тоже содержательный ответ: результат несет
	// частичные идентификаторы и след шагов
	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: result.Success,
		Data:    result,
	})
}

// PushBatch обрабатывает запрос на выгрузку всех ожидающих товаров
func (h *PushHandler) PushBatch(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(r)
	if !ok {
		badRequest(w, r, "ID тенанта не указан")
		return
	}

	var req batchPushRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, r, "Некорректное тело запроса")
			return
		}
	}

	results, err := h.syncService.PushPending(r.Context(), tenantID, models.PushOptions{
		Publish:         req.Publish,
		DefaultQuantity: req.DefaultQuantity,
		PartialPolicy:   req.PartialPolicy,
	}, req.Concurrency, req.PageSize)
	if err != nil {
		h.renderPushError(w, r, err)
		return
	}

	succeeded := 0
	for _, item := range results {
		if item.Result != nil && item.Result.Success {
			succeeded++
		}
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    results,
		Meta: map[string]int{
			"total":     len(results),
			"succeeded": succeeded,
			"failed":    len(results) - succeeded,
		},
	})
}

// GetPushStatus обрабатывает запрос на получение статуса выгрузки товара
func (h *PushHandler) GetPushStatus(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		badRequest(w, r, "ID товара не указан")
		return
	}

	tenantID, ok := tenantFromContext(r)
	if !ok {
		badRequest(w, r, "ID тенанта не указан")
		return
	}

	result, err := h.syncService.GetPushStatus(r.Context(), tenantID, productID)
	if err != nil {
		h.renderPushError(w, r, err)
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    result,
	})
}

// ListPending обрабатывает запрос на получение списка ожидающих товаров
func (h *PushHandler) ListPending(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenantFromContext(r)
	if !ok {
		badRequest(w, r, "ID тенанта не указан")
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))

	pagination := pkgutils.NewPagination(page, pageSize)

	products, total, err := h.syncService.ListPending(r.Context(), tenantID, pagination.Page, pagination.PageSize)
	if err != nil {
		h.renderPushError(w, r, err)
		return
	}
	pagination.SetTotal(int64(total))

	render.Status(r, http.StatusOK)
	render.JSON(w, r, response{
		Success: true,
		Data:    products,
		Meta:    pagination,
	})
}

// renderPushError переводит доменные ошибки в HTTP-статусы
func (h *PushHandler) renderPushError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, utils.ErrProductNotFound):
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, errorResponse{
			Error:   "not_found",
			Code:    http.StatusNotFound,
			Message: "Товар не найден",
		})
	case errors.Is(err, utils.ErrStoreNotConfigured):
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, errorResponse{
			Error:   "store_not_configured",
			Code:    http.StatusUnprocessableEntity,
			Message: "Подключение к магазину не настроено",
		})
	case errors.Is(err, utils.ErrPushInProgress):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, errorResponse{
			Error:   "push_in_progress",
			Code:    http.StatusConflict,
			Message: "Выгрузка этого товара уже выполняется",
		})
	case errors.Is(err, utils.ErrInvalidProductId):
		badRequest(w, r, "Некорректный ID товара")
	default:
		h.logger.ErrorWithContext(r.Context(), "Ошибка выгрузки товара",
			interfaces.LogField{Key: "error", Value: err.Error()})
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, errorResponse{
			Error:   "internal_error",
			Code:    http.StatusInternalServerError,
			Message: "Внутренняя ошибка сервиса",
		})
	}
}
