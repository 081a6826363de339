package handlers

import (
	"net/http"

	"github.com/athebyme/gomarket-storefront/internal/api/middleware"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ProductHandler обработчик запросов страницы товара
type ProductHandler struct {
	storefront *services.StorefrontService
	logger     interfaces.LoggerPort
}

// NewProductHandler создает новый обработчик товаров
func NewProductHandler(storefront *services.StorefrontService, logger interfaces.LoggerPort) *ProductHandler {
	return &ProductHandler{
		storefront: storefront,
		logger:     logger,
	}
}

// GetProduct обрабатывает запрос на получение товара по slug вместе с текущим выбором
// @Summary Товар и выбор варианта
// @Tags Products
// @Produce json
// @Param slug path string true "Slug товара"
// @Success 200 {object} response
// @Failure 404 {object} errorResponse
// @Router /products/{slug} [get]
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		writeBadRequest(w, r, "Slug товара не указан")
		return
	}

	view, err := h.storefront.Product(r.Context(), middleware.SessionID(r.Context()), slug)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка получения товара", err)
		return
	}

	writeData(w, r, http.StatusOK, view, nil)
}

// UpdateSelection обрабатывает выбор цвета, размера и количества
func (h *ProductHandler) UpdateSelection(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")

	var change services.SelectionChange
	if err := render.DecodeJSON(r.Body, &change); err != nil {
		writeBadRequest(w, r, "Неверный формат запроса")
		return
	}

	view, err := h.storefront.UpdateSelection(r.Context(), middleware.SessionID(r.Context()), slug, change)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка изменения выбора", err)
		return
	}

	writeData(w, r, http.StatusOK, view, nil)
}
