package handlers

import (
	"net/http"

	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// CartHandler обработчик корзины, избранного и оптовых заявок
type CartHandler struct {
	carts  *services.CartService
	logger interfaces.LoggerPort
}

// NewCartHandler создает новый обработчик корзины
func NewCartHandler(carts *services.CartService, logger interfaces.LoggerPort) *CartHandler {
	return &CartHandler{
		carts:  carts,
		logger: logger,
	}
}

type wishlistRequest struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku_variant,omitempty"`
}

// GetCart возвращает корзину
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	slice, err := h.carts.Cart(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, h.logger, "Ошибка получения корзины", err)
		return
	}
	writeData(w, r, http.StatusOK, slice, nil)
}

// AddToCart добавляет товар в корзину
// @Summary Добавить товар в корзину
// @Tags Cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body services.AddToCartRequest true "Товар и количество"
// @Success 200 {object} response
// @Failure 409 {object} errorResponse "Только оптовый заказ"
// @Failure 422 {object} errorResponse
// @Router /cart [post]
func (h *CartHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req services.AddToCartRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Неверный формат запроса")
		return
	}

	slice, err := h.carts.AddToCart(r.Context(), identity(r), req)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка добавления в корзину", err)
		return
	}
	writeData(w, r, http.StatusOK, slice, nil)
}

// RemoveFromCart удаляет товар из корзины; ?sku= ограничивает удаление вариантом
func (h *CartHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	slice, err := h.carts.RemoveFromCart(r.Context(), identity(r), chi.URLParam(r, "productID"), r.URL.Query().Get("sku"))
	if err != nil {
		writeError(w, r, h.logger, "Ошибка удаления из корзины", err)
		return
	}
	writeData(w, r, http.StatusOK, slice, nil)
}

// GetWishlist возвращает избранное
func (h *CartHandler) GetWishlist(w http.ResponseWriter, r *http.Request) {
	slice, err := h.carts.Wishlist(r.Context(), identity(r))
	if err != nil {
		writeError(w, r, h.logger, "Ошибка получения избранного", err)
		return
	}
	writeData(w, r, http.StatusOK, slice, nil)
}

// AddToWishlist добавляет товар в избранное
func (h *CartHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Неверный формат запроса")
		return
	}

	slice, err := h.carts.AddToWishlist(r.Context(), identity(r), req.ProductID, req.SKU)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка добавления в избранное", err)
		return
	}
	writeData(w, r, http.StatusOK, slice, nil)
}

// RemoveFromWishlist удаляет товар из избранного
func (h *CartHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	slice, err := h.carts.RemoveFromWishlist(r.Context(), identity(r), chi.URLParam(r, "productID"), r.URL.Query().Get("sku"))
	if err != nil {
		writeError(w, r, h.logger, "Ошибка удаления из избранного", err)
		return
	}
	writeData(w, r, http.StatusOK, slice, nil)
}

// CreateBulkInquiry создает оптовую заявку
// @Summary Создать оптовую заявку
// @Tags Cart
// @Accept json
// @Produce json
// @Param request body services.BulkInquiryRequest true "Заявка"
// @Success 201 {object} response
// @Failure 503 {object} errorResponse
// @Router /bulk-inquiries [post]
func (h *CartHandler) CreateBulkInquiry(w http.ResponseWriter, r *http.Request) {
	var req services.BulkInquiryRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Неверный формат запроса")
		return
	}

	inquiry, err := h.carts.CreateBulkInquiry(r.Context(), identity(r), req)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка создания оптовой заявки", err)
		return
	}
	writeData(w, r, http.StatusCreated, inquiry, nil)
}

// GetBulkInquiry возвращает оптовую заявку по ID
func (h *CartHandler) GetBulkInquiry(w http.ResponseWriter, r *http.Request) {
	inquiry, err := h.carts.BulkInquiry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.logger, "Ошибка получения оптовой заявки", err)
		return
	}
	writeData(w, r, http.StatusOK, inquiry, nil)
}
