package handlers

import (
	"net/http"
	"strconv"

	"github.com/athebyme/gomarket-storefront/internal/api/middleware"
	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/athebyme/gomarket-storefront/pkg/utils"
)

// ContentHandler обработчик блога и отзывов
type ContentHandler struct {
	storefront *services.StorefrontService
	pageSize   int
	logger     interfaces.LoggerPort
}

// NewContentHandler создает новый обработчик контента
func NewContentHandler(storefront *services.StorefrontService, pageSize int, logger interfaces.LoggerPort) *ContentHandler {
	return &ContentHandler{storefront: storefront, pageSize: pageSize, logger: logger}
}

// Blogs возвращает страницу блога
func (h *ContentHandler) Blogs(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	result, err := h.storefront.Blogs(r.Context(), middleware.SessionID(r.Context()), page)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка загрузки блога", err)
		return
	}
	writeData(w, r, http.StatusOK, pagedOf(result.Page, h.pageSize), nil)
}

// Testimonials возвращает страницу отзывов
func (h *ContentHandler) Testimonials(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	result, err := h.storefront.Testimonials(r.Context(), middleware.SessionID(r.Context()), page)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка загрузки отзывов", err)
		return
	}
	writeData(w, r, http.StatusOK, pagedOf(result.Page, h.pageSize), nil)
}

func (h *ContentHandler) page(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("page")
	if raw == "" {
		return 1, true
	}
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		writeBadRequest(w, r, "Неверный номер страницы")
		return 0, false
	}
	return page, true
}

func pagedOf[T any](page listing.Page[T], pageSize int) *utils.PagedResult {
	pagination := utils.NewPagination(page.CurrentPage, pageSize, "")
	pagination.TotalItems = int64(page.TotalCount)
	pagination.SetPages(page.TotalPages)
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return utils.NewPagedResult(items, pagination)
}
