package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/athebyme/gomarket-storefront/internal/api/middleware"
	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/internal/domain/shop"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/athebyme/gomarket-storefront/pkg/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// ShopHandler обработчик списков витрины. Действия с фильтрами отвечают 303 на новый
// адрес списка; текущее состояние фильтров передается строкой запроса действия.
type ShopHandler struct {
	storefront *services.StorefrontService
	pageSize   int
	logger     interfaces.LoggerPort
}

// NewShopHandler создает новый обработчик списков
func NewShopHandler(storefront *services.StorefrontService, pageSize int, logger interfaces.LoggerPort) *ShopHandler {
	return &ShopHandler{
		storefront: storefront,
		pageSize:   pageSize,
		logger:     logger,
	}
}

type toggleRequest struct {
	GroupID  string `json:"group_id"`
	OptionID string `json:"option_id"`
	Checked  bool   `json:"checked"`
}

type priceRequest struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type searchRequest struct {
	Term string `json:"term"`
}

// Contexts возвращает доступные контексты витрины
func (h *ShopHandler) Contexts(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, shop.ListingContexts(), nil)
}

// Listing обрабатывает запрос страницы списка
// @Summary Страница списка витрины
// @Tags Shop
// @Produce json
// @Param context path string true "Контекст витрины" Enums(shop,best-sellers,new-arrivals,sale)
// @Param page query int false "Номер страницы" default(1)
// @Param minPrice query int false "Нижняя граница цены"
// @Param maxPrice query int false "Верхняя граница цены"
// @Success 200 {object} response
// @Failure 404 {object} errorResponse
// @Failure 502 {object} errorResponse
// @Router /shop/{context} [get]
func (h *ShopHandler) Listing(w http.ResponseWriter, r *http.Request) {
	contextName := chi.URLParam(r, "context")
	view, err := h.storefront.Listing(r.Context(), middleware.SessionID(r.Context()), contextName, requestLocation{path: r.URL.Path, query: r.URL.RawQuery})
	if err != nil {
		if errors.Is(err, shop.ErrUnknownContext) {
			writeError(w, r, h.logger, "Неизвестный контекст витрины", err)
			return
		}
		h.logger.WarnWithContext(r.Context(), "Ошибка загрузки списка",
			interfaces.LogField{Key: "context", Value: contextName},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
		resp := classify(err)
		if view.Result.Error != "" {
			resp.Message = view.Result.Error
		}
		resp.Data = view
		render.Status(r, resp.Code)
		render.JSON(w, r, resp)
		return
	}

	pagination := utils.NewPagination(view.Result.CurrentPage, h.pageSize, sortOf(view))
	pagination.TotalItems = int64(view.Result.TotalCount)
	pagination.SetPages(view.Result.TotalPages)
	writeData(w, r, http.StatusOK, view, pagination)
}

// Retry повторяет последний запрос списка
func (h *ShopHandler) Retry(w http.ResponseWriter, r *http.Request) {
	result, err := h.storefront.RetryListing(r.Context(), middleware.SessionID(r.Context()), chi.URLParam(r, "context"))
	if err != nil {
		resp := classify(err)
		if resp.Code != http.StatusBadGateway {
			writeError(w, r, h.logger, "Ошибка повтора списка", err)
			return
		}
		h.logger.WarnWithContext(r.Context(), "Ошибка повтора списка", interfaces.LogField{Key: "error", Value: err.Error()})
		if result.Error != "" {
			resp.Message = result.Error
		}
		resp.Data = result
		render.Status(r, resp.Code)
		render.JSON(w, r, resp)
		return
	}
	writeData(w, r, http.StatusOK, result, nil)
}

// ToggleFilter включает или выключает значение фильтра
// @Summary Переключить значение фильтра
// @Tags Shop
// @Accept json
// @Param context path string true "Контекст витрины"
// @Param request body toggleRequest true "Группа и значение"
// @Success 303
// @Failure 400 {object} errorResponse
// @Router /shop/{context}/filters [post]
func (h *ShopHandler) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	var req toggleRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil || req.GroupID == "" || req.OptionID == "" {
		writeBadRequest(w, r, "group_id и option_id обязательны")
		return
	}
	h.intent(w, r, func(c *shop.Controller) (string, error) {
		return c.ToggleFilterOption(req.GroupID, req.OptionID, req.Checked)
	})
}

// ApplyPrice применяет диапазон цены
func (h *ShopHandler) ApplyPrice(w http.ResponseWriter, r *http.Request) {
	var req priceRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Неверный диапазон цены")
		return
	}
	h.intent(w, r, func(c *shop.Controller) (string, error) {
		return c.ApplyPriceRange(req.Min, req.Max)
	})
}

// ChangePage меняет страницу списка
func (h *ShopHandler) ChangePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Неверный номер страницы")
		return
	}
	h.intent(w, r, func(c *shop.Controller) (string, error) {
		return c.ChangePage(req.Page)
	})
}

// Search меняет поисковый запрос списка
func (h *ShopHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, r, "Неверный поисковый запрос")
		return
	}
	h.intent(w, r, func(c *shop.Controller) (string, error) {
		return c.SetSearch(req.Term)
	})
}

// ClearFilters сбрасывает все фильтры
func (h *ShopHandler) ClearFilters(w http.ResponseWriter, r *http.Request) {
	h.intent(w, r, (*shop.Controller).ClearAll)
}

// intent выполняет намерение контроллера для списка из адреса запроса
func (h *ShopHandler) intent(w http.ResponseWriter, r *http.Request, fn func(*shop.Controller) (string, error)) {
	contextName := chi.URLParam(r, "context")
	if _, ok := shop.LookupContext(contextName); !ok {
		writeError(w, r, h.logger, "Неизвестный контекст витрины", fmt.Errorf("%w: %s", shop.ErrUnknownContext, contextName))
		return
	}

	nav := &redirectNavigator{}
	controller := h.storefront.Controller(r.Context(), listingLocation(r), nav)
	defer controller.Close()

	target, err := fn(controller)
	if err != nil {
		writeError(w, r, h.logger, "Ошибка изменения фильтров", err)
		return
	}
	seeOther(w, r, target)
}

// Suggest возвращает подсказки поиска
// @Summary Подсказки поиска
// @Tags Shop
// @Produce json
// @Param q query string true "Запрос, от двух символов"
// @Success 200 {object} response
// @Router /search/suggest [get]
func (h *ShopHandler) Suggest(w http.ResponseWriter, r *http.Request) {
	results, err := h.storefront.Suggest(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, h.logger, "Ошибка подсказок поиска", err)
		return
	}
	writeData(w, r, http.StatusOK, results, nil)
}

// FilterCatalog возвращает справочник фильтров
func (h *ShopHandler) FilterCatalog(w http.ResponseWriter, r *http.Request) {
	writeData(w, r, http.StatusOK, h.storefront.FilterCatalog(r.Context()), nil)
}

func sortOf(view services.ListingView) string {
	for _, p := range view.Context.Base {
		if p.Key == filter.KeySort && len(p.Values) > 0 {
			return p.Values[0]
		}
	}
	return ""
}
