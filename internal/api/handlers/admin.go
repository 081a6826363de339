package handlers

import (
	"net/http"

	"github.com/athebyme/gomarket-storefront/internal/adapters/catalogapi"
	"github.com/athebyme/gomarket-storefront/internal/domain/services"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/go-chi/chi/v5"
)

// AdminHandler служебные операции витрины
type AdminHandler struct {
	catalog *services.FilterCatalogService
	cache   interfaces.CachePort
	logger  interfaces.LoggerPort
}

// NewAdminHandler создает обработчик служебных операций
func NewAdminHandler(catalog *services.FilterCatalogService, cache interfaces.CachePort, logger interfaces.LoggerPort) *AdminHandler {
	return &AdminHandler{catalog: catalog, cache: cache, logger: logger}
}

// InvalidateFilterCatalog сбрасывает справочник фильтров
func (h *AdminHandler) InvalidateFilterCatalog(w http.ResponseWriter, r *http.Request) {
	h.catalog.Invalidate()
	h.logger.InfoWithContext(r.Context(), "Справочник фильтров сброшен")
	w.WriteHeader(http.StatusNoContent)
}

// InvalidateProduct сбрасывает кэш товара и списков
func (h *AdminHandler) InvalidateProduct(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if err := catalogapi.Invalidate(r.Context(), h.cache, slug); err != nil {
		writeError(w, r, h.logger, "Ошибка сброса кэша товара", err)
		return
	}
	h.logger.InfoWithContext(r.Context(), "Кэш товара сброшен", interfaces.LogField{Key: "slug", Value: slug})
	w.WriteHeader(http.StatusNoContent)
}
