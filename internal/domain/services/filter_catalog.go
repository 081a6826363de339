package services

import (
	"context"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	gocache "github.com/patrickmn/go-cache"
)

const filterCatalogKey = "filter-catalog"

// DefaultFilterCatalogTTL время жизни справочника фильтров в памяти
const DefaultFilterCatalogTTL = 5 * time.Minute

// FilterOptionSource источник строк справочника фильтров
type FilterOptionSource interface {
	ListFilterOptions(ctx context.Context) ([]models.FilterOptionRecord, error)
}

// FilterCatalogService отдает справочник фильтров, кэшируя его в памяти процесса
type FilterCatalogService struct {
	source       FilterOptionSource
	priceCeiling int
	cache        *gocache.Cache
	ttl          time.Duration
	logger       interfaces.LoggerPort
}

// NewFilterCatalogService создает сервис справочника. source может быть nil:
// тогда используются группы витрины без значений.
func NewFilterCatalogService(source FilterOptionSource, priceCeiling int, ttl time.Duration, logger interfaces.LoggerPort) *FilterCatalogService {
	if ttl <= 0 {
		ttl = DefaultFilterCatalogTTL
	}
	return &FilterCatalogService{
		source:       source,
		priceCeiling: priceCeiling,
		cache:        gocache.New(ttl, 2*ttl),
		ttl:          ttl,
		logger:       logger,
	}
}

// Catalog возвращает справочник. Ошибка хранилища не ломает витрину: отдается справочник
// без значений, который не кэшируется.
func (s *FilterCatalogService) Catalog(ctx context.Context) *filter.Catalog {
	if v, ok := s.cache.Get(filterCatalogKey); ok {
		return v.(*filter.Catalog)
	}
	if s.source == nil {
		return filter.NewCatalog(s.priceCeiling)
	}

	records, err := s.source.ListFilterOptions(ctx)
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Не удалось загрузить справочник фильтров",
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
		return filter.NewCatalog(s.priceCeiling)
	}

	catalog := filter.CatalogFromRecords(records, s.priceCeiling)
	s.cache.Set(filterCatalogKey, catalog, s.ttl)
	s.logger.DebugWithContext(ctx, "Справочник фильтров загружен",
		interfaces.LogField{Key: "options", Value: len(records)},
	)
	return catalog
}

// Invalidate сбрасывает кэш справочника
func (s *FilterCatalogService) Invalidate() {
	s.cache.Delete(filterCatalogKey)
}
