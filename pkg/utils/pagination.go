package utils

// Pagination представляет модель пагинации ответа
type Pagination struct {
	Page       int    `json:"page"`              // Номер страницы (начиная с 1)
	PageSize   int    `json:"page_size"`         // Размер страницы
	TotalItems int64  `json:"total_items"`       // Общее количество элементов
	TotalPages int    `json:"total_pages"`       // Общее количество страниц
	SortBy     string `json:"sort_by,omitempty"` // Поле для сортировки
	HasNext    bool   `json:"has_next"`          // Есть ли следующая страница
	HasPrev    bool   `json:"has_prev"`          // Есть ли предыдущая страница
}

// NewPagination создает новый экземпляр Pagination с заданными параметрами
func NewPagination(page, pageSize int, sortBy string) *Pagination {
	if page < 1 {
		page = 1
	}

	if pageSize < 1 {
		pageSize = 10
	}

	return &Pagination{
		Page:     page,
		PageSize: pageSize,
		SortBy:   sortBy,
	}
}

// SetTotal устанавливает общее количество элементов и пересчитывает зависимые поля
func (p *Pagination) SetTotal(totalItems int64) {
	p.TotalItems = totalItems
	p.SetPages(int((totalItems + int64(p.PageSize) - 1) / int64(p.PageSize)))
}

// SetPages устанавливает число страниц, посчитанное источником данных
func (p *Pagination) SetPages(totalPages int) {
	if totalPages < 0 {
		totalPages = 0
	}
	p.TotalPages = totalPages
	p.HasNext = p.Page < p.TotalPages
	p.HasPrev = p.Page > 1
}

// PagedResult представляет результат запроса с пагинацией
type PagedResult struct {
	Items      interface{} `json:"items"`      // Элементы текущей страницы
	Pagination *Pagination `json:"pagination"` // Информация о пагинации
}

// NewPagedResult создает новый результат с пагинацией
func NewPagedResult(items interface{}, pagination *Pagination) *PagedResult {
	return &PagedResult{
		Items:      items,
		Pagination: pagination,
	}
}
