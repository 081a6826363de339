package shop

import "github.com/athebyme/gomarket-storefront/internal/domain/filter"

// Имена контекстов витрины
const (
	ContextShop        = "shop"
	ContextBestSellers = "best-sellers"
	ContextNewArrivals = "new-arrivals"
	ContextSale        = "sale"
)

// ListingContext независимый список товаров со своими постоянными параметрами
type ListingContext struct {
	Name  string         `json:"name"`
	Title string         `json:"title"`
	Base  []filter.Param `json:"-"`
}

var listingContexts = []ListingContext{
	{Name: ContextShop, Title: "Shop"},
	{Name: ContextBestSellers, Title: "Best sellers", Base: []filter.Param{{Key: filter.KeySort, Values: []string{"best_selling"}}}},
	{Name: ContextNewArrivals, Title: "New arrivals", Base: []filter.Param{{Key: filter.KeySort, Values: []string{"newest"}}}},
	{Name: ContextSale, Title: "Sale", Base: []filter.Param{{Key: filter.KeyOnSale, Values: []string{"true"}}}},
}

// ListingContexts возвращает все контексты витрины
func ListingContexts() []ListingContext {
	out := make([]ListingContext, len(listingContexts))
	copy(out, listingContexts)
	return out
}

// LookupContext ищет контекст по имени
func LookupContext(name string) (ListingContext, bool) {
	for _, c := range listingContexts {
		if c.Name == name {
			return c, true
		}
	}
	return ListingContext{}, false
}
