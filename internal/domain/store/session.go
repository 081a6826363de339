package store

import (
	"sync"

	"github.com/athebyme/gomarket-storefront/internal/domain/listing"
	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/internal/domain/shop"
	"github.com/athebyme/gomarket-storefront/internal/domain/variant"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// Названия разделов для подписчиков
const (
	SliceCart     = "cart"
	SliceWishlist = "wishlist"
	SliceListing  = "listing"
)

// Change уведомление об изменении раздела
type Change struct {
	Slice string
	Name  string
}

// Fetchers источники списков сессии
type Fetchers struct {
	Products     listing.Fetcher[models.Product]
	Blogs        listing.Fetcher[models.BlogPost]
	Testimonials listing.Fetcher[models.Testimonial]
}

// Session состояние одного покупателя: списки по контекстам витрины, выбор на странице
// товара, корзина и избранное
type Session struct {
	ID string

	listings     map[string]*listing.Client[models.Product]
	Blog         *listing.Client[models.BlogPost]
	Testimonials *listing.Client[models.Testimonial]
	Product      *variant.Selection

	mu          sync.Mutex
	cart        Slice[models.CartSnapshot]
	wishlist    Slice[models.WishlistSnapshot]
	subscribers map[int]func(Change)
	nextSub     int
	closed      bool
}

// NewSession создает сессию со своими клиентами списков
func NewSession(id string, f Fetchers, logger interfaces.LoggerPort) *Session {
	log := logger.WithField(string(interfaces.SessionIDKey), id)

	s := &Session{
		ID:          id,
		listings:    make(map[string]*listing.Client[models.Product]),
		Product:     variant.NewSelection(log),
		subscribers: make(map[int]func(Change)),
		cart:        Slice[models.CartSnapshot]{Value: models.CartSnapshot{Lines: []models.CartLine{}}},
		wishlist:    Slice[models.WishlistSnapshot]{Value: models.WishlistSnapshot{Entries: []models.WishlistEntry{}}},
	}

	for _, lc := range shop.ListingContexts() {
		c := listing.NewClient[models.Product](lc.Name, f.Products, log, lc.Base...)
		name := lc.Name
		c.OnChange(func(listing.Result[models.Product]) { s.notify(Change{Slice: SliceListing, Name: name}) })
		s.listings[lc.Name] = c
	}
	if f.Blogs != nil {
		s.Blog = listing.NewClient[models.BlogPost]("blog", f.Blogs, log)
	}
	if f.Testimonials != nil {
		s.Testimonials = listing.NewClient[models.Testimonial]("testimonials", f.Testimonials, log)
	}
	return s
}

// Listing возвращает клиент списка контекста витрины
func (s *Session) Listing(name string) (*listing.Client[models.Product], bool) {
	c, ok := s.listings[name]
	return c, ok
}

// Cart возвращает раздел корзины
func (s *Session) Cart() Slice[models.CartSnapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart
}

// Wishlist возвращает раздел избранного
func (s *Session) Wishlist() Slice[models.WishlistSnapshot] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wishlist
}

// DispatchCart применяет действие к корзине. Ответы применяются в порядке получения.
func (s *Session) DispatchCart(a Action[models.CartSnapshot]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.cart = Reduce(s.cart, a)
	s.mu.Unlock()
	s.notify(Change{Slice: SliceCart})
}

// DispatchWishlist применяет действие к избранному
func (s *Session) DispatchWishlist(a Action[models.WishlistSnapshot]) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.wishlist = Reduce(s.wishlist, a)
	s.mu.Unlock()
	s.notify(Change{Slice: SliceWishlist})
}

// Subscribe подписывает на изменения разделов; возвращает функцию отписки
func (s *Session) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.subscribers, id)
		s.mu.Unlock()
	}
}

// Close завершает сессию: подписчики больше не уведомляются, действия не применяются
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.subscribers = make(map[int]func(Change))
}

// Closed сообщает, завершена ли сессия
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) notify(c Change) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	subs := make([]func(Change), 0, len(s.subscribers))
	for _, fn := range s.subscribers {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(c)
	}
}
