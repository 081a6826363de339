package listing

import (
	"context"
	"errors"
	"sync"

	"github.com/athebyme/gomarket-storefront/internal/domain/filter"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// ErrNoPreviousQuery повтор запроса без единого предыдущего запроса
var ErrNoPreviousQuery = errors.New("listing: nothing to retry")

// Fetcher источник страниц списка (удаленный каталог)
type Fetcher[T any] interface {
	FetchPage(ctx context.Context, q filter.ListQuery) (Page[T], error)
}

// FetcherFunc адаптер функции к Fetcher
type FetcherFunc[T any] func(ctx context.Context, q filter.ListQuery) (Page[T], error)

// FetchPage реализует Fetcher
func (f FetcherFunc[T]) FetchPage(ctx context.Context, q filter.ListQuery) (Page[T], error) {
	return f(ctx, q)
}

// Client клиент удаленного списка для одного контекста витрины.
// Безопасен для конкурентного использования.
type Client[T any] struct {
	name    string
	fetcher Fetcher[T]
	base    []filter.Param
	logger  interfaces.LoggerPort

	mu        sync.Mutex
	state     Result[T]
	seq       uint64
	lastQuery filter.ListQuery
	listeners []func(Result[T])
}

// NewClient создает клиент списка. base - постоянные параметры контекста (например, onSale=true).
func NewClient[T any](name string, fetcher Fetcher[T], logger interfaces.LoggerPort, base ...filter.Param) *Client[T] {
	return &Client[T]{
		name:    name,
		fetcher: fetcher,
		base:    base,
		logger:  logger,
		state:   Result[T]{Page: Page[T]{Items: []T{}}},
	}
}

// Name возвращает имя контекста
func (c *Client[T]) Name() string {
	return c.name
}

// State возвращает текущее состояние
func (c *Client[T]) State() Result[T] {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnChange регистрирует слушателя изменений состояния
func (c *Client[T]) OnChange(fn func(Result[T])) {
	c.mu.Lock()
	c.listeners = append(c.listeners, fn)
	c.mu.Unlock()
}

// Fetch запрашивает страницу списка. Ошибка сети не очищает ранее полученные элементы.
// Возвращается состояние после применения ответа; ошибка возвращается и как значение,
// и в поле Error состояния.
func (c *Client[T]) Fetch(ctx context.Context, q filter.ListQuery) (Result[T], error) {
	q = q.Merge(c.base...)

	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.lastQuery = q
	c.mu.Unlock()
	c.apply(Started[T]{Seq: seq})

	page, err := c.fetcher.FetchPage(ctx, q)

	var ev Event[T]
	if err != nil {
		ev = Failed[T]{Seq: seq, Message: humanize(err)}
	} else {
		ev = Succeeded[T]{Seq: seq, Page: page}
	}

	state, applied := c.apply(ev)
	if !applied {
		c.logger.Debug("Устаревший ответ списка отброшен",
			interfaces.LogField{Key: "listing", Value: c.name},
			interfaces.LogField{Key: "seq", Value: seq},
		)
		return state, err
	}

	if err != nil {
		c.logger.Warn("Ошибка получения списка",
			interfaces.LogField{Key: "listing", Value: c.name},
			interfaces.LogField{Key: "query", Value: q.Encode()},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
	return state, err
}

// Retry повторяет последний запрос
func (c *Client[T]) Retry(ctx context.Context) (Result[T], error) {
	c.mu.Lock()
	q := c.lastQuery
	c.mu.Unlock()

	if q == nil {
		return c.State(), ErrNoPreviousQuery
	}
	return c.Fetch(ctx, q)
}

// apply применяет событие и уведомляет слушателей вне блокировки.
// Возвращает false, если ответ устарел и был отброшен.
func (c *Client[T]) apply(ev Event[T]) (Result[T], bool) {
	c.mu.Lock()
	if c.state.Stale(ev) {
		state := c.state
		c.mu.Unlock()
		return state, false
	}
	c.state = Reduce(c.state, ev)
	state := c.state
	listeners := make([]func(Result[T]), len(c.listeners))
	copy(listeners, c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(state)
	}
	return state, true
}

// humanizer ошибка с сообщением для пользователя
type humanizer interface {
	UserMessage() string
}

func humanize(err error) string {
	var h humanizer
	if errors.As(err, &h) {
		return h.UserMessage()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "The request timed out. Please try again."
	}
	if errors.Is(err, context.Canceled) {
		return "The request was cancelled."
	}
	return "Something went wrong while loading products. Please try again."
}
