package shop

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/athebyme/gomarket-storefront/internal/domain/models"
	"github.com/athebyme/gomarket-storefront/pkg/debounce"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// MinSearchLength минимальная длина запроса для подсказок
const MinSearchLength = 2

// SuggestFunc запрос подсказок к каталогу
type SuggestFunc func(ctx context.Context, term string) ([]models.SearchSuggestion, error)

// Searcher отложенный поиск подсказок по мере ввода
type Searcher struct {
	ctx     context.Context
	suggest SuggestFunc
	logger  interfaces.LoggerPort
	input   *debounce.Debouncer

	mu      sync.Mutex
	term    string
	results []models.SearchSuggestion
	onDone  func(term string, results []models.SearchSuggestion)
}

// NewSearcher создает поиск; ctx ограничивает время жизни всех запросов
func NewSearcher(ctx context.Context, suggest SuggestFunc, logger interfaces.LoggerPort, delay time.Duration) *Searcher {
	if delay <= 0 {
		delay = DefaultPriceDebounce
	}
	return &Searcher{
		ctx:     ctx,
		suggest: suggest,
		logger:  logger,
		input:   debounce.New(delay),
	}
}

// OnResults регистрирует получателя подсказок
func (s *Searcher) OnResults(fn func(term string, results []models.SearchSuggestion)) {
	s.mu.Lock()
	s.onDone = fn
	s.mu.Unlock()
}

// Type обрабатывает ввод пользователя. Короткий запрос сразу очищает подсказки.
func (s *Searcher) Type(term string) {
	term = strings.TrimSpace(term)

	s.mu.Lock()
	s.term = term
	s.mu.Unlock()

	if len([]rune(term)) < MinSearchLength {
		s.input.Trigger(func() { s.deliver(term, nil) })
		s.input.Flush()
		return
	}
	s.input.Trigger(func() { s.run(term) })
}

// Flush выполняет отложенный запрос немедленно
func (s *Searcher) Flush() bool {
	return s.input.Flush()
}

// Results возвращает последние подсказки
func (s *Searcher) Results() []models.SearchSuggestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.results
}

// Close отменяет отложенный запрос
func (s *Searcher) Close() {
	s.input.Stop()
}

func (s *Searcher) run(term string) {
	results, err := s.suggest(s.ctx, term)
	if err != nil {
		s.logger.Warn("Ошибка получения подсказок",
			interfaces.LogField{Key: "term", Value: term},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
		return
	}
	s.deliver(term, results)
}

func (s *Searcher) deliver(term string, results []models.SearchSuggestion) {
	s.mu.Lock()
	// ответ на устаревший ввод не применяется
	if term != s.term {
		s.mu.Unlock()
		return
	}
	s.results = results
	fn := s.onDone
	s.mu.Unlock()

	if fn != nil {
		fn(term, results)
	}
}
