package shop

import (
	"strings"
	"sync"
)

// Location текущий адрес списка. Строка запроса - единственный источник состояния фильтров.
type Location interface {
	Path() string
	RawQuery() string
}

// Navigator выполняет переход по новому адресу
type Navigator interface {
	Navigate(target string) error
}

// MemoryLocation адрес в памяти: переход меняет текущий адрес.
// Используется долгоживущими клиентами (CLI) и в тестах.
type MemoryLocation struct {
	mu      sync.RWMutex
	path    string
	query   string
	history []string
}

// NewMemoryLocation создает адрес из пути и строки запроса
func NewMemoryLocation(path, rawQuery string) *MemoryLocation {
	return &MemoryLocation{path: path, query: strings.TrimPrefix(rawQuery, "?")}
}

// Path реализует Location
func (l *MemoryLocation) Path() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.path
}

// RawQuery реализует Location
func (l *MemoryLocation) RawQuery() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.query
}

// Navigate реализует Navigator
func (l *MemoryLocation) Navigate(target string) error {
	path, query, _ := strings.Cut(target, "?")

	l.mu.Lock()
	defer l.mu.Unlock()
	l.path = path
	l.query = query
	l.history = append(l.history, target)
	return nil
}

// URL возвращает текущий адрес целиком
func (l *MemoryLocation) URL() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.query == "" {
		return l.path
	}
	return l.path + "?" + l.query
}

// History возвращает все выполненные переходы
func (l *MemoryLocation) History() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, len(l.history))
	copy(out, l.history)
	return out
}
