// Package errors общие ошибки портов инфраструктуры
package errors

import "errors"

// Ошибки кэша
var (
	ErrCacheMiss       = errors.New("cache miss")
	ErrLockNotAcquired = errors.New("lock not acquired")
)

// Ошибки брокера сообщений
var (
	ErrPublisherClosed = errors.New("publisher is closed")
)

