package interfaces

import (
	"context"
	"time"
)

// Message представляет сообщение в системе
type Message struct {
	ID          string            `json:"id"`           // Уникальный ID сообщения
	Topic       string            `json:"topic"`        // Тема сообщения
	Key         string            `json:"key"`          // Ключ сообщения (опционально)
	Value       []byte            `json:"value"`        // Содержимое сообщения
	Headers     map[string]string `json:"headers"`      // Заголовки сообщения
	PublishedAt time.Time         `json:"published_at"` // Время публикации
	Attempts    int               `json:"attempts"`     // Число попыток доставки
}

// MessageHandler определяет функцию обработчика сообщений
type MessageHandler func(ctx context.Context, msg *Message) error

// ConsumerConfig содержит настройки для подписчика на сообщения
type ConsumerConfig struct {
	GroupID            string        // ID группы потребителей
	AutoCommit         bool          // Автоматически подтверждать полученные сообщения
	AutoCommitInterval time.Duration // Интервал автоматического подтверждения
	PollTimeout        time.Duration // Таймаут для опроса новых сообщений
	MaxAttempts        int           // Число попыток обработки до отправки в dead letter
	RetryBackoff       time.Duration // Пауза между попытками обработки
	DeadLetterTopic    string        // Тема для необработанных сообщений (пусто - не отправлять)
}

// ProducerConfig содержит настройки для отправителя сообщений
type ProducerConfig struct {
	ClientID     string        // Идентификатор клиента
	LingerMs     time.Duration // Время ожидания заполнения пакета
	Compression  string        // Тип сжатия (none, gzip, snappy, lz4, zstd)
	RequiredAcks string        // Требуемые подтверждения (all, 1, 0)
	RetryBackoff time.Duration // Время между повторными попытками
	MaxRetries   int           // Максимальное число повторных попыток
}

// MessagingPort определяет интерфейс публикации и получения событий
type MessagingPort interface {
	// Publish публикует сообщение и ждет подтверждения доставки
	Publish(ctx context.Context, topic string, message []byte) error

	// PublishWithKey публикует сообщение с ключом партиционирования
	PublishWithKey(ctx context.Context, topic, key string, message []byte) error

	// Subscribe подписывается на тему; возвращает функцию отписки
	Subscribe(ctx context.Context, topic string, handler MessageHandler) (func() error, error)

	Close() error
}
