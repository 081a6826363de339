package messaging

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/athebyme/gomarket-storefront/pkg/errors"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/google/uuid"
)

// MemoryMessaging шина сообщений в памяти процесса. Обработчики вызываются
// синхронно из Publish. Используется, когда Kafka выключена, и в тестах.
type MemoryMessaging struct {
	mu        sync.RWMutex
	handlers  map[string]map[string]interfaces.MessageHandler
	published []interfaces.Message
	config    interfaces.ConsumerConfig
	logger    interfaces.LoggerPort
	closed    bool
}

// NewMemoryMessaging создает шину в памяти
func NewMemoryMessaging(config interfaces.ConsumerConfig, logger interfaces.LoggerPort) *MemoryMessaging {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	return &MemoryMessaging{
		handlers: make(map[string]map[string]interfaces.MessageHandler),
		config:   config,
		logger:   logger,
	}
}

// Publish публикует сообщение в указанную тему
func (m *MemoryMessaging) Publish(ctx context.Context, topic string, message []byte) error {
	return m.PublishWithHeaders(ctx, topic, "", message, nil)
}

// PublishWithKey публикует сообщение с указанным ключом
func (m *MemoryMessaging) PublishWithKey(ctx context.Context, topic, key string, message []byte) error {
	return m.PublishWithHeaders(ctx, topic, key, message, nil)
}

// PublishWithHeaders публикует сообщение с заголовками и доставляет его подписчикам
func (m *MemoryMessaging) PublishWithHeaders(ctx context.Context, topic, key string, message []byte, headers map[string]string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return apperrors.ErrPublisherClosed
	}

	hdrs := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		hdrs[k] = v
	}
	if hdrs[HeaderMessageID] == "" {
		hdrs[HeaderMessageID] = uuid.NewString()
	}
	msg := interfaces.Message{
		ID:          hdrs[HeaderMessageID],
		Topic:       topic,
		Key:         key,
		Value:       append([]byte(nil), message...),
		Headers:     hdrs,
		PublishedAt: time.Now().UTC(),
	}
	m.published = append(m.published, msg)

	handlers := make([]interfaces.MessageHandler, 0, len(m.handlers[topic]))
	for _, h := range m.handlers[topic] {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()
	messagesPublished.WithLabelValues(topic, "ok").Inc()

	for _, h := range handlers {
		delivered := msg
		if err := dispatch(ctx, m, &delivered, h, m.config, m.logger); err != nil {
			return err
		}
	}
	return nil
}

// Subscribe регистрирует обработчик темы
func (m *MemoryMessaging) Subscribe(_ context.Context, topic string, handler interfaces.MessageHandler) (func() error, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, apperrors.ErrPublisherClosed
	}

	id := uuid.NewString()
	if m.handlers[topic] == nil {
		m.handlers[topic] = make(map[string]interfaces.MessageHandler)
	}
	m.handlers[topic][id] = handler

	return func() error {
		m.mu.Lock()
		delete(m.handlers[topic], id)
		m.mu.Unlock()
		return nil
	}, nil
}

// Published возвращает опубликованные в тему сообщения
func (m *MemoryMessaging) Published(topic string) []interfaces.Message {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []interfaces.Message
	for _, msg := range m.published {
		if msg.Topic == topic {
			out = append(out, msg)
		}
	}
	return out
}

// Close закрывает шину
func (m *MemoryMessaging) Close() error {
	m.mu.Lock()
	m.closed = true
	m.handlers = make(map[string]map[string]interfaces.MessageHandler)
	m.mu.Unlock()
	return nil
}
