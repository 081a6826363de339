package messaging

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
)

// headerPublisher публикует сообщение с заголовками (нужен для dead letter)
type headerPublisher interface {
	PublishWithHeaders(ctx context.Context, topic, key string, message []byte, headers map[string]string) error
}

// dispatch вызывает обработчик до MaxAttempts раз. Если все попытки неудачны,
// сообщение уходит в DeadLetterTopic. Ошибка возвращается, только если сообщение
// нельзя считать обработанным.
func dispatch(ctx context.Context, pub headerPublisher, msg *interfaces.Message, handler interfaces.MessageHandler, config interfaces.ConsumerConfig, logger interfaces.LoggerPort) error {
	var lastErr error
	for attempt := 1; attempt <= config.MaxAttempts; attempt++ {
		msg.Attempts++
		lastErr = handler(ctx, msg)
		if lastErr == nil {
			messagesConsumed.WithLabelValues(msg.Topic, "ok").Inc()
			return nil
		}

		logger.Warn("Ошибка обработки сообщения",
			interfaces.LogField{Key: "topic", Value: msg.Topic},
			interfaces.LogField{Key: "message_id", Value: msg.ID},
			interfaces.LogField{Key: "attempt", Value: attempt},
			interfaces.LogField{Key: "error", Value: lastErr.Error()},
		)
		messagesConsumed.WithLabelValues(msg.Topic, "retry").Inc()

		if attempt == config.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(config.RetryBackoff * time.Duration(attempt)):
		}
	}

	if config.DeadLetterTopic == "" {
		logger.Error("Сообщение отброшено после исчерпания попыток",
			interfaces.LogField{Key: "topic", Value: msg.Topic},
			interfaces.LogField{Key: "message_id", Value: msg.ID},
		)
		messagesConsumed.WithLabelValues(msg.Topic, "dropped").Inc()
		return nil
	}

	headers := make(map[string]string, len(msg.Headers)+3)
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers[HeaderAttempts] = strconv.Itoa(msg.Attempts)
	headers[HeaderError] = lastErr.Error()
	headers["source_topic"] = msg.Topic

	if err := pub.PublishWithHeaders(context.WithoutCancel(ctx), config.DeadLetterTopic, msg.Key, msg.Value, headers); err != nil {
		return fmt.Errorf("failed to publish to dead letter topic: %w", err)
	}

	logger.Error("Сообщение отправлено в dead letter",
		interfaces.LogField{Key: "topic", Value: msg.Topic},
		interfaces.LogField{Key: "dead_letter_topic", Value: config.DeadLetterTopic},
		interfaces.LogField{Key: "message_id", Value: msg.ID},
	)
	messagesConsumed.WithLabelValues(msg.Topic, "dead_letter").Inc()
	return nil
}
