package messaging

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/athebyme/gomarket-storefront/pkg/errors"
	"github.com/athebyme/gomarket-storefront/pkg/interfaces"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
)

// Служебные заголовки сообщений
const (
	HeaderMessageID = "message_id"
	HeaderTimestamp = "timestamp"
	HeaderAttempts  = "attempts"
	HeaderError     = "error"
)

// Параметры повторной обработки по умолчанию
const (
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 200 * time.Millisecond
)

// KafkaMessaging реализация MessagingPort с использованием Kafka
type KafkaMessaging struct {
	producer    *kafka.Producer
	subs        map[string]*subscription
	subsMutex   sync.Mutex
	brokers     string
	consumerCfg interfaces.ConsumerConfig
	logger      interfaces.LoggerPort

	closed   bool
	closeMu  sync.RWMutex
	eventsWg sync.WaitGroup
}

// subscription активная подписка на тему
type subscription struct {
	consumer *kafka.Consumer
	cancel   context.CancelFunc
	done     chan struct{}
	once     sync.Once
	err      error
}

// stop останавливает чтение и закрывает consumer
func (s *subscription) stop() error {
	s.once.Do(func() {
		s.cancel()
		<-s.done
		s.err = s.consumer.Close()
	})
	return s.err
}

// NewKafkaMessaging создает новый экземпляр KafkaMessaging
func NewKafkaMessaging(brokers []string, producerCfg interfaces.ProducerConfig, consumerCfg interfaces.ConsumerConfig, logger interfaces.LoggerPort) (*KafkaMessaging, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("kafka brokers are empty")
	}
	servers := strings.Join(brokers, ",")

	cfg := &kafka.ConfigMap{
		"bootstrap.servers":            servers,
		"client.id":                    orDefault(producerCfg.ClientID, "storefront-producer"),
		"acks":                         orDefault(producerCfg.RequiredAcks, "all"),
		"retries":                      producerCfg.MaxRetries,
		"retry.backoff.ms":             int(producerCfg.RetryBackoff.Milliseconds()),
		"compression.type":             orDefault(producerCfg.Compression, "snappy"),
		"linger.ms":                    int(producerCfg.LingerMs.Milliseconds()),
		"message.max.bytes":            1000000,
		"queue.buffering.max.messages": 100000,
	}

	producer, err := kafka.NewProducer(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	if consumerCfg.PollTimeout <= 0 {
		consumerCfg.PollTimeout = 100 * time.Millisecond
	}
	if consumerCfg.MaxAttempts <= 0 {
		consumerCfg.MaxAttempts = DefaultMaxAttempts
	}
	if consumerCfg.RetryBackoff <= 0 {
		consumerCfg.RetryBackoff = DefaultRetryBackoff
	}

	k := &KafkaMessaging{
		producer:    producer,
		subs:        make(map[string]*subscription),
		brokers:     servers,
		consumerCfg: consumerCfg,
		logger:      logger,
	}

	k.eventsWg.Add(1)
	go k.drainProducerEvents()

	return k, nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// drainProducerEvents читает события продюсера, не привязанные к конкретной отправке
func (k *KafkaMessaging) drainProducerEvents() {
	defer k.eventsWg.Done()
	for ev := range k.producer.Events() {
		switch e := ev.(type) {
		case *kafka.Message:
			if e.TopicPartition.Error != nil {
				k.logger.Error("Ошибка доставки сообщения",
					interfaces.LogField{Key: "topic", Value: topicOf(e)},
					interfaces.LogField{Key: "error", Value: e.TopicPartition.Error.Error()},
				)
			}
		case kafka.Error:
			k.logger.Warn("Ошибка Kafka producer", interfaces.LogField{Key: "error", Value: e.Error()})
		}
	}
}

func topicOf(m *kafka.Message) string {
	if m.TopicPartition.Topic == nil {
		return ""
	}
	return *m.TopicPartition.Topic
}

// toKafkaMessage преобразует данные в kafka.Message
func toKafkaMessage(topic string, message []byte, key string, headers map[string]string) *kafka.Message {
	kafkaHeaders := make([]kafka.Header, 0, len(headers)+2)
	for k, v := range headers {
		if k == HeaderMessageID || k == HeaderTimestamp {
			continue
		}
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}

	id := headers[HeaderMessageID]
	if id == "" {
		id = uuid.NewString()
	}
	kafkaHeaders = append(kafkaHeaders,
		kafka.Header{Key: HeaderMessageID, Value: []byte(id)},
		kafka.Header{Key: HeaderTimestamp, Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
	)

	var keyBytes []byte
	if key != "" {
		keyBytes = []byte(key)
	}

	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Value:          message,
		Key:            keyBytes,
		Headers:        kafkaHeaders,
	}
}

// fromKafkaMessage преобразует kafka.Message в Message
func fromKafkaMessage(msg *kafka.Message) *interfaces.Message {
	headers := make(map[string]string, len(msg.Headers))
	for _, header := range msg.Headers {
		headers[header.Key] = string(header.Value)
	}

	publishedAt := msg.Timestamp
	if ts, err := time.Parse(time.RFC3339Nano, headers[HeaderTimestamp]); err == nil {
		publishedAt = ts
	}
	attempts, _ := strconv.Atoi(headers[HeaderAttempts])

	return &interfaces.Message{
		ID:          headers[HeaderMessageID],
		Topic:       topicOf(msg),
		Key:         string(msg.Key),
		Value:       msg.Value,
		Headers:     headers,
		PublishedAt: publishedAt,
		Attempts:    attempts,
	}
}

// Publish публикует сообщение в указанную тему
func (k *KafkaMessaging) Publish(ctx context.Context, topic string, message []byte) error {
	return k.produce(ctx, toKafkaMessage(topic, message, "", nil))
}

// PublishWithKey публикует сообщение с указанным ключом
func (k *KafkaMessaging) PublishWithKey(ctx context.Context, topic, key string, message []byte) error {
	return k.produce(ctx, toKafkaMessage(topic, message, key, nil))
}

// PublishWithHeaders публикует сообщение с дополнительными заголовками
func (k *KafkaMessaging) PublishWithHeaders(ctx context.Context, topic, key string, message []byte, headers map[string]string) error {
	return k.produce(ctx, toKafkaMessage(topic, message, key, headers))
}

// produce отправляет сообщение и ждет отчета о доставке
func (k *KafkaMessaging) produce(ctx context.Context, msg *kafka.Message) error {
	k.closeMu.RLock()
	defer k.closeMu.RUnlock()
	if k.closed {
		return apperrors.ErrPublisherClosed
	}

	topic := topicOf(msg)
	delivery := make(chan kafka.Event, 1)
	if err := k.producer.Produce(msg, delivery); err != nil {
		messagesPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("failed to produce message to %s: %w", topic, err)
	}

	select {
	case ev := <-delivery:
		m, ok := ev.(*kafka.Message)
		if ok && m.TopicPartition.Error != nil {
			messagesPublished.WithLabelValues(topic, "error").Inc()
			return fmt.Errorf("failed to deliver message to %s: %w", topic, m.TopicPartition.Error)
		}
		messagesPublished.WithLabelValues(topic, "ok").Inc()
		return nil
	case <-ctx.Done():
		messagesPublished.WithLabelValues(topic, "timeout").Inc()
		return ctx.Err()
	}
}

// Subscribe подписывается на указанную тему и обрабатывает сообщения с помощью handler
func (k *KafkaMessaging) Subscribe(ctx context.Context, topic string, handler interfaces.MessageHandler) (func() error, error) {
	return k.SubscribeWithConfig(ctx, topic, handler, k.consumerCfg)
}

// SubscribeWithConfig подписывается на указанную тему с дополнительными настройками
func (k *KafkaMessaging) SubscribeWithConfig(ctx context.Context, topic string, handler interfaces.MessageHandler, config interfaces.ConsumerConfig) (func() error, error) {
	k.closeMu.RLock()
	defer k.closeMu.RUnlock()
	if k.closed {
		return nil, apperrors.ErrPublisherClosed
	}

	if config.PollTimeout <= 0 {
		config.PollTimeout = k.consumerCfg.PollTimeout
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}

	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":        k.brokers,
		"group.id":                 config.GroupID,
		"auto.offset.reset":        "earliest",
		"enable.auto.commit":       config.AutoCommit,
		"auto.commit.interval.ms":  int(config.AutoCommitInterval.Milliseconds()),
		"session.timeout.ms":       30000,
		"max.poll.interval.ms":     300000,
		"heartbeat.interval.ms":    3000,
		"reconnect.backoff.ms":     50,
		"reconnect.backoff.max.ms": 10000,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}

	if err := consumer.Subscribe(topic, nil); err != nil {
		consumer.Close()
		return nil, fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	consumeCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{consumer: consumer, cancel: cancel, done: make(chan struct{})}

	id := uuid.NewString()
	k.subsMutex.Lock()
	k.subs[id] = sub
	k.subsMutex.Unlock()

	go func() {
		defer close(sub.done)
		k.consume(consumeCtx, consumer, handler, config)
	}()

	unsubscribe := func() error {
		k.subsMutex.Lock()
		delete(k.subs, id)
		k.subsMutex.Unlock()
		return sub.stop()
	}

	return unsubscribe, nil
}

// consume обрабатывает сообщения из Kafka до отмены контекста
func (k *KafkaMessaging) consume(ctx context.Context, consumer *kafka.Consumer, handler interfaces.MessageHandler, config interfaces.ConsumerConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		ev := consumer.Poll(int(config.PollTimeout.Milliseconds()))
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *kafka.Message:
			msg := fromKafkaMessage(e)
			if err := k.Dispatch(ctx, msg, handler, config); err != nil {
				// сообщение не подтверждается и будет прочитано повторно
				continue
			}
			if !config.AutoCommit {
				if _, err := consumer.CommitMessage(e); err != nil {
					k.logger.Warn("Не удалось подтвердить сообщение",
						interfaces.LogField{Key: "topic", Value: msg.Topic},
						interfaces.LogField{Key: "error", Value: err.Error()},
					)
				}
			}

		case kafka.Error:
			k.logger.Error("Ошибка Kafka consumer", interfaces.LogField{Key: "error", Value: e.Error()})
			if e.Code() == kafka.ErrAllBrokersDown {
				return
			}

		case kafka.PartitionEOF:
			k.logger.Debug("Достигнут конец партиции", interfaces.LogField{Key: "partition", Value: e.String()})
		}
	}
}

// Dispatch вызывает обработчик с повторами; после исчерпания попыток отправляет
// сообщение в dead letter тему. Возвращает ошибку, только если сообщение нельзя подтверждать.
func (k *KafkaMessaging) Dispatch(ctx context.Context, msg *interfaces.Message, handler interfaces.MessageHandler, config interfaces.ConsumerConfig) error {
	return dispatch(ctx, k, msg, handler, config, k.logger)
}

// Close закрывает соединение с системой обмена сообщениями
func (k *KafkaMessaging) Close() error {
	k.closeMu.Lock()
	if k.closed {
		k.closeMu.Unlock()
		return nil
	}
	k.closed = true
	k.closeMu.Unlock()

	k.subsMutex.Lock()
	subs := k.subs
	k.subs = make(map[string]*subscription)
	k.subsMutex.Unlock()

	for _, sub := range subs {
		if err := sub.stop(); err != nil {
			k.logger.Warn("Ошибка закрытия consumer", interfaces.LogField{Key: "error", Value: err.Error()})
		}
	}

	if remaining := k.producer.Flush(15 * 1000); remaining > 0 {
		k.logger.Warn("Не все сообщения отправлены при закрытии", interfaces.LogField{Key: "remaining", Value: remaining})
	}
	k.producer.Close()
	k.eventsWg.Wait()

	return nil
}
