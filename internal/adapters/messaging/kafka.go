package messaging

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/athebyme/shopsync-service/pkg/interfaces"
	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/google/uuid"
)

// consumerConfig — настройки потребителя для одной подписки
type consumerConfig struct {
	groupID            string
	autoCommit         bool
	autoCommitInterval time.Duration
	pollTimeout        time.Duration
}

// KafkaMessaging реализация MessagingPort с использованием Kafka
type KafkaMessaging struct {
	producer        *kafka.Producer
	consumers       map[string]*kafka.Consumer
	consumersMutex  sync.RWMutex
	handlers        map[string]map[string]interfaces.MessageHandler // topic -> handlerID -> handler
	handlersMutex   sync.RWMutex
	brokers         string
	groupID         string
	deadLetterTopic string
	logger          interfaces.LoggerPort
}

// NewKafkaMessaging создает новый экземпляр KafkaMessaging.
// Сообщения, обработка которых завершилась ошибкой, переотправляются
// в deadLetterTopic (если тот задан) и коммитятся как обработанные.
func NewKafkaMessaging(brokers []string, groupID string, deadLetterTopic string, logger interfaces.LoggerPort) (interfaces.MessagingPort, error) {
	bootstrapServers := strings.Join(brokers, ",")

	producer, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers":            bootstrapServers,
		"client.id":                    "shopsync-producer",
		"acks":                         "all", // максимальная надежность
		"retries":                      5,
		"retry.backoff.ms":             500,
		"compression.type":             "snappy",
		"linger.ms":                    10, // небольшая задержка для батчинга
		"batch.size":                   16384,
		"message.max.bytes":            1000000,
		"queue.buffering.max.messages": 100000,
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка создания Kafka producer: %w", err)
	}

	return &KafkaMessaging{
		producer:        producer,
		consumers:       make(map[string]*kafka.Consumer),
		handlers:        make(map[string]map[string]interfaces.MessageHandler),
		brokers:         bootstrapServers,
		groupID:         groupID,
		deadLetterTopic: deadLetterTopic,
		logger:          logger,
	}, nil
}

// messageToKafkaMessage преобразует Message в kafka.Message
func messageToKafkaMessage(topic string, message []byte, key string, headers map[string]string) *kafka.Message {
	var kafkaHeaders []kafka.Header
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{
			Key:   k,
			Value: []byte(v),
		})
	}

	// Служебные заголовки
	kafkaHeaders = append(kafkaHeaders,
		kafka.Header{Key: "message_id", Value: []byte(uuid.New().String())},
		kafka.Header{Key: "timestamp", Value: []byte(time.Now().UTC().Format(time.RFC3339Nano))},
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

// kafkaMessageToMessage преобразует kafka.Message в Message
func kafkaMessageToMessage(msg *kafka.Message) *interfaces.Message {
	headers := make(map[string]string)
	for _, header := range msg.Headers {
		headers[header.Key] = string(header.Value)
	}

	var key string
	if msg.Key != nil {
		key = string(msg.Key)
	}

	publishedAt := time.Now()
	if tsStr, ok := headers["timestamp"]; ok {
		if ts, err := time.Parse(time.RFC3339Nano, tsStr); err == nil {
			publishedAt = ts
		}
	}

	return &interfaces.Message{
		ID:          headers["message_id"],
		Topic:       *msg.TopicPartition.Topic,
		Key:         key,
		Value:       msg.Value,
		Headers:     headers,
		TenantID:    headers["tenant_id"],
		PublishedAt: publishedAt,
	}
}

// Publish публикует сообщение в указанную тему
func (k *KafkaMessaging) Publish(ctx context.Context, topic string, message []byte) error {
	msg := messageToKafkaMessage(topic, message, "", nil)
	return k.producer.Produce(msg, nil)
}

// PublishWithKey публикует сообщение с указанным ключом партиционирования
func (k *KafkaMessaging) PublishWithKey(ctx context.Context, topic string, key string, message []byte) error {
	msg := messageToKafkaMessage(topic, message, key, nil)
	return k.producer.Produce(msg, nil)
}

// PublishForTenant публикует сообщение с учетом ID арендатора
func (k *KafkaMessaging) PublishForTenant(ctx context.Context, topic string, message []byte, tenantID string) error {
	headers := map[string]string{"tenant_id": tenantID}
	msg := messageToKafkaMessage(topic, message, tenantID, headers)
	return k.producer.Produce(msg, nil)
}

// Subscribe подписывается на указанную тему и обрабатывает сообщения с помощью handler.
// Возвращает функцию для отмены подписки.
func (k *KafkaMessaging) Subscribe(ctx context.Context, topic string, handler interfaces.MessageHandler) (func() error, error) {
	config := &consumerConfig{
		groupID:            k.groupID,
		autoCommit:         true,
		autoCommitInterval: 5 * time.Second,
		pollTimeout:        100 * time.Millisecond,
	}

	handlerID := uuid.New().String()

	k.handlersMutex.Lock()
	if _, ok := k.handlers[topic]; !ok {
		k.handlers[topic] = make(map[string]interfaces.MessageHandler)
	}
	k.handlers[topic][handlerID] = handler
	k.handlersMutex.Unlock()

	kafkaConfig := &kafka.ConfigMap{
		"bootstrap.servers":       k.brokers,
		"group.id":                config.groupID,
		"auto.offset.reset":       "latest",
		"enable.auto.commit":      config.autoCommit,
		"auto.commit.interval.ms": int(config.autoCommitInterval.Milliseconds()),
		"session.timeout.ms":      30000,
		"max.poll.interval.ms":    300000,
		"heartbeat.interval.ms":   3000,
		"fetch.wait.max.ms":       500,
		"reconnect.backoff.ms":    50,
		"reconnect.backoff.max.ms": 10000,
	}

	consumer, err := kafka.NewConsumer(kafkaConfig)
	if err != nil {
		k.handlersMutex.Lock()
		delete(k.handlers[topic], handlerID)
		k.handlersMutex.Unlock()
		return nil, fmt.Errorf("ошибка создания Kafka consumer: %w", err)
	}

	if err := consumer.Subscribe(topic, nil); err != nil {
		k.handlersMutex.Lock()
		delete(k.handlers[topic], handlerID)
		k.handlersMutex.Unlock()
		consumer.Close()
		return nil, fmt.Errorf("ошибка подписки на топик %s: %w", topic, err)
	}

	k.consumersMutex.Lock()
	k.consumers[handlerID] = consumer
	k.consumersMutex.Unlock()

	go k.consumeMessages(ctx, consumer, topic, handlerID, config)

	unsubscribe := func() error {
		k.handlersMutex.Lock()
		delete(k.handlers[topic], handlerID)
		k.handlersMutex.Unlock()

		k.consumersMutex.Lock()
		consumer := k.consumers[handlerID]
		delete(k.consumers, handlerID)
		k.consumersMutex.Unlock()

		if consumer != nil {
			return consumer.Close()
		}
		return nil
	}

	return unsubscribe, nil
}

// consumeMessages обрабатывает сообщения из Kafka
func (k *KafkaMessaging) consumeMessages(ctx context.Context, consumer *kafka.Consumer, topic, handlerID string, config *consumerConfig) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			ev := consumer.Poll(int(config.pollTimeout.Milliseconds()))
			if ev == nil {
				continue
			}

			switch e := ev.(type) {
			case *kafka.Message:
				msg := kafkaMessageToMessage(e)

				k.handlersMutex.RLock()
				handlers, ok := k.handlers[topic]
				if !ok {
					k.handlersMutex.RUnlock()
					continue
				}
				handler, ok := handlers[handlerID]
				k.handlersMutex.RUnlock()
				if !ok {
					continue
				}

				if err := handler(ctx, msg); err != nil {
					k.logger.ErrorWithContext(ctx, "ошибка обработки сообщения",
						interfaces.LogField{Key: "topic", Value: topic},
						interfaces.LogField{Key: "message_id", Value: msg.ID},
						interfaces.LogField{Key: "error", Value: err.Error()},
					)
					k.sendToDeadLetter(ctx, msg, err)
				}
			case kafka.Error:
				k.logger.ErrorWithContext(ctx, "ошибка Kafka consumer",
					interfaces.LogField{Key: "topic", Value: topic},
					interfaces.LogField{Key: "code", Value: e.Code().String()},
					interfaces.LogField{Key: "error", Value: e.Error()},
				)
			}
		}
	}
}

// sendToDeadLetter переотправляет необработанное сообщение в dead-letter топик
func (k *KafkaMessaging) sendToDeadLetter(ctx context.Context, msg *interfaces.Message, cause error) {
	if k.deadLetterTopic == "" {
		return
	}

	headers := make(map[string]string, len(msg.Headers)+2)
	for key, value := range msg.Headers {
		headers[key] = value
	}
	headers["original_topic"] = msg.Topic
	headers["error"] = cause.Error()

	deadLetterMsg := messageToKafkaMessage(k.deadLetterTopic, msg.Value, msg.Key, headers)
	if err := k.producer.Produce(deadLetterMsg, nil); err != nil {
		k.logger.ErrorWithContext(ctx, "ошибка отправки в dead-letter топик",
			interfaces.LogField{Key: "topic", Value: k.deadLetterTopic},
			interfaces.LogField{Key: "message_id", Value: msg.ID},
			interfaces.LogField{Key: "error", Value: err.Error()},
		)
	}
}

// Close закрывает producer и все активные consumer'ы
func (k *KafkaMessaging) Close() error {
	k.consumersMutex.Lock()
	for id, consumer := range k.consumers {
		_ = consumer.Close()
		delete(k.consumers, id)
	}
	k.consumersMutex.Unlock()

	k.producer.Flush(5000)
	k.producer.Close()
	return nil
}
