package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

type ConfluentProducer struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

func NewConfluentProducer(cfg config.KafkaConfig) (*ConfluentProducer, error) {
	l := log.L()

	if err := ensureTopic(cfg.Brokers, cfg.Topic, cfg.Partitions); err != nil {
		l.Warn().Err(err).Str("topic", cfg.Topic).Msg("failed to ensure topic (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": cfg.Brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	cp := &ConfluentProducer{
		producer: p,
		topic:    cfg.Topic,
		doneCh:   make(chan struct{}),
	}

	go cp.deliveryReportHandler()

	return cp, nil
}

func ensureTopic(brokers, topic string, partitions int) error {
	if partitions <= 0 {
		partitions = 1
	}

	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{"bootstrap.servers": brokers})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{{
		Topic:             topic,
		NumPartitions:     partitions,
		ReplicationFactor: 1,
	}})
	if err != nil {
		return err
	}

	for _, result := range results {
		if code := result.Error.Code(); code != kafka.ErrNoError && code != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}
	return nil
}

func (cp *ConfluentProducer) deliveryReportHandler() {
	l := log.L()
	for e := range cp.producer.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			l.Warn().Err(ev.TopicPartition.Error).Str("topic", cp.topic).Msg("kafka delivery failed")
		}
	}
	close(cp.doneCh)
}

// ProduceEvent enqueues evt keyed by chat id, so one chat's events stay in
// one partition and keep their order.
func (cp *ConfluentProducer) ProduceEvent(_ context.Context, evt *domain.ChatEvent) error {
	value, err := encodeEvent(evt)
	if err != nil {
		return err
	}

	err = cp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &cp.topic, Partition: kafka.PartitionAny},
		Key:            []byte(evt.ChatID),
		Value:          value,
		Headers:        []kafka.Header{{Key: "event_type", Value: []byte(evt.Type)}},
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce chat event: %w", err)
	}
	return nil
}

func (cp *ConfluentProducer) Close() error {
	cp.producer.Flush(5000)
	cp.producer.Close()
	<-cp.doneCh
	return nil
}

func encodeEvent(evt *domain.ChatEvent) ([]byte, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat event: %w", err)
	}
	return value, nil
}
