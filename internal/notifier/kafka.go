package notifier

import (
	"context"
	"fmt"

	"stable_dashboard/internal/logger"
	"stable_dashboard/internal/models"

	"github.com/segmentio/kafka-go"
)

// KafkaConfig holds the topic and seed brokers for alert publishing.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier writes one message per alert, keyed by rule id so triggers of
// the same rule stay ordered within a partition.
type KafkaNotifier struct {
	writer kafkaMessageWriter
	topic  string
	log    *logger.Logger
}

func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func NewKafkaNotifier(w kafkaMessageWriter, topic string, log *logger.Logger) *KafkaNotifier {
	return &KafkaNotifier{writer: w, topic: topic, log: logger.OrNop(log).Named("notify.kafka")}
}

func (n *KafkaNotifier) Notify(ctx context.Context, alerts []models.TriggeredAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(alerts))
	for _, a := range alerts {
		payload, err := encode(a)
		if err != nil {
			return fmt.Errorf("encode alert %s: %w", a.ID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(a.ID),
			Value: payload,
			Headers: []kafka.Header{
				{Key: "entity_id", Value: []byte(a.EntityID)},
			},
		})
	}
	if err := n.writer.WriteMessages(ctx, msgs...); err != nil {
		n.log.Errorw("kafka_publish_failed", "topic", n.topic, "count", len(msgs), "error", err)
		return fmt.Errorf("write %d alerts to %s: %w", len(msgs), n.topic, err)
	}
	n.log.Debugw("kafka_published", "topic", n.topic, "count", len(msgs))
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
