package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/linesmerrill/police-case-api/models"
)

// Producer is the part of *kgo.Client the Kafka publisher uses
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// Kafka writes every event as JSON to one topic, keyed by case so the
// events of a case stay ordered within a partition
type Kafka struct {
	producer Producer
	topic    string
}

// NewKafka connects a producer to brokers
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return NewKafkaWithProducer(client, topic), nil
}

// NewKafkaWithProducer returns a Kafka publisher over an existing producer
func NewKafkaWithProducer(p Producer, topic string) *Kafka {
	return &Kafka{producer: p, topic: topic}
}

// Publish implements workflow.Publisher
func (k *Kafka) Publish(ctx context.Context, events []models.Event) error {
	records := make([]*kgo.Record, 0, len(events))
	for _, ev := range events {
		value, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", ev.Type, err)
		}
		key := uuid.NewString()
		if ev.CaseID != 0 {
			key = strconv.FormatInt(ev.CaseID, 10)
		}
		records = append(records, &kgo.Record{
			Topic: k.topic,
			Key:   []byte(key),
			Value: value,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(ev.Type)},
			},
		})
	}
	if len(records) == 0 {
		return nil
	}
	return k.producer.ProduceSync(ctx, records...).FirstErr()
}

// Close flushes and closes the producer
func (k *Kafka) Close() {
	k.producer.Close()
}
