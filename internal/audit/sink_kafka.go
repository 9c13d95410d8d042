package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"facegate/internal/platform/kafka/producer"
)

// KafkaSink publishes audit events to a Kafka topic, keyed by phone number so
// one identity's events land on one partition in order.
type KafkaSink struct {
	producer *producer.Producer
	topic    string
}

func NewKafkaSink(p *producer.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (k *KafkaSink) Append(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	return k.producer.Produce(ctx, &producer.Message{
		Topic: k.topic,
		Key:   []byte(event.PhoneNumber),
		Value: value,
		Headers: map[string]string{
			"action": event.Action,
		},
	})
}
