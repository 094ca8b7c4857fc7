package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/shashiranjanraj/bazaar/pkg/logger"
	"github.com/shashiranjanraj/bazaar/pkg/metrics"
)

// KafkaSink forwards events to a Kafka topic, keyed by Event.Key so that
// events for one entity stay ordered within a partition.
type KafkaSink struct {
	w *kafka.Writer
}

// NewKafkaSink returns a sink writing asynchronously to topic.
func NewKafkaSink(brokers []string, topic string) *KafkaSink {
	return &KafkaSink{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
			Completion: func(msgs []kafka.Message, err error) {
				for _, m := range msgs {
					name := headerValue(m.Headers, "event")
					metrics.EventsPublished.WithLabelValues(name, metrics.Result(err)).Inc()
				}
				if err != nil {
					logger.Error("event: kafka write failed", "count", len(msgs), "error", err)
				}
			},
		},
	}
}

// Handle is registered on the Bus with Sink.
func (s *KafkaSink) Handle(ctx context.Context, e Event) {
	msg, err := Encode(e)
	if err != nil {
		logger.WithCtx(ctx).Error("event: encode failed", "event", e.Name, "error", err)
		metrics.EventsPublished.WithLabelValues(e.Name, "error").Inc()
		return
	}
	// Async writer: this only enqueues. The request context must not cancel it.
	if err := s.w.WriteMessages(context.WithoutCancel(ctx), msg); err != nil {
		logger.WithCtx(ctx).Error("event: enqueue failed", "event", e.Name, "error", err)
	}
}

// Close flushes pending writes.
func (s *KafkaSink) Close() error {
	return s.w.Close()
}

// Encode renders e as a Kafka message.
func Encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("event: marshal %s: %w", e.Name, err)
	}
	return kafka.Message{
		Key:     []byte(e.Key),
		Value:   value,
		Time:    e.At,
		Headers: []kafka.Header{{Key: "event", Value: []byte(e.Name)}},
	}, nil
}

func headerValue(hs []kafka.Header, key string) string {
	for _, h := range hs {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
