package alert

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
)

type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaSink publishes payloads as JSON, keyed by SKU or "global".
type KafkaSink struct {
	topic  string
	writer kafkaMessageWriter
	closer interface{ Close() error }
}

func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka alert topic must not be empty")
	}
	if len(brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: false,
	}
	return newKafkaSinkWithWriter(topic, w, w), nil
}

// newKafkaSinkWithWriter is used in tests.
func newKafkaSinkWithWriter(topic string, w kafkaMessageWriter, closer interface{ Close() error }) *KafkaSink {
	return &KafkaSink{topic: topic, writer: w, closer: closer}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Send(ctx context.Context, p Payload) error {
	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode alert payload: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(p.key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "severity", Value: []byte(p.Severity)},
		},
	}
	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
