package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"

	"github.com/randalmurphal/astchunk/internal/chunk"
)

// KafkaSink publishes each record as one message keyed by chunk ID.
type KafkaSink struct {
	producer sarama.SyncProducer
	topic    string
}

// NewKafkaSink wraps an existing producer. The sink owns it after this call.
func NewKafkaSink(producer sarama.SyncProducer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

// DialKafka creates a synchronous producer that waits for all in-sync replicas.
func DialKafka(brokers []string, topic string) (*KafkaSink, error) {
	cfg := sarama.NewConfig()
	cfg.ClientID = "astchunk"
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to kafka %v: %w", brokers, err)
	}
	return NewKafkaSink(producer, topic), nil
}

func (s *KafkaSink) Write(ctx context.Context, records []chunk.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msgs := make([]*sarama.ProducerMessage, len(records))
	for i := range records {
		r := &records[i]
		value, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal record %s: %w", r.ID, err)
		}
		msgs[i] = &sarama.ProducerMessage{
			Topic: s.topic,
			Key:   sarama.StringEncoder(r.ID),
			Value: sarama.ByteEncoder(value),
			Headers: []sarama.RecordHeader{
				{Key: []byte("language"), Value: []byte(r.Language)},
				{Key: []byte("file_path"), Value: []byte(r.FilePath)},
			},
		}
	}

	if err := s.producer.SendMessages(msgs); err != nil {
		return fmt.Errorf("publish %d records to %s: %w", len(msgs), s.topic, err)
	}
	return nil
}

func (s *KafkaSink) Close() error {
	return s.producer.Close()
}
