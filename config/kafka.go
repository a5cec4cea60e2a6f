package config

import (
	"time"

	"github.com/segmentio/kafka-go"
)

// NewEventReader returns a consumer-group reader on the emergency event feed.
// Offsets are committed explicitly by the consumer.
func NewEventReader(cfg *Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.KafkaBrokers,
		GroupID:  cfg.KafkaGroupID,
		Topic:    cfg.KafkaEventsTopic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
	})
}
