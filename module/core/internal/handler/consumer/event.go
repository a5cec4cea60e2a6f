package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/metrics"
	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/spatial"
)

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type eventRegistry interface {
	Upsert(ev domain.EmergencyEvent)
	Remove(id string)
}

// EventMessage is one record of the emergency event feed. Location is
// "<lat> <lng>".
type EventMessage struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Severity int    `json:"severity"`
	Location string `json:"location"`
	Deleted  bool   `json:"deleted"`
}

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// EventConsumer mirrors the emergency event topic into the registry.
type EventConsumer struct {
	reader   messageReader
	registry eventRegistry
	metrics  *metrics.Metrics
	logger   *zap.Logger

	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewEventConsumer(reader messageReader, registry eventRegistry, m *metrics.Metrics, logger *zap.Logger) *EventConsumer {
	return &EventConsumer{
		reader:     reader,
		registry:   registry,
		metrics:    m,
		logger:     logger.Named("event-consumer"),
		minBackoff: minBackoff,
		maxBackoff: maxBackoff,
	}
}

// Run consumes until ctx is cancelled. Undecodable records are committed and
// dropped so one bad record cannot stall the partition. Broker errors are
// retried with exponential backoff.
func (c *EventConsumer) Run(ctx context.Context) error {
	defer func() { _ = c.reader.Close() }()

	backoff := c.minBackoff
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			if !c.retry(ctx, "fetch", err, &backoff) {
				return nil
			}
			continue
		}

		c.apply(msg)

		for {
			err := c.reader.CommitMessages(ctx, msg)
			if err == nil {
				break
			}
			if ctx.Err() != nil || !c.retry(ctx, "commit", err, &backoff) {
				return nil
			}
		}
		backoff = c.minBackoff
	}
}

// retry logs err, waits out the current backoff and doubles it. It reports
// false when ctx ends while waiting.
func (c *EventConsumer) retry(ctx context.Context, op string, err error, backoff *time.Duration) bool {
	c.metrics.EventFeedErrors.WithLabelValues(op).Inc()
	c.logger.Warn("event feed error, retrying",
		zap.String("op", op),
		zap.Duration("backoff", *backoff),
		zap.Error(err))

	t := time.NewTimer(*backoff)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
	}

	*backoff *= 2
	if *backoff > c.maxBackoff {
		*backoff = c.maxBackoff
	}
	return true
}

func (c *EventConsumer) apply(msg kafka.Message) {
	var raw EventMessage
	if err := json.Unmarshal(msg.Value, &raw); err != nil {
		c.metrics.EventsConsumed.WithLabelValues("invalid").Inc()
		c.logger.Warn("invalid event message", zap.Int64("offset", msg.Offset), zap.Error(err))
		return
	}
	if raw.ID == "" {
		raw.ID = string(msg.Key)
	}
	if raw.ID == "" {
		c.metrics.EventsConsumed.WithLabelValues("invalid").Inc()
		c.logger.Warn("event message without id", zap.Int64("offset", msg.Offset))
		return
	}

	if raw.Deleted {
		c.registry.Remove(raw.ID)
		c.metrics.EventsConsumed.WithLabelValues("remove").Inc()
		return
	}

	// kept even when malformed: the tracker skips it per check, and a later
	// correction of the same id replaces it
	if _, err := spatial.ParseLocationText(raw.Location); err != nil {
		c.logger.Warn("event location does not follow \"<lat> <lng>\"",
			zap.String("event_id", raw.ID),
			zap.Error(err))
	}

	c.registry.Upsert(domain.EmergencyEvent{
		ID:           raw.ID,
		Title:        raw.Title,
		Severity:     raw.Severity,
		LocationText: raw.Location,
	})
	c.metrics.EventsConsumed.WithLabelValues("upsert").Inc()
}
