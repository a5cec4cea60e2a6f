package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/internal/repository/publisher"
)

var _ publisher.AlertPublisher = (*AlertPublisher)(nil)

const (
	ExchangeName = "openrelief.alerts"
	QueueName    = "tracker_alerts"

	RoutingTransition = "geofence.transition"
	RoutingProximity  = "proximity.alert"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type AlertPublisher struct {
	ch channel
}

func NewAlertPublisher(conn *amqp.Connection) (*AlertPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		return nil, fmt.Errorf("bind queue: %w", err)
	}

	return &AlertPublisher{ch: ch}, nil
}

// Envelope is the wire format on the alerts exchange. Exactly one of
// Transition and Alert is set, matching Type.
type Envelope struct {
	Type       string                     `json:"type"`
	Transition *domain.GeofenceTransition `json:"transition,omitempty"`
	Alert      *domain.TrackerAlert       `json:"alert,omitempty"`
}

func (p *AlertPublisher) PublishTransition(ctx context.Context, t *domain.GeofenceTransition) error {
	return p.publish(ctx, RoutingTransition, Envelope{Type: RoutingTransition, Transition: t})
}

func (p *AlertPublisher) PublishAlert(ctx context.Context, a *domain.TrackerAlert) error {
	return p.publish(ctx, RoutingProximity, Envelope{Type: RoutingProximity, Alert: a})
}

func (p *AlertPublisher) publish(ctx context.Context, key string, env Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, key, false, false, amqp.Publishing{
		ContentType: "application/json",
		Type:        key,
		Body:        body,
	})
}
