package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/openrelief/module/report/domain"
	"github.com/nandanugg/openrelief/module/report/internal/repository/publisher"
)

var _ publisher.ReportPublisher = (*ReportPublisher)(nil)

const (
	ExchangeName = "openrelief.reports"
	QueueName    = "emergency_reports"
	RoutingKey   = "report.submitted"
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type ReportPublisher struct {
	ch channel
}

func NewReportPublisher(conn *amqp.Connection) (*ReportPublisher, error) {
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

	return &ReportPublisher{ch: ch}, nil
}

func (p *ReportPublisher) PublishReport(ctx context.Context, r *domain.Report) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    r.ID,
		Type:         RoutingKey,
		Body:         body,
	})
}
