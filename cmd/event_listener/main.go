package main

import (
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/config"
	"github.com/nandanugg/openrelief/module/core/domain"
	report "github.com/nandanugg/openrelief/module/report/domain"
)

type binding struct {
	exchange string
	queue    string
	handle   func(*zap.Logger, amqp.Delivery)
}

var bindings = []binding{
	{exchange: "openrelief.alerts", queue: "tracker_alerts", handle: handleAlert},
	{exchange: "openrelief.reports", queue: "emergency_reports", handle: handleReport},
}

type envelope struct {
	Type       string                     `json:"type"`
	Transition *domain.GeofenceTransition `json:"transition,omitempty"`
	Alert      *domain.TrackerAlert       `json:"alert,omitempty"`
}

func main() {
	logger, err := config.NewLogger("info")
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()

	conn, err := config.NewRabbitMQ(cfg, logger)
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("rabbitmq channel", zap.Error(err))
	}
	defer func() { _ = ch.Close() }()

	for _, b := range bindings {
		msgs, err := consume(ch, b)
		if err != nil {
			logger.Fatal("consume", zap.String("queue", b.queue), zap.Error(err))
		}
		logger.Info("waiting for messages", zap.String("queue", b.queue))

		go func(b binding) {
			for msg := range msgs {
				b.handle(logger, msg)
			}
		}(b)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	logger.Info("shutting down")
}

func consume(ch *amqp.Channel, b binding) (<-chan amqp.Delivery, error) {
	if err := ch.ExchangeDeclare(b.exchange, "fanout", true, false, false, false, nil); err != nil {
		return nil, err
	}
	if _, err := ch.QueueDeclare(b.queue, true, false, false, false, nil); err != nil {
		return nil, err
	}
	if err := ch.QueueBind(b.queue, "", b.exchange, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(b.queue, "", true, false, false, false, nil)
}

func handleAlert(logger *zap.Logger, msg amqp.Delivery) {
	var env envelope
	if err := json.Unmarshal(msg.Body, &env); err != nil {
		logger.Warn("undecodable message", zap.Error(err))
		return
	}

	switch {
	case env.Transition != nil:
		t := env.Transition
		logger.Info("geofence transition",
			zap.String("tracker_id", t.TrackerID),
			zap.String("geofence", t.Geofence.Name),
			zap.String("action", string(t.Action)),
			zap.Int64("timestamp", t.Timestamp))
	case env.Alert != nil:
		a := env.Alert
		logger.Info("proximity alert",
			zap.String("tracker_id", a.TrackerID),
			zap.String("severity", string(a.Alert.Severity)),
			zap.String("message", a.Alert.Message),
			zap.Float64("distance_meters", a.Alert.DistanceMeters))
	default:
		logger.Warn("unknown message type", zap.String("type", env.Type))
	}
}

func handleReport(logger *zap.Logger, msg amqp.Delivery) {
	var r report.Report
	if err := json.Unmarshal(msg.Body, &r); err != nil {
		logger.Warn("undecodable report", zap.Error(err))
		return
	}
	logger.Info("emergency report",
		zap.String("report_id", r.ID),
		zap.Int64("submitted_at", r.SubmittedAt),
		zap.Any("type", r.Fields["type"]),
		zap.Any("title", r.Fields["title"]),
		zap.Any("location", r.Fields["location"]))
}
