package core

import (
	"context"
	"database/sql"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/metrics"
	"github.com/nandanugg/openrelief/module/core/internal/handler/consumer"
	handler "github.com/nandanugg/openrelief/module/core/internal/handler/http"
	"github.com/nandanugg/openrelief/module/core/internal/handler/subscriber"
	"github.com/nandanugg/openrelief/module/core/internal/repository/database/postgres"
	"github.com/nandanugg/openrelief/module/core/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/openrelief/module/core/service"
)

type Deps struct {
	DB          *sql.DB
	AMQP        *amqp.Connection
	MQTT        mqtt.Client
	EventReader *kafka.Reader
	Metrics     *metrics.Metrics
	Logger      *zap.Logger
	Tracker     service.TrackerConfig
}

type Module struct {
	GeofenceSvc *service.GeofenceService
	TrackerSvc  *service.TrackerService
	Events      *service.EventRegistry

	geofenceHandler *handler.GeofenceHandler
	trackerHandler  *handler.TrackerHandler
	subscriber      *subscriber.LocationSubscriber
	consumer        *consumer.EventConsumer
}

func Build(d Deps) (*Module, error) {
	geofenceRepo := postgres.NewGeofenceRepo(d.DB)
	historyRepo := postgres.NewHistoryRepo(d.DB)

	alertPub, err := rabbitmq.NewAlertPublisher(d.AMQP)
	if err != nil {
		return nil, fmt.Errorf("alert publisher: %w", err)
	}

	events := service.NewEventRegistry()
	geofenceSvc := service.NewGeofenceService(geofenceRepo, historyRepo, d.Logger)
	trackerSvc := service.NewTrackerService(geofenceSvc, events, alertPub, d.Metrics, d.Logger, d.Tracker)

	return &Module{
		GeofenceSvc:     geofenceSvc,
		TrackerSvc:      trackerSvc,
		Events:          events,
		geofenceHandler: handler.NewGeofenceHandler(geofenceSvc),
		trackerHandler:  handler.NewTrackerHandler(trackerSvc),
		subscriber:      subscriber.NewLocationSubscriber(d.MQTT, trackerSvc, d.Logger),
		consumer:        consumer.NewEventConsumer(d.EventReader, events, d.Metrics, d.Logger),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.geofenceHandler.Register(r)
	m.trackerHandler.Register(r)
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// RunConsumers blocks until ctx is cancelled or the event feed fails.
func (m *Module) RunConsumers(ctx context.Context) error {
	return m.consumer.Run(ctx)
}
