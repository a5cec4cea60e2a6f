package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/openrelief/config"
	"github.com/nandanugg/openrelief/metrics"
	"github.com/nandanugg/openrelief/module/core"
	"github.com/nandanugg/openrelief/module/core/service"
	"github.com/nandanugg/openrelief/module/report"
	"github.com/nandanugg/openrelief/module/report/wizard"
)

func main() {
	cfg := config.Load()

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := config.NewPostgres(cfg)
	if err != nil {
		logger.Fatal("postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg, logger)
	if err != nil {
		logger.Fatal("rabbitmq", zap.Error(err))
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg, logger)
	if err != nil {
		logger.Fatal("mqtt", zap.Error(err))
	}
	defer mqttClient.Disconnect(250)

	// closed by the event consumer when it stops
	eventReader := config.NewEventReader(cfg)

	var schema wizard.Schema
	if cfg.WizardSchemaFile != "" {
		schema, err = wizard.LoadSchema(cfg.WizardSchemaFile)
		if err != nil {
			logger.Fatal("wizard schema", zap.Error(err))
		}
	}

	m := metrics.New()

	coreModule, err := core.Build(core.Deps{
		DB:          db,
		AMQP:        amqpConn,
		MQTT:        mqttClient,
		EventReader: eventReader,
		Metrics:     m,
		Logger:      logger,
		Tracker: service.TrackerConfig{
			ThresholdMeters: cfg.ProximityThresholdMeters,
			AutoDismiss:     cfg.AlertAutoDismiss,
			SessionIdleTTL:  cfg.SessionIdleTTL,
		},
	})
	if err != nil {
		logger.Fatal("core module", zap.Error(err))
	}

	reportModule, err := report.Build(report.Deps{
		AMQP:    amqpConn,
		Metrics: m,
		Logger:  logger,
		Schema:  schema,
	})
	if err != nil {
		logger.Fatal("report module", zap.Error(err))
	}

	if err := coreModule.StartSubscribers(); err != nil {
		logger.Fatal("start subscribers", zap.Error(err))
	}

	r := gin.Default()

	health := config.NewHealthChecker(db, amqpConn, mqttClient)
	health.Register(r)
	r.GET("/metrics", gin.WrapH(m.Handler()))

	coreModule.RegisterRoutes(&r.RouterGroup)
	reportModule.RegisterRoutes(&r.RouterGroup)

	srv := &http.Server{Addr: ":" + cfg.HTTPPort, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// feed errors are retried inside; this returns once gctx is done
		if err := coreModule.RunConsumers(gctx); err != nil {
			logger.Error("event consumer stopped", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server", zap.Error(err))
	}
}
