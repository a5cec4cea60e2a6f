package report

import (
	"fmt"

	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/metrics"
	handler "github.com/nandanugg/openrelief/module/report/internal/handler/http"
	"github.com/nandanugg/openrelief/module/report/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/openrelief/module/report/service"
	"github.com/nandanugg/openrelief/module/report/wizard"
)

type Deps struct {
	AMQP    *amqp.Connection
	Metrics *metrics.Metrics
	Logger  *zap.Logger
	// Schema overrides the default report flow when it has steps.
	Schema wizard.Schema
}

type Module struct {
	ReportSvc *service.ReportService

	wizardHandler *handler.WizardHandler
}

func Build(d Deps) (*Module, error) {
	schema := d.Schema
	if len(schema.Steps) == 0 {
		schema = wizard.DefaultSchema()
	}
	w, err := wizard.New(schema)
	if err != nil {
		return nil, fmt.Errorf("report wizard: %w", err)
	}

	reportPub, err := rabbitmq.NewReportPublisher(d.AMQP)
	if err != nil {
		return nil, fmt.Errorf("report publisher: %w", err)
	}

	reportSvc := service.NewReportService(w, reportPub, d.Metrics, d.Logger)
	return &Module{
		ReportSvc:     reportSvc,
		wizardHandler: handler.NewWizardHandler(reportSvc),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	m.wizardHandler.Register(r)
}
