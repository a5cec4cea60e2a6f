package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/metrics"
	"github.com/nandanugg/openrelief/module/report/domain"
	"github.com/nandanugg/openrelief/module/report/internal/repository/publisher"
	"github.com/nandanugg/openrelief/module/report/wizard"
)

// ReportService runs the report wizard on client-held state. The server keeps
// no per-user session; each call receives the full State and returns the next.
type ReportService struct {
	wizard    *wizard.Wizard
	publisher publisher.ReportPublisher
	metrics   *metrics.Metrics
	logger    *zap.Logger
	newID     func() string
	now       func() time.Time
}

func NewReportService(w *wizard.Wizard, pub publisher.ReportPublisher, m *metrics.Metrics, logger *zap.Logger) *ReportService {
	return &ReportService{
		wizard:    w,
		publisher: pub,
		metrics:   m,
		logger:    logger.Named("report"),
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

func (s *ReportService) Steps() []wizard.StepDef {
	return s.wizard.Steps()
}

func (s *ReportService) Start() wizard.State {
	return s.wizard.Start()
}

// Validate stores payload under stepID, when given, and recomputes the errors
// of the current step.
func (s *ReportService) Validate(st wizard.State, stepID string, payload map[string]any) (wizard.State, error) {
	st, err := s.prepare(st, stepID, payload)
	if err != nil {
		return st, err
	}
	return s.wizard.Validate(st), nil
}

func (s *ReportService) Advance(st wizard.State, stepID string, payload map[string]any) (wizard.State, error) {
	st, err := s.prepare(st, stepID, payload)
	if err != nil {
		return st, err
	}
	next := s.wizard.Advance(st)
	if len(next.Errors) > 0 {
		s.reject(next)
	}
	return next, nil
}

func (s *ReportService) Retreat(st wizard.State) (wizard.State, error) {
	if err := s.wizard.CheckState(st); err != nil {
		return st, err
	}
	return s.wizard.Retreat(st), nil
}

func (s *ReportService) JumpTo(st wizard.State, index int) (wizard.State, error) {
	if err := s.wizard.CheckState(st); err != nil {
		return st, err
	}
	next, err := s.wizard.JumpTo(st, index)
	if err != nil {
		return st, err
	}
	if len(next.Errors) > 0 {
		s.reject(next)
	}
	return next, nil
}

// Submit assembles the report from st, stamps it and publishes it. A report
// that could not be published is not considered submitted.
func (s *ReportService) Submit(ctx context.Context, st wizard.State) (*domain.Report, error) {
	fields, err := s.wizard.Submit(st)
	if err != nil {
		var incomplete *wizard.IncompleteError
		if errors.As(err, &incomplete) {
			s.metrics.WizardRejections.WithLabelValues(incomplete.StepID).Inc()
		}
		return nil, err
	}

	r := &domain.Report{
		ID:          s.newID(),
		SubmittedAt: s.now().UnixMilli(),
		Fields:      fields,
	}
	if err := s.publisher.PublishReport(ctx, r); err != nil {
		return nil, fmt.Errorf("publish report: %w", err)
	}

	s.metrics.ReportsSubmitted.Inc()
	s.logger.Info("report submitted", zap.String("report_id", r.ID), zap.Any("type", fields["type"]))
	return r, nil
}

func (s *ReportService) prepare(st wizard.State, stepID string, payload map[string]any) (wizard.State, error) {
	if err := s.wizard.CheckState(st); err != nil {
		return st, err
	}
	if stepID != "" {
		st = s.wizard.Update(st, stepID, payload)
	}
	return st, nil
}

func (s *ReportService) reject(st wizard.State) {
	step := s.wizard.Steps()[st.CurrentStep].ID
	s.metrics.WizardRejections.WithLabelValues(step).Inc()
	s.logger.Debug("wizard step rejected", zap.String("step", step), zap.Int("errors", len(st.Errors)))
}
