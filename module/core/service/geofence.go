package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nandanugg/openrelief/module/core/domain"
	"github.com/nandanugg/openrelief/module/core/internal/repository/database"
	"github.com/nandanugg/openrelief/module/core/spatial"
)

type GeofenceService struct {
	repo    database.GeofenceRepository
	history database.GeofenceHistoryRepository
	logger  *zap.Logger
	newID   func() string
}

func NewGeofenceService(repo database.GeofenceRepository, history database.GeofenceHistoryRepository, logger *zap.Logger) *GeofenceService {
	return &GeofenceService{
		repo:    repo,
		history: history,
		logger:  logger.Named("geofence"),
		newID:   uuid.NewString,
	}
}

// Create validates g and stores it. An empty ID is filled in.
func (s *GeofenceService) Create(ctx context.Context, g domain.Geofence) (*domain.Geofence, error) {
	if g.ID == "" {
		g.ID = s.newID()
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, &g); err != nil {
		return nil, fmt.Errorf("insert geofence: %w", err)
	}
	s.logger.Info("geofence created", zap.String("geofence_id", g.ID), zap.String("kind", string(g.Kind)))
	return &g, nil
}

func (s *GeofenceService) Update(ctx context.Context, g domain.Geofence) (*domain.Geofence, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, &g); err != nil {
		return nil, fmt.Errorf("update geofence: %w", err)
	}
	return &g, nil
}

func (s *GeofenceService) SetActive(ctx context.Context, id string, active bool) (*domain.Geofence, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}
	s.logger.Info("geofence toggled", zap.String("geofence_id", id), zap.Bool("active", active))
	return s.repo.Get(ctx, id)
}

func (s *GeofenceService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete geofence: %w", err)
	}
	return nil
}

func (s *GeofenceService) Get(ctx context.Context, id string) (*domain.Geofence, error) {
	return s.repo.Get(ctx, id)
}

func (s *GeofenceService) List(ctx context.Context) ([]domain.Geofence, error) {
	return s.repo.List(ctx)
}

func (s *GeofenceService) History(ctx context.Context, id string) ([]domain.GeofenceHistoryEntry, error) {
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.history.List(ctx, id)
}

// RecordTransitions appends one history entry per entered or exited fence.
func (s *GeofenceService) RecordTransitions(ctx context.Context, trackerID string, ts int64, tr spatial.Transitions) error {
	entries := make([]domain.GeofenceHistoryEntry, 0, len(tr.Entered)+len(tr.Exited))
	for _, f := range tr.Entered {
		entries = append(entries, domain.GeofenceHistoryEntry{GeofenceID: f.ID, TrackerID: trackerID, Action: domain.GeofenceEnter, Timestamp: ts})
	}
	for _, f := range tr.Exited {
		entries = append(entries, domain.GeofenceHistoryEntry{GeofenceID: f.ID, TrackerID: trackerID, Action: domain.GeofenceExit, Timestamp: ts})
	}
	if len(entries) == 0 {
		return nil
	}
	if err := s.history.Append(ctx, entries); err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}
