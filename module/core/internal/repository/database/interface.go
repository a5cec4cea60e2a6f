package database

import (
	"context"

	"github.com/nandanugg/openrelief/module/core/domain"
)

type GeofenceRepository interface {
	Insert(ctx context.Context, g *domain.Geofence) error
	Update(ctx context.Context, g *domain.Geofence) error
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*domain.Geofence, error)
	List(ctx context.Context) ([]domain.Geofence, error)
}

type GeofenceHistoryRepository interface {
	Append(ctx context.Context, entries []domain.GeofenceHistoryEntry) error
	List(ctx context.Context, geofenceID string) ([]domain.GeofenceHistoryEntry, error)
}
