package publisher

import (
	"context"

	"github.com/nandanugg/openrelief/module/core/domain"
)

type AlertPublisher interface {
	PublishTransition(ctx context.Context, t *domain.GeofenceTransition) error
	PublishAlert(ctx context.Context, a *domain.TrackerAlert) error
}
