package publisher

import (
	"context"

	"github.com/nandanugg/openrelief/module/report/domain"
)

type ReportPublisher interface {
	PublishReport(ctx context.Context, r *domain.Report) error
}
