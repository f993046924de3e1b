package services

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/agency-intake/internal/domain"
	"github.com/tbourn/agency-intake/internal/repo"
)

// DefaultAuditPageSize matches what the security monitor shows at once.
const DefaultAuditPageSize = 50

// AuditService reads the audit trail. It never writes: events are appended
// by the flows that cause them.
type AuditService struct {
	DB *gorm.DB
}

// ListPage returns events newest first, optionally filtered by action.
func (s *AuditService) ListPage(ctx context.Context, action string, page, pageSize int) ([]domain.AuditEvent, int64, error) {
	ctx, span := otel.Tracer("services/AuditService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("action", action),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	page, pageSize = clampPage(page, pageSize, DefaultAuditPageSize)
	total, err := repo.CountAuditEvents(ctx, s.DB, action)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListAuditEventsPage(ctx, s.DB, action, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ForApplication returns the trail of one application, oldest first.
func (s *AuditService) ForApplication(ctx context.Context, id string) ([]domain.AuditEvent, error) {
	if _, err := repo.GetApplication(ctx, s.DB, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrApplicationNotFound
		}
		return nil, err
	}
	return repo.ListAuditEventsForRecord(ctx, s.DB, id)
}
