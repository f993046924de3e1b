package handlers

import (
	"context"
	"time"

	"github.com/tbourn/agency-intake/internal/domain"
	"github.com/tbourn/agency-intake/internal/intake"
	"github.com/tbourn/agency-intake/internal/services"
)

//
// Service contracts (context-aware)
//

// IntakeService runs a public submission through the intake pipeline.
type IntakeService interface {
	Submit(ctx context.Context, req intake.Request) (intake.Result, error)
}

// ApplicationService is the admin view of applications.
//
// Implementations must be safe for concurrent use and honor ctx.
type ApplicationService interface {
	ListPage(ctx context.Context, status domain.ApplicationStatus, page, pageSize int) ([]domain.Application, int64, error)
	Get(ctx context.Context, id string) (*domain.Application, error)
	Stats(ctx context.Context, status domain.ApplicationStatus) (int64, *time.Time, error)
	Summary(ctx context.Context) (map[domain.ApplicationStatus]int64, error)
	UpdateStatus(ctx context.Context, actor, id string, to domain.ApplicationStatus, meta services.RequestMeta) (*domain.Application, error)
}

// AuditService reads the audit trail.
type AuditService interface {
	ListPage(ctx context.Context, action string, page, pageSize int) ([]domain.AuditEvent, int64, error)
	ForApplication(ctx context.Context, id string) ([]domain.AuditEvent, error)
}

//
// Handler wiring
//

// Handlers groups the intake endpoint and the admin API. Any service may be
// nil when its routes are not mounted.
type Handlers struct {
	intakeSvc IntakeService
	appSvc    ApplicationService
	auditSvc  AuditService
}

// New binds handlers to their services.
func New(intakeSvc IntakeService, appSvc ApplicationService, auditSvc AuditService) *Handlers {
	return &Handlers{intakeSvc: intakeSvc, appSvc: appSvc, auditSvc: auditSvc}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}
