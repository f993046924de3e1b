// Package services – ApplicationService
//
// ApplicationService backs the admin review flow: listing and reading
// submitted applications and deciding on pending ones. A decision is only
// allowed from pending to approved or rejected, and the status change is
// written together with its audit event in one transaction.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/tbourn/agency-intake/internal/domain"
	"github.com/tbourn/agency-intake/internal/repo"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// RequestMeta is client metadata recorded on audit events.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// ApplicationService implements the admin use-cases around applications.
type ApplicationService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func (s *ApplicationService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// ParseStatusFilter accepts "" (all) or a known status.
func ParseStatusFilter(v string) (domain.ApplicationStatus, error) {
	st := domain.ApplicationStatus(v)
	if v != "" && !st.Valid() {
		return "", ErrInvalidStatus
	}
	return st, nil
}

// ListPage returns applications newest first, optionally filtered by status,
// together with the total number of matches.
func (s *ApplicationService) ListPage(ctx context.Context, status domain.ApplicationStatus, page, pageSize int) ([]domain.Application, int64, error) {
	ctx, span := otel.Tracer("services/ApplicationService").Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("status", string(status)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	if status != "" && !status.Valid() {
		return nil, 0, ErrInvalidStatus
	}
	page, pageSize = clampPage(page, pageSize, defaultPageSize)

	total, err := repo.CountApplications(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	items, err := repo.ListApplicationsPage(ctx, s.DB, status, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Get returns one application.
func (s *ApplicationService) Get(ctx context.Context, id string) (*domain.Application, error) {
	a, err := repo.GetApplication(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrApplicationNotFound
	}
	return a, err
}

// Stats returns the count and latest update time for ETag computation.
func (s *ApplicationService) Stats(ctx context.Context, status domain.ApplicationStatus) (int64, *time.Time, error) {
	return repo.ApplicationsStats(ctx, s.DB, status)
}

// Summary counts applications per status.
func (s *ApplicationService) Summary(ctx context.Context) (map[domain.ApplicationStatus]int64, error) {
	return repo.StatusCounts(ctx, s.DB)
}

// UpdateStatus records a review decision by actor.
//
// Errors:
//   - ErrInvalidActor: empty actor.
//   - ErrInvalidStatus: target is not approved or rejected.
//   - ErrApplicationNotFound: no such application.
//   - ErrInvalidTransition: the application is no longer pending.
func (s *ApplicationService) UpdateStatus(ctx context.Context, actor, id string, to domain.ApplicationStatus, meta RequestMeta) (*domain.Application, error) {
	ctx, span := otel.Tracer("services/ApplicationService").Start(ctx, "UpdateStatus",
		trace.WithAttributes(
			attribute.String("application.id", id),
			attribute.String("status.to", string(to)),
			attribute.String("actor.id", actor),
		),
	)
	defer span.End()

	if actor == "" {
		return nil, ErrInvalidActor
	}
	if to != domain.StatusApproved && to != domain.StatusRejected {
		return nil, ErrInvalidStatus
	}

	var updated *domain.Application
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		cur, err := repo.GetApplication(ctx, tx, id)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrApplicationNotFound
		}
		if err != nil {
			return err
		}
		if cur.Status != domain.StatusPending {
			return ErrInvalidTransition
		}

		now := s.now()
		if err := repo.UpdateApplicationStatus(ctx, tx, id, domain.StatusPending, to, now); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				// lost a race with another reviewer
				return ErrInvalidTransition
			}
			return err
		}

		ev := &domain.AuditEvent{
			ID:        uuid.NewString(),
			Action:    domain.ActionApplicationStatusUpdated,
			Subject:   cur.TableName(),
			RecordID:  &cur.ID,
			OldValues: statusJSON(cur.Status),
			NewValues: statusJSON(to),
			UserID:    &actor,
			IPAddress: meta.IPAddress,
			UserAgent: meta.UserAgent,
			CreatedAt: now,
		}
		if err := repo.CreateAuditEvent(ctx, tx, ev); err != nil {
			return err
		}

		cur.Status = to
		cur.UpdatedAt = now
		updated = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func statusJSON(st domain.ApplicationStatus) datatypes.JSON {
	b, _ := json.Marshal(map[string]string{"status": string(st)})
	return datatypes.JSON(b)
}

func clampPage(page, size, def int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size
}
