package repo

import (
	"context"
	"errors"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/agency-intake/internal/domain"
)

// Store adapts the repository functions to the intake collaborators
// (application store, audit sink, idempotency store).
type Store struct {
	DB *gorm.DB
}

func (s Store) CreateApplication(ctx context.Context, a *domain.Application) error {
	return CreateApplication(ctx, s.DB, a)
}

func (s Store) RecordAuditEvent(ctx context.Context, e *domain.AuditEvent) error {
	return CreateAuditEvent(ctx, s.DB, e)
}

func (s Store) FindSubmission(ctx context.Context, clientKey, key string, now time.Time) (string, bool, error) {
	rec, err := GetIdempotency(ctx, s.DB, clientKey, key, now)
	if errors.Is(err, ErrNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return rec.ApplicationID, true, nil
}

// RememberSubmission records a completed submission. A duplicate means a
// concurrent retry already recorded it, which is not an error.
func (s Store) RememberSubmission(ctx context.Context, clientKey, key, applicationID string, ttl time.Duration) error {
	if _, err := DeleteExpiredIdempotency(ctx, s.DB, time.Now().UTC()); err != nil {
		return err
	}
	_, err := CreateIdempotency(ctx, s.DB, clientKey, key, applicationID, http.StatusOK, ttl)
	if errors.Is(err, ErrDuplicate) {
		return nil
	}
	return err
}
