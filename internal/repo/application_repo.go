// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// Application model.
//
// Functions are thin: no business rules, only persistence and query
// composition. Missing rows surface as ErrNotFound; other DB errors are
// returned as-is.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/agency-intake/internal/domain"
)

// CreateApplication inserts a fully built application row.
func CreateApplication(ctx context.Context, db *gorm.DB, a *domain.Application) error {
	return db.WithContext(ctx).Create(a).Error
}

// GetApplication fetches one application by id, or ErrNotFound.
func GetApplication(ctx context.Context, db *gorm.DB, id string) (*domain.Application, error) {
	var a domain.Application
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func applicationsQuery(ctx context.Context, db *gorm.DB, status domain.ApplicationStatus) *gorm.DB {
	q := db.WithContext(ctx).Model(&domain.Application{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return q
}

// CountApplications returns how many applications match status ("" = all).
func CountApplications(ctx context.Context, db *gorm.DB, status domain.ApplicationStatus) (int64, error) {
	var n int64
	err := applicationsQuery(ctx, db, status).Count(&n).Error
	return n, err
}

// ListApplicationsPage returns newest-first applications filtered by status.
func ListApplicationsPage(ctx context.Context, db *gorm.DB, status domain.ApplicationStatus, offset, limit int) ([]domain.Application, error) {
	var out []domain.Application
	err := applicationsQuery(ctx, db, status).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

// UpdateApplicationStatus moves an application from one status to another
// only if it is still in `from`. It returns ErrNotFound when no row matched,
// which covers both a missing id and a concurrent transition.
func UpdateApplicationStatus(ctx context.Context, db *gorm.DB, id string, from, to domain.ApplicationStatus, now time.Time) error {
	res := db.WithContext(ctx).Model(&domain.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
