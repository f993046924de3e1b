package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/agency-intake/internal/domain"
)

// CreateAuditEvent appends one audit event. Events are never updated.
func CreateAuditEvent(ctx context.Context, db *gorm.DB, e *domain.AuditEvent) error {
	return db.WithContext(ctx).Create(e).Error
}

func auditQuery(ctx context.Context, db *gorm.DB, action string) *gorm.DB {
	q := db.WithContext(ctx).Model(&domain.AuditEvent{})
	if action != "" {
		q = q.Where("action = ?", action)
	}
	return q
}

// CountAuditEvents counts events with the given action ("" = all).
func CountAuditEvents(ctx context.Context, db *gorm.DB, action string) (int64, error) {
	var n int64
	err := auditQuery(ctx, db, action).Count(&n).Error
	return n, err
}

// ListAuditEventsPage returns events newest first.
func ListAuditEventsPage(ctx context.Context, db *gorm.DB, action string, offset, limit int) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	err := auditQuery(ctx, db, action).
		Order("created_at DESC").Order("id DESC").
		Offset(offset).Limit(limit).
		Find(&out).Error
	return out, err
}

// ListAuditEventsForRecord returns the trail of one record, oldest first.
func ListAuditEventsForRecord(ctx context.Context, db *gorm.DB, recordID string) ([]domain.AuditEvent, error) {
	var out []domain.AuditEvent
	err := db.WithContext(ctx).
		Where("record_id = ?", recordID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
