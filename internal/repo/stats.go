// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the admin API.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/agency-intake/internal/domain"
)

// ApplicationsStats returns the number of applications matching status
// ("" = all) and the greatest UpdatedAt among them. When there are no rows,
// count is 0 and maxUpdatedAt is nil.
func ApplicationsStats(ctx context.Context, db *gorm.DB, status domain.ApplicationStatus) (count int64, maxUpdatedAt *time.Time, err error) {
	if err = applicationsQuery(ctx, db, status).Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = applicationsQuery(ctx, db, status).Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}

// StatusCounts returns how many applications are in each status.
func StatusCounts(ctx context.Context, db *gorm.DB) (map[domain.ApplicationStatus]int64, error) {
	var rows []struct {
		Status domain.ApplicationStatus
		N      int64
	}
	err := db.WithContext(ctx).Model(&domain.Application{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := map[domain.ApplicationStatus]int64{
		domain.StatusPending:  0,
		domain.StatusApproved: 0,
		domain.StatusRejected: 0,
	}
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
