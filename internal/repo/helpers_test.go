package repo

import (
	"fmt"
	"strings"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/agency-intake/internal/domain"
)

func newTestDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()
	// Unique DB per test to avoid schema leaking across tests.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedApplication(t *testing.T, db *gorm.DB, id string, status domain.ApplicationStatus, created time.Time) *domain.Application {
	t.Helper()
	a := &domain.Application{
		ID:        id,
		Name:      "Applicant " + id,
		Email:     id + "@example.com",
		Status:    status,
		CreatedAt: created,
		UpdatedAt: created,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("seed application %s: %v", id, err)
	}
	return a
}
