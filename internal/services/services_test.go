package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/agency-intake/internal/domain"
	"github.com/tbourn/agency-intake/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	return db
}

func seed(t *testing.T, db *gorm.DB, id string, st domain.ApplicationStatus, at time.Time) {
	t.Helper()
	require.NoError(t, repo.CreateApplication(context.Background(), db, &domain.Application{
		ID: id, Name: "Applicant", Email: id + "@example.com", Status: st, CreatedAt: at, UpdatedAt: at,
	}))
}

func TestParseStatusFilter(t *testing.T) {
	st, err := ParseStatusFilter("")
	assert.NoError(t, err)
	assert.Equal(t, domain.ApplicationStatus(""), st)

	st, err = ParseStatusFilter("approved")
	assert.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, st)

	_, err = ParseStatusFilter("archived")
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestApplicationService_ListPageAndGet(t *testing.T) {
	db := newTestDB(t)
	svc := &ApplicationService{DB: db}
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		seed(t, db, fmt.Sprintf("a%02d", i), domain.StatusPending, base.Add(time.Duration(i)*time.Minute))
	}
	seed(t, db, "r1", domain.StatusRejected, base)

	items, total, err := svc.ListPage(ctx, domain.StatusPending, 0, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	require.Len(t, items, defaultPageSize)
	assert.Equal(t, "a24", items[0].ID)

	items, _, err = svc.ListPage(ctx, domain.StatusPending, 2, 20)
	require.NoError(t, err)
	assert.Len(t, items, 5)

	_, total, err = svc.ListPage(ctx, "", 1, 1000)
	require.NoError(t, err)
	assert.EqualValues(t, 26, total)

	_, _, err = svc.ListPage(ctx, "archived", 1, 10)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	got, err := svc.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, got.Status)

	_, err = svc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	sum, err := svc.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 25, sum[domain.StatusPending])
	assert.EqualValues(t, 1, sum[domain.StatusRejected])

	n, maxAt, err := svc.Stats(ctx, domain.StatusPending)
	require.NoError(t, err)
	assert.EqualValues(t, 25, n)
	assert.True(t, maxAt.Equal(base.Add(24*time.Minute)))
}

func TestApplicationService_UpdateStatus(t *testing.T) {
	db := newTestDB(t)
	decidedAt := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	svc := &ApplicationService{DB: db, Now: func() time.Time { return decidedAt }}
	ctx := context.Background()
	seed(t, db, "a1", domain.StatusPending, decidedAt.Add(-time.Hour))

	got, err := svc.UpdateStatus(ctx, "alice", "a1", domain.StatusApproved, RequestMeta{IPAddress: "10.0.0.1", UserAgent: "ua"})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, got.Status)
	assert.True(t, got.UpdatedAt.Equal(decidedAt))

	stored, err := repo.GetApplication(ctx, db, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusApproved, stored.Status)

	trail, err := repo.ListAuditEventsForRecord(ctx, db, "a1")
	require.NoError(t, err)
	require.Len(t, trail, 1)
	ev := trail[0]
	assert.Equal(t, domain.ActionApplicationStatusUpdated, ev.Action)
	require.NotNil(t, ev.UserID)
	assert.Equal(t, "alice", *ev.UserID)
	var oldV, newV map[string]string
	require.NoError(t, json.Unmarshal(ev.OldValues, &oldV))
	require.NoError(t, json.Unmarshal(ev.NewValues, &newV))
	assert.Equal(t, "pending", oldV["status"])
	assert.Equal(t, "approved", newV["status"])
	assert.Equal(t, "10.0.0.1", ev.IPAddress)

	// only from pending
	_, err = svc.UpdateStatus(ctx, "alice", "a1", domain.StatusRejected, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	trail, _ = repo.ListAuditEventsForRecord(ctx, db, "a1")
	assert.Len(t, trail, 1, "failed decisions are not audited")
}

func TestApplicationService_UpdateStatus_Rejections(t *testing.T) {
	db := newTestDB(t)
	svc := &ApplicationService{DB: db}
	ctx := context.Background()
	seed(t, db, "a1", domain.StatusPending, time.Now().UTC())

	_, err := svc.UpdateStatus(ctx, "", "a1", domain.StatusApproved, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidActor)
	_, err = svc.UpdateStatus(ctx, "bob", "a1", domain.StatusPending, RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateStatus(ctx, "bob", "a1", "archived", RequestMeta{})
	assert.ErrorIs(t, err, ErrInvalidStatus)
	_, err = svc.UpdateStatus(ctx, "bob", "missing", domain.StatusApproved, RequestMeta{})
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestApplicationService_UpdateStatus_AuditFailureRollsBack(t *testing.T) {
	db := newTestDB(t)
	svc := &ApplicationService{DB: db}
	ctx := context.Background()
	seed(t, db, "a1", domain.StatusPending, time.Now().UTC())
	require.NoError(t, db.Migrator().DropTable(&domain.AuditEvent{}))

	_, err := svc.UpdateStatus(ctx, "alice", "a1", domain.StatusApproved, RequestMeta{})
	require.Error(t, err)
	stored, err := repo.GetApplication(ctx, db, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, stored.Status, "status change and audit are atomic")
}

func TestApplicationService_UpdateStatus_ConcurrentReviewers(t *testing.T) {
	path := t.TempDir() + "/review.db"
	db, err := repo.OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() { _ = repo.Close(db) })
	seed(t, db, "a1", domain.StatusPending, time.Now().UTC())
	svc := &ApplicationService{DB: db}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		okCount int
	)
	for _, to := range []domain.ApplicationStatus{domain.StatusApproved, domain.StatusRejected, domain.StatusApproved, domain.StatusRejected} {
		wg.Add(1)
		go func(to domain.ApplicationStatus) {
			defer wg.Done()
			_, err := svc.UpdateStatus(context.Background(), "r", "a1", to, RequestMeta{})
			if err == nil {
				mu.Lock()
				okCount++
				mu.Unlock()
			}
		}(to)
	}
	wg.Wait()
	assert.Equal(t, 1, okCount)

	trail, err := repo.ListAuditEventsForRecord(context.Background(), db, "a1")
	require.NoError(t, err)
	assert.Len(t, trail, 1)
}

func TestAuditService(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	seed(t, db, "a1", domain.StatusPending, base)
	for i := 0; i < 60; i++ {
		rec := "a1"
		require.NoError(t, repo.CreateAuditEvent(ctx, db, &domain.AuditEvent{
			ID: fmt.Sprintf("e%02d", i), Action: domain.ActionApplicationSubmitted, Subject: "applications",
			RecordID: &rec, CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}
	svc := &AuditService{DB: db}

	items, total, err := svc.ListPage(ctx, "", 1, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 60, total)
	require.Len(t, items, DefaultAuditPageSize)
	assert.Equal(t, "e59", items[0].ID, "newest first")

	items, total, err = svc.ListPage(ctx, domain.ActionApplicationStatusUpdated, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)

	trail, err := svc.ForApplication(ctx, "a1")
	require.NoError(t, err)
	assert.Len(t, trail, 60)
	assert.Equal(t, "e00", trail[0].ID)

	_, err = svc.ForApplication(ctx, "missing")
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}
