package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type fakeActivityRepo struct {
	created []models.ActivityLog
	filter  models.ActivityFilter
	err     error
}

func (f *fakeActivityRepo) Create(_ context.Context, entry *models.ActivityLog) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, *entry)
	return nil
}

func (f *fakeActivityRepo) List(_ context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error) {
	f.filter = filter
	return f.created, len(f.created), f.err
}

func TestActivityRecordCapturesActor(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, nil)
	actor := models.Actor{UserID: "staff-1", Role: models.RoleStaff, IP: "10.0.0.5", UserAgent: "curl"}

	svc.Record(context.Background(), actor, models.ActivityDispenseCreate, "dispensing_event", "evt-1", "2 units")

	require.Len(t, repo.created, 1)
	entry := repo.created[0]
	require.NotNil(t, entry.UserID)
	assert.Equal(t, "staff-1", *entry.UserID)
	require.NotNil(t, entry.Role)
	assert.Equal(t, "STAFF", *entry.Role)
	require.NotNil(t, entry.ResourceID)
	assert.Equal(t, "evt-1", *entry.ResourceID)
	assert.Equal(t, "10.0.0.5", entry.IPAddress)
}

func TestActivityRecordSwallowsFailures(t *testing.T) {
	repo := &fakeActivityRepo{err: errors.New("insert failed")}
	svc := NewActivityService(repo, nil)

	assert.NotPanics(t, func() {
		svc.Record(context.Background(), models.Actor{}, models.ActivityLogin, "user", "", "")
	})

	var nilSvc *ActivityService
	assert.NotPanics(t, func() {
		nilSvc.Record(context.Background(), models.Actor{}, models.ActivityLogin, "user", "", "")
	})
}

func TestActivityListIsAdminOnly(t *testing.T) {
	repo := &fakeActivityRepo{}
	svc := NewActivityService(repo, nil)
	ctx := context.Background()

	_, _, err := svc.List(ctx, staffActor, models.ActivityFilter{})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	from := time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC)
	to := from.Add(-time.Hour)
	_, _, err = svc.List(ctx, adminActor, models.ActivityFilter{From: &from, To: &to})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	entries, page, err := svc.List(ctx, adminActor, models.ActivityFilter{PageSize: 1000})
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Equal(t, 20, page.PageSize)
	assert.Equal(t, 1, repo.filter.Page)
}
