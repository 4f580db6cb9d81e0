package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

func newScheduleServiceForTest() (*ScheduleService, *fakeSchedules, *fakeActivity) {
	schedules := &fakeSchedules{}
	activity := &fakeActivity{}
	return NewScheduleService(schedules, newFakeDoctors(idDoc1, idDoc2), activity, nil, nil), schedules, activity
}

func TestScheduleCreateForSelf(t *testing.T) {
	svc, schedules, activity := newScheduleServiceForTest()

	entry, err := svc.CreateEntry(context.Background(), doctorActor, dto.ScheduleEntryRequest{DoctorID: idDoc2, DayOfWeek: "monday", StartTime: "09:00", EndTime: "12:30:00"})
	require.NoError(t, err)
	assert.Equal(t, idDoc1, entry.DoctorID)
	assert.Equal(t, models.Monday, entry.DayOfWeek)
	assert.Equal(t, "12:30", entry.EndTime.String())
	assert.Len(t, schedules.entries, 1)
	require.Len(t, activity.entries, 1)
	assert.Equal(t, "Monday 09:00-12:30", activity.entries[0].description)
}

func TestScheduleCreateValidation(t *testing.T) {
	svc, _, _ := newScheduleServiceForTest()
	ctx := context.Background()

	cases := []dto.ScheduleEntryRequest{
		{DayOfWeek: "Funday", StartTime: "09:00", EndTime: "10:00"},
		{DayOfWeek: "Monday", StartTime: "10:00", EndTime: "09:00"},
		{DayOfWeek: "Monday", StartTime: "10:00", EndTime: "10:00"},
		{DayOfWeek: "Monday", StartTime: "9", EndTime: "10:00"},
		{DayOfWeek: "", StartTime: "09:00", EndTime: "10:00"},
	}
	for _, req := range cases {
		_, err := svc.CreateEntry(ctx, doctorActor, req)
		assert.True(t, errors.Is(err, appErrors.ErrValidation), "%+v", req)
	}

	_, err := svc.CreateEntry(ctx, adminActor, dto.ScheduleEntryRequest{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = svc.CreateEntry(ctx, adminActor, dto.ScheduleEntryRequest{DoctorID: idDoc404, DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.CreateEntry(ctx, studentActor, dto.ScheduleEntryRequest{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestScheduleUpdateAndDeleteOwnership(t *testing.T) {
	svc, schedules, _ := newScheduleServiceForTest()
	ctx := context.Background()
	entry, err := svc.CreateEntry(ctx, doctorActor, dto.ScheduleEntryRequest{DayOfWeek: "Monday", StartTime: "09:00", EndTime: "10:00"})
	require.NoError(t, err)

	other := models.Actor{UserID: idDoc2, Role: models.RoleDoctor}
	_, err = svc.UpdateEntry(ctx, other, entry.ID, dto.ScheduleEntryRequest{DayOfWeek: "Tuesday", StartTime: "09:00", EndTime: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	updated, err := svc.UpdateEntry(ctx, doctorActor, entry.ID, dto.ScheduleEntryRequest{DayOfWeek: "Tuesday", StartTime: "13:00", EndTime: "15:00"})
	require.NoError(t, err)
	assert.Equal(t, models.Tuesday, updated.DayOfWeek)
	assert.Equal(t, idDoc1, updated.DoctorID)

	assert.True(t, errors.Is(svc.DeleteEntry(ctx, other, entry.ID), appErrors.ErrForbidden))
	require.NoError(t, svc.DeleteEntry(ctx, adminActor, entry.ID))
	assert.Empty(t, schedules.entries)
	assert.True(t, errors.Is(svc.DeleteEntry(ctx, adminActor, entry.ID), appErrors.ErrNotFound))
}

func TestScheduleListings(t *testing.T) {
	svc, _, _ := newScheduleServiceForTest()
	ctx := context.Background()

	doctors, err := svc.ListDoctors(ctx, "")
	require.NoError(t, err)
	assert.Len(t, doctors, 2)

	entries, err := svc.ListSchedule(ctx, idDoc2)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	_, err = svc.ListSchedule(ctx, idDoc404)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
