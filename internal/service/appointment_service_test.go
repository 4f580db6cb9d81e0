package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
	"github.com/noah-isme/campus-clinic-api/pkg/lock"
)

type appointmentFixture struct {
	svc      *AppointmentService
	appts    *fakeAppointments
	locker   *fakeLocker
	activity *fakeActivity
	cache    *fakeInvalidator
}

func newAppointmentFixture(t *testing.T) *appointmentFixture {
	t.Helper()
	appts := newFakeAppointments()
	resolver := NewAvailabilityService(&fakeSchedules{entries: []models.ScheduleEntry{mondayEntry("s1", "09:00", "10:00")}}, appts, AvailabilityConfig{})
	resolver.now = func() time.Time { return time.Date(2026, 10, 11, 12, 0, 0, 0, time.UTC) }

	f := &appointmentFixture{appts: appts, locker: &fakeLocker{}, activity: &fakeActivity{}, cache: &fakeInvalidator{}}
	f.svc = NewAppointmentService(AppointmentServiceParams{
		Repo:     appts,
		Resolver: resolver,
		Doctors:  newFakeDoctors(idDoc1),
		Locker:   f.locker,
		Activity: f.activity,
		Cache:    f.cache,
	})
	return f
}

var (
	studentActor = models.Actor{UserID: idStu1, Role: models.RoleStudent}
	otherStudent = models.Actor{UserID: idStu2, Role: models.RoleStudent}
	doctorActor  = models.Actor{UserID: idDoc1, Role: models.RoleDoctor}
	staffActor   = models.Actor{UserID: "staff-1", Role: models.RoleStaff}
	adminActor   = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

func bookReq(slot string) dto.BookAppointmentRequest {
	return dto.BookAppointmentRequest{DoctorID: idDoc1, Date: monday, Time: slot}
}

func TestAppointmentBookSuccess(t *testing.T) {
	f := newAppointmentFixture(t)

	appt, err := f.svc.Book(context.Background(), studentActor, bookReq("09:15"))
	require.NoError(t, err)
	assert.Equal(t, idStu1, appt.StudentID)
	assert.Equal(t, models.AppointmentScheduled, appt.Status)
	assert.Equal(t, []string{lock.SlotKey(idDoc1, monday, "09:15")}, f.locker.keys)
	assert.Equal(t, []string{models.ActivityAppointmentBook}, f.activity.actions())
	assert.Contains(t, f.cache.patterns, "dash:DOCTOR:"+idDoc1+":*")
	assert.Contains(t, f.cache.patterns, "dash:STUDENT:"+idStu1+":*")
}

func TestAppointmentBookRejectsBookedSlot(t *testing.T) {
	f := newAppointmentFixture(t)
	_, err := f.svc.Book(context.Background(), studentActor, bookReq("09:00"))
	require.NoError(t, err)

	_, err = f.svc.Book(context.Background(), otherStudent, bookReq("09:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))
}

func TestAppointmentBookOutsideWorkingHours(t *testing.T) {
	f := newAppointmentFixture(t)

	_, err := f.svc.Book(context.Background(), studentActor, bookReq("10:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))
}

func TestAppointmentBookStorageRace(t *testing.T) {
	f := newAppointmentFixture(t)
	f.appts.createErr = errors.New("boom")
	_, err := f.svc.Book(context.Background(), studentActor, bookReq("09:00"))
	assert.True(t, errors.Is(err, appErrors.ErrInternal))

	// The unique index wins a race the resolver could not see.
	f.appts.createErr = nil
	f.svc.repo = &racingAppointments{fakeAppointments: f.appts}
	_, err = f.svc.Book(context.Background(), studentActor, bookReq("09:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))
}

type racingAppointments struct {
	*fakeAppointments
}

func (r *racingAppointments) Create(ctx context.Context, appt *models.Appointment) error {
	other := *appt
	other.StudentID = idStu9
	if err := r.fakeAppointments.Create(ctx, &other); err != nil {
		return err
	}
	return r.fakeAppointments.Create(ctx, appt)
}

func TestAppointmentBookLockContention(t *testing.T) {
	f := newAppointmentFixture(t)
	f.locker.err = lock.ErrLockNotAcquired

	_, err := f.svc.Book(context.Background(), studentActor, bookReq("09:00"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))
	assert.Empty(t, f.appts.items)
}

func TestAppointmentBookValidation(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, studentActor, dto.BookAppointmentRequest{DoctorID: idDoc1, Date: "12-10-2026", Time: "09:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Book(ctx, studentActor, dto.BookAppointmentRequest{DoctorID: idDoc1, Date: monday, Time: "9am"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Book(ctx, studentActor, dto.BookAppointmentRequest{DoctorID: idDoc1, Date: "2026-10-05", Time: "09:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Book(ctx, studentActor, dto.BookAppointmentRequest{DoctorID: "doc-1", Date: monday, Time: "09:00"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Empty(t, f.locker.keys)

	_, err = f.svc.Book(ctx, studentActor, dto.BookAppointmentRequest{DoctorID: idDoc404, Date: monday, Time: "09:00"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAppointmentBookOnBehalf(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()

	_, err := f.svc.Book(ctx, staffActor, bookReq("09:00"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	req := bookReq("09:00")
	req.StudentID = idStu7
	appt, err := f.svc.Book(ctx, staffActor, req)
	require.NoError(t, err)
	assert.Equal(t, idStu7, appt.StudentID)

	req.StudentID = idStu2
	req.Time = "09:15"
	_, err = f.svc.Book(ctx, studentActor, req)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.Book(ctx, doctorActor, bookReq("09:30"))
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestAppointmentCancelFreesSlot(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	appt, err := f.svc.Book(ctx, studentActor, bookReq("09:00"))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, otherStudent, appt.ID)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	cancelled, err := f.svc.Cancel(ctx, studentActor, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCancelled, cancelled.Status)

	_, err = f.svc.Cancel(ctx, studentActor, appt.ID)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	_, err = f.svc.Book(ctx, otherStudent, bookReq("09:00"))
	require.NoError(t, err)
}

func TestAppointmentUpdateStatus(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	appt, err := f.svc.Book(ctx, studentActor, bookReq("09:00"))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(ctx, studentActor, appt.ID, dto.UpdateAppointmentStatusRequest{Status: "Completed"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.UpdateStatus(ctx, doctorActor, appt.ID, dto.UpdateAppointmentStatusRequest{Status: "Scheduled"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	updated, err := f.svc.UpdateStatus(ctx, doctorActor, appt.ID, dto.UpdateAppointmentStatusRequest{Status: "Completed"})
	require.NoError(t, err)
	assert.Equal(t, models.AppointmentCompleted, updated.Status)

	_, err = f.svc.UpdateStatus(ctx, doctorActor, "missing", dto.UpdateAppointmentStatusRequest{Status: "Completed"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAppointmentListings(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	_, err := f.svc.Book(ctx, studentActor, bookReq("09:00"))
	require.NoError(t, err)

	mine, err := f.svc.ListForStudent(ctx, studentActor, idStu1)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	_, err = f.svc.ListForStudent(ctx, studentActor, idStu2)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	upcoming, err := f.svc.UpcomingForStudent(ctx, studentActor, idStu1, 5)
	require.NoError(t, err)
	assert.Len(t, upcoming, 1)

	date := mustDate(monday)
	forDoctor, err := f.svc.ListForDoctor(ctx, doctorActor, idDoc1, &date)
	require.NoError(t, err)
	assert.Len(t, forDoctor, 1)

	_, err = f.svc.ListForDoctor(ctx, models.Actor{UserID: idDoc2, Role: models.RoleDoctor}, idDoc1, nil)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	none, err := f.svc.ListForStudent(ctx, adminActor, idStu404)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestAppointmentRescheduleMovesToFreeSlot(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	appt, err := f.svc.Book(ctx, studentActor, bookReq("09:00"))
	require.NoError(t, err)
	f.cache.patterns = nil

	moved, err := f.svc.Reschedule(ctx, studentActor, appt.ID, dto.RescheduleAppointmentRequest{Date: "2026-10-19", Time: "09:30"})
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19", moved.Date.String())
	assert.Equal(t, "09:30", moved.Time.String())
	assert.Equal(t, "2026-10-19", f.appts.items[appt.ID].Date.String())
	assert.Equal(t, lock.SlotKey(idDoc1, "2026-10-19", "09:30"), f.locker.keys[len(f.locker.keys)-1])
	assert.Equal(t, []string{models.ActivityAppointmentBook, models.ActivityAppointmentReschedule}, f.activity.actions())
	assert.Contains(t, f.cache.patterns, "dash:DOCTOR:"+idDoc1+":*")
	assert.Contains(t, f.cache.patterns, "dash:STUDENT:"+idStu1+":*")

	// The old slot is free again.
	_, err = f.svc.Book(ctx, otherStudent, bookReq("09:00"))
	require.NoError(t, err)
}

func TestAppointmentRescheduleRejections(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	appt, err := f.svc.Book(ctx, studentActor, bookReq("09:00"))
	require.NoError(t, err)
	_, err = f.svc.Book(ctx, otherStudent, bookReq("09:15"))
	require.NoError(t, err)

	_, err = f.svc.Reschedule(ctx, otherStudent, appt.ID, dto.RescheduleAppointmentRequest{Date: monday, Time: "09:30"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, err = f.svc.Reschedule(ctx, studentActor, appt.ID, dto.RescheduleAppointmentRequest{Date: "2026-10-05", Time: "09:30"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Reschedule(ctx, studentActor, appt.ID, dto.RescheduleAppointmentRequest{Date: monday})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	_, err = f.svc.Reschedule(ctx, studentActor, appt.ID, dto.RescheduleAppointmentRequest{Date: monday, Time: "09:15"})
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))

	_, err = f.svc.Reschedule(ctx, studentActor, appt.ID, dto.RescheduleAppointmentRequest{Date: monday, Time: "10:00"})
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))

	_, err = f.svc.Reschedule(ctx, studentActor, "missing", dto.RescheduleAppointmentRequest{Date: monday, Time: "09:30"})
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	assert.Equal(t, "09:00", f.appts.items[appt.ID].Time.String())

	byDoctor, err := f.svc.Reschedule(ctx, doctorActor, appt.ID, dto.RescheduleAppointmentRequest{Date: monday, Time: "09:45"})
	require.NoError(t, err)
	assert.Equal(t, "09:45", byDoctor.Time.String())

	_, err = f.svc.Cancel(ctx, adminActor, appt.ID)
	require.NoError(t, err)
	_, err = f.svc.Reschedule(ctx, adminActor, appt.ID, dto.RescheduleAppointmentRequest{Date: monday, Time: "09:30"})
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestAppointmentRescheduleStorageCollision(t *testing.T) {
	f := newAppointmentFixture(t)
	ctx := context.Background()
	appt, err := f.svc.Book(ctx, studentActor, bookReq("09:00"))
	require.NoError(t, err)

	f.svc.repo = &racingReschedule{fakeAppointments: f.appts}
	_, err = f.svc.Reschedule(ctx, studentActor, appt.ID, dto.RescheduleAppointmentRequest{Date: monday, Time: "09:30"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))
	assert.Equal(t, "09:00", f.appts.items[appt.ID].Time.String())
	assert.Equal(t, []string{models.ActivityAppointmentBook}, f.activity.actions())

	f.locker.err = lock.ErrLockNotAcquired
	_, err = f.svc.Reschedule(ctx, studentActor, appt.ID, dto.RescheduleAppointmentRequest{Date: monday, Time: "09:45"})
	assert.True(t, errors.Is(err, appErrors.ErrSlotUnavailable))
}

// racingReschedule books the target slot for someone else just before the move lands.
type racingReschedule struct {
	*fakeAppointments
}

func (r *racingReschedule) Reschedule(ctx context.Context, id string, date models.Date, t models.ClockTime) error {
	current := r.items[id]
	other := models.Appointment{StudentID: idStu9, DoctorID: current.DoctorID, Date: date, Time: t, Status: models.AppointmentScheduled}
	if err := r.fakeAppointments.Create(ctx, &other); err != nil {
		return err
	}
	return r.fakeAppointments.Reschedule(ctx, id, date, t)
}
