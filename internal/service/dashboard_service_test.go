package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type fakeCounter struct {
	doctor *repository.DoctorCounts
	staff  *repository.StaffCounts
	calls  int
	err    error
}

func (f *fakeCounter) DoctorCounts(context.Context, string, models.Date) (*repository.DoctorCounts, error) {
	f.calls++
	return f.doctor, f.err
}

func (f *fakeCounter) StaffCounts(context.Context, models.Date, int) (*repository.StaffCounts, error) {
	f.calls++
	return f.staff, f.err
}

type dashboardFixture struct {
	svc     *DashboardService
	counter *fakeCounter
	cache   *fakeDashboardCache
	appts   *fakeAppointments
	rx      *fakePrescriptions
	meds    *fakeMedications
}

func newDashboardFixture() *dashboardFixture {
	f := &dashboardFixture{
		counter: &fakeCounter{
			doctor: &repository.DoctorCounts{AppointmentsToday: 2, PendingAppointments: 1, PrescriptionsIssued: 4, PatientsSeen: 3},
			staff:  &repository.StaffCounts{MedicationsTotal: 3, LowStockCount: 1, UnfulfilledPrescriptions: 2, DispensedToday: 7},
		},
		cache: newFakeDashboardCache(),
		appts: newFakeAppointments(),
		rx:    newFakePrescriptions(),
		meds:  newFakeMedications(models.Medication{ID: "m1", Name: "Saline", QuantityInStock: 1}, models.Medication{ID: "m2", Name: "Gauze", QuantityInStock: 90}),
	}
	f.svc = NewDashboardService(DashboardServiceParams{
		Counts:        f.counter,
		Appointments:  f.appts,
		Medications:   f.meds,
		Prescriptions: f.rx,
		Cache:         f.cache,
		Today:         func() models.Date { return mustDate(monday) },
		Config:        DashboardServiceConfig{RecentPrescriptions: 1},
	})
	return f
}

func TestDoctorDashboardCachesPerDay(t *testing.T) {
	f := newDashboardFixture()
	f.appts.add(models.Appointment{ID: "a1", DoctorID: idDoc1, StudentID: idStu1, Date: mustDate(monday), Status: models.AppointmentScheduled})
	f.appts.add(models.Appointment{ID: "a2", DoctorID: idDoc1, StudentID: idStu1, Date: mustDate("2026-10-13"), Status: models.AppointmentScheduled})
	ctx := context.Background()

	first, hit, err := f.svc.Doctor(ctx, doctorActor, "")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 4, first.PrescriptionsIssued)
	require.Len(t, first.TodaySchedule, 1)
	assert.Equal(t, "a1", first.TodaySchedule[0].ID)
	assert.Contains(t, f.cache.store, "dash:DOCTOR:"+idDoc1+":"+monday)

	second, hit, err := f.svc.Doctor(ctx, doctorActor, idDoc1)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.PatientsSeen, second.PatientsSeen)
	assert.Equal(t, 1, f.counter.calls)

	_, _, err = f.svc.Doctor(ctx, doctorActor, idDoc2)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, _, err = f.svc.Doctor(ctx, adminActor, "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestStaffDashboard(t *testing.T) {
	f := newDashboardFixture()

	resp, hit, err := f.svc.Staff(context.Background(), staffActor)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 7, resp.DispensedToday)
	require.Len(t, resp.LowStock, 1)
	assert.Equal(t, "m1", resp.LowStock[0].ID)
	assert.Contains(t, f.cache.store, "dash:STAFF:staff-1:"+monday)

	_, _, err = f.svc.Staff(context.Background(), doctorActor)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestStudentDashboard(t *testing.T) {
	f := newDashboardFixture()
	f.appts.add(models.Appointment{ID: "a1", StudentID: idStu1, DoctorID: idDoc1, Date: mustDate(monday), Status: models.AppointmentScheduled})
	f.appts.add(models.Appointment{ID: "a2", StudentID: idStu1, DoctorID: idDoc1, Date: mustDate(monday), Status: models.AppointmentCancelled})
	f.rx.items[idRx1] = models.PrescriptionDetail{Prescription: models.Prescription{ID: idRx1, StudentID: idStu1, Quantity: 4}, QuantityDispensed: 1}
	f.rx.items[idRx2] = models.PrescriptionDetail{Prescription: models.Prescription{ID: idRx2, StudentID: idStu1, Quantity: 2}, QuantityDispensed: 2}

	resp, _, err := f.svc.Student(context.Background(), studentActor, "")
	require.NoError(t, err)
	require.Len(t, resp.Upcoming, 1)
	assert.Equal(t, 1, resp.ActivePrescriptions)
	require.Len(t, resp.RecentPrescriptions, 1)
	assert.Equal(t, 3, resp.RecentPrescriptions[0].RemainingQuantity)

	onBehalf, _, err := f.svc.Student(context.Background(), staffActor, idStu1)
	require.NoError(t, err)
	assert.Equal(t, idStu1, onBehalf.StudentID)

	_, _, err = f.svc.Student(context.Background(), otherStudent, idStu1)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	_, _, err = f.svc.Student(context.Background(), doctorActor, idStu1)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestDashboardCacheFailureDegradesToMiss(t *testing.T) {
	f := newDashboardFixture()
	f.cache.err = errors.New("redis down")

	resp, hit, err := f.svc.Staff(context.Background(), adminActor)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NotNil(t, resp)
}

func TestDashboardCountsFailure(t *testing.T) {
	f := newDashboardFixture()
	f.counter.err = errors.New("db down")

	_, _, err := f.svc.Doctor(context.Background(), doctorActor, "")
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
	assert.Zero(t, f.cache.sets)
}
