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

// 2026-10-12 is a Monday.
const monday = "2026-10-12"

func newAvailabilityForTest(now time.Time, entries ...models.ScheduleEntry) (*AvailabilityService, *fakeAppointments) {
	bookings := newFakeAppointments()
	svc := NewAvailabilityService(&fakeSchedules{entries: entries}, bookings, AvailabilityConfig{SlotWidth: 15 * time.Minute, Location: time.UTC})
	svc.now = func() time.Time { return now }
	return svc, bookings
}

func mondayEntry(id, start, end string) models.ScheduleEntry {
	return models.ScheduleEntry{ID: id, DoctorID: idDoc1, DayOfWeek: models.Monday, StartTime: mustClock(start), EndTime: mustClock(end)}
}

func TestComputeSlotsBookedAndAvailable(t *testing.T) {
	svc, bookings := newAvailabilityForTest(time.Date(2026, 10, 11, 12, 0, 0, 0, time.UTC), mondayEntry("s1", "09:00", "09:30"))
	bookings.add(models.Appointment{ID: "a1", DoctorID: idDoc1, Date: mustDate(monday), Time: mustClock("09:00"), Status: models.AppointmentScheduled})

	slots, err := svc.ComputeSlots(context.Background(), idDoc1, monday)
	require.NoError(t, err)
	assert.Equal(t, []models.Slot{
		{Time: mustClock("09:00"), Status: models.SlotBooked},
		{Time: mustClock("09:15"), Status: models.SlotAvailable},
	}, slots)
}

func TestComputeSlotsNoScheduleIsEmpty(t *testing.T) {
	svc, _ := newAvailabilityForTest(time.Date(2026, 10, 11, 12, 0, 0, 0, time.UTC), mondayEntry("s1", "09:00", "12:00"))

	// 2026-10-13 is a Tuesday.
	slots, err := svc.ComputeSlots(context.Background(), idDoc1, "2026-10-13")
	require.NoError(t, err)
	assert.NotNil(t, slots)
	assert.Empty(t, slots)

	slots, err = svc.ComputeSlots(context.Background(), idDoc2, monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestComputeSlotsPastTimesToday(t *testing.T) {
	now := time.Date(2026, 10, 12, 9, 15, 0, 0, time.UTC)
	svc, bookings := newAvailabilityForTest(now, mondayEntry("s1", "09:00", "10:00"))
	bookings.add(models.Appointment{ID: "a1", DoctorID: idDoc1, Date: mustDate(monday), Time: mustClock("09:15"), Status: models.AppointmentScheduled})

	slots, err := svc.ComputeSlots(context.Background(), idDoc1, monday)
	require.NoError(t, err)
	assert.Equal(t, []models.Slot{
		{Time: mustClock("09:00"), Status: models.SlotUnavailable},
		{Time: mustClock("09:15"), Status: models.SlotBooked},
		{Time: mustClock("09:30"), Status: models.SlotAvailable},
		{Time: mustClock("09:45"), Status: models.SlotAvailable},
	}, slots)
}

func TestComputeSlotsCancelledFreesSlot(t *testing.T) {
	svc, bookings := newAvailabilityForTest(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), mondayEntry("s1", "09:00", "09:15"))
	bookings.add(models.Appointment{ID: "a1", DoctorID: idDoc1, Date: mustDate(monday), Time: mustClock("09:00"), Status: models.AppointmentScheduled})

	slots, err := svc.ComputeSlots(context.Background(), idDoc1, monday)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, models.SlotBooked, slots[0].Status)

	require.NoError(t, bookings.UpdateStatus(context.Background(), "a1", models.AppointmentCancelled))
	slots, err = svc.ComputeSlots(context.Background(), idDoc1, monday)
	require.NoError(t, err)
	assert.Equal(t, models.SlotAvailable, slots[0].Status)
}

func TestComputeSlotsOverlappingEntriesSortedWithoutDuplicates(t *testing.T) {
	svc, _ := newAvailabilityForTest(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		mondayEntry("late", "10:00", "10:30"),
		mondayEntry("early", "09:30", "10:15"),
	)

	slots, err := svc.ComputeSlots(context.Background(), idDoc1, monday)
	require.NoError(t, err)
	times := make([]string, 0, len(slots))
	for _, slot := range slots {
		times = append(times, slot.Time.String())
	}
	assert.Equal(t, []string{"09:30", "09:45", "10:00", "10:15"}, times)
}

func TestComputeSlotsStepsByWidthExcludingEnd(t *testing.T) {
	entries := []models.ScheduleEntry{mondayEntry("s1", "08:00", "09:00")}
	slots := resolveSlots(entries, nil, mustDate(monday), time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), 20*time.Minute)
	require.Len(t, slots, 3)
	assert.Equal(t, "08:00", slots[0].Time.String())
	assert.Equal(t, "08:20", slots[1].Time.String())
	assert.Equal(t, "08:40", slots[2].Time.String())
}

func TestComputeSlotsInvalidDate(t *testing.T) {
	svc, _ := newAvailabilityForTest(time.Now())

	_, err := svc.ComputeSlots(context.Background(), idDoc1, "2026-13-40")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestComputeSlotsScheduleFailure(t *testing.T) {
	svc := NewAvailabilityService(&fakeSchedules{err: errors.New("db down")}, newFakeAppointments(), AvailabilityConfig{})

	_, err := svc.ComputeSlots(context.Background(), idDoc1, monday)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrInternal))
}

func TestAvailabilityTodayUsesClinicTimezone(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	svc := NewAvailabilityService(&fakeSchedules{}, newFakeAppointments(), AvailabilityConfig{Location: loc})
	svc.now = func() time.Time { return time.Date(2026, 10, 11, 20, 0, 0, 0, time.UTC) }

	assert.Equal(t, monday, svc.Today().String())
}

func TestCalendarDayFollowsZone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*60*60)
	lateEvening := func() time.Time { return time.Date(2026, 10, 14, 20, 30, 0, 0, time.UTC) }

	assert.Equal(t, "2026-10-14", calendarDay(lateEvening, time.UTC).String())
	assert.Equal(t, "2026-10-15", calendarDay(lateEvening, jakarta).String())

	svc := NewAvailabilityService(&fakeSchedules{}, newFakeAppointments(), AvailabilityConfig{})
	svc.now = lateEvening
	assert.Equal(t, "2026-10-14", svc.Today().String())
}

func TestServicesDefaultToUTCDay(t *testing.T) {
	dispensing := NewDispensingService(DispensingServiceParams{})
	medications := NewMedicationService(MedicationServiceParams{})
	prescriptions := NewPrescriptionService(PrescriptionServiceParams{})

	want := models.NewDate(time.Now().UTC()).String()
	assert.Equal(t, want, dispensing.today().String())
	assert.Equal(t, want, medications.today().String())
	assert.Equal(t, want, prescriptions.today().String())
}
