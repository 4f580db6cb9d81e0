package service

import (
	"context"
	"sort"
	"time"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type scheduleDayReader interface {
	ListByDoctorAndDay(ctx context.Context, doctorID string, day models.DayOfWeek) ([]models.ScheduleEntry, error)
}

type occupiedTimeReader interface {
	ListOccupiedTimes(ctx context.Context, doctorID string, date models.Date) ([]models.ClockTime, error)
}

// AvailabilityConfig controls slot generation.
type AvailabilityConfig struct {
	SlotWidth time.Duration
	Location  *time.Location
}

// AvailabilityService resolves a doctor's bookable slots for a date. It only reads.
type AvailabilityService struct {
	schedules scheduleDayReader
	bookings  occupiedTimeReader
	cfg       AvailabilityConfig
	now       func() time.Time
}

// NewAvailabilityService constructs the resolver.
func NewAvailabilityService(schedules scheduleDayReader, bookings occupiedTimeReader, cfg AvailabilityConfig) *AvailabilityService {
	if cfg.SlotWidth < time.Minute {
		cfg.SlotWidth = 15 * time.Minute
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &AvailabilityService{schedules: schedules, bookings: bookings, cfg: cfg, now: time.Now}
}

// Today returns the current calendar date in the clinic timezone.
func (s *AvailabilityService) Today() models.Date {
	return calendarDay(s.now, s.cfg.Location)
}

// utcToday is the fallback day clock for services built without the clinic's resolver.
func utcToday() models.Date {
	return calendarDay(time.Now, time.UTC)
}

func calendarDay(now func() time.Time, loc *time.Location) models.Date {
	return models.NewDate(now().In(loc))
}

// ComputeSlots returns the slots of doctorID on rawDate ordered by time. A doctor who
// does not work that weekday yields an empty list.
func (s *AvailabilityService) ComputeSlots(ctx context.Context, doctorID, rawDate string) ([]models.Slot, error) {
	date, err := models.ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return s.SlotsFor(ctx, doctorID, date)
}

// SlotsFor is ComputeSlots for an already parsed date.
func (s *AvailabilityService) SlotsFor(ctx context.Context, doctorID string, date models.Date) ([]models.Slot, error) {
	entries, err := s.schedules.ListByDoctorAndDay(ctx, doctorID, date.DayOfWeek())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if len(entries) == 0 {
		return []models.Slot{}, nil
	}

	occupied, err := s.bookings.ListOccupiedTimes(ctx, doctorID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bookings")
	}

	return resolveSlots(entries, occupied, date, s.now().In(s.cfg.Location), s.cfg.SlotWidth), nil
}

// resolveSlots walks every entry from start (inclusive) to end (exclusive). On today's
// date a slot at or before now becomes Unavailable unless it is already Booked.
// Overlapping entries that produce the same time yield a single slot.
func resolveSlots(entries []models.ScheduleEntry, occupied []models.ClockTime, date models.Date, now time.Time, width time.Duration) []models.Slot {
	taken := make(map[models.ClockTime]struct{}, len(occupied))
	for _, t := range occupied {
		taken[t] = struct{}{}
	}

	isToday := date.Equal(models.NewDate(now))
	nowClock := models.ClockOf(now)

	seen := make(map[models.ClockTime]struct{})
	slots := make([]models.Slot, 0)
	for _, entry := range entries {
		for t := entry.StartTime; t < entry.EndTime; t = t.Add(width) {
			if _, dup := seen[t]; dup {
				continue
			}
			seen[t] = struct{}{}

			status := models.SlotAvailable
			if _, ok := taken[t]; ok {
				status = models.SlotBooked
			} else if isToday && t <= nowClock {
				status = models.SlotUnavailable
			}
			slots = append(slots, models.Slot{Time: t, Status: status})
		}
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Time < slots[j].Time })
	return slots
}
