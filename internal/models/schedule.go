package models

import (
	"fmt"
	"strings"
	"time"
)

// DayOfWeek is the English weekday name a recurring schedule entry applies to.
type DayOfWeek string

const (
	Monday    DayOfWeek = "Monday"
	Tuesday   DayOfWeek = "Tuesday"
	Wednesday DayOfWeek = "Wednesday"
	Thursday  DayOfWeek = "Thursday"
	Friday    DayOfWeek = "Friday"
	Saturday  DayOfWeek = "Saturday"
	Sunday    DayOfWeek = "Sunday"
)

// ParseDayOfWeek accepts a weekday name in any letter case.
func ParseDayOfWeek(raw string) (DayOfWeek, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(raw, d.String()) {
			return DayOfWeek(d.String()), nil
		}
	}
	return "", fmt.Errorf("invalid day of week %q", raw)
}

// ScheduleEntry is one recurring weekly working block of a doctor.
type ScheduleEntry struct {
	ID        string    `db:"id" json:"id"`
	DoctorID  string    `db:"doctor_id" json:"doctor_id"`
	DayOfWeek DayOfWeek `db:"day_of_week" json:"day_of_week"`
	StartTime ClockTime `db:"start_time" json:"start_time"`
	EndTime   ClockTime `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SlotStatus is the derived booking state of a slot.
type SlotStatus string

const (
	SlotAvailable   SlotStatus = "Available"
	SlotBooked      SlotStatus = "Booked"
	SlotUnavailable SlotStatus = "Unavailable"
)

// Slot is a fixed-width interval start within a doctor's working hours. It is computed
// on every query and never stored.
type Slot struct {
	Time   ClockTime  `json:"time"`
	Status SlotStatus `json:"status"`
}
