package dto

// ScheduleEntryRequest creates or replaces a weekly working block. DoctorID is only
// honoured for admins; doctors always manage their own schedule.
type ScheduleEntryRequest struct {
	DoctorID  string `json:"doctor_id" validate:"omitempty,uuid"`
	DayOfWeek string `json:"day_of_week" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}
