package dto

// BookAppointmentRequest books a slot. StudentID is required when staff or admins book
// on a student's behalf and ignored for students.
type BookAppointmentRequest struct {
	DoctorID  string  `json:"doctor_id" validate:"required,uuid"`
	StudentID string  `json:"student_id" validate:"omitempty,uuid"`
	Date      string  `json:"date" validate:"required"`
	Time      string  `json:"time" validate:"required"`
	Reason    *string `json:"reason" validate:"omitempty,max=500"`
}

// UpdateAppointmentStatusRequest moves an appointment out of Scheduled.
type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=Completed Cancelled"`
}

// RescheduleAppointmentRequest moves a Scheduled appointment to another slot with
// the same doctor.
type RescheduleAppointmentRequest struct {
	Date string `json:"date" validate:"required"`
	Time string `json:"time" validate:"required"`
}
