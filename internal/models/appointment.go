package models

import "time"

// AppointmentStatus tracks the lifecycle of a booking.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "Scheduled"
	AppointmentCompleted AppointmentStatus = "Completed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
)

// Valid reports whether s is a known status.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// Appointment is a booking of a doctor slot by a student. Cancelled appointments do
// not occupy their slot.
type Appointment struct {
	ID        string            `db:"id" json:"id"`
	StudentID string            `db:"student_id" json:"student_id"`
	DoctorID  string            `db:"doctor_id" json:"doctor_id"`
	Date      Date              `db:"appointment_date" json:"date"`
	Time      ClockTime         `db:"appointment_time" json:"time"`
	Status    AppointmentStatus `db:"status" json:"status"`
	Reason    *string           `db:"reason" json:"reason,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt time.Time         `db:"updated_at" json:"updated_at"`
}

// AppointmentDetail adds display names for listings.
type AppointmentDetail struct {
	Appointment
	StudentName    string `db:"student_name" json:"student_name"`
	DoctorName     string `db:"doctor_name" json:"doctor_name"`
	Specialization string `db:"specialization" json:"specialization"`
}

// AppointmentFilter narrows appointment listings.
type AppointmentFilter struct {
	StudentID string
	DoctorID  string
	Status    AppointmentStatus
	From      *Date
	To        *Date
}
