package dto

import "github.com/noah-isme/campus-clinic-api/internal/models"

// DoctorDashboardResponse summarises a doctor's day.
type DoctorDashboardResponse struct {
	DoctorID            string                     `json:"doctor_id"`
	Date                string                     `json:"date"`
	AppointmentsToday   int                        `json:"appointments_today"`
	PendingAppointments int                        `json:"pending_appointments"`
	PrescriptionsIssued int                        `json:"prescriptions_issued"`
	PatientsSeen        int                        `json:"patients_seen"`
	TodaySchedule       []models.AppointmentDetail `json:"today_schedule"`
}

// StaffDashboardResponse summarises dispensary state.
type StaffDashboardResponse struct {
	Date                     string              `json:"date"`
	MedicationsTotal         int                 `json:"medications_total"`
	LowStockCount            int                 `json:"low_stock_count"`
	ExpiredCount             int                 `json:"expired_count"`
	UnfulfilledPrescriptions int                 `json:"unfulfilled_prescriptions"`
	DispensedToday           int                 `json:"dispensed_today"`
	LowStock                 []models.Medication `json:"low_stock"`
}

// StudentDashboardResponse summarises a student's upcoming care.
type StudentDashboardResponse struct {
	StudentID           string                     `json:"student_id"`
	Date                string                     `json:"date"`
	Upcoming            []models.AppointmentDetail `json:"upcoming_appointments"`
	ActivePrescriptions int                        `json:"active_prescriptions"`
	RecentPrescriptions []PrescriptionResponse     `json:"recent_prescriptions"`
}
