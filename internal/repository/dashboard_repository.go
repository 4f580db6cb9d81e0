package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

// DashboardRepository runs the aggregate queries behind role dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// DoctorCounts aggregates a doctor's workload.
type DoctorCounts struct {
	AppointmentsToday   int `db:"appointments_today"`
	PendingAppointments int `db:"pending_appointments"`
	PrescriptionsIssued int `db:"prescriptions_issued"`
	PatientsSeen        int `db:"patients_seen"`
}

// StaffCounts aggregates dispensary state.
type StaffCounts struct {
	MedicationsTotal         int `db:"medications_total"`
	LowStockCount            int `db:"low_stock_count"`
	ExpiredCount             int `db:"expired_count"`
	UnfulfilledPrescriptions int `db:"unfulfilled_prescriptions"`
	DispensedToday           int `db:"dispensed_today"`
}

// DoctorCounts returns counters for doctorID relative to today.
func (r *DashboardRepository) DoctorCounts(ctx context.Context, doctorID string, today models.Date) (*DoctorCounts, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND appointment_date = $2 AND status <> 'Cancelled') AS appointments_today,
	(SELECT COUNT(*) FROM appointments WHERE doctor_id = $1 AND appointment_date >= $2 AND status = 'Scheduled') AS pending_appointments,
	(SELECT COUNT(*) FROM prescriptions WHERE doctor_id = $1) AS prescriptions_issued,
	(SELECT COUNT(DISTINCT student_id) FROM appointments WHERE doctor_id = $1 AND status = 'Completed') AS patients_seen`
	var counts DoctorCounts
	if err := r.db.GetContext(ctx, &counts, query, doctorID, today); err != nil {
		return nil, fmt.Errorf("doctor dashboard counts: %w", err)
	}
	return &counts, nil
}

// StaffCounts returns inventory and dispensing counters.
func (r *DashboardRepository) StaffCounts(ctx context.Context, today models.Date, lowStockThreshold int) (*StaffCounts, error) {
	const query = `SELECT
	(SELECT COUNT(*) FROM medications) AS medications_total,
	(SELECT COUNT(*) FROM medications WHERE quantity_in_stock <= $2) AS low_stock_count,
	(SELECT COUNT(*) FROM medications WHERE expiry_date IS NOT NULL AND expiry_date <= $1) AS expired_count,
	(SELECT COUNT(*) FROM prescriptions p WHERE p.quantity > COALESCE((SELECT SUM(e.quantity_given) FROM dispensing_events e WHERE e.prescription_id = p.id), 0)) AS unfulfilled_prescriptions,
	(SELECT COALESCE(SUM(quantity_given), 0) FROM dispensing_events WHERE date_given = $1) AS dispensed_today`
	var counts StaffCounts
	if err := r.db.GetContext(ctx, &counts, query, today, lowStockThreshold); err != nil {
		return nil, fmt.Errorf("staff dashboard counts: %w", err)
	}
	return &counts, nil
}
