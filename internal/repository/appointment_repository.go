package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/pkg/database"
)

// AppointmentRepository persists bookings.
type AppointmentRepository struct {
	db *sqlx.DB
}

// NewAppointmentRepository constructs the repository.
func NewAppointmentRepository(db *sqlx.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

const appointmentDetailSelect = `SELECT a.id, a.student_id, a.doctor_id, a.appointment_date, a.appointment_time, a.status, a.reason, a.created_at, a.updated_at,
	TRIM(s.first_name || ' ' || s.last_name) AS student_name, d.name AS doctor_name, d.specialization
FROM appointments a
JOIN students s ON s.id = a.student_id
JOIN doctors d ON d.id = a.doctor_id`

// ListOccupiedTimes returns the times already taken by non-cancelled appointments.
func (r *AppointmentRepository) ListOccupiedTimes(ctx context.Context, doctorID string, date models.Date) ([]models.ClockTime, error) {
	const query = `SELECT appointment_time FROM appointments WHERE doctor_id = $1 AND appointment_date = $2 AND status <> $3`
	var times []models.ClockTime
	if err := r.db.SelectContext(ctx, &times, query, doctorID, date, models.AppointmentCancelled); err != nil {
		return nil, fmt.Errorf("list occupied times: %w", err)
	}
	return times, nil
}

// Create inserts a Scheduled appointment. A concurrent booking of the same slot
// surfaces as ErrSlotTaken through the partial unique index.
func (r *AppointmentRepository) Create(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	appt.CreatedAt, appt.UpdatedAt = now, now
	if appt.Status == "" {
		appt.Status = models.AppointmentScheduled
	}

	const query = `INSERT INTO appointments (id, student_id, doctor_id, appointment_date, appointment_time, status, reason, created_at, updated_at)
VALUES (:id, :student_id, :doctor_id, :appointment_date, :appointment_time, :status, :reason, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, appt); err != nil {
		if database.IsUniqueViolation(err, activeSlotConstraint) {
			return ErrSlotTaken
		}
		return fmt.Errorf("create appointment: %w", err)
	}
	return nil
}

// FindByID returns an appointment with display names.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*models.AppointmentDetail, error) {
	query := appointmentDetailSelect + ` WHERE a.id = $1`
	var appt models.AppointmentDetail
	if err := r.db.GetContext(ctx, &appt, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return &appt, nil
}

// UpdateStatus moves a Scheduled appointment to status. Appointments that already left
// Scheduled are reported with ErrStatusTransition.
func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error {
	const query = `UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`
	res, err := r.db.ExecContext(ctx, query, id, status, models.AppointmentScheduled)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update appointment status rows affected: %w", err)
	}
	if n == 0 {
		return ErrStatusTransition
	}
	return nil
}

// Reschedule moves a Scheduled appointment to another date and time. The new slot is
// guarded by the same partial unique index as Create.
func (r *AppointmentRepository) Reschedule(ctx context.Context, id string, date models.Date, t models.ClockTime) error {
	const query = `UPDATE appointments SET appointment_date = $2, appointment_time = $3, updated_at = NOW() WHERE id = $1 AND status = $4`
	res, err := r.db.ExecContext(ctx, query, id, date, t, models.AppointmentScheduled)
	if err != nil {
		if database.IsUniqueViolation(err, activeSlotConstraint) {
			return ErrSlotTaken
		}
		return fmt.Errorf("reschedule appointment: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reschedule appointment rows affected: %w", err)
	}
	if n == 0 {
		return ErrStatusTransition
	}
	return nil
}

// List returns appointments matching filter ordered by date and time.
func (r *AppointmentRepository) List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error) {
	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("a.student_id = $%d", len(args)))
	}
	if filter.DoctorID != "" {
		args = append(args, filter.DoctorID)
		conditions = append(conditions, fmt.Sprintf("a.doctor_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if filter.From != nil {
		args = append(args, *filter.From)
		conditions = append(conditions, fmt.Sprintf("a.appointment_date >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conditions = append(conditions, fmt.Sprintf("a.appointment_date <= $%d", len(args)))
	}

	query := appointmentDetailSelect
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY a.appointment_date, a.appointment_time"

	var appts []models.AppointmentDetail
	if err := r.db.SelectContext(ctx, &appts, query, args...); err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	return appts, nil
}

// Upcoming returns Scheduled appointments from the given day onward.
func (r *AppointmentRepository) Upcoming(ctx context.Context, filter models.AppointmentFilter, from models.Date, limit int) ([]models.AppointmentDetail, error) {
	filter.Status = models.AppointmentScheduled
	filter.From = &from
	appts, err := r.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(appts) > limit {
		appts = appts[:limit]
	}
	return appts, nil
}
