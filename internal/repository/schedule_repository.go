package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

// ScheduleRepository persists doctors' recurring weekly working hours.
type ScheduleRepository struct {
	db *sqlx.DB
}

// NewScheduleRepository constructs the repository.
func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

const scheduleColumns = `id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at`

// ListByDoctorAndDay returns the entries a doctor works on the given weekday.
func (r *ScheduleRepository) ListByDoctorAndDay(ctx context.Context, doctorID string, day models.DayOfWeek) ([]models.ScheduleEntry, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM doctor_schedules WHERE doctor_id = $1 AND day_of_week = $2 ORDER BY start_time, id`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, doctorID, day); err != nil {
		return nil, fmt.Errorf("list schedule by day: %w", err)
	}
	return entries, nil
}

// ListByDoctor returns the full weekly schedule of a doctor.
func (r *ScheduleRepository) ListByDoctor(ctx context.Context, doctorID string) ([]models.ScheduleEntry, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM doctor_schedules WHERE doctor_id = $1
ORDER BY CASE day_of_week
	WHEN 'Monday' THEN 1 WHEN 'Tuesday' THEN 2 WHEN 'Wednesday' THEN 3 WHEN 'Thursday' THEN 4
	WHEN 'Friday' THEN 5 WHEN 'Saturday' THEN 6 ELSE 7 END, start_time`
	var entries []models.ScheduleEntry
	if err := r.db.SelectContext(ctx, &entries, query, doctorID); err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return entries, nil
}

// FindByID returns a single entry.
func (r *ScheduleRepository) FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error) {
	const query = `SELECT ` + scheduleColumns + ` FROM doctor_schedules WHERE id = $1`
	var entry models.ScheduleEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find schedule entry: %w", err)
	}
	return &entry, nil
}

// Create inserts an entry.
func (r *ScheduleRepository) Create(ctx context.Context, entry *models.ScheduleEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	entry.CreatedAt, entry.UpdatedAt = now, now
	const query = `INSERT INTO doctor_schedules (id, doctor_id, day_of_week, start_time, end_time, created_at, updated_at) VALUES (:id, :doctor_id, :day_of_week, :start_time, :end_time, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create schedule entry: %w", err)
	}
	return nil
}

// Update replaces the day and hours of an entry.
func (r *ScheduleRepository) Update(ctx context.Context, entry *models.ScheduleEntry) error {
	entry.UpdatedAt = time.Now().UTC()
	const query = `UPDATE doctor_schedules SET day_of_week = :day_of_week, start_time = :start_time, end_time = :end_time, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, entry)
	if err != nil {
		return fmt.Errorf("update schedule entry: %w", err)
	}
	return expectAffected(res, "update schedule entry")
}

// Delete removes an entry.
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM doctor_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete schedule entry: %w", err)
	}
	return expectAffected(res, "delete schedule entry")
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
