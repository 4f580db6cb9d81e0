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

// PrescriptionRepository persists prescriptions.
type PrescriptionRepository struct {
	db *sqlx.DB
}

// NewPrescriptionRepository constructs the repository.
func NewPrescriptionRepository(db *sqlx.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

const prescriptionDetailSelect = `SELECT p.id, p.appointment_id, p.doctor_id, p.student_id, p.medication_id, p.prescription_date, p.quantity, p.instructions, p.created_at,
	TRIM(s.first_name || ' ' || s.last_name) AS student_name, d.name AS doctor_name, m.name AS medication_name, m.dosage_form,
	COALESCE((SELECT SUM(e.quantity_given) FROM dispensing_events e WHERE e.prescription_id = p.id), 0) AS quantity_dispensed
FROM prescriptions p
JOIN students s ON s.id = p.student_id
JOIN doctors d ON d.id = p.doctor_id
JOIN medications m ON m.id = p.medication_id`

// Create inserts a prescription.
func (r *PrescriptionRepository) Create(ctx context.Context, p *models.Prescription) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO prescriptions (id, appointment_id, doctor_id, student_id, medication_id, prescription_date, quantity, instructions, created_at)
VALUES (:id, :appointment_id, :doctor_id, :student_id, :medication_id, :prescription_date, :quantity, :instructions, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("create prescription: %w", err)
	}
	return nil
}

// FindByID returns a prescription with its dispensing progress.
func (r *PrescriptionRepository) FindByID(ctx context.Context, id string) (*models.PrescriptionDetail, error) {
	query := prescriptionDetailSelect + ` WHERE p.id = $1`
	var p models.PrescriptionDetail
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find prescription: %w", err)
	}
	return &p, nil
}

// ListForStudent returns a student's prescriptions, newest first.
func (r *PrescriptionRepository) ListForStudent(ctx context.Context, studentID string) ([]models.PrescriptionDetail, error) {
	return r.list(ctx, prescriptionDetailSelect+` WHERE p.student_id = $1 ORDER BY p.prescription_date DESC, p.created_at DESC`, studentID)
}

// ListForDoctor returns prescriptions issued by a doctor, newest first.
func (r *PrescriptionRepository) ListForDoctor(ctx context.Context, doctorID string) ([]models.PrescriptionDetail, error) {
	return r.list(ctx, prescriptionDetailSelect+` WHERE p.doctor_id = $1 ORDER BY p.prescription_date DESC, p.created_at DESC`, doctorID)
}

// ListUnfulfilled returns prescriptions with quantity still to dispense, oldest first.
func (r *PrescriptionRepository) ListUnfulfilled(ctx context.Context, limit int) ([]models.PrescriptionDetail, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := `SELECT * FROM (` + prescriptionDetailSelect + `) x WHERE x.quantity_dispensed < x.quantity ORDER BY x.prescription_date, x.created_at LIMIT $1`
	return r.list(ctx, query, limit)
}

func (r *PrescriptionRepository) list(ctx context.Context, query string, args ...interface{}) ([]models.PrescriptionDetail, error) {
	var items []models.PrescriptionDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list prescriptions: %w", err)
	}
	return items, nil
}
