package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

// DoctorRepository reads doctor profiles.
type DoctorRepository struct {
	db *sqlx.DB
}

// NewDoctorRepository constructs the repository.
func NewDoctorRepository(db *sqlx.DB) *DoctorRepository {
	return &DoctorRepository{db: db}
}

const doctorColumns = `id, name, specialization, email, contact_number, created_at, updated_at`

// List returns doctors ordered by name, optionally filtered by specialization.
func (r *DoctorRepository) List(ctx context.Context, specialization string) ([]models.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors`
	var args []interface{}
	if specialization != "" {
		query += ` WHERE LOWER(specialization) = $1`
		args = append(args, strings.ToLower(specialization))
	}
	query += ` ORDER BY name`

	var doctors []models.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, args...); err != nil {
		return nil, fmt.Errorf("list doctors: %w", err)
	}
	return doctors, nil
}

// FindByID returns a doctor profile.
func (r *DoctorRepository) FindByID(ctx context.Context, id string) (*models.Doctor, error) {
	const query = `SELECT ` + doctorColumns + ` FROM doctors WHERE id = $1`
	var doctor models.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find doctor: %w", err)
	}
	return &doctor, nil
}

// Create inserts a doctor profile for an existing user.
func (r *DoctorRepository) Create(ctx context.Context, doctor *models.Doctor) error {
	now := time.Now().UTC()
	doctor.CreatedAt, doctor.UpdatedAt = now, now
	const query = `INSERT INTO doctors (id, name, specialization, email, contact_number, created_at, updated_at) VALUES (:id, :name, :specialization, :email, :contact_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doctor); err != nil {
		return fmt.Errorf("create doctor: %w", err)
	}
	return nil
}
