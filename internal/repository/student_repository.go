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

// StudentRepository reads student profiles.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

const studentColumns = `id, first_name, last_name, gender, date_of_birth, email, contact_number, created_at, updated_at`

// FindByID returns a student profile.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE id = $1`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Search matches first name, last name or email, ordered by name.
func (r *StudentRepository) Search(ctx context.Context, term string, limit int) ([]models.Student, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	const query = `SELECT ` + studentColumns + ` FROM students
WHERE LOWER(first_name) LIKE $1 OR LOWER(last_name) LIKE $1 OR LOWER(COALESCE(email, '')) LIKE $1
ORDER BY first_name, last_name LIMIT $2`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, "%"+strings.ToLower(term)+"%", limit); err != nil {
		return nil, fmt.Errorf("search students: %w", err)
	}
	return students, nil
}

// Create inserts a student profile for an existing user.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt, student.UpdatedAt = now, now
	const query = `INSERT INTO students (id, first_name, last_name, gender, date_of_birth, email, contact_number, created_at, updated_at) VALUES (:id, :first_name, :last_name, :gender, :date_of_birth, :email, :contact_number, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}
