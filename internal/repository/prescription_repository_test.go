package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

var prescriptionCols = []string{"id", "appointment_id", "doctor_id", "student_id", "medication_id", "prescription_date", "quantity", "instructions", "created_at", "student_name", "doctor_name", "medication_name", "dosage_form", "quantity_dispensed"}

func TestPrescriptionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPrescriptionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs("rx-1").
		WillReturnRows(sqlmock.NewRows(prescriptionCols).
			AddRow("rx-1", nil, "doc-1", "stu-1", "med-1", "2026-10-14", 10, "after meals", time.Now(), "Ana Putri", "Dr. Rahman", "Paracetamol", "tablet", 6))

	rx, err := repo.FindByID(context.Background(), "rx-1")
	require.NoError(t, err)
	assert.Equal(t, 4, rx.Remaining())
	assert.Nil(t, rx.AppointmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrescriptionRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPrescriptionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.id = $1")).
		WithArgs("rx-404").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "rx-404")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrescriptionRepositoryListUnfulfilled(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPrescriptionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("x WHERE x.quantity_dispensed < x.quantity ORDER BY x.prescription_date, x.created_at LIMIT $1")).
		WithArgs(50).
		WillReturnRows(sqlmock.NewRows(prescriptionCols).
			AddRow("rx-2", "appt-1", "doc-1", "stu-2", "med-2", "2026-10-10", 5, nil, time.Now(), "Budi Santoso", "Dr. Rahman", "ORS", "sachet", 0))

	items, err := repo.ListUnfulfilled(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.NotNil(t, items[0].AppointmentID)
	assert.Equal(t, "appt-1", *items[0].AppointmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPrescriptionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewPrescriptionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO prescriptions")).
		WithArgs(sqlmock.AnyArg(), nil, "doc-1", "stu-1", "med-1", "2026-10-14", 3, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	date, _ := models.ParseDate("2026-10-14")
	rx := &models.Prescription{DoctorID: "doc-1", StudentID: "stu-1", MedicationID: "med-1", Date: date, Quantity: 3}
	require.NoError(t, repo.Create(context.Background(), rx))
	assert.NotEmpty(t, rx.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
