package repository

import (
	"context"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

func TestDashboardRepositoryDoctorCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AS appointments_today")).
		WithArgs("doc-1", "2026-10-14").
		WillReturnRows(sqlmock.NewRows([]string{"appointments_today", "pending_appointments", "prescriptions_issued", "patients_seen"}).AddRow(3, 7, 12, 5))

	today, _ := models.ParseDate("2026-10-14")
	counts, err := repo.DoctorCounts(context.Background(), "doc-1", today)
	require.NoError(t, err)
	assert.Equal(t, DoctorCounts{AppointmentsToday: 3, PendingAppointments: 7, PrescriptionsIssued: 12, PatientsSeen: 5}, *counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboardRepositoryStaffCounts(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("AS medications_total")).
		WithArgs("2026-10-14", 10).
		WillReturnRows(sqlmock.NewRows([]string{"medications_total", "low_stock_count", "expired_count", "unfulfilled_prescriptions", "dispensed_today"}).AddRow(40, 4, 1, 6, 18))

	today, _ := models.ParseDate("2026-10-14")
	counts, err := repo.StaffCounts(context.Background(), today, 10)
	require.NoError(t, err)
	assert.Equal(t, 18, counts.DispensedToday)
	assert.Equal(t, 4, counts.LowStockCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}
