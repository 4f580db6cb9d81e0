package service

import (
	"context"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type historyAppointments interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error)
}

type historyPrescriptions interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.PrescriptionDetail, error)
}

type historyDispensing interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.DispensingEvent, error)
}

// HistoryService assembles a student's medical record.
type HistoryService struct {
	students      studentFinder
	appointments  historyAppointments
	prescriptions historyPrescriptions
	dispensing    historyDispensing
}

// NewHistoryService constructs the service.
func NewHistoryService(students studentFinder, appointments historyAppointments, prescriptions historyPrescriptions, dispensing historyDispensing) *HistoryService {
	return &HistoryService{students: students, appointments: appointments, prescriptions: prescriptions, dispensing: dispensing}
}

// History returns appointments, prescriptions and dispensing events of one student.
// Students only see their own record.
func (s *HistoryService) History(ctx context.Context, actor models.Actor, studentID string) (*models.MedicalHistory, error) {
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own history")
	}
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}

	appts, err := s.appointments.List(ctx, models.AppointmentFilter{StudentID: studentID})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointments")
	}
	prescriptions, err := s.prescriptions.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prescriptions")
	}
	events, err := s.dispensing.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dispensing events")
	}

	history := &models.MedicalHistory{
		Student:       *student,
		Appointments:  appts,
		Prescriptions: prescriptions,
		Dispensing:    events,
	}
	if history.Appointments == nil {
		history.Appointments = []models.AppointmentDetail{}
	}
	if history.Prescriptions == nil {
		history.Prescriptions = []models.PrescriptionDetail{}
	}
	if history.Dispensing == nil {
		history.Dispensing = []models.DispensingEvent{}
	}
	return history, nil
}
