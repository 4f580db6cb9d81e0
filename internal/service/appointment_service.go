package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
	"github.com/noah-isme/campus-clinic-api/pkg/lock"
)

type appointmentRepository interface {
	Create(ctx context.Context, appt *models.Appointment) error
	FindByID(ctx context.Context, id string) (*models.AppointmentDetail, error)
	UpdateStatus(ctx context.Context, id string, status models.AppointmentStatus) error
	Reschedule(ctx context.Context, id string, date models.Date, t models.ClockTime) error
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error)
	Upcoming(ctx context.Context, filter models.AppointmentFilter, from models.Date, limit int) ([]models.AppointmentDetail, error)
}

type slotResolver interface {
	SlotsFor(ctx context.Context, doctorID string, date models.Date) ([]models.Slot, error)
	Today() models.Date
}

type doctorFinder interface {
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
}

// AppointmentService books and manages appointments.
type AppointmentService struct {
	repo      appointmentRepository
	resolver  slotResolver
	doctors   doctorFinder
	locker    lock.SlotLocker
	activity  activityRecorder
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// AppointmentServiceParams groups constructor dependencies.
type AppointmentServiceParams struct {
	Repo      appointmentRepository
	Resolver  slotResolver
	Doctors   doctorFinder
	Locker    lock.SlotLocker
	Activity  activityRecorder
	Cache     cacheInvalidator
	Metrics   *MetricsService
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewAppointmentService constructs the service.
func NewAppointmentService(params AppointmentServiceParams) *AppointmentService {
	if params.Locker == nil {
		params.Locker = lock.NewNoopLocker()
	}
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	return &AppointmentService{
		repo:      params.Repo,
		resolver:  params.Resolver,
		doctors:   params.Doctors,
		locker:    params.Locker,
		activity:  params.Activity,
		cache:     params.Cache,
		metrics:   params.Metrics,
		validator: params.Validator,
		logger:    params.Logger,
	}
}

// Book creates a Scheduled appointment on a slot the resolver reports Available.
func (s *AppointmentService) Book(ctx context.Context, actor models.Actor, req dto.BookAppointmentRequest) (*models.Appointment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}
	studentID, err := bookingStudent(actor, req.StudentID)
	if err != nil {
		return nil, err
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	slotTime, err := models.ParseClockTime(req.Time)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if date.Before(s.resolver.Today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot book an appointment in the past")
	}
	if _, err := s.doctors.FindByID(ctx, req.DoctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}

	appt := &models.Appointment{
		StudentID: studentID,
		DoctorID:  req.DoctorID,
		Date:      date,
		Time:      slotTime,
		Status:    models.AppointmentScheduled,
		Reason:    req.Reason,
	}

	key := lock.SlotKey(req.DoctorID, date.String(), slotTime.String())
	err = s.locker.WithSlotLock(ctx, key, func(ctx context.Context) error {
		if err := s.ensureAvailable(ctx, req.DoctorID, date, slotTime); err != nil {
			return err
		}
		return s.repo.Create(ctx, appt)
	})
	if err != nil {
		outcome, failure := s.slotFailure(err, key, "failed to book appointment")
		s.metrics.RecordBooking(outcome)
		return nil, failure
	}

	s.metrics.RecordBooking(OutcomeSuccess)
	s.record(ctx, actor, models.ActivityAppointmentBook, appt.ID, fmt.Sprintf("booked %s %s with doctor %s", date, slotTime, req.DoctorID))
	s.invalidate(ctx, appt.DoctorID, appt.StudentID)
	return appt, nil
}

// Cancel cancels a Scheduled appointment. The student owner, the doctor and admins may cancel.
func (s *AppointmentService) Cancel(ctx context.Context, actor models.Actor, id string) (*models.AppointmentDetail, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != appt.StudentID && actor.UserID != appt.DoctorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appointment belongs to another user")
	}
	if err := s.transition(ctx, appt, models.AppointmentCancelled); err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.ActivityAppointmentCancel, appt.ID, fmt.Sprintf("cancelled %s %s", appt.Date, appt.Time))
	return appt, nil
}

// UpdateStatus lets the appointment's doctor (or an admin) complete or cancel it.
func (s *AppointmentService) UpdateStatus(ctx context.Context, actor models.Actor, id string, req dto.UpdateAppointmentStatusRequest) (*models.AppointmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "status must be Completed or Cancelled")
	}
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Role == models.RoleDoctor && actor.UserID == appt.DoctorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the appointment's doctor can change its status")
	}
	status := models.AppointmentStatus(req.Status)
	if err := s.transition(ctx, appt, status); err != nil {
		return nil, err
	}
	s.record(ctx, actor, models.ActivityAppointmentStatus, appt.ID, "status changed to "+string(status))
	return appt, nil
}

// Reschedule moves a Scheduled appointment to another available slot of the same
// doctor. The same users who may cancel may reschedule.
func (s *AppointmentService) Reschedule(ctx context.Context, actor models.Actor, id string, req dto.RescheduleAppointmentRequest) (*models.AppointmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reschedule payload")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	slotTime, err := models.ParseClockTime(req.Time)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if date.Before(s.resolver.Today()) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot move an appointment into the past")
	}
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && actor.UserID != appt.StudentID && actor.UserID != appt.DoctorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appointment belongs to another user")
	}
	if appt.Status != models.AppointmentScheduled {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("appointment is already %s", appt.Status))
	}
	if appt.Date.Equal(date) && appt.Time == slotTime {
		return appt, nil
	}

	key := lock.SlotKey(appt.DoctorID, date.String(), slotTime.String())
	err = s.locker.WithSlotLock(ctx, key, func(ctx context.Context) error {
		if err := s.ensureAvailable(ctx, appt.DoctorID, date, slotTime); err != nil {
			return err
		}
		return s.repo.Reschedule(ctx, appt.ID, date, slotTime)
	})
	if err != nil {
		if errors.Is(err, repository.ErrStatusTransition) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "appointment is no longer Scheduled")
		}
		_, failure := s.slotFailure(err, key, "failed to reschedule appointment")
		return nil, failure
	}

	previous := fmt.Sprintf("%s %s", appt.Date, appt.Time)
	appt.Date, appt.Time = date, slotTime
	s.record(ctx, actor, models.ActivityAppointmentReschedule, appt.ID, fmt.Sprintf("rescheduled from %s to %s %s", previous, date, slotTime))
	s.invalidate(ctx, appt.DoctorID, appt.StudentID)
	return appt, nil
}

// Get returns one appointment visible to the actor.
func (s *AppointmentService) Get(ctx context.Context, actor models.Actor, id string) (*models.AppointmentDetail, error) {
	appt, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.HasRole(models.RoleStudent, models.RoleDoctor) && actor.UserID != appt.StudentID && actor.UserID != appt.DoctorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "appointment belongs to another user")
	}
	return appt, nil
}

// ListForStudent returns every appointment of a student.
func (s *AppointmentService) ListForStudent(ctx context.Context, actor models.Actor, studentID string) ([]models.AppointmentDetail, error) {
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own appointments")
	}
	return s.list(ctx, models.AppointmentFilter{StudentID: studentID})
}

// UpcomingForStudent returns Scheduled appointments from today onward.
func (s *AppointmentService) UpcomingForStudent(ctx context.Context, actor models.Actor, studentID string, limit int) ([]models.AppointmentDetail, error) {
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own appointments")
	}
	appts, err := s.repo.Upcoming(ctx, models.AppointmentFilter{StudentID: studentID}, s.resolver.Today(), limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	if appts == nil {
		appts = []models.AppointmentDetail{}
	}
	return appts, nil
}

// ListForDoctor returns a doctor's appointments, optionally for a single date.
func (s *AppointmentService) ListForDoctor(ctx context.Context, actor models.Actor, doctorID string, date *models.Date) ([]models.AppointmentDetail, error) {
	if actor.Role == models.RoleStudent || (actor.Role == models.RoleDoctor && actor.UserID != doctorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another doctor's appointments")
	}
	filter := models.AppointmentFilter{DoctorID: doctorID}
	if date != nil {
		filter.From, filter.To = date, date
	}
	return s.list(ctx, filter)
}

func (s *AppointmentService) list(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error) {
	appts, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list appointments")
	}
	if appts == nil {
		appts = []models.AppointmentDetail{}
	}
	return appts, nil
}

func (s *AppointmentService) ensureAvailable(ctx context.Context, doctorID string, date models.Date, t models.ClockTime) error {
	slots, err := s.resolver.SlotsFor(ctx, doctorID, date)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.Time != t {
			continue
		}
		if slot.Status == models.SlotAvailable {
			return nil
		}
		return appErrors.Clone(appErrors.ErrSlotUnavailable, fmt.Sprintf("slot %s is %s", t, slot.Status))
	}
	return appErrors.Clone(appErrors.ErrSlotUnavailable, fmt.Sprintf("%s is not within the doctor's working hours", t))
}

func (s *AppointmentService) slotFailure(err error, key, message string) (string, error) {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		s.logger.Warn("double booking rejected by storage", zap.String("slot", key))
		return OutcomeSlotUnavailable, appErrors.Clone(appErrors.ErrSlotUnavailable, "slot was just booked by someone else")
	case errors.Is(err, lock.ErrLockNotAcquired):
		return OutcomeSlotUnavailable, appErrors.Clone(appErrors.ErrSlotUnavailable, "slot is being booked by someone else")
	case errors.Is(err, appErrors.ErrSlotUnavailable):
		return OutcomeSlotUnavailable, err
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return OutcomeError, appErr
	}
	s.logger.Error(message, zap.String("slot", key), zap.Error(err))
	return OutcomeError, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *AppointmentService) load(ctx context.Context, id string) (*models.AppointmentDetail, error) {
	appt, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "appointment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load appointment")
	}
	return appt, nil
}

func (s *AppointmentService) transition(ctx context.Context, appt *models.AppointmentDetail, status models.AppointmentStatus) error {
	if err := s.repo.UpdateStatus(ctx, appt.ID, status); err != nil {
		if errors.Is(err, repository.ErrStatusTransition) {
			return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("appointment is already %s", appt.Status))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update appointment")
	}
	appt.Status = status
	s.invalidate(ctx, appt.DoctorID, appt.StudentID)
	return nil
}

func (s *AppointmentService) invalidate(ctx context.Context, doctorID, studentID string) {
	if s.cache == nil {
		return
	}
	s.cache.Invalidate(ctx, dashboardPattern(models.RoleDoctor, doctorID), dashboardPattern(models.RoleStudent, studentID))
}

func (s *AppointmentService) record(ctx context.Context, actor models.Actor, action, id, desc string) {
	if s.activity != nil {
		s.activity.Record(ctx, actor, action, "appointment", id, desc)
	}
}

func bookingStudent(actor models.Actor, requested string) (string, error) {
	switch actor.Role {
	case models.RoleStudent:
		if requested != "" && requested != actor.UserID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "students can only book for themselves")
		}
		return actor.UserID, nil
	case models.RoleAdmin, models.RoleStaff:
		if requested == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "student_id is required")
		}
		return requested, nil
	default:
		return "", appErrors.Clone(appErrors.ErrForbidden, "only students, staff and admins can book appointments")
	}
}
