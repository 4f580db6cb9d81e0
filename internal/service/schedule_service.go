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
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type scheduleRepository interface {
	ListByDoctor(ctx context.Context, doctorID string) ([]models.ScheduleEntry, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleEntry, error)
	Create(ctx context.Context, entry *models.ScheduleEntry) error
	Update(ctx context.Context, entry *models.ScheduleEntry) error
	Delete(ctx context.Context, id string) error
}

type doctorRepository interface {
	List(ctx context.Context, specialization string) ([]models.Doctor, error)
	FindByID(ctx context.Context, id string) (*models.Doctor, error)
}

// ScheduleService manages doctors' recurring weekly working hours.
type ScheduleService struct {
	schedules scheduleRepository
	doctors   doctorRepository
	activity  activityRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService constructs the service.
func NewScheduleService(schedules scheduleRepository, doctors doctorRepository, activity activityRecorder, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{schedules: schedules, doctors: doctors, activity: activity, validator: validate, logger: logger}
}

// ListDoctors returns every doctor, optionally narrowed by specialization.
func (s *ScheduleService) ListDoctors(ctx context.Context, specialization string) ([]models.Doctor, error) {
	doctors, err := s.doctors.List(ctx, specialization)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list doctors")
	}
	if doctors == nil {
		doctors = []models.Doctor{}
	}
	return doctors, nil
}

// ListSchedule returns a doctor's weekly schedule.
func (s *ScheduleService) ListSchedule(ctx context.Context, doctorID string) ([]models.ScheduleEntry, error) {
	if err := s.ensureDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	entries, err := s.schedules.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule")
	}
	if entries == nil {
		entries = []models.ScheduleEntry{}
	}
	return entries, nil
}

// CreateEntry adds a working block. Doctors create for themselves; admins name the doctor.
func (s *ScheduleService) CreateEntry(ctx context.Context, actor models.Actor, req dto.ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	doctorID, err := s.targetDoctor(actor, req.DoctorID)
	if err != nil {
		return nil, err
	}
	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}
	if err := s.ensureDoctor(ctx, doctorID); err != nil {
		return nil, err
	}
	entry.DoctorID = doctorID

	if err := s.schedules.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule entry")
	}
	s.record(ctx, actor, models.ActivityScheduleCreate, entry)
	return entry, nil
}

// UpdateEntry replaces the day and hours of an entry the actor owns.
func (s *ScheduleService) UpdateEntry(ctx context.Context, actor models.Actor, id string, req dto.ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	existing, err := s.ownedEntry(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	entry, err := s.buildEntry(req)
	if err != nil {
		return nil, err
	}
	entry.ID = existing.ID
	entry.DoctorID = existing.DoctorID
	entry.CreatedAt = existing.CreatedAt

	if err := s.schedules.Update(ctx, entry); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule entry")
	}
	s.record(ctx, actor, models.ActivityScheduleUpdate, entry)
	return entry, nil
}

// DeleteEntry removes an entry the actor owns. Existing appointments are kept.
func (s *ScheduleService) DeleteEntry(ctx context.Context, actor models.Actor, id string) error {
	entry, err := s.ownedEntry(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.schedules.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule entry")
	}
	s.record(ctx, actor, models.ActivityScheduleDelete, entry)
	return nil
}

func (s *ScheduleService) buildEntry(req dto.ScheduleEntryRequest) (*models.ScheduleEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}
	day, err := models.ParseDayOfWeek(req.DayOfWeek)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	start, err := models.ParseClockTime(req.StartTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	end, err := models.ParseClockTime(req.EndTime)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if start >= end {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_time must be before end_time")
	}
	return &models.ScheduleEntry{DayOfWeek: day, StartTime: start, EndTime: end}, nil
}

func (s *ScheduleService) targetDoctor(actor models.Actor, requested string) (string, error) {
	switch {
	case actor.Role == models.RoleDoctor:
		return actor.UserID, nil
	case actor.IsAdmin():
		if requested == "" {
			return "", appErrors.Clone(appErrors.ErrValidation, "doctor_id is required")
		}
		return requested, nil
	default:
		return "", appErrors.Clone(appErrors.ErrForbidden, "only doctors and admins manage schedules")
	}
}

func (s *ScheduleService) ownedEntry(ctx context.Context, actor models.Actor, id string) (*models.ScheduleEntry, error) {
	if !actor.HasRole(models.RoleDoctor, models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only doctors and admins manage schedules")
	}
	entry, err := s.schedules.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule entry not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule entry")
	}
	if !actor.IsAdmin() && entry.DoctorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "schedule entry belongs to another doctor")
	}
	return entry, nil
}

func (s *ScheduleService) ensureDoctor(ctx context.Context, doctorID string) error {
	if _, err := s.doctors.FindByID(ctx, doctorID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "doctor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor")
	}
	return nil
}

func (s *ScheduleService) record(ctx context.Context, actor models.Actor, action string, entry *models.ScheduleEntry) {
	if s.activity == nil {
		return
	}
	desc := fmt.Sprintf("%s %s-%s", entry.DayOfWeek, entry.StartTime, entry.EndTime)
	s.activity.Record(ctx, actor, action, "doctor_schedule", entry.ID, desc)
}
