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

type prescriptionRepository interface {
	Create(ctx context.Context, p *models.Prescription) error
	FindByID(ctx context.Context, id string) (*models.PrescriptionDetail, error)
	ListForStudent(ctx context.Context, studentID string) ([]models.PrescriptionDetail, error)
	ListForDoctor(ctx context.Context, doctorID string) ([]models.PrescriptionDetail, error)
	ListUnfulfilled(ctx context.Context, limit int) ([]models.PrescriptionDetail, error)
}

type medicationFinder interface {
	FindByID(ctx context.Context, id string) (*models.Medication, error)
}

type studentFinder interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// PrescriptionService issues prescriptions and reports their fulfilment.
type PrescriptionService struct {
	repo        prescriptionRepository
	medications medicationFinder
	students    studentFinder
	activity    activityRecorder
	cache       cacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
	today       func() models.Date
}

// PrescriptionServiceParams groups constructor dependencies.
type PrescriptionServiceParams struct {
	Repo        prescriptionRepository
	Medications medicationFinder
	Students    studentFinder
	Activity    activityRecorder
	Cache       cacheInvalidator
	Validator   *validator.Validate
	Logger      *zap.Logger
	Today       func() models.Date
}

// NewPrescriptionService constructs the service.
func NewPrescriptionService(params PrescriptionServiceParams) *PrescriptionService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Today == nil {
		params.Today = utcToday
	}
	return &PrescriptionService{
		repo:        params.Repo,
		medications: params.Medications,
		students:    params.Students,
		activity:    params.Activity,
		cache:       params.Cache,
		validator:   params.Validator,
		logger:      params.Logger,
		today:       params.Today,
	}
}

// Issue records a new prescription. Doctors always issue as themselves.
func (s *PrescriptionService) Issue(ctx context.Context, actor models.Actor, req dto.IssuePrescriptionRequest) (*dto.PrescriptionResponse, error) {
	if !actor.HasRole(models.RoleDoctor, models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only doctors can issue prescriptions")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prescription payload")
	}

	doctorID := actor.UserID
	if actor.IsAdmin() {
		if req.DoctorID == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "doctor_id is required")
		}
		doctorID = req.DoctorID
	}

	date := s.today()
	if req.Date != "" {
		parsed, err := models.ParseDate(req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		date = parsed
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	if _, err := s.medications.FindByID(ctx, req.MedicationID); err != nil {
		return nil, notFoundOr(err, "medication not found", "failed to load medication")
	}

	p := &models.Prescription{
		AppointmentID: req.AppointmentID,
		DoctorID:      doctorID,
		StudentID:     req.StudentID,
		MedicationID:  req.MedicationID,
		Date:          date,
		Quantity:      req.Quantity,
		Instructions:  req.Instructions,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue prescription")
	}

	if s.activity != nil {
		s.activity.Record(ctx, actor, models.ActivityPrescriptionIssue, "prescription", p.ID,
			fmt.Sprintf("%d of medication %s for student %s", p.Quantity, p.MedicationID, p.StudentID))
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, dashboardPattern(models.RoleDoctor, doctorID), dashboardPattern(models.RoleStudent, p.StudentID), dashboardPattern(models.RoleStaff, "*"))
	}

	detail, err := s.repo.FindByID(ctx, p.ID)
	if err != nil {
		s.logger.Warn("reload issued prescription", zap.String("id", p.ID), zap.Error(err))
		resp := dto.NewPrescriptionResponse(models.PrescriptionDetail{Prescription: *p})
		return &resp, nil
	}
	resp := dto.NewPrescriptionResponse(*detail)
	return &resp, nil
}

// Get returns one prescription visible to the actor.
func (s *PrescriptionService) Get(ctx context.Context, actor models.Actor, id string) (*dto.PrescriptionResponse, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "prescription not found", "failed to load prescription")
	}
	if actor.Role == models.RoleStudent && detail.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "prescription belongs to another student")
	}
	if actor.Role == models.RoleDoctor && detail.DoctorID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "prescription was issued by another doctor")
	}
	resp := dto.NewPrescriptionResponse(*detail)
	return &resp, nil
}

// ListForStudent returns a student's prescriptions, newest first.
func (s *PrescriptionService) ListForStudent(ctx context.Context, actor models.Actor, studentID string) ([]dto.PrescriptionResponse, error) {
	if actor.Role == models.RoleStudent && actor.UserID != studentID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own prescriptions")
	}
	items, err := s.repo.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prescriptions")
	}
	return dto.NewPrescriptionResponses(items), nil
}

// ListForDoctor returns the prescriptions a doctor issued.
func (s *PrescriptionService) ListForDoctor(ctx context.Context, actor models.Actor, doctorID string) ([]dto.PrescriptionResponse, error) {
	if actor.Role == models.RoleStudent || (actor.Role == models.RoleDoctor && actor.UserID != doctorID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot view another doctor's prescriptions")
	}
	items, err := s.repo.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list prescriptions")
	}
	return dto.NewPrescriptionResponses(items), nil
}

// ListUnfulfilled is the dispensary work queue.
func (s *PrescriptionService) ListUnfulfilled(ctx context.Context, actor models.Actor, limit int) ([]dto.PrescriptionResponse, error) {
	if !actor.HasRole(models.RoleStaff, models.RoleAdmin) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only staff can view the dispensing queue")
	}
	items, err := s.repo.ListUnfulfilled(ctx, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unfulfilled prescriptions")
	}
	return dto.NewPrescriptionResponses(items), nil
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, internal)
}
