package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type medicationRepository interface {
	List(ctx context.Context, filter models.MedicationFilter) ([]models.Medication, int, error)
	FindByID(ctx context.Context, id string) (*models.Medication, error)
	Create(ctx context.Context, med *models.Medication) error
	Update(ctx context.Context, med *models.Medication) error
	AdjustStock(ctx context.Context, id string, delta int) (*models.Medication, error)
	LowStock(ctx context.Context, threshold int) ([]models.Medication, error)
	Expired(ctx context.Context, asOf models.Date) ([]models.Medication, error)
}

// MedicationService manages the inventory catalogue.
type MedicationService struct {
	repo              medicationRepository
	activity          activityRecorder
	cache             cacheInvalidator
	validator         *validator.Validate
	logger            *zap.Logger
	lowStockThreshold int
	today             func() models.Date
}

// MedicationServiceParams groups constructor dependencies.
type MedicationServiceParams struct {
	Repo              medicationRepository
	Activity          activityRecorder
	Cache             cacheInvalidator
	Validator         *validator.Validate
	Logger            *zap.Logger
	LowStockThreshold int
	Today             func() models.Date
}

// NewMedicationService constructs the service.
func NewMedicationService(params MedicationServiceParams) *MedicationService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.LowStockThreshold <= 0 {
		params.LowStockThreshold = 10
	}
	if params.Today == nil {
		params.Today = utcToday
	}
	return &MedicationService{
		repo:              params.Repo,
		activity:          params.Activity,
		cache:             params.Cache,
		validator:         params.Validator,
		logger:            params.Logger,
		lowStockThreshold: params.LowStockThreshold,
		today:             params.Today,
	}
}

// List returns a page of medications.
func (s *MedicationService) List(ctx context.Context, actor models.Actor, filter models.MedicationFilter) ([]models.Medication, *models.Pagination, error) {
	if err := requireClinician(actor); err != nil {
		return nil, nil, err
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	meds, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list medications")
	}
	if meds == nil {
		meds = []models.Medication{}
	}
	return meds, models.NewPagination(filter.Page, filter.PageSize, total), nil
}

// Get returns one medication.
func (s *MedicationService) Get(ctx context.Context, actor models.Actor, id string) (*models.Medication, error) {
	if err := requireClinician(actor); err != nil {
		return nil, err
	}
	med, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "medication not found", "failed to load medication")
	}
	return med, nil
}

// Create adds a medication with its opening stock.
func (s *MedicationService) Create(ctx context.Context, actor models.Actor, req dto.MedicationRequest) (*models.Medication, error) {
	if err := requireDispensary(actor); err != nil {
		return nil, err
	}
	med, err := s.buildMedication(req)
	if err != nil {
		return nil, err
	}
	med.QuantityInStock = req.QuantityInStock
	if err := s.repo.Create(ctx, med); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create medication")
	}
	s.record(ctx, actor, models.ActivityMedicationCreate, med.ID, fmt.Sprintf("%s with %d in stock", med.Name, med.QuantityInStock))
	s.invalidate(ctx)
	return med, nil
}

// Update changes a medication's name, form and expiry. Stock is left untouched.
func (s *MedicationService) Update(ctx context.Context, actor models.Actor, id string, req dto.MedicationRequest) (*models.Medication, error) {
	if err := requireDispensary(actor); err != nil {
		return nil, err
	}
	med, err := s.buildMedication(req)
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "medication not found", "failed to load medication")
	}
	med.ID = existing.ID
	med.QuantityInStock = existing.QuantityInStock
	med.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, med); err != nil {
		return nil, notFoundOr(err, "medication not found", "failed to update medication")
	}
	s.record(ctx, actor, models.ActivityMedicationUpdate, med.ID, med.Name)
	s.invalidate(ctx)
	return med, nil
}

// AdjustStock applies a manual correction such as a delivery or a write-off.
func (s *MedicationService) AdjustStock(ctx context.Context, actor models.Actor, id string, req dto.AdjustStockRequest) (*models.Medication, error) {
	if err := requireDispensary(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid stock adjustment")
	}
	med, err := s.repo.AdjustStock(ctx, id, req.Delta)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, appErrors.Clone(appErrors.ErrInsufficientStock, fmt.Sprintf("cannot remove %d units", -req.Delta))
		}
		return nil, notFoundOr(err, "medication not found", "failed to adjust stock")
	}
	s.record(ctx, actor, models.ActivityStockAdjust, med.ID, fmt.Sprintf("%+d (%s), now %d", req.Delta, req.Reason, med.QuantityInStock))
	s.invalidate(ctx)
	return med, nil
}

// LowStock lists medications at or below threshold; zero or less uses the configured default.
func (s *MedicationService) LowStock(ctx context.Context, actor models.Actor, threshold int) ([]models.Medication, error) {
	if err := requireClinician(actor); err != nil {
		return nil, err
	}
	if threshold <= 0 {
		threshold = s.lowStockThreshold
	}
	meds, err := s.repo.LowStock(ctx, threshold)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list low stock")
	}
	if meds == nil {
		meds = []models.Medication{}
	}
	return meds, nil
}

// Expired lists medications expired on or before asOf, defaulting to today.
func (s *MedicationService) Expired(ctx context.Context, actor models.Actor, asOf string) ([]models.Medication, error) {
	if err := requireClinician(actor); err != nil {
		return nil, err
	}
	date := s.today()
	if asOf != "" {
		parsed, err := models.ParseDate(asOf)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		date = parsed
	}
	meds, err := s.repo.Expired(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list expired medications")
	}
	if meds == nil {
		meds = []models.Medication{}
	}
	return meds, nil
}

// LowStockThreshold exposes the configured default threshold.
func (s *MedicationService) LowStockThreshold() int {
	return s.lowStockThreshold
}

func (s *MedicationService) buildMedication(req dto.MedicationRequest) (*models.Medication, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid medication payload")
	}
	med := &models.Medication{Name: req.Name, DosageForm: strings.TrimSpace(req.DosageForm)}
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		expiry, err := models.ParseDate(*req.ExpiryDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		med.ExpiryDate = &expiry
	}
	return med, nil
}

func (s *MedicationService) record(ctx context.Context, actor models.Actor, action, id, desc string) {
	if s.activity != nil {
		s.activity.Record(ctx, actor, action, "medication", id, desc)
	}
}

func (s *MedicationService) invalidate(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, dashboardPattern(models.RoleStaff, "*"))
	}
}

func requireClinician(actor models.Actor) error {
	if !actor.HasRole(models.RoleDoctor, models.RoleStaff, models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "inventory is restricted to clinic personnel")
	}
	return nil
}

func requireDispensary(actor models.Actor) error {
	if !actor.HasRole(models.RoleStaff, models.RoleAdmin) {
		return appErrors.Clone(appErrors.ErrForbidden, "only dispensary staff can change inventory")
	}
	return nil
}
