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
)

const (
	ledgerDispense = "dispense"
	ledgerUpdate   = "update"
	ledgerDelete   = "delete"
)

type dispensingLedger interface {
	Dispense(ctx context.Context, event *models.DispensingEvent) error
	UpdateQuantity(ctx context.Context, id string, quantity int) (*models.DispensingEvent, error)
	Delete(ctx context.Context, id string) (*models.DispensingEvent, error)
	FindByID(ctx context.Context, id string) (*models.DispensingEvent, error)
	ListByPrescription(ctx context.Context, prescriptionID string) ([]models.DispensingEvent, error)
	ListBetween(ctx context.Context, from, to models.Date) ([]repository.DispensingRow, error)
}

type prescriptionFinder interface {
	FindByID(ctx context.Context, id string) (*models.PrescriptionDetail, error)
}

// DispensingService hands out medication against prescriptions. Stock and ceiling
// checks happen atomically in the ledger; this layer validates input, authorises the
// actor and translates outcomes.
type DispensingService struct {
	ledger        dispensingLedger
	prescriptions prescriptionFinder
	activity      activityRecorder
	cache         cacheInvalidator
	metrics       *MetricsService
	validator     *validator.Validate
	logger        *zap.Logger
	today         func() models.Date
}

// DispensingServiceParams groups constructor dependencies.
type DispensingServiceParams struct {
	Ledger        dispensingLedger
	Prescriptions prescriptionFinder
	Activity      activityRecorder
	Cache         cacheInvalidator
	Metrics       *MetricsService
	Validator     *validator.Validate
	Logger        *zap.Logger
	Today         func() models.Date
}

// NewDispensingService constructs the service.
func NewDispensingService(params DispensingServiceParams) *DispensingService {
	if params.Validator == nil {
		params.Validator = validator.New()
	}
	if params.Logger == nil {
		params.Logger = zap.NewNop()
	}
	if params.Today == nil {
		params.Today = utcToday
	}
	return &DispensingService{
		ledger:        params.Ledger,
		prescriptions: params.Prescriptions,
		activity:      params.Activity,
		cache:         params.Cache,
		metrics:       params.Metrics,
		validator:     params.Validator,
		logger:        params.Logger,
		today:         params.Today,
	}
}

// Dispense records a new event and takes its quantity out of stock.
func (s *DispensingService) Dispense(ctx context.Context, actor models.Actor, req dto.DispenseRequest) (*models.DispensingEvent, error) {
	if err := requireDispensary(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid dispensing payload")
	}
	date := s.today()
	if req.DateGiven != "" {
		parsed, err := models.ParseDate(req.DateGiven)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
		}
		date = parsed
	}

	rx, err := s.prescriptions.FindByID(ctx, req.PrescriptionID)
	if err != nil {
		s.metrics.RecordLedgerOperation(ledgerDispense, outcomeFor(err))
		return nil, notFoundOr(err, "prescription not found", "failed to load prescription")
	}
	if req.MedicationID != "" && req.MedicationID != rx.MedicationID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "medication_id does not match the prescription")
	}

	event := &models.DispensingEvent{
		PrescriptionID: rx.ID,
		MedicationID:   rx.MedicationID,
		DateGiven:      date,
		QuantityGiven:  req.Quantity,
	}
	if actor.UserID != "" {
		by := actor.UserID
		event.DispensedBy = &by
	}

	if err := s.ledger.Dispense(ctx, event); err != nil {
		return nil, s.failure(ledgerDispense, err, "prescription or medication not found")
	}
	s.metrics.RecordLedgerOperation(ledgerDispense, OutcomeSuccess)
	s.record(ctx, actor, models.ActivityDispenseCreate, event.ID,
		fmt.Sprintf("dispensed %d of %s for prescription %s", event.QuantityGiven, rx.MedicationName, rx.ID))
	s.invalidate(ctx, rx.StudentID)
	return event, nil
}

// Update changes an event's quantity and moves stock by the difference.
func (s *DispensingService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateDispenseRequest) (*models.DispensingEvent, error) {
	if err := requireDispensary(actor); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "quantity must be positive")
	}
	event, err := s.ledger.UpdateQuantity(ctx, id, req.Quantity)
	if err != nil {
		return nil, s.failure(ledgerUpdate, err, "dispensing event not found")
	}
	s.metrics.RecordLedgerOperation(ledgerUpdate, OutcomeSuccess)
	s.record(ctx, actor, models.ActivityDispenseUpdate, event.ID, fmt.Sprintf("quantity set to %d", event.QuantityGiven))
	s.invalidate(ctx, "*")
	return event, nil
}

// Delete removes an event and returns its quantity to stock.
func (s *DispensingService) Delete(ctx context.Context, actor models.Actor, id string) error {
	if err := requireDispensary(actor); err != nil {
		return err
	}
	event, err := s.ledger.Delete(ctx, id)
	if err != nil {
		return s.failure(ledgerDelete, err, "dispensing event not found")
	}
	s.metrics.RecordLedgerOperation(ledgerDelete, OutcomeSuccess)
	s.record(ctx, actor, models.ActivityDispenseDelete, event.ID,
		fmt.Sprintf("returned %d of medication %s to stock", event.QuantityGiven, event.MedicationID))
	s.invalidate(ctx, "*")
	return nil
}

// Get returns one event.
func (s *DispensingService) Get(ctx context.Context, actor models.Actor, id string) (*models.DispensingEvent, error) {
	if err := requireClinician(actor); err != nil {
		return nil, err
	}
	event, err := s.ledger.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "dispensing event not found", "failed to load dispensing event")
	}
	return event, nil
}

// ListForPrescription returns the events of one prescription. Students may list their own.
func (s *DispensingService) ListForPrescription(ctx context.Context, actor models.Actor, prescriptionID string) ([]models.DispensingEvent, error) {
	rx, err := s.prescriptions.FindByID(ctx, prescriptionID)
	if err != nil {
		return nil, notFoundOr(err, "prescription not found", "failed to load prescription")
	}
	if actor.Role == models.RoleStudent && rx.StudentID != actor.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "prescription belongs to another student")
	}
	events, err := s.ledger.ListByPrescription(ctx, prescriptionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dispensing events")
	}
	if events == nil {
		events = []models.DispensingEvent{}
	}
	return events, nil
}

// ListBetween returns events given in the inclusive date range.
func (s *DispensingService) ListBetween(ctx context.Context, actor models.Actor, rawFrom, rawTo string) ([]repository.DispensingRow, error) {
	if err := requireDispensary(actor); err != nil {
		return nil, err
	}
	from, to, err := parseRange(rawFrom, rawTo)
	if err != nil {
		return nil, err
	}
	rows, err := s.ledger.ListBetween(ctx, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list dispensing events")
	}
	if rows == nil {
		rows = []repository.DispensingRow{}
	}
	return rows, nil
}

func (s *DispensingService) failure(op string, err error, notFound string) error {
	outcome := outcomeFor(err)
	s.metrics.RecordLedgerOperation(op, outcome)
	switch outcome {
	case OutcomeInsufficientStock:
		return appErrors.Clone(appErrors.ErrInsufficientStock, "")
	case OutcomeQuantityExceeded:
		return appErrors.Clone(appErrors.ErrQuantityExceeded, "")
	case OutcomeNotFound:
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	s.logger.Error("dispensing ledger failure", zap.String("operation", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to "+op+" medication")
}

func (s *DispensingService) record(ctx context.Context, actor models.Actor, action, id, desc string) {
	if s.activity != nil {
		s.activity.Record(ctx, actor, action, "dispensing_event", id, desc)
	}
}

func (s *DispensingService) invalidate(ctx context.Context, studentID string) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, dashboardPattern(models.RoleStaff, "*"), dashboardPattern(models.RoleStudent, studentID))
	}
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, repository.ErrInsufficientStock):
		return OutcomeInsufficientStock
	case errors.Is(err, repository.ErrQuantityExceedsPrescription):
		return OutcomeQuantityExceeded
	case errors.Is(err, sql.ErrNoRows):
		return OutcomeNotFound
	}
	return OutcomeError
}

func parseRange(rawFrom, rawTo string) (models.Date, models.Date, error) {
	if rawFrom == "" || rawTo == "" {
		return models.Date{}, models.Date{}, appErrors.Clone(appErrors.ErrValidation, "from and to are required")
	}
	from, err := models.ParseDate(rawFrom)
	if err != nil {
		return models.Date{}, models.Date{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	to, err := models.ParseDate(rawTo)
	if err != nil {
		return models.Date{}, models.Date{}, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if to.Before(from) {
		return models.Date{}, models.Date{}, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	return from, to, nil
}
