package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type dashboardCounter interface {
	DoctorCounts(ctx context.Context, doctorID string, today models.Date) (*repository.DoctorCounts, error)
	StaffCounts(ctx context.Context, today models.Date, lowStockThreshold int) (*repository.StaffCounts, error)
}

type dashboardAppointments interface {
	List(ctx context.Context, filter models.AppointmentFilter) ([]models.AppointmentDetail, error)
	Upcoming(ctx context.Context, filter models.AppointmentFilter, from models.Date, limit int) ([]models.AppointmentDetail, error)
}

type dashboardMedications interface {
	LowStock(ctx context.Context, threshold int) ([]models.Medication, error)
}

type dashboardPrescriptions interface {
	ListForStudent(ctx context.Context, studentID string) ([]models.PrescriptionDetail, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL            time.Duration
	LowStockThreshold   int
	UpcomingLimit       int
	RecentPrescriptions int
}

// DashboardService composes role dashboards and caches them per user and day.
type DashboardService struct {
	counts        dashboardCounter
	appointments  dashboardAppointments
	medications   dashboardMedications
	prescriptions dashboardPrescriptions
	cache         dashboardCache
	logger        *zap.Logger
	today         func() models.Date
	cfg           DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Counts        dashboardCounter
	Appointments  dashboardAppointments
	Medications   dashboardMedications
	Prescriptions dashboardPrescriptions
	Cache         dashboardCache
	Logger        *zap.Logger
	Today         func() models.Date
	Config        DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if cfg.UpcomingLimit <= 0 {
		cfg.UpcomingLimit = 5
	}
	if cfg.RecentPrescriptions <= 0 {
		cfg.RecentPrescriptions = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	today := params.Today
	if today == nil {
		today = utcToday
	}
	return &DashboardService{
		counts:        params.Counts,
		appointments:  params.Appointments,
		medications:   params.Medications,
		prescriptions: params.Prescriptions,
		cache:         params.Cache,
		logger:        logger,
		today:         today,
		cfg:           cfg,
	}
}

// dashboardPattern matches every cached dashboard of one user (or "*" for all users)
// of a role.
func dashboardPattern(role models.UserRole, userID string) string {
	return fmt.Sprintf("dash:%s:%s:*", role, userID)
}

func dashboardKey(role models.UserRole, userID string, date models.Date) string {
	return fmt.Sprintf("dash:%s:%s:%s", role, userID, date)
}

// Doctor returns the doctor dashboard and indicates cache utilisation. Admins may pass
// any doctor id.
func (s *DashboardService) Doctor(ctx context.Context, actor models.Actor, doctorID string) (*dto.DoctorDashboardResponse, bool, error) {
	doctorID, err := scopedSubject(actor, models.RoleDoctor, doctorID)
	if err != nil {
		return nil, false, err
	}
	today := s.today()
	key := dashboardKey(models.RoleDoctor, doctorID, today)

	var cached dto.DoctorDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	counts, err := s.counts.DoctorCounts(ctx, doctorID, today)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load doctor dashboard")
	}
	schedule, err := s.appointments.List(ctx, models.AppointmentFilter{DoctorID: doctorID, From: &today, To: &today})
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load today's appointments")
	}
	if schedule == nil {
		schedule = []models.AppointmentDetail{}
	}

	summary := &dto.DoctorDashboardResponse{
		DoctorID:            doctorID,
		Date:                today.String(),
		AppointmentsToday:   counts.AppointmentsToday,
		PendingAppointments: counts.PendingAppointments,
		PrescriptionsIssued: counts.PrescriptionsIssued,
		PatientsSeen:        counts.PatientsSeen,
		TodaySchedule:       schedule,
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Staff returns the dispensary dashboard.
func (s *DashboardService) Staff(ctx context.Context, actor models.Actor) (*dto.StaffDashboardResponse, bool, error) {
	if !actor.HasRole(models.RoleStaff, models.RoleAdmin) {
		return nil, false, appErrors.Clone(appErrors.ErrForbidden, "staff dashboard is restricted to dispensary staff")
	}
	today := s.today()
	key := dashboardKey(models.RoleStaff, actor.UserID, today)

	var cached dto.StaffDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	counts, err := s.counts.StaffCounts(ctx, today, s.cfg.LowStockThreshold)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff dashboard")
	}
	lowStock, err := s.medications.LowStock(ctx, s.cfg.LowStockThreshold)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load low stock")
	}
	if lowStock == nil {
		lowStock = []models.Medication{}
	}

	summary := &dto.StaffDashboardResponse{
		Date:                     today.String(),
		MedicationsTotal:         counts.MedicationsTotal,
		LowStockCount:            counts.LowStockCount,
		ExpiredCount:             counts.ExpiredCount,
		UnfulfilledPrescriptions: counts.UnfulfilledPrescriptions,
		DispensedToday:           counts.DispensedToday,
		LowStock:                 lowStock,
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// Student returns a student's upcoming care. Staff and admins may pass any student id.
func (s *DashboardService) Student(ctx context.Context, actor models.Actor, studentID string) (*dto.StudentDashboardResponse, bool, error) {
	studentID, err := scopedSubject(actor, models.RoleStudent, studentID)
	if err != nil {
		return nil, false, err
	}
	today := s.today()
	key := dashboardKey(models.RoleStudent, studentID, today)

	var cached dto.StudentDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	upcoming, err := s.appointments.Upcoming(ctx, models.AppointmentFilter{StudentID: studentID}, today, s.cfg.UpcomingLimit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load upcoming appointments")
	}
	if upcoming == nil {
		upcoming = []models.AppointmentDetail{}
	}
	prescriptions, err := s.prescriptions.ListForStudent(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prescriptions")
	}

	active := 0
	for _, p := range prescriptions {
		if p.Remaining() > 0 {
			active++
		}
	}
	if len(prescriptions) > s.cfg.RecentPrescriptions {
		prescriptions = prescriptions[:s.cfg.RecentPrescriptions]
	}

	summary := &dto.StudentDashboardResponse{
		StudentID:           studentID,
		Date:                today.String(),
		Upcoming:            upcoming,
		ActivePrescriptions: active,
		RecentPrescriptions: dto.NewPrescriptionResponses(prescriptions),
	}
	s.persistCache(ctx, key, summary)
	return summary, false, nil
}

// tryCache fills dest on a hit. Cache failures degrade to a miss.
func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		return false
	}
	return hit
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// scopedSubject resolves whose dashboard is requested. Users of role see their own;
// admins (and staff for students) may name another user.
func scopedSubject(actor models.Actor, role models.UserRole, requested string) (string, error) {
	if actor.Role == role {
		if requested != "" && requested != actor.UserID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "cannot view another user's dashboard")
		}
		return actor.UserID, nil
	}
	allowed := actor.IsAdmin() || (role == models.RoleStudent && actor.Role == models.RoleStaff)
	if !allowed {
		return "", appErrors.Clone(appErrors.ErrForbidden, "dashboard not available for this role")
	}
	if requested == "" {
		return "", appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}
	return requested, nil
}
