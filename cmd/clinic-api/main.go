package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-clinic-api/api/swagger"
	"github.com/noah-isme/campus-clinic-api/internal/handler"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	"github.com/noah-isme/campus-clinic-api/internal/service"
	"github.com/noah-isme/campus-clinic-api/pkg/cache"
	"github.com/noah-isme/campus-clinic-api/pkg/config"
	"github.com/noah-isme/campus-clinic-api/pkg/database"
	"github.com/noah-isme/campus-clinic-api/pkg/export"
	"github.com/noah-isme/campus-clinic-api/pkg/jobs"
	"github.com/noah-isme/campus-clinic-api/pkg/lock"
	"github.com/noah-isme/campus-clinic-api/pkg/logger"
	"github.com/noah-isme/campus-clinic-api/pkg/storage"
)

// @title Campus Clinic API
// @version 1.0.0
// @description Appointments, prescriptions and the medication dispensing ledger of a campus clinic.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	db, err := database.NewPostgres(connectCtx, cfg.Database)
	cancel()
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer db.Close()

	connectCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
	rdb, err := cache.NewRedis(connectCtx, cfg.Redis)
	cancel()
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer rdb.Close()

	app, err := buildApp(cfg, logr, db, rdb)
	if err != nil {
		return err
	}

	if app.reportQueue != nil {
		app.reportQueue.Start(ctx)
		defer app.reportQueue.Stop()
		app.reports.RecoverPendingJobs(ctx)
		go app.reports.StartCleanup(ctx)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           newRouter(cfg, logr, app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

type application struct {
	auth          *service.AuthService
	activity      *service.ActivityService
	metrics       *service.MetricsService
	reports       *service.ReportService
	reportQueue   *jobs.Queue
	readiness     map[string]handler.ReadinessCheck
	authH         *handler.AuthHandler
	scheduleH     *handler.ScheduleHandler
	appointmentH  *handler.AppointmentHandler
	prescriptionH *handler.PrescriptionHandler
	medicationH   *handler.MedicationHandler
	dispensingH   *handler.DispensingHandler
	studentH      *handler.StudentHandler
	dashboardH    *handler.DashboardHandler
	activityH     *handler.ActivityHandler
	reportH       *handler.ReportHandler
	metricsH      *handler.MetricsHandler
}

func buildApp(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, rdb *redis.Client) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()

	userRepo := repository.NewUserRepository(db)
	doctorRepo := repository.NewDoctorRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	appointmentRepo := repository.NewAppointmentRepository(db)
	medicationRepo := repository.NewMedicationRepository(db)
	prescriptionRepo := repository.NewPrescriptionRepository(db)
	dispensingRepo := repository.NewDispensingRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(rdb, logr)

	activity := service.NewActivityService(activityRepo, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.Enabled)

	auth := service.NewAuthService(userRepo, activity, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	availability := service.NewAvailabilityService(scheduleRepo, appointmentRepo, service.AvailabilityConfig{
		SlotWidth: cfg.Clinic.SlotWidth,
		Location:  cfg.Clinic.Location(),
	})
	schedules := service.NewScheduleService(scheduleRepo, doctorRepo, activity, validate, logr)

	var locker lock.SlotLocker = lock.NewNoopLocker()
	if cfg.Booking.SlotLockEnabled {
		locker = lock.NewRedisSlotLocker(rdb, cfg.Booking.SlotLockTTL)
	}
	appointments := service.NewAppointmentService(service.AppointmentServiceParams{
		Repo:      appointmentRepo,
		Resolver:  availability,
		Doctors:   doctorRepo,
		Locker:    locker,
		Activity:  activity,
		Cache:     cacheSvc,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})
	medications := service.NewMedicationService(service.MedicationServiceParams{
		Repo:              medicationRepo,
		Activity:          activity,
		Cache:             cacheSvc,
		Validator:         validate,
		Logger:            logr,
		LowStockThreshold: cfg.Clinic.LowStockThreshold,
		Today:             availability.Today,
	})
	prescriptions := service.NewPrescriptionService(service.PrescriptionServiceParams{
		Repo:        prescriptionRepo,
		Medications: medicationRepo,
		Students:    studentRepo,
		Activity:    activity,
		Cache:       cacheSvc,
		Validator:   validate,
		Logger:      logr,
		Today:       availability.Today,
	})
	dispensing := service.NewDispensingService(service.DispensingServiceParams{
		Ledger:        dispensingRepo,
		Prescriptions: prescriptionRepo,
		Activity:      activity,
		Cache:         cacheSvc,
		Metrics:       metrics,
		Validator:     validate,
		Logger:        logr,
		Today:         availability.Today,
	})
	students := service.NewStudentService(studentRepo, logr)
	history := service.NewHistoryService(studentRepo, appointmentRepo, prescriptionRepo, dispensingRepo)
	dashboards := service.NewDashboardService(service.DashboardServiceParams{
		Counts:        dashboardRepo,
		Appointments:  appointmentRepo,
		Medications:   medicationRepo,
		Prescriptions: prescriptionRepo,
		Cache:         cacheSvc,
		Logger:        logr,
		Today:         availability.Today,
		Config: service.DashboardServiceConfig{
			CacheTTL:          cfg.Dashboard.CacheTTL,
			LowStockThreshold: cfg.Clinic.LowStockThreshold,
		},
	})

	app := &application{
		auth:          auth,
		activity:      activity,
		metrics:       metrics,
		authH:         handler.NewAuthHandler(auth),
		scheduleH:     handler.NewScheduleHandler(schedules, availability),
		appointmentH:  handler.NewAppointmentHandler(appointments),
		prescriptionH: handler.NewPrescriptionHandler(prescriptions),
		medicationH:   handler.NewMedicationHandler(medications),
		dispensingH:   handler.NewDispensingHandler(dispensing),
		studentH:      handler.NewStudentHandler(students, history),
		dashboardH:    handler.NewDashboardHandler(dashboards),
		activityH:     handler.NewActivityHandler(activity),
		readiness: map[string]handler.ReadinessCheck{
			"postgres": db.PingContext,
			"redis":    cacheRepo.Ping,
		},
	}
	app.metricsH = handler.NewMetricsHandler(metrics, app.readiness)

	if cfg.Reports.Enabled {
		files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			return nil, fmt.Errorf("report storage: %w", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		exporter := service.NewExportService(medicationRepo, dispensingRepo, files, signer, export.DefaultRegistry(), service.ExportConfig{
			APIPrefix:         cfg.APIPrefix,
			ResultTTL:         cfg.Reports.SignedURLTTL,
			LowStockThreshold: cfg.Clinic.LowStockThreshold,
		}, logr)
		worker := service.NewReportWorker(reportRepo, exporter, cfg.Reports.WorkerRetries, metrics, logr)
		app.reportQueue = jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
			Workers:    cfg.Reports.WorkerConcurrency,
			MaxRetries: cfg.Reports.WorkerRetries,
			RetryDelay: 2 * time.Second,
			Logger:     logr,
		})
		app.reports = service.NewReportService(reportRepo, app.reportQueue, exporter, activity, logr, service.ReportServiceConfig{
			ResultTTL:       cfg.Reports.SignedURLTTL,
			CleanupInterval: cfg.Reports.CleanupInterval,
		})
		app.reportH = handler.NewReportHandler(app.reports)
	}

	return app, nil
}
