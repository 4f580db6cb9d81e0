package main

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/middleware"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/pkg/config"
	"github.com/noah-isme/campus-clinic-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-clinic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-clinic-api/pkg/middleware/requestid"
)

var (
	adminOnly    = middleware.RequireRoles(models.RoleAdmin)
	clinicians   = middleware.RequireRoles(models.RoleDoctor, models.RoleAdmin)
	dispensary   = middleware.RequireRoles(models.RoleStaff, models.RoleAdmin)
	clinicStaff  = middleware.RequireRoles(models.RoleDoctor, models.RoleStaff, models.RoleAdmin)
	bookers      = middleware.RequireRoles(models.RoleStudent, models.RoleStaff, models.RoleAdmin)
	studentOrOwn = middleware.RBAC(string(models.RoleDoctor), string(models.RoleStaff), string(models.RoleAdmin), middleware.Self)
)

func newRouter(cfg *config.Config, logr *zap.Logger, app *application) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics, "/health", "/ready", "/metrics"))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", app.metricsH.Health)
	r.GET("/ready", app.metricsH.Ready)
	r.GET("/metrics", app.metricsH.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := "/" + strings.Trim(cfg.APIPrefix, "/")
	api := r.Group(prefix)
	api.POST("/auth/login", app.authH.Login)
	if app.reportH != nil {
		api.GET("/export/:token", middleware.Audit(app.activity, models.ActivityReportDownload, "report", "token"), app.reportH.Download)
	}

	secured := api.Group("")
	secured.Use(middleware.JWT(app.auth), middleware.UUIDParams("id", "doctor_id", "student_id", "user_id"))
	secured.GET("/auth/me", app.authH.Me)

	secured.GET("/doctors", app.scheduleH.ListDoctors)
	secured.GET("/doctors/:id/schedule", app.scheduleH.ListSchedule)
	secured.GET("/doctors/:id/slots", app.scheduleH.Slots)
	secured.GET("/doctors/:id/appointments", clinicians, app.appointmentH.ListForDoctor)
	secured.GET("/doctors/:id/prescriptions", clinicians, app.prescriptionH.ListForDoctor)

	schedules := secured.Group("/schedules", clinicians)
	schedules.POST("", app.scheduleH.CreateEntry)
	schedules.PUT("/:id", app.scheduleH.UpdateEntry)
	schedules.DELETE("/:id", app.scheduleH.DeleteEntry)

	appointments := secured.Group("/appointments")
	appointments.POST("", bookers, app.appointmentH.Book)
	appointments.GET("/:id", app.appointmentH.Get)
	appointments.POST("/:id/cancel", app.appointmentH.Cancel)
	appointments.PATCH("/:id/status", clinicians, app.appointmentH.UpdateStatus)
	appointments.PATCH("/:id/schedule", app.appointmentH.Reschedule)

	students := secured.Group("/students")
	students.GET("", clinicStaff, app.studentH.Search)
	students.GET("/:id", studentOrOwn, app.studentH.Get)
	students.GET("/:id/appointments", studentOrOwn, app.appointmentH.ListForStudent)
	students.GET("/:id/prescriptions", studentOrOwn, app.prescriptionH.ListForStudent)
	students.GET("/:id/history", studentOrOwn, app.studentH.History)

	prescriptions := secured.Group("/prescriptions")
	prescriptions.POST("", clinicians, app.prescriptionH.Issue)
	prescriptions.GET("/unfulfilled", clinicStaff, app.prescriptionH.ListUnfulfilled)
	prescriptions.GET("/:id", app.prescriptionH.Get)
	prescriptions.GET("/:id/dispensing", clinicStaff, app.dispensingH.ListForPrescription)

	medications := secured.Group("/medications", clinicStaff)
	medications.GET("", app.medicationH.List)
	medications.GET("/low-stock", app.medicationH.LowStock)
	medications.GET("/expired", app.medicationH.Expired)
	medications.GET("/:id", app.medicationH.Get)
	medications.POST("", dispensary, app.medicationH.Create)
	medications.PUT("/:id", dispensary, app.medicationH.Update)
	medications.POST("/:id/stock", dispensary, app.medicationH.AdjustStock)

	dispensing := secured.Group("/dispensing", dispensary)
	dispensing.POST("", app.dispensingH.Dispense)
	dispensing.GET("", app.dispensingH.ListBetween)
	dispensing.GET("/:id", app.dispensingH.Get)
	dispensing.PUT("/:id", app.dispensingH.Update)
	dispensing.DELETE("/:id", app.dispensingH.Delete)

	dashboard := secured.Group("/dashboard")
	dashboard.GET("/doctor", clinicians, app.dashboardH.Doctor)
	dashboard.GET("/staff", dispensary, app.dashboardH.Staff)
	dashboard.GET("/student", bookers, app.dashboardH.Student)

	secured.GET("/activity", adminOnly, app.activityH.List)
	secured.GET("/metrics/summary", adminOnly, app.metricsH.Summary)

	if app.reportH != nil {
		reports := secured.Group("/reports", dispensary)
		reports.POST("/generate", app.reportH.GenerateReport)
		reports.GET("/status/:id", app.reportH.ReportStatus)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "route not found"}})
	})
	return r
}
