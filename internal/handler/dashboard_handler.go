package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/middleware"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type dashboardService interface {
	Doctor(ctx context.Context, actor models.Actor, doctorID string) (*dto.DoctorDashboardResponse, bool, error)
	Staff(ctx context.Context, actor models.Actor) (*dto.StaffDashboardResponse, bool, error)
	Student(ctx context.Context, actor models.Actor, studentID string) (*dto.StudentDashboardResponse, bool, error)
}

// DashboardHandler wires dashboard service to HTTP endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Doctor godoc
// @Summary Doctor dashboard
// @Tags Dashboard
// @Produce json
// @Param doctor_id query string false "Doctor ID (admins only)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/doctor [get]
func (h *DashboardHandler) Doctor(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, hit, err := h.service.Doctor(c.Request.Context(), actor, strings.TrimSpace(c.Query("doctor_id")))
	h.respond(c, summary, hit, err, start)
}

// Staff godoc
// @Summary Dispensary dashboard
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard/staff [get]
func (h *DashboardHandler) Staff(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, hit, err := h.service.Staff(c.Request.Context(), actor)
	h.respond(c, summary, hit, err, start)
}

// Student godoc
// @Summary Student dashboard
// @Tags Dashboard
// @Produce json
// @Param student_id query string false "Student ID (staff and admins)"
// @Success 200 {object} response.Envelope
// @Router /dashboard/student [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	actor, ok := h.ready(c)
	if !ok {
		return
	}
	start := time.Now()
	summary, hit, err := h.service.Student(c.Request.Context(), actor, strings.TrimSpace(c.Query("student_id")))
	h.respond(c, summary, hit, err, start)
}

func (h *DashboardHandler) ready(c *gin.Context) (models.Actor, bool) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return models.Actor{}, false
	}
	return requireActor(c)
}

func (h *DashboardHandler) respond(c *gin.Context, summary interface{}, hit bool, err error, start time.Time) {
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	meta := middleware.Meta(c)
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, summary, nil, meta)
}
