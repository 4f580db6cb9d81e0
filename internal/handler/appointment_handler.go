package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type appointmentService interface {
	Book(ctx context.Context, actor models.Actor, req dto.BookAppointmentRequest) (*models.Appointment, error)
	Cancel(ctx context.Context, actor models.Actor, id string) (*models.AppointmentDetail, error)
	UpdateStatus(ctx context.Context, actor models.Actor, id string, req dto.UpdateAppointmentStatusRequest) (*models.AppointmentDetail, error)
	Reschedule(ctx context.Context, actor models.Actor, id string, req dto.RescheduleAppointmentRequest) (*models.AppointmentDetail, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.AppointmentDetail, error)
	ListForStudent(ctx context.Context, actor models.Actor, studentID string) ([]models.AppointmentDetail, error)
	UpcomingForStudent(ctx context.Context, actor models.Actor, studentID string, limit int) ([]models.AppointmentDetail, error)
	ListForDoctor(ctx context.Context, actor models.Actor, doctorID string, date *models.Date) ([]models.AppointmentDetail, error)
}

// AppointmentHandler exposes booking endpoints.
type AppointmentHandler struct {
	service appointmentService
}

// NewAppointmentHandler constructs the handler.
func NewAppointmentHandler(service appointmentService) *AppointmentHandler {
	return &AppointmentHandler{service: service}
}

// Book godoc
// @Summary Book an appointment slot
// @Description Students book for themselves; staff and admins pass student_id.
// @Tags Appointments
// @Accept json
// @Produce json
// @Param payload body dto.BookAppointmentRequest true "Booking"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope "SLOT_UNAVAILABLE"
// @Router /appointments [post]
func (h *AppointmentHandler) Book(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.BookAppointmentRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	appt, err := h.service.Book(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, appt)
}

// Get godoc
// @Summary Get an appointment
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id} [get]
func (h *AppointmentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	appt, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// Cancel godoc
// @Summary Cancel an appointment
// @Description Frees the slot for rebooking.
// @Tags Appointments
// @Produce json
// @Param id path string true "Appointment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /appointments/{id}/cancel [post]
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	appt, err := h.service.Cancel(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// UpdateStatus godoc
// @Summary Complete or cancel an appointment
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.UpdateAppointmentStatusRequest true "Status"
// @Success 200 {object} response.Envelope
// @Router /appointments/{id}/status [patch]
func (h *AppointmentHandler) UpdateStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateAppointmentStatusRequest
	if !bindJSON(c, &req, "invalid status payload") {
		return
	}
	appt, err := h.service.UpdateStatus(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// Reschedule godoc
// @Summary Move an appointment to another slot
// @Description The new slot must be available with the same doctor.
// @Tags Appointments
// @Accept json
// @Produce json
// @Param id path string true "Appointment ID"
// @Param payload body dto.RescheduleAppointmentRequest true "New date and time"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "SLOT_UNAVAILABLE"
// @Router /appointments/{id}/schedule [patch]
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.RescheduleAppointmentRequest
	if !bindJSON(c, &req, "invalid reschedule payload") {
		return
	}
	appt, err := h.service.Reschedule(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, appt)
}

// ListForStudent godoc
// @Summary Appointments of a student
// @Tags Appointments
// @Produce json
// @Param id path string true "Student ID"
// @Param upcoming query bool false "Only scheduled appointments from today"
// @Param limit query int false "Limit for upcoming"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/appointments [get]
func (h *AppointmentHandler) ListForStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var (
		items []models.AppointmentDetail
		err   error
	)
	if c.Query("upcoming") == "true" {
		limit, valid := queryInt(c, "limit", 0)
		if !valid {
			return
		}
		items, err = h.service.UpcomingForStudent(c.Request.Context(), actor, c.Param("id"), limit)
	} else {
		items, err = h.service.ListForStudent(c.Request.Context(), actor, c.Param("id"))
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// ListForDoctor godoc
// @Summary Appointments of a doctor
// @Tags Appointments
// @Produce json
// @Param id path string true "Doctor ID"
// @Param date query string false "Only this date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id}/appointments [get]
func (h *AppointmentHandler) ListForDoctor(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	date, valid := queryDate(c, "date")
	if !valid {
		return
	}
	items, err := h.service.ListForDoctor(c.Request.Context(), actor, c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
