package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type scheduleService interface {
	ListDoctors(ctx context.Context, specialization string) ([]models.Doctor, error)
	ListSchedule(ctx context.Context, doctorID string) ([]models.ScheduleEntry, error)
	CreateEntry(ctx context.Context, actor models.Actor, req dto.ScheduleEntryRequest) (*models.ScheduleEntry, error)
	UpdateEntry(ctx context.Context, actor models.Actor, id string, req dto.ScheduleEntryRequest) (*models.ScheduleEntry, error)
	DeleteEntry(ctx context.Context, actor models.Actor, id string) error
}

type slotService interface {
	ComputeSlots(ctx context.Context, doctorID, rawDate string) ([]models.Slot, error)
}

// ScheduleHandler serves doctors, their weekly schedule and bookable slots.
type ScheduleHandler struct {
	schedules scheduleService
	slots     slotService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(schedules scheduleService, slots slotService) *ScheduleHandler {
	return &ScheduleHandler{schedules: schedules, slots: slots}
}

// ListDoctors godoc
// @Summary List doctors
// @Tags Doctors
// @Produce json
// @Param specialization query string false "Filter by specialization"
// @Success 200 {object} response.Envelope
// @Router /doctors [get]
func (h *ScheduleHandler) ListDoctors(c *gin.Context) {
	doctors, err := h.schedules.ListDoctors(c.Request.Context(), strings.TrimSpace(c.Query("specialization")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, doctors)
}

// ListSchedule godoc
// @Summary Weekly schedule of a doctor
// @Tags Doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /doctors/{id}/schedule [get]
func (h *ScheduleHandler) ListSchedule(c *gin.Context) {
	entries, err := h.schedules.ListSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entries)
}

// Slots godoc
// @Summary Bookable slots of a doctor on a date
// @Description Slots step through each working block; each is Available, Booked or Past.
// @Tags Doctors
// @Produce json
// @Param id path string true "Doctor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /doctors/{id}/slots [get]
func (h *ScheduleHandler) Slots(c *gin.Context) {
	date := strings.TrimSpace(c.Query("date"))
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date is required"))
		return
	}
	slots, err := h.slots.ComputeSlots(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, slots)
}

// CreateEntry godoc
// @Summary Add a weekly working block
// @Tags Doctors
// @Accept json
// @Produce json
// @Param payload body dto.ScheduleEntryRequest true "Schedule entry"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) CreateEntry(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ScheduleEntryRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	entry, err := h.schedules.CreateEntry(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateEntry godoc
// @Summary Replace a weekly working block
// @Tags Doctors
// @Accept json
// @Produce json
// @Param id path string true "Schedule entry ID"
// @Param payload body dto.ScheduleEntryRequest true "Schedule entry"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) UpdateEntry(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.ScheduleEntryRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	entry, err := h.schedules.UpdateEntry(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, entry)
}

// DeleteEntry godoc
// @Summary Remove a weekly working block
// @Tags Doctors
// @Param id path string true "Schedule entry ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) DeleteEntry(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.schedules.DeleteEntry(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
