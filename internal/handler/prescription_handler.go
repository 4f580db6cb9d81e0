package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type prescriptionService interface {
	Issue(ctx context.Context, actor models.Actor, req dto.IssuePrescriptionRequest) (*dto.PrescriptionResponse, error)
	Get(ctx context.Context, actor models.Actor, id string) (*dto.PrescriptionResponse, error)
	ListForStudent(ctx context.Context, actor models.Actor, studentID string) ([]dto.PrescriptionResponse, error)
	ListForDoctor(ctx context.Context, actor models.Actor, doctorID string) ([]dto.PrescriptionResponse, error)
	ListUnfulfilled(ctx context.Context, actor models.Actor, limit int) ([]dto.PrescriptionResponse, error)
}

// PrescriptionHandler exposes prescription endpoints.
type PrescriptionHandler struct {
	service prescriptionService
}

// NewPrescriptionHandler constructs the handler.
func NewPrescriptionHandler(service prescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{service: service}
}

// Issue godoc
// @Summary Issue a prescription
// @Tags Prescriptions
// @Accept json
// @Produce json
// @Param payload body dto.IssuePrescriptionRequest true "Prescription"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /prescriptions [post]
func (h *PrescriptionHandler) Issue(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.IssuePrescriptionRequest
	if !bindJSON(c, &req, "invalid prescription payload") {
		return
	}
	rx, err := h.service.Issue(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, rx)
}

// Get godoc
// @Summary Get a prescription with its remaining quantity
// @Tags Prescriptions
// @Produce json
// @Param id path string true "Prescription ID"
// @Success 200 {object} response.Envelope
// @Router /prescriptions/{id} [get]
func (h *PrescriptionHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	rx, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rx)
}

// ListForStudent godoc
// @Summary Prescriptions of a student
// @Tags Prescriptions
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/prescriptions [get]
func (h *PrescriptionHandler) ListForStudent(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	items, err := h.service.ListForStudent(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// ListForDoctor godoc
// @Summary Prescriptions issued by a doctor
// @Tags Prescriptions
// @Produce json
// @Param id path string true "Doctor ID"
// @Success 200 {object} response.Envelope
// @Router /doctors/{id}/prescriptions [get]
func (h *PrescriptionHandler) ListForDoctor(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	items, err := h.service.ListForDoctor(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}

// ListUnfulfilled godoc
// @Summary Dispensing queue
// @Description Prescriptions with a remaining quantity above zero.
// @Tags Prescriptions
// @Produce json
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /prescriptions/unfulfilled [get]
func (h *PrescriptionHandler) ListUnfulfilled(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	limit, valid := queryInt(c, "limit", 50)
	if !valid {
		return
	}
	items, err := h.service.ListUnfulfilled(c.Request.Context(), actor, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, items)
}
