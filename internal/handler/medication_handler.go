package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type medicationService interface {
	List(ctx context.Context, actor models.Actor, filter models.MedicationFilter) ([]models.Medication, *models.Pagination, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Medication, error)
	Create(ctx context.Context, actor models.Actor, req dto.MedicationRequest) (*models.Medication, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.MedicationRequest) (*models.Medication, error)
	AdjustStock(ctx context.Context, actor models.Actor, id string, req dto.AdjustStockRequest) (*models.Medication, error)
	LowStock(ctx context.Context, actor models.Actor, threshold int) ([]models.Medication, error)
	Expired(ctx context.Context, actor models.Actor, asOf string) ([]models.Medication, error)
}

// MedicationHandler exposes the inventory catalogue.
type MedicationHandler struct {
	service medicationService
}

// NewMedicationHandler constructs the handler.
func NewMedicationHandler(service medicationService) *MedicationHandler {
	return &MedicationHandler{service: service}
}

// List godoc
// @Summary List medications
// @Tags Medications
// @Produce json
// @Param search query string false "Name contains"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Param sort query string false "name, stock or expiry"
// @Success 200 {object} response.Envelope
// @Router /medications [get]
func (h *MedicationHandler) List(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	page, valid := queryInt(c, "page", 1)
	if !valid {
		return
	}
	size, valid := queryInt(c, "page_size", 20)
	if !valid {
		return
	}
	filter := models.MedicationFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     page,
		PageSize: size,
		SortBy:   c.Query("sort"),
	}
	meds, pagination, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meds, pagination)
}

// Get godoc
// @Summary Get a medication
// @Tags Medications
// @Produce json
// @Param id path string true "Medication ID"
// @Success 200 {object} response.Envelope
// @Router /medications/{id} [get]
func (h *MedicationHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	med, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, med)
}

// Create godoc
// @Summary Add a medication
// @Tags Medications
// @Accept json
// @Produce json
// @Param payload body dto.MedicationRequest true "Medication"
// @Success 201 {object} response.Envelope
// @Router /medications [post]
func (h *MedicationHandler) Create(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.MedicationRequest
	if !bindJSON(c, &req, "invalid medication payload") {
		return
	}
	med, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, med)
}

// Update godoc
// @Summary Update medication details
// @Description Stock is changed only through dispensing and stock adjustments.
// @Tags Medications
// @Accept json
// @Produce json
// @Param id path string true "Medication ID"
// @Param payload body dto.MedicationRequest true "Medication"
// @Success 200 {object} response.Envelope
// @Router /medications/{id} [put]
func (h *MedicationHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.MedicationRequest
	if !bindJSON(c, &req, "invalid medication payload") {
		return
	}
	med, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, med)
}

// AdjustStock godoc
// @Summary Adjust stock manually
// @Tags Medications
// @Accept json
// @Produce json
// @Param id path string true "Medication ID"
// @Param payload body dto.AdjustStockRequest true "Adjustment"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "INSUFFICIENT_STOCK"
// @Router /medications/{id}/stock [post]
func (h *MedicationHandler) AdjustStock(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.AdjustStockRequest
	if !bindJSON(c, &req, "invalid stock adjustment") {
		return
	}
	med, err := h.service.AdjustStock(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, med)
}

// LowStock godoc
// @Summary Medications at or below a stock threshold
// @Tags Medications
// @Produce json
// @Param threshold query int false "Threshold, defaults to the clinic setting"
// @Success 200 {object} response.Envelope
// @Router /medications/low-stock [get]
func (h *MedicationHandler) LowStock(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	threshold, valid := queryInt(c, "threshold", 0)
	if !valid {
		return
	}
	meds, err := h.service.LowStock(c.Request.Context(), actor, threshold)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, meds)
}

// Expired godoc
// @Summary Expired medications
// @Tags Medications
// @Produce json
// @Param as_of query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /medications/expired [get]
func (h *MedicationHandler) Expired(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	meds, err := h.service.Expired(c.Request.Context(), actor, strings.TrimSpace(c.Query("as_of")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, meds)
}
