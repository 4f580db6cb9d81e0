package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/dto"
	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type dispensingService interface {
	Dispense(ctx context.Context, actor models.Actor, req dto.DispenseRequest) (*models.DispensingEvent, error)
	Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateDispenseRequest) (*models.DispensingEvent, error)
	Delete(ctx context.Context, actor models.Actor, id string) error
	Get(ctx context.Context, actor models.Actor, id string) (*models.DispensingEvent, error)
	ListForPrescription(ctx context.Context, actor models.Actor, prescriptionID string) ([]models.DispensingEvent, error)
	ListBetween(ctx context.Context, actor models.Actor, rawFrom, rawTo string) ([]repository.DispensingRow, error)
}

// DispensingHandler exposes the dispensing ledger.
type DispensingHandler struct {
	service dispensingService
}

// NewDispensingHandler constructs the handler.
func NewDispensingHandler(service dispensingService) *DispensingHandler {
	return &DispensingHandler{service: service}
}

// Dispense godoc
// @Summary Dispense medication against a prescription
// @Description Decrements stock atomically. The stock never goes negative and the
// @Description total dispensed never exceeds the prescribed quantity.
// @Tags Dispensing
// @Accept json
// @Produce json
// @Param payload body dto.DispenseRequest true "Dispense"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope "INSUFFICIENT_STOCK"
// @Failure 422 {object} response.Envelope "PRESCRIPTION_QUANTITY_EXCEEDED"
// @Router /dispensing [post]
func (h *DispensingHandler) Dispense(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.DispenseRequest
	if !bindJSON(c, &req, "invalid dispense payload") {
		return
	}
	event, err := h.service.Dispense(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// Update godoc
// @Summary Change a dispensed quantity
// @Description Stock moves by the difference between the old and the new quantity.
// @Tags Dispensing
// @Accept json
// @Produce json
// @Param id path string true "Dispensing event ID"
// @Param payload body dto.UpdateDispenseRequest true "Quantity"
// @Success 200 {object} response.Envelope
// @Router /dispensing/{id} [put]
func (h *DispensingHandler) Update(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	var req dto.UpdateDispenseRequest
	if !bindJSON(c, &req, "invalid dispense payload") {
		return
	}
	event, err := h.service.Update(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// Delete godoc
// @Summary Void a dispensing event
// @Description Returns the dispensed quantity to stock.
// @Tags Dispensing
// @Param id path string true "Dispensing event ID"
// @Success 204
// @Router /dispensing/{id} [delete]
func (h *DispensingHandler) Delete(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Get godoc
// @Summary Get a dispensing event
// @Tags Dispensing
// @Produce json
// @Param id path string true "Dispensing event ID"
// @Success 200 {object} response.Envelope
// @Router /dispensing/{id} [get]
func (h *DispensingHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	event, err := h.service.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, event)
}

// ListForPrescription godoc
// @Summary Dispensing events of a prescription
// @Tags Dispensing
// @Produce json
// @Param id path string true "Prescription ID"
// @Success 200 {object} response.Envelope
// @Router /prescriptions/{id}/dispensing [get]
func (h *DispensingHandler) ListForPrescription(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	events, err := h.service.ListForPrescription(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, events)
}

// ListBetween godoc
// @Summary Dispensing events in a date range
// @Tags Dispensing
// @Produce json
// @Param from query string true "From (YYYY-MM-DD)"
// @Param to query string true "To (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /dispensing [get]
func (h *DispensingHandler) ListBetween(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	rows, err := h.service.ListBetween(c.Request.Context(), actor, c.Query("from"), c.Query("to"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}
