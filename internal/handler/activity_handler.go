package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type activityService interface {
	List(ctx context.Context, actor models.Actor, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error)
}

// ActivityHandler exposes the activity log to admins.
type ActivityHandler struct {
	service activityService
}

// NewActivityHandler constructs the handler.
func NewActivityHandler(service activityService) *ActivityHandler {
	return &ActivityHandler{service: service}
}

// List godoc
// @Summary Activity log
// @Tags Activity
// @Produce json
// @Param user_id query string false "Actor user ID"
// @Param action query string false "Action, e.g. DISPENSE_CREATE"
// @Param resource query string false "Resource type"
// @Param from query string false "RFC3339 lower bound"
// @Param to query string false "RFC3339 upper bound"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /activity [get]
func (h *ActivityHandler) List(c *gin.Context) {
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
	filter := models.ActivityFilter{
		UserID:   strings.TrimSpace(c.Query("user_id")),
		Action:   strings.TrimSpace(c.Query("action")),
		Resource: strings.TrimSpace(c.Query("resource")),
		Page:     page,
		PageSize: size,
	}
	for key, dest := range map[string]**time.Time{"from": &filter.From, "to": &filter.To} {
		raw := strings.TrimSpace(c.Query(key))
		if raw == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, key+" must be RFC3339"))
			return
		}
		*dest = &ts
	}

	entries, pagination, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
