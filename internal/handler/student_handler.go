package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/pkg/response"
)

type studentService interface {
	Search(ctx context.Context, actor models.Actor, term string, limit int) ([]models.Student, error)
	Get(ctx context.Context, actor models.Actor, id string) (*models.Student, error)
}

type historyService interface {
	History(ctx context.Context, actor models.Actor, studentID string) (*models.MedicalHistory, error)
}

// StudentHandler serves student profiles and medical history.
type StudentHandler struct {
	students studentService
	history  historyService
}

// NewStudentHandler constructs the handler.
func NewStudentHandler(students studentService, history historyService) *StudentHandler {
	return &StudentHandler{students: students, history: history}
}

// Search godoc
// @Summary Search students
// @Tags Students
// @Produce json
// @Param q query string true "Name or email fragment"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) Search(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	limit, valid := queryInt(c, "limit", 20)
	if !valid {
		return
	}
	students, err := h.students.Search(c.Request.Context(), actor, c.Query("q"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// Get godoc
// @Summary Get a student profile
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	student, err := h.students.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// History godoc
// @Summary Medical history of a student
// @Description Appointments, prescriptions and dispensing events.
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/history [get]
func (h *StudentHandler) History(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	history, err := h.history.History(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, history)
}
