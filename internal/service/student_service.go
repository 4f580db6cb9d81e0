package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
)

type studentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Search(ctx context.Context, term string, limit int) ([]models.Student, error)
}

// StudentService is the patient directory used when personnel act for a student.
type StudentService struct {
	repo   studentRepository
	logger *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, logger: logger}
}

// Search finds students by name or email for clinic personnel.
func (s *StudentService) Search(ctx context.Context, actor models.Actor, term string, limit int) ([]models.Student, error) {
	if err := requireClinician(actor); err != nil {
		return nil, err
	}
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "search term must have at least 2 characters")
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	students, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to search students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// Get returns a student profile. Students may only read their own.
func (s *StudentService) Get(ctx context.Context, actor models.Actor, id string) (*models.Student, error) {
	if actor.Role == models.RoleStudent && actor.UserID != id {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "students can only view their own profile")
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "student not found", "failed to load student")
	}
	return student, nil
}
