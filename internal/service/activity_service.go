package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	appErrors "github.com/noah-isme/campus-clinic-api/pkg/errors"
	"github.com/noah-isme/campus-clinic-api/pkg/logger"
)

type activityRepository interface {
	Create(ctx context.Context, entry *models.ActivityLog) error
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, int, error)
}

// activityRecorder is the sink every mutating service writes to.
type activityRecorder interface {
	Record(ctx context.Context, actor models.Actor, action, resource, resourceID, description string)
}

// ActivityService writes and lists the clinic activity log.
type ActivityService struct {
	repo   activityRepository
	logger *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(repo activityRepository, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, logger: logger}
}

// Record stores an entry for a completed operation. Failures are logged and never
// undo the operation being recorded.
func (s *ActivityService) Record(ctx context.Context, actor models.Actor, action, resource, resourceID, description string) {
	if s == nil || s.repo == nil {
		return
	}
	entry := &models.ActivityLog{
		Action:      action,
		Resource:    resource,
		Description: description,
		IPAddress:   actor.IP,
		UserAgent:   actor.UserAgent,
	}
	if actor.UserID != "" {
		userID := actor.UserID
		entry.UserID = &userID
	}
	if actor.Role != "" {
		role := string(actor.Role)
		entry.Role = &role
	}
	if resourceID != "" {
		entry.ResourceID = &resourceID
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		logger.WithContext(ctx, s.logger).Warn("failed to record activity", zap.String("action", action), zap.String("resource_id", resourceID), zap.Error(err))
	}
}

// List returns a page of activity entries for admins.
func (s *ActivityService) List(ctx context.Context, actor models.Actor, filter models.ActivityFilter) ([]models.ActivityLog, *models.Pagination, error) {
	if !actor.IsAdmin() {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "only admins can read the activity log")
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "to must not be before from")
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = 20
	}
	entries, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activity")
	}
	if entries == nil {
		entries = []models.ActivityLog{}
	}
	return entries, models.NewPagination(filter.Page, filter.PageSize, total), nil
}
