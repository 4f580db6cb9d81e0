package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	"github.com/noah-isme/campus-clinic-api/pkg/jobs"
)

// ReportWorker renders queued export jobs.
type ReportWorker struct {
	repo       reportJobStore
	exporter   exportGenerator
	metrics    *MetricsService
	logger     *zap.Logger
	maxRetries int
}

// NewReportWorker constructs a worker. maxRetries must match the queue's setting so
// the final attempt is the one that marks the job FAILED.
func NewReportWorker(repo reportJobStore, exporter exportGenerator, maxRetries int, metrics *MetricsService, logger *zap.Logger) *ReportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &ReportWorker{repo: repo, exporter: exporter, metrics: metrics, logger: logger, maxRetries: maxRetries}
}

// Handle is the jobs.Handler for the reports queue.
func (w *ReportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status.Terminal() {
		w.logger.Debug("skipping settled report job", zap.String("job_id", job.ID), zap.String("status", string(record.Status)))
		return nil
	}

	if err := w.set(ctx, job.ID, models.ReportStatusProcessing, 10, nil); err != nil {
		return err
	}

	result, genErr := w.exporter.Generate(ctx, record)
	if genErr != nil {
		msg := genErr.Error()
		if job.Attempt >= w.maxRetries {
			w.metrics.RecordReportJob(record.Type, OutcomeError)
			w.settle(ctx, job.ID, models.ReportStatusFailed, repository.UpdateReportJobParams{ErrorMessage: &msg})
		} else if err := w.set(ctx, job.ID, models.ReportStatusQueued, 0, &msg); err != nil {
			w.logger.Warn("report job requeue not recorded", zap.String("job_id", job.ID), zap.Error(err))
		}
		return genErr
	}

	cleared := ""
	url := result.URL
	if err := w.settle(ctx, job.ID, models.ReportStatusFinished, repository.UpdateReportJobParams{ResultURL: &url, ErrorMessage: &cleared}); err != nil {
		return err
	}
	w.metrics.RecordReportJob(record.Type, OutcomeSuccess)
	return nil
}

func (w *ReportWorker) set(ctx context.Context, id string, status models.ReportStatus, progress int, msg *string) error {
	return w.repo.Update(ctx, id, repository.UpdateReportJobParams{Status: &status, Progress: &progress, ErrorMessage: msg})
}

// settle moves the job to a terminal status at full progress.
func (w *ReportWorker) settle(ctx context.Context, id string, status models.ReportStatus, params repository.UpdateReportJobParams) error {
	done := 100
	now := time.Now().UTC()
	params.Status = &status
	params.Progress = &done
	params.FinishedAt = &now
	if err := w.repo.Update(ctx, id, params); err != nil {
		w.logger.Warn("report job outcome not recorded", zap.String("job_id", id), zap.String("status", string(status)), zap.Error(err))
		return err
	}
	return nil
}
