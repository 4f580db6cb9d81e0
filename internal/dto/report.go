package dto

import (
	"time"

	"github.com/noah-isme/campus-clinic-api/internal/models"
)

// ReportRequest queues an export. From and To are required for dispensing reports.
type ReportRequest struct {
	Type         models.ReportType   `json:"type" validate:"required,oneof=inventory dispensing"`
	Format       models.ReportFormat `json:"format" validate:"required,oneof=csv pdf xlsx"`
	From         string              `json:"from"`
	To           string              `json:"to"`
	LowStockOnly bool                `json:"low_stock_only"`
}

// ReportJobResponse acknowledges a queued job.
type ReportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ReportStatusResponse reports job progress and, when finished, the download URL.
type ReportStatusResponse struct {
	ID         string              `json:"id"`
	Type       models.ReportType   `json:"type"`
	Status     models.ReportStatus `json:"status"`
	Progress   int                 `json:"progress"`
	ResultURL  *string             `json:"result_url,omitempty"`
	Error      *string             `json:"error,omitempty"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}
