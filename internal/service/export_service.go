package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/campus-clinic-api/internal/models"
	"github.com/noah-isme/campus-clinic-api/internal/repository"
	"github.com/noah-isme/campus-clinic-api/pkg/export"
	"github.com/noah-isme/campus-clinic-api/pkg/storage"
)

type inventorySource interface {
	AllForReport(ctx context.Context, lowStockOnly bool, threshold int) ([]models.Medication, error)
}

type dispensingSource interface {
	ListBetween(ctx context.Context, from, to models.Date) ([]repository.DispensingRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix         string
	ResultTTL         time.Duration
	LowStockThreshold int
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	inventory  inventorySource
	dispensing dispensingSource
	storage    fileStorage
	formats    export.Registry
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService. A nil registry uses every built-in format.
func NewExportService(inventory inventorySource, dispensing dispensingSource, files fileStorage, signer *storage.SignedURLSigner, formats export.Registry, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.LowStockThreshold <= 0 {
		cfg.LowStockThreshold = 10
	}
	if formats == nil {
		formats = export.DefaultRegistry()
	}
	return &ExportService{
		inventory:  inventory,
		dispensing: dispensing,
		storage:    files,
		formats:    formats,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds dataset according to job definition and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	format, err := s.formats.Lookup(string(job.Params.Format))
	if err != nil {
		return nil, err
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}
	payload, err := format.Renderer.Render(dataset, title)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", job.Params.Format, err)
	}

	relPath, err := s.storage.Save(s.buildFilename(job, format.Extension), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	s.logger.Debug("report rendered", zap.String("job_id", job.ID), zap.String("path", relPath), zap.Int("rows", len(dataset.Rows)))

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", prefix, token),
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ContentType returns the MIME type registered for format.
func (s *ExportService) ContentType(format models.ReportFormat) string {
	if f, err := s.formats.Lookup(string(format)); err == nil {
		return f.ContentType
	}
	return "application/octet-stream"
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob, ext string) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	suffix := "all"
	if job.Type == models.ReportTypeDispensing {
		suffix = sanitizeFilename(job.Params.From + "_" + job.Params.To)
	} else if job.Params.LowStockOnly {
		suffix = "low_stock"
	}
	return fmt.Sprintf("%s_%s_%s.%s", strings.ToLower(string(job.Type)), suffix, timestamp, ext)
}

func sanitizeFilename(raw string) string {
	if raw == "" || raw == "_" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeInventory:
		return s.buildInventoryDataset(ctx, job.Params)
	case models.ReportTypeDispensing:
		return s.buildDispensingDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildInventoryDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	meds, err := s.inventory.AllForReport(ctx, params.LowStockOnly, s.cfg.LowStockThreshold)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Medication", "Dosage Form", "In Stock", "Expiry Date", "Low Stock"},
		Rows:    make([]map[string]string, 0, len(meds)),
	}
	for _, med := range meds {
		expiry := ""
		if med.ExpiryDate != nil {
			expiry = med.ExpiryDate.String()
		}
		low := "no"
		if med.QuantityInStock <= s.cfg.LowStockThreshold {
			low = "yes"
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Medication":  med.Name,
			"Dosage Form": med.DosageForm,
			"In Stock":    strconv.Itoa(med.QuantityInStock),
			"Expiry Date": expiry,
			"Low Stock":   low,
		})
	}
	title := "Medication Inventory"
	if params.LowStockOnly {
		title = "Low Stock Medications"
	}
	return dataset, title, nil
}

func (s *ExportService) buildDispensingDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	from, to, err := params.Range()
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows, err := s.dispensing.ListBetween(ctx, from, to)
	if err != nil {
		return export.Dataset{}, "", err
	}
	dataset := export.Dataset{
		Headers: []string{"Date Given", "Student", "Medication", "Quantity", "Prescription"},
		Rows:    make([]map[string]string, 0, len(rows)),
	}
	for _, row := range rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Date Given":   row.DateGiven.String(),
			"Student":      row.StudentName,
			"Medication":   row.MedicationName,
			"Quantity":     strconv.Itoa(row.QuantityGiven),
			"Prescription": row.PrescriptionID,
		})
	}
	return dataset, fmt.Sprintf("Dispensing %s to %s", from, to), nil
}
