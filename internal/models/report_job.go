package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ReportType names what an export contains.
type ReportType string

const (
	ReportTypeInventory  ReportType = "inventory"
	ReportTypeDispensing ReportType = "dispensing"
)

// ReportFormat names the file format of an export.
type ReportFormat string

const (
	ReportFormatCSV  ReportFormat = "csv"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ReportStatus is the lifecycle state of an export job.
type ReportStatus string

const (
	ReportStatusQueued     ReportStatus = "QUEUED"
	ReportStatusProcessing ReportStatus = "PROCESSING"
	ReportStatusFinished   ReportStatus = "FINISHED"
	ReportStatusFailed     ReportStatus = "FAILED"
)

// Terminal reports whether no worker will touch the job again.
func (s ReportStatus) Terminal() bool {
	return s == ReportStatusFinished || s == ReportStatusFailed
}

// ReportJob is one requested export and its outcome.
type ReportJob struct {
	ID           string          `db:"id" json:"id"`
	Type         ReportType      `db:"type" json:"type"`
	Params       ReportJobParams `db:"params" json:"params"`
	Status       ReportStatus    `db:"status" json:"status"`
	Progress     int             `db:"progress" json:"progress"`
	ResultURL    *string         `db:"result_url" json:"result_url,omitempty"`
	CreatedBy    string          `db:"created_by" json:"created_by"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	FinishedAt   *time.Time      `db:"finished_at" json:"finished_at,omitempty"`
	ErrorMessage *string         `db:"error_message" json:"error_message,omitempty"`
}

// ReportJobParams are the request options, stored as JSONB.
type ReportJobParams struct {
	Format       ReportFormat `json:"format"`
	From         string       `json:"from,omitempty"`
	To           string       `json:"to,omitempty"`
	LowStockOnly bool         `json:"low_stock_only,omitempty"`
}

// ErrReportRange is returned by Range when the dispensing window is missing or inverted.
var ErrReportRange = errors.New("report needs a from date on or before its to date")

// Range parses the inclusive dispensing window.
func (p ReportJobParams) Range() (Date, Date, error) {
	if p.From == "" || p.To == "" {
		return Date{}, Date{}, ErrReportRange
	}
	from, err := ParseDate(p.From)
	if err != nil {
		return Date{}, Date{}, err
	}
	to, err := ParseDate(p.To)
	if err != nil {
		return Date{}, Date{}, err
	}
	if to.Before(from) {
		return Date{}, Date{}, ErrReportRange
	}
	return from, to, nil
}

func (p ReportJobParams) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal report job params: %w", err)
	}
	return data, nil
}

func (p *ReportJobParams) Scan(value interface{}) error {
	*p = ReportJobParams{}
	var data []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for ReportJobParams", value)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return fmt.Errorf("unmarshal report job params: %w", err)
	}
	return nil
}
